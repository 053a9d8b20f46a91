// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/carparking/internal/config"
	"github.com/iliyamo/carparking/internal/logging"
	"github.com/iliyamo/carparking/internal/repository"
)

type Scheduler struct {
	cfg    config.JobsConfig
	tokens repository.TokenStore
	cron   *cron.Cron

	// Now is the purge cutoff clock.
	Now func() time.Time
}

func NewScheduler(cfg config.JobsConfig, tokens repository.TokenStore) *Scheduler {
	if tokens == nil {
		panic("nil token store passed to NewScheduler")
	}
	return &Scheduler{
		cfg:    cfg,
		tokens: tokens,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// PurgeTokens deletes refresh tokens that expired or were revoked before now.
func (s *Scheduler) PurgeTokens(ctx context.Context) (int64, error) {
	n, err := s.tokens.PurgeStale(ctx, s.Now())
	if err != nil {
		return 0, fmt.Errorf("cron job: purge refresh tokens: %w", err)
	}
	logging.Info(ctx).Int64("purged", n).Msg("cron job: refresh tokens purged")
	return n, nil
}

// Start registers the jobs and starts the cron runner in its own goroutine.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.TokenPurgeSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.PurgeTokens(ctx); err != nil {
			logging.Error(ctx).Err(err).Msg("cron job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule token purge %q: %w", s.cfg.TokenPurgeSpec, err)
	}
	s.cron.Start()
	logging.Info(context.Background()).Str("token_purge", s.cfg.TokenPurgeSpec).Msg("cron jobs scheduled")
	return nil
}

// Stop prevents new runs and waits for a running job or ctx, whichever
// finishes first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
