package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/carparking/internal/config"
	"github.com/iliyamo/carparking/internal/model"
	"github.com/iliyamo/carparking/internal/repository/memory"
)

func TestPurgeTokens(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	u, err := store.CreateUser(ctx, model.User{Email: "a@b.co", FullName: "A", PasswordHash: "x", Role: model.RoleCustomer, IsActive: true})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, store.StoreRefresh(ctx, u.ID, "expired", now.Add(-time.Hour)))
	require.NoError(t, store.StoreRefresh(ctx, u.ID, "live", now.Add(time.Hour)))
	require.NoError(t, store.StoreRefresh(ctx, u.ID, "revoked", now.Add(time.Hour)))
	require.NoError(t, store.RevokeByHash(ctx, "revoked"))

	s := NewScheduler(config.JobsConfig{TokenPurgeSpec: "@daily"}, store)
	s.Now = func() time.Time { return now.Add(time.Minute) }

	n, err := s.PurgeTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	uid, err := store.ValidateRefresh(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(config.JobsConfig{TokenPurgeSpec: "every now and then"}, memory.New())
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(config.JobsConfig{TokenPurgeSpec: "@hourly"}, memory.New())
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}
