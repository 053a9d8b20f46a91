// Package notify delivers booking confirmations by SMS (Twilio) and support
// messages by email (SendGrid).  A channel without credentials is skipped.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/iliyamo/carparking/internal/config"
	"github.com/iliyamo/carparking/internal/logging"
	"github.com/iliyamo/carparking/internal/queue"
)

type smsSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type mailSender interface {
	SendMail(ctx context.Context, to, subject, text string) error
}

var _ queue.Notifier = (*Dispatcher)(nil)

// Dispatcher turns consumed events into outgoing messages.
type Dispatcher struct {
	sms          smsSender
	mail         mailSender
	supportEmail string
}

// NewDispatcher builds the channels that are fully configured.
func NewDispatcher(cfg config.NotifyConfig) *Dispatcher {
	d := &Dispatcher{supportEmail: cfg.SupportEmail}
	if cfg.SMSEnabled() {
		d.sms = newTwilioSMS(cfg)
	}
	if cfg.EmailEnabled() {
		d.mail = newSendGridMail(cfg)
	}
	return d
}

// BookingCreated texts the driver a confirmation.
func (d *Dispatcher) BookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error {
	if d.sms == nil || ev.MobileNumber == "" {
		return nil
	}
	return d.sms.SendSMS(ctx, ev.MobileNumber, BookingText(ev))
}

// ContactCreated forwards the message to the support mailbox.
func (d *Dispatcher) ContactCreated(ctx context.Context, ev queue.ContactCreatedEvent) error {
	if d.mail == nil {
		return nil
	}
	subject := fmt.Sprintf("Contact #%d from %s", ev.ContactID, ev.Name)
	text := fmt.Sprintf("From: %s <%s>\nReceived: %s\n\n%s\n", ev.Name, ev.Email, ev.CreatedAt, ev.Message)
	return d.mail.SendMail(ctx, d.supportEmail, subject, text)
}

func BookingText(ev queue.BookingCreatedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking #%d confirmed: spot %s (level %s) from %s for %dh", ev.BookingID, ev.SpotName, ev.Level, ev.StartTime, ev.DurationHours)
	if ev.TotalAmount != "" {
		fmt.Fprintf(&b, ", total %s", ev.TotalAmount)
	}
	fmt.Fprintf(&b, ". Plate %s.", ev.LicensePlate)
	return b.String()
}

type twilioSMS struct {
	client *twilio.RestClient
	from   string
}

func newTwilioSMS(cfg config.NotifyConfig) *twilioSMS {
	return &twilioSMS{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username:   cfg.TwilioAccountSID,
			Password:   cfg.TwilioAuthToken,
			AccountSid: cfg.TwilioAccountSID,
		}),
		from: cfg.TwilioFromNumber,
	}
}

func (t *twilioSMS) SendSMS(ctx context.Context, to, body string) error {
	if !strings.HasPrefix(to, "+") {
		logging.Debug(ctx).Str("to", to).Msg("sms destination is not E.164, delivery may fail")
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		logging.Info(ctx).Str("sid", *resp.Sid).Msg("sms sent")
	}
	return nil
}

type sendGridMail struct {
	client *sendgrid.Client
	from   *mail.Email
}

func newSendGridMail(cfg config.NotifyConfig) *sendGridMail {
	return &sendGridMail{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail(cfg.SendGridFromName, cfg.SendGridFromEmail),
	}
}

func (s *sendGridMail) SendMail(ctx context.Context, to, subject, text string) error {
	msg := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", to), text, "")
	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	logging.Info(ctx).Int("status", resp.StatusCode).Str("to", to).Msg("mail sent")
	return nil
}
