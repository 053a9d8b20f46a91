package config

// QueueConfig configures the RabbitMQ publisher and the background consumer.
// An empty URL disables both.
type QueueConfig struct {
	URL              string
	BookingQueue     string
	ContactQueue     string
	ConsumerEnabled  bool
	ConsumerPrefetch int
	BookingLogDir    string
}

func LoadQueueConfig() QueueConfig {
	url := envStr("RABBITMQ_URL", envStr("AMQP_URL", ""))
	return QueueConfig{
		URL:              url,
		BookingQueue:     envStr("QUEUE_BOOKING_CREATED", "booking.created"),
		ContactQueue:     envStr("QUEUE_CONTACT_CREATED", "contact.created"),
		ConsumerEnabled:  envBool("QUEUE_CONSUMER_ENABLED", url != ""),
		ConsumerPrefetch: envInt("QUEUE_CONSUMER_PREFETCH", 50),
		BookingLogDir:    envStr("BOOKING_LOG_DIR", "logs"),
	}
}

// NotifyConfig holds SendGrid and Twilio credentials.  Each channel is only
// active when all of its fields are set.
type NotifyConfig struct {
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SupportEmail      string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromNumber  string
}

func LoadNotifyConfig() NotifyConfig {
	return NotifyConfig{
		SendGridAPIKey:    envStr("SENDGRID_API_KEY", ""),
		SendGridFromEmail: envStr("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  envStr("SENDGRID_FROM_NAME", "Car Parking"),
		SupportEmail:      envStr("SUPPORT_EMAIL", ""),
		TwilioAccountSID:  envStr("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   envStr("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:  envStr("TWILIO_FROM_NUMBER", ""),
	}
}

func (n NotifyConfig) EmailEnabled() bool {
	return n.SendGridAPIKey != "" && n.SendGridFromEmail != "" && n.SupportEmail != ""
}

func (n NotifyConfig) SMSEnabled() bool {
	return n.TwilioAccountSID != "" && n.TwilioAuthToken != "" && n.TwilioFromNumber != ""
}

// JobsConfig schedules maintenance work.  Specs use the standard five-field
// cron syntax or descriptors such as "@daily".
type JobsConfig struct {
	Enabled        bool
	TokenPurgeSpec string
}

func LoadJobsConfig() JobsConfig {
	return JobsConfig{
		Enabled:        envBool("JOBS_ENABLED", true),
		TokenPurgeSpec: envStr("JOBS_TOKEN_PURGE_SPEC", "@daily"),
	}
}
