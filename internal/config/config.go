package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	AdminEmails string `env:"ADMIN_EMAILS,required=true"`
	EmailFrom   string `env:"EMAIL_FROM,required=true"`

	WebhookRelayURL string `env:"WEBHOOK_RELAY_URL"`
	ResendAPIKey    string `env:"RESEND_API_KEY"`
	SMTPHost        string `env:"SMTP_HOST"`
	SMTPPort        int    `env:"SMTP_PORT,default=587"`
	SMTPUsername    string `env:"SMTP_USERNAME"`
	SMTPPassword    string `env:"SMTP_PASSWORD"`

	DatabaseDSN string `env:"DATABASE_DSN"`
	RedisURL    string `env:"REDIS_URL"`

	RateLimitPerMinute     int           `env:"RATE_LIMIT_PER_MINUTE,default=600"`
	QueueTickInterval      time.Duration `env:"QUEUE_TICK_INTERVAL,default=2s"`
	QueueBatchSize         int           `env:"QUEUE_BATCH_SIZE,default=5"`
	MaxAttempts            int           `env:"MAX_ATTEMPTS,default=3"`
	HealthCheckInterval    time.Duration `env:"HEALTH_CHECK_INTERVAL,default=60s"`
	AnalyticsFlushInterval time.Duration `env:"ANALYTICS_FLUSH_INTERVAL,default=30s"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.AdminEmailList()) == 0 {
		return fmt.Errorf("ADMIN_EMAILS must contain at least one address")
	}
	if c.WebhookRelayURL == "" && c.ResendAPIKey == "" && c.SMTPHost == "" {
		return fmt.Errorf("at least one email provider must be configured")
	}
	return nil
}

// AdminEmailList splits ADMIN_EMAILS on commas, trimming whitespace and
// dropping empty entries.
func (c *Config) AdminEmailList() []string {
	parts := strings.Split(c.AdminEmails, ",")
	emails := make([]string, 0, len(parts))
	for _, part := range parts {
		if email := strings.TrimSpace(part); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}
