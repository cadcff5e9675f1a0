package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0:8080"`

	// Days of the mandatory waiting period after an award before a
	// contract may be generated or signed.
	StandstillDays int `env:"STANDSTILL_PERIOD_DAYS" envDefault:"10"`

	// Day offsets before the tender deadline at which reminder
	// notifications fire, and the cron spec of the sweep that checks them.
	ReminderOffsets  []int  `env:"REMINDER_OFFSET_DAYS" envSeparator:"," envDefault:"7,3,1"`
	ReminderSchedule string `env:"REMINDER_SCHEDULE" envDefault:"@hourly"`

	AttachmentDir string `env:"ATTACHMENT_DIR" envDefault:"./attachments"`

	PostgresConfig
	SMTPConfig
}

func NewConfig() (*Config, error) {
	config := &Config{}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewConfig: %w", err)
	}
	return config, err
}

type PostgresConfig struct {
	Conn            string `env:"POSTGRES_CONN" envDefault:"postgres://test:test@db:5432/test?sslmode=disable"`
	AutoMigrateUp   string `env:"AUTO_MIGRATE_UP" envDefault:"true"`
	AutoMigrateDown string `env:"AUTO_MIGRATE_DOWN" envDefault:"false"`
	MigrationsURL   string `env:"MIGRATIONS_URL" envDefault:"file://internal/docstore/migrations"`
}

func NewPostgresConfig() (*PostgresConfig, error) {
	config := &PostgresConfig{}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewPostgresConfig: %w", err)
	}
	return config, err
}

type SMTPConfig struct {
	// EmailEnabled=false makes the mailer report every send as skipped,
	// which callers treat as success.
	EmailEnabled bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	SMTPHost     string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"noreply@smartplan.local"`
}
