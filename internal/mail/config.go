// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package mail

import (
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/passgate/passgate/internal/auth"
)

// Provider names accepted by NewTransport.
const (
	ProviderLog      = "log"
	ProviderSMTP     = "smtp"
	ProviderMailgun  = "mailgun"
	ProviderSendGrid = "sendgrid"
)

// DefaultTimeout bounds a single send when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Config selects and configures a transport.
type Config struct {
	Provider string        `koanf:"provider" json:"provider" jsonschema:"enum=log,enum=smtp,enum=mailgun,enum=sendgrid,default=log"`
	From     string        `koanf:"from" json:"from" jsonschema:"description=Sender address for outbound mail"`
	Timeout  time.Duration `koanf:"timeout" json:"timeout,omitempty" jsonschema:"type=string,description=Per-message send timeout (e.g. 30s)"`

	SMTP     SMTPConfig     `koanf:"smtp" json:"smtp,omitempty"`
	Mailgun  MailgunConfig  `koanf:"mailgun" json:"mailgun,omitempty"`
	SendGrid SendGridConfig `koanf:"sendgrid" json:"sendgrid,omitempty"`
}

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string `koanf:"host" json:"host,omitempty"`
	Port     int    `koanf:"port" json:"port,omitempty" jsonschema:"minimum=1,maximum=65535"`
	Username string `koanf:"username" json:"username,omitempty"`
	Password string `koanf:"password" json:"password,omitempty"`
}

// MailgunConfig configures the Mailgun transport.
type MailgunConfig struct {
	Domain  string `koanf:"domain" json:"domain,omitempty"`
	APIKey  string `koanf:"api_key" json:"api_key,omitempty"`
	APIBase string `koanf:"api_base" json:"api_base,omitempty" jsonschema:"description=Override the Mailgun API base URL (EU region or testing)"`
}

// SendGridConfig configures the SendGrid transport.
type SendGridConfig struct {
	APIKey string `koanf:"api_key" json:"api_key,omitempty"`
	Host   string `koanf:"host" json:"host,omitempty" jsonschema:"description=Override the SendGrid API host (testing)"`
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// NewTransport builds the transport named by cfg.Provider. An empty provider
// selects the log transport.
func NewTransport(cfg Config, logger *slog.Logger) (auth.MailTransport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case "", ProviderLog:
		return NewLogTransport(logger, nil), nil
	case ProviderSMTP:
		return NewSMTPTransport(cfg.SMTP, cfg.timeout())
	case ProviderMailgun:
		return NewMailgunTransport(cfg.Mailgun, cfg.timeout())
	case ProviderSendGrid:
		return NewSendGridTransport(cfg.SendGrid, cfg.timeout())
	}
	return nil, oops.Code("MAIL_UNKNOWN_PROVIDER").
		With("provider", cfg.Provider).
		Errorf("unknown mail provider %q", cfg.Provider)
}

func missingSetting(provider, key string) error {
	return oops.Code("MAIL_INVALID_CONFIG").
		With("provider", provider).
		With("setting", key).
		Errorf("%s transport requires %s", provider, key)
}
