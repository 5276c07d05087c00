// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package mail

import (
	"context"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/samber/oops"

	"github.com/passgate/passgate/internal/auth"
)

// MailgunTransport sends through the Mailgun messages API.
type MailgunTransport struct {
	mg      *mailgun.MailgunImpl
	domain  string
	timeout time.Duration
}

// NewMailgunTransport validates cfg and returns a MailgunTransport.
func NewMailgunTransport(cfg MailgunConfig, timeout time.Duration) (*MailgunTransport, error) {
	if cfg.Domain == "" {
		return nil, missingSetting(ProviderMailgun, "domain")
	}
	if cfg.APIKey == "" {
		return nil, missingSetting(ProviderMailgun, "api_key")
	}

	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		mg.SetAPIBase(cfg.APIBase)
	}
	return &MailgunTransport{mg: mg, domain: cfg.Domain, timeout: timeout}, nil
}

// Send implements auth.MailTransport.
func (t *MailgunTransport) Send(ctx context.Context, msg auth.Message) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	m := t.mg.NewMessage(msg.From, msg.Subject, msg.Text)
	if err := m.AddRecipient(msg.To); err != nil {
		return oops.Code("MAIL_INVALID_RECIPIENT").With("provider", ProviderMailgun).Wrap(err)
	}
	if msg.HTML != "" {
		m.SetHtml(msg.HTML)
	}

	if _, _, err := t.mg.Send(ctx, m); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("provider", ProviderMailgun).
			With("domain", t.domain).
			Wrap(err)
	}
	return nil
}
