// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package mail

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/oops"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/passgate/passgate/internal/auth"
)

const sendGridEndpoint = "/v3/mail/send"

// SendGridTransport sends through the SendGrid v3 mail API.
type SendGridTransport struct {
	apiKey  string
	host    string
	timeout time.Duration
}

// NewSendGridTransport validates cfg and returns a SendGridTransport.
func NewSendGridTransport(cfg SendGridConfig, timeout time.Duration) (*SendGridTransport, error) {
	if cfg.APIKey == "" {
		return nil, missingSetting(ProviderSendGrid, "api_key")
	}
	return &SendGridTransport{apiKey: cfg.APIKey, host: cfg.Host, timeout: timeout}, nil
}

// Send implements auth.MailTransport. SendGrid answers 202 on acceptance;
// any non-2xx status is a failure.
func (t *SendGridTransport) Send(ctx context.Context, msg auth.Message) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	m := sgmail.NewSingleEmail(
		sgmail.NewEmail("", msg.From),
		msg.Subject,
		sgmail.NewEmail("", msg.To),
		msg.Text,
		msg.HTML,
	)

	req := sendgrid.GetRequest(t.apiKey, sendGridEndpoint, t.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("provider", ProviderSendGrid).Wrap(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return oops.Code("MAIL_SEND_FAILED").
			With("provider", ProviderSendGrid).
			With("status", resp.StatusCode).
			Errorf("sendgrid rejected message with status %d", resp.StatusCode)
	}
	return nil
}
