// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package auth

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"net/url"
	texttemplate "text/template"

	"github.com/samber/oops"
)

// ResetSubject is the subject line of password reset messages.
const ResetSubject = "Password Reset"

// Message is an outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// MailTransport delivers messages. Send blocks until the message is accepted
// by the provider or fails.
type MailTransport interface {
	Send(ctx context.Context, msg Message) error
}

var (
	resetText = texttemplate.Must(texttemplate.New("reset.txt").Parse(
		`You requested a password reset. Use the link below within 15 minutes:

{{.Link}}

If you did not request this, you can ignore this message.
`))

	resetHTML = htmltemplate.Must(htmltemplate.New("reset.html").Parse(
		`<p>You requested a password reset.</p>
<p>Click <a href="{{.Link}}">here</a> to reset your password. The link expires in 15 minutes.</p>
<p>If you did not request this, you can ignore this message.</p>
`))
)

// ResetLink returns baseURL with the token appended as the token query parameter.
func ResetLink(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", oops.Code("MAIL_INVALID_RESET_URL").With("reset_url", baseURL).Wrap(err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NewResetMessage renders the password reset message for to.
func NewResetMessage(from, to, baseURL, token string) (Message, error) {
	link, err := ResetLink(baseURL, token)
	if err != nil {
		return Message{}, err
	}

	data := struct{ Link string }{Link: link}

	var text, html bytes.Buffer
	if err := resetText.Execute(&text, data); err != nil {
		return Message{}, oops.Code("MAIL_RENDER_FAILED").With("template", "text").Wrap(err)
	}
	if err := resetHTML.Execute(&html, data); err != nil {
		return Message{}, oops.Code("MAIL_RENDER_FAILED").With("template", "html").Wrap(err)
	}

	return Message{
		From:    from,
		To:      to,
		Subject: ResetSubject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
