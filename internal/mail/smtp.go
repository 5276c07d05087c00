// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/passgate/passgate/internal/auth"
)

// DefaultSMTPPort is the submission port used when SMTPConfig.Port is zero.
const DefaultSMTPPort = 587

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPTransport submits multipart/alternative messages over SMTP with
// STARTTLS and PLAIN auth.
type SMTPTransport struct {
	addr     string
	host     string
	auth     smtp.Auth
	timeout  time.Duration
	sendMail sendMailFunc
}

// NewSMTPTransport validates cfg and returns an SMTPTransport.
func NewSMTPTransport(cfg SMTPConfig, timeout time.Duration) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, missingSetting(ProviderSMTP, "host")
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultSMTPPort
	}

	t := &SMTPTransport{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		host:     cfg.Host,
		timeout:  timeout,
		sendMail: smtp.SendMail,
	}
	if cfg.Username != "" {
		t.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return t, nil
}

// Send implements auth.MailTransport. net/smtp has no context support, so
// the deadline is enforced by abandoning the submission goroutine.
func (t *SMTPTransport) Send(ctx context.Context, msg auth.Message) error {
	body, err := buildMIME(msg, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- t.sendMail(t.addr, t.auth, msg.From, []string{msg.To}, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return oops.Code("MAIL_SEND_FAILED").With("provider", ProviderSMTP).With("addr", t.addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
		return oops.Code("MAIL_SEND_TIMEOUT").With("provider", ProviderSMTP).With("addr", t.addr).Wrap(ctx.Err())
	}
}

// buildMIME renders msg as an RFC 5322 message with text and HTML parts.
func buildMIME(msg auth.Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	var out bytes.Buffer
	headers := [][2]string{
		{"From", msg.From},
		{"To", msg.To},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@passgate>", ulid.Make())},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + mw.Boundary()},
	}
	for _, h := range headers {
		fmt.Fprintf(&out, "%s: %s\r\n", h[0], h[1])
	}
	out.WriteString("\r\n")

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		pw, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, oops.Code("MAIL_ENCODE_FAILED").Wrap(err)
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, oops.Code("MAIL_ENCODE_FAILED").Wrap(err)
		}
		if err := qp.Close(); err != nil {
			return nil, oops.Code("MAIL_ENCODE_FAILED").Wrap(err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, oops.Code("MAIL_ENCODE_FAILED").Wrap(err)
	}

	out.Write(buf.Bytes())
	return out.Bytes(), nil
}
