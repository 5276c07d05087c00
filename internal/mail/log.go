// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package mail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/samber/oops"

	"github.com/passgate/passgate/internal/auth"
)

// LogTransport writes messages to a local writer instead of delivering them.
// The structured log only records the envelope; the body, which holds the
// reset link, goes to the writer.
type LogTransport struct {
	logger *slog.Logger
	mu     sync.Mutex
	out    io.Writer
}

// NewLogTransport returns a LogTransport writing bodies to out, or os.Stdout
// when out is nil.
func NewLogTransport(logger *slog.Logger, out io.Writer) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = os.Stdout
	}
	return &LogTransport{logger: logger, out: out}
}

// Send implements auth.MailTransport.
func (t *LogTransport) Send(ctx context.Context, msg auth.Message) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("MAIL_SEND_CANCELLED").Wrap(err)
	}

	t.mu.Lock()
	_, err := fmt.Fprintf(t.out, "From: %s\nTo: %s\nSubject: %s\n\n%s\n", msg.From, msg.To, msg.Subject, msg.Text)
	t.mu.Unlock()
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("provider", ProviderLog).Wrap(err)
	}

	t.logger.InfoContext(ctx, "mail written to log transport", "to", msg.To, "subject", msg.Subject)
	return nil
}
