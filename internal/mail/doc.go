// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

// Package mail provides auth.MailTransport implementations: a logging
// transport for development, SMTP, Mailgun and SendGrid.
//
// Every transport bounds a send with its configured timeout on top of the
// caller's context. NewTransport selects one from Config.
package mail
