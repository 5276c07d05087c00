// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

// Package auth implements credential issuance for Passgate.
//
// # Components
//
//   - ValidateEmailSyntax and ValidatePasswordStrength are the input policy.
//   - BcryptHasher hashes and verifies passwords.
//   - TokenService signs and verifies purpose-tagged HS256 tokens.
//   - Service runs register, login, forgot-password, reset-password and
//     session lookup against an AccountStore and a MailTransport.
//
// # Errors
//
// Every error returned by Service wraps one of the flow sentinels in
// errors.go or is a server error. KindOf classifies an error and
// PublicMessage returns the text that may be shown to a caller.
package auth
