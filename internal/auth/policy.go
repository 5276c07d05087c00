// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package auth

import (
	"regexp"
	"strings"
)

// MinPasswordLength is the shortest password ValidatePasswordStrength accepts.
const MinPasswordLength = 6

// PasswordSymbols is the set of symbols a password may (and must) draw from.
const PasswordSymbols = "@$!%*?&"

// emailRegex matches local@domain.tld where no part contains whitespace or @.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmailSyntax reports whether s has the shape local@domain.tld.
// No DNS or mailbox checks are made.
func ValidateEmailSyntax(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidatePasswordStrength reports whether s satisfies the password policy:
//   - at least MinPasswordLength characters
//   - at least one lowercase letter, one uppercase letter and one digit
//   - at least one symbol from PasswordSymbols
//   - no character outside A-Z, a-z, 0-9 and PasswordSymbols
func ValidatePasswordStrength(s string) bool {
	if len(s) < MinPasswordLength {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return lower && upper && digit && symbol
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Stores compare emails in this form.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
