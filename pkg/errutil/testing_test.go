// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/passgate/passgate/pkg/errutil"
)

func TestAssertErrorCode(t *testing.T) {
	err := oops.Code("ACCOUNT_NOT_FOUND").Errorf("account not found")
	errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertErrorCode_Wrapped(t *testing.T) {
	inner := oops.Code("TOKEN_EXPIRED").Errorf("token expired")
	err := oops.With("operation", "verify").Wrap(inner)
	errutil.AssertErrorCode(t, err, "TOKEN_EXPIRED")
}

func TestAssertErrorContext(t *testing.T) {
	err := oops.With("account_id", "01J0000000000000000000000").Errorf("lookup failed")
	errutil.AssertErrorContext(t, err, "account_id", "01J0000000000000000000000")
}

func TestAssertPublic(t *testing.T) {
	err := oops.Code("AUTH_INVALID_CREDENTIALS").Public("Invalid credentials").Errorf("password mismatch")
	errutil.AssertPublic(t, err, "Invalid credentials")
}
