// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

// Package httpapi exposes the auth flows as a JSON API under /api.
//
// Every response body is JSON. Failures are {"message": "..."} where the
// message is the public message attached to the error; server failures are
// logged and always read "Server error".
package httpapi
