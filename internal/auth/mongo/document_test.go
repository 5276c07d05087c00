// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/passgate/passgate/internal/auth"
	"github.com/passgate/passgate/pkg/errutil"
)

func TestDocumentRoundTrip(t *testing.T) {
	a, err := auth.NewAccount("Ada", "ada@x.com", "$2a$10$hash", time.Now().Truncate(time.Millisecond))
	require.NoError(t, err)

	raw, err := bson.Marshal(toDocument(a))
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Equal(t, a.ID.String(), fields["_id"])
	assert.Equal(t, "ada@x.com", fields["email"])
	assert.Contains(t, fields, "password_hash")

	var doc accountDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got, err := fromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))
}

func TestFromDocument_CorruptID(t *testing.T) {
	_, err := fromDocument(accountDocument{ID: "nope"})
	errutil.AssertErrorCode(t, err, "ACCOUNT_CORRUPT_ID")
}
