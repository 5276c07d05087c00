// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package mongo

import (
	"context"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens a client for uri and verifies it with a primary ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, oops.Code("MONGO_CONNECT_FAILED").With("operation", "connect").Wrap(err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("MONGO_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}
	return client, nil
}
