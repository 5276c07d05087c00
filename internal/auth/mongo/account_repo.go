// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

// Package mongo implements auth.AccountStore on MongoDB.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/passgate/passgate/internal/auth"
)

// CollectionName is the collection accounts are stored in.
const CollectionName = "accounts"

// accountDocument is the stored shape of an account. _id holds the ULID string.
type accountDocument struct {
	ID           string    `bson:"_id"`
	DisplayName  string    `bson:"display_name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// AccountRepository implements auth.AccountStore using MongoDB.
type AccountRepository struct {
	collection *mongo.Collection
}

// NewAccountRepository returns a repository over db's accounts collection
// and ensures the unique index on email exists.
func NewAccountRepository(ctx context.Context, db *mongo.Database) (*AccountRepository, error) {
	collection := db.Collection(CollectionName)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("accounts_email_key"),
	})
	if err != nil {
		return nil, oops.Code("ACCOUNT_INDEX_FAILED").
			With("collection", CollectionName).
			Wrap(err)
	}
	return &AccountRepository{collection: collection}, nil
}

// FindByEmail retrieves an account by normalized email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	account, err := r.findOne(ctx, bson.M{"email": email})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// FindByID retrieves an account by ID.
func (r *AccountRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	account, err := r.findOne(ctx, bson.M{"_id": id.String()})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id.String()).
			Wrap(err)
	}
	return account, nil
}

// Create inserts a new account. A duplicate key on email is reported as
// auth.ErrDuplicateEmail.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.collection.InsertOne(ctx, toDocument(account))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return oops.Code("ACCOUNT_DUPLICATE_EMAIL").
				With("email", account.Email).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("id", account.ID.String()).
			Wrap(err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash and updated_at.
func (r *AccountRepository) UpdatePasswordHash(ctx context.Context, id ulid.ULID, passwordHash string, updatedAt time.Time) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{
			"password_hash": passwordHash,
			"updated_at":    updatedAt,
		}},
	)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_PASSWORD_FAILED").
			With("operation", "update password hash").
			With("id", id.String()).
			Wrap(err)
	}
	if res.MatchedCount == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*auth.Account, error) {
	var doc accountDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, err
	}
	return fromDocument(doc)
}

func toDocument(a *auth.Account) accountDocument {
	return accountDocument{
		ID:           a.ID.String(),
		DisplayName:  a.DisplayName,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func fromDocument(doc accountDocument) (*auth.Account, error) {
	id, err := ulid.Parse(doc.ID)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_ID").With("id", doc.ID).Wrap(err)
	}
	return &auth.Account{
		ID:           id,
		DisplayName:  doc.DisplayName,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

var _ auth.AccountStore = (*AccountRepository)(nil)
