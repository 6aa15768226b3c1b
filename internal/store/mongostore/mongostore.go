// Package mongostore implements the entity store on MongoDB, using the
// collection names of the serverless deployment.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionUsers        = "users"
	CollectionExpenses     = "expenses"
	CollectionUserRequests = "userRequests"
	CollectionCategories   = "categories"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the connection and selects database name.
func Connect(ctx context.Context, uri, name string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(name)}, nil
}

// EnsureIndexes creates the unique keys the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionUserRequests: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "requestedAt", Value: -1}}},
		},
		CollectionExpenses: {
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: 1}}},
		},
		CollectionCategories: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, models := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{coll: s.db.Collection(CollectionUsers)}
}

func (s *Store) Requests() *RequestRepository {
	return &RequestRepository{coll: s.db.Collection(CollectionUserRequests)}
}

func (s *Store) Categories() *CategoryRepository {
	return &CategoryRepository{coll: s.db.Collection(CollectionCategories)}
}

func (s *Store) Expenses() *ExpenseRepository {
	return &ExpenseRepository{coll: s.db.Collection(CollectionExpenses)}
}

func (s *Store) PingContext(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// setOrUnset builds an update that sets every non-nil field and removes
// the rest.
func setOrUnset(fields bson.D) bson.D {
	set, unset := bson.D{}, bson.D{}
	for _, f := range fields {
		if isNil(f.Value) {
			unset = append(unset, bson.E{Key: f.Key, Value: ""})
			continue
		}
		set = append(set, f)
	}
	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update
}

func isNil(v interface{}) bool {
	switch p := v.(type) {
	case nil:
		return true
	case *string:
		return p == nil
	case *time.Time:
		return p == nil
	}
	return false
}
