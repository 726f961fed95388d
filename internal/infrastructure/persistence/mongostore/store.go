// Package mongostore implements the document store on MongoDB.
// Each document is {_id: key, body: JSON text, version, updatedAt}.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillera/skillera-hub/internal/domain/shared"
	"github.com/skillera/skillera-hub/internal/infrastructure/persistence/docstore"
)

// Config holds connection settings.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type record struct {
	Key       string    `bson:"_id"`
	Body      string    `bson:"body"`
	Version   int64     `bson:"version"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Store implements docstore.Store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect dials MongoDB and pings it.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Collection == "" {
		cfg.Collection = "documents"
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping: %w", err)
	}

	return &Store{client: client, coll: client.Database(cfg.Database).Collection(cfg.Collection)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Name() string { return "mongo" }

// Ping implements docstore.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, key string) (docstore.Document, error) {
	var rec record
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return docstore.Document{}, shared.ErrDocumentMissing
		}
		return docstore.Document{}, docstore.Persistence("Get", err)
	}
	return docstore.Document{Key: key, Data: []byte(rec.Body), Version: rec.Version}, nil
}

// Put implements docstore.Store.
func (s *Store) Put(ctx context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	now := time.Now().UTC()

	if expectedVersion == 0 {
		_, err := s.coll.InsertOne(ctx, record{Key: key, Body: string(data), Version: 1, UpdatedAt: now})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return 0, shared.ErrVersionConflict
			}
			return 0, docstore.Persistence("Put", err)
		}
		return 1, nil
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": key, "version": expectedVersion},
		bson.M{
			"$set": bson.M{"body": string(data), "updatedAt": now},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return 0, docstore.Persistence("Put", err)
	}
	if res.MatchedCount == 0 {
		return 0, shared.ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	return docstore.Persistence("Delete", err)
}

// List implements docstore.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1})

	cur, err := s.coll.Find(ctx, prefixFilter(prefix), opts)
	if err != nil {
		return nil, docstore.Persistence("List", err)
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var row struct {
			Key string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, docstore.Persistence("List", err)
		}
		keys = append(keys, row.Key)
	}
	return keys, docstore.Persistence("List", cur.Err())
}

func prefixFilter(prefix string) bson.M {
	if prefix == "" {
		return bson.M{}
	}
	return bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
}

var _ docstore.Store = (*Store)(nil)
