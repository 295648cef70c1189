package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/devaalay/asset-service/internal/config"
	"github.com/devaalay/asset-service/internal/storage"
)

const (
	colAnimations = "animations"
	colGodIdols   = "godidols"
	colSplash     = "splashes"
	colCategories = "animationcategories"
	colGods       = "gods"
)

// Mongo implements storage.Storage on a MongoDB database. Uniqueness is
// enforced by the unique indexes below, not by application locks.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	m := &Mongo{client: client, db: client.Database(cfg.Mongo.DBName)}

	if err := m.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	// One video animation per (idol, category); one image set per category.
	_, err := m.db.Collection(colAnimations).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "godIdol", Value: 1}, {Key: "category", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"godIdol": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"godIdol": bson.M{"$exists": false}}),
		},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "order", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = m.db.Collection(colGodIdols).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "godId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = m.db.Collection(colSplash).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "serialNo", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "order", Value: 1}, {Key: "serialNo", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = m.db.Collection(colCategories).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	return err
}

// mapErr translates driver errors to the storage sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicateKey
	}
	return err
}

func now() time.Time {
	return time.Now().UTC()
}
