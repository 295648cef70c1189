package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/types"
)

func (m *Mongo) CountSplash(ctx context.Context) (int64, error) {
	count, err := m.db.Collection(colSplash).CountDocuments(ctx, bson.M{})
	return count, mapErr(err)
}

func (m *Mongo) CreateSplash(ctx context.Context, s *types.Splash) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt

	_, err := m.db.Collection(colSplash).InsertOne(ctx, s)
	return mapErr(err)
}

func (m *Mongo) SplashByID(ctx context.Context, id primitive.ObjectID) (*types.Splash, error) {
	var s types.Splash
	err := m.db.Collection(colSplash).FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (m *Mongo) SplashBySerial(ctx context.Context, serialNo int, excludeID *primitive.ObjectID) (*types.Splash, error) {
	filter := bson.M{"serialNo": serialNo}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	var s types.Splash
	err := m.db.Collection(colSplash).FindOne(ctx, filter).Decode(&s)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (m *Mongo) ListSplash(ctx context.Context, activeOnly bool) ([]types.Splash, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}

	cursor, err := m.db.Collection(colSplash).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "serialNo", Value: 1}}))
	if err != nil {
		return nil, mapErr(err)
	}

	var splashes []types.Splash
	if err := cursor.All(ctx, &splashes); err != nil {
		return nil, mapErr(err)
	}
	return splashes, nil
}

func (m *Mongo) UpdateSplash(ctx context.Context, s *types.Splash) error {
	s.UpdatedAt = now()

	res, err := m.db.Collection(colSplash).ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteSplash(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.db.Collection(colSplash).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
