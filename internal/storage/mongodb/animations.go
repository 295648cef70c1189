package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/types"
)

func (m *Mongo) CreateAnimation(ctx context.Context, a *types.Animation) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.TotalImages = len(a.Images)
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt

	_, err := m.db.Collection(colAnimations).InsertOne(ctx, a)
	return mapErr(err)
}

func (m *Mongo) AnimationByID(ctx context.Context, id primitive.ObjectID) (*types.Animation, error) {
	var a types.Animation
	err := m.db.Collection(colAnimations).FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (m *Mongo) AnimationByIdolCategory(ctx context.Context, idolID primitive.ObjectID, category string, excludeID *primitive.ObjectID) (*types.Animation, error) {
	filter := bson.M{"godIdol": idolID, "category": category}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}

	var a types.Animation
	err := m.db.Collection(colAnimations).FindOne(ctx, filter).Decode(&a)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (m *Mongo) ImageSetByCategory(ctx context.Context, category string) (*types.Animation, error) {
	filter := bson.M{"category": category, "godIdol": bson.M{"$exists": false}}

	var a types.Animation
	err := m.db.Collection(colAnimations).FindOne(ctx, filter).Decode(&a)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (m *Mongo) ListAnimations(ctx context.Context) ([]types.Animation, error) {
	return m.findAnimations(ctx, bson.M{},
		bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}})
}

func (m *Mongo) ListAnimationsByIdol(ctx context.Context, idolID primitive.ObjectID) ([]types.Animation, error) {
	return m.findAnimations(ctx, bson.M{"godIdol": idolID},
		bson.D{{Key: "order", Value: 1}, {Key: "category", Value: 1}})
}

func (m *Mongo) ListAnimationsByCategory(ctx context.Context, category string) ([]types.Animation, error) {
	return m.findAnimations(ctx, bson.M{"category": category, "isActive": true},
		bson.D{{Key: "order", Value: 1}})
}

func (m *Mongo) findAnimations(ctx context.Context, filter bson.M, sort bson.D) ([]types.Animation, error) {
	cursor, err := m.db.Collection(colAnimations).Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, mapErr(err)
	}

	var animations []types.Animation
	if err := cursor.All(ctx, &animations); err != nil {
		return nil, mapErr(err)
	}
	return animations, nil
}

func (m *Mongo) UpdateAnimation(ctx context.Context, a *types.Animation) error {
	// Derived, never trusted from input.
	a.TotalImages = len(a.Images)
	a.UpdatedAt = now()

	res, err := m.db.Collection(colAnimations).ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteAnimation(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.db.Collection(colAnimations).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
