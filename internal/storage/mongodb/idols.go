package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/types"
)

func (m *Mongo) CreateGodIdol(ctx context.Context, idol *types.GodIdol) error {
	if idol.ID.IsZero() {
		idol.ID = primitive.NewObjectID()
	}
	idol.CreatedAt = now()
	idol.UpdatedAt = idol.CreatedAt

	_, err := m.db.Collection(colGodIdols).InsertOne(ctx, idol)
	return mapErr(err)
}

func (m *Mongo) GodIdolByID(ctx context.Context, id primitive.ObjectID) (*types.GodIdol, error) {
	var idol types.GodIdol
	err := m.db.Collection(colGodIdols).FindOne(ctx, bson.M{"_id": id}).Decode(&idol)
	if err != nil {
		return nil, mapErr(err)
	}
	return &idol, nil
}

func (m *Mongo) GodIdolByGod(ctx context.Context, godID primitive.ObjectID) (*types.GodIdol, error) {
	var idol types.GodIdol
	err := m.db.Collection(colGodIdols).FindOne(ctx, bson.M{"godId": godID}).Decode(&idol)
	if err != nil {
		return nil, mapErr(err)
	}
	return &idol, nil
}

func (m *Mongo) ListGodIdols(ctx context.Context, activeOnly bool) ([]types.GodIdol, error) {
	filter := bson.M{}
	if activeOnly {
		filter["isActive"] = true
	}

	cursor, err := m.db.Collection(colGodIdols).Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, mapErr(err)
	}

	var idols []types.GodIdol
	if err := cursor.All(ctx, &idols); err != nil {
		return nil, mapErr(err)
	}
	return idols, nil
}

func (m *Mongo) UpdateGodIdol(ctx context.Context, idol *types.GodIdol) error {
	idol.UpdatedAt = now()

	res, err := m.db.Collection(colGodIdols).ReplaceOne(ctx, bson.M{"_id": idol.ID}, idol)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteGodIdol(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.db.Collection(colGodIdols).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) GodExists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := m.db.Collection(colGods).CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, mapErr(err)
	}
	return count > 0, nil
}

// CreateGodIdolWithAnimation writes both records in one multi-document
// transaction. If the animation insert fails the idol insert is aborted with
// it, so the pair is atomic from the caller's point of view.
func (m *Mongo) CreateGodIdolWithAnimation(ctx context.Context, idol *types.GodIdol, anim *types.Animation) error {
	if idol.ID.IsZero() {
		idol.ID = primitive.NewObjectID()
	}
	idol.CreatedAt = now()
	idol.UpdatedAt = idol.CreatedAt

	if anim.ID.IsZero() {
		anim.ID = primitive.NewObjectID()
	}
	idolID := idol.ID
	anim.GodIdolID = &idolID
	anim.TotalImages = len(anim.Images)
	anim.CreatedAt = idol.CreatedAt
	anim.UpdatedAt = idol.CreatedAt

	session, err := m.client.StartSession()
	if err != nil {
		return mapErr(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := m.db.Collection(colGodIdols).InsertOne(sc, idol); err != nil {
			return nil, err
		}
		if _, err := m.db.Collection(colAnimations).InsertOne(sc, anim); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return mapErr(err)
}
