package mongodb

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/types"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a category slug from its name: lowercase, runs of
// non-alphanumerics collapsed to a single underscore.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(slug, "_")
}

func (m *Mongo) CreateCategory(ctx context.Context, c *types.AnimationCategory) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.Slug = Slugify(c.Name)
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt

	_, err := m.db.Collection(colCategories).InsertOne(ctx, c)
	return mapErr(err)
}

func (m *Mongo) CategoryByID(ctx context.Context, id primitive.ObjectID) (*types.AnimationCategory, error) {
	var c types.AnimationCategory
	err := m.db.Collection(colCategories).FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (m *Mongo) CategoryByName(ctx context.Context, name string) (*types.AnimationCategory, error) {
	var c types.AnimationCategory
	err := m.db.Collection(colCategories).FindOne(ctx, bson.M{"name": name}).Decode(&c)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (m *Mongo) ListCategories(ctx context.Context, opts storage.CategoryListOptions) (*types.CategoryList, error) {
	filter := bson.M{}
	if opts.Search != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(opts.Search), "$options": "i"}
	}
	if opts.IsActive != nil {
		filter["isActive"] = *opts.IsActive
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 10
	}

	col := m.db.Collection(colCategories)

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, mapErr(err)
	}

	cursor, err := col.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "order", Value: 1}, {Key: "name", Value: 1}}).
		SetSkip((page-1)*limit).
		SetLimit(limit))
	if err != nil {
		return nil, mapErr(err)
	}

	categories := []types.AnimationCategory{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, mapErr(err)
	}

	pages := total / limit
	if total%limit != 0 {
		pages++
	}

	return &types.CategoryList{
		Categories: categories,
		Pagination: types.Pagination{Page: page, Limit: limit, Total: total, Pages: pages},
	}, nil
}

func (m *Mongo) UpdateCategory(ctx context.Context, c *types.AnimationCategory) error {
	c.Slug = Slugify(c.Name)
	c.UpdatedAt = now()

	res, err := m.db.Collection(colCategories).ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.db.Collection(colCategories).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
