package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devaalay/asset-service/internal/types"
)

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateKey is returned when a write violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

type CategoryListOptions struct {
	Search   string
	IsActive *bool
	Page     int64
	Limit    int64
}

type AnimationStore interface {
	CreateAnimation(ctx context.Context, a *types.Animation) error
	AnimationByID(ctx context.Context, id primitive.ObjectID) (*types.Animation, error)
	// AnimationByIdolCategory finds the record for an (idol, category) pair,
	// excluding excludeID when non-nil (the record being updated).
	AnimationByIdolCategory(ctx context.Context, idolID primitive.ObjectID, category string, excludeID *primitive.ObjectID) (*types.Animation, error)
	// ImageSetByCategory finds the image-set animation for a category.
	ImageSetByCategory(ctx context.Context, category string) (*types.Animation, error)
	ListAnimations(ctx context.Context) ([]types.Animation, error)
	ListAnimationsByIdol(ctx context.Context, idolID primitive.ObjectID) ([]types.Animation, error)
	ListAnimationsByCategory(ctx context.Context, category string) ([]types.Animation, error)
	UpdateAnimation(ctx context.Context, a *types.Animation) error
	DeleteAnimation(ctx context.Context, id primitive.ObjectID) error
}

type IdolStore interface {
	CreateGodIdol(ctx context.Context, idol *types.GodIdol) error
	GodIdolByID(ctx context.Context, id primitive.ObjectID) (*types.GodIdol, error)
	GodIdolByGod(ctx context.Context, godID primitive.ObjectID) (*types.GodIdol, error)
	ListGodIdols(ctx context.Context, activeOnly bool) ([]types.GodIdol, error)
	UpdateGodIdol(ctx context.Context, idol *types.GodIdol) error
	DeleteGodIdol(ctx context.Context, id primitive.ObjectID) error
	GodExists(ctx context.Context, id primitive.ObjectID) (bool, error)

	// CreateGodIdolWithAnimation writes both records atomically; neither
	// document exists if either write fails.
	CreateGodIdolWithAnimation(ctx context.Context, idol *types.GodIdol, anim *types.Animation) error
}

type SplashStore interface {
	CountSplash(ctx context.Context) (int64, error)
	CreateSplash(ctx context.Context, s *types.Splash) error
	SplashByID(ctx context.Context, id primitive.ObjectID) (*types.Splash, error)
	SplashBySerial(ctx context.Context, serialNo int, excludeID *primitive.ObjectID) (*types.Splash, error)
	ListSplash(ctx context.Context, activeOnly bool) ([]types.Splash, error)
	UpdateSplash(ctx context.Context, s *types.Splash) error
	DeleteSplash(ctx context.Context, id primitive.ObjectID) error
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c *types.AnimationCategory) error
	CategoryByID(ctx context.Context, id primitive.ObjectID) (*types.AnimationCategory, error)
	CategoryByName(ctx context.Context, name string) (*types.AnimationCategory, error)
	ListCategories(ctx context.Context, opts CategoryListOptions) (*types.CategoryList, error)
	UpdateCategory(ctx context.Context, c *types.AnimationCategory) error
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
}

// Storage is the full metadata store consumed by the service binaries.
type Storage interface {
	AnimationStore
	IdolStore
	SplashStore
	CategoryStore
}
