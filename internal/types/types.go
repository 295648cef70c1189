package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AnimationCategoryName string

const (
	CategoryPouringWaterMilk     AnimationCategoryName = "pouring_water_milk"
	CategoryFlowerShowers        AnimationCategoryName = "flower_showers"
	CategoryLightingLamp         AnimationCategoryName = "lighting_lamp"
	CategoryOfferingsFruitsSweet AnimationCategoryName = "offerings_fruits_sweets"
)

// ValidAnimationCategory reports whether s is one of the known animation
// category names.
func ValidAnimationCategory(s string) bool {
	switch AnimationCategoryName(s) {
	case CategoryPouringWaterMilk, CategoryFlowerShowers,
		CategoryLightingLamp, CategoryOfferingsFruitsSweet:
		return true
	}
	return false
}

// StagedObject is the durable result of one object-store upload. It is
// immutable once produced; ownership passes to whichever record cites it.
type StagedObject struct {
	Key         string    `json:"key" bson:"key"`
	URL         string    `json:"url" bson:"url"`
	Filename    string    `json:"filename" bson:"filename"`
	Size        int64     `json:"size" bson:"size"`
	ContentType string    `json:"contentType,omitempty" bson:"contentType,omitempty"`
	ETag        string    `json:"etag,omitempty" bson:"etag,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt" bson:"uploadedAt"`

	// SignedURL is issued per request and never persisted.
	SignedURL *string `json:"signedUrl,omitempty" bson:"-"`
}

// ImageObject is one expanded archive entry. Order is the 1-based index at
// which the entry was accepted during archive iteration.
type ImageObject struct {
	Key        string    `json:"key" bson:"key"`
	Order      int       `json:"order" bson:"order"`
	Filename   string    `json:"filename" bson:"filename"`
	Size       int64     `json:"size" bson:"size"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`

	SignedURL *string `json:"signedUrl,omitempty" bson:"-"`
}

// Animation holds either a single staged video (per god idol and category)
// or an ordered image set expanded from a ZIP archive (one per category).
type Animation struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	GodIdolID   *primitive.ObjectID `json:"godIdol,omitempty" bson:"godIdol,omitempty"`
	Category    string              `json:"category" bson:"category"`
	Title       string              `json:"title" bson:"title"`
	Video       *StagedObject       `json:"video,omitempty" bson:"video,omitempty"`
	Images      []ImageObject       `json:"images,omitempty" bson:"images,omitempty"`
	TotalImages int                 `json:"totalImages" bson:"totalImages"`
	IsActive    bool                `json:"isActive" bson:"isActive"`
	Order       int                 `json:"order" bson:"order"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// ObjectKeys returns every object-store key the record cites.
func (a *Animation) ObjectKeys() []string {
	var keys []string
	if a.Video != nil && a.Video.Key != "" {
		keys = append(keys, a.Video.Key)
	}
	for _, img := range a.Images {
		if img.Key != "" {
			keys = append(keys, img.Key)
		}
	}
	return keys
}

type GodIdol struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	GodID     primitive.ObjectID `json:"godId" bson:"godId"`
	Video     *StagedObject      `json:"video" bson:"video"`
	IsActive  bool               `json:"isActive" bson:"isActive"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type Splash struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SerialNo  int                `json:"serialNo" bson:"serialNo"`
	Video     *StagedObject      `json:"video" bson:"video"`
	IsActive  bool               `json:"isActive" bson:"isActive"`
	Order     int                `json:"order" bson:"order"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// MaxSplashRecords caps the number of splash records, active or not.
const MaxSplashRecords = 4

type AnimationCategory struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Slug        string             `json:"slug" bson:"slug"`
	Icon        string             `json:"icon" bson:"icon"`
	Description string             `json:"description" bson:"description"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	Order       int                `json:"order" bson:"order"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type CategoryCreateRequest struct {
	Name        string `json:"name" validate:"required"`
	Icon        string `json:"icon" validate:"required"`
	Description string `json:"description"`
	Order       int    `json:"order" validate:"min=0"`
	IsActive    *bool  `json:"isActive"`
}

type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
	Order       *int    `json:"order" validate:"omitempty,min=0"`
	IsActive    *bool   `json:"isActive"`
}

type OrderUpdateRequest struct {
	Order int `json:"order" validate:"min=0"`
}

type Pagination struct {
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type CategoryList struct {
	Categories []AnimationCategory `json:"categories"`
	Pagination Pagination          `json:"pagination"`
}
