package animations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devaalay/asset-service/internal/services/media"
	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/types"
	"github.com/devaalay/asset-service/internal/upload"
	"github.com/devaalay/asset-service/internal/utils/response"
)

// Media is the slice of the media service these handlers consume.
type Media interface {
	Unstage(ctx context.Context, key string)
	SignObject(ctx context.Context, obj *types.StagedObject)
	SignImages(ctx context.Context, images []types.ImageObject)
	MaxFileSize() int64
}

// Store is the slice of the metadata store these handlers consume.
type Store interface {
	storage.AnimationStore
	GodIdolByID(ctx context.Context, id primitive.ObjectID) (*types.GodIdol, error)
}

// Expander expands a ZIP payload into staged image descriptors.
type Expander interface {
	Expand(ctx context.Context, zipBytes []byte, keyPrefix string) ([]types.ImageObject, error)
}

// keyPrefix picks the storage prefix for an animation video. The category
// field only narrows the prefix when it arrived before the file part.
func keyPrefix(s *upload.Session, fallback string) string {
	if c, ok := s.Field("category"); ok && types.ValidAnimationCategory(c) {
		return "animations/" + c
	}
	if fallback != "" {
		return "animations/" + fallback
	}
	return "animations"
}

func acceptZip(ev *upload.FileEvent) error {
	if strings.HasSuffix(strings.ToLower(ev.Filename), ".zip") || strings.Contains(ev.ContentType, "zip") {
		return nil
	}
	return upload.Validationf("only ZIP archives are allowed")
}

// Create handles creating an animation video for a god idol
// @Summary Create a new animation
// @Tags animations
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Response "Animation created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "God idol not found"
// @Failure 409 {object} response.Response "Animation already exists"
// @Security BearerAuth
// @Router /animations [post]
func Create(co *upload.Coordinator, store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			idolID   primitive.ObjectID
			category string
		)

		opts := upload.Options{
			Limits: upload.ParserLimits{MaxFileParts: 1, MaxFileSize: m.MaxFileSize()},
			Files: map[string]upload.FileRule{
				upload.AnyField: {
					Accept: upload.AcceptContentType("video/"),
					Key: func(s *upload.Session, ev *upload.FileEvent) string {
						return media.BuildKey(keyPrefix(s, ""), ev.Filename)
					},
				},
			},
		}

		validate := func(ctx context.Context, s *upload.Session) error {
			var err error
			idolID, err = s.ObjectIDField("godIdol")
			if err != nil {
				return err
			}

			category, _ = s.Field("category")
			if category == "" {
				return upload.Validationf("category is required")
			}
			if !types.ValidAnimationCategory(category) {
				return upload.Validationf("invalid category")
			}

			if s.FirstFile() == nil {
				return upload.Validationf("video file is required")
			}

			if _, err := store.GodIdolByID(ctx, idolID); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return upload.NotFoundf("god idol not found with the provided godIdol")
				}
				return err
			}

			_, err = store.AnimationByIdolCategory(ctx, idolID, category, nil)
			if err == nil {
				return upload.Conflictf("animation already exists for this god idol in category: %s", category)
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			return nil
		}

		commit := func(ctx context.Context, s *upload.Session) (any, []string, error) {
			anim := &types.Animation{
				GodIdolID: &idolID,
				Category:  category,
				Title:     s.FieldOr("title", ""),
				Video:     s.FirstFile(),
				IsActive:  s.BoolField("isActive", false),
				Order:     s.IntField("order", 0),
			}

			if err := store.CreateAnimation(ctx, anim); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return nil, nil, upload.Conflictf("animation already exists for this god idol in category: %s", category)
				}
				return nil, nil, err
			}
			return anim, nil, nil
		}

		result, err := co.Run(r.Context(), r, opts, validate, commit)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusCreated, result, "Animation created successfully")
	}
}

// Update handles replacing an animation's fields and optionally its video
// @Summary Update an animation
// @Tags animations
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} response.Response "Animation updated successfully"
// @Failure 404 {object} response.Response "Animation not found"
// @Failure 409 {object} response.Response "Animation already exists"
// @Security BearerAuth
// @Router /animations/{id} [put]
func Update(co *upload.Coordinator, store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid animation id"))
			return
		}

		anim, err := store.AnimationByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("animation not found"))
				return
			}
			response.Error(w, err)
			return
		}

		opts := upload.Options{
			Limits: upload.ParserLimits{MaxFileParts: 1, MaxFileSize: m.MaxFileSize()},
			Files: map[string]upload.FileRule{
				upload.AnyField: {
					Accept: upload.AcceptContentType("video/"),
					Key: func(s *upload.Session, ev *upload.FileEvent) string {
						return media.BuildKey(keyPrefix(s, anim.Category), ev.Filename)
					},
				},
			},
		}

		validate := func(ctx context.Context, s *upload.Session) error {
			if c, ok := s.Field("category"); ok && !types.ValidAnimationCategory(c) {
				return upload.Validationf("invalid category")
			}

			newIdol := anim.GodIdolID
			if v, ok := s.Field("godIdol"); ok && v != "" {
				parsed, err := s.ObjectIDField("godIdol")
				if err != nil {
					return err
				}
				newIdol = &parsed
			}
			newCategory := s.FieldOr("category", anim.Category)

			changed := newCategory != anim.Category ||
				(newIdol != nil && anim.GodIdolID != nil && *newIdol != *anim.GodIdolID) ||
				(newIdol != nil) != (anim.GodIdolID != nil)
			if changed && newIdol != nil {
				_, err := store.AnimationByIdolCategory(ctx, *newIdol, newCategory, &id)
				if err == nil {
					return upload.Conflictf("animation already exists for this god idol in category: %s", newCategory)
				}
				if !errors.Is(err, storage.ErrNotFound) {
					return err
				}
			}
			return nil
		}

		commit := func(ctx context.Context, s *upload.Session) (any, []string, error) {
			if v, ok := s.Field("godIdol"); ok && v != "" {
				parsed, _ := primitive.ObjectIDFromHex(v)
				anim.GodIdolID = &parsed
			}
			if v, ok := s.Field("category"); ok && v != "" {
				anim.Category = v
			}
			if v, ok := s.Field("title"); ok && v != "" {
				anim.Title = v
			}
			if _, ok := s.Field("order"); ok {
				anim.Order = s.IntField("order", anim.Order)
			}
			if _, ok := s.Field("isActive"); ok {
				anim.IsActive = s.BoolField("isActive", anim.IsActive)
			}

			// The superseded video is deleted only after the write succeeds.
			var superseded []string
			if newVideo := s.FirstFile(); newVideo != nil {
				if anim.Video != nil && anim.Video.Key != "" {
					superseded = append(superseded, anim.Video.Key)
				}
				anim.Video = newVideo
			}

			if err := store.UpdateAnimation(ctx, anim); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return nil, nil, upload.Conflictf("animation already exists for this god idol in category: %s", anim.Category)
				}
				return nil, nil, err
			}
			return anim, superseded, nil
		}

		result, err := co.Run(r.Context(), r, opts, validate, commit)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, result, "Animation updated successfully")
	}
}

// UploadZip handles creating an image-set animation from a ZIP archive
// @Summary Upload a ZIP of animation frames
// @Tags animations
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Response "Animation created successfully"
// @Failure 400 {object} response.Response "Bad request or empty archive"
// @Failure 409 {object} response.Response "Category already has an image set"
// @Security BearerAuth
// @Router /animations/upload-zip [post]
func UploadZip(co *upload.Coordinator, store Store, m Media, ex Expander) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var category string

		opts := upload.Options{
			Limits: upload.ParserLimits{MaxFileParts: 1, MaxFileSize: m.MaxFileSize()},
			Files: map[string]upload.FileRule{
				upload.AnyField: {
					Accept: acceptZip,
					Expand: func(ctx context.Context, s *upload.Session, data []byte) ([]types.ImageObject, error) {
						return ex.Expand(ctx, data, media.BuildSetPrefix(keyPrefix(s, "")))
					},
				},
			},
		}

		validate := func(ctx context.Context, s *upload.Session) error {
			category, _ = s.Field("category")
			if category == "" {
				return upload.Validationf("category is required")
			}
			if !types.ValidAnimationCategory(category) {
				return upload.Validationf("invalid category")
			}
			if title, _ := s.Field("title"); title == "" {
				return upload.Validationf("title is required")
			}
			if len(s.Images()) == 0 {
				return upload.Validationf("archive contained no usable images")
			}

			_, err := store.ImageSetByCategory(ctx, category)
			if err == nil {
				return upload.Conflictf("image set already exists for category: %s", category)
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			return nil
		}

		commit := func(ctx context.Context, s *upload.Session) (any, []string, error) {
			anim := &types.Animation{
				Category: category,
				Title:    s.FieldOr("title", ""),
				Images:   s.Images(),
				IsActive: s.BoolField("isActive", true),
				Order:    s.IntField("order", 0),
			}

			if err := store.CreateAnimation(ctx, anim); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return nil, nil, upload.Conflictf("image set already exists for category: %s", category)
				}
				return nil, nil, err
			}
			return anim, nil, nil
		}

		result, err := co.Run(r.Context(), r, opts, validate, commit)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusCreated, result, "Animation created successfully")
	}
}
