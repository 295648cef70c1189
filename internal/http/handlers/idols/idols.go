package idols

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devaalay/asset-service/internal/services/media"
	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/types"
	"github.com/devaalay/asset-service/internal/upload"
	"github.com/devaalay/asset-service/internal/utils/response"
)

type Media interface {
	Unstage(ctx context.Context, key string)
	SignObject(ctx context.Context, obj *types.StagedObject)
	MaxFileSize() int64
}

type Store interface {
	storage.IdolStore
	ListAnimationsByIdol(ctx context.Context, idolID primitive.ObjectID) ([]types.Animation, error)
	CategoryByName(ctx context.Context, name string) (*types.AnimationCategory, error)
}

// AnimationDeleter removes animation records when their idol is deleted.
type AnimationDeleter interface {
	DeleteAnimation(ctx context.Context, id primitive.ObjectID) error
}

// Create handles uploading a god idol video
// @Summary Create a new god idol
// @Tags god-idols
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Response "God idol created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "God not found"
// @Failure 409 {object} response.Response "God idol already exists"
// @Security BearerAuth
// @Router /idols [post]
func Create(co *upload.Coordinator, store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var godID primitive.ObjectID

		opts := upload.Options{
			Limits: upload.ParserLimits{MaxFileParts: 1, MaxFileSize: m.MaxFileSize()},
			Files: map[string]upload.FileRule{
				upload.AnyField: {
					Accept: upload.AcceptContentType("video/"),
					Key: func(s *upload.Session, ev *upload.FileEvent) string {
						return media.BuildKey("god-idols", ev.Filename)
					},
				},
			},
		}

		validate := func(ctx context.Context, s *upload.Session) error {
			var err error
			godID, err = s.ObjectIDField("godId")
			if err != nil {
				return err
			}
			if s.FirstFile() == nil {
				return upload.Validationf("video file is required")
			}

			exists, err := store.GodExists(ctx, godID)
			if err != nil {
				return err
			}
			if !exists {
				return upload.NotFoundf("god not found with the provided godId")
			}

			_, err = store.GodIdolByGod(ctx, godID)
			if err == nil {
				return upload.Conflictf("god idol already exists for this god")
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			return nil
		}

		commit := func(ctx context.Context, s *upload.Session) (any, []string, error) {
			idol := &types.GodIdol{
				GodID:    godID,
				Video:    s.FirstFile(),
				IsActive: s.BoolField("isActive", false),
			}

			if err := store.CreateGodIdol(ctx, idol); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return nil, nil, upload.Conflictf("god idol already exists for this god")
				}
				return nil, nil, err
			}
			return idol, nil, nil
		}

		result, err := co.Run(r.Context(), r, opts, validate, commit)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusCreated, result, "God idol created successfully")
	}
}

// CreateWithAnimation handles creating a god idol and its first animation in
// one request. The idol video and the animation video are staged
// concurrently; both records are written atomically.
// @Summary Create a god idol together with an animation
// @Tags god-idols
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Response "God idol and animation created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "God not found"
// @Failure 409 {object} response.Response "God idol or animation already exists"
// @Security BearerAuth
// @Router /idols/with-animation [post]
func CreateWithAnimation(co *upload.Coordinator, store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			godID    primitive.ObjectID
			category string
		)

		opts := upload.Options{
			Limits: upload.ParserLimits{MaxFileParts: 2, MaxFileSize: m.MaxFileSize()},
			Files: map[string]upload.FileRule{
				"godIdolVideo": {
					Accept: upload.AcceptContentType("video/"),
					Key: func(s *upload.Session, ev *upload.FileEvent) string {
						return media.BuildKey("god-idols", ev.Filename)
					},
				},
				"animationVideo": {
					Accept: upload.AcceptContentType("video/"),
					Key: func(s *upload.Session, ev *upload.FileEvent) string {
						prefix := "animations"
						if c, ok := s.Field("category"); ok && types.ValidAnimationCategory(c) {
							prefix = "animations/" + c
						}
						return media.BuildKey(prefix, ev.Filename)
					},
				},
			},
		}

		validate := func(ctx context.Context, s *upload.Session) error {
			var err error
			godID, err = s.ObjectIDField("godId")
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
			if _, err := store.CategoryByName(ctx, category); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return upload.NotFoundf("animation category not found")
				}
				return err
			}

			if s.File("godIdolVideo") == nil {
				return upload.Validationf("godIdolVideo file is required")
			}
			if s.File("animationVideo") == nil {
				return upload.Validationf("animationVideo file is required")
			}

			exists, err := store.GodExists(ctx, godID)
			if err != nil {
				return err
			}
			if !exists {
				return upload.NotFoundf("god not found with the provided godId")
			}

			_, err = store.GodIdolByGod(ctx, godID)
			if err == nil {
				return upload.Conflictf("god idol already exists for this god")
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			return nil
		}

		commit := func(ctx context.Context, s *upload.Session) (any, []string, error) {
			idol := &types.GodIdol{
				GodID:    godID,
				Video:    s.File("godIdolVideo"),
				IsActive: s.BoolField("isActive", false),
			}
			anim := &types.Animation{
				Category: category,
				Title:    s.FieldOr("title", ""),
				Video:    s.File("animationVideo"),
				IsActive: true,
				Order:    s.IntField("order", 0),
			}

			if err := store.CreateGodIdolWithAnimation(ctx, idol, anim); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return nil, nil, upload.Conflictf("god idol or animation already exists")
				}
				return nil, nil, err
			}

			return map[string]any{
				"godIdol":   idol,
				"animation": anim,
			}, nil, nil
		}

		result, err := co.Run(r.Context(), r, opts, validate, commit)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusCreated, result, "God idol and animation created successfully")
	}
}

// Update handles replacing a god idol's fields and optionally its video
// @Summary Update a god idol
// @Tags god-idols
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} response.Response "God idol updated successfully"
// @Failure 404 {object} response.Response "God idol not found"
// @Security BearerAuth
// @Router /idols/{id} [put]
func Update(co *upload.Coordinator, store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid god idol id"))
			return
		}

		idol, err := store.GodIdolByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("god idol not found"))
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
						return media.BuildKey("god-idols", ev.Filename)
					},
				},
			},
		}

		validate := func(ctx context.Context, s *upload.Session) error {
			if v, ok := s.Field("godId"); ok && v != "" {
				newGod, err := s.ObjectIDField("godId")
				if err != nil {
					return err
				}
				if newGod != idol.GodID {
					exists, err := store.GodExists(ctx, newGod)
					if err != nil {
						return err
					}
					if !exists {
						return upload.NotFoundf("god not found with the provided godId")
					}
					_, err = store.GodIdolByGod(ctx, newGod)
					if err == nil {
						return upload.Conflictf("god idol already exists for this god")
					}
					if !errors.Is(err, storage.ErrNotFound) {
						return err
					}
				}
			}
			return nil
		}

		commit := func(ctx context.Context, s *upload.Session) (any, []string, error) {
			if v, ok := s.Field("godId"); ok && v != "" {
				parsed, _ := primitive.ObjectIDFromHex(v)
				idol.GodID = parsed
			}
			if _, ok := s.Field("isActive"); ok {
				idol.IsActive = s.BoolField("isActive", idol.IsActive)
			}

			var superseded []string
			if newVideo := s.FirstFile(); newVideo != nil {
				if idol.Video != nil && idol.Video.Key != "" {
					superseded = append(superseded, idol.Video.Key)
				}
				idol.Video = newVideo
			}

			if err := store.UpdateGodIdol(ctx, idol); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return nil, nil, upload.Conflictf("god idol already exists for this god")
				}
				return nil, nil, err
			}
			return idol, superseded, nil
		}

		result, err := co.Run(r.Context(), r, opts, validate, commit)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, result, "God idol updated successfully")
	}
}
