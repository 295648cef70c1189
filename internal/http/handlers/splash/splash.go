package splash

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
	storage.SplashStore
}

// Create handles uploading a splash screen video. The record cap is checked
// before the request body is parsed, so an over-cap request never stages
// anything.
// @Summary Create a new splash screen
// @Tags splash
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Response "Splash screen created successfully"
// @Failure 400 {object} response.Response "Bad request or record cap reached"
// @Failure 409 {object} response.Response "Serial number already in use"
// @Security BearerAuth
// @Router /splash [post]
func Create(co *upload.Coordinator, store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := store.CountSplash(r.Context())
		if err != nil {
			response.Error(w, err)
			return
		}
		if count >= types.MaxSplashRecords {
			response.Error(w, upload.Validationf("maximum of %d splash screens allowed", types.MaxSplashRecords))
			return
		}

		var serialNo int

		opts := upload.Options{
			Limits: upload.ParserLimits{MaxFileParts: 1, MaxFileSize: m.MaxFileSize()},
			Files: map[string]upload.FileRule{
				upload.AnyField: {
					Accept: upload.AcceptContentType("video/"),
					Key: func(s *upload.Session, ev *upload.FileEvent) string {
						return media.BuildKey("splash", ev.Filename)
					},
				},
			},
		}

		validate := func(ctx context.Context, s *upload.Session) error {
			v, ok := s.Field("serialNo")
			if !ok || v == "" {
				return upload.Validationf("serialNo is required")
			}
			serialNo = s.IntField("serialNo", 0)
			if serialNo < 1 {
				return upload.Validationf("serialNo must be a positive number")
			}
			if s.FirstFile() == nil {
				return upload.Validationf("video file is required")
			}

			_, err := store.SplashBySerial(ctx, serialNo, nil)
			if err == nil {
				return upload.Conflictf("splash screen already exists with serialNo: %d", serialNo)
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			return nil
		}

		commit := func(ctx context.Context, s *upload.Session) (any, []string, error) {
			sp := &types.Splash{
				SerialNo: serialNo,
				Video:    s.FirstFile(),
				IsActive: s.BoolField("isActive", false),
				// Display order falls back to the serial number, so screens
				// without an explicit order still sort deterministically.
				Order: s.IntField("order", serialNo),
			}

			if err := store.CreateSplash(ctx, sp); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return nil, nil, upload.Conflictf("splash screen already exists with serialNo: %d", serialNo)
				}
				return nil, nil, err
			}
			return sp, nil, nil
		}

		result, err := co.Run(r.Context(), r, opts, validate, commit)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusCreated, result, "Splash screen created successfully")
	}
}

// Update handles replacing a splash screen's fields and optionally its video
// @Summary Update a splash screen
// @Tags splash
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} response.Response "Splash screen updated successfully"
// @Failure 404 {object} response.Response "Splash screen not found"
// @Failure 409 {object} response.Response "Serial number already in use"
// @Security BearerAuth
// @Router /splash/{id} [put]
func Update(co *upload.Coordinator, store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid splash screen id"))
			return
		}

		sp, err := store.SplashByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("splash screen not found"))
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
						return media.BuildKey("splash", ev.Filename)
					},
				},
			},
		}

		validate := func(ctx context.Context, s *upload.Session) error {
			if _, ok := s.Field("serialNo"); !ok {
				return nil
			}
			newSerial := s.IntField("serialNo", 0)
			if newSerial < 1 {
				return upload.Validationf("serialNo must be a positive number")
			}
			if newSerial == sp.SerialNo {
				return nil
			}
			_, err := store.SplashBySerial(ctx, newSerial, &id)
			if err == nil {
				return upload.Conflictf("splash screen already exists with serialNo: %d", newSerial)
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			return nil
		}

		commit := func(ctx context.Context, s *upload.Session) (any, []string, error) {
			if _, ok := s.Field("serialNo"); ok {
				sp.SerialNo = s.IntField("serialNo", sp.SerialNo)
			}
			if _, ok := s.Field("order"); ok {
				sp.Order = s.IntField("order", sp.Order)
			}
			if _, ok := s.Field("isActive"); ok {
				sp.IsActive = s.BoolField("isActive", sp.IsActive)
			}

			var superseded []string
			if newVideo := s.FirstFile(); newVideo != nil {
				if sp.Video != nil && sp.Video.Key != "" {
					superseded = append(superseded, sp.Video.Key)
				}
				sp.Video = newVideo
			}

			if err := store.UpdateSplash(ctx, sp); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					return nil, nil, upload.Conflictf("splash screen already exists with serialNo: %d", sp.SerialNo)
				}
				return nil, nil, err
			}
			return sp, superseded, nil
		}

		result, err := co.Run(r.Context(), r, opts, validate, commit)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, result, "Splash screen updated successfully")
	}
}

// GetAll handles listing every splash screen
// @Summary List splash screens
// @Tags splash
// @Produce json
// @Success 200 {object} response.Response "Splash screens fetched successfully"
// @Router /splash [get]
func GetAll(store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.ListSplash(r.Context(), false)
		if err != nil {
			response.Error(w, err)
			return
		}
		for i := range items {
			m.SignObject(r.Context(), items[i].Video)
		}
		response.OK(w, http.StatusOK, items, "Splash screens fetched successfully")
	}
}

// GetActive handles listing active splash screens in display order
// @Summary List active splash screens
// @Tags splash
// @Produce json
// @Success 200 {object} response.Response "Splash screens fetched successfully"
// @Router /splash/active [get]
func GetActive(store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.ListSplash(r.Context(), true)
		if err != nil {
			response.Error(w, err)
			return
		}
		for i := range items {
			m.SignObject(r.Context(), items[i].Video)
		}
		response.OK(w, http.StatusOK, items, "Splash screens fetched successfully")
	}
}

// GetByID handles fetching a single splash screen
// @Summary Get a splash screen by id
// @Tags splash
// @Produce json
// @Success 200 {object} response.Response "Splash screen fetched successfully"
// @Failure 404 {object} response.Response "Splash screen not found"
// @Router /splash/{id} [get]
func GetByID(store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid splash screen id"))
			return
		}

		sp, err := store.SplashByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("splash screen not found"))
				return
			}
			response.Error(w, err)
			return
		}

		m.SignObject(r.Context(), sp.Video)
		response.OK(w, http.StatusOK, sp, "Splash screen fetched successfully")
	}
}

// Delete handles removing a splash screen and its stored video
// @Summary Delete a splash screen
// @Tags splash
// @Produce json
// @Success 200 {object} response.Response "Splash screen deleted successfully"
// @Failure 404 {object} response.Response "Splash screen not found"
// @Security BearerAuth
// @Router /splash/{id} [delete]
func Delete(store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid splash screen id"))
			return
		}

		sp, err := store.SplashByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("splash screen not found"))
				return
			}
			response.Error(w, err)
			return
		}

		if err := store.DeleteSplash(r.Context(), id); err != nil {
			response.Error(w, err)
			return
		}

		if sp.Video != nil && sp.Video.Key != "" {
			m.Unstage(r.Context(), sp.Video.Key)
		}

		response.OK(w, http.StatusOK, nil, "Splash screen deleted successfully")
	}
}

// Toggle handles flipping a splash screen's active flag
// @Summary Toggle a splash screen's active status
// @Tags splash
// @Produce json
// @Success 200 {object} response.Response "Splash screen status updated successfully"
// @Failure 404 {object} response.Response "Splash screen not found"
// @Security BearerAuth
// @Router /splash/{id}/toggle [patch]
func Toggle(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid splash screen id"))
			return
		}

		sp, err := store.SplashByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("splash screen not found"))
				return
			}
			response.Error(w, err)
			return
		}

		sp.IsActive = !sp.IsActive
		if err := store.UpdateSplash(r.Context(), sp); err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, sp, "Splash screen status updated successfully")
	}
}
