package idols

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/upload"
	"github.com/devaalay/asset-service/internal/utils/response"
)

// GetAll handles listing every god idol
// @Summary List god idols
// @Tags god-idols
// @Produce json
// @Success 200 {object} response.Response "God idols fetched successfully"
// @Router /idols [get]
func GetAll(store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idols, err := store.ListGodIdols(r.Context(), false)
		if err != nil {
			response.Error(w, err)
			return
		}
		for i := range idols {
			m.SignObject(r.Context(), idols[i].Video)
		}
		response.OK(w, http.StatusOK, idols, "God idols fetched successfully")
	}
}

// GetActive handles listing active god idols
// @Summary List active god idols
// @Tags god-idols
// @Produce json
// @Success 200 {object} response.Response "God idols fetched successfully"
// @Router /idols/active [get]
func GetActive(store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idols, err := store.ListGodIdols(r.Context(), true)
		if err != nil {
			response.Error(w, err)
			return
		}
		for i := range idols {
			m.SignObject(r.Context(), idols[i].Video)
		}
		response.OK(w, http.StatusOK, idols, "God idols fetched successfully")
	}
}

// GetByID handles fetching a single god idol
// @Summary Get a god idol by id
// @Tags god-idols
// @Produce json
// @Success 200 {object} response.Response "God idol fetched successfully"
// @Failure 404 {object} response.Response "God idol not found"
// @Router /idols/{id} [get]
func GetByID(store Store, m Media) http.HandlerFunc {
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

		m.SignObject(r.Context(), idol.Video)
		response.OK(w, http.StatusOK, idol, "God idol fetched successfully")
	}
}

// GetByGod handles fetching the god idol that belongs to a god
// @Summary Get the god idol for a god
// @Tags god-idols
// @Produce json
// @Success 200 {object} response.Response "God idol fetched successfully"
// @Failure 404 {object} response.Response "God idol not found"
// @Router /idols/by-god/{godId} [get]
func GetByGod(store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		godID, err := primitive.ObjectIDFromHex(r.PathValue("godId"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid god id"))
			return
		}

		idol, err := store.GodIdolByGod(r.Context(), godID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("god idol not found for this god"))
				return
			}
			response.Error(w, err)
			return
		}

		m.SignObject(r.Context(), idol.Video)
		response.OK(w, http.StatusOK, idol, "God idol fetched successfully")
	}
}

// Delete handles removing a god idol, its animations, and their stored media
// @Summary Delete a god idol
// @Tags god-idols
// @Produce json
// @Success 200 {object} response.Response "God idol deleted successfully"
// @Failure 404 {object} response.Response "God idol not found"
// @Security BearerAuth
// @Router /idols/{id} [delete]
func Delete(store Store, m Media, anims AnimationDeleter) http.HandlerFunc {
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

		related, err := store.ListAnimationsByIdol(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}

		if err := store.DeleteGodIdol(r.Context(), id); err != nil {
			response.Error(w, err)
			return
		}

		var keys []string
		if idol.Video != nil && idol.Video.Key != "" {
			keys = append(keys, idol.Video.Key)
		}
		for i := range related {
			if err := anims.DeleteAnimation(r.Context(), related[i].ID); err != nil {
				response.Error(w, err)
				return
			}
			keys = append(keys, related[i].ObjectKeys()...)
		}

		for _, key := range keys {
			m.Unstage(r.Context(), key)
		}

		response.OK(w, http.StatusOK, nil, "God idol deleted successfully")
	}
}

// Toggle handles flipping a god idol's active flag
// @Summary Toggle a god idol's active status
// @Tags god-idols
// @Produce json
// @Success 200 {object} response.Response "God idol status updated successfully"
// @Failure 404 {object} response.Response "God idol not found"
// @Security BearerAuth
// @Router /idols/{id}/toggle [patch]
func Toggle(store Store) http.HandlerFunc {
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

		idol.IsActive = !idol.IsActive
		if err := store.UpdateGodIdol(r.Context(), idol); err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, idol, "God idol status updated successfully")
	}
}
