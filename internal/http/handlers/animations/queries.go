package animations

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/types"
	"github.com/devaalay/asset-service/internal/upload"
	"github.com/devaalay/asset-service/internal/utils/response"
)

func sign(r *http.Request, m Media, anims []types.Animation) {
	for i := range anims {
		m.SignObject(r.Context(), anims[i].Video)
		m.SignImages(r.Context(), anims[i].Images)
	}
}

// GetAll handles listing every animation
// @Summary List animations
// @Tags animations
// @Produce json
// @Success 200 {object} response.Response "Animations fetched successfully"
// @Router /animations [get]
func GetAll(store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		anims, err := store.ListAnimations(r.Context())
		if err != nil {
			response.Error(w, err)
			return
		}
		sign(r, m, anims)
		response.OK(w, http.StatusOK, anims, "Animations fetched successfully")
	}
}

// GetByID handles fetching a single animation
// @Summary Get an animation by id
// @Tags animations
// @Produce json
// @Success 200 {object} response.Response "Animation fetched successfully"
// @Failure 404 {object} response.Response "Animation not found"
// @Router /animations/{id} [get]
func GetByID(store Store, m Media) http.HandlerFunc {
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

		m.SignObject(r.Context(), anim.Video)
		m.SignImages(r.Context(), anim.Images)
		response.OK(w, http.StatusOK, anim, "Animation fetched successfully")
	}
}

// GetByIdol handles listing animations belonging to one god idol
// @Summary List animations for a god idol
// @Tags animations
// @Produce json
// @Success 200 {object} response.Response "Animations fetched successfully"
// @Router /animations/by-idol/{godIdolId} [get]
func GetByIdol(store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idolID, err := primitive.ObjectIDFromHex(r.PathValue("godIdolId"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid god idol id"))
			return
		}

		anims, err := store.ListAnimationsByIdol(r.Context(), idolID)
		if err != nil {
			response.Error(w, err)
			return
		}
		sign(r, m, anims)
		response.OK(w, http.StatusOK, anims, "Animations fetched successfully")
	}
}

// GetByCategory handles listing animations within one category
// @Summary List animations by category
// @Tags animations
// @Produce json
// @Success 200 {object} response.Response "Animations fetched successfully"
// @Failure 400 {object} response.Response "Invalid category"
// @Router /animations/by-category/{category} [get]
func GetByCategory(store Store, m Media) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category := r.PathValue("category")
		if !types.ValidAnimationCategory(category) {
			response.Error(w, upload.Validationf("invalid category"))
			return
		}

		anims, err := store.ListAnimationsByCategory(r.Context(), category)
		if err != nil {
			response.Error(w, err)
			return
		}
		sign(r, m, anims)
		response.OK(w, http.StatusOK, anims, "Animations fetched successfully")
	}
}

// Delete handles removing an animation and its stored media
// @Summary Delete an animation
// @Tags animations
// @Produce json
// @Success 200 {object} response.Response "Animation deleted successfully"
// @Failure 404 {object} response.Response "Animation not found"
// @Security BearerAuth
// @Router /animations/{id} [delete]
func Delete(store Store, m Media) http.HandlerFunc {
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

		if err := store.DeleteAnimation(r.Context(), id); err != nil {
			response.Error(w, err)
			return
		}

		// Objects are removed only after the record is gone; a failed delete
		// here leaves orphans for the sweeper rather than dangling references.
		for _, key := range anim.ObjectKeys() {
			m.Unstage(r.Context(), key)
		}

		response.OK(w, http.StatusOK, nil, "Animation deleted successfully")
	}
}

// Toggle handles flipping an animation's active flag
// @Summary Toggle an animation's active status
// @Tags animations
// @Produce json
// @Success 200 {object} response.Response "Animation status updated successfully"
// @Failure 404 {object} response.Response "Animation not found"
// @Security BearerAuth
// @Router /animations/{id}/toggle [patch]
func Toggle(store Store) http.HandlerFunc {
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

		anim.IsActive = !anim.IsActive
		if err := store.UpdateAnimation(r.Context(), anim); err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, anim, "Animation status updated successfully")
	}
}

// UpdateOrder handles changing an animation's sort order
// @Summary Update an animation's display order
// @Tags animations
// @Accept json
// @Produce json
// @Success 200 {object} response.Response "Animation order updated successfully"
// @Failure 404 {object} response.Response "Animation not found"
// @Security BearerAuth
// @Router /animations/{id}/order [patch]
func UpdateOrder(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid animation id"))
			return
		}

		var body types.OrderUpdateRequest
		if err := response.DecodeJSON(r, &body); err != nil {
			response.Error(w, upload.Validationf("invalid request body"))
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

		anim.Order = body.Order
		if err := store.UpdateAnimation(r.Context(), anim); err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, anim, "Animation order updated successfully")
	}
}
