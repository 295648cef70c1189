package categories

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devaalay/asset-service/internal/storage"
	"github.com/devaalay/asset-service/internal/storage/mongodb"
	"github.com/devaalay/asset-service/internal/types"
	"github.com/devaalay/asset-service/internal/upload"
	"github.com/devaalay/asset-service/internal/utils/response"
)

type Store interface {
	storage.CategoryStore
}

// Create handles creating an animation category
// @Summary Create a new animation category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body types.CategoryCreateRequest true "Category payload"
// @Success 201 {object} response.Response "Category created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 409 {object} response.Response "Category already exists"
// @Security BearerAuth
// @Router /categories [post]
func Create(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CategoryCreateRequest

		err := response.DecodeJSON(r, &req)
		if errors.Is(err, io.EOF) {
			response.Error(w, upload.Validationf("empty body"))
			return
		}
		if err != nil {
			response.Error(w, upload.Validationf("invalid request body"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.ValidationError(w, validateErrs)
			return
		}

		cat := &types.AnimationCategory{
			Name:        req.Name,
			Slug:        mongodb.Slugify(req.Name),
			Icon:        req.Icon,
			Description: req.Description,
			Order:       req.Order,
			IsActive:    true,
		}
		if req.IsActive != nil {
			cat.IsActive = *req.IsActive
		}

		if err := store.CreateCategory(r.Context(), cat); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				response.Error(w, upload.Conflictf("category already exists with name: %s", req.Name))
				return
			}
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusCreated, cat, "Category created successfully")
	}
}

// GetAll handles listing categories with search and pagination
// @Summary List animation categories
// @Tags categories
// @Produce json
// @Param search query string false "Filter by name"
// @Param isActive query bool false "Filter by active flag"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response "Categories fetched successfully"
// @Router /categories [get]
func GetAll(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		opts := storage.CategoryListOptions{
			Search: q.Get("search"),
			Page:   1,
			Limit:  10,
		}
		if v := q.Get("page"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				opts.Page = n
			}
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				opts.Limit = n
			}
		}
		if v := q.Get("isActive"); v != "" {
			b := v == "true"
			opts.IsActive = &b
		}

		list, err := store.ListCategories(r.Context(), opts)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, list, "Categories fetched successfully")
	}
}

// GetByID handles fetching a single category
// @Summary Get an animation category by id
// @Tags categories
// @Produce json
// @Success 200 {object} response.Response "Category fetched successfully"
// @Failure 404 {object} response.Response "Category not found"
// @Router /categories/{id} [get]
func GetByID(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid category id"))
			return
		}

		cat, err := store.CategoryByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("category not found"))
				return
			}
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, cat, "Category fetched successfully")
	}
}

// Update handles patching a category's fields
// @Summary Update an animation category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body types.CategoryUpdateRequest true "Fields to update"
// @Success 200 {object} response.Response "Category updated successfully"
// @Failure 404 {object} response.Response "Category not found"
// @Failure 409 {object} response.Response "Category already exists"
// @Security BearerAuth
// @Router /categories/{id} [put]
func Update(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid category id"))
			return
		}

		var req types.CategoryUpdateRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, upload.Validationf("invalid request body"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.ValidationError(w, validateErrs)
			return
		}

		cat, err := store.CategoryByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("category not found"))
				return
			}
			response.Error(w, err)
			return
		}

		if req.Name != nil && *req.Name != "" {
			cat.Name = *req.Name
			cat.Slug = mongodb.Slugify(*req.Name)
		}
		if req.Icon != nil {
			cat.Icon = *req.Icon
		}
		if req.Description != nil {
			cat.Description = *req.Description
		}
		if req.Order != nil {
			cat.Order = *req.Order
		}
		if req.IsActive != nil {
			cat.IsActive = *req.IsActive
		}

		if err := store.UpdateCategory(r.Context(), cat); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				response.Error(w, upload.Conflictf("category already exists with name: %s", cat.Name))
				return
			}
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, cat, "Category updated successfully")
	}
}

// Delete handles removing an animation category
// @Summary Delete an animation category
// @Tags categories
// @Produce json
// @Success 200 {object} response.Response "Category deleted successfully"
// @Failure 404 {object} response.Response "Category not found"
// @Security BearerAuth
// @Router /categories/{id} [delete]
func Delete(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid category id"))
			return
		}

		if err := store.DeleteCategory(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("category not found"))
				return
			}
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, nil, "Category deleted successfully")
	}
}

// Toggle handles flipping a category's active flag
// @Summary Toggle an animation category's active status
// @Tags categories
// @Produce json
// @Success 200 {object} response.Response "Category status updated successfully"
// @Failure 404 {object} response.Response "Category not found"
// @Security BearerAuth
// @Router /categories/{id}/toggle [patch]
func Toggle(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid category id"))
			return
		}

		cat, err := store.CategoryByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("category not found"))
				return
			}
			response.Error(w, err)
			return
		}

		cat.IsActive = !cat.IsActive
		if err := store.UpdateCategory(r.Context(), cat); err != nil {
			response.Error(w, err)
			return
		}

		state := "deactivated"
		if cat.IsActive {
			state = "activated"
		}
		response.OK(w, http.StatusOK, cat, fmt.Sprintf("Category %s successfully", state))
	}
}

// UpdateOrder handles changing a category's sort order
// @Summary Update an animation category's display order
// @Tags categories
// @Accept json
// @Produce json
// @Param order body types.OrderUpdateRequest true "New order"
// @Success 200 {object} response.Response "Category order updated successfully"
// @Failure 404 {object} response.Response "Category not found"
// @Security BearerAuth
// @Router /categories/{id}/order [patch]
func UpdateOrder(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
		if err != nil {
			response.Error(w, upload.Validationf("invalid category id"))
			return
		}

		var body types.OrderUpdateRequest
		if err := response.DecodeJSON(r, &body); err != nil {
			response.Error(w, upload.Validationf("invalid request body"))
			return
		}
		if body.Order < 0 {
			response.Error(w, upload.Validationf("valid order number is required"))
			return
		}

		cat, err := store.CategoryByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Error(w, upload.NotFoundf("category not found"))
				return
			}
			response.Error(w, err)
			return
		}

		cat.Order = body.Order
		if err := store.UpdateCategory(r.Context(), cat); err != nil {
			response.Error(w, err)
			return
		}

		response.OK(w, http.StatusOK, cat, "Category order updated successfully")
	}
}
