package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/ecoportal/backend/internal/middleware"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/repositories"
	"github.com/gorilla/mux"
)

// ResourceHandler exposes the educational resource endpoints.
type ResourceHandler struct {
	resources *repositories.MongoResourceRepository
	users     *repositories.MongoUserRepository
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(resources *repositories.MongoResourceRepository, users *repositories.MongoUserRepository) *ResourceHandler {
	return &ResourceHandler{resources: resources, users: users}
}

type createResourceRequest struct {
	Title       string   `json:"title" validate:"required,min=3,max=120"`
	Description string   `json:"description" validate:"required,min=10"`
	Content     string   `json:"content"`
	Category    string   `json:"category" validate:"required,oneof=tips articles videos infographics research guides"`
	Type        string   `json:"type" validate:"required,oneof=text video pdf image link"`
	URL         string   `json:"url" validate:"omitempty,url"`
	Thumbnail   string   `json:"thumbnail" validate:"omitempty,url"`
	Tags        []string `json:"tags"`
	Difficulty  string   `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	ReadTime    int      `json:"readTime" validate:"omitempty,min=1"`
}

type updateResourceRequest struct {
	Title       string   `json:"title" validate:"omitempty,min=3,max=120"`
	Description string   `json:"description" validate:"omitempty,min=10"`
	Content     string   `json:"content"`
	Category    string   `json:"category" validate:"omitempty,oneof=tips articles videos infographics research guides"`
	Type        string   `json:"type" validate:"omitempty,oneof=text video pdf image link"`
	URL         string   `json:"url" validate:"omitempty,url"`
	Thumbnail   string   `json:"thumbnail" validate:"omitempty,url"`
	Tags        []string `json:"tags"`
	Difficulty  string   `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	ReadTime    int      `json:"readTime" validate:"omitempty,min=1"`
}

func canModifyResource(user *models.User, resource *models.Resource) bool {
	return user.Role == models.UserRoleAdmin || resource.AuthorID == user.ID
}

// List handles GET /resources. Anonymous callers see approved resources.
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 12)
	q := r.URL.Query()

	filter := repositories.ResourceFilter{
		Category: q.Get("category"),
		Type:     q.Get("type"),
		Search:   q.Get("search"),
		Status:   string(models.StatusApproved),
		SortBy:   q.Get("sortBy"),
		SortDesc: q.Get("order") != "asc",
	}

	resources, total, err := h.resources.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if resources == nil {
		resources = []*models.Resource{}
	}

	respondSuccess(w, http.StatusOK, "Resources retrieved successfully", map[string]interface{}{
		"resources":  resources,
		"pagination": paginationMeta(page, limit, total),
	})
}

// Popular handles GET /resources/popular. Returns the ten most viewed
// approved resources.
func (h *ResourceHandler) Popular(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ResourceFilter{
		Status:   string(models.StatusApproved),
		SortBy:   "views",
		SortDesc: true,
	}

	resources, _, err := h.resources.List(r.Context(), filter, 10, 0)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if resources == nil {
		resources = []*models.Resource{}
	}

	respondSuccess(w, http.StatusOK, "Popular resources retrieved successfully", resources)
}

// Categories handles GET /resources/categories. Returns approved resource
// counts per category.
func (h *ResourceHandler) Categories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.resources.CountByCategory(r.Context())
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if counts == nil {
		counts = []repositories.CategoryCount{}
	}

	respondSuccess(w, http.StatusOK, "Categories retrieved successfully", counts)
}

// MyResources handles GET /resources/my/resources. Lists the caller's own
// submissions regardless of moderation status.
func (h *ResourceHandler) MyResources(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	page, limit, offset := parsePagination(r, 12)

	filter := repositories.ResourceFilter{
		AuthorID: user.ID,
		Status:   r.URL.Query().Get("status"),
		SortDesc: true,
	}

	resources, total, err := h.resources.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if resources == nil {
		resources = []*models.Resource{}
	}

	respondSuccess(w, http.StatusOK, "Resources retrieved successfully", map[string]interface{}{
		"resources":  resources,
		"pagination": paginationMeta(page, limit, total),
	})
}

// Get handles GET /resources/{id}. Each fetch of an approved resource
// bumps its view counter.
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	resource, err := h.resources.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	if resource.Status != models.StatusApproved {
		user := middleware.GetUserFromContext(r)
		if user == nil || !canModifyResource(user, resource) {
			respondWithError(w, http.StatusNotFound, "Resource not found")
			return
		}
	} else {
		if err := h.resources.IncrementViews(r.Context(), id); err != nil {
			log.Printf("WARNING: failed to increment views for resource %s: %v", id, err)
		} else {
			resource.Views++
		}
	}

	respondSuccess(w, http.StatusOK, "Resource retrieved successfully", resource)
}

// Create handles POST /resources. New resources start pending.
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	var req createResourceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resource := &models.Resource{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Category:    models.ResourceCategory(req.Category),
		Type:        req.Type,
		URL:         req.URL,
		Thumbnail:   req.Thumbnail,
		AuthorID:    user.ID,
		Status:      models.StatusPending,
		Tags:        req.Tags,
		Difficulty:  req.Difficulty,
		ReadTime:    req.ReadTime,
	}

	if err := h.resources.Create(r.Context(), resource); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.recordActivity(r, user.ID, "resource_created", resource.ID)

	respondSuccess(w, http.StatusCreated, "Resource submitted for review", resource)
}

// Update handles PUT /resources/{id}. Author edits reset the resource to
// pending.
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	id := mux.Vars(r)["id"]

	resource, err := h.resources.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if !canModifyResource(user, resource) {
		respondWithError(w, http.StatusForbidden, "You don't have permission to perform this action")
		return
	}

	var req updateResourceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Title != "" {
		resource.Title = req.Title
	}
	if req.Description != "" {
		resource.Description = req.Description
	}
	if req.Content != "" {
		resource.Content = req.Content
	}
	if req.Category != "" {
		resource.Category = models.ResourceCategory(req.Category)
	}
	if req.Type != "" {
		resource.Type = req.Type
	}
	if req.URL != "" {
		resource.URL = req.URL
	}
	if req.Thumbnail != "" {
		resource.Thumbnail = req.Thumbnail
	}
	if req.Tags != nil {
		resource.Tags = req.Tags
	}
	if req.Difficulty != "" {
		resource.Difficulty = req.Difficulty
	}
	if req.ReadTime > 0 {
		resource.ReadTime = req.ReadTime
	}
	if user.Role != models.UserRoleAdmin {
		resource.Status = models.StatusPending
	}

	if err := h.resources.Update(r.Context(), resource); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Resource updated successfully", resource)
}

// Delete handles DELETE /resources/{id}.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	id := mux.Vars(r)["id"]

	resource, err := h.resources.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if !canModifyResource(user, resource) {
		respondWithError(w, http.StatusForbidden, "You don't have permission to perform this action")
		return
	}

	if err := h.resources.Delete(r.Context(), id); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Resource deleted successfully", nil)
}

// ToggleLike handles POST /resources/{id}/like. A second call from the
// same user removes the like.
func (h *ResourceHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	id := mux.Vars(r)["id"]

	resource, err := h.resources.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if resource.Status != models.StatusApproved {
		respondWithError(w, http.StatusNotFound, "Resource not found")
		return
	}

	if resource.HasLike(user.ID) {
		if err := h.resources.RemoveLike(r.Context(), id, user.ID); err != nil {
			respondWithDomainError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Like removed", map[string]interface{}{
			"liked": false,
			"likes": len(resource.Likes) - 1,
		})
		return
	}

	like := models.Like{UserID: user.ID, LikedAt: time.Now()}
	if err := h.resources.AddLike(r.Context(), id, like); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.recordActivity(r, user.ID, "resource_liked", id)

	respondSuccess(w, http.StatusOK, "Resource liked", map[string]interface{}{
		"liked": true,
		"likes": len(resource.Likes) + 1,
	})
}

func (h *ResourceHandler) recordActivity(r *http.Request, userID, action, resourceID string) {
	entry := models.ActivityEntry{
		Action:       action,
		ResourceType: models.ResourceTypeResource,
		ResourceID:   resourceID,
		Timestamp:    time.Now(),
	}
	if err := h.users.AppendActivity(r.Context(), userID, entry); err != nil {
		log.Printf("WARNING: failed to record activity for user %s: %v", userID, err)
	}
}
