package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/ecoportal/backend/internal/middleware"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/repositories"
)

// UserHandler exposes per-user data endpoints: bookmarks, activity history
// and statistics.
type UserHandler struct {
	users     *repositories.MongoUserRepository
	campaigns *repositories.MongoCampaignRepository
	resources *repositories.MongoResourceRepository
	agencies  *repositories.MongoAgencyRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(
	users *repositories.MongoUserRepository,
	campaigns *repositories.MongoCampaignRepository,
	resources *repositories.MongoResourceRepository,
	agencies *repositories.MongoAgencyRepository,
) *UserHandler {
	return &UserHandler{
		users:     users,
		campaigns: campaigns,
		resources: resources,
		agencies:  agencies,
	}
}

type bookmarkRequest struct {
	ResourceType string `json:"resourceType" validate:"required,oneof=campaign resource agency"`
	ResourceID   string `json:"resourceId" validate:"required"`
}

type preferencesRequest struct {
	EmailNotifications bool   `json:"emailNotifications"`
	Newsletter         bool   `json:"newsletter"`
	Language           string `json:"language" validate:"omitempty,max=10"`
}

// UpdatePreferences handles PUT /users/preferences.
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	var req preferencesRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	prefs := models.UserPreferences{
		EmailNotifications: req.EmailNotifications,
		Newsletter:         req.Newsletter,
		Language:           req.Language,
	}

	updated, err := h.users.UpdatePreferences(r.Context(), user.ID, prefs)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Preferences updated successfully", updated.Preferences)
}

// targetExists checks the referenced entity is present in its collection.
func (h *UserHandler) targetExists(r *http.Request, resourceType models.ResourceType, id string) (bool, error) {
	var err error
	switch resourceType {
	case models.ResourceTypeCampaign:
		_, err = h.campaigns.GetByID(r.Context(), id)
	case models.ResourceTypeResource:
		_, err = h.resources.GetByID(r.Context(), id)
	case models.ResourceTypeAgency:
		_, err = h.agencies.GetByID(r.Context(), id)
	}
	if err != nil {
		if repositories.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetBookmarks handles GET /users/bookmarks.
func (h *UserHandler) GetBookmarks(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	stored, err := h.users.GetByID(r.Context(), user.ID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	bookmarks := stored.Bookmarks
	if bookmarks == nil {
		bookmarks = []models.Bookmark{}
	}

	respondSuccess(w, http.StatusOK, "Bookmarks retrieved successfully", bookmarks)
}

// AddBookmark handles POST /users/bookmarks. At most one bookmark per
// (resourceType, resourceId) pair per user.
func (h *UserHandler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	var req bookmarkRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resourceType := models.ResourceType(req.ResourceType)
	exists, err := h.targetExists(r, resourceType, req.ResourceID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if !exists {
		respondWithError(w, http.StatusNotFound, "Resource not found")
		return
	}

	stored, err := h.users.GetByID(r.Context(), user.ID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if stored.HasBookmark(resourceType, req.ResourceID) {
		respondWithError(w, http.StatusBadRequest, "Resource already bookmarked")
		return
	}

	bookmark := models.Bookmark{
		ResourceType: resourceType,
		ResourceID:   req.ResourceID,
		AddedAt:      time.Now(),
	}
	if err := h.users.AddBookmark(r.Context(), user.ID, bookmark); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Bookmark added successfully", nil)
}

// RemoveBookmark handles DELETE /users/bookmarks.
func (h *UserHandler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	var req bookmarkRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.RemoveBookmark(r.Context(), user.ID, models.ResourceType(req.ResourceType), req.ResourceID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Bookmark removed successfully", nil)
}

// GetActivity handles GET /users/activity with newest-first pagination.
func (h *UserHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	page, limit, offset := parsePagination(r, 20)

	stored, err := h.users.GetByID(r.Context(), user.ID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	history := make([]models.ActivityEntry, len(stored.ActivityHistory))
	copy(history, stored.ActivityHistory)
	sort.Slice(history, func(i, j int) bool {
		return history[i].Timestamp.After(history[j].Timestamp)
	})

	total := int64(len(history))
	if offset > len(history) {
		offset = len(history)
	}
	end := offset + limit
	if end > len(history) {
		end = len(history)
	}

	respondSuccess(w, http.StatusOK, "Activity history retrieved successfully", map[string]interface{}{
		"activities": history[offset:end],
		"pagination": paginationMeta(page, limit, total),
	})
}

// ClearActivity handles DELETE /users/activity.
func (h *UserHandler) ClearActivity(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	if err := h.users.ClearActivity(r.Context(), user.ID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Activity history cleared successfully", nil)
}

// GetStats handles GET /users/stats.
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	ctx := r.Context()

	_, createdTotal, err := h.campaigns.List(ctx, repositories.CampaignFilter{OrganizerID: user.ID}, 1, 0)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	_, joinedTotal, err := h.campaigns.List(ctx, repositories.CampaignFilter{Participant: user.ID}, 1, 0)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	_, resourcesTotal, err := h.resources.List(ctx, repositories.ResourceFilter{AuthorID: user.ID}, 1, 0)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	_, agenciesTotal, err := h.agencies.List(ctx, repositories.AgencyFilter{SubmittedByID: user.ID}, 1, 0)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	stored, err := h.users.GetByID(ctx, user.ID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "User statistics retrieved successfully", map[string]interface{}{
		"campaignsCreated":  createdTotal,
		"campaignsJoined":   joinedTotal,
		"resourcesCreated":  resourcesTotal,
		"agenciesSubmitted": agenciesTotal,
		"bookmarksCount":    len(stored.Bookmarks),
	})
}

// GetJoinedCampaigns handles GET /users/campaigns/joined.
func (h *UserHandler) GetJoinedCampaigns(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	page, limit, offset := parsePagination(r, 20)

	filter := repositories.CampaignFilter{
		Participant: user.ID,
		Status:      string(models.StatusApproved),
		SortDesc:    true,
	}
	campaigns, total, err := h.campaigns.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Joined campaigns retrieved successfully", map[string]interface{}{
		"campaigns":  campaigns,
		"pagination": paginationMeta(page, limit, total),
	})
}
