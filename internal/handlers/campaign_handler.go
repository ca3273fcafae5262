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

// CampaignHandler exposes the public campaign endpoints.
type CampaignHandler struct {
	campaigns *repositories.MongoCampaignRepository
	users     *repositories.MongoUserRepository
}

// NewCampaignHandler creates a new CampaignHandler.
func NewCampaignHandler(campaigns *repositories.MongoCampaignRepository, users *repositories.MongoUserRepository) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns, users: users}
}

type createCampaignRequest struct {
	Title           string   `json:"title" validate:"required,min=3,max=120"`
	Description     string   `json:"description" validate:"required,min=10"`
	Category        string   `json:"category" validate:"required,oneof=awareness cleanup education recycling business"`
	Image           string   `json:"image" validate:"omitempty,url"`
	StartDate       string   `json:"startDate" validate:"required"`
	EndDate         string   `json:"endDate" validate:"required"`
	Location        string   `json:"location" validate:"required"`
	MaxParticipants int      `json:"maxParticipants" validate:"omitempty,min=0"`
	Tags            []string `json:"tags"`
}

type updateCampaignRequest struct {
	Title           string   `json:"title" validate:"omitempty,min=3,max=120"`
	Description     string   `json:"description" validate:"omitempty,min=10"`
	Category        string   `json:"category" validate:"omitempty,oneof=awareness cleanup education recycling business"`
	Image           string   `json:"image" validate:"omitempty,url"`
	StartDate       string   `json:"startDate"`
	EndDate         string   `json:"endDate"`
	Location        string   `json:"location"`
	MaxParticipants int      `json:"maxParticipants" validate:"omitempty,min=0"`
	Tags            []string `json:"tags"`
}

func parseDateRange(start, end string) (time.Time, time.Time, bool) {
	startDate, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	endDate, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return startDate, endDate, !endDate.Before(startDate)
}

// canModify reports whether the user may edit or delete the campaign.
func canModifyCampaign(user *models.User, campaign *models.Campaign) bool {
	return user.Role == models.UserRoleAdmin || campaign.OrganizerID == user.ID
}

// List handles GET /campaigns. Anonymous callers see only approved
// campaigns; participants and organizers use the dedicated endpoints
// for their own pending ones.
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 12)
	q := r.URL.Query()

	filter := repositories.CampaignFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Status:   string(models.StatusApproved),
		SortBy:   q.Get("sortBy"),
		SortDesc: q.Get("order") != "asc",
	}

	campaigns, total, err := h.campaigns.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}

	respondSuccess(w, http.StatusOK, "Campaigns retrieved successfully", map[string]interface{}{
		"campaigns":  campaigns,
		"pagination": paginationMeta(page, limit, total),
	})
}

// Get handles GET /campaigns/{id}. Pending or rejected campaigns are
// visible only to their organizer and to admins.
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	campaign, err := h.campaigns.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	if campaign.Status != models.StatusApproved {
		user := middleware.GetUserFromContext(r)
		if user == nil || !canModifyCampaign(user, campaign) {
			respondWithError(w, http.StatusNotFound, "Campaign not found")
			return
		}
	}

	respondSuccess(w, http.StatusOK, "Campaign retrieved successfully", campaign)
}

// Create handles POST /campaigns. New campaigns start pending until an
// admin approves them.
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	var req createCampaignRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	startDate, endDate, ok := parseDateRange(req.StartDate, req.EndDate)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid campaign date range")
		return
	}

	campaign := &models.Campaign{
		Title:           req.Title,
		Description:     req.Description,
		Category:        models.CampaignCategory(req.Category),
		Image:           req.Image,
		StartDate:       startDate,
		EndDate:         endDate,
		Location:        req.Location,
		OrganizerID:     user.ID,
		Status:          models.StatusPending,
		MaxParticipants: req.MaxParticipants,
		Tags:            req.Tags,
	}

	if err := h.campaigns.Create(r.Context(), campaign); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.recordActivity(r, user.ID, "campaign_created", campaign.ID)

	respondSuccess(w, http.StatusCreated, "Campaign submitted for review", campaign)
}

// Update handles PUT /campaigns/{id}. Edits by the organizer reset the
// campaign to pending so changes go back through moderation.
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	id := mux.Vars(r)["id"]

	campaign, err := h.campaigns.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if !canModifyCampaign(user, campaign) {
		respondWithError(w, http.StatusForbidden, "You don't have permission to perform this action")
		return
	}

	var req updateCampaignRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Title != "" {
		campaign.Title = req.Title
	}
	if req.Description != "" {
		campaign.Description = req.Description
	}
	if req.Category != "" {
		campaign.Category = models.CampaignCategory(req.Category)
	}
	if req.Image != "" {
		campaign.Image = req.Image
	}
	if req.Location != "" {
		campaign.Location = req.Location
	}
	if req.MaxParticipants > 0 {
		campaign.MaxParticipants = req.MaxParticipants
	}
	if req.Tags != nil {
		campaign.Tags = req.Tags
	}
	if req.StartDate != "" && req.EndDate != "" {
		startDate, endDate, ok := parseDateRange(req.StartDate, req.EndDate)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Invalid campaign date range")
			return
		}
		campaign.StartDate = startDate
		campaign.EndDate = endDate
	}
	if user.Role != models.UserRoleAdmin {
		campaign.Status = models.StatusPending
	}

	if err := h.campaigns.Update(r.Context(), campaign); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Campaign updated successfully", campaign)
}

// Delete handles DELETE /campaigns/{id}.
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	id := mux.Vars(r)["id"]

	campaign, err := h.campaigns.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if !canModifyCampaign(user, campaign) {
		respondWithError(w, http.StatusForbidden, "You don't have permission to perform this action")
		return
	}

	if err := h.campaigns.Delete(r.Context(), id); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Campaign deleted successfully", nil)
}

// Join handles POST /campaigns/{id}/join.
func (h *CampaignHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	id := mux.Vars(r)["id"]

	campaign, err := h.campaigns.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if campaign.Status != models.StatusApproved {
		respondWithError(w, http.StatusBadRequest, "Campaign is not open for participation")
		return
	}
	if campaign.HasParticipant(user.ID) {
		respondWithError(w, http.StatusBadRequest, "Already joined this campaign")
		return
	}
	if campaign.IsFull() {
		respondWithError(w, http.StatusBadRequest, "Campaign is full")
		return
	}

	participant := models.Participant{UserID: user.ID, JoinedAt: time.Now()}
	if err := h.campaigns.AddParticipant(r.Context(), id, participant); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.recordActivity(r, user.ID, "campaign_joined", id)

	respondSuccess(w, http.StatusOK, "Joined campaign successfully", nil)
}

// Leave handles POST /campaigns/{id}/leave.
func (h *CampaignHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	id := mux.Vars(r)["id"]

	campaign, err := h.campaigns.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if !campaign.HasParticipant(user.ID) {
		respondWithError(w, http.StatusBadRequest, "Not a participant of this campaign")
		return
	}

	if err := h.campaigns.RemoveParticipant(r.Context(), id, user.ID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.recordActivity(r, user.ID, "campaign_left", id)

	respondSuccess(w, http.StatusOK, "Left campaign successfully", nil)
}

// MyCampaigns handles GET /campaigns/my, listing campaigns the caller
// organizes regardless of moderation status.
func (h *CampaignHandler) MyCampaigns(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	page, limit, offset := parsePagination(r, 12)

	filter := repositories.CampaignFilter{
		OrganizerID: user.ID,
		Status:      r.URL.Query().Get("status"),
		SortDesc:    true,
	}
	campaigns, total, err := h.campaigns.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}

	respondSuccess(w, http.StatusOK, "Campaigns retrieved successfully", map[string]interface{}{
		"campaigns":  campaigns,
		"pagination": paginationMeta(page, limit, total),
	})
}

// recordActivity appends to the user's activity history. Failures are
// logged, not surfaced, since the primary write already succeeded.
func (h *CampaignHandler) recordActivity(r *http.Request, userID, action, campaignID string) {
	entry := models.ActivityEntry{
		Action:       action,
		ResourceType: models.ResourceTypeCampaign,
		ResourceID:   campaignID,
		Timestamp:    time.Now(),
	}
	if err := h.users.AppendActivity(r.Context(), userID, entry); err != nil {
		log.Printf("WARNING: failed to record activity for user %s: %v", userID, err)
	}
}
