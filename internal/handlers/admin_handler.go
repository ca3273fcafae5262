package handlers

import (
	"net/http"

	"github.com/ecoportal/backend/internal/middleware"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/repositories"
	"github.com/ecoportal/backend/internal/services"
	"github.com/gorilla/mux"
)

// AdminHandler exposes the moderation console endpoints. Every mutation
// here writes an audit entry before responding.
type AdminHandler struct {
	users     *repositories.MongoUserRepository
	campaigns *repositories.MongoCampaignRepository
	resources *repositories.MongoResourceRepository
	agencies  *repositories.MongoAgencyRepository
	audit     *services.AuditService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	users *repositories.MongoUserRepository,
	campaigns *repositories.MongoCampaignRepository,
	resources *repositories.MongoResourceRepository,
	agencies *repositories.MongoAgencyRepository,
	audit *services.AuditService,
) *AdminHandler {
	return &AdminHandler{
		users:     users,
		campaigns: campaigns,
		resources: resources,
		agencies:  agencies,
		audit:     audit,
	}
}

type userStatusRequest struct {
	IsActive *bool  `json:"isActive" validate:"required"`
	Reason   string `json:"reason" validate:"omitempty,max=500"`
}

type moderationRequest struct {
	Status     string `json:"status" validate:"required,oneof=approved rejected"`
	AdminNotes string `json:"adminNotes" validate:"omitempty,max=1000"`
}

// record builds and persists an audit entry for the acting admin. Append
// failure fails the request, so callers must record before responding.
func (h *AdminHandler) record(r *http.Request, action models.AuditAction, targetType models.AuditTargetType, targetID string, details map[string]interface{}) error {
	admin := middleware.GetUserFromContext(r)
	entry := &models.AuditLog{
		AdminID:    admin.ID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
		IPAddress:  clientIP(r),
		UserAgent:  r.UserAgent(),
	}
	return h.audit.Record(r.Context(), entry)
}

// DashboardStats handles GET /admin/dashboard/stats.
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalUsers, err := h.users.CountNonAdmin(ctx)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	usersByRole, err := h.users.CountByRole(ctx)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	totalCampaigns, err := h.campaigns.Count(ctx, "")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	pendingCampaigns, err := h.campaigns.Count(ctx, models.StatusPending)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	campaignsByCategory, err := h.campaigns.CountByCategory(ctx)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	totalResources, err := h.resources.Count(ctx, "")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	pendingResources, err := h.resources.Count(ctx, models.StatusPending)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	totalAgencies, err := h.agencies.Count(ctx, "")
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	pendingAgencies, err := h.agencies.Count(ctx, models.StatusPending)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	recentUsers, err := h.users.Recent(ctx, 5)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	recentProfiles := make([]models.UserProfile, 0, len(recentUsers))
	for _, u := range recentUsers {
		recentProfiles = append(recentProfiles, u.ToProfile())
	}

	respondSuccess(w, http.StatusOK, "Dashboard statistics retrieved successfully", map[string]interface{}{
		"users": map[string]interface{}{
			"total":  totalUsers,
			"byRole": usersByRole,
			"recent": recentProfiles,
		},
		"campaigns": map[string]interface{}{
			"total":      totalCampaigns,
			"pending":    pendingCampaigns,
			"byCategory": campaignsByCategory,
		},
		"resources": map[string]interface{}{
			"total":   totalResources,
			"pending": pendingResources,
		},
		"agencies": map[string]interface{}{
			"total":   totalAgencies,
			"pending": pendingAgencies,
		},
	})
}

// ListUsers handles GET /admin/users. Admin accounts are never listed.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 20)
	q := r.URL.Query()

	filter := repositories.UserFilter{
		Role:   q.Get("role"),
		Status: q.Get("status"),
		Search: q.Get("search"),
	}

	users, total, err := h.users.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	profiles := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.ToProfile())
	}

	respondSuccess(w, http.StatusOK, "Users retrieved successfully", map[string]interface{}{
		"users":      profiles,
		"pagination": paginationMeta(page, limit, total),
	})
}

// UpdateUserStatus handles PUT /admin/users/{id}/status, blocking or
// unblocking an account. Admin accounts cannot be blocked.
func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req userStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if target.Role == models.UserRoleAdmin {
		respondWithError(w, http.StatusForbidden, "Admin accounts cannot be modified")
		return
	}

	if err := h.users.SetActive(r.Context(), id, *req.IsActive); err != nil {
		respondWithDomainError(w, err)
		return
	}

	action := models.ActionUserBlocked
	message := "User blocked successfully"
	if *req.IsActive {
		action = models.ActionUserUnblocked
		message = "User unblocked successfully"
	}
	details := map[string]interface{}{"email": target.Email}
	if req.Reason != "" {
		details["reason"] = req.Reason
	}
	if err := h.record(r, action, models.AuditTargetUser, id, details); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, message, nil)
}

// DeleteUser handles DELETE /admin/users/{id}. Admin accounts cannot be
// deleted.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	target, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if target.Role == models.UserRoleAdmin {
		respondWithError(w, http.StatusForbidden, "Admin accounts cannot be modified")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		respondWithDomainError(w, err)
		return
	}

	details := map[string]interface{}{"email": target.Email, "name": target.Name}
	if err := h.record(r, models.ActionUserDeleted, models.AuditTargetUser, id, details); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "User deleted successfully", nil)
}

// PendingCampaigns handles GET /admin/campaigns/pending.
func (h *AdminHandler) PendingCampaigns(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 20)

	filter := repositories.CampaignFilter{Status: string(models.StatusPending)}
	campaigns, total, err := h.campaigns.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}

	respondSuccess(w, http.StatusOK, "Pending campaigns retrieved successfully", map[string]interface{}{
		"campaigns":  campaigns,
		"pagination": paginationMeta(page, limit, total),
	})
}

// UpdateCampaignStatus handles PUT /admin/campaigns/{id}/status.
func (h *AdminHandler) UpdateCampaignStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req moderationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	campaign, err := h.campaigns.UpdateStatus(r.Context(), id, models.ModerationStatus(req.Status), req.AdminNotes)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	action := models.ActionCampaignRejected
	if campaign.Status == models.StatusApproved {
		action = models.ActionCampaignApproved
	}
	details := map[string]interface{}{"title": campaign.Title}
	if req.AdminNotes != "" {
		details["adminNotes"] = req.AdminNotes
	}
	if err := h.record(r, action, models.AuditTargetCampaign, id, details); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Campaign status updated successfully", campaign)
}

// PendingResources handles GET /admin/resources/pending.
func (h *AdminHandler) PendingResources(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 20)

	filter := repositories.ResourceFilter{Status: string(models.StatusPending)}
	resources, total, err := h.resources.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if resources == nil {
		resources = []*models.Resource{}
	}

	respondSuccess(w, http.StatusOK, "Pending resources retrieved successfully", map[string]interface{}{
		"resources":  resources,
		"pagination": paginationMeta(page, limit, total),
	})
}

// UpdateResourceStatus handles PUT /admin/resources/{id}/status.
func (h *AdminHandler) UpdateResourceStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req moderationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	resource, err := h.resources.UpdateStatus(r.Context(), id, models.ModerationStatus(req.Status), req.AdminNotes)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	action := models.ActionResourceRejected
	if resource.Status == models.StatusApproved {
		action = models.ActionResourceApproved
	}
	details := map[string]interface{}{"title": resource.Title}
	if req.AdminNotes != "" {
		details["adminNotes"] = req.AdminNotes
	}
	if err := h.record(r, action, models.AuditTargetResource, id, details); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Resource status updated successfully", resource)
}

// PendingAgencies handles GET /admin/agencies/pending.
func (h *AdminHandler) PendingAgencies(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 20)

	filter := repositories.AgencyFilter{Status: string(models.StatusPending)}
	agencies, total, err := h.agencies.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if agencies == nil {
		agencies = []*models.Agency{}
	}

	respondSuccess(w, http.StatusOK, "Pending agencies retrieved successfully", map[string]interface{}{
		"agencies":   agencies,
		"pagination": paginationMeta(page, limit, total),
	})
}

// UpdateAgencyStatus handles PUT /admin/agencies/{id}/status.
func (h *AdminHandler) UpdateAgencyStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req moderationRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	agency, err := h.agencies.UpdateStatus(r.Context(), id, models.ModerationStatus(req.Status), req.AdminNotes)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	action := models.ActionAgencyRejected
	if agency.Status == models.StatusApproved {
		action = models.ActionAgencyApproved
	}
	details := map[string]interface{}{"name": agency.Name}
	if req.AdminNotes != "" {
		details["adminNotes"] = req.AdminNotes
	}
	if err := h.record(r, action, models.AuditTargetAgency, id, details); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Agency status updated successfully", agency)
}

// AuditLogs handles GET /admin/audit-logs, newest first.
func (h *AdminHandler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 50)
	q := r.URL.Query()

	filter := repositories.AuditLogFilter{
		Action:  q.Get("action"),
		AdminID: q.Get("adminId"),
	}

	logs, total, err := h.audit.Query(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}

	respondSuccess(w, http.StatusOK, "Audit logs retrieved successfully", map[string]interface{}{
		"logs":       logs,
		"pagination": paginationMeta(page, limit, total),
	})
}
