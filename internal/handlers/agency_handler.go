package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/ecoportal/backend/internal/middleware"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/repositories"
	"github.com/gorilla/mux"
)

// AgencyHandler exposes the recycling agency directory endpoints.
type AgencyHandler struct {
	agencies *repositories.MongoAgencyRepository
	users    *repositories.MongoUserRepository
}

// NewAgencyHandler creates a new AgencyHandler.
func NewAgencyHandler(agencies *repositories.MongoAgencyRepository, users *repositories.MongoUserRepository) *AgencyHandler {
	return &AgencyHandler{agencies: agencies, users: users}
}

type agencyContactRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Website string `json:"website" validate:"omitempty,url"`
}

type agencyAddressRequest struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country" validate:"required"`
}

type createAgencyRequest struct {
	Name              string               `json:"name" validate:"required,min=2,max=120"`
	Description       string               `json:"description" validate:"required,min=10"`
	Type              string               `json:"type" validate:"required,oneof=recycling_center ngo business government"`
	Contact           agencyContactRequest `json:"contact" validate:"required"`
	Address           agencyAddressRequest `json:"address" validate:"required"`
	Coordinates       []float64            `json:"coordinates" validate:"omitempty,len=2"`
	Services          []string             `json:"services" validate:"required,min=1"`
	AcceptedMaterials []string             `json:"acceptedMaterials"`
}

type updateAgencyRequest struct {
	Name              string                `json:"name" validate:"omitempty,min=2,max=120"`
	Description       string                `json:"description" validate:"omitempty,min=10"`
	Type              string                `json:"type" validate:"omitempty,oneof=recycling_center ngo business government"`
	Contact           *agencyContactRequest `json:"contact"`
	Address           *agencyAddressRequest `json:"address"`
	Coordinates       []float64             `json:"coordinates" validate:"omitempty,len=2"`
	Services          []string              `json:"services"`
	AcceptedMaterials []string              `json:"acceptedMaterials"`
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=500"`
}

func canModifyAgency(user *models.User, agency *models.Agency) bool {
	return user.Role == models.UserRoleAdmin || agency.SubmittedByID == user.ID
}

// List handles GET /agencies. Anonymous callers see approved agencies.
func (h *AgencyHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 12)
	q := r.URL.Query()

	filter := repositories.AgencyFilter{
		Type:   q.Get("type"),
		City:   q.Get("city"),
		Search: q.Get("search"),
		Status: string(models.StatusApproved),
	}

	agencies, total, err := h.agencies.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if agencies == nil {
		agencies = []*models.Agency{}
	}

	respondSuccess(w, http.StatusOK, "Agencies retrieved successfully", map[string]interface{}{
		"agencies":   agencies,
		"pagination": paginationMeta(page, limit, total),
	})
}

// Nearby handles GET /agencies/nearby. Finds approved agencies around a
// point, closest first. The radius query parameter is in kilometers.
func (h *AgencyHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		respondWithError(w, http.StatusBadRequest, "Latitude and longitude are required")
		return
	}

	radiusKm := 10.0
	if raw := q.Get("radius"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			radiusKm = parsed
		}
	}

	agencies, err := h.agencies.Nearby(r.Context(), lat, lng, radiusKm, 20)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if agencies == nil {
		agencies = []*models.Agency{}
	}

	respondSuccess(w, http.StatusOK, "Nearby agencies retrieved successfully", agencies)
}

// Types handles GET /agencies/types. Returns approved agency counts per
// type.
func (h *AgencyHandler) Types(w http.ResponseWriter, r *http.Request) {
	counts, err := h.agencies.CountByType(r.Context())
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if counts == nil {
		counts = []repositories.TypeCount{}
	}

	respondSuccess(w, http.StatusOK, "Agency types retrieved successfully", counts)
}

// MyAgencies handles GET /agencies/my/agencies. Lists the caller's own
// submissions regardless of moderation status.
func (h *AgencyHandler) MyAgencies(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	page, limit, offset := parsePagination(r, 12)

	filter := repositories.AgencyFilter{
		SubmittedByID: user.ID,
		Status:        r.URL.Query().Get("status"),
	}

	agencies, total, err := h.agencies.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if agencies == nil {
		agencies = []*models.Agency{}
	}

	respondSuccess(w, http.StatusOK, "Agencies retrieved successfully", map[string]interface{}{
		"agencies":   agencies,
		"pagination": paginationMeta(page, limit, total),
	})
}

// Get handles GET /agencies/{id}.
func (h *AgencyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	agency, err := h.agencies.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	if agency.Status != models.StatusApproved {
		user := middleware.GetUserFromContext(r)
		if user == nil || !canModifyAgency(user, agency) {
			respondWithError(w, http.StatusNotFound, "Agency not found")
			return
		}
	}

	respondSuccess(w, http.StatusOK, "Agency retrieved successfully", agency)
}

// Create handles POST /agencies. New agencies start pending.
func (h *AgencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	var req createAgencyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	agency := &models.Agency{
		Name:        req.Name,
		Description: req.Description,
		Type:        models.AgencyType(req.Type),
		Contact: models.AgencyContact{
			Email:   req.Contact.Email,
			Phone:   req.Contact.Phone,
			Website: req.Contact.Website,
		},
		Address: models.AgencyAddress{
			Street:  req.Address.Street,
			City:    req.Address.City,
			State:   req.Address.State,
			ZipCode: req.Address.ZipCode,
			Country: req.Address.Country,
		},
		Services:          req.Services,
		AcceptedMaterials: req.AcceptedMaterials,
		Status:            models.StatusPending,
		SubmittedByID:     user.ID,
	}
	if len(req.Coordinates) == 2 {
		agency.Location = models.GeoPoint{Type: "Point", Coordinates: req.Coordinates}
	}

	if err := h.agencies.Create(r.Context(), agency); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.recordActivity(r, user.ID, "agency_submitted", agency.ID)

	respondSuccess(w, http.StatusCreated, "Agency submitted for review", agency)
}

// Update handles PUT /agencies/{id}. Submitter edits reset the agency to
// pending.
func (h *AgencyHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	id := mux.Vars(r)["id"]

	agency, err := h.agencies.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if !canModifyAgency(user, agency) {
		respondWithError(w, http.StatusForbidden, "You don't have permission to perform this action")
		return
	}

	var req updateAgencyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name != "" {
		agency.Name = req.Name
	}
	if req.Description != "" {
		agency.Description = req.Description
	}
	if req.Type != "" {
		agency.Type = models.AgencyType(req.Type)
	}
	if req.Contact != nil {
		agency.Contact = models.AgencyContact{
			Email:   req.Contact.Email,
			Phone:   req.Contact.Phone,
			Website: req.Contact.Website,
		}
	}
	if req.Address != nil {
		agency.Address = models.AgencyAddress{
			Street:  req.Address.Street,
			City:    req.Address.City,
			State:   req.Address.State,
			ZipCode: req.Address.ZipCode,
			Country: req.Address.Country,
		}
	}
	if len(req.Coordinates) == 2 {
		agency.Location = models.GeoPoint{Type: "Point", Coordinates: req.Coordinates}
	}
	if req.Services != nil {
		agency.Services = req.Services
	}
	if req.AcceptedMaterials != nil {
		agency.AcceptedMaterials = req.AcceptedMaterials
	}
	if user.Role != models.UserRoleAdmin {
		agency.Status = models.StatusPending
	}

	if err := h.agencies.Update(r.Context(), agency); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Agency updated successfully", agency)
}

// Delete handles DELETE /agencies/{id}.
func (h *AgencyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	id := mux.Vars(r)["id"]

	agency, err := h.agencies.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if !canModifyAgency(user, agency) {
		respondWithError(w, http.StatusForbidden, "You don't have permission to perform this action")
		return
	}

	if err := h.agencies.Delete(r.Context(), id); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Agency deleted successfully", nil)
}

// AddReview handles POST /agencies/{id}/reviews. One review per user per
// agency.
func (h *AgencyHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	id := mux.Vars(r)["id"]

	var req reviewRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	agency, err := h.agencies.GetByID(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if agency.Status != models.StatusApproved {
		respondWithError(w, http.StatusNotFound, "Agency not found")
		return
	}
	if agency.HasReview(user.ID) {
		respondWithError(w, http.StatusBadRequest, "Agency already reviewed")
		return
	}

	review := models.Review{
		UserID:    user.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}

	sum := float64(req.Rating)
	for _, existing := range agency.Reviews {
		sum += float64(existing.Rating)
	}
	newCount := len(agency.Reviews) + 1
	newAverage := sum / float64(newCount)

	if err := h.agencies.AddReview(r.Context(), id, review, newAverage, newCount); err != nil {
		respondWithDomainError(w, err)
		return
	}

	h.recordActivity(r, user.ID, "agency_reviewed", id)

	respondSuccess(w, http.StatusCreated, "Review added successfully", map[string]interface{}{
		"rating": models.AgencyRating{Average: newAverage, Count: newCount},
	})
}

func (h *AgencyHandler) recordActivity(r *http.Request, userID, action, agencyID string) {
	entry := models.ActivityEntry{
		Action:       action,
		ResourceType: models.ResourceTypeAgency,
		ResourceID:   agencyID,
		Timestamp:    time.Now(),
	}
	if err := h.users.AppendActivity(r.Context(), userID, entry); err != nil {
		log.Printf("WARNING: failed to record activity for user %s: %v", userID, err)
	}
}
