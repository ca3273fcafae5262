package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/ecoportal/backend/internal/repositories"
	"github.com/ecoportal/backend/internal/services"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Response is the envelope shared by every endpoint.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination describes a page of a listing response.
type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondSuccess writes the success envelope.
func respondSuccess(w http.ResponseWriter, code int, message string, data interface{}) {
	respondWithJSON(w, code, Response{Success: true, Message: message, Data: data})
}

// respondWithError writes the error envelope.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, Response{Success: false, Message: message})
}

// respondWithDomainError is the single point that maps the error taxonomy
// to HTTP statuses and safe user-facing messages. Unexpected errors are
// logged and masked.
func respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repositories.ErrEmailTaken):
		respondWithError(w, http.StatusBadRequest, "User already exists with this email")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrInvalidRefreshToken):
		respondWithError(w, http.StatusUnauthorized, "Invalid refresh token")
	case repositories.IsNotFound(err):
		respondWithError(w, http.StatusNotFound, notFoundMessage(err))
	case repositories.IsDuplicateKey(err):
		respondWithError(w, http.StatusBadRequest, "Duplicate field value entered")
	default:
		log.Printf("internal error: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, repositories.ErrCampaignNotFound):
		return "Campaign not found"
	case errors.Is(err, repositories.ErrResourceNotFound):
		return "Resource not found"
	case errors.Is(err, repositories.ErrAgencyNotFound):
		return "Agency not found"
	}
	return "Not found"
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. Validation failures never reach the service layer.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

// parsePagination reads ?page= and ?limit= with sane bounds.
func parsePagination(r *http.Request, defaultLimit int) (page, limit, offset int) {
	page = 1
	limit = defaultLimit

	if v := r.URL.Query().Get("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
			if limit > 100 {
				limit = 100
			}
		}
	}

	return page, limit, (page - 1) * limit
}

func paginationMeta(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{Current: page, Pages: pages, Total: total}
}

// clientIP extracts the request origin, preferring proxy headers. The first
// X-Forwarded-For entry is the original client; the rest are intermediate
// proxies.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
