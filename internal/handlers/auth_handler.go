package handlers

import (
	"net/http"

	"github.com/ecoportal/backend/internal/middleware"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/services"
)

// AuthHandler exposes the account lifecycle endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user content_proposer"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

type authPayload struct {
	User         models.UserProfile `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

func (h *AuthHandler) meta(r *http.Request) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, tokens, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusCreated, "User registered successfully", authPayload{
		User:         user.ToProfile(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, tokens, err := h.authService.Login(r.Context(), req.Email, req.Password, h.meta(r))
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Login successful", authPayload{
		User:         user.ToProfile(),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
}

// Refresh handles POST /auth/refresh-token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusUnauthorized, "Refresh token is required")
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Token refreshed successfully", tokens)
}

// Logout handles POST /auth/logout. Requires authentication.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	if err := h.authService.Logout(r.Context(), user.ID, h.meta(r)); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Logout successful", nil)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	respondSuccess(w, http.StatusOK, "User profile retrieved successfully", user.ToProfile())
}

// UpdateProfile handles PUT /auth/profile. Only the display name is
// mutable; email is immutable through this path.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	var req updateProfileRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.authService.UpdateProfile(r.Context(), user.ID, req.Name)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Profile updated successfully", updated.ToProfile())
}

// ChangePassword handles PUT /auth/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)

	var req changePasswordRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		if err == services.ErrInvalidCredentials {
			respondWithError(w, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		respondWithDomainError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, "Password changed successfully", nil)
}
