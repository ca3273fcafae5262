package main

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ecoportal/backend/internal/handlers"
	"github.com/ecoportal/backend/internal/middleware"
	"github.com/ecoportal/backend/internal/models"
	"github.com/ecoportal/backend/internal/utils"
)

// apiHandlers groups everything route registration needs.
type apiHandlers struct {
	health    *handlers.HealthHandler
	auth      *handlers.AuthHandler
	users     *handlers.UserHandler
	campaigns *handlers.CampaignHandler
	resources *handlers.ResourceHandler
	agencies  *handlers.AgencyHandler
	admin     *handlers.AdminHandler
}

func registerRoutes(router *mux.Router, h apiHandlers, jwtService *utils.JWTService, userLoader middleware.UserLoader) {
	authenticate := middleware.Authenticate(jwtService, userLoader)
	optionalAuth := middleware.OptionalAuth(jwtService, userLoader)
	adminOnly := middleware.RequireRoles(models.UserRoleAdmin)
	proposerOnly := middleware.RequireRoles(models.UserRoleContentProposer, models.UserRoleAdmin)

	router.HandleFunc("/health", h.health.Get).Methods(http.MethodGet, http.MethodOptions)

	// Swagger UI endpoint - API documentation
	router.PathPrefix("/swagger").Handler(httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	)).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Auth
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", h.auth.Register).Methods(http.MethodPost, http.MethodOptions)
	auth.HandleFunc("/login", h.auth.Login).Methods(http.MethodPost, http.MethodOptions)
	auth.HandleFunc("/refresh-token", h.auth.Refresh).Methods(http.MethodPost, http.MethodOptions)

	authPriv := api.PathPrefix("/auth").Subrouter()
	authPriv.Use(authenticate)
	authPriv.HandleFunc("/logout", h.auth.Logout).Methods(http.MethodPost, http.MethodOptions)
	authPriv.HandleFunc("/me", h.auth.Me).Methods(http.MethodGet, http.MethodOptions)
	authPriv.HandleFunc("/profile", h.auth.UpdateProfile).Methods(http.MethodPut, http.MethodOptions)
	authPriv.HandleFunc("/change-password", h.auth.ChangePassword).Methods(http.MethodPut, http.MethodOptions)

	// Campaigns. Content mutations are restricted to content proposers and
	// admins; joining and leaving only needs a logged-in user. The gated
	// subrouter registers first so the literal /my segment wins over the
	// public /{id} pattern.
	campaignsProposer := api.PathPrefix("/campaigns").Subrouter()
	campaignsProposer.Use(authenticate, proposerOnly)
	campaignsProposer.HandleFunc("/my", h.campaigns.MyCampaigns).Methods(http.MethodGet, http.MethodOptions)
	campaignsProposer.HandleFunc("", h.campaigns.Create).Methods(http.MethodPost, http.MethodOptions)
	campaignsProposer.HandleFunc("/{id}", h.campaigns.Update).Methods(http.MethodPut, http.MethodOptions)
	campaignsProposer.HandleFunc("/{id}", h.campaigns.Delete).Methods(http.MethodDelete, http.MethodOptions)

	campaignsPriv := api.PathPrefix("/campaigns").Subrouter()
	campaignsPriv.Use(authenticate)
	campaignsPriv.HandleFunc("/{id}/join", h.campaigns.Join).Methods(http.MethodPost, http.MethodOptions)
	campaignsPriv.HandleFunc("/{id}/leave", h.campaigns.Leave).Methods(http.MethodPost, http.MethodOptions)

	campaignsPub := api.PathPrefix("/campaigns").Subrouter()
	campaignsPub.Use(optionalAuth)
	campaignsPub.HandleFunc("", h.campaigns.List).Methods(http.MethodGet, http.MethodOptions)
	campaignsPub.HandleFunc("/{id}", h.campaigns.Get).Methods(http.MethodGet, http.MethodOptions)

	// Resources
	resourcesProposer := api.PathPrefix("/resources").Subrouter()
	resourcesProposer.Use(authenticate, proposerOnly)
	resourcesProposer.HandleFunc("/my/resources", h.resources.MyResources).Methods(http.MethodGet, http.MethodOptions)
	resourcesProposer.HandleFunc("", h.resources.Create).Methods(http.MethodPost, http.MethodOptions)
	resourcesProposer.HandleFunc("/{id}", h.resources.Update).Methods(http.MethodPut, http.MethodOptions)
	resourcesProposer.HandleFunc("/{id}", h.resources.Delete).Methods(http.MethodDelete, http.MethodOptions)

	resourcesPriv := api.PathPrefix("/resources").Subrouter()
	resourcesPriv.Use(authenticate)
	resourcesPriv.HandleFunc("/{id}/like", h.resources.ToggleLike).Methods(http.MethodPost, http.MethodOptions)

	resourcesPub := api.PathPrefix("/resources").Subrouter()
	resourcesPub.Use(optionalAuth)
	resourcesPub.HandleFunc("", h.resources.List).Methods(http.MethodGet, http.MethodOptions)
	resourcesPub.HandleFunc("/popular", h.resources.Popular).Methods(http.MethodGet, http.MethodOptions)
	resourcesPub.HandleFunc("/categories", h.resources.Categories).Methods(http.MethodGet, http.MethodOptions)
	resourcesPub.HandleFunc("/{id}", h.resources.Get).Methods(http.MethodGet, http.MethodOptions)

	// Agencies
	agenciesProposer := api.PathPrefix("/agencies").Subrouter()
	agenciesProposer.Use(authenticate, proposerOnly)
	agenciesProposer.HandleFunc("/my/agencies", h.agencies.MyAgencies).Methods(http.MethodGet, http.MethodOptions)
	agenciesProposer.HandleFunc("", h.agencies.Create).Methods(http.MethodPost, http.MethodOptions)
	agenciesProposer.HandleFunc("/{id}", h.agencies.Update).Methods(http.MethodPut, http.MethodOptions)
	agenciesProposer.HandleFunc("/{id}", h.agencies.Delete).Methods(http.MethodDelete, http.MethodOptions)

	agenciesPriv := api.PathPrefix("/agencies").Subrouter()
	agenciesPriv.Use(authenticate)
	agenciesPriv.HandleFunc("/{id}/reviews", h.agencies.AddReview).Methods(http.MethodPost, http.MethodOptions)

	agenciesPub := api.PathPrefix("/agencies").Subrouter()
	agenciesPub.Use(optionalAuth)
	agenciesPub.HandleFunc("", h.agencies.List).Methods(http.MethodGet, http.MethodOptions)
	agenciesPub.HandleFunc("/nearby", h.agencies.Nearby).Methods(http.MethodGet, http.MethodOptions)
	agenciesPub.HandleFunc("/types", h.agencies.Types).Methods(http.MethodGet, http.MethodOptions)
	agenciesPub.HandleFunc("/{id}", h.agencies.Get).Methods(http.MethodGet, http.MethodOptions)

	// User data
	users := api.PathPrefix("/users").Subrouter()
	users.Use(authenticate)
	users.HandleFunc("/bookmarks", h.users.GetBookmarks).Methods(http.MethodGet, http.MethodOptions)
	users.HandleFunc("/bookmarks", h.users.AddBookmark).Methods(http.MethodPost, http.MethodOptions)
	users.HandleFunc("/bookmarks", h.users.RemoveBookmark).Methods(http.MethodDelete, http.MethodOptions)
	users.HandleFunc("/activity", h.users.GetActivity).Methods(http.MethodGet, http.MethodOptions)
	users.HandleFunc("/activity", h.users.ClearActivity).Methods(http.MethodDelete, http.MethodOptions)
	users.HandleFunc("/stats", h.users.GetStats).Methods(http.MethodGet, http.MethodOptions)
	users.HandleFunc("/preferences", h.users.UpdatePreferences).Methods(http.MethodPut, http.MethodOptions)
	users.HandleFunc("/campaigns/joined", h.users.GetJoinedCampaigns).Methods(http.MethodGet, http.MethodOptions)

	// Admin console
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authenticate, adminOnly)
	admin.HandleFunc("/dashboard/stats", h.admin.DashboardStats).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/users", h.admin.ListUsers).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/users/{id}/status", h.admin.UpdateUserStatus).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/users/{id}", h.admin.DeleteUser).Methods(http.MethodDelete, http.MethodOptions)
	admin.HandleFunc("/campaigns/pending", h.admin.PendingCampaigns).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/campaigns/{id}/status", h.admin.UpdateCampaignStatus).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/resources/pending", h.admin.PendingResources).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/resources/{id}/status", h.admin.UpdateResourceStatus).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/agencies/pending", h.admin.PendingAgencies).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/agencies/{id}/status", h.admin.UpdateAgencyStatus).Methods(http.MethodPut, http.MethodOptions)
	admin.HandleFunc("/audit-logs", h.admin.AuditLogs).Methods(http.MethodGet, http.MethodOptions)
}
