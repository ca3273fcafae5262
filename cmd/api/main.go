// Package main is the entry point for the EcoPortal API.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/ecoportal/backend/config"
	"github.com/ecoportal/backend/internal/events"
	"github.com/ecoportal/backend/internal/handlers"
	"github.com/ecoportal/backend/internal/repositories"
	"github.com/ecoportal/backend/internal/services"
	"github.com/ecoportal/backend/internal/utils"
	"github.com/ecoportal/backend/pkg/kafka"
	"github.com/ecoportal/backend/pkg/mongodb"
)

func main() {
	// Load environment variables (ignore error in dev)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, err := mongodb.NewClient(mongodb.Config{
		URI:         cfg.MongoDB.URI,
		Database:    cfg.MongoDB.Database,
		MaxPoolSize: cfg.MongoDB.MaxPoolSize,
		MinPoolSize: cfg.MongoDB.MinPoolSize,
		MaxRetries:  cfg.MongoDB.MaxRetries,
		TLSCAFile:   cfg.MongoDB.TLSCAFile,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB")

	userRepo := repositories.NewMongoUserRepository(mongoClient)
	campaignRepo := repositories.NewMongoCampaignRepository(mongoClient)
	resourceRepo := repositories.NewMongoResourceRepository(mongoClient)
	agencyRepo := repositories.NewMongoAgencyRepository(mongoClient)
	auditRepo := repositories.NewMongoAuditLogRepository(mongoClient)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndexes()
	for name, ensure := range map[string]func(context.Context) error{
		"users":      userRepo.EnsureIndexes,
		"campaigns":  campaignRepo.EnsureIndexes,
		"resources":  resourceRepo.EnsureIndexes,
		"agencies":   agencyRepo.EnsureIndexes,
		"audit_logs": auditRepo.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			log.Fatalf("Failed to ensure %s indexes: %v", name, err)
		}
	}

	jwtService, err := utils.NewJWTService(cfg.JWT)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}
	log.Println("JWT service initialized")

	// A nil Publisher interface disables the Kafka mirror; assigning a nil
	// *kafka.Producer directly would make the interface non-nil.
	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.Config{
			Brokers:       cfg.Kafka.Brokers,
			ClientID:      cfg.Kafka.ClientID,
			Username:      cfg.Kafka.Username,
			Password:      cfg.Kafka.Password,
			SSL:           cfg.Kafka.SSL,
			SASLMechanism: cfg.Kafka.SASLMechanism,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Kafka producer: %v", err)
		}
		defer producer.Close()
		log.Println("Kafka producer initialized")
		publisher = producer
	}

	auditPublisher := events.NewAuditPublisher(publisher, cfg.Kafka.AuditTopic)
	auditService := services.NewAuditService(auditRepo, auditPublisher)
	authService := services.NewAuthService(userRepo, auditService, jwtService)

	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelBootstrap()
	if err := services.BootstrapAdmin(bootstrapCtx, userRepo, cfg.Admin); err != nil {
		log.Fatalf("Failed to bootstrap admin account: %v", err)
	}

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	registerRoutes(router, apiHandlers{
		health:    handlers.NewHealthHandler(mongoClient),
		auth:      handlers.NewAuthHandler(authService),
		users:     handlers.NewUserHandler(userRepo, campaignRepo, resourceRepo, agencyRepo),
		campaigns: handlers.NewCampaignHandler(campaignRepo, userRepo),
		resources: handlers.NewResourceHandler(resourceRepo, userRepo),
		agencies:  handlers.NewAgencyHandler(agencyRepo, userRepo),
		admin:     handlers.NewAdminHandler(userRepo, campaignRepo, resourceRepo, agencyRepo, auditService),
	}, jwtService, userRepo)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := mongoClient.Disconnect(ctx); err != nil {
		log.Printf("Error disconnecting from MongoDB: %v", err)
	}

	log.Println("Server stopped")
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"success":false,"message":"Endpoint not found"}`))
}

// corsMiddleware adds CORS headers to responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigins := []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:5174",
		}

		originAllowed := false
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				originAllowed = true
				break
			}
		}

		if !originAllowed && origin != "" {
			http.Error(w, "Origin not allowed", http.StatusForbidden)
			return
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
