package main

import (
	"context"
	"errors"
	"fmt"
	"go-newsroom/internal/auth"
	"go-newsroom/internal/cache"
	"go-newsroom/internal/config"
	"go-newsroom/internal/data"
	"go-newsroom/internal/handler"
	"go-newsroom/internal/logger"
	"go-newsroom/internal/middleware"
	"go-newsroom/internal/scheduler"
	"go-newsroom/internal/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
)

func main() {
	// --- Configuration Loading ---
	cfg, err := config.LoadConfig()
	if err != nil {
		// Use fmt.Printf here because the logger is not yet initialized.
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Initialization ---
	log := logger.New(cfg.Log)

	// --- Pre-flight Checks ---
	if cfg.Session.SecretKey == "" {
		log.Fatal(errors.New("session secret key not set"), "Please set a secure NEWSROOM_SESSION_SECRETKEY environment variable.")
	}

	// --- Database Initialization and Migration ---
	log.Info("Connecting to the database...")
	db, err := data.NewDB(cfg.DB)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()
	log.Info("Database connection successful.")

	log.Info("Applying database migrations...")
	if err := data.ApplyMigrations(db); err != nil {
		log.Fatal(err, "Failed to apply migrations")
	}
	log.Info("Migrations applied successfully.")

	// --- Session Management Setup ---
	sessionManager := newSessionManager(cfg, db)

	// --- Authorization Setup ---
	log.Info("Initializing authorization...")
	gate, err := newGate(cfg, log)
	if err != nil {
		log.Fatal(err, "Failed to initialize authorization")
	}

	// --- Cache Initialization ---
	log.Info(fmt.Sprintf("Initializing %s cache...", cfg.Cache.Driver))
	appCache, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal(err, "Failed to initialize cache")
	}
	defer appCache.Close()

	// --- Dependency Injection and Handler Initialization ---
	// Initialize the application layers, injecting dependencies from top to bottom.
	tagRepository := data.NewTagRepository(db)
	contentRepository := data.NewContentRepository(db, tagRepository)
	categoryRepository := data.NewCategoryRepository(db)
	userRepository := data.NewUserRepository(db)

	categoryService := service.NewCategoryService(categoryRepository, gate, appCache, cfg.Cache.TTL, log)
	tagService := service.NewTagService(tagRepository, gate)
	authService := service.NewAuthService(userRepository, log)
	if err := authService.Bootstrap(context.Background(), cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword); err != nil {
		log.Fatal(err, "Failed to create the bootstrap administrator")
	}

	contentHandlers := make([]*handler.ContentHandler, 0, len(service.Kinds))
	for _, spec := range service.Kinds {
		svc := service.NewContentService(spec, contentRepository, categoryService, gate, log)
		contentHandlers = append(contentHandlers, handler.NewContentHandler(svc))
	}

	var identityProvider handler.IdentityProvider
	if cfg.OIDC.Enabled() {
		authenticator, err := auth.NewAuthenticator(context.Background(), &cfg.OIDC)
		if err != nil {
			log.Fatal(err, "Failed to initialize authenticator")
		}
		identityProvider = authenticator
		log.Info("OIDC single sign-on enabled.")
	}

	// --- Scheduled Publishing ---
	var sweeper *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sweeper = scheduler.New(contentRepository, cfg.Scheduler.Spec, log)
		if err := sweeper.Start(); err != nil {
			log.Fatal(err, "Failed to start the publish scheduler")
		}
		defer sweeper.Stop()
	}

	// --- Router Setup ---
	// The router is the central hub that directs incoming requests to the correct handlers.
	router := handler.NewRouter(handler.Handlers{
		Content:    contentHandlers,
		Categories: categoryService,
		Tags:       handler.NewTagHandler(tagService),
		Auth:       handler.NewAuthHandler(authService, sessionManager, identityProvider),
		Seo:        handler.NewSeoHandler(contentRepository, cfg.Site.BaseURL),
		DB:         db,
	}, sessionManager, middleware.Actor(sessionManager, authService, log), log)

	// --- Server Initialization and Graceful Shutdown ---
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		if cfg.Server.TLS.Enabled {
			log.Info(fmt.Sprintf("Starting HTTPS server on %s", server.Addr))
			if err := server.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTPS server")
			}
		} else {
			log.Info(fmt.Sprintf("Starting HTTP server on %s", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal(err, "Could not start HTTP server")
			}
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}
	log.Info("Server exiting")
}

// newSessionManager stores sessions in the application database, using the
// scs store that matches the driver.
func newSessionManager(cfg *config.Config, db *sqlx.DB) *scs.SessionManager {
	sessionManager := scs.New()
	if cfg.DB.Driver == data.DriverMySQL {
		sessionManager.Store = mysqlstore.New(db.DB)
	} else {
		sessionManager.Store = sqlite3store.New(db.DB)
	}
	sessionManager.Lifetime = time.Duration(cfg.Session.Lifetime) * time.Hour
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.Server.TLS.Enabled
	return sessionManager
}

// newGate builds the capability gate, persisting policies in the database
// when the policy store is "database".
func newGate(cfg *config.Config, log logger.Logger) (*auth.Gate, error) {
	var opts auth.EnforcerOptions
	if cfg.Auth.PolicyStore == "database" {
		opts = auth.EnforcerOptions{DriverName: cfg.DB.Driver, DataSourceName: cfg.DB.DSN}
	}
	enforcer, err := auth.NewEnforcer(opts)
	if err != nil {
		return nil, err
	}
	if err := auth.SeedPolicies(enforcer, log); err != nil {
		return nil, err
	}
	return auth.NewGate(enforcer), nil
}
