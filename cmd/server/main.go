package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"Gallery/internal/api/handlers"
	oauthHandlers "Gallery/internal/api/handlers/oauth"
	"Gallery/internal/api/middleware"
	"Gallery/internal/api/routes"
	"Gallery/internal/auth"
	"Gallery/internal/config"
	"Gallery/internal/core/oauth"
	"Gallery/internal/core/photos"
	"Gallery/internal/db/migrations"
	postgresRepo "Gallery/internal/db/postgres"
	"Gallery/internal/instance"
	"Gallery/internal/logging"
	"Gallery/internal/metrics"
	"Gallery/internal/session"
	s3store "Gallery/internal/storage/s3"
	"Gallery/internal/web"
)

func main() {
	config.LoadDotEnv(".env", ".env.dev")

	logger, err := logging.New(logging.ConfigFromEnv())
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	// The key set is fetched once; without it no login can ever verify
	keys, err := auth.FetchKeySet(ctx, cfg.JWKSURL, cfg.JWKSTimeout)
	if err != nil {
		logger.Fatal("Failed to fetch identity provider keys", zap.String("url", cfg.JWKSURL), zap.Error(err))
	}
	logger.Info("Loaded identity provider keys", zap.Int("keys", keys.Len()))

	oauthCfg := oauth.Config{
		Domain:       cfg.CognitoDomain,
		ClientID:     cfg.CognitoClientID,
		ClientSecret: cfg.CognitoClientSecret,
		BaseURL:      cfg.BaseURL,
	}
	tokenClient := auth.NewTokenClient(oauthCfg.TokenURL(), cfg.CognitoClientID, cfg.CognitoClientSecret, oauthCfg.RedirectURI(), cfg.TokenTimeout)
	authService := oauth.NewAuthService(oauthCfg, auth.NewVerifier(keys, cfg.CognitoClientID), tokenClient, logger.Named("auth"))

	sessions, err := session.NewStore(cfg.SessionSecret, cfg.SecureCookies())
	if err != nil {
		logger.Fatal("Failed to create session store", zap.Error(err))
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Up(db.DB); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	logger.Info("Migrations completed successfully")

	objectStore, err := s3store.New(ctx, s3store.Config{
		Region:    cfg.AWSRegion,
		Bucket:    cfg.PhotosBucket,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		logger.Fatal("Failed to create object store", zap.Error(err))
	}

	m := metrics.New()

	photoRepo := postgresRepo.NewPhotoRepository(db)
	photoService := photos.NewPhotoService(photoRepo, objectStore, photos.NewResizer(), cfg.PresignTTL, m, logger.Named("photos"))

	var describer instance.Describer = instance.Static{InstanceID: instance.Unknown, AvailabilityZone: instance.Unknown}
	if cfg.IMDSEnabled {
		describer = instance.NewIMDSDescriber(cfg.IMDSEndpoint, logger.Named("imds"))
	}

	templates, err := web.NewTemplates()
	if err != nil {
		logger.Fatal("Failed to load web templates", zap.Error(err))
	}
	webHandlers := web.NewHandlers(templates, photoService, describer, logger.Named("web"))

	authMiddleware := middleware.NewSessionAuthMiddleware(sessions, authService, http.HandlerFunc(webHandlers.Unauthorized))
	oauthHandler := oauthHandlers.NewOAuthHandler(authService, sessions, webHandlers, m, logger.Named("oauth"))

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.TrustedRealIP(cfg.TrustProxyHeaders))
	r.Use(logging.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)

	// Rate limiting: 100 requests per minute per IP
	rateLimiter := middleware.NewRateLimiter(100, 1*time.Minute)
	r.Use(rateLimiter.Middleware)

	routes.RegisterOAuthRoutes(r, oauthHandler, cfg.CORSAllowedOrigins)
	routes.RegisterWebRoutes(r, webHandlers, authMiddleware)
	routes.RegisterPhotoRoutes(r, webHandlers, authMiddleware)

	r.Get("/health", handlers.Health(db, logger))
	r.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Gallery starting", zap.String("port", cfg.Port), zap.String("base_url", cfg.BaseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
