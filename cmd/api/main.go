package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/transferpeer/peerconnect/config"
	"github.com/transferpeer/peerconnect/internal/backend"
	"github.com/transferpeer/peerconnect/internal/cache"
	"github.com/transferpeer/peerconnect/internal/catalog"
	"github.com/transferpeer/peerconnect/internal/handlers"
	"github.com/transferpeer/peerconnect/internal/middleware"
	"github.com/transferpeer/peerconnect/internal/services"
	"github.com/transferpeer/peerconnect/internal/session"
	"github.com/transferpeer/peerconnect/pkg/httpclient"
	"github.com/transferpeer/peerconnect/pkg/jwt"
	"github.com/transferpeer/peerconnect/pkg/logger"
	"github.com/transferpeer/peerconnect/pkg/metrics"
	"github.com/transferpeer/peerconnect/pkg/profiling"
	"github.com/transferpeer/peerconnect/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type rateLimiters struct {
	general *middleware.RateLimiter
	auth    *middleware.RateLimiter
	search  *middleware.RateLimiter
}

// registerSessionRoutes registers the browser session and controller operation routes
func registerSessionRoutes(
	v1 *gin.RouterGroup,
	limiters rateLimiters,
	sessionMiddleware gin.HandlerFunc,
	sessionHandler *handlers.SessionHandler,
) {
	v1.POST("/session", limiters.general.Middleware(), sessionHandler.StartSession)

	authed := v1.Group("")
	authed.Use(limiters.general.Middleware(), sessionMiddleware)
	authed.GET("/session", sessionHandler.GetView)

	auth := authed.Group("/auth")
	auth.POST("/login", limiters.auth.Middleware(), middleware.BodySizeLimitMiddleware(16*1024), sessionHandler.Login)
	auth.POST("/signup", limiters.auth.Middleware(), middleware.BodySizeLimitMiddleware(16*1024), sessionHandler.Signup)
	auth.POST("/logout", sessionHandler.Logout)
	auth.POST("/password", limiters.auth.Middleware(), middleware.BodySizeLimitMiddleware(16*1024), sessionHandler.ChangePassword)

	profile := authed.Group("/profile")
	profile.POST("/open", sessionHandler.OpenProfile)
	profile.POST("/reload", sessionHandler.LoadProfile)
	profile.PUT("/draft", middleware.BodySizeLimitMiddleware(64*1024), sessionHandler.EditProfile)
	profile.POST("/save", sessionHandler.SaveProfile)
	profile.POST("/close", sessionHandler.CloseProfile)

	authed.POST("/mentors/search", limiters.search.Middleware(), middleware.BodySizeLimitMiddleware(16*1024), sessionHandler.SearchMentors)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Peer Connect BFF",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	tracerShutdown, err := tracing.InitTracer(tracing.Config{
		ServiceName:       cfg.Observability.ServiceName,
		ServiceNamespace:  cfg.Observability.ServiceNamespace,
		ServiceVersion:    cfg.Observability.ServiceVersion,
		ServiceInstanceID: cfg.Observability.ServiceInstanceID,
		Environment:       cfg.Server.AppEnv,
		Endpoint:          cfg.Observability.ExporterEndpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.InitProfiler(cfg.Profiling, cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	metrics.Init(cfg.Observability.ServiceName)

	// Reference data
	cat := catalog.Default()
	if cfg.Catalog.File != "" {
		cat, err = catalog.Load(cfg.Catalog.File)
		if err != nil {
			logger.Fatal("Failed to load catalog", zap.String("file", cfg.Catalog.File), zap.Error(err))
		}
	}
	logger.Info("Catalog loaded",
		zap.Int("colleges", len(cat.Colleges())),
		zap.Int("fields_of_study", len(cat.FieldsOfStudy())))

	backendClient, err := backend.NewHTTPClient(cfg.Backend.BaseURL, httpclient.NewStandardClient(cfg.BackendTimeout()))
	if err != nil {
		logger.Fatal("Failed to initialize backend client", zap.Error(err))
	}

	sessions := cache.NewSessionCache(cfg.SessionIdleTTL())
	tokenManager := jwt.NewTokenManager(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTLHours)

	sessionService := services.NewSessionService(backendClient, sessions, tokenManager, session.Options{
		NotificationTTL:   cfg.NotificationTTL(),
		NavigationDelay:   cfg.NavigationDelay(),
		SearchSettleDelay: cfg.SearchSettleDelay(),
		Catalog:           cat,
	})

	cookie := middleware.CookieOptions{
		Domain: cfg.Session.CookieDomain,
		Secure: cfg.Session.CookieSecure,
	}

	sessionHandler := handlers.NewSessionHandler(sessionService, cookie)
	catalogHandler := handlers.NewCatalogHandler(cat)
	healthHandler := handlers.NewHealthHandler(sessions.Count, backendClient.BreakerState)
	logsHandler := handlers.NewLogsHandler(cfg.Logging.Dir)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true, // session cookie
		MaxAge:           12 * time.Hour,
	}))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	limiters := rateLimiters{
		general: middleware.NewRateLimiter(ctx, 50, 100),
		auth:    middleware.NewRateLimiter(ctx, 0.2, 5), // 1 req/5s, burst of 5
		search:  middleware.NewRateLimiter(ctx, 2, 5),
	}

	api := router.Group("/api")
	api.GET("/healthcheck", limiters.general.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", limiters.general.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	v1.GET("/catalog", limiters.general.Middleware(), catalogHandler.GetCatalog)
	v1.POST("/logs", limiters.general.Middleware(), middleware.BodySizeLimitMiddleware(1*1024*1024), logsHandler.ReceiveFrontendLogs)
	registerSessionRoutes(v1, limiters, middleware.BrowserSessionMiddleware(sessionService, cookie), sessionHandler)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Covers the backend timeout of a search: two calls plus the settle delay
		WriteTimeout:   2*cfg.BackendTimeout() + cfg.SearchSettleDelay() + 10*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited", zap.Int("open_sessions", sessions.Count()))
}
