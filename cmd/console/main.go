package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/library-console/api/swagger"
	"github.com/noah-isme/library-console/internal/dialog"
	"github.com/noah-isme/library-console/internal/handler"
	"github.com/noah-isme/library-console/internal/libraryapi"
	"github.com/noah-isme/library-console/internal/middleware"
	"github.com/noah-isme/library-console/internal/query"
	"github.com/noah-isme/library-console/internal/service"
	"github.com/noah-isme/library-console/internal/session"
	"github.com/noah-isme/library-console/pkg/config"
	"github.com/noah-isme/library-console/pkg/export"
	"github.com/noah-isme/library-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/library-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/library-console/pkg/middleware/requestid"
)

// @title Library Admin Console API
// @version 0.1.0
// @description Roster, ban, notification and student editing workflows for library operators.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	client := libraryapi.NewClient(libraryapi.ClientConfig{
		BaseURL: cfg.LibraryAPI.BaseURL,
		Token:   cfg.LibraryAPI.Token,
		Timeout: cfg.LibraryAPI.Timeout,
	}, nil, logr, metricsSvc)

	mutations := service.NewMutationCoordinator(client, validator.New(), logr, metricsSvc)
	categories := service.NewCategoryResolver(client, cfg.Roster.DefaultBanDays, logr, metricsSvc)
	exports := service.NewExportService(service.ExportConfig{
		Enabled:  cfg.Exports.Enabled,
		PDFTitle: cfg.Exports.PDFTitle,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter(), export.NewXLSXExporter())

	sessions := session.NewManager(client, session.Options{
		PageSize: cfg.Roster.PageSize,
		TTL:      cfg.Sessions.TTL,
		Pipeline: query.NewPipeline(session.ParseLocale(cfg.Roster.Locale)),
		Mutator:  mutations,
		Resolver: func() dialog.BanDurationResolver { return categories.Fork() },
	}, logr, metricsSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sessions.Run(ctx, cfg.Sessions.CleanupInterval)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	var promHandler http.Handler
	if metricsSvc != nil {
		promHandler = metricsSvc.Handler()
	}
	metricsHandler := handler.NewMetricsHandler(promHandler, sessions)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), sessions, mutations, exports)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "library_api", cfg.LibraryAPI.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func registerRoutes(api *gin.RouterGroup, sessions *session.Manager, mutations *service.MutationCoordinator, exports *service.ExportService) {
	sessionHandler := handler.NewSessionHandler(sessions)
	rosterHandler := handler.NewRosterHandler(mutations, exports)
	dialogHandler := handler.NewDialogHandler()

	api.POST("/sessions", sessionHandler.Create)

	secured := api.Group("")
	secured.Use(middleware.RequireSession(sessions))

	secured.POST("/sessions/reload", sessionHandler.Reload)
	secured.DELETE("/sessions", sessionHandler.Delete)

	secured.GET("/roster", rosterHandler.View)
	secured.PATCH("/roster/view", rosterHandler.UpdateView)
	secured.GET("/roster/export", rosterHandler.Export)
	secured.DELETE("/roster/selection", rosterHandler.Deselect)
	secured.GET("/students/:id", rosterHandler.Select)
	secured.POST("/students/:id/unban", rosterHandler.Unban)

	dialogs := secured.Group("/dialogs")
	dialogs.POST("/ban", dialogHandler.OpenBan)
	dialogs.GET("/ban", dialogHandler.BanView)
	dialogs.PUT("/ban", dialogHandler.SetBanDate)
	dialogs.POST("/ban/submit", dialogHandler.SubmitBan)
	dialogs.DELETE("/ban", dialogHandler.CloseBan)

	dialogs.POST("/notify", dialogHandler.OpenNotify)
	dialogs.GET("/notify", dialogHandler.NotifyView)
	dialogs.POST("/notify/submit", dialogHandler.SubmitNotify)
	dialogs.DELETE("/notify", dialogHandler.CloseNotify)

	dialogs.POST("/edit", dialogHandler.OpenEdit)
	dialogs.GET("/edit", dialogHandler.EditView)
	dialogs.POST("/edit/submit", dialogHandler.SubmitEdit)
	dialogs.DELETE("/edit", dialogHandler.CloseEdit)

	dialogs.POST("/filter", dialogHandler.OpenFilter)
	dialogs.GET("/filter", dialogHandler.FilterView)
	dialogs.PUT("/filter", dialogHandler.SetFilter)
	dialogs.POST("/filter/submit", dialogHandler.SubmitFilter)
	dialogs.DELETE("/filter", dialogHandler.CloseFilter)
}
