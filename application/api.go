package application

import (
	"context"
	"log"
	"net/http"
	"time"

	configs "github.com/coopvale/backoffice/configs"
	"github.com/coopvale/backoffice/internal/analytics"
	"github.com/coopvale/backoffice/internal/audit"
	redisdb "github.com/coopvale/backoffice/internal/database/redis"
	"github.com/coopvale/backoffice/internal/email/smtp"
	"github.com/coopvale/backoffice/internal/imports"
	"github.com/coopvale/backoffice/internal/mappings"
	"github.com/coopvale/backoffice/internal/scheduler"
	"github.com/coopvale/backoffice/internal/spreadsheet"
	"github.com/coopvale/backoffice/internal/user"
	"github.com/coopvale/backoffice/pkg/rest"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Application struct {
	Config configs.Configs
	Logger *zap.Logger
	DB     *pgxpool.Pool
	Redis  *redisdb.Client
}

func (app *Application) Mount() http.Handler {
	email := smtp.New(
		app.Config.SMTP_FROM,
		app.Config.SMTP_HOST,
		app.Config.SMTP_USER,
		app.Config.SMTP_PASS,
		app.Config.SMTP_PORT,
	)
	e := echo.New()
	e.HTTPErrorHandler = app.CustomErrorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:3000"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:  true,
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {

			status := v.Status
			if v.Error != nil {
				switch err := v.Error.(type) {
				case *echo.HTTPError:
					status = err.Code
				case *rest.ApiErr:
					status = err.Code
				}
			}

			if status >= 500 {
				app.Logger.Error("request",
					zap.Duration("latency", v.Latency),
					zap.Int("status", status),
					zap.String("uri", v.URI),
					zap.String("method", v.Method),
				)
				return nil
			}

			if status >= 400 {
				app.Logger.Warn("request",
					zap.Duration("latency", v.Latency),
					zap.Int("status", status),
					zap.String("uri", v.URI),
					zap.String("method", v.Method),
				)
				return nil
			}

			app.Logger.Info("request",
				zap.Duration("latency", v.Latency),
				zap.Int("status", status),
				zap.String("uri", v.URI),
				zap.String("method", v.Method),
			)
			return nil
		},
	}))

	// Spreadsheet parser shared by the import pipeline
	sheetParser := spreadsheet.NewParser(app.Logger)
	sheetParser.LargeFileBytes = app.Config.LargeFileBytes
	sheetParser.MaxPreviewRows = app.Config.MaxPreviewRows

	// Mappings
	mappingStore := mappings.NewStore(app.DB)
	mappingService := mappings.NewService(mappingStore, app.Logger)
	mappingHandler := mappings.NewHandler(mappingService)

	// Imports
	importStore := imports.NewStore(app.DB)
	produtoStore := imports.NewProdutoStore(app.DB)
	engine := imports.NewEngine(importStore, produtoStore, app.Logger)
	engine.BatchSize = app.Config.ImportBatchSize
	importService := imports.NewService(importStore, mappingStore, engine, sheetParser, app.Logger)
	importHandler := imports.NewHandler(importService)

	// Audit
	auditStore := audit.NewStore(app.DB)
	auditor := audit.NewAuditor(auditStore, app.Logger)
	auditor.OrphanWindow = time.Duration(app.Config.OrphanWindowMinutes) * time.Minute
	auditHandler := audit.NewHandler(auditor)

	// Analytics
	presetStore := analytics.NewPresetStore(app.DB)
	salesStore := analytics.NewSalesStore(app.DB)
	analyzer := analytics.NewAnalyzer(app.Logger)
	cache := analytics.NewRedisCache(app.Redis.Client)
	cacheTTL := time.Duration(app.Config.AnalyticsCacheTTLSeconds) * time.Second
	analyticsService := analytics.NewService(presetStore, salesStore, analyzer, cache, cacheTTL, app.Logger)
	analyticsHandler := analytics.NewHandler(analyticsService)

	// Nightly audit with email alerts
	auditScheduler := scheduler.NewScheduler(auditor, app.Logger, email, app.Config.AlertRecipients)
	if err := auditScheduler.Start(app.Config.AuditCronExpression); err != nil {
		app.Logger.Fatal("failed to start scheduler", zap.Error(err))
	}

	// Health check (publica, sem identidade)
	e.GET("/health", app.healthCheck)

	// Identity comes from the gateway headers
	protected := e.Group("")
	protected.Use(user.IdentityMiddleware())

	// Mappings API routes
	protected.POST("/mappings", mappingHandler.CreateMapping)
	protected.GET("/mappings", mappingHandler.ListMappings)
	protected.GET("/mappings/:id", mappingHandler.GetMapping)
	protected.PUT("/mappings/:id", mappingHandler.UpdateMapping)
	protected.DELETE("/mappings/:id", mappingHandler.DeleteMapping)

	// Imports API routes
	protected.POST("/imports", importHandler.StartImport)
	protected.GET("/imports", importHandler.ListImports)
	protected.GET("/imports/:id/progress", importHandler.GetProgress)
	protected.DELETE("/imports/:id", importHandler.DeleteImport)

	// Audit API routes
	protected.GET("/audit", auditHandler.RunAudit)

	// Analytics API routes
	protected.POST("/analytics/presets", analyticsHandler.CreatePreset)
	protected.GET("/analytics/presets", analyticsHandler.ListPresets)
	protected.GET("/analytics/presets/:id", analyticsHandler.GetPreset)
	protected.PUT("/analytics/presets/:id", analyticsHandler.UpdatePreset)
	protected.DELETE("/analytics/presets/:id", analyticsHandler.DeletePreset)
	protected.POST("/analytics/behavior", analyticsHandler.BehaviorProfiles)
	protected.POST("/analytics/financial", analyticsHandler.FinancialMetrics)

	return e
}

func (app *Application) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{"database": "ok", "redis": "ok"}
	code := http.StatusOK

	if err := app.DB.Ping(ctx); err != nil {
		status["database"] = "indisponivel"
		code = http.StatusServiceUnavailable
	}
	if err := app.Redis.HealthCheck(ctx); err != nil {
		status["redis"] = "indisponivel"
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, status)
}

func (app *Application) Run(h http.Handler) error {
	srv := &http.Server{
		Addr:         app.Config.WebServerPort,
		Handler:      h,
		// imports run synchronously, large planilhas need room
		WriteTimeout: time.Minute * 5,
		ReadTimeout:  time.Minute,
		IdleTimeout:  time.Minute,
	}

	log.Printf("server has started at addr %s", app.Config.WebServerPort)

	return srv.ListenAndServe()
}
