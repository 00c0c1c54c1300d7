// Package main initializes and starts the health-tracking HTTP server,
// setting up configuration, logging, database connections, repositories,
// services, and handlers.
package main

import (
	"cmp"
	"fmt"

	nethttp "net/http"

	"github.com/avolkova/healthtrack/internal/config"
	"github.com/avolkova/healthtrack/internal/db"
	"github.com/avolkova/healthtrack/internal/logger"
	"github.com/avolkova/healthtrack/internal/repository"
	"github.com/avolkova/healthtrack/internal/schema"
	"github.com/avolkova/healthtrack/internal/server/handler/http"
	"github.com/avolkova/healthtrack/internal/service"
	"github.com/avolkova/healthtrack/internal/token"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Initialize repositories for users and health records.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	recordRepo := repository.NewPostgresRecordRepository(postgresDB)

	// Token manager signs and validates bearer tokens.
	tokens := token.NewManager(options.TokenSecret, options.TokenIssuer, options.TokenTTL)

	// Initialize business-logic services: one auth service and one
	// generic resource service per declared schema.
	authService := service.NewAuthService(userRepo, tokens)

	authHandler := &http.AuthHandler{AuthService: authService, TokenTTL: tokens.TTL()}

	resources := make([]*http.ResourceHandler, 0, len(schema.All()))
	for _, s := range schema.All() {
		resources = append(resources, &http.ResourceHandler{
			Service: service.NewResourceService(s, recordRepo),
			Schema:  s,
		})
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, resources, tokens, zapLogger)

	// Create and start the HTTP server.
	server := &nethttp.Server{
		Addr:    options.Port,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
