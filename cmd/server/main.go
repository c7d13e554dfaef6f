// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/twinpulse/docs" // Import generated swagger docs
	"github.com/tomtom215/twinpulse/internal/alarm"
	"github.com/tomtom215/twinpulse/internal/api"
	"github.com/tomtom215/twinpulse/internal/auth"
	"github.com/tomtom215/twinpulse/internal/authz"
	"github.com/tomtom215/twinpulse/internal/config"
	"github.com/tomtom215/twinpulse/internal/database"
	"github.com/tomtom215/twinpulse/internal/eventprocessor"
	"github.com/tomtom215/twinpulse/internal/logging"
	"github.com/tomtom215/twinpulse/internal/metrics"
	"github.com/tomtom215/twinpulse/internal/models"
	"github.com/tomtom215/twinpulse/internal/mqttbridge"
	"github.com/tomtom215/twinpulse/internal/objectstore"
	"github.com/tomtom215/twinpulse/internal/points"
	"github.com/tomtom215/twinpulse/internal/supervisor"
	"github.com/tomtom215/twinpulse/internal/supervisor/services"
	"github.com/tomtom215/twinpulse/internal/telemetry"
	"github.com/tomtom215/twinpulse/internal/trial"
	ws "github.com/tomtom215/twinpulse/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("nats", cfg.NATS.Enabled).
		Bool("mqtt", cfg.MQTT.Enabled).
		Bool("wal", cfg.WAL.Enabled).
		Msg("Starting TwinPulse with supervisor tree")
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Strs("origins", cfg.Security.CORSOrigins).Msg("Wildcard CORS origin with authentication enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.RecordAppInfo(models.ServiceVersion)
	go metrics.TrackUptime(ctx, time.Now(), 15*time.Second)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// === DOMAIN SERVICES ===

	registry := points.NewRegistry(db, cfg.Points.RefreshInterval)
	if err := registry.Refresh(ctx); err != nil {
		logging.Warn().Err(err).Msg("Initial point registry load failed; retrying in background")
	}
	pointSvc := points.NewService(db, registry)

	hubCfg := ws.DefaultConfig()
	if cfg.WebSocket.SendBuffer > 0 {
		hubCfg.SendBuffer = cfg.WebSocket.SendBuffer
	}
	if cfg.WebSocket.FrameRate > 0 {
		hubCfg.FrameRate = cfg.WebSocket.FrameRate
	}
	if cfg.WebSocket.FrameBurst > 0 {
		hubCfg.FrameBurst = cfg.WebSocket.FrameBurst
	}
	wsHub := ws.NewHub(hubCfg)

	analyzer := alarm.NewAnalyzer(alarm.ConfigFrom(&cfg.Alarm), db, registry, wsHub)
	alarmSvc := alarm.NewService(db)

	trialSvc := trial.NewService(trial.ConfigFrom(&cfg.Replay), db, registry, wsHub)
	defer trialSvc.Close()

	pipeline, err := telemetry.NewPipeline(telemetry.Deps{
		Points:   registry,
		Tracker:  pointSvc,
		Readings: db,
		Trials:   trialSvc,
		Alarms:   analyzer,
		Notifier: wsHub,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create telemetry pipeline")
	}

	// === BROKER AND INGEST ===

	broker, err := InitBroker(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize broker")
	}

	var sink eventprocessor.ReadingSink = broker.Publisher()
	walComponents, err := InitWAL(ctx, &cfg.WAL, broker.Publisher())
	if err != nil {
		broker.Shutdown(context.Background())
		logging.Fatal().Err(err).Msg("Failed to initialize WAL")
	}
	if walComponents != nil {
		sink = walComponents.Sink()
	}

	var bridge *mqttbridge.Bridge
	if cfg.MQTT.Enabled {
		bridge, err = mqttbridge.New(&cfg.MQTT, sink)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create MQTT bridge")
		}
	}

	// === HEALTH ===

	health := eventprocessor.NewHealthChecker(5 * time.Second)
	health.RegisterComponent("database", eventprocessor.PingCheck(db.Ping))
	health.RegisterComponent("points", eventprocessor.HealthCheckFunc(func(context.Context) eventprocessor.ComponentHealth {
		st := registry.Status()
		h := eventprocessor.ComponentHealth{
			Healthy: st.Loaded,
			Details: map[string]any{"identities": st.Identities, "last_refresh": st.LastRefresh},
		}
		if st.LastError != nil {
			h.Error = st.LastError.Error()
		}
		return h
	}))
	broker.RegisterHealth(health)
	if walComponents != nil {
		health.RegisterComponent("wal", eventprocessor.HealthCheckFunc(func(context.Context) eventprocessor.ComponentHealth {
			stats := walComponents.wal.Stats()
			return eventprocessor.ComponentHealth{
				Healthy: true,
				Details: map[string]any{"pending": stats.PendingCount, "confirmed": stats.ConfirmedCount},
			}
		}))
	}
	if bridge != nil {
		health.RegisterComponent("mqtt", bridge)
	}

	// === API DEPENDENCIES ===

	enforcer, err := authz.NewEnforcer(authz.EnforcerConfigFrom(&cfg.Security))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create authorization enforcer")
	}

	deps := api.Deps{
		Sink:        sink,
		Readings:    db,
		Alarms:      alarmSvc,
		Points:      pointSvc,
		Trials:      trialSvc,
		Permissions: enforcer,
		Hub:         wsHub,
		Upgrader:    ws.NewUpgrader(cfg.WebSocket.AllowedOrigins, !cfg.Server.IsProduction()),
		Readiness:   health,
	}

	var jwtManager *auth.JWTManager
	if cfg.Security.AuthEnabled() {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		loginSvc, err := auth.NewService(&cfg.Security, jwtManager, db)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize auth service")
		}
		deps.Logins = loginSvc
	} else {
		logging.Warn().Msg("Authentication disabled (AUTH_MODE=none); every request acts as admin")
	}

	if cfg.Storage.Enabled {
		store, err := objectstore.New(&cfg.Storage)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		deps.Files = store
		health.RegisterComponent("objectstore", eventprocessor.PingCheck(store.Ping))
		logging.Info().Str("endpoint", cfg.Storage.Endpoint).Str("bucket", cfg.Storage.BucketName).Msg("Object storage enabled")
	}

	handler := api.NewHandler(deps)
	router := api.NewRouter(
		handler,
		auth.NewMiddleware(cfg.Security.AuthMode, jwtManager),
		authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)),
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(&cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	tree.AddDataService(services.NewRunnerService("point-registry", registry))
	if walComponents != nil {
		tree.AddDataService(services.NewWALRetryLoopService(walComponents.retryLoop))
		tree.AddDataService(services.NewWALCompactorService(walComponents.compactor))
		logging.Info().Msg("WAL retry loop and compactor added to supervisor tree")
	}

	// Messaging layer
	tree.AddMessagingService(services.NewRunnerService("websocket-hub", wsHub))
	tree.AddMessagingService(services.NewRunnerService("alarm-analyzer", analyzer))
	tree.AddMessagingService(services.NewBrokerRouterService(broker.RouterFactory(pipeline)))
	if bridge != nil {
		tree.AddMessagingService(bridge)
		logging.Info().Str("broker", cfg.MQTT.BrokerURL).Str("topic", cfg.MQTT.Topic).Msg("MQTT bridge added to supervisor tree")
	}

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	walComponents.Close()
	broker.Shutdown(shutdownCtx)

	logging.Info().Msg("Application stopped gracefully")
}
