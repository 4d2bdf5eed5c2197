package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/AymenENSI/Secure-Entry/internal/actuate"
	"github.com/AymenENSI/Secure-Entry/internal/api"
	"github.com/AymenENSI/Secure-Entry/internal/api/ws"
	"github.com/AymenENSI/Secure-Entry/internal/approval"
	"github.com/AymenENSI/Secure-Entry/internal/bus"
	"github.com/AymenENSI/Secure-Entry/internal/config"
	"github.com/AymenENSI/Secure-Entry/internal/engine"
	"github.com/AymenENSI/Secure-Entry/internal/models"
	"github.com/AymenENSI/Secure-Entry/internal/notify"
	"github.com/AymenENSI/Secure-Entry/internal/observability"
	"github.com/AymenENSI/Secure-Entry/internal/registry"
	"github.com/AymenENSI/Secure-Entry/internal/storage"
	"github.com/AymenENSI/Secure-Entry/internal/vision"
	"github.com/AymenENSI/Secure-Entry/pkg/dto"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting Secure-Entry server",
		"port", cfg.Server.Port,
		"tolerance", cfg.Vision.Tolerance,
	)

	// Initialize ONNX Runtime and the face encoder
	if err := vision.Init(); err != nil {
		slog.Error("init onnx runtime", "error", err)
		os.Exit(1)
	}
	defer vision.Shutdown()

	encoder, err := vision.NewEncoder(cfg.Vision)
	if err != nil {
		slog.Error("init face encoder", "error", err)
		os.Exit(1)
	}
	defer encoder.Close()

	// Load the authorized-identity registry
	slog.Info("loading known faces", "dir", cfg.Registry.Dir)
	reg, err := registry.Load(cfg.Registry.Dir, encoder)
	if err != nil {
		slog.Error("load identity registry", "error", err)
		os.Exit(1)
	}

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		slog.Warn("ensure postgres schema", "error", err)
	}

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	conn, err := bus.Connect(cfg.NATS.URL, cfg.NATS.ImageSubject)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := conn.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	// WebSocket hub for live dashboards
	hub := ws.NewHub()
	go hub.Run()

	sink := &eventSink{db: db, hub: hub}

	store := approval.NewStore(cfg.Approval.Timeout)
	actuator := actuate.NewPublisher(conn, cfg.NATS.CameraCommandSubject, cfg.NATS.LockerCommandSubject)
	notifier := notify.NewDispatcher(cfg.Notify)

	eng := engine.New(encoder, reg, store, actuator, notifier, minioStore, sink, cfg.Vision.Tolerance)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background expiry sweep
	sweeper := approval.NewSweeper(store, cfg.Approval.SweepInterval, func(req approval.PendingRequest) {
		sink.Record(ctx, models.AccessEvent{
			CameraID:    req.CameraID,
			Decision:    models.DecisionExpired,
			PendingID:   req.ID,
			SnapshotKey: req.ImageRef,
		})
	})
	sweeper.Start(ctx)

	// Start consuming camera images
	err = conn.ConsumeImages(ctx, "secure-entry", func(ctx context.Context, msg jetstream.Msg) error {
		var ev dto.ImageEvent
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			slog.Error("unmarshal image event", "error", err)
			return nil // drop malformed payloads, don't retry
		}

		if err := eng.HandleEvent(ctx, ev); err != nil {
			slog.Error("process image event", "camera", ev.Camera, "error", err)
		}
		return nil
	}, cfg.NATS.WorkerCount)
	if err != nil {
		slog.Error("start image consumer", "error", err)
		os.Exit(1)
	}

	// HTTP surface: approval intake, pending list, audit log, metrics
	router := api.NewRouter(api.RouterConfig{
		APIKey:   cfg.Server.APIKey,
		Store:    store,
		Actuator: actuator,
		Events:   sink,
		EventLog: db,
		Images:   minioStore,
		DB:       db,
		MinIO:    minioStore,
		Bus:      conn,
		Hub:      hub,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")
	cancel()
	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// eventSink fans audit events out to Postgres and the WebSocket hub.
// Audit failures are logged and swallowed: a lost audit row must never
// affect an access decision.
type eventSink struct {
	db  *storage.PostgresStore
	hub *ws.Hub
}

func (s *eventSink) Record(ctx context.Context, ev models.AccessEvent) {
	if err := s.db.RecordEvent(ctx, &ev); err != nil {
		slog.Warn("record access event", "decision", ev.Decision, "error", err)
	}

	s.hub.Broadcast(&dto.WSEvent{
		Type:   ev.Decision,
		Camera: ev.CameraID,
		Data: dto.EventResponse{
			ID:           ev.ID.String(),
			CameraID:     ev.CameraID,
			Decision:     ev.Decision,
			IdentityName: ev.IdentityName,
			PendingID:    ev.PendingID,
			Action:       ev.Action,
			CreatedAt:    ev.CreatedAt.Format(time.RFC3339),
		},
	})
}
