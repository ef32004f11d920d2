package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caseforge/dossier/internal/authorization"
	"github.com/caseforge/dossier/internal/config"
	"github.com/caseforge/dossier/internal/db"
	"github.com/caseforge/dossier/internal/definitions"
	"github.com/caseforge/dossier/internal/documents"
	"github.com/caseforge/dossier/internal/events"
	"github.com/caseforge/dossier/internal/files"
	"github.com/caseforge/dossier/internal/sequence"
	"github.com/caseforge/dossier/internal/snapshots"
	"github.com/caseforge/dossier/pkg/handlers"
	"github.com/caseforge/dossier/pkg/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Application struct {
	config      *config.Config
	logger      *slog.Logger
	definitions definitions.System
	documents   documents.System
	snapshots   snapshots.System
	files       files.System
}

func main() {
	bootstrap := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Finalize(); err != nil {
		bootstrap.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(&cfg.Logging)

	conn, err := db.Open(cfg.Database.Dsn(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	conn.SetConnMaxLifetime(cfg.Database.ConnMaxLifetimeDuration())

	if err := db.Migrate(conn); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	dispatcher := buildDispatcher(cfg, logger)

	app, err := buildApplication(cfg, conn, dispatcher, logger)
	if err != nil {
		logger.Error("failed to assemble application", "error", err)
		os.Exit(1)
	}

	if dir := cfg.Definitions.AutodeployDir; dir != "" {
		report, err := app.definitions.DeployAll(
			context.Background(), handlers.DefaultPrincipal, dir,
			cfg.Definitions.ReadOnly, cfg.Definitions.Force,
		)
		if err != nil {
			logger.Error("schema autodeployment failed", "dir", dir, "error", err)
			os.Exit(1)
		}
		logger.Info("schema autodeployment finished",
			"dir", dir, "deployed", len(report.Deployed), "failed", len(report.Failed))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.routes(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
		defer cancel()

		shutdownError <- srv.Shutdown(ctx)
	}()

	logger.Info("starting server", "addr", srv.Addr)

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	if err := <-shutdownError; err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	dispatcher.Shutdown()
	logger.Info("server stopped")
}

func buildDispatcher(cfg *config.Config, logger *slog.Logger) *events.Dispatcher {
	sinks := []events.Sink{events.NewLogSink(logger)}

	if cfg.Events.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Events.RedisAddr})
		sinks = append(sinks, events.NewRedisSink(client, cfg.Events.RedisChannel))
		logger.Info("redis event sink enabled", "addr", cfg.Events.RedisAddr, "channel", cfg.Events.RedisChannel)
	}

	return events.NewDispatcher(cfg.Events.Workers, cfg.Events.QueueSize, logger, sinks...)
}

func buildApplication(cfg *config.Config, conn *sql.DB, dispatcher *events.Dispatcher, logger *slog.Logger) (*Application, error) {
	oracle := authorization.AllowAll{}

	defRepo := definitions.NewRepository(conn, cfg.Pagination)
	docRepo := documents.NewRepository(conn, cfg.Pagination)
	snapRepo := snapshots.NewRepository(conn, cfg.Pagination)
	fileRepo := files.NewRepository(conn, cfg.Pagination)

	defSys := definitions.New(defRepo, docRepo, oracle, dispatcher, logger)
	snapSys := snapshots.New(snapRepo, docRepo, oracle, dispatcher, logger)
	docSys := documents.New(
		docRepo, defSys, sequence.NewPostgres(conn),
		oracle, dispatcher, &snapshotCapturer{sys: snapSys}, logger,
	)

	blobs, err := files.NewFilesystemStore(cfg.Files.Root, logger)
	if err != nil {
		return nil, err
	}
	fileSys := files.New(fileRepo, blobs, docRepo, oracle, logger, cfg.Files.MaxUploadSizeBytes())

	return &Application{
		config:      cfg,
		logger:      logger,
		definitions: defSys,
		documents:   docSys,
		snapshots:   snapSys,
		files:       fileSys,
	}, nil
}

// snapshotCapturer adapts the snapshot ledger to the capture hook the
// document store invokes after mutations commit.
type snapshotCapturer struct {
	sys snapshots.System
}

func (c *snapshotCapturer) Capture(ctx context.Context, documentID uuid.UUID, content json.RawMessage, author string, at time.Time) error {
	_, err := c.sys.Record(ctx, author, documentID, content, at)
	return err
}
