package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dbsmedya/goreport/internal/config"
	"github.com/dbsmedya/goreport/internal/logger"
	"github.com/dbsmedya/goreport/internal/tracking"
	"github.com/dbsmedya/goreport/internal/warehouse"
)

// session holds everything a warehouse-backed command needs.
type session struct {
	ctx     context.Context
	cfg     *config.Config
	log     *logger.Logger
	manager *warehouse.Manager
	store   *warehouse.Store
}

// openSession loads configuration, initializes logging and connects to the
// warehouse. The returned context is canceled on SIGINT or SIGTERM.
func openSession() (*session, error) {
	cfg, err := loadConfig(context.Background())
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := warehouse.SetupSignalHandlerWithCallback(func(sig os.Signal) {
		log.Warnw("Received shutdown signal, abandoning in-flight queries", "signal", sig.String())
	})

	manager := warehouse.NewManager(&cfg.Warehouse)
	if err := manager.Connect(ctx); err != nil {
		return nil, err
	}

	store, err := warehouse.NewStore(manager.DB, cfg.Warehouse.MonitoringSchema(), log)
	if err != nil {
		manager.Close()
		return nil, err
	}

	return &session{ctx: ctx, cfg: cfg, log: log, manager: manager, store: store}, nil
}

func (s *session) close() {
	if err := s.manager.Close(); err != nil {
		s.log.Warnw("Failed to close warehouse connection", "error", err)
	}
	_ = s.log.Sync()
}

// newRun starts a tracked run. Failed steps are always logged; metrics are
// kept only when tracking is enabled.
func (s *session) newRun() *tracking.Run {
	trackers := tracking.MultiTracker{tracking.NewLogTracker(s.log)}
	if s.cfg.Tracking.Enabled {
		trackers = append(trackers, tracking.NewPromTracker(prometheus.NewRegistry(), s.cfg.Tracking.MetricsFile))
	}
	return tracking.NewRun(trackers)
}

// identity returns the anonymous ids embedded in the report.
func (s *session) identity() tracking.Identity {
	id := tracking.Identity{PosthogAPIKey: s.cfg.Tracking.PosthogAPIKey}
	if !s.cfg.Tracking.Enabled {
		return id
	}

	userID, err := tracking.LoadOrCreateUserID(s.cfg.Tracking.UserIDFile)
	if err != nil {
		s.log.Warnw("Unable to persist anonymous user id", "error", err)
	}
	id.AnonymousUserID = userID
	id.AnonymousWarehouseID = tracking.WarehouseID(s.cfg.Warehouse.Host, s.cfg.Warehouse.Database)
	return id
}

// finish reports the run's properties. Reporting failures are logged only.
func (s *session) finish(run *tracking.Run) {
	if err := run.Finish(context.Background()); err != nil {
		s.log.Warnw("Failed to report run properties", "error", err)
	}
}
