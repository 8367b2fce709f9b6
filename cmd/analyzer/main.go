package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/worker"

	natsadapter "github.com/italygeo/explorer/internal/adapters/nats"
	"github.com/italygeo/explorer/internal/adapters/postgres"
	"github.com/italygeo/explorer/internal/adapters/temporal"
	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/core/ports"
	"github.com/italygeo/explorer/internal/core/usecases"
	"github.com/italygeo/explorer/internal/pkg/config"
	"github.com/italygeo/explorer/internal/pkg/logging"
	"github.com/italygeo/explorer/internal/workflows"
)

func main() {
	cfg, err := config.Load("italygeo-analyzer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	if cfg.Storage.Driver != config.StoragePostgres {
		log.Fatalf("analyzer needs a shared store, set ITALYGEO_STORAGE_DRIVER=postgres (got %q)", cfg.Storage.Driver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var events ports.EventPublisher = natsadapter.NoopPublisher{}
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, analysis announcements disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	// Connect to Temporal
	c, err := temporal.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	scheduler := temporal.NewScheduler(c, cfg.Temporal.TaskQueue)
	analysis := usecases.NewAnalysisService(
		postgres.NewLandmarkRepo(db),
		postgres.NewAnalysisRepo(db),
		events,
		scheduler,
	)

	// Refresh the density grid whenever a bulk import lands.
	if cfg.NATS.URL != "" {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats subscriber unavailable, import refresh disabled", "error", err)
		} else {
			defer sub.Close()
			err = sub.Subscribe(ctx, domain.EventDataImported, "analysis-refresher", func(ctx context.Context, event domain.Event) error {
				id, err := analysis.Schedule(ctx, domain.AnalysisRequest{Type: domain.AnalysisDensity})
				if err != nil {
					return err
				}
				slog.Info("density refresh scheduled", "event_id", event.ID, "job_id", id)
				return nil
			})
			if err != nil {
				slog.Warn("subscribe to imports failed", "error", err)
			}
		}
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.AnalysisWorkflow)
	w.RegisterActivity(&workflows.AnalysisActivities{Analysis: analysis})

	slog.Info("analyzer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
