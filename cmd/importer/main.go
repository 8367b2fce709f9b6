package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"

	natsadapter "github.com/italygeo/explorer/internal/adapters/nats"
	"github.com/italygeo/explorer/internal/adapters/postgres"
	"github.com/italygeo/explorer/internal/core/ports"
	"github.com/italygeo/explorer/internal/core/usecases"
	"github.com/italygeo/explorer/internal/pkg/config"
	"github.com/italygeo/explorer/internal/pkg/logging"
)

// maxSourceSize caps a single downloaded or read GeoJSON document.
const maxSourceSize = 64 << 20

// importer loads GeoJSON FeatureCollections from files or URLs into the
// landmark store:
//
//	importer landmarks.geojson https://example.org/parks.geojson
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <file|url>...")
	}

	cfg, err := config.Load("italygeo-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	if cfg.Storage.Driver != config.StoragePostgres {
		log.Fatalf("importer needs a shared store, set ITALYGEO_STORAGE_DRIVER=postgres (got %q)", cfg.Storage.Driver)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var events ports.EventPublisher = natsadapter.NoopPublisher{}
	if cfg.NATS.URL != "" {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, import events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	svc := usecases.NewDatasetService(postgres.NewLandmarkRepo(db), nil, events)
	client := &http.Client{Timeout: 120 * time.Second}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		imported int
		failed   int
	)
	sem := make(chan struct{}, 4) // max 4 concurrent sources

	for _, src := range os.Args[1:] {
		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			n, err := importSource(ctx, svc, client, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("import failed", "source", src, "error", err)
				failed++
				return
			}
			imported += n
		}(src)
	}

	wg.Wait()
	slog.Info("import complete", "sources", len(os.Args)-1, "failed", failed, "imported_features", imported)
	if failed > 0 {
		os.Exit(1)
	}
}

// importSource reads one FeatureCollection and stores its features.
func importSource(ctx context.Context, svc *usecases.DatasetService, client *http.Client, src string) (int, error) {
	data, err := readSource(ctx, client, src)
	if err != nil {
		return 0, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return 0, fmt.Errorf("parse geojson: %w", err)
	}

	report, err := svc.Import(ctx, fc)
	if err != nil {
		return 0, err
	}
	for _, msg := range report.Errors {
		slog.Warn("feature skipped", "source", src, "reason", msg)
	}
	slog.Info("source imported", "source", src, "imported", report.Imported, "skipped", report.Skipped)
	return report.Imported, nil
}

func readSource(ctx context.Context, client *http.Client, src string) ([]byte, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxSourceSize))
	}

	slog.Info("downloading", "url", src)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, src)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSourceSize))
}
