package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/paulmach/orb/geojson"

	natsadapter "github.com/italygeo/explorer/internal/adapters/nats"
	"github.com/italygeo/explorer/internal/core/usecases"
	"github.com/italygeo/explorer/internal/pkg/config"
	"github.com/italygeo/explorer/internal/pkg/logging"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

// Manifest lists live GeoJSON feeds to summarise.
type Manifest struct {
	Interval string      `json:"interval"` // Go duration, default 30s
	Feeds    []FeedEntry `json:"feeds"`
}

// FeedEntry names one GeoJSON feed to poll.
type FeedEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("italygeo-realtime")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	if cfg.NATS.URL == "" {
		log.Fatal("realtime poller needs ITALYGEO_NATS_URL")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	// Load manifest
	manifestPath := "feeds.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	manifest, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}

	pollInterval := 30 * time.Second
	if manifest.Interval != "" {
		d, err := time.ParseDuration(manifest.Interval)
		if err != nil || d < time.Second {
			log.Fatalf("invalid interval %q", manifest.Interval)
		}
		pollInterval = d
	}

	// Summaries never touch the landmark store.
	svc := usecases.NewDatasetService(nil, nil, pub)
	client := &http.Client{Timeout: 30 * time.Second}

	slog.Info("realtime poller started", "feeds", len(manifest.Feeds), "interval", pollInterval.String())

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// Signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run once immediately
	pollAll(ctx, svc, client, manifest.Feeds)

	for {
		select {
		case <-ticker.C:
			pollAll(ctx, svc, client, manifest.Feeds)
		case <-ctx.Done():
			return
		case sig := <-quit:
			slog.Info("shutting down realtime poller", "signal", sig.String())
			cancel()
			return
		}
	}
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(m.Feeds) == 0 {
		return nil, fmt.Errorf("%s lists no feeds", path)
	}
	return &m, nil
}

// ---------------------------------------------------------------------------
// Poll all feeds
// ---------------------------------------------------------------------------

func pollAll(ctx context.Context, svc *usecases.DatasetService, client *http.Client, feeds []FeedEntry) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, 8) // max 8 concurrent fetches

	for _, f := range feeds {
		wg.Add(1)
		go func(feed FeedEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := pollFeed(ctx, svc, client, feed); err != nil {
				slog.Warn("feed poll failed", "feed", feed.Name, "error", err)
			}
		}(f)
	}

	wg.Wait()
}

func pollFeed(ctx context.Context, svc *usecases.DatasetService, client *http.Client, feed FeedEntry) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", feed.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, feed.URL)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return fmt.Errorf("parse geojson: %w", err)
	}

	summary, err := svc.ProcessRealtime(ctx, fc)
	if err != nil {
		return err
	}
	slog.Debug("feed summarised", "feed", feed.Name, "features", summary.FeatureCount)
	return nil
}
