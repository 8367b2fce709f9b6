package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/italygeo/explorer/internal/adapters/postgres"
	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/pkg/config"
	"github.com/italygeo/explorer/internal/pkg/logging"
	"github.com/italygeo/explorer/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|seed>")
	}

	cfg, err := config.Load("italygeo-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err = runMigrations(ctx, db.Pool, "up")
	case "down":
		err = runMigrations(ctx, db.Pool, "down")
	case "seed":
		err = seed(ctx, postgres.NewLandmarkRepo(db))
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

// runMigrations executes every embedded NNN_name.<direction>.sql file, in
// name order for "up" and reverse name order for "down".
func runMigrations(ctx context.Context, pool *pgxpool.Pool, direction string) error {
	suffix := "." + direction + ".sql"
	files, err := fs.Glob(migrations.FS, "*"+suffix)
	if err != nil {
		return err
	}
	sort.Strings(files)
	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	for _, f := range files {
		data, err := migrations.FS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
		fmt.Printf("OK  %s\n", strings.TrimSuffix(f, suffix))
	}

	slog.Info("migrations applied", "direction", direction, "files", len(files))
	return nil
}

// seed inserts the sample landmarks when the table is empty.
func seed(ctx context.Context, repo *postgres.LandmarkRepo) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("landmarks already present, skipping seed", "count", n)
		return nil
	}
	ids, err := repo.InsertBatch(ctx, domain.SampleLandmarks())
	if err != nil {
		return err
	}
	slog.Info("seeded sample landmarks", "count", len(ids))
	return nil
}
