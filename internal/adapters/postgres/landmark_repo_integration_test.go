//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/italygeo/explorer/internal/adapters/postgres"
	"github.com/italygeo/explorer/internal/core/domain"
	"github.com/italygeo/explorer/internal/pkg/config"
	"github.com/italygeo/explorer/migrations"
)

// setupTestDB connects to the database named by ITALYGEO_DATABASE_* and
// recreates the schema.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	t.Setenv("ITALYGEO_STORAGE_DRIVER", config.StoragePostgres)
	cfg, err := config.Load("italygeo-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 5)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	apply := func(suffix string, reverse bool) {
		names, err := fs.Glob(migrations.FS, "*"+suffix)
		if err != nil {
			t.Fatal(err)
		}
		sort.Strings(names)
		if reverse {
			sort.Sort(sort.Reverse(sort.StringSlice(names)))
		}
		for _, name := range names {
			sql, err := fs.ReadFile(migrations.FS, name)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := db.Pool.Exec(ctx, string(sql)); err != nil {
				t.Fatalf("%s: %v", name, err)
			}
		}
	}
	apply(".down.sql", true)
	apply(".up.sql", false)
	return db
}

func TestLandmarkRepo_Integration(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewLandmarkRepo(db)
	ctx := context.Background()

	ids, err := repo.InsertBatch(ctx, domain.SampleLandmarks())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(ids) != 8 {
		t.Fatalf("expected 8 ids, got %d", len(ids))
	}

	vatican, err := repo.GetByID(ctx, ids[3])
	if err != nil {
		t.Fatal(err)
	}
	poly, ok := vatican.Geometry.(orb.Polygon)
	if !ok || len(poly[0]) != 5 {
		t.Fatalf("polygon did not round-trip: %#v", vatican.Geometry)
	}
	if vatican.Properties["population"] != "825" {
		t.Errorf("properties did not round-trip: %v", vatican.Properties)
	}

	rome := &domain.Bounds{MinLat: 41.8, MinLon: 12.4, MaxLat: 42.0, MaxLon: 12.6}
	_, total, err := repo.List(ctx, domain.LandmarkFilter{Bounds: rome, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("expected 2 landmarks in Rome, got %d", total)
	}

	near, err := repo.Within(ctx, 41.8902, 12.4922, 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(near) != 2 || near[0].Name != "Colosseum" {
		t.Errorf("unexpected nearby result %d", len(near))
	}

	updated, err := repo.Update(ctx, ids[0], domain.LandmarkInput{
		Name: "Colosseo", Type: "monument", Geometry: orb.Point{12.4922, 41.8902},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Colosseo" || updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Errorf("unexpected update result %+v", updated)
	}

	if err := repo.Delete(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(ctx, ids[0]); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if n, _ := repo.Count(ctx); n != 7 {
		t.Errorf("expected 7 remaining, got %d", n)
	}
}

func TestAnalysisRepo_Integration(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewAnalysisRepo(db)
	ctx := context.Background()

	res := &domain.AnalysisResult{
		Type:       domain.AnalysisClustering,
		Parameters: map[string]any{"precision": 3},
		Results:    map[string]any{"n_clusters": 5},
	}
	if err := repo.Save(ctx, res); err != nil {
		t.Fatal(err)
	}
	if res.ID == 0 || res.CreatedAt.IsZero() {
		t.Fatalf("save did not populate id and created_at: %+v", res)
	}

	history, err := repo.History(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || !strings.EqualFold(history[0].Type, "clustering") {
		t.Errorf("unexpected history %+v", history)
	}
}
