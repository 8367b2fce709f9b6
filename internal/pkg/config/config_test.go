package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("italygeo-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != StorageMemory {
		t.Errorf("expected memory storage, got %s", cfg.Storage.Driver)
	}
	if cfg.Temporal.TaskQueue != "analysis-queue" {
		t.Errorf("unexpected task queue %s", cfg.Temporal.TaskQueue)
	}
	if cfg.Telemetry.ServiceName != "italygeo-test" {
		t.Errorf("expected service name default, got %s", cfg.Telemetry.ServiceName)
	}
	if !strings.Contains(cfg.CORS.AllowOrigins, "localhost:5001") {
		t.Errorf("unexpected CORS origins %q", cfg.CORS.AllowOrigins)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ITALYGEO_SERVER_PORT", "9090")
	t.Setenv("ITALYGEO_STORAGE_DRIVER", "postgres")
	t.Setenv("ITALYGEO_DATABASE_HOST", "db")

	cfg, err := Load("italygeo-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != StoragePostgres || cfg.Database.Host != "db" {
		t.Errorf("env override not applied: %+v", cfg.Storage)
	}
	if got := cfg.Database.DSN(); got != "postgres://italygeo:@db:5432/italy_geo?sslmode=disable" {
		t.Errorf("unexpected DSN %s", got)
	}
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8000, ReadTimeout: 10, WriteTimeout: 10, RateLimit: 120},
		Log:      LogConfig{Level: "info", Format: "json"},
		Storage:  StorageConfig{Driver: StorageMemory},
		Cache:    CacheConfig{Driver: CacheNone},
		Temporal: TemporalConfig{TaskQueue: "analysis-queue"},
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.Server.Port = 0
	cfg.Storage.Driver = StoragePostgres
	cfg.Cache.Driver = "memcached"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "database.host", "database.user", "cache.driver"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestValidate_MemoryIgnoresDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{}
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory storage should not need database settings: %v", err)
	}
}
