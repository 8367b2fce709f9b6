package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/italygeo/explorer/internal/core/usecases"
)

// Pinger is a backend that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Landmarks *usecases.LandmarkService
	Datasets  *usecases.DatasetService
	Analysis  *usecases.AnalysisService

	// NATS feeds the WebSocket relay. Nil disables /ws.
	NATS *nats.Conn
	// DB is nil when landmarks live in memory.
	DB    Pinger
	Cache Pinger

	Service   string
	Version   string
	StartedAt time.Time
}
