package natsadapter

import (
	"context"
	"testing"

	"github.com/italygeo/explorer/internal/core/domain"
)

func TestSubject(t *testing.T) {
	cases := map[string]string{
		domain.EventLandmarkCreated:   "italygeo.landmarks.created",
		domain.EventLandmarkDeleted:   "italygeo.landmarks.deleted",
		domain.EventAnalysisCompleted: "italygeo.analysis.completed",
		domain.EventRealtimeAnalysis:  "italygeo.realtime.analysis",
		domain.EventDataImported:      "italygeo.data.imported",
	}
	for typ, want := range cases {
		got, err := Subject(typ)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if got != want {
			t.Errorf("%s: expected %s, got %s", typ, want, got)
		}
	}
	if _, err := Subject("vehicle_moved"); err == nil {
		t.Error("expected error for unknown event type")
	}
}

func TestChannelSubject(t *testing.T) {
	if got, _ := ChannelSubject(ChannelAll); got != "italygeo.>" {
		t.Errorf("unexpected all subject %s", got)
	}
	if got, _ := ChannelSubject(ChannelLandmarks); got != "italygeo.landmarks.>" {
		t.Errorf("unexpected landmarks subject %s", got)
	}
	if _, err := ChannelSubject("vehicles"); err == nil {
		t.Error("expected error for unknown channel")
	}
}

func TestNoopPublisher(t *testing.T) {
	if err := (NoopPublisher{}).Publish(context.Background(), domain.Event{Type: domain.EventLandmarkCreated}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
