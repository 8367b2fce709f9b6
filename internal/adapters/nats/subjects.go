package natsadapter

import (
	"fmt"

	"github.com/italygeo/explorer/internal/core/domain"
)

// SubjectPrefix roots every subject the explorer publishes.
const SubjectPrefix = "italygeo"

// StreamName is the JetStream stream retaining explorer events.
const StreamName = "ITALYGEO_EVENTS"

// Realtime channels a WebSocket client can subscribe to.
const (
	ChannelAll       = "all"
	ChannelLandmarks = "landmarks"
	ChannelAnalysis  = "analysis"
	ChannelRealtime  = "realtime"
	ChannelData      = "data"
)

var eventSubjects = map[string]string{
	domain.EventLandmarkCreated:   SubjectPrefix + ".landmarks.created",
	domain.EventLandmarkUpdated:   SubjectPrefix + ".landmarks.updated",
	domain.EventLandmarkDeleted:   SubjectPrefix + ".landmarks.deleted",
	domain.EventAnalysisCompleted: SubjectPrefix + ".analysis.completed",
	domain.EventRealtimeAnalysis:  SubjectPrefix + ".realtime.analysis",
	domain.EventDataImported:      SubjectPrefix + ".data.imported",
}

// Subject returns the subject an event type is published on.
func Subject(eventType string) (string, error) {
	s, ok := eventSubjects[eventType]
	if !ok {
		return "", fmt.Errorf("no subject for event type %q", eventType)
	}
	return s, nil
}

// ChannelSubject returns the wildcard subject covering a realtime channel.
func ChannelSubject(channel string) (string, error) {
	switch channel {
	case ChannelAll:
		return SubjectPrefix + ".>", nil
	case ChannelLandmarks, ChannelAnalysis, ChannelRealtime, ChannelData:
		return SubjectPrefix + "." + channel + ".>", nil
	default:
		return "", fmt.Errorf("unknown channel %q", channel)
	}
}
