package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/sitetree/internal/foundation/errors"
)

// Event type names.
const (
	TypePublishStarted   = "publish.started"
	TypePublishCompleted = "publish.completed"
	TypePublishFailed    = "publish.failed"
)

// PublishStartedData is the payload of a publish.started event.
type PublishStartedData struct {
	ContentRoot string `json:"content_root"`
	Output      string `json:"output"`
	Flat        bool   `json:"flat"`
}

// PublishCompletedData is the payload of a publish.completed event.
type PublishCompletedData struct {
	Pages       int   `json:"pages"`
	Assets      int   `json:"assets"`
	BrokenLinks int   `json:"broken_links"`
	DurationMS  int64 `json:"duration_ms"`
}

// PublishFailedData is the payload of a publish.failed event.
type PublishFailedData struct {
	Stage      string `json:"stage"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
}

// NewPublishStarted creates a publish.started event.
func NewPublishStarted(buildID string, data PublishStartedData) (Event, error) {
	return newEvent(buildID, TypePublishStarted, data)
}

// NewPublishCompleted creates a publish.completed event.
func NewPublishCompleted(buildID string, data PublishCompletedData) (Event, error) {
	return newEvent(buildID, TypePublishCompleted, data)
}

// NewPublishFailed creates a publish.failed event.
func NewPublishFailed(buildID string, data PublishFailedData) (Event, error) {
	return newEvent(buildID, TypePublishFailed, data)
}

func newEvent(buildID, eventType string, data any) (Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, errors.InternalError("failed to marshal " + eventType + " payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}
	return &BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}, nil
}
