package dto

import (
	"encoding/json"
	"strings"
)

// Webhook providers the reconciler knows about.
const (
	ProviderVideoPlatform     = "video-platform"
	ProviderGenerationService = "generation-service"
)

// Event types, a closed set. Anything else decodes to EventUnknown so the
// dispatcher handles unrecognized combinations uniformly instead of matching
// on raw strings deep in the pipeline.
const (
	EventAnalyticsUpdate  = "analytics_update"
	EventVideoPublished   = "video_published"
	EventVideoUpdated     = "video_updated"
	EventTrackGenerated   = "track_generated"
	EventTrackUpdated     = "track_updated"
	EventGenerationFailed = "generation_failed"
	EventUnknown          = "unknown"
)

// VideoStats carries the analytics counters of an analytics_update event.
type VideoStats struct {
	ViewCount    *int64 `json:"view_count,omitempty"`
	LikeCount    *int64 `json:"like_count,omitempty"`
	CommentCount *int64 `json:"comment_count,omitempty"`
}

// WebhookEvent is the tagged union every inbound payload is decoded into
// once, at the HTTP boundary. Fields irrelevant for a given event type stay
// zero.
type WebhookEvent struct {
	Provider string     `json:"provider"`
	Type     string     `json:"event"`
	VideoID  string     `json:"video_id,omitempty"`
	TrackID  int64      `json:"track_id,omitempty"`
	Stats    VideoStats `json:"stats,omitempty"`
	Changes  map[string]interface{} `json:"changes,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// rawWebhookPayload mirrors the loose wire shape providers actually send.
type rawWebhookPayload struct {
	Event        string                 `json:"event"`
	EventType    string                 `json:"event_type"`
	VideoID      string                 `json:"video_id"`
	TrackID      int64                  `json:"track_id"`
	ViewCount    *int64                 `json:"view_count"`
	LikeCount    *int64                 `json:"like_count"`
	CommentCount *int64                 `json:"comment_count"`
	Changes      map[string]interface{} `json:"changes"`
	Message      string                 `json:"message"`
}

// DecodeWebhookEvent parses a raw payload from the named provider into the
// closed event union. Decoding never fails into an error for unknown shapes:
// a payload that cannot be understood becomes an EventUnknown, which the
// dispatcher logs and acknowledges.
func DecodeWebhookEvent(provider string, payload []byte) WebhookEvent {
	evt := WebhookEvent{Provider: strings.ToLower(strings.TrimSpace(provider)), Type: EventUnknown}

	var raw rawWebhookPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return evt
	}
	name := raw.Event
	if name == "" {
		name = raw.EventType
	}
	name = strings.ToLower(strings.TrimSpace(name))

	switch evt.Provider {
	case ProviderVideoPlatform:
		switch name {
		case EventAnalyticsUpdate, EventVideoPublished, EventVideoUpdated:
			evt.Type = name
		}
	case ProviderGenerationService:
		switch name {
		case EventTrackGenerated, EventTrackUpdated, EventGenerationFailed:
			evt.Type = name
		}
	}

	evt.VideoID = raw.VideoID
	evt.TrackID = raw.TrackID
	evt.Stats = VideoStats{ViewCount: raw.ViewCount, LikeCount: raw.LikeCount, CommentCount: raw.CommentCount}
	evt.Changes = raw.Changes
	evt.Message = raw.Message
	return evt
}
