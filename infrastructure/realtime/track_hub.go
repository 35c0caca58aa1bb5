package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gin-gonic/gin"
	"trackpub/domain/model"
)

// TrackStatusEvent represents an SSE payload for track pipeline updates.
type TrackStatusEvent struct {
	Type            string  `json:"type"`
	TrackID         int64   `json:"track_id"`
	Status          string  `json:"status"`
	Progress        int     `json:"progress"`
	ExternalVideoID *string `json:"external_video_id,omitempty"`
	Error           *string `json:"error,omitempty"`
}

// Hub maintains subscribers listening for track status events. Pipeline
// progress is not per-user, so every subscriber sees every track.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan TrackStatusEvent]struct{}
}

func NewTrackHub() *Hub {
	return &Hub{subs: make(map[chan TrackStatusEvent]struct{})}
}

// Serve registers an SSE stream on the gin context.
func (h *Hub) Serve(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering

	ch := make(chan TrackStatusEvent, 8)
	h.addSubscriber(ch)
	defer h.removeSubscriber(ch)

	// Initial comment to keep connection open
	c.Writer.Write([]byte(":ok\n\n"))
	c.Writer.Flush()

	for {
		select {
		case evt := <-ch:
			data, _ := json.Marshal(evt)
			_, _ = c.Writer.Write([]byte("event: track_status\n"))
			_, _ = c.Writer.Write([]byte("data: "))
			_, _ = c.Writer.Write(data)
			_, _ = c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Hub) addSubscriber(ch chan TrackStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[ch] = struct{}{}
}

func (h *Hub) removeSubscriber(ch chan TrackStatusEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// BroadcastTrackStatus fans a track's current state out to all subscribers.
// Slow subscribers drop events instead of blocking the pipeline.
func (h *Hub) BroadcastTrackStatus(track *model.Track) {
	if track == nil {
		return
	}
	evt := TrackStatusEvent{
		Type:            "track_status",
		TrackID:         track.ID,
		Status:          track.Status,
		Progress:        track.Progress,
		ExternalVideoID: track.ExternalVideoID,
		Error:           track.ErrorMessage,
	}
	h.mu.RLock()
	for ch := range h.subs {
		select { // non-blocking
		case ch <- evt:
		default:
		}
	}
	h.mu.RUnlock()
}
