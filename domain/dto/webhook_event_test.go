package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trackpub/domain/dto"
)

func TestDecodeWebhookEvent(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		payload  string
		want     string
	}{
		{"analytics update", dto.ProviderVideoPlatform, `{"event":"analytics_update","video_id":"vid-1","view_count":10}`, dto.EventAnalyticsUpdate},
		{"video published", dto.ProviderVideoPlatform, `{"event":"video_published","video_id":"vid-1"}`, dto.EventVideoPublished},
		{"event_type alias", dto.ProviderVideoPlatform, `{"event_type":"video_updated","video_id":"vid-1"}`, dto.EventVideoUpdated},
		{"track generated", dto.ProviderGenerationService, `{"event":"track_generated","track_id":42}`, dto.EventTrackGenerated},
		{"generation failed", dto.ProviderGenerationService, `{"event":"generation_failed","track_id":42,"message":"boom"}`, dto.EventGenerationFailed},
		{"cross-provider name not trusted", dto.ProviderGenerationService, `{"event":"analytics_update","video_id":"vid-1"}`, dto.EventUnknown},
		{"unknown event name", dto.ProviderVideoPlatform, `{"event":"solar_flare"}`, dto.EventUnknown},
		{"unknown provider", "mystery-service", `{"event":"analytics_update"}`, dto.EventUnknown},
		{"garbage payload", dto.ProviderVideoPlatform, `not json at all`, dto.EventUnknown},
		{"case and whitespace normalized", dto.ProviderVideoPlatform, `{"event":" Analytics_Update "}`, dto.EventAnalyticsUpdate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := dto.DecodeWebhookEvent(tt.provider, []byte(tt.payload))
			assert.Equal(t, tt.want, evt.Type)
		})
	}
}

func TestDecodeWebhookEvent_CarriesFields(t *testing.T) {
	evt := dto.DecodeWebhookEvent(dto.ProviderVideoPlatform, []byte(`{"event":"analytics_update","video_id":"vid-9","view_count":1500,"like_count":90}`))
	assert.Equal(t, "vid-9", evt.VideoID)
	if assert.NotNil(t, evt.Stats.ViewCount) {
		assert.Equal(t, int64(1500), *evt.Stats.ViewCount)
	}
	if assert.NotNil(t, evt.Stats.LikeCount) {
		assert.Equal(t, int64(90), *evt.Stats.LikeCount)
	}
	assert.Nil(t, evt.Stats.CommentCount)

	evt = dto.DecodeWebhookEvent(dto.ProviderGenerationService, []byte(`{"event":"track_updated","track_id":7,"changes":{"title":"New Title"}}`))
	assert.Equal(t, int64(7), evt.TrackID)
	assert.Equal(t, "New Title", evt.Changes["title"])
}
