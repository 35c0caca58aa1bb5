package usecase_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trackpub/domain/dto"
	"trackpub/domain/model"
	"trackpub/usecase"
)

func TestWebhookUsecase_Ingest_StoresBeforeReturning(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	receiptRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *model.WebhookReceipt) bool {
		return r.Provider == dto.ProviderVideoPlatform && r.Status == model.ReceiptStatusPending && r.Payload == `{"event":"analytics_update"}`
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.WebhookReceipt).ID = 11
	}).Return(nil).Once()

	u := usecase.NewWebhookUsecase(receiptRepo, new(MockTrackRepo), new(MockJobUsecase), nil)
	receipt, err := u.Ingest(context.Background(), dto.ProviderVideoPlatform, []byte(`{"event":"analytics_update"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(11), receipt.ID)
	receiptRepo.AssertExpectations(t)
}

func TestWebhookUsecase_Dispatch_AnalyticsUpdate(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	trackRepo := new(MockTrackRepo)

	track := &model.Track{ID: 7}
	trackRepo.On("GetByExternalVideoID", mock.Anything, "vid-123").Return(track, nil).Once()
	views := int64(1500)
	likes := int64(90)
	trackRepo.On("UpdateAnalytics", mock.Anything, int64(7), &views, &likes, (*int64)(nil)).Return(nil).Once()
	receiptRepo.On("MarkProcessed", mock.Anything, int64(11), model.ReceiptStatusProcessed, (*string)(nil)).Return(nil).Once()

	u := usecase.NewWebhookUsecase(receiptRepo, trackRepo, new(MockJobUsecase), nil)
	u.Dispatch(context.Background(), &model.WebhookReceipt{
		ID:       11,
		Provider: dto.ProviderVideoPlatform,
		Payload:  `{"event":"analytics_update","video_id":"vid-123","view_count":1500,"like_count":90}`,
	})

	receiptRepo.AssertExpectations(t)
	trackRepo.AssertExpectations(t)
}

func TestWebhookUsecase_Dispatch_UnknownVideoAcknowledged(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	trackRepo := new(MockTrackRepo)

	trackRepo.On("GetByExternalVideoID", mock.Anything, "ghost").Return(nil, sql.ErrNoRows).Once()
	receiptRepo.On("MarkProcessed", mock.Anything, int64(12), model.ReceiptStatusProcessed, (*string)(nil)).Return(nil).Once()

	u := usecase.NewWebhookUsecase(receiptRepo, trackRepo, new(MockJobUsecase), nil)
	u.Dispatch(context.Background(), &model.WebhookReceipt{
		ID:       12,
		Provider: dto.ProviderVideoPlatform,
		Payload:  `{"event":"analytics_update","video_id":"ghost","view_count":1}`,
	})

	trackRepo.AssertNotCalled(t, "UpdateAnalytics", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	receiptRepo.AssertExpectations(t)
}

// TestWebhookUsecase_Dispatch_HandlerErrorAcknowledged: a failing handler is
// logged but the receipt is still marked processed. The failed status is for
// the dispatch mechanism, not for individual handler errors.
func TestWebhookUsecase_Dispatch_HandlerErrorAcknowledged(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	trackRepo := new(MockTrackRepo)

	track := &model.Track{ID: 7}
	trackRepo.On("GetByExternalVideoID", mock.Anything, "vid-123").Return(track, nil).Once()
	trackRepo.On("UpdateAnalytics", mock.Anything, int64(7), mock.Anything, mock.Anything, mock.Anything).Return(sql.ErrConnDone).Once()
	receiptRepo.On("MarkProcessed", mock.Anything, int64(13), model.ReceiptStatusProcessed, (*string)(nil)).Return(nil).Once()

	u := usecase.NewWebhookUsecase(receiptRepo, trackRepo, new(MockJobUsecase), nil)
	u.Dispatch(context.Background(), &model.WebhookReceipt{
		ID:       13,
		Provider: dto.ProviderVideoPlatform,
		Payload:  `{"event":"analytics_update","video_id":"vid-123","view_count":1}`,
	})
	receiptRepo.AssertExpectations(t)
}

// TestWebhookUsecase_Dispatch_AbortedRunMarksFailed: when the dispatch
// context dies mid-run the handlers never finished, so the receipt is
// stamped failed for a later retry sweep.
func TestWebhookUsecase_Dispatch_AbortedRunMarksFailed(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	trackRepo := new(MockTrackRepo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trackRepo.On("GetByExternalVideoID", mock.Anything, "vid-123").Return(nil, context.Canceled).Once()
	receiptRepo.On("MarkProcessed", mock.Anything, int64(17), model.ReceiptStatusFailed, mock.MatchedBy(func(s *string) bool {
		return s != nil && *s != ""
	})).Return(nil).Once()

	u := usecase.NewWebhookUsecase(receiptRepo, trackRepo, new(MockJobUsecase), nil)
	u.Dispatch(ctx, &model.WebhookReceipt{
		ID:       17,
		Provider: dto.ProviderVideoPlatform,
		Payload:  `{"event":"analytics_update","video_id":"vid-123","view_count":1}`,
	})
	receiptRepo.AssertExpectations(t)
}

// TestWebhookUsecase_Dispatch_VideoPublishedReconciles: the platform
// confirming a publish stamps the missing timestamp on a track that carries
// a video id but no publish record.
func TestWebhookUsecase_Dispatch_VideoPublishedReconciles(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	trackRepo := new(MockTrackRepo)

	videoID := "vid-123"
	track := &model.Track{ID: 7, ExternalVideoID: &videoID}
	trackRepo.On("GetByExternalVideoID", mock.Anything, "vid-123").Return(track, nil).Once()
	trackRepo.On("SetPublished", mock.Anything, int64(7), (*string)(nil)).Return(nil).Once()
	receiptRepo.On("MarkProcessed", mock.Anything, int64(18), model.ReceiptStatusProcessed, (*string)(nil)).Return(nil).Once()

	var streamed *model.Track
	u := usecase.NewWebhookUsecase(receiptRepo, trackRepo, new(MockJobUsecase), func(tr *model.Track) { streamed = tr })
	u.Dispatch(context.Background(), &model.WebhookReceipt{
		ID:       18,
		Provider: dto.ProviderVideoPlatform,
		Payload:  `{"event":"video_published","video_id":"vid-123"}`,
	})

	trackRepo.AssertExpectations(t)
	receiptRepo.AssertExpectations(t)
	require.NotNil(t, streamed)
	assert.NotNil(t, streamed.PublishedAt)
}

// TestWebhookUsecase_Dispatch_VideoPublishedAlreadyStamped: a second
// confirmation for an already-recorded publish changes nothing.
func TestWebhookUsecase_Dispatch_VideoPublishedAlreadyStamped(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	trackRepo := new(MockTrackRepo)

	videoID := "vid-123"
	publishedAt := time.Now().UTC().Add(-time.Hour)
	track := &model.Track{ID: 7, ExternalVideoID: &videoID, PublishedAt: &publishedAt}
	trackRepo.On("GetByExternalVideoID", mock.Anything, "vid-123").Return(track, nil).Once()
	receiptRepo.On("MarkProcessed", mock.Anything, int64(19), model.ReceiptStatusProcessed, (*string)(nil)).Return(nil).Once()

	u := usecase.NewWebhookUsecase(receiptRepo, trackRepo, new(MockJobUsecase), nil)
	u.Dispatch(context.Background(), &model.WebhookReceipt{
		ID:       19,
		Provider: dto.ProviderVideoPlatform,
		Payload:  `{"event":"video_published","video_id":"vid-123"}`,
	})

	trackRepo.AssertNotCalled(t, "SetPublished", mock.Anything, mock.Anything, mock.Anything)
	receiptRepo.AssertExpectations(t)
}

func TestWebhookUsecase_Dispatch_TrackGeneratedEnqueuesProcessing(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	jobs := new(MockJobUsecase)

	jobs.On("Enqueue", mock.Anything, int64(42), model.JobKindProcess).Return(&model.TrackJob{ID: 1}, nil).Once()
	receiptRepo.On("MarkProcessed", mock.Anything, int64(14), model.ReceiptStatusProcessed, (*string)(nil)).Return(nil).Once()

	u := usecase.NewWebhookUsecase(receiptRepo, new(MockTrackRepo), jobs, nil)
	u.Dispatch(context.Background(), &model.WebhookReceipt{
		ID:       14,
		Provider: dto.ProviderGenerationService,
		Payload:  `{"event":"track_generated","track_id":42}`,
	})
	jobs.AssertExpectations(t)
	receiptRepo.AssertExpectations(t)
}

func TestWebhookUsecase_Dispatch_GenerationFailedMarksTrack(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	trackRepo := new(MockTrackRepo)

	trackRepo.On("SetProgress", mock.Anything, int64(42), 0, mock.MatchedBy(func(s *string) bool {
		return s != nil && *s == model.TrackStatusFailed
	}), mock.MatchedBy(func(s *string) bool {
		return s != nil && *s == "render farm out of capacity"
	})).Return(nil).Once()
	receiptRepo.On("MarkProcessed", mock.Anything, int64(15), model.ReceiptStatusProcessed, (*string)(nil)).Return(nil).Once()

	u := usecase.NewWebhookUsecase(receiptRepo, trackRepo, new(MockJobUsecase), nil)
	u.Dispatch(context.Background(), &model.WebhookReceipt{
		ID:       15,
		Provider: dto.ProviderGenerationService,
		Payload:  `{"event":"generation_failed","track_id":42,"message":"render farm out of capacity"}`,
	})
	trackRepo.AssertExpectations(t)
	receiptRepo.AssertExpectations(t)
}

func TestWebhookUsecase_Dispatch_UnknownEventAcknowledged(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	receiptRepo.On("MarkProcessed", mock.Anything, int64(16), model.ReceiptStatusProcessed, (*string)(nil)).Return(nil).Once()

	u := usecase.NewWebhookUsecase(receiptRepo, new(MockTrackRepo), new(MockJobUsecase), nil)
	u.Dispatch(context.Background(), &model.WebhookReceipt{
		ID:       16,
		Provider: dto.ProviderVideoPlatform,
		Payload:  `{"event":"solar_flare"}`,
	})
	receiptRepo.AssertExpectations(t)
}

func TestWebhookUsecase_CleanupReceipts(t *testing.T) {
	receiptRepo := new(MockReceiptRepo)
	receiptRepo.On("DeleteOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		// 30 day retention, give or take test runtime
		want := time.Now().UTC().AddDate(0, 0, -30)
		return cutoff.Sub(want) < time.Minute && want.Sub(cutoff) < time.Minute
	})).Return(int64(3), nil).Once()

	u := usecase.NewWebhookUsecase(receiptRepo, new(MockTrackRepo), new(MockJobUsecase), nil)
	removed, err := u.CleanupReceipts(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}
