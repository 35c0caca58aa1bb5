package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/usecase"
)

func TestAnalyticsUsecase_Refresh(t *testing.T) {
	trackRepo := new(MockTrackRepo)
	publisher := new(MockPlaylistPublisher)

	videoID := "vid-123"
	track := &model.Track{ID: 7, ExternalVideoID: &videoID}
	trackRepo.On("ListPublished", mock.Anything, 100).Return([]*model.Track{track}, nil).Once()
	publisher.On("GetVideoStats", mock.Anything, "vid-123").Return(int64(1500), int64(90), int64(12), nil).Once()
	views, likes, comments := int64(1500), int64(90), int64(12)
	trackRepo.On("UpdateAnalytics", mock.Anything, int64(7), &views, &likes, &comments).Return(nil).Once()

	factory := func(ctx context.Context) (repository.IPublisher, *model.Account, error) {
		return publisher, nil, nil
	}
	u := usecase.NewAnalyticsUsecase(trackRepo, factory)
	require.NoError(t, u.Refresh(context.Background(), 100))
	trackRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestAnalyticsUsecase_Refresh_SessionStrategyNoop(t *testing.T) {
	trackRepo := new(MockTrackRepo)
	publisher := new(MockPublisher)

	videoID := "vid-123"
	trackRepo.On("ListPublished", mock.Anything, 100).Return([]*model.Track{{ID: 7, ExternalVideoID: &videoID}}, nil).Once()

	factory := func(ctx context.Context) (repository.IPublisher, *model.Account, error) {
		return publisher, nil, nil
	}
	u := usecase.NewAnalyticsUsecase(trackRepo, factory)
	require.NoError(t, u.Refresh(context.Background(), 100))
	trackRepo.AssertNotCalled(t, "UpdateAnalytics", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
