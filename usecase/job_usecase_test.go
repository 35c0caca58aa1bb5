package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trackpub/domain/model"
	"trackpub/usecase"
)

func fastPolicies(maxAttempts int) map[string]model.JobPolicy {
	policy := model.JobPolicy{MaxAttempts: maxAttempts, Backoff: time.Millisecond, AttemptTimeout: time.Second}
	return map[string]model.JobPolicy{
		model.JobKindProcess: policy,
		model.JobKindPublish: policy,
	}
}

func TestJobUsecase_RunPending_Success(t *testing.T) {
	jobRepo := new(MockJobRepo)
	trackRepo := new(MockTrackRepo)
	process := new(MockProcessUsecase)
	publish := new(MockPublishUsecase)

	job := &model.TrackJob{ID: 1, TrackID: 7, Kind: model.JobKindProcess, Status: model.JobStatusPending}
	jobRepo.On("FetchPending", mock.Anything, 10).Return([]*model.TrackJob{job}, nil).Once()
	jobRepo.On("Claim", mock.Anything, int64(1)).Return(true, nil).Once()
	process.On("Process", mock.Anything, int64(7)).Return(nil).Once()
	jobRepo.On("MarkResult", mock.Anything, int64(1), model.JobStatusSuccess, (*string)(nil)).Return(nil).Once()

	u := usecase.NewJobUsecase(jobRepo, trackRepo, process, publish, fastPolicies(3))
	require.NoError(t, u.RunPending(context.Background(), 10))
	jobRepo.AssertExpectations(t)
	process.AssertExpectations(t)
}

func TestJobUsecase_RunPending_ClaimLost(t *testing.T) {
	jobRepo := new(MockJobRepo)
	process := new(MockProcessUsecase)

	job := &model.TrackJob{ID: 1, TrackID: 7, Kind: model.JobKindProcess}
	jobRepo.On("FetchPending", mock.Anything, 10).Return([]*model.TrackJob{job}, nil).Once()
	jobRepo.On("Claim", mock.Anything, int64(1)).Return(false, nil).Once()

	u := usecase.NewJobUsecase(jobRepo, new(MockTrackRepo), process, new(MockPublishUsecase), fastPolicies(3))
	require.NoError(t, u.RunPending(context.Background(), 10))
	process.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
}

func TestJobUsecase_RunPending_SkipIsTerminal(t *testing.T) {
	jobRepo := new(MockJobRepo)
	publish := new(MockPublishUsecase)

	job := &model.TrackJob{ID: 2, TrackID: 7, Kind: model.JobKindPublish}
	jobRepo.On("FetchPending", mock.Anything, 10).Return([]*model.TrackJob{job}, nil).Once()
	jobRepo.On("Claim", mock.Anything, int64(2)).Return(true, nil).Once()
	publish.On("Publish", mock.Anything, int64(7)).Return(&usecase.SkipError{Reason: "already published"}).Once()
	reason := "already published"
	jobRepo.On("MarkResult", mock.Anything, int64(2), model.JobStatusSkipped, &reason).Return(nil).Once()

	u := usecase.NewJobUsecase(jobRepo, new(MockTrackRepo), new(MockProcessUsecase), publish, fastPolicies(3))
	require.NoError(t, u.RunPending(context.Background(), 10))

	// A skip never consumes a retry.
	jobRepo.AssertNotCalled(t, "Requeue", mock.Anything, mock.Anything, mock.Anything)
	jobRepo.AssertExpectations(t)
}

func TestJobUsecase_RunPending_RetriesThenFailsPermanently(t *testing.T) {
	jobRepo := new(MockJobRepo)
	trackRepo := new(MockTrackRepo)
	publish := new(MockPublishUsecase)

	job := &model.TrackJob{ID: 3, TrackID: 7, Kind: model.JobKindPublish, Attempts: 0}
	jobRepo.On("FetchPending", mock.Anything, 10).Return([]*model.TrackJob{job}, nil).Once()
	jobRepo.On("Claim", mock.Anything, int64(3)).Return(true, nil).Times(2)
	publish.On("Publish", mock.Anything, int64(7)).Return(errors.New("upload via oauth failed: 503")).Times(2)
	jobRepo.On("Requeue", mock.Anything, int64(3), mock.Anything).Return(nil).Once()
	jobRepo.On("MarkResult", mock.Anything, int64(3), model.JobStatusFailed, mock.Anything).Return(nil).Once()

	// The exhausted error surfaces on the track row.
	track := publishableTrack()
	trackRepo.On("GetByID", mock.Anything, int64(7)).Return(track, nil).Once()
	trackRepo.On("SetProgress", mock.Anything, int64(7), track.Progress, (*string)(nil), mock.Anything).Return(nil).Once()

	u := usecase.NewJobUsecase(jobRepo, trackRepo, new(MockProcessUsecase), publish, fastPolicies(2))
	require.NoError(t, u.RunPending(context.Background(), 10))

	jobRepo.AssertExpectations(t)
	publish.AssertExpectations(t)
	trackRepo.AssertExpectations(t)
}

func TestJobUsecase_Enqueue_UnknownKind(t *testing.T) {
	u := usecase.NewJobUsecase(new(MockJobRepo), new(MockTrackRepo), new(MockProcessUsecase), new(MockPublishUsecase), nil)
	_, err := u.Enqueue(context.Background(), 7, "vacuum")
	require.Error(t, err)
}
