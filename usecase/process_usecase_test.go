package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trackpub/domain/model"
	"trackpub/usecase"
)

func pendingTrack() *model.Track {
	return &model.Track{
		ID:             7,
		Title:          "Midnight Drive",
		Genres:         "Synthwave",
		AudioSourceURL: "https://cdn.example.com/a.mp3",
		ImageSourceURL: "https://cdn.example.com/i.png",
		Status:         model.TrackStatusPending,
	}
}

func statusPtr(t *testing.T, want string) interface{} {
	t.Helper()
	return mock.MatchedBy(func(s *string) bool { return s != nil && *s == want })
}

func TestProcessUsecase_Process(t *testing.T) {
	trackRepo := new(MockTrackRepo)
	fetcher := new(MockFetcher)
	renderer := new(MockRenderer)
	emitter := new(MockEmitter)

	track := pendingTrack()
	trackRepo.On("GetByID", mock.Anything, int64(7)).Return(track, nil)

	// 40 lands right after the audio download, 70 right after the image
	// download, so a crash resumes from the exact asset that is missing.
	trackRepo.On("SetProgress", mock.Anything, int64(7), 10, statusPtr(t, model.TrackStatusProcessing), (*string)(nil)).Return(nil).Once()
	audioPath, imagePath := "/data/audio/a.mp3", "/data/image/i.png"
	fetcher.On("Fetch", mock.Anything, "audio", track.AudioSourceURL).Return(audioPath, nil).Once()
	trackRepo.On("SetArtifactPaths", mock.Anything, int64(7), &audioPath, (*string)(nil), (*string)(nil)).Return(nil).Once()
	trackRepo.On("SetProgress", mock.Anything, int64(7), 40, (*string)(nil), (*string)(nil)).Return(nil).Once()
	fetcher.On("Fetch", mock.Anything, "image", track.ImageSourceURL).Return(imagePath, nil).Once()
	trackRepo.On("SetArtifactPaths", mock.Anything, int64(7), (*string)(nil), &imagePath, (*string)(nil)).Return(nil).Once()
	trackRepo.On("SetProgress", mock.Anything, int64(7), 70, (*string)(nil), (*string)(nil)).Return(nil).Once()
	renderer.On("Render", mock.Anything, "/data/audio/a.mp3", "/data/image/i.png", "video/midnight_drive").Return("/data/video/out.mp4", nil).Once()
	videoPath := "/data/video/out.mp4"
	trackRepo.On("SetArtifactPaths", mock.Anything, int64(7), (*string)(nil), (*string)(nil), &videoPath).Return(nil).Once()
	trackRepo.On("SetProgress", mock.Anything, int64(7), 100, statusPtr(t, model.TrackStatusCompleted), (*string)(nil)).Return(nil).Once()
	emitter.On("Emit", mock.Anything, "track.completed", mock.Anything).Once()

	u := usecase.NewProcessUsecase(trackRepo, fetcher, renderer, emitter, nil)
	require.NoError(t, u.Process(context.Background(), 7))

	trackRepo.AssertExpectations(t)
	fetcher.AssertExpectations(t)
	renderer.AssertExpectations(t)
	emitter.AssertExpectations(t)
}

func TestProcessUsecase_Process_FetchFailure(t *testing.T) {
	trackRepo := new(MockTrackRepo)
	fetcher := new(MockFetcher)
	renderer := new(MockRenderer)
	emitter := new(MockEmitter)

	track := pendingTrack()
	trackRepo.On("GetByID", mock.Anything, int64(7)).Return(track, nil)
	trackRepo.On("SetProgress", mock.Anything, int64(7), 10, statusPtr(t, model.TrackStatusProcessing), (*string)(nil)).Return(nil).Once()

	dlErr := &model.DownloadError{URL: track.AudioSourceURL, StatusCode: 404}
	fetcher.On("Fetch", mock.Anything, "audio", track.AudioSourceURL).Return("", dlErr).Once()

	// Failure resets progress to zero and stores the message.
	trackRepo.On("SetProgress", mock.Anything, int64(7), 0, statusPtr(t, model.TrackStatusFailed), mock.MatchedBy(func(s *string) bool { return s != nil && *s != "" })).Return(nil).Once()

	u := usecase.NewProcessUsecase(trackRepo, fetcher, renderer, emitter, nil)
	err := u.Process(context.Background(), 7)

	var dl *model.DownloadError
	require.True(t, errors.As(err, &dl))
	assert.Equal(t, 404, dl.StatusCode)
	renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	emitter.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything)
	trackRepo.AssertExpectations(t)
}

func TestProcessUsecase_Process_StoppedTrackSkips(t *testing.T) {
	trackRepo := new(MockTrackRepo)
	track := pendingTrack()
	track.Status = model.TrackStatusStopped
	trackRepo.On("GetByID", mock.Anything, int64(7)).Return(track, nil).Once()

	u := usecase.NewProcessUsecase(trackRepo, new(MockFetcher), new(MockRenderer), new(MockEmitter), nil)
	err := u.Process(context.Background(), 7)

	var skip *usecase.SkipError
	require.True(t, errors.As(err, &skip))
	trackRepo.AssertNotCalled(t, "SetProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessUsecase_Process_TranscodeFailure(t *testing.T) {
	trackRepo := new(MockTrackRepo)
	fetcher := new(MockFetcher)
	renderer := new(MockRenderer)

	track := pendingTrack()
	trackRepo.On("GetByID", mock.Anything, int64(7)).Return(track, nil)
	trackRepo.On("SetProgress", mock.Anything, int64(7), mock.Anything, mock.Anything, mock.Anything).Return(nil)
	trackRepo.On("SetArtifactPaths", mock.Anything, int64(7), mock.Anything, mock.Anything, mock.Anything).Return(nil)
	fetcher.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return("/data/x", nil)

	tcErr := &model.TranscodeError{Stderr: "invalid frame", Err: errors.New("exit status 1")}
	renderer.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", tcErr).Once()

	u := usecase.NewProcessUsecase(trackRepo, fetcher, renderer, new(MockEmitter), nil)
	err := u.Process(context.Background(), 7)

	var tc *model.TranscodeError
	require.True(t, errors.As(err, &tc))
	assert.Contains(t, tc.Error(), "invalid frame")
}
