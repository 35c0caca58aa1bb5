package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"trackpub/domain/dto"
	"trackpub/domain/model"
)

// Mock implementations

type MockTrackRepo struct {
	mock.Mock
}

func (m *MockTrackRepo) Create(ctx context.Context, track *model.Track) error {
	args := m.Called(ctx, track)
	return args.Error(0)
}

func (m *MockTrackRepo) GetByID(ctx context.Context, id int64) (*model.Track, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Track), args.Error(1)
}

func (m *MockTrackRepo) GetByExternalVideoID(ctx context.Context, videoID string) (*model.Track, error) {
	args := m.Called(ctx, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Track), args.Error(1)
}

func (m *MockTrackRepo) List(ctx context.Context, limit, offset int) ([]*model.Track, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Track), args.Error(1)
}

func (m *MockTrackRepo) Update(ctx context.Context, track *model.Track) error {
	args := m.Called(ctx, track)
	return args.Error(0)
}

func (m *MockTrackRepo) SetProgress(ctx context.Context, id int64, progress int, status *string, errMsg *string) error {
	args := m.Called(ctx, id, progress, status, errMsg)
	return args.Error(0)
}

func (m *MockTrackRepo) SetStatus(ctx context.Context, id int64, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTrackRepo) SetArtifactPaths(ctx context.Context, id int64, audioPath, imagePath, videoPath *string) error {
	args := m.Called(ctx, id, audioPath, imagePath, videoPath)
	return args.Error(0)
}

func (m *MockTrackRepo) ClaimForPublish(ctx context.Context, id int64, videoID string) (bool, error) {
	args := m.Called(ctx, id, videoID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTrackRepo) SetPublished(ctx context.Context, id int64, playlistID *string) error {
	args := m.Called(ctx, id, playlistID)
	return args.Error(0)
}

func (m *MockTrackRepo) ResetExternalVideo(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTrackRepo) UpdateAnalytics(ctx context.Context, id int64, views, likes, comments *int64) error {
	args := m.Called(ctx, id, views, likes, comments)
	return args.Error(0)
}

func (m *MockTrackRepo) ListPublished(ctx context.Context, limit int) ([]*model.Track, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Track), args.Error(1)
}

func (m *MockTrackRepo) ListEligibleForPublish(ctx context.Context, limit int) ([]*model.Track, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Track), args.Error(1)
}

type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) Enqueue(ctx context.Context, trackID int64, kind string) (*model.TrackJob, error) {
	args := m.Called(ctx, trackID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrackJob), args.Error(1)
}

func (m *MockJobRepo) FetchPending(ctx context.Context, limit int) ([]*model.TrackJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TrackJob), args.Error(1)
}

func (m *MockJobRepo) Claim(ctx context.Context, jobID int64) (bool, error) {
	args := m.Called(ctx, jobID)
	return args.Bool(0), args.Error(1)
}

func (m *MockJobRepo) MarkResult(ctx context.Context, jobID int64, status string, errMsg *string) error {
	args := m.Called(ctx, jobID, status, errMsg)
	return args.Error(0)
}

func (m *MockJobRepo) Requeue(ctx context.Context, jobID int64, errMsg *string) error {
	args := m.Called(ctx, jobID, errMsg)
	return args.Error(0)
}

func (m *MockJobRepo) GetByID(ctx context.Context, jobID int64) (*model.TrackJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrackJob), args.Error(1)
}

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, account *model.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByChannelID(ctx context.Context, channelID string) (*model.Account, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Account), args.Error(1)
}

func (m *MockAccountRepo) GetActive(ctx context.Context) (*model.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountRepo) MarkActive(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepo) UpdateToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt *time.Time) error {
	args := m.Called(ctx, id, accessToken, refreshToken, expiresAt)
	return args.Error(0)
}

func (m *MockAccountRepo) TouchLastUsed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReceiptRepo struct {
	mock.Mock
}

func (m *MockReceiptRepo) Create(ctx context.Context, receipt *model.WebhookReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockReceiptRepo) MarkProcessed(ctx context.Context, id int64, status string, errMsg *string) error {
	args := m.Called(ctx, id, status, errMsg)
	return args.Error(0)
}

func (m *MockReceiptRepo) List(ctx context.Context, limit, offset int) ([]*model.WebhookReceipt, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.WebhookReceipt), args.Error(1)
}

func (m *MockReceiptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockTrackLock struct {
	mock.Mock
}

func (m *MockTrackLock) Acquire(ctx context.Context, trackID int64, ttl time.Duration) (func(), bool, error) {
	args := m.Called(ctx, trackID, ttl)
	release, _ := args.Get(0).(func())
	if release == nil {
		release = func() {}
	}
	return release, args.Bool(1), args.Error(2)
}

type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) Emit(ctx context.Context, eventType string, payload interface{}) {
	m.Called(ctx, eventType, payload)
}

type MockPublisher struct {
	mock.Mock
	name string
}

func (m *MockPublisher) Upload(ctx context.Context, params *dto.UploadParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *MockPublisher) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

type MockPlaylistPublisher struct {
	MockPublisher
}

func (m *MockPlaylistPublisher) EnsurePlaylist(ctx context.Context, title string) (string, error) {
	args := m.Called(ctx, title)
	return args.String(0), args.Error(1)
}

func (m *MockPlaylistPublisher) AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) error {
	args := m.Called(ctx, playlistID, videoID)
	return args.Error(0)
}

func (m *MockPlaylistPublisher) GetVideoStats(ctx context.Context, videoID string) (int64, int64, int64, error) {
	args := m.Called(ctx, videoID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Get(2).(int64), args.Error(3)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, kind, rawURL string) (string, error) {
	args := m.Called(ctx, kind, rawURL)
	return args.String(0), args.Error(1)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, audioPath, imagePath, baseName string) (string, error) {
	args := m.Called(ctx, audioPath, imagePath, baseName)
	return args.String(0), args.Error(1)
}

type MockJobUsecase struct {
	mock.Mock
}

func (m *MockJobUsecase) Enqueue(ctx context.Context, trackID int64, kind string) (*model.TrackJob, error) {
	args := m.Called(ctx, trackID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TrackJob), args.Error(1)
}

func (m *MockJobUsecase) RunPending(ctx context.Context, batchSize int) error {
	args := m.Called(ctx, batchSize)
	return args.Error(0)
}

type MockProcessUsecase struct {
	mock.Mock
}

func (m *MockProcessUsecase) Process(ctx context.Context, trackID int64) error {
	args := m.Called(ctx, trackID)
	return args.Error(0)
}

type MockPublishUsecase struct {
	mock.Mock
}

func (m *MockPublishUsecase) Publish(ctx context.Context, trackID int64) error {
	args := m.Called(ctx, trackID)
	return args.Error(0)
}

func (m *MockPublishUsecase) PublishAllPending(ctx context.Context, limit int) error {
	args := m.Called(ctx, limit)
	return args.Error(0)
}
