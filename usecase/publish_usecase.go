package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"trackpub/domain/dto"
	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/infrastructure/logger"
	"trackpub/infrastructure/worker"
)

// maxTags is the platform limit on tags per video.
const maxTags = 30

// Eligibility outcomes. Skipped is terminal for the job (never retried);
// Failed counts against the attempt budget.
const (
	EligibilityEligible = "eligible"
	EligibilitySkipped  = "skipped"
	EligibilityFailed   = "failed"
)

// EligibilityResult is the tagged outcome of the publish pre-flight check.
type EligibilityResult struct {
	State  string
	Reason string
}

// CheckEligibility decides whether a track can be uploaded right now.
// Ordering matters: the already-published check comes first so a duplicate
// publish request is always a clean skip regardless of the track's status.
// Every "track isn't ready" outcome is a skip, not a failure: an ineligible
// track is a normal state of the world, and retrying won't change it. Failed
// is reserved for the track being unreadable at all.
func CheckEligibility(track *model.Track) EligibilityResult {
	switch {
	case track == nil:
		return EligibilityResult{State: EligibilityFailed, Reason: "track not found"}
	case track.IsPublished():
		return EligibilityResult{State: EligibilitySkipped, Reason: "already published"}
	case !track.PublishingEnabled:
		return EligibilityResult{State: EligibilitySkipped, Reason: "publishing disabled"}
	case track.Status == model.TrackStatusStopped:
		return EligibilityResult{State: EligibilitySkipped, Reason: "track stopped"}
	case track.Status != model.TrackStatusCompleted:
		return EligibilityResult{State: EligibilitySkipped, Reason: fmt.Sprintf("track not completed (status %s)", track.Status)}
	case track.VideoPath == nil || *track.VideoPath == "":
		return EligibilityResult{State: EligibilitySkipped, Reason: "no rendered video"}
	default:
		return EligibilityResult{State: EligibilityEligible}
	}
}

// PublishSettings are the upload defaults shared by both strategies, carried
// here instead of read from the config package so tests can set them
// directly.
type PublishSettings struct {
	PrivacyStatus string
	CategoryID    string
	MadeForKids   bool
	IsShort       bool
	BaseTags      []string
	Attribution   string
	PlaylistTitle string
	LockTTL       time.Duration
	// FileChecker reports whether the rendered video exists on disk. Nil
	// means os.Stat.
	FileChecker func(path string) bool
}

// PublisherFactory builds the upload client for the current strategy. The
// OAuth strategy resolves the active account and wires token persistence; the
// session strategy ignores the account and returns nil for it.
type PublisherFactory func(ctx context.Context) (repository.IPublisher, *model.Account, error)

type IPublishUsecase interface {
	// Publish uploads one track through the configured strategy.
	Publish(ctx context.Context, trackID int64) error
	// PublishAllPending uploads every eligible track, pooled.
	PublishAllPending(ctx context.Context, limit int) error
}

type publishUsecase struct {
	trackRepo    repository.ITrack
	accountRepo  repository.IAccount
	lock         repository.ITrackLock
	emitter      repository.IEventEmitter
	newPublisher PublisherFactory
	settings     PublishSettings
	broadcaster  func(*model.Track)
}

// NewPublishUsecase wires the publish step. broadcaster may be nil when no
// realtime stream is attached.
func NewPublishUsecase(trackRepo repository.ITrack, accountRepo repository.IAccount, lock repository.ITrackLock, emitter repository.IEventEmitter, newPublisher PublisherFactory, settings PublishSettings, broadcaster func(*model.Track)) IPublishUsecase {
	if settings.LockTTL <= 0 {
		settings.LockTTL = model.PublishJobPolicy.AttemptTimeout
	}
	if settings.FileChecker == nil {
		settings.FileChecker = func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		}
	}
	return &publishUsecase{
		trackRepo:    trackRepo,
		accountRepo:  accountRepo,
		lock:         lock,
		emitter:      emitter,
		newPublisher: newPublisher,
		settings:     settings,
		broadcaster:  broadcaster,
	}
}

func (u *publishUsecase) Publish(ctx context.Context, trackID int64) error {
	lg := logger.GetLogger().WithField("track_id", trackID)

	track, err := u.trackRepo.GetByID(ctx, trackID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("track %d not found", trackID)
		}
		return fmt.Errorf("loading track %d: %w", trackID, err)
	}
	if result := CheckEligibility(track); result.State != EligibilityEligible {
		return eligibilityError(result)
	}

	// The lock bounds the window between the eligibility read and the
	// conditional claim; a second worker backing off here will find the
	// track published (or re-eligible) on its next poll.
	release, ok, err := u.lock.Acquire(ctx, trackID, u.settings.LockTTL)
	if err != nil {
		return fmt.Errorf("acquiring publish lock for track %d: %w", trackID, err)
	}
	if !ok {
		return &SkipError{Reason: "publish already in progress"}
	}
	defer release()

	// Re-read under the lock: another worker may have finished while we
	// waited for eligibility plus lock.
	track, err = u.trackRepo.GetByID(ctx, trackID)
	if err != nil {
		return fmt.Errorf("reloading track %d: %w", trackID, err)
	}
	if result := CheckEligibility(track); result.State != EligibilityEligible {
		return eligibilityError(result)
	}
	if !u.settings.FileChecker(*track.VideoPath) {
		lg.WithField("videoPath", *track.VideoPath).Warn("Rendered video missing on disk; publish skipped")
		return &SkipError{Reason: "rendered video missing on disk"}
	}

	publisher, account, err := u.newPublisher(ctx)
	if err != nil {
		return fmt.Errorf("building publisher: %w", err)
	}

	params := &dto.UploadParams{
		VideoPath:     *track.VideoPath,
		Title:         track.Title,
		Description:   BuildDescription(track, u.settings.Attribution),
		Tags:          BuildTags(track.GenreList(), u.settings.BaseTags),
		PrivacyStatus: u.settings.PrivacyStatus,
		CategoryID:    u.settings.CategoryID,
		MadeForKids:   u.settings.MadeForKids,
		IsShort:       u.settings.IsShort,
	}

	videoID, err := publisher.Upload(ctx, params)
	if err != nil {
		return err
	}

	claimed, err := u.trackRepo.ClaimForPublish(ctx, track.ID, videoID)
	if err != nil {
		return fmt.Errorf("claiming track %d after upload: %w", track.ID, err)
	}
	if !claimed {
		// The row already carries a video id: a concurrent publish slipped
		// through despite the lock. The uploaded duplicate is logged for
		// manual cleanup; the stored id stays authoritative.
		lg.WithField("duplicateVideoId", videoID).Warn("Track was published concurrently; duplicate upload not recorded")
		return nil
	}

	playlistID := u.placeInPlaylist(ctx, publisher, track, videoID)

	if err := u.trackRepo.SetPublished(ctx, track.ID, playlistID); err != nil {
		return fmt.Errorf("recording publish for track %d: %w", track.ID, err)
	}
	if account != nil {
		_ = u.accountRepo.TouchLastUsed(ctx, account.ID)
	}

	track.ExternalVideoID = &videoID
	track.ExternalPlaylistID = playlistID
	u.emitter.Emit(ctx, "track.published", track)
	if u.broadcaster != nil {
		u.broadcaster(track)
	}
	lg.WithField("videoId", videoID).WithField("strategy", publisher.Name()).Info("Track published")
	return nil
}

// placeInPlaylist adds the video to the configured playlist when the
// strategy supports playlists. Any failure is logged and swallowed: the
// video is already live, playlist placement never rolls that back.
func (u *publishUsecase) placeInPlaylist(ctx context.Context, publisher repository.IPublisher, track *model.Track, videoID string) *string {
	pp, ok := publisher.(repository.IPlaylistPublisher)
	if !ok {
		return nil
	}
	title := u.settings.PlaylistTitle
	if title == "" {
		if genres := track.GenreList(); len(genres) > 0 {
			title = genres[0]
		}
	}
	if title == "" {
		return nil
	}

	lg := logger.GetLogger().WithField("track_id", track.ID).WithField("playlistTitle", title)
	playlistID, err := pp.EnsurePlaylist(ctx, title)
	if err != nil {
		lg.WithField("error", err).Warn("Playlist lookup failed; video published without playlist")
		return nil
	}
	if err := pp.AddVideoToPlaylist(ctx, playlistID, videoID); err != nil {
		lg.WithField("error", err).Warn("Playlist placement failed; video published without playlist")
		return nil
	}
	return &playlistID
}

func (u *publishUsecase) PublishAllPending(ctx context.Context, limit int) error {
	tracks, err := u.trackRepo.ListEligibleForPublish(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing eligible tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil
	}

	tasks := make([]worker.Task, len(tracks))
	for i, track := range tracks {
		id := track.ID
		tasks[i] = func(ctx context.Context) error {
			return u.Publish(ctx, id)
		}
	}
	lg := logger.GetLogger()
	for _, result := range worker.RunPooled(ctx, 3, tasks) {
		if result.Err == nil {
			continue
		}
		var skip *SkipError
		if errors.As(result.Err, &skip) {
			lg.WithField("track_id", tracks[result.Index].ID).WithField("reason", skip.Reason).Debug("Publish skipped")
			continue
		}
		lg.WithField("track_id", tracks[result.Index].ID).WithField("error", result.Err).Error("Publish failed")
	}
	return nil
}

func eligibilityError(result EligibilityResult) error {
	if result.State == EligibilitySkipped {
		return &SkipError{Reason: result.Reason}
	}
	return fmt.Errorf("track not publishable: %s", result.Reason)
}

// BuildTags merges the configured base tags with the track's genres,
// lowercased, separator-stripped and deduplicated, capped at the platform
// limit. Base tags come first so the cap trims genres, not the brand tags.
func BuildTags(genres, baseTags []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(baseTags)+len(genres))
	add := func(raw string) {
		tag := strings.ToLower(strings.TrimSpace(raw))
		tag = strings.ReplaceAll(tag, ",", " ")
		tag = strings.ReplaceAll(tag, "#", "")
		tag = strings.Join(strings.Fields(tag), " ")
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	for _, t := range baseTags {
		add(t)
	}
	for _, g := range genres {
		add(g)
	}
	if len(out) > maxTags {
		out = out[:maxTags]
	}
	return out
}

// BuildDescription renders the upload description from the track metadata
// plus the configured attribution line.
func BuildDescription(track *model.Track, attribution string) string {
	var b strings.Builder
	b.WriteString(track.Title)
	if genres := track.GenreList(); len(genres) > 0 {
		b.WriteString("\n\nGenres: ")
		b.WriteString(strings.Join(genres, ", "))
	}
	if attribution != "" {
		b.WriteString("\n\n")
		b.WriteString(attribution)
	}
	return b.String()
}
