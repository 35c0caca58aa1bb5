package assets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"trackpub/domain/model"
	"trackpub/infrastructure/logger"
	"trackpub/infrastructure/utils"

	"github.com/google/uuid"
)

// downloadTimeout bounds a single asset fetch end to end.
const downloadTimeout = 120 * time.Second

// Fetcher downloads remote source assets into the local store.
type Fetcher struct {
	storage *DiskStorage
	client  *http.Client
}

func NewFetcher(storage *DiskStorage) *Fetcher {
	return &Fetcher{
		storage: storage,
		client:  &http.Client{Timeout: downloadTimeout},
	}
}

// Fetch downloads rawURL into the store under kind/ (audio, image, video) and
// returns the absolute local path. Non-2xx responses become a DownloadError
// carrying the status code.
func (f *Fetcher) Fetch(ctx context.Context, kind, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &model.DownloadError{URL: rawURL, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", &model.DownloadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &model.DownloadError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	key := f.buildKey(kind, rawURL)
	dst, err := f.storage.Save(key, resp.Body)
	if err != nil {
		return "", &model.DownloadError{URL: rawURL, Err: err}
	}
	logger.GetLogger().WithField("url", rawURL).WithField("path", dst).Debug("Asset fetched")
	return dst, nil
}

// buildKey derives a collision-resistant storage key from the URL basename,
// e.g. "audio/ab12cd34_track.mp3".
func (f *Fetcher) buildKey(kind, rawURL string) string {
	base := "file"
	if u, err := url.Parse(rawURL); err == nil {
		base = utils.SanitizeFilename(path.Base(u.Path))
	}
	prefix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%s_%s", kind, prefix, base)
}
