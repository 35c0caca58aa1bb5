package assets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackpub/domain/model"
)

func newTestStorage(t *testing.T) *DiskStorage {
	t.Helper()
	storage, err := NewDiskStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("fake audio bytes"))
	}))
	defer srv.Close()

	fetcher := NewFetcher(newTestStorage(t))
	dst, err := fetcher.Fetch(context.Background(), "audio", srv.URL+"/tracks/song.mp3")
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "fake audio bytes", string(data))
	assert.Contains(t, dst, "song.mp3")
}

func TestFetcher_Fetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewFetcher(newTestStorage(t))
	_, err := fetcher.Fetch(context.Background(), "audio", srv.URL+"/missing.mp3")
	require.Error(t, err)

	var dlErr *model.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, http.StatusNotFound, dlErr.StatusCode)
}

func TestFetcher_Fetch_TransportError(t *testing.T) {
	fetcher := NewFetcher(newTestStorage(t))
	_, err := fetcher.Fetch(context.Background(), "audio", "http://127.0.0.1:1/nothing.mp3")
	require.Error(t, err)

	var dlErr *model.DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Zero(t, dlErr.StatusCode)
}

func bytesReader(s string) io.Reader { return strings.NewReader(s) }

func TestDiskStorage_SaveIsAtomic(t *testing.T) {
	storage := newTestStorage(t)
	dst, err := storage.Save("video/out.mp4", bytesReader("rendered"))
	require.NoError(t, err)

	entries, err := os.ReadDir(storage.Root() + "/video")
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files may remain after save")
	assert.Equal(t, "out.mp4", entries[0].Name())

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "rendered", string(data))
}
