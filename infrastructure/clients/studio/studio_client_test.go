package studio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackpub/domain/dto"
	"trackpub/domain/model"
)

func writeTempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake video"), 0o644))
	return path
}

func TestClient_Upload(t *testing.T) {
	var gotAuth string
	var gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/session":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"session_token": "sess-1", "expires_in": 600})
		case "/api/videos":
			gotAuth = r.Header.Get("Authorization")
			gotTitle = r.URL.Query().Get("title")
			require.NoError(t, r.ParseMultipartForm(1 << 20))
			_, _, err := r.FormFile("video")
			require.NoError(t, err)
			_ = json.NewEncoder(w).Encode(map[string]string{"video_id": "stu-42"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "user", "pass")
	videoID, err := client.Upload(context.Background(), &dto.UploadParams{
		VideoPath:     writeTempVideo(t),
		Title:         "Midnight Drive",
		Tags:          []string{"music", "synthwave"},
		PrivacyStatus: "public",
		CategoryID:    "10",
	})
	require.NoError(t, err)
	assert.Equal(t, "stu-42", videoID)
	assert.Equal(t, "Bearer sess-1", gotAuth)
	assert.Equal(t, "Midnight Drive", gotTitle)
}

func TestClient_Upload_MissingVideoID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/session" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"session_token": "sess-1"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "quota exceeded"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "user", "pass")
	_, err := client.Upload(context.Background(), &dto.UploadParams{VideoPath: writeTempVideo(t), Title: "x"})
	require.Error(t, err)

	var upErr *model.UploadError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, "session", upErr.Strategy)
}

func TestClient_Upload_LoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "user", "wrong")
	_, err := client.Upload(context.Background(), &dto.UploadParams{VideoPath: writeTempVideo(t), Title: "x"})
	var upErr *model.UploadError
	require.True(t, errors.As(err, &upErr))
}
