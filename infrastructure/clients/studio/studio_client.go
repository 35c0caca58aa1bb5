package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"trackpub/domain/dto"
	"trackpub/domain/model"
	"trackpub/domain/repository"
	"trackpub/infrastructure/logger"

	"github.com/google/go-querystring/query"
)

// Client is the session-based upload strategy: plain credentials, a short
// lived session token, no OAuth dance. Used against the legacy studio
// endpoint.
type Client struct {
	host     string
	username string
	password string
	http     *http.Client

	mu      sync.Mutex
	session string
	expiry  time.Time
}

func NewClient(host, username, password string) *Client {
	return &Client{
		host:     strings.TrimRight(host, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Name() string { return "session" }

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// uploadParams is the querystring side of the upload call; the file itself
// travels in the multipart body.
type uploadParams struct {
	Title         string   `url:"title"`
	Description   string   `url:"description,omitempty"`
	Tags          []string `url:"tags,omitempty" del:","`
	PrivacyStatus string   `url:"privacy_status,omitempty"`
	CategoryID    string   `url:"category_id,omitempty"`
	MadeForKids   bool     `url:"made_for_kids"`
}

type uploadResponse struct {
	VideoID string `json:"video_id"`
	Error   string `json:"error,omitempty"`
}

// login obtains a session token, reusing a previous one until shortly before
// expiry.
func (c *Client) login(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != "" && time.Until(c.expiry) > time.Minute {
		return c.session, nil
	}

	body, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/session", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("studio login failed with status %s", resp.Status)
	}
	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("studio login response malformed: %w", err)
	}
	if lr.SessionToken == "" {
		return "", fmt.Errorf("studio login returned empty session token")
	}
	c.session = lr.SessionToken
	if lr.ExpiresIn > 0 {
		c.expiry = time.Now().Add(time.Duration(lr.ExpiresIn) * time.Second)
	} else {
		c.expiry = time.Now().Add(30 * time.Minute)
	}
	return c.session, nil
}

// Upload logs in, streams the video as multipart form data and returns the
// external video id. Any failure becomes an UploadError.
func (c *Client) Upload(ctx context.Context, params *dto.UploadParams) (string, error) {
	session, err := c.login(ctx)
	if err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: err}
	}

	file, err := os.Open(params.VideoPath)
	if err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: fmt.Errorf("failed to open video file: %w", err)}
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("video", filepath.Base(params.VideoPath))
	if err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: err}
	}

	values, err := query.Values(uploadParams{
		Title:         params.Title,
		Description:   params.Description,
		Tags:          params.Tags,
		PrivacyStatus: params.PrivacyStatus,
		CategoryID:    params.CategoryID,
		MadeForKids:   params.MadeForKids,
	})
	if err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/videos?"+values.Encode(), &buf)
	if err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+session)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &model.UploadError{Strategy: c.Name(), Err: fmt.Errorf("upload failed with status %s", resp.Status)}
	}
	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", &model.UploadError{Strategy: c.Name(), Err: fmt.Errorf("upload response malformed: %w", err)}
	}
	if ur.VideoID == "" {
		return "", &model.UploadError{Strategy: c.Name(), Err: fmt.Errorf("upload response carried no video id: %s", ur.Error)}
	}
	logger.GetLogger().WithField("videoId", ur.VideoID).Info("Video uploaded via studio session")
	return ur.VideoID, nil
}

// Ensure interface compliance (compile-time)
var _ repository.IPublisher = (*Client)(nil)
