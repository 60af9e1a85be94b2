package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vault/domain/dto"
	"vault/domain/model"
	"vault/domain/repository"
	"vault/infrastructure/logger"
	"vault/infrastructure/utils"
)

const (
	videosPath = "/api/videos"
	trackPath  = "/api/track"

	// Placeholders the backend overwrites once it has the real metadata.
	DefaultTitle   = "From UI"
	DefaultChannel = "Unknown"

	watchURLPrefix = "https://www.youtube.com/watch?v="
)

var (
	// ErrNetwork covers unreachable backends and non-2xx responses.
	ErrNetwork = errors.New("backend unreachable")
	// ErrDecode means the backend answered with a body that is not a video list.
	ErrDecode = errors.New("malformed backend response")
)

// Config represents the summarization backend client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the summarization backend. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithClock overrides the source of the tracking timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewVaultClient creates a new backend gateway
func NewVaultClient(config Config, opts ...Option) repository.IVideoGateway {
	c := &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		now:        utils.GetCurrentTime,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WatchURL interpolates videoID into the canonical watch URL without escaping it.
func WatchURL(videoID string) string {
	return watchURLPrefix + videoID
}

// BuildTrackRequest shapes the payload exactly as the backend expects it.
func BuildTrackRequest(videoID string, now time.Time) dto.TrackVideoRequest {
	return dto.TrackVideoRequest{
		VideoID:   videoID,
		Title:     DefaultTitle,
		URL:       WatchURL(videoID),
		Channel:   DefaultChannel,
		Timestamp: utils.FormatISO(now),
	}
}

// ListVideos handles GET /api/videos
func (c *Client) ListVideos(ctx context.Context) ([]model.Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+videosPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build list request: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: list videos: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: list videos: status %d", ErrNetwork, resp.StatusCode)
	}

	var videos []model.Video
	if err := json.NewDecoder(resp.Body).Decode(&videos); err != nil {
		return nil, fmt.Errorf("%w: list videos: %v", ErrDecode, err)
	}
	if videos == nil {
		// JSON null
		videos = []model.Video{}
	}

	logger.GetLogger().WithField("count", len(videos)).Debug("Fetched tracked videos")
	return videos, nil
}

// TrackVideo handles POST /api/track. The response body is drained and ignored.
func (c *Client) TrackVideo(ctx context.Context, videoID string) error {
	payload := BuildTrackRequest(videoID, c.now())
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode track request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+trackPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build track request: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: track video %s: %v", ErrNetwork, videoID, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: track video %s: status %d", ErrNetwork, videoID, resp.StatusCode)
	}

	logger.GetLogger().WithField("video_id", videoID).Info("Video submitted for summarization")
	return nil
}
