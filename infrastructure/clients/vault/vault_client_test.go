package vault_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault/domain/dto"
	"vault/domain/model"
	"vault/infrastructure/clients/vault"
)

func TestBuildTrackRequest(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 30, 45, 123_000_000, time.UTC)

	req := vault.BuildTrackRequest("abc123", now)

	assert.Equal(t, dto.TrackVideoRequest{
		VideoID:   "abc123",
		Title:     "From UI",
		URL:       "https://www.youtube.com/watch?v=abc123",
		Channel:   "Unknown",
		Timestamp: "2025-06-01T12:30:45.123Z",
	}, req)
}

func TestListVideos_ReturnsBackendOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/videos", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"videoId":"a","title":"A","url":"https://www.youtube.com/watch?v=a","channel":"C","timestamp":"2025-01-01T00:00:00.000Z","summary":"long a","tldr":"short a"},
			{"videoId":"b","title":"B"}
		]`)
	}))
	defer srv.Close()

	client := vault.NewVaultClient(vault.Config{BaseURL: srv.URL + "/"})
	videos, err := client.ListVideos(context.Background())

	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, model.Video{
		VideoID:   "a",
		Title:     "A",
		URL:       "https://www.youtube.com/watch?v=a",
		Channel:   "C",
		Timestamp: "2025-01-01T00:00:00.000Z",
		Summary:   "long a",
		TLDR:      "short a",
	}, videos[0])
	assert.Equal(t, "b", videos[1].VideoID)
}

func TestListVideos_NullIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	}))
	defer srv.Close()

	videos, err := vault.NewVaultClient(vault.Config{BaseURL: srv.URL}).ListVideos(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, videos)
	assert.Empty(t, videos)
}

func TestListVideos_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"videos":`)
	}))
	defer srv.Close()

	_, err := vault.NewVaultClient(vault.Config{BaseURL: srv.URL}).ListVideos(context.Background())

	require.ErrorIs(t, err, vault.ErrDecode)
}

func TestListVideos_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := vault.NewVaultClient(vault.Config{BaseURL: srv.URL}).ListVideos(context.Background())

	require.ErrorIs(t, err, vault.ErrNetwork)
}

func TestListVideos_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := vault.NewVaultClient(vault.Config{BaseURL: url}).ListVideos(context.Background())

	require.ErrorIs(t, err, vault.ErrNetwork)
}

func TestTrackVideo_SendsExactlyOnePost(t *testing.T) {
	var calls atomic.Int32
	var got dto.TrackVideoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/track", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"ignored":true}`)
	}))
	defer srv.Close()

	before := time.Now().UTC()
	err := vault.NewVaultClient(vault.Config{BaseURL: srv.URL}).TrackVideo(context.Background(), "abc123")
	after := time.Now().UTC()

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "abc123", got.VideoID)
	assert.Equal(t, "From UI", got.Title)
	assert.Equal(t, "Unknown", got.Channel)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", got.URL)

	ts, err := time.Parse(time.RFC3339Nano, got.Timestamp)
	require.NoError(t, err)
	assert.WithinRange(t, ts, before.Add(-time.Millisecond), after.Add(time.Millisecond))
}

func TestTrackVideo_UsesClock(t *testing.T) {
	fixed := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	var got dto.TrackVideoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	client := vault.NewVaultClient(vault.Config{BaseURL: srv.URL}, vault.WithClock(func() time.Time { return fixed }))
	require.NoError(t, client.TrackVideo(context.Background(), "xyz"))

	assert.Equal(t, "2024-12-31T23:59:59.000Z", got.Timestamp)
}

func TestTrackVideo_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := vault.NewVaultClient(vault.Config{BaseURL: srv.URL}).TrackVideo(context.Background(), "abc123")

	require.ErrorIs(t, err, vault.ErrNetwork)
}
