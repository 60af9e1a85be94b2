package repository

import (
	"context"

	"vault/domain/model"
)

// IVideoGateway is the boundary to the summarization backend.
type IVideoGateway interface {
	// ListVideos returns every tracked video in backend order.
	ListVideos(ctx context.Context) ([]model.Video, error)
	// TrackVideo asks the backend to fetch and summarize a video.
	TrackVideo(ctx context.Context, videoID string) error
}
