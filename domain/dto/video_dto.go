package dto

import "vault/domain/model"

// TrackVideoRequest is the body sent to POST /api/track.
type TrackVideoRequest struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Channel   string `json:"channel"`
	Timestamp string `json:"timestamp"`
}

// SubmitVideoForm is the form posted by the "Add" button.
type SubmitVideoForm struct {
	VideoID string `form:"videoId" json:"videoId"`
}

// ViewStateResponse is the JSON mirror of a session's page served at GET /api/state.
type ViewStateResponse struct {
	Videos          []model.Video `json:"videos"`
	PendingVideoID  string        `json:"pendingVideoId"`
	Phase           string        `json:"phase"`
	Loading         bool          `json:"loading"`
	SubmitLabel     string        `json:"submitLabel"`
	ExpandedVideoID string        `json:"expandedVideoId,omitempty"`
	LastError       string        `json:"lastError,omitempty"`
}
