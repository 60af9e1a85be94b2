package model

// Video is a tracked YouTube video as returned by the summarization backend.
// It is never mutated on this side.
type Video struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Channel   string `json:"channel"`
	Timestamp string `json:"timestamp"`
	Summary   string `json:"summary"`
	TLDR      string `json:"tldr"`
}
