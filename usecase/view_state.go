package usecase

import (
	"errors"
	"strings"

	"vault/domain/model"
)

// Phase tracks the submit flow: idle -> submitting -> refreshing -> idle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseRefreshing Phase = "refreshing"
)

const (
	LabelAdd         = "Add"
	LabelSummarizing = "Summarizing..."
)

// ViewState is an immutable snapshot of one page. Reduce returns a new value
// for every event; Videos is replaced wholesale and never modified in place.
type ViewState struct {
	Videos          []model.Video `json:"videos"`
	PendingVideoID  string        `json:"pendingVideoId"`
	Phase           Phase         `json:"phase"`
	ExpandedVideoID string        `json:"expandedVideoId,omitempty"`
	LastError       string        `json:"lastError,omitempty"`
	Mounted         bool          `json:"mounted"`
}

// NewViewState returns the state before the first mount.
func NewViewState() ViewState {
	return ViewState{Videos: []model.Video{}, Phase: PhaseIdle}
}

// Loading is true for any phase other than idle.
func (s ViewState) Loading() bool {
	return s.Phase != "" && s.Phase != PhaseIdle
}

func (s ViewState) SubmitDisabled() bool {
	return s.Loading()
}

func (s ViewState) SubmitLabel() string {
	if s.Loading() {
		return LabelSummarizing
	}
	return LabelAdd
}

func (s ViewState) IsExpanded(videoID string) bool {
	return s.ExpandedVideoID != "" && s.ExpandedVideoID == videoID
}

// Event is one of the triggers the controller reacts to.
type Event interface {
	eventName() string
}

type (
	// Mounted is sent when a page is first opened or explicitly refreshed.
	Mounted struct{}
	// InputChanged replaces the uncommitted video id.
	InputChanged struct{ Value string }
	// SubmitRequested is the "Add" click.
	SubmitRequested struct{}
	// ToggleRequested is the "Show/Hide Summary" click.
	ToggleRequested struct{ VideoID string }

	TrackSucceeded struct{ VideoID string }
	TrackFailed    struct {
		VideoID string
		Err     error
	}
	ListLoaded struct{ Videos []model.Video }
	ListFailed struct{ Err error }
)

func (Mounted) eventName() string         { return "mounted" }
func (InputChanged) eventName() string    { return "input_changed" }
func (SubmitRequested) eventName() string { return "submit_requested" }
func (ToggleRequested) eventName() string { return "toggle_requested" }
func (TrackSucceeded) eventName() string  { return "track_succeeded" }
func (TrackFailed) eventName() string     { return "track_failed" }
func (ListLoaded) eventName() string      { return "list_loaded" }
func (ListFailed) eventName() string      { return "list_failed" }

// EventName is used for logging.
func EventName(e Event) string {
	if e == nil {
		return ""
	}
	return e.eventName()
}

type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectFetchList
	EffectTrack
)

// Effect is the backend call a transition asks for.
type Effect struct {
	Kind    EffectKind
	VideoID string
}

var errUnknown = errors.New("unknown error")

// Reduce applies e to s. It performs no I/O.
func Reduce(s ViewState, e Event) (ViewState, Effect) {
	if s.Phase == "" {
		s.Phase = PhaseIdle
	}

	switch ev := e.(type) {
	case Mounted:
		s.Mounted = true
		return s, Effect{Kind: EffectFetchList}

	case InputChanged:
		s.PendingVideoID = ev.Value
		return s, Effect{}

	case SubmitRequested:
		videoID := strings.TrimSpace(s.PendingVideoID)
		if videoID == "" || s.Phase != PhaseIdle {
			return s, Effect{}
		}
		s.Phase = PhaseSubmitting
		s.PendingVideoID = ""
		s.LastError = ""
		return s, Effect{Kind: EffectTrack, VideoID: videoID}

	case TrackSucceeded:
		if s.Phase != PhaseSubmitting {
			return s, Effect{}
		}
		s.Phase = PhaseRefreshing
		return s, Effect{Kind: EffectFetchList}

	case TrackFailed:
		if s.Phase != PhaseSubmitting {
			return s, Effect{}
		}
		s.Phase = PhaseIdle
		s.LastError = "Could not submit " + ev.VideoID + ": " + errorText(ev.Err)
		return s, Effect{}

	case ListLoaded:
		s.Videos = reversed(ev.Videos)
		s.LastError = ""
		if s.Phase == PhaseRefreshing {
			s.Phase = PhaseIdle
		}
		return s, Effect{}

	case ListFailed:
		s.LastError = "Could not load videos: " + errorText(ev.Err)
		if s.Phase == PhaseRefreshing {
			s.Phase = PhaseIdle
		}
		return s, Effect{}

	case ToggleRequested:
		if s.ExpandedVideoID == ev.VideoID {
			s.ExpandedVideoID = ""
		} else {
			s.ExpandedVideoID = ev.VideoID
		}
		return s, Effect{}
	}

	return s, Effect{}
}

func reversed(in []model.Video) []model.Video {
	out := make([]model.Video, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

func errorText(err error) string {
	if err == nil {
		err = errUnknown
	}
	return err.Error()
}
