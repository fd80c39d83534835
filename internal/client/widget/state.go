package widget

import "fmt"

// State is the widget's position in the upload lifecycle.
type State int

const (
	Idle State = iota
	RequestingToken
	Uploading
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case RequestingToken:
		return "requesting_token"
	case Uploading:
		return "uploading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Busy reports whether an attempt owns the widget. Success counts until the
// owner has been notified.
func (s State) Busy() bool {
	return s == RequestingToken || s == Uploading || s == Success
}

// UIState is what a renderer needs to draw the widget.
type UIState struct {
	Loading    bool
	Error      string
	DragActive bool
}

// Snapshot is a consistent copy of the widget state.
type Snapshot struct {
	State State
	Value string
	UI    UIState
}
