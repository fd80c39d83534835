// Package widget implements the upload widget: a single-flight state machine
// that fetches a fresh token, uploads one file and hands the hosted URL to
// its owner exactly once.
//
// Select (click) and Drop share one code path. While an attempt is in flight
// further triggers fail with ErrBusy. Close cancels the in-flight attempt
// without notifying the owner.
package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/mediagate/internal/client/client"
	"github.com/dmitrijs2005/mediagate/internal/logging"
)

var (
	ErrBusy   = errors.New("upload already in progress")
	ErrClosed = errors.New("widget closed")
)

// Texts shown to the user.
const (
	AuthErrorPrefix    = "Authentication request failed: "
	UploadErrorMessage = "Image upload failed. Please try again."
)

// Options configures a Widget. OnChange and OnTransition run on the attempt
// goroutine; OnTransition may read the widget but must not trigger uploads.
type Options struct {
	Value        string
	OnChange     func(url string)
	OnTransition func(from, to State)
	Logger       logging.Logger
}

type Widget struct {
	auth  client.Authenticator
	media client.MediaClient

	onChange     func(string)
	onTransition func(from, to State)
	logger       logging.Logger

	// hookMu orders transition callbacks; it is always taken before mu.
	hookMu sync.Mutex
	mu     sync.Mutex
	state  State
	value  string
	ui     UIState
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(auth client.Authenticator, media client.MediaClient, opts Options) *Widget {
	ctx, cancel := context.WithCancel(context.Background())
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Widget{
		auth:         auth,
		media:        media,
		onChange:     opts.OnChange,
		onTransition: opts.OnTransition,
		logger:       logger.With("module", "widget"),
		value:        opts.Value,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// update applies fn under the state lock and then reports the transitions
// it produced, in order.
func (w *Widget) update(fn func(move func(State))) {
	w.hookMu.Lock()
	defer w.hookMu.Unlock()

	type step struct{ from, to State }
	var steps []step

	w.mu.Lock()
	fn(func(to State) {
		steps = append(steps, step{w.state, to})
		w.state = to
	})
	w.mu.Unlock()

	for _, s := range steps {
		w.logger.Debug(w.ctx, "transition", "from", s.from.String(), "to", s.to.String())
		if w.onTransition != nil {
			w.onTransition(s.from, s.to)
		}
	}
}

// Select uploads f as if the user picked it in a file dialog.
func (w *Widget) Select(ctx context.Context, f *client.File) (*Attempt, error) {
	return w.start(ctx, f)
}

// Drop clears the drag overlay and, when f is non-nil, uploads it exactly
// like Select. A drop without a file returns (nil, nil).
func (w *Widget) Drop(ctx context.Context, f *client.File) (*Attempt, error) {
	w.setDrag(false)
	if f == nil {
		return nil, nil
	}
	return w.start(ctx, f)
}

func (w *Widget) DragEnter() { w.setDrag(true) }
func (w *Widget) DragOver()  { w.setDrag(true) }
func (w *Widget) DragLeave() { w.setDrag(false) }

func (w *Widget) setDrag(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.ui.DragActive = active
}

func (w *Widget) start(ctx context.Context, f *client.File) (*Attempt, error) {
	var err error
	w.update(func(move func(State)) {
		switch {
		case w.closed:
			err = ErrClosed
		case w.state.Busy():
			err = ErrBusy
		default:
			move(RequestingToken)
		}
	})
	if err != nil {
		return nil, err
	}

	a := newAttempt()
	actx, cancel := context.WithCancel(w.ctx)
	stop := context.AfterFunc(ctx, cancel)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer cancel()
		defer stop()
		w.run(actx, f, a)
	}()

	return a, nil
}

// closedDuring reports whether Close interrupted the attempt.
func (w *Widget) closedDuring() bool {
	return w.ctx.Err() != nil
}

func (w *Widget) cancelled(a *Attempt) {
	w.update(func(move func(State)) {
		w.ui.Loading = false
		move(Idle)
	})
	a.resolve(Result{Err: context.Canceled}, nil)
}

func (w *Widget) run(ctx context.Context, f *client.File, a *Attempt) {
	tok, err := w.auth.Authenticate(ctx)
	if w.closedDuring() {
		w.cancelled(a)
		return
	}
	if err != nil {
		w.logger.Warn(ctx, "token request failed", "error", err)
		w.update(func(move func(State)) {
			w.ui.Error = AuthErrorPrefix + err.Error()
			w.ui.Loading = false
			move(Idle)
		})
		a.resolve(Result{Err: fmt.Errorf("%w: %w", client.ErrTokenRequest, err)}, nil)
		return
	}

	w.update(func(move func(State)) {
		w.ui.Loading = true
		w.ui.DragActive = false
		w.ui.Error = ""
		move(Uploading)
	})

	res, err := w.media.Upload(ctx, f, tok)
	if w.closedDuring() {
		w.cancelled(a)
		return
	}
	if err == nil && (res == nil || res.URL == "") {
		err = client.ErrInvalidResponse
	}
	if err != nil {
		w.logger.Warn(ctx, "upload failed", "error", err)
		w.update(func(move func(State)) {
			w.ui.Loading = false
			w.ui.Error = UploadErrorMessage
			move(Failed)
			move(Idle)
		})
		if !errors.Is(err, client.ErrUploadFailed) {
			err = fmt.Errorf("%w: %w", client.ErrUploadFailed, err)
		}
		a.resolve(Result{Err: err}, nil)
		return
	}

	url := res.URL
	w.update(func(move func(State)) {
		w.ui.Error = ""
		w.ui.Loading = false
		w.value = url
		move(Success)
	})
	w.logger.Info(ctx, "upload succeeded", "url", url)

	// Success stays busy until the owner has seen the URL.
	a.resolve(Result{URL: url}, func() {
		if w.onChange != nil {
			w.onChange(url)
		}
		w.update(func(move func(State)) { move(Idle) })
	})
}

// Close cancels any in-flight attempt and waits for it to settle. Later
// triggers fail with ErrClosed.
func (w *Widget) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
}

// Value returns the current media reference.
func (w *Widget) Value() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// SetValue replaces the reference, as when the owner re-renders with a new value.
func (w *Widget) SetValue(v string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.value = v
}

func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{State: w.state, Value: w.value, UI: w.ui}
}
