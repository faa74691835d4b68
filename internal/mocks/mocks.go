// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"

	"github.com/ccheshirecat/ghostoxide/api/schemas"
)

// -- Page Session Fake --

// FakePageSession is a stateful in-memory stand-in for a CDP page session.
// It hands out execution context ids, remembers registered new-document
// scripts, and lets tests trigger context loss and evaluation failures.
type FakePageSession struct {
	mu sync.Mutex

	Target    string
	Frame     cdp.FrameID
	URL       string
	Loaded    bool
	NavErr    error
	CreateErr error

	// EvalFunc, when set, decides each evaluation's result. Otherwise
	// evaluations echo "null".
	EvalFunc func(expression string, id runtime.ExecutionContextID) (json.RawMessage, error)

	nextContextID runtime.ExecutionContextID
	liveContexts  map[runtime.ExecutionContextID]bool
	nextScriptID  int
	scripts       map[page.ScriptIdentifier]string
	worldNames    []string

	CreateCalls int
	EvalCalls   int
}

func NewFakePageSession() *FakePageSession {
	return &FakePageSession{
		Target:       "fake-target",
		Frame:        cdp.FrameID("frame-1"),
		URL:          "about:blank",
		liveContexts: map[runtime.ExecutionContextID]bool{},
		scripts:      map[page.ScriptIdentifier]string{},
	}
}

func (f *FakePageSession) TargetID() string { return f.Target }

func (f *FakePageSession) MainFrame(ctx context.Context) (cdp.FrameID, error) {
	return f.Frame, nil
}

func (f *FakePageSession) CreateIsolatedWorld(ctx context.Context, frame cdp.FrameID, worldName string) (runtime.ExecutionContextID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return 0, f.CreateErr
	}
	f.nextContextID++
	id := f.nextContextID
	f.liveContexts[id] = true
	f.worldNames = append(f.worldNames, worldName)
	return id, nil
}

func (f *FakePageSession) Evaluate(ctx context.Context, expression string, id runtime.ExecutionContextID) (json.RawMessage, *runtime.ExceptionDetails, error) {
	f.mu.Lock()
	live := f.liveContexts[id]
	f.EvalCalls++
	fn := f.EvalFunc
	f.mu.Unlock()

	if !live {
		return nil, nil, errors.New("Cannot find context with specified id")
	}
	if fn != nil {
		res, err := fn(expression, id)
		return res, nil, err
	}
	return json.RawMessage("null"), nil, nil
}

func (f *FakePageSession) AddScriptOnNewDocument(ctx context.Context, source, worldName string) (page.ScriptIdentifier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextScriptID++
	id := page.ScriptIdentifier(string(rune('A' + f.nextScriptID)))
	f.scripts[id] = source
	return id, nil
}

func (f *FakePageSession) RemoveScriptOnNewDocument(ctx context.Context, id page.ScriptIdentifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scripts, id)
	return nil
}

func (f *FakePageSession) NavigationState(ctx context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.URL, f.Loaded, f.NavErr
}

// DetachAll simulates the frame being detached: every live context dies.
func (f *FakePageSession) DetachAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.liveContexts {
		delete(f.liveContexts, id)
	}
}

// WorldNames returns the names used for every created world, in order.
func (f *FakePageSession) WorldNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.worldNames...)
}

// Scripts returns the currently registered new-document scripts.
func (f *FakePageSession) Scripts() map[page.ScriptIdentifier]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[page.ScriptIdentifier]string, len(f.scripts))
	for k, v := range f.scripts {
		out[k] = v
	}
	return out
}

// -- Input Executor Fake --

// RecordedEvent is one input event the executor saw, tagged with the virtual
// time at which it was dispatched.
type RecordedEvent struct {
	Mouse *schemas.MouseEventData
	Key   *schemas.KeyEventData
	At    time.Duration
}

// RecordingExecutor captures dispatched events without touching a browser.
// Sleeps advance a virtual clock instead of blocking, so timing assertions
// run instantly. FailAfter, when non-negative, makes every dispatch past the
// first N fail.
type RecordingExecutor struct {
	mu          sync.Mutex
	clock       time.Duration
	events      []RecordedEvent
	FailAfter   int
	DispatchErr error
}

func NewRecordingExecutor() *RecordingExecutor {
	return &RecordingExecutor{FailAfter: -1}
}

func (r *RecordingExecutor) DispatchMouseEvent(ctx context.Context, event schemas.MouseEventData) error {
	return r.record(ctx, RecordedEvent{Mouse: &event})
}

func (r *RecordingExecutor) DispatchKeyEvent(ctx context.Context, event schemas.KeyEventData) error {
	return r.record(ctx, RecordedEvent{Key: &event})
}

func (r *RecordingExecutor) record(ctx context.Context, ev RecordedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAfter >= 0 && len(r.events) >= r.FailAfter {
		if r.DispatchErr != nil {
			return r.DispatchErr
		}
		return errors.New("dispatch refused")
	}
	ev.At = r.clock
	r.events = append(r.events, ev)
	return nil
}

func (r *RecordingExecutor) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock += d
	return nil
}

// Events returns everything dispatched so far.
func (r *RecordingExecutor) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent(nil), r.events...)
}

// Clock returns the accumulated virtual time.
func (r *RecordingExecutor) Clock() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock
}
