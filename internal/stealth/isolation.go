package stealth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/runtime"
	"go.uber.org/zap"
)

// ContextHandle is an opaque reference to one isolated execution context,
// scoped to a single page/frame. Handles go stale when the page navigates or
// the frame detaches; the manager detects that lazily on use and recreates.
type ContextHandle struct {
	frame      cdp.FrameID
	worldName  string
	id         runtime.ExecutionContextID
	generation uint64
}

// ID returns the raw execution context id for transports that need it.
func (h *ContextHandle) ID() runtime.ExecutionContextID { return h.id }

// WorldName returns the display name the context was created under.
func (h *ContextHandle) WorldName() string { return h.worldName }

// IsolationManager owns the lifecycle of the stealth isolated context for one
// page. At most one such context exists per page at a time; EnsureContext is
// idempotent and re-validation happens lazily on evaluation failure rather
// than by trusting external detach notifications to arrive first.
type IsolationManager struct {
	mu         sync.Mutex
	session    PageSession
	logger     *zap.Logger
	handle     *ContextHandle
	generation uint64
}

// NewIsolationManager creates a manager bound to one page session.
func NewIsolationManager(session PageSession, logger *zap.Logger) *IsolationManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IsolationManager{
		session: session,
		logger:  logger.Named("isolation"),
	}
}

// EnsureContext returns the cached context handle if one exists, otherwise
// creates a fresh isolated world with a rotated, non-recognizable name.
func (m *IsolationManager) EnsureContext(ctx context.Context) (*ContextHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureContextLocked(ctx)
}

func (m *IsolationManager) ensureContextLocked(ctx context.Context) (*ContextHandle, error) {
	if m.handle != nil {
		return m.handle, nil
	}

	frame, err := m.session.MainFrame(ctx)
	if err != nil {
		return nil, newError(ErrContextCreationFailed, StageContextCreate, "resolving main frame", err)
	}

	worldName := newWorldName()
	id, err := m.session.CreateIsolatedWorld(ctx, frame, worldName)
	if err != nil {
		return nil, newError(ErrContextCreationFailed, StageContextCreate, "createIsolatedWorld", err)
	}

	m.generation++
	m.handle = &ContextHandle{
		frame:      frame,
		worldName:  worldName,
		id:         id,
		generation: m.generation,
	}
	m.logger.Debug("Created isolated execution context",
		zap.String("world", worldName),
		zap.Int64("contextID", int64(id)),
		zap.Uint64("generation", m.generation))
	return m.handle, nil
}

// Evaluate runs a script in the page's isolated context, creating the context
// first if needed. A stale handle (detached frame, destroyed context) is
// discarded and the evaluation retried once against a fresh context before
// the failure surfaces.
func (m *IsolationManager) Evaluate(ctx context.Context, script string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result, err := m.evaluateOnceLocked(ctx, script)
	if err == nil {
		return result, nil
	}

	var serr *Error
	if !errors.As(err, &serr) || serr.Kind != ErrContextInvalidated {
		return nil, err
	}

	// Transparent recreation: the invalidation itself is never the caller's
	// problem, only a second consecutive failure is.
	m.logger.Debug("Isolated context invalidated, recreating", zap.Error(err))
	m.handle = nil
	return m.evaluateOnceLocked(ctx, script)
}

func (m *IsolationManager) evaluateOnceLocked(ctx context.Context, script string) (json.RawMessage, error) {
	handle, err := m.ensureContextLocked(ctx)
	if err != nil {
		return nil, err
	}

	result, details, err := m.session.Evaluate(ctx, script, handle.id)
	if err != nil {
		if isContextGoneError(err) {
			m.handle = nil
			return nil, newError(ErrContextInvalidated, StageEvaluate, "context gone", err)
		}
		return nil, newError(ErrScriptEvaluationFailed, StageEvaluate, "transport", err)
	}
	if details != nil {
		return nil, newError(ErrScriptEvaluationFailed, StageEvaluate, exceptionText(details), nil)
	}
	return result, nil
}

// Invalidate drops the cached handle so the next call recreates the context.
// Called by owners that observe navigation or frame-detach events directly.
func (m *IsolationManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handle = nil
}

// Generation returns how many contexts have been created for this page.
func (m *IsolationManager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// isContextGoneError matches the error strings Chrome reports when an
// execution context id no longer resolves.
func isContextGoneError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "cannot find context") ||
		strings.Contains(msg, "context was destroyed") ||
		(strings.Contains(msg, "execution context") && strings.Contains(msg, "destroyed")) ||
		strings.Contains(msg, "no frame") ||
		strings.Contains(msg, "frame with the given id was not found") ||
		strings.Contains(msg, "detached")
}

func exceptionText(details *runtime.ExceptionDetails) string {
	if details == nil {
		return ""
	}
	if details.Exception != nil && details.Exception.Description != "" {
		return details.Exception.Description
	}
	return details.Text
}
