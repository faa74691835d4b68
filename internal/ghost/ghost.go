// Package ghost ties the fingerprint and input layers together behind one
// page-scoped facade. A GhostPage owns a stealth session and a humanoid
// engine for a single tab; callers apply a profile once, then drive the page
// with human-shaped interactions.
package ghost

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ccheshirecat/ghostoxide/api/schemas"
	"github.com/ccheshirecat/ghostoxide/internal/humanoid"
	"github.com/ccheshirecat/ghostoxide/internal/stealth"
)

// environmentOverrider is implemented by transports that can push emulation
// overrides alongside the JS bootstrap. Test doubles usually cannot.
type environmentOverrider interface {
	ApplyEnvironmentOverrides(ctx context.Context, profile stealth.Profile) error
}

// namedKeys is the set PressKey accepts.
var namedKeys = map[string]bool{
	"Enter": true, "Tab": true, "Escape": true, "Backspace": true,
	"Delete": true, "Home": true, "End": true, "PageUp": true,
	"PageDown": true, "ArrowUp": true, "ArrowDown": true,
	"ArrowLeft": true, "ArrowRight": true,
}

// GhostPage is a stealth-hardened page handle: one browser tab with a
// fingerprint profile applied and an input pipeline that only produces
// physically plausible event streams.
type GhostPage struct {
	session    stealth.PageSession
	sync       *stealth.Synchronizer
	engine     *humanoid.Engine
	dispatcher *humanoid.Dispatcher
	logger     *zap.Logger
	profile    stealth.Profile
}

// New creates a GhostPage for a chromedp tab context, wiring the CDP
// transport for both the stealth and input layers. When verify is set the
// synchronizer reads fingerprint properties back after each application.
func New(tab context.Context, profile stealth.Profile, cfg humanoid.Config, verify bool, logger *zap.Logger) *GhostPage {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine := humanoid.New(cfg, logger)
	return &GhostPage{
		session:    stealth.NewCDPSession(tab),
		sync:       stealth.NewSynchronizer(logger, verify),
		engine:     engine,
		dispatcher: humanoid.NewDispatcher(humanoid.NewCDPExecutor(tab), logger),
		logger:     logger.Named("ghost"),
		profile:    profile,
	}
}

// NewWithTransport creates a GhostPage over injected transports. Used by
// tests and by callers that multiplex sessions themselves.
func NewWithTransport(session stealth.PageSession, exec humanoid.Executor, profile stealth.Profile, engine *humanoid.Engine, logger *zap.Logger) *GhostPage {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = humanoid.New(humanoid.DefaultConfig(), logger)
	}
	return &GhostPage{
		session:    session,
		sync:       stealth.NewSynchronizer(logger, true),
		engine:     engine,
		dispatcher: humanoid.NewDispatcher(exec, logger),
		logger:     logger.Named("ghost"),
		profile:    profile,
	}
}

// Profile returns the fingerprint profile this page was created with.
func (g *GhostPage) Profile() stealth.Profile { return g.profile }

// Engine exposes the planning engine, mainly so callers can inspect pacing
// configuration.
func (g *GhostPage) Engine() *humanoid.Engine { return g.engine }

// ApplyProfile installs the fingerprint profile on the page: the JS bootstrap
// via the synchronizer first, then emulation overrides when the transport
// supports them. Must run before navigating to the target site.
//
// The synchronizer goes first so a page that is already past the point of
// safe application is rejected untouched, with no emulation state mutated.
func (g *GhostPage) ApplyProfile(ctx context.Context) error {
	if err := g.sync.ApplyProfile(ctx, g.session, g.profile); err != nil {
		return err
	}
	if eo, ok := g.session.(environmentOverrider); ok {
		if err := eo.ApplyEnvironmentOverrides(ctx, g.profile); err != nil {
			return fmt.Errorf("applying emulation overrides: %w", err)
		}
	}
	return nil
}

// EvaluateStealth runs an expression in the page's isolated world, never
// touching the Runtime domain's enable machinery. The result arrives as the
// JSON value the expression produced.
func (g *GhostPage) EvaluateStealth(ctx context.Context, expression string) (json.RawMessage, error) {
	return g.sync.Manager(g.session).Evaluate(ctx, expression)
}

// Position returns the current virtual cursor position.
func (g *GhostPage) Position() humanoid.Vector2D {
	return g.dispatcher.Position()
}

// MoveMouseHuman moves the cursor to (x, y) along a curved, velocity-shaped
// path. The actual landing point differs from the request by a small random
// offset, like a real hand does.
func (g *GhostPage) MoveMouseHuman(ctx context.Context, x, y float64) error {
	target := g.engine.JitterTarget(humanoid.Vector2D{X: x, Y: y})
	traj := g.engine.PlanMove(g.dispatcher.Position(), target)
	return g.dispatcher.DispatchTrajectory(ctx, traj, 0)
}

// Click presses and releases the left button at the current cursor position
// with a randomized hold, without moving first.
func (g *GhostPage) Click(ctx context.Context) error {
	return g.pressRelease(ctx, g.dispatcher.Position())
}

// ClickHuman moves to (x, y) like MoveMouseHuman, pauses briefly the way a
// person confirms a target, then clicks.
func (g *GhostPage) ClickHuman(ctx context.Context, x, y float64) error {
	if err := g.MoveMouseHuman(ctx, x, y); err != nil {
		return err
	}
	if err := g.sleep(ctx, g.engine.PreClickPause()); err != nil {
		return err
	}
	return g.pressRelease(ctx, g.dispatcher.Position())
}

func (g *GhostPage) pressRelease(ctx context.Context, pos humanoid.Vector2D) error {
	press := schemas.MouseEventData{
		Type:       schemas.MousePress,
		X:          pos.X,
		Y:          pos.Y,
		Button:     schemas.ButtonLeft,
		Buttons:    1,
		ClickCount: 1,
	}
	release := press
	release.Type = schemas.MouseRelease
	release.Buttons = 0

	if err := g.dispatcher.DispatchMouse(ctx, press); err != nil {
		return err
	}
	if err := g.sleep(ctx, g.engine.ClickHold()); err != nil {
		return err
	}
	return g.dispatcher.DispatchMouse(ctx, release)
}

// TypeText types text with human rhythm but no mistakes.
func (g *GhostPage) TypeText(ctx context.Context, text string) error {
	return g.dispatcher.DispatchKeystrokes(ctx, g.engine.PlanTypingExact(text))
}

// TypeTextWithTypos types text with human rhythm and occasional corrected
// typos; the text that ends up in the page is always exactly text.
func (g *GhostPage) TypeTextWithTypos(ctx context.Context, text string) error {
	return g.dispatcher.DispatchKeystrokes(ctx, g.engine.PlanTyping(text))
}

// PressKey presses a named control key such as "Enter" or "ArrowDown".
func (g *GhostPage) PressKey(ctx context.Context, key string) error {
	if !namedKeys[key] {
		return fmt.Errorf("unsupported key %q", key)
	}
	return g.dispatcher.DispatchKeystrokes(ctx, g.engine.PlanKeyPress(key))
}

// ScrollHuman scrolls vertically by deltaY pixels in eased wheel ticks.
// Positive deltas scroll down.
func (g *GhostPage) ScrollHuman(ctx context.Context, deltaY float64) error {
	return g.dispatcher.DispatchScroll(ctx, g.engine.PlanScroll(deltaY))
}

// Rest tells the fatigue model the user idled, letting precision recover.
func (g *GhostPage) Rest(d time.Duration) {
	g.engine.Rest(d)
}

func (g *GhostPage) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
