package humanoid

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/ccheshirecat/ghostoxide/api/schemas"
)

// CDPExecutor delivers input events to a chromedp tab through the CDP Input
// domain. The event models use the protocol's own strings, so translation is
// a direct cast plus optional parameters.
type CDPExecutor struct {
	tab context.Context
}

// NewCDPExecutor wraps an existing chromedp tab context.
func NewCDPExecutor(tab context.Context) *CDPExecutor {
	return &CDPExecutor{tab: tab}
}

func (e *CDPExecutor) run(ctx context.Context, action chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(e.tab, action) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DispatchMouseEvent sends one pointer event to the page.
func (e *CDPExecutor) DispatchMouseEvent(ctx context.Context, event schemas.MouseEventData) error {
	return e.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := input.DispatchMouseEvent(input.MouseType(event.Type), event.X, event.Y)
		if event.Button != "" {
			params = params.WithButton(input.MouseButton(event.Button))
		}
		if event.Buttons != 0 {
			params = params.WithButtons(event.Buttons)
		}
		if event.ClickCount != 0 {
			params = params.WithClickCount(event.ClickCount)
		}
		if event.Type == schemas.MouseWheel {
			params = params.WithDeltaX(event.DeltaX).WithDeltaY(event.DeltaY)
		}
		return params.Do(ctx)
	}))
}

// DispatchKeyEvent sends one keyboard event to the page.
func (e *CDPExecutor) DispatchKeyEvent(ctx context.Context, event schemas.KeyEventData) error {
	return e.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := input.DispatchKeyEvent(input.KeyType(event.Type))
		if event.Text != "" {
			params = params.WithText(event.Text)
		}
		if event.Key != "" {
			params = params.WithKey(event.Key)
		}
		if event.Code != "" {
			params = params.WithCode(event.Code)
		}
		if event.Modifiers != 0 {
			params = params.WithModifiers(input.Modifier(event.Modifiers))
		}
		return params.Do(ctx)
	}))
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
func (e *CDPExecutor) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
