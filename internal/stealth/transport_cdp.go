package stealth

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// CDPSession adapts a chromedp tab context to the PageSession interface. The
// context must come from chromedp.NewContext; every call runs its CDP command
// on that tab's executor.
//
// Note what is absent here: Runtime.enable. Context ids are taken from the
// createIsolatedWorld response itself, so the Runtime domain stays untouched
// and its observable instrumentation side effects never happen.
type CDPSession struct {
	tab context.Context
}

// NewCDPSession wraps an existing chromedp tab context.
func NewCDPSession(tab context.Context) *CDPSession {
	return &CDPSession{tab: tab}
}

// TargetID returns the tab's target identifier.
func (s *CDPSession) TargetID() string {
	if c := chromedp.FromContext(s.tab); c != nil && c.Target != nil {
		return string(c.Target.TargetID)
	}
	return "unknown"
}

func (s *CDPSession) run(ctx context.Context, action chromedp.Action) error {
	tab := s.tab
	if ctx != nil {
		// Honor the caller's deadline/cancellation while still executing
		// against the tab's transport.
		done := make(chan error, 1)
		go func() { done <- chromedp.Run(tab, action) }()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return chromedp.Run(tab, action)
}

// MainFrame resolves the page's top-level frame id.
func (s *CDPSession) MainFrame(ctx context.Context) (cdp.FrameID, error) {
	var frameID cdp.FrameID
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		frameID = tree.Frame.ID
		return nil
	}))
	return frameID, err
}

// CreateIsolatedWorld creates a secondary execution context in the frame.
func (s *CDPSession) CreateIsolatedWorld(ctx context.Context, frame cdp.FrameID, worldName string) (runtime.ExecutionContextID, error) {
	var id runtime.ExecutionContextID
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		id, err = page.CreateIsolatedWorld(frame).
			WithWorldName(worldName).
			WithGrantUniveralAccess(true).
			Do(ctx)
		return err
	}))
	return id, err
}

// Evaluate runs an expression in the given execution context.
func (s *CDPSession) Evaluate(ctx context.Context, expression string, id runtime.ExecutionContextID) (json.RawMessage, *runtime.ExceptionDetails, error) {
	var result json.RawMessage
	var details *runtime.ExceptionDetails
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err := runtime.Evaluate(expression).
			WithContextID(id).
			WithReturnByValue(true).
			WithAwaitPromise(true).
			Do(ctx)
		if err != nil {
			return err
		}
		details = exc
		if obj != nil {
			result = json.RawMessage(obj.Value)
		}
		return nil
	}))
	return result, details, err
}

// AddScriptOnNewDocument registers a script to run at every new document.
func (s *CDPSession) AddScriptOnNewDocument(ctx context.Context, source, worldName string) (page.ScriptIdentifier, error) {
	var id page.ScriptIdentifier
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.AddScriptToEvaluateOnNewDocument(source)
		if worldName != "" {
			params = params.WithWorldName(worldName)
		}
		var err error
		id, err = params.Do(ctx)
		return err
	}))
	return id, err
}

// RemoveScriptOnNewDocument unregisters a new-document script.
func (s *CDPSession) RemoveScriptOnNewDocument(ctx context.Context, id page.ScriptIdentifier) error {
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.RemoveScriptToEvaluateOnNewDocument(id).Do(ctx)
	}))
}

// NavigationState reports the current entry URL and whether a document
// finished loading. Reading navigation history avoids evaluating anything in
// the page, so the check itself leaves no trace.
func (s *CDPSession) NavigationState(ctx context.Context) (string, bool, error) {
	var url string
	var loaded bool
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		index, entries, err := page.GetNavigationHistory().Do(ctx)
		if err != nil {
			return err
		}
		if index >= 0 && int(index) < len(entries) {
			url = entries[index].URL
			loaded = !strings.HasPrefix(url, "about:") && url != ""
		}
		return nil
	}))
	return url, loaded, err
}

// ApplyEnvironmentOverrides pushes the profile's UA, locale, timezone and
// device metrics through the Emulation domain. The JS bootstrap handles what
// scripts read; these overrides keep the network and rendering surfaces
// consistent with it.
func (s *CDPSession) ApplyEnvironmentOverrides(ctx context.Context, profile Profile) error {
	return s.run(ctx, chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetUserAgentOverride(profile.UserAgent).
				WithPlatform(profile.Platform).
				WithAcceptLanguage(strings.Join(profile.Languages, ",")).
				Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if profile.Timezone == "" {
				return nil
			}
			return emulation.SetTimezoneOverride(profile.Timezone).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if profile.Locale == "" {
				return nil
			}
			return emulation.SetLocaleOverride().WithLocale(strings.ReplaceAll(profile.Locale, "_", "-")).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			vp := profile.Viewport
			if vp.Width <= 0 || vp.Height <= 0 {
				return nil
			}
			dpr := vp.DevicePixelRatio
			if dpr <= 0 {
				dpr = 1.0
			}
			return emulation.SetDeviceMetricsOverride(vp.Width, vp.Height, dpr, false).Do(ctx)
		}),
	})
}
