package stealth

import (
	"context"
	"encoding/json"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
)

// PageSession is the slice of the external CDP session layer this package
// consumes. The production implementation is CDPSession; tests use fakes.
//
// Nothing here touches the Runtime domain's enable call or the page's main
// world: context creation goes through Page.createIsolatedWorld, which hands
// back the execution context id in its response, and evaluation targets that
// id explicitly.
type PageSession interface {
	// TargetID uniquely identifies the page for handle caching.
	TargetID() string

	// MainFrame returns the page's top-level frame id.
	MainFrame(ctx context.Context) (cdp.FrameID, error)

	// CreateIsolatedWorld creates a secondary execution context in the frame
	// under the given display name and returns its context id.
	CreateIsolatedWorld(ctx context.Context, frame cdp.FrameID, worldName string) (runtime.ExecutionContextID, error)

	// Evaluate runs an expression inside the given context. A thrown JS
	// exception is returned through details with a nil error; err is reserved
	// for transport-level failures.
	Evaluate(ctx context.Context, expression string, id runtime.ExecutionContextID) (result json.RawMessage, details *runtime.ExceptionDetails, err error)

	// AddScriptOnNewDocument registers source to run automatically at the
	// start of every new document in the named world.
	AddScriptOnNewDocument(ctx context.Context, source, worldName string) (page.ScriptIdentifier, error)

	// RemoveScriptOnNewDocument unregisters a previously added script.
	RemoveScriptOnNewDocument(ctx context.Context, id page.ScriptIdentifier) error

	// NavigationState reports the current document URL and whether the page
	// has finished loading a document.
	NavigationState(ctx context.Context) (url string, loaded bool, err error)
}
