package ghost

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccheshirecat/ghostoxide/api/schemas"
	"github.com/ccheshirecat/ghostoxide/internal/humanoid"
	"github.com/ccheshirecat/ghostoxide/internal/mocks"
	"github.com/ccheshirecat/ghostoxide/internal/stealth"
)

func newTestPage(t *testing.T) (*GhostPage, *mocks.FakePageSession, *mocks.RecordingExecutor) {
	t.Helper()
	session := mocks.NewFakePageSession()
	profile := stealth.Windows().Build()
	session.EvalFunc = func(expression string, _ runtime.ExecutionContextID) (json.RawMessage, error) {
		if strings.HasPrefix(expression, "(() => JSON.stringify(") {
			inner, _ := json.Marshal(map[string]any{
				"platform":            profile.Platform,
				"hardwareConcurrency": profile.HardwareConcurrency,
			})
			quoted, _ := json.Marshal(string(inner))
			return quoted, nil
		}
		return json.RawMessage("null"), nil
	}

	exec := mocks.NewRecordingExecutor()
	page := NewWithTransport(session, exec, profile, humanoid.NewTestEngine(42), nil)
	return page, session, exec
}

// overridingSession augments the fake with the emulation override hook the
// CDP transport exposes.
type overridingSession struct {
	*mocks.FakePageSession
	overrideCalls int
}

func (s *overridingSession) ApplyEnvironmentOverrides(ctx context.Context, profile stealth.Profile) error {
	s.overrideCalls++
	return nil
}

func TestApplyProfileInstallsBootstrap(t *testing.T) {
	page, session, _ := newTestPage(t)

	require.NoError(t, page.ApplyProfile(context.Background()))
	require.Len(t, session.Scripts(), 1)
	for _, src := range session.Scripts() {
		assert.Contains(t, src, "webdriver")
	}
}

func TestApplyProfileAppliesOverridesAfterSyncAccepts(t *testing.T) {
	session := &overridingSession{FakePageSession: mocks.NewFakePageSession()}
	profile := stealth.Windows().Build()
	session.EvalFunc = func(expression string, _ runtime.ExecutionContextID) (json.RawMessage, error) {
		if strings.HasPrefix(expression, "(() => JSON.stringify(") {
			inner, _ := json.Marshal(map[string]any{
				"platform":            profile.Platform,
				"hardwareConcurrency": profile.HardwareConcurrency,
			})
			quoted, _ := json.Marshal(string(inner))
			return quoted, nil
		}
		return json.RawMessage("null"), nil
	}
	page := NewWithTransport(session, mocks.NewRecordingExecutor(), profile,
		humanoid.NewTestEngine(1), nil)

	require.NoError(t, page.ApplyProfile(context.Background()))
	assert.Equal(t, 1, session.overrideCalls)
}

func TestApplyProfileTooLateLeavesEnvironmentUntouched(t *testing.T) {
	session := &overridingSession{FakePageSession: mocks.NewFakePageSession()}
	session.Loaded = true
	session.URL = "https://example.com/"
	profile := stealth.Windows().Build()
	page := NewWithTransport(session, mocks.NewRecordingExecutor(), profile,
		humanoid.NewTestEngine(1), nil)

	err := page.ApplyProfile(context.Background())
	require.ErrorIs(t, err, stealth.ErrAppliedTooLate)
	assert.Zero(t, session.overrideCalls, "a rejected page must keep its emulation state")
	assert.Empty(t, session.Scripts())
}

func TestEvaluateStealthUsesIsolatedWorld(t *testing.T) {
	page, session, _ := newTestPage(t)

	_, err := page.EvaluateStealth(context.Background(), "document.title")
	require.NoError(t, err)

	names := session.WorldNames()
	require.Len(t, names, 1)
	assert.NotContains(t, names[0], "puppeteer")
}

func TestClickHumanEndsWithPressRelease(t *testing.T) {
	page, _, exec := newTestPage(t)

	require.NoError(t, page.ClickHuman(context.Background(), 320, 240))

	events := exec.Events()
	require.GreaterOrEqual(t, len(events), 4, "a click must ride on a movement")

	last, prev := events[len(events)-1], events[len(events)-2]
	require.NotNil(t, prev.Mouse)
	require.NotNil(t, last.Mouse)
	assert.Equal(t, schemas.MousePress, prev.Mouse.Type)
	assert.Equal(t, schemas.MouseRelease, last.Mouse.Type)
	assert.Equal(t, schemas.ButtonLeft, last.Mouse.Button)
	assert.EqualValues(t, 1, last.Mouse.ClickCount)

	// Press and release land where the movement ended.
	assert.Equal(t, page.Position().X, last.Mouse.X)
	assert.Equal(t, page.Position().Y, last.Mouse.Y)
}

func TestMoveMouseHumanLandsNearTarget(t *testing.T) {
	page, _, _ := newTestPage(t)

	require.NoError(t, page.MoveMouseHuman(context.Background(), 500, 400))

	pos := page.Position()
	jitter := page.Engine().Config().JitterPx
	assert.InDelta(t, 500, pos.X, jitter)
	assert.InDelta(t, 400, pos.Y, jitter)
}

func TestTypeTextDeliversExactCharacters(t *testing.T) {
	page, _, exec := newTestPage(t)

	const text = "hello world"
	require.NoError(t, page.TypeText(context.Background(), text))

	var typed strings.Builder
	for _, ev := range exec.Events() {
		if ev.Key != nil && ev.Key.Type == schemas.KeyDown && ev.Key.Text != "" {
			typed.WriteString(ev.Key.Text)
		}
	}
	assert.Equal(t, text, typed.String())
}

func TestPressKeyRejectsUnknownNames(t *testing.T) {
	page, _, exec := newTestPage(t)

	err := page.PressKey(context.Background(), "Hyperspace")
	require.Error(t, err)
	assert.Empty(t, exec.Events())

	require.NoError(t, page.PressKey(context.Background(), "Enter"))
	events := exec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Enter", events[0].Key.Key)
}

func TestScrollHumanDispatchesWheelTicks(t *testing.T) {
	page, _, exec := newTestPage(t)

	require.NoError(t, page.ScrollHuman(context.Background(), 720))

	var total float64
	for _, ev := range exec.Events() {
		require.NotNil(t, ev.Mouse)
		assert.Equal(t, schemas.MouseWheel, ev.Mouse.Type)
		total += ev.Mouse.DeltaY
	}
	assert.InDelta(t, 720, total, 1e-6)
}

func TestCancelledInteractionReportsAbort(t *testing.T) {
	page, _, _ := newTestPage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := page.MoveMouseHuman(ctx, 600, 500)
	require.Error(t, err)
	assert.ErrorIs(t, err, humanoid.ErrSequenceAborted)
}
