package stealth

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"go.uber.org/zap"
)

// ApplyState is the per-page profile application state.
type ApplyState string

const (
	StateUnapplied ApplyState = "unapplied"
	StateApplying  ApplyState = "applying"
	StateApplied   ApplyState = "applied"
	StateFailed    ApplyState = "failed"
)

// Synchronizer orchestrates applying a fingerprint profile to pages. Each
// page gets its own isolation manager and new-document registration; pages
// are fully independent of each other, so applications for different pages
// can proceed concurrently.
type Synchronizer struct {
	mu     sync.Mutex
	logger *zap.Logger
	verify bool
	pages  map[string]*pageState
}

type pageState struct {
	mu         sync.Mutex
	state      ApplyState
	profile    *Profile
	manager    *IsolationManager
	scriptID   page.ScriptIdentifier
	appliedGen uint64
}

// NewSynchronizer creates a synchronizer. When verify is true, every
// application reads back a couple of properties through the isolated context
// and compares them to the profile.
func NewSynchronizer(logger *zap.Logger, verify bool) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		logger: logger.Named("stealth"),
		verify: verify,
		pages:  make(map[string]*pageState),
	}
}

// State reports the application state for a page.
func (s *Synchronizer) State(session PageSession) ApplyState {
	ps := s.pageState(session)
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.state
}

// Manager exposes the page's isolation manager so owners can run further
// stealth evaluations in the same world.
func (s *Synchronizer) Manager(session PageSession) *IsolationManager {
	ps := s.pageState(session)
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.manager == nil {
		ps.manager = NewIsolationManager(session, s.logger)
	}
	return ps.manager
}

func (s *Synchronizer) pageState(session PageSession) *pageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.pages[session.TargetID()]
	if !ok {
		ps = &pageState{state: StateUnapplied}
		s.pages[session.TargetID()] = ps
	}
	return ps
}

// ApplyProfile installs the profile's bootstrap on the page so it runs at the
// start of every document the page creates from now on, and applies it to the
// page's isolated context immediately.
//
// Callers must invoke this before navigating to the target URL; fingerprint
// properties have to be in place before any site script runs. A page that
// already finished loading a non-blank document is rejected with
// ErrAppliedTooLate rather than silently applied.
//
// Calling ApplyProfile again with an unchanged profile after a successful
// application is a no-op: the registration and context are reused.
func (s *Synchronizer) ApplyProfile(ctx context.Context, session PageSession, profile Profile) error {
	ps := s.pageState(session)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.state == StateApplied && ps.profile != nil && profilesEqual(*ps.profile, profile) {
		// Re-applying an unchanged profile is a no-op as long as the context
		// that carried the first application is still alive. The trivial
		// probe below recreates the context transparently if the frame was
		// detached in the meantime; a generation bump then forces a full
		// re-application against the fresh context.
		if _, err := ps.manager.Evaluate(ctx, "1"); err == nil &&
			ps.manager.Generation() == ps.appliedGen {
			s.logger.Debug("Profile already applied, skipping", zap.String("target", session.TargetID()))
			return nil
		}
	}

	ps.state = StateApplying

	if err := s.checkNavigationState(ctx, session); err != nil {
		ps.state = StateFailed
		return err
	}

	if ps.manager == nil {
		ps.manager = NewIsolationManager(session, s.logger)
	}
	if _, err := ps.manager.EnsureContext(ctx); err != nil {
		ps.state = StateFailed
		return err
	}

	script, err := BuildBootstrap(profile)
	if err != nil {
		ps.state = StateFailed
		return newError(ErrScriptEvaluationFailed, StageRegister, "building bootstrap", err)
	}

	// Every navigation creates a fresh main-world global, so a one-shot
	// evaluation would stop mattering at the first document change. The
	// registration below re-runs the bootstrap at the start of each new
	// document instead.
	if err := s.registerBootstrap(ctx, session, ps, script); err != nil {
		ps.state = StateFailed
		return err
	}

	// Run the bootstrap in the isolated world too, covering the current
	// document and making the world's own view match for verification.
	if _, err := ps.manager.Evaluate(ctx, script); err != nil {
		ps.state = StateFailed
		return err
	}

	if s.verify {
		if err := s.verifyProfile(ctx, ps, profile); err != nil {
			ps.state = StateFailed
			return err
		}
	}

	p := profile
	ps.profile = &p
	ps.appliedGen = ps.manager.Generation()
	ps.state = StateApplied
	s.logger.Info("Fingerprint profile applied",
		zap.String("target", session.TargetID()),
		zap.String("platform", profile.Platform),
		zap.String("gpu", string(profile.GPU)))
	return nil
}

func (s *Synchronizer) checkNavigationState(ctx context.Context, session PageSession) error {
	url, loaded, err := session.NavigationState(ctx)
	if err != nil {
		// Navigation state is advisory; a transport hiccup here should not
		// block an otherwise valid early application.
		s.logger.Debug("Could not read navigation state", zap.Error(err))
		return nil
	}
	if loaded && url != "" && url != "about:blank" {
		return newError(ErrAppliedTooLate, StagePrecondition,
			fmt.Sprintf("document already loaded: %s", url), nil)
	}
	return nil
}

func (s *Synchronizer) registerBootstrap(ctx context.Context, session PageSession, ps *pageState, script string) error {
	if ps.scriptID != "" {
		if err := session.RemoveScriptOnNewDocument(ctx, ps.scriptID); err != nil {
			s.logger.Debug("Could not remove stale bootstrap registration", zap.Error(err))
		}
		ps.scriptID = ""
	}
	// Registered without a world name: the bootstrap must run in the main
	// world, before site scripts, for the overrides to be what the page sees.
	id, err := session.AddScriptOnNewDocument(ctx, script, "")
	if err != nil {
		return newError(ErrScriptEvaluationFailed, StageRegister, "addScriptToEvaluateOnNewDocument", err)
	}
	ps.scriptID = id
	return nil
}

func (s *Synchronizer) verifyProfile(ctx context.Context, ps *pageState, profile Profile) error {
	raw, err := ps.manager.Evaluate(ctx, verificationProbe)
	if err != nil {
		return newError(ErrVerificationFailed, StageVerify, "probe evaluation", err)
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return newError(ErrVerificationFailed, StageVerify, "decoding probe result", err)
	}
	var got struct {
		Platform            string `json:"platform"`
		HardwareConcurrency int    `json:"hardwareConcurrency"`
	}
	if err := json.Unmarshal([]byte(encoded), &got); err != nil {
		return newError(ErrVerificationFailed, StageVerify, "decoding probe payload", err)
	}

	var mismatches []string
	if profile.Platform != "" && got.Platform != profile.Platform {
		mismatches = append(mismatches, "platform="+got.Platform)
	}
	if profile.HardwareConcurrency > 0 && got.HardwareConcurrency != profile.HardwareConcurrency {
		mismatches = append(mismatches, "hardwareConcurrency="+strconv.Itoa(got.HardwareConcurrency))
	}
	if len(mismatches) > 0 {
		return newError(ErrVerificationFailed, StageVerify, strings.Join(mismatches, ", "), nil)
	}
	return nil
}

func profilesEqual(a, b Profile) bool {
	return reflect.DeepEqual(a, b)
}
