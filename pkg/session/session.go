// Package session holds the mutable per-service state the render operations
// share: the active stage and the selected renderer mode.
//
// The original design kept this as hidden process-wide state; here it is an
// explicit object passed to every operation, which turns the render
// precondition ("a stage must be open") into a simple field check and gives
// concurrent requests a consistent snapshot to validate against.
//
// # Usage
//
//	sess := session.New()
//	prev := sess.OpenStage(stage)   // returns the displaced stage for disposal
//	mode, err := session.ParseMode("interactive")
//	if err != nil {
//	    return err                   // UNRECOGNIZED_VALUE
//	}
//	sess.SetMode(mode)
//
//	st, mode := sess.Snapshot()     // atomic view for a render job
package session

import (
	"sync"

	"github.com/rlei-miris/kit-render-service/pkg/errors"
	"github.com/rlei-miris/kit-render-service/pkg/scene"
)

// Mode selects the renderer backend behavior. Exactly two modes exist;
// anything else is rejected at the boundary.
type Mode string

// Recognized renderer modes.
const (
	// ModePathTraced is the offline-quality path-traced mode. Its wire
	// value is "interactive", after the interactive path tracer it selects.
	ModePathTraced Mode = "PathTraced"

	// ModeRealTime is the real-time rasterized mode and the default.
	ModeRealTime Mode = "RealTimeInteractive"
)

// Wire values accepted by ParseMode.
const (
	WirePathTraced = "interactive"
	WireRealTime   = "realtime"
)

// ParseMode converts a wire value into a Mode. Unknown values fail with an
// UNRECOGNIZED_VALUE error; parsing happens at the boundary so the rest of
// the system only ever sees the two known modes.
func ParseMode(s string) (Mode, error) {
	switch s {
	case WirePathTraced:
		return ModePathTraced, nil
	case WireRealTime:
		return ModeRealTime, nil
	default:
		return "", errors.New(errors.ErrCodeUnrecognizedValue,
			"unrecognized renderer mode: %q (must be %q or %q)", s, WirePathTraced, WireRealTime)
	}
}

// WireValue returns the mode's wire representation.
func (m Mode) WireValue() string {
	if m == ModePathTraced {
		return WirePathTraced
	}
	return WireRealTime
}

// Session is the shared state consumed by render operations. All methods are
// safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	stage scene.Stage
	mode  Mode
}

// New creates a session with no active stage and the real-time mode.
func New() *Session {
	return &Session{mode: ModeRealTime}
}

// OpenStage replaces the active stage unconditionally and returns the
// displaced stage, if any, so the caller can dispose of it. No validation of
// the new stage happens here; load failures are the opener's concern.
func (s *Session) OpenStage(st scene.Stage) scene.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.stage
	s.stage = st
	return prev
}

// SetMode selects the renderer mode. Pure configuration: it does not touch
// the active stage, and repeating the same mode is a no-op.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// Stage returns the active stage, or nil when none is open.
func (s *Session) Stage() scene.Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage
}

// Mode returns the selected renderer mode.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Snapshot returns the active stage and mode as one atomic view. Render jobs
// validate against the snapshot, so a concurrent OpenStage cannot swap the
// stage out from under a job mid-flight.
func (s *Session) Snapshot() (scene.Stage, Mode) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stage, s.mode
}
