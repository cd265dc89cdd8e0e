// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about render jobs, stage/configuration
// changes, and job store operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnJobStart(ctx, jobID, cameraName)
//	// ... run the job ...
//	observability.Render().OnJobComplete(ctx, jobID, cameraName, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the render orchestrator.
type RenderHooks interface {
	// OnJobStart records a render job entering the pipeline after validation.
	OnJobStart(ctx context.Context, jobID, cameraName string)

	// OnJobComplete records a render job leaving the pipeline, successfully
	// or not.
	OnJobComplete(ctx context.Context, jobID, cameraName string, duration time.Duration, err error)

	// OnArtifactsVerified records the artifact existence check passing.
	OnArtifactsVerified(ctx context.Context, jobID string, count int)
}

// =============================================================================
// Stage Hooks
// =============================================================================

// StageHooks receives events from stage and renderer configuration changes.
type StageHooks interface {
	// OnStageOpen records a stage being opened (replacing any prior stage).
	OnStageOpen(ctx context.Context, path string, replaced bool)

	// OnModeChange records a renderer mode selection.
	OnModeChange(ctx context.Context, mode string)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from job store operations.
type StoreHooks interface {
	// OnRecordSave records a job record write.
	OnRecordSave(ctx context.Context, backend, jobID string, err error)

	// OnRecordLoad records a job record read.
	OnRecordLoad(ctx context.Context, backend, jobID string, found bool)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnJobStart(context.Context, string, string)                          {}
func (NoopRenderHooks) OnJobComplete(context.Context, string, string, time.Duration, error) {}
func (NoopRenderHooks) OnArtifactsVerified(context.Context, string, int)                    {}

// NoopStageHooks is a no-op implementation of StageHooks.
type NoopStageHooks struct{}

func (NoopStageHooks) OnStageOpen(context.Context, string, bool) {}
func (NoopStageHooks) OnModeChange(context.Context, string)      {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnRecordSave(context.Context, string, string, error) {}
func (NoopStoreHooks) OnRecordLoad(context.Context, string, string, bool)  {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks RenderHooks = NoopRenderHooks{}
	stageHooks  StageHooks  = NoopStageHooks{}
	storeHooks  StoreHooks  = NoopStoreHooks{}
	hooksMu     sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any render jobs.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetStageHooks registers custom stage hooks.
// This should be called once at application startup.
func SetStageHooks(h StageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		stageHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store operations.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Stage returns the registered stage hooks.
func Stage() StageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return stageHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	stageHooks = NoopStageHooks{}
	storeHooks = NoopStoreHooks{}
}
