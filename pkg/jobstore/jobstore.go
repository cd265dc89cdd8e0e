// Package jobstore persists records of completed render jobs.
//
// Every successful render produces a Record: which camera rendered, from
// which stage, in which mode, where the artifacts landed, and the resolved
// camera geometry. Records let operators answer "what produced this file"
// long after the job's response was consumed.
//
// Backends:
//   - memory: in-process storage for development/testing
//   - file: JSON files in a directory for single-host deployments
//   - redis: Redis-backed storage for multi-instance deployments
//   - mongo: MongoDB-backed storage when records need rich querying
//
// Persistence is best-effort from the orchestrator's point of view: a store
// failure is logged, never surfaced to the render caller.
package jobstore

import (
	"context"
	"errors"
	"time"

	"github.com/rlei-miris/kit-render-service/pkg/camera"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
)

// Record describes one completed render job.
type Record struct {
	JobID      string `json:"job_id" bson:"_id"`
	CameraName string `json:"camera_name" bson:"camera_name"`
	StagePath  string `json:"stage_path" bson:"stage_path"`
	Mode       string `json:"mode" bson:"mode"`

	ColorImagePath string `json:"color_image_path" bson:"color_image_path"`
	DepthImagePath string `json:"depth_image_path" bson:"depth_image_path"`
	DepthArrayPath string `json:"depth_npy_path" bson:"depth_npy_path"`

	Camera camera.Info `json:"camera" bson:"camera"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Store is the interface for job record storage backends.
type Store interface {
	// Save stores a record, overwriting any record with the same JobID.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves a record by job ID.
	// Returns ErrNotFound if no such record exists.
	Get(ctx context.Context, jobID string) (*Record, error)

	// List returns up to limit records, newest first. limit <= 0 means
	// a backend-chosen default.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Close releases backend resources.
	Close() error
}

// DefaultListLimit is used by backends when List is called with limit <= 0.
const DefaultListLimit = 50
