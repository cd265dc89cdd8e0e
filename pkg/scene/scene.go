// Package scene defines the scene-graph accessor capabilities the render
// service consumes, along with an in-memory stage implementation used by the
// development backend and by tests.
//
// The production scene-graph runtime is an external collaborator; this
// package only captures the narrow surface the service needs: open a stage,
// look up and define prims, read the stage's up-axis convention, and evaluate
// a prim's local-to-world transform. Parsing a full scene file format is
// explicitly out of scope.
package scene

import (
	"context"

	"github.com/rlei-miris/kit-render-service/pkg/mat4"
)

// UpAxis is the stage's declared up-axis convention. Scene authoring tools
// may author either convention; the renderer's camera math assumes Y-up, so
// Z-up stages need an orientation correction during camera resolution.
type UpAxis string

// Recognized up-axis conventions.
const (
	UpAxisY UpAxis = "Y"
	UpAxisZ UpAxis = "Z"
)

// TimeCode selects a time sample for attribute and transform evaluation.
type TimeCode float64

// DefaultTime is the default (unvarying) time sample.
const DefaultTime TimeCode = 0

// Stage is the loaded scene-graph document representing a 3D scene.
type Stage interface {
	// Path returns the location the stage was opened from.
	Path() string

	// UpAxis returns the stage's declared up-axis convention.
	UpAxis() UpAxis

	// PrimAtPath looks up a prim by its scene-graph path.
	PrimAtPath(path string) (Prim, bool)

	// DefineCamera creates (or overwrites) a camera prim at the given path.
	DefineCamera(path string, spec CameraSpec) (Camera, error)
}

// Closer is implemented by stages that hold releasable resources. The server
// closes a displaced stage when a new one is opened over it.
type Closer interface {
	Close() error
}

// Prim is a named node in the scene graph.
type Prim interface {
	// Path returns the prim's scene-graph path.
	Path() string

	// TypeName returns the prim's schema type (e.g. "Camera").
	TypeName() string

	// Stage returns the stage the prim belongs to.
	Stage() Stage

	// LocalToWorld evaluates the prim's local-to-world transform at the
	// given time sample.
	LocalToWorld(tc TimeCode) mat4.Mat4
}

// Camera is a camera prim. Apertures and focal length are in the usual
// physical-camera units (millimeter sensor analogue); the exact unit does not
// matter to the resolver, only the ratios do.
type Camera interface {
	Prim

	FocalLength() float64
	HorizontalAperture() float64
	VerticalAperture() float64

	// SetVerticalAperture writes the vertical aperture back to the prim.
	// Aperture conformance is an observable mutation of the scene, not a
	// local copy.
	SetVerticalAperture(v float64)

	// ClippingRange returns the near and far clip distances.
	ClippingRange() (near, far float64)
}

// CameraSpec carries the authored parameters for a new camera prim.
// Rotation is Euler angles in degrees, applied in XYZ order.
type CameraSpec struct {
	Position           [3]float64
	RotationXYZ        [3]float64
	FocalLength        float64
	HorizontalAperture float64
	VerticalAperture   float64
	NearClip           float64
	FarClip            float64
}

// Opener loads a stage from a file location. Implementations surface their
// own load failures; the service propagates them unchanged.
type Opener interface {
	Open(ctx context.Context, path string) (Stage, error)
}

// Default clip range for cameras that do not specify one.
const (
	DefaultNearClip = 1.0
	DefaultFarClip  = 1000000.0
)
