package scene

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"sync"

	"github.com/rlei-miris/kit-render-service/pkg/errors"
	"github.com/rlei-miris/kit-render-service/pkg/mat4"
)

// MemStage is an in-memory Stage implementation. It backs the development
// render backend and the test suite; a production deployment substitutes the
// real scene-graph runtime behind the same interfaces.
type MemStage struct {
	mu     sync.RWMutex
	path   string
	upAxis UpAxis
	prims  map[string]Prim
	closed bool
}

// NewStage creates an empty in-memory stage with the given source path and
// up-axis convention.
func NewStage(path string, up UpAxis) *MemStage {
	if up != UpAxisZ {
		up = UpAxisY
	}
	return &MemStage{
		path:   path,
		upAxis: up,
		prims:  make(map[string]Prim),
	}
}

// Path returns the location the stage was opened from.
func (s *MemStage) Path() string { return s.path }

// UpAxis returns the stage's up-axis convention.
func (s *MemStage) UpAxis() UpAxis { return s.upAxis }

// PrimAtPath looks up a prim by path.
func (s *MemStage) PrimAtPath(path string) (Prim, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prims[path]
	return p, ok
}

// DefineCamera creates a camera prim at the given path, overwriting any
// existing prim there.
func (s *MemStage) DefineCamera(path string, spec CameraSpec) (Camera, error) {
	if path == "" || path[0] != '/' {
		return nil, errors.New(errors.ErrCodeInvalidPath, "prim path must be absolute, got %q", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New(errors.ErrCodePrecondition, "stage is closed")
	}

	if spec.NearClip == 0 && spec.FarClip == 0 {
		spec.NearClip = DefaultNearClip
		spec.FarClip = DefaultFarClip
	}
	cam := &memCamera{stage: s, path: path, spec: spec}
	s.prims[path] = cam
	return cam, nil
}

// Close releases the stage. Further prim definitions fail.
func (s *MemStage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.prims = nil
	return nil
}

var _ Stage = (*MemStage)(nil)
var _ Closer = (*MemStage)(nil)

// memCamera is the in-memory camera prim.
type memCamera struct {
	mu    sync.RWMutex
	stage *MemStage
	path  string
	spec  CameraSpec
}

func (c *memCamera) Path() string     { return c.path }
func (c *memCamera) TypeName() string { return "Camera" }
func (c *memCamera) Stage() Stage     { return c.stage }

// LocalToWorld composes the camera's authored rotation (Euler XYZ degrees,
// X applied first) with its translation, in row-vector order.
func (c *memCamera) LocalToWorld(tc TimeCode) mat4.Mat4 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rx := mat4.RotateX(c.spec.RotationXYZ[0] * math.Pi / 180)
	ry := mat4.RotateY(c.spec.RotationXYZ[1] * math.Pi / 180)
	rz := mat4.RotateZ(c.spec.RotationXYZ[2] * math.Pi / 180)
	tr := mat4.Translate(c.spec.Position[0], c.spec.Position[1], c.spec.Position[2])
	return rx.Mul(ry).Mul(rz).Mul(tr)
}

func (c *memCamera) FocalLength() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.spec.FocalLength
}

func (c *memCamera) HorizontalAperture() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.spec.HorizontalAperture
}

func (c *memCamera) VerticalAperture() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.spec.VerticalAperture
}

func (c *memCamera) SetVerticalAperture(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spec.VerticalAperture = v
}

func (c *memCamera) ClippingRange() (float64, float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.spec.NearClip, c.spec.FarClip
}

var _ Camera = (*memCamera)(nil)

// upAxisRegex extracts the up-axis declaration from a textual stage file
// header. This is a convenience for the development opener only, not a scene
// file parser.
var upAxisRegex = regexp.MustCompile(`upAxis\s*=\s*"([YZ])"`)

// FileOpener opens stage files as in-memory stages. The file must exist and
// be readable; its up-axis declaration is honored when present, otherwise
// DefaultUpAxis applies.
type FileOpener struct {
	// DefaultUpAxis is used when the file carries no up-axis declaration.
	// Empty means Y-up.
	DefaultUpAxis UpAxis
}

// Open loads the stage at path.
func (o *FileOpener) Open(ctx context.Context, path string) (Stage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open stage %s: %w", path, err)
	}

	up := o.DefaultUpAxis
	if m := upAxisRegex.FindSubmatch(data); m != nil {
		up = UpAxis(m[1])
	}
	return NewStage(path, up), nil
}

var _ Opener = (*FileOpener)(nil)
