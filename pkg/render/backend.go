// Package render drives a render job from submission through completion and
// artifact collection.
//
// The orchestrator owns the per-request lifecycle: validate preconditions,
// create a camera and render product, trigger exactly one frame, wait for the
// backend to finish, verify the writer's output artifacts on disk, resolve
// the final camera geometry, and assemble the response. The renderer and
// writer themselves are collaborators behind the [Backend] and [Writer]
// interfaces; the package ships a development stub backend that satisfies
// them without a GPU.
package render

import (
	"context"

	"github.com/rlei-miris/kit-render-service/pkg/scene"
)

// Product is a render target binding one camera to one output resolution for
// a single render pass.
type Product struct {
	// Name identifies the product; it is derived from the request's camera
	// name and must be unique among in-flight jobs.
	Name string

	// CameraPath is the scene-graph path of the camera prim created for
	// this product. The orchestrator resolves final camera geometry by
	// looking the prim up here after the render completes.
	CameraPath string

	// Width and Height are the output resolution in pixels.
	Width, Height float64

	// Mode is the renderer mode the product was submitted under.
	Mode string
}

// Channels selects which buffers the writer serializes.
type Channels struct {
	// RGB enables the color image.
	RGB bool

	// DistanceToImagePlane enables the depth output (raw array).
	DistanceToImagePlane bool

	// ColorizeDepth additionally emits the depth as a colorized raster.
	ColorizeDepth bool
}

// Writer serializes rendered buffers to files. The artifact filenames the
// writer produces are a contract with the orchestrator; see artifacts.go.
type Writer interface {
	// Initialize prepares the writer to emit the selected channels into
	// outputDir. The directory is request-scoped and must not be shared
	// between jobs.
	Initialize(outputDir string, ch Channels) error

	// Detach releases the writer. Called on every job exit path.
	Detach() error
}

// Backend is the renderer collaborator. One frame is rendered per product
// per Run; the orchestrator caps triggers at a single frame.
type Backend interface {
	// CreateCamera creates a camera prim on the stage for a render job.
	CreateCamera(stage scene.Stage, name string, spec scene.CameraSpec) (scene.Camera, error)

	// CreateProduct binds a camera and resolution into a render product.
	CreateProduct(cam scene.Camera, width, height float64, name, mode string) (*Product, error)

	// NewWriter creates an unattached writer.
	NewWriter() Writer

	// Attach connects a writer to a product so Run emits its artifacts.
	Attach(w Writer, p *Product) error

	// Trigger schedules frames frames for the attached products.
	Trigger(frames int) error

	// Run executes the scheduled work and blocks until the renderer
	// signals completion or ctx is done. This is the orchestrator's one
	// suspension point.
	Run(ctx context.Context) error

	// Dispose releases the product's render target resources.
	Dispose(p *Product) error
}
