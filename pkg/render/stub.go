package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rlei-miris/kit-render-service/pkg/scene"
)

// StubBackend is a development Backend that produces synthetic placeholder
// artifacts without a GPU or a production renderer. It creates real camera
// prims on the stage and writes real files in the writer's output
// convention, so the full orchestration path (including artifact
// verification and camera resolution) can run end to end.
type StubBackend struct {
	// Delay simulates render time before artifacts are written. Run
	// honors context cancellation during the delay.
	Delay time.Duration

	mu          sync.Mutex
	attachments []stubAttachment
	frames      int
}

type stubAttachment struct {
	product *Product
	writer  *stubWriter
}

// NewStubBackend creates a stub backend with no simulated delay.
func NewStubBackend() *StubBackend {
	return &StubBackend{}
}

// CameraPathFor returns the scene-graph path the stub uses for a job camera.
func CameraPathFor(name string) string {
	return "/Render/Cameras/" + name
}

// CreateCamera defines a camera prim on the stage.
func (b *StubBackend) CreateCamera(stage scene.Stage, name string, spec scene.CameraSpec) (scene.Camera, error) {
	return stage.DefineCamera(CameraPathFor(name), spec)
}

// CreateProduct binds the camera and resolution into a product.
func (b *StubBackend) CreateProduct(cam scene.Camera, width, height float64, name, mode string) (*Product, error) {
	if cam == nil {
		return nil, fmt.Errorf("create product %s: nil camera", name)
	}
	return &Product{
		Name:       name,
		CameraPath: cam.Path(),
		Width:      width,
		Height:     height,
		Mode:       mode,
	}, nil
}

// NewWriter creates an unattached stub writer.
func (b *StubBackend) NewWriter() Writer {
	return &stubWriter{}
}

// Attach connects a writer to a product.
func (b *StubBackend) Attach(w Writer, p *Product) error {
	sw, ok := w.(*stubWriter)
	if !ok {
		return fmt.Errorf("attach: writer is not a stub writer")
	}
	if !sw.initialized {
		return fmt.Errorf("attach: writer not initialized")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.attachments = append(b.attachments, stubAttachment{product: p, writer: sw})
	return nil
}

// Trigger schedules frames. The stub renders at most one frame per product
// regardless of the requested count.
func (b *StubBackend) Trigger(frames int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if frames < 1 {
		frames = 1
	}
	b.frames = 1
	return nil
}

// Run emits the synthetic artifacts for every attached product.
func (b *StubBackend) Run(ctx context.Context) error {
	if b.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	attachments := make([]stubAttachment, len(b.attachments))
	copy(attachments, b.attachments)
	b.mu.Unlock()

	for _, at := range attachments {
		if err := at.writer.emit(at.product); err != nil {
			return fmt.Errorf("render product %s: %w", at.product.Name, err)
		}
	}
	return nil
}

// Dispose releases the product's attachment.
func (b *StubBackend) Dispose(p *Product) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.attachments[:0]
	for _, at := range b.attachments {
		if at.product != p {
			kept = append(kept, at)
		}
	}
	b.attachments = kept
	return nil
}

var _ Backend = (*StubBackend)(nil)

// stubWriter writes the placeholder artifacts.
type stubWriter struct {
	dir         string
	channels    Channels
	initialized bool
	detached    bool
}

func (w *stubWriter) Initialize(outputDir string, ch Channels) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	w.dir = outputDir
	w.channels = ch
	w.initialized = true
	return nil
}

func (w *stubWriter) Detach() error {
	w.detached = true
	return nil
}

// emit writes the enabled channels for one product.
func (w *stubWriter) emit(p *Product) error {
	width, height := int(p.Width), int(p.Height)

	if w.channels.RGB {
		if err := writeGradientPNG(filepath.Join(w.dir, ColorImageName), width, height, false); err != nil {
			return err
		}
	}
	if w.channels.DistanceToImagePlane {
		if w.channels.ColorizeDepth {
			if err := writeGradientPNG(filepath.Join(w.dir, DepthImageName), width, height, true); err != nil {
				return err
			}
		}
		depth := make([]float32, width*height)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				depth[y*width+x] = 1 + float32(x+y)/float32(width+height)
			}
		}
		if err := writeNPY(filepath.Join(w.dir, DepthArrayName), width, height, depth); err != nil {
			return err
		}
	}
	return nil
}

// writeGradientPNG writes a diagonal gradient. Grayscale for depth rasters,
// tinted for color.
func writeGradientPNG(path string, width, height int, grayscale bool) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(255 * (x + y) / (width + height))
			if grayscale {
				img.Set(x, y, color.RGBA{v, v, v, 255})
			} else {
				img.Set(x, y, color.RGBA{v, uint8(255 - int(v)), 128, 255})
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
