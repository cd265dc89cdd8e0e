package camera

import (
	"math"
	"testing"

	"github.com/rlei-miris/kit-render-service/pkg/errors"
	"github.com/rlei-miris/kit-render-service/pkg/mat4"
	"github.com/rlei-miris/kit-render-service/pkg/scene"
)

func defineCamera(t *testing.T, up scene.UpAxis, spec scene.CameraSpec) scene.Camera {
	t.Helper()
	st := scene.NewStage("/tmp/scene.usda", up)
	cam, err := st.DefineCamera("/Render/Cameras/cam0", spec)
	if err != nil {
		t.Fatalf("DefineCamera: %v", err)
	}
	return cam
}

func TestConformVerticalAperture(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		horizontal    float64
		want          float64
	}{
		{"square", 1024, 1024, 20, 20},
		{"wide", 1920, 1080, 20.955, 20.955 * 1080 / 1920},
		{"tall", 1080, 1920, 20, 20 * 1920.0 / 1080.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := defineCamera(t, scene.UpAxisY, scene.CameraSpec{
				HorizontalAperture: tt.horizontal,
				VerticalAperture:   99, // overwritten by conformance
				FocalLength:        15,
			})
			if err := ConformVerticalAperture(cam, tt.width, tt.height); err != nil {
				t.Fatalf("ConformVerticalAperture: %v", err)
			}
			if got := cam.VerticalAperture(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("vertical aperture = %v, want %v", got, tt.want)
			}
			// Cross-multiplied conformance identity.
			if v, h := cam.VerticalAperture()*tt.width, tt.horizontal*tt.height; math.Abs(v-h) > 1e-9 {
				t.Errorf("va*w = %v, ha*h = %v, should be equal", v, h)
			}
		})
	}
}

func TestConformVerticalApertureZeroHeight(t *testing.T) {
	cam := defineCamera(t, scene.UpAxisY, scene.CameraSpec{HorizontalAperture: 20})
	err := ConformVerticalAperture(cam, 1024, 0)
	if err == nil {
		t.Fatal("zero height should be rejected")
	}
	if errors.GetCode(err) != errors.ErrCodeInvalidResolution {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidResolution)
	}
}

func TestResolveSquareAspect(t *testing.T) {
	cam := defineCamera(t, scene.UpAxisY, scene.CameraSpec{
		Position:           [3]float64{0, 0, 5},
		FocalLength:        15,
		HorizontalAperture: 20,
	})

	info, err := Resolve(cam, 1024, 1024)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if info.FocalLength != 15 {
		t.Errorf("FocalLength = %v, want 15", info.FocalLength)
	}
	if info.VerticalAperture != 20 {
		t.Errorf("VerticalAperture = %v, want 20 for square aspect", info.VerticalAperture)
	}
	if info.NearClip != scene.DefaultNearClip || info.FarClip != scene.DefaultFarClip {
		t.Errorf("clip range = (%v, %v)", info.NearClip, info.FarClip)
	}
}

func TestResolveCompositionOrder(t *testing.T) {
	cam := defineCamera(t, scene.UpAxisY, scene.CameraSpec{
		Position:           [3]float64{3, -2, 7},
		RotationXYZ:        [3]float64{15, 40, -30},
		FocalLength:        24,
		HorizontalAperture: 20.955,
	})

	info, err := Resolve(cam, 1920, 1080)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// world_to_ndc must equal world_to_camera * projection in that order.
	composed := mat4.Mat4(info.WorldToCamera).Mul(mat4.Mat4(info.Projection))
	if !composed.ApproxEqual(mat4.Mat4(info.WorldToNDC), 1e-12) {
		t.Error("WorldToNDC != WorldToCamera * Projection")
	}
}

func TestResolveIdempotent(t *testing.T) {
	cam := defineCamera(t, scene.UpAxisZ, scene.CameraSpec{
		Position:           [3]float64{1, 2, 3},
		RotationXYZ:        [3]float64{10, 20, 30},
		FocalLength:        35,
		HorizontalAperture: 36,
	})

	first, err := Resolve(cam, 800, 600)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := Resolve(cam, 800, 600)
	if err != nil {
		t.Fatalf("Resolve (second): %v", err)
	}
	if first != second {
		t.Error("Resolve is not idempotent for a fixed resolution")
	}
}

func TestResolveUpAxisCorrection(t *testing.T) {
	spec := scene.CameraSpec{
		Position:           [3]float64{4, 5, 6},
		RotationXYZ:        [3]float64{25, -10, 80},
		FocalLength:        15,
		HorizontalAperture: 20,
	}

	yInfo, err := Resolve(defineCamera(t, scene.UpAxisY, spec), 640, 480)
	if err != nil {
		t.Fatalf("Resolve (Y-up): %v", err)
	}
	zInfo, err := Resolve(defineCamera(t, scene.UpAxisZ, spec), 640, 480)
	if err != nil {
		t.Fatalf("Resolve (Z-up): %v", err)
	}

	// The Z-up camera-to-world is corrected as c2w * Rx(-90deg), so the
	// world-to-camera matrices relate by the inverse on the left:
	// w2c_z == Rx(+90deg) * w2c_y.
	correction := mat4.RotateX(90 * math.Pi / 180)
	want := correction.Mul(mat4.Mat4(yInfo.WorldToCamera))
	if !want.ApproxEqual(mat4.Mat4(zInfo.WorldToCamera), 1e-9) {
		t.Error("Z-up world-to-camera does not differ from Y-up by the fixed X-axis correction")
	}

	// The projection is orientation-independent.
	if yInfo.Projection != zInfo.Projection {
		t.Error("projection matrix should not depend on the up axis")
	}
}

func TestResolveRejectsNonCamera(t *testing.T) {
	if _, err := Resolve(nil, 640, 480); errors.GetCode(err) != errors.ErrCodePrecondition {
		t.Errorf("Resolve(nil) code = %v, want %v", errors.GetCode(err), errors.ErrCodePrecondition)
	}

	if _, err := Resolve(fakePrim{}, 640, 480); errors.GetCode(err) != errors.ErrCodePrecondition {
		t.Errorf("Resolve(non-camera) code = %v, want %v", errors.GetCode(err), errors.ErrCodePrecondition)
	}
}

func TestProjectionDepthRange(t *testing.T) {
	cam := defineCamera(t, scene.UpAxisY, scene.CameraSpec{
		FocalLength:        15,
		HorizontalAperture: 20,
		NearClip:           1,
		FarClip:            100,
	})
	info, err := Resolve(cam, 512, 512)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	p := mat4.Mat4(info.Projection)

	// Points on the near and far planes map to NDC depth -1 and +1; the
	// camera looks down -Z.
	_, _, zNear := p.TransformPoint(0, 0, -1)
	if math.Abs(zNear+1) > 1e-12 {
		t.Errorf("near plane depth = %v, want -1", zNear)
	}
	_, _, zFar := p.TransformPoint(0, 0, -100)
	if math.Abs(zFar-1) > 1e-12 {
		t.Errorf("far plane depth = %v, want 1", zFar)
	}

	// The near-plane window corner lands on the NDC boundary.
	x, y, _ := p.TransformPoint(20.0/(2*15), 20.0/(2*15), -1)
	if math.Abs(x-1) > 1e-12 || math.Abs(y-1) > 1e-12 {
		t.Errorf("near window corner = (%v, %v), want (1, 1)", x, y)
	}
}

// fakePrim implements scene.Prim but is not a camera.
type fakePrim struct{}

func (fakePrim) Path() string                             { return "/NotACamera" }
func (fakePrim) TypeName() string                         { return "Xform" }
func (fakePrim) Stage() scene.Stage                       { return nil }
func (fakePrim) LocalToWorld(tc scene.TimeCode) mat4.Mat4 { return mat4.Identity() }
