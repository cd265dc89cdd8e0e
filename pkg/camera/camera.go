// Package camera resolves a consistent set of camera intrinsics and
// extrinsics from a scene camera and a target image resolution.
//
// Resolution produces an immutable [Info] snapshot: focal length, conformed
// apertures, clip range, and the world-to-camera, projection and world-to-NDC
// matrices. All matrices are row-major and act on row vectors, so a world
// point reaches NDC as p * worldToCamera * projection — extrinsic first,
// then projection. The composition order is part of the contract.
//
// Two normalizations happen during resolution:
//
//   - Aperture conformance: the camera's vertical aperture is overwritten
//     with horizontalAperture / (width / height) so the frustum matches the
//     target image's aspect ratio. This is a deliberate, observable write to
//     the camera prim, and it runs before the projection matrix is built.
//
//   - Up-axis normalization: cameras on Z-up stages are corrected into the
//     Y-up convention the render pipeline assumes by right-multiplying the
//     camera-to-world transform with a fixed -90 degree rotation about X.
package camera

import (
	"math"

	"github.com/rlei-miris/kit-render-service/pkg/errors"
	"github.com/rlei-miris/kit-render-service/pkg/mat4"
	"github.com/rlei-miris/kit-render-service/pkg/scene"
)

// Info is the resolved camera snapshot embedded in a render response.
// It is constructed once per render and never mutated afterward.
type Info struct {
	// Intrinsics
	FocalLength        float64 `json:"focal_length"`
	HorizontalAperture float64 `json:"horizontal_aperture"`
	VerticalAperture   float64 `json:"vertical_aperture"`
	NearClip           float64 `json:"near_clip"`
	FarClip            float64 `json:"far_clip"`

	// Extrinsics, flattened row by row.
	WorldToCamera [16]float64 `json:"world_to_camera"`
	WorldToNDC    [16]float64 `json:"world_to_ndc"`
	Projection    [16]float64 `json:"projection_matrix"`
}

// zToYUp maps a Z-up camera orientation into the Y-up convention.
var zToYUp = mat4.RotateX(-90 * math.Pi / 180)

// ConformVerticalAperture overwrites the camera's vertical aperture so that
// the aperture ratio matches the target image's aspect ratio:
//
//	vertical = horizontal / (width / height)
//
// The write goes to the camera prim itself. Conformance must run before the
// projection matrix is extracted, since the vertical aperture feeds it.
func ConformVerticalAperture(cam scene.Camera, width, height float64) error {
	if err := errors.ValidateResolution(width, height); err != nil {
		return err
	}
	aspect := width / height
	cam.SetVerticalAperture(cam.HorizontalAperture() / aspect)
	return nil
}

// Resolve computes the full camera snapshot for the given target resolution.
//
// It fails with a PRECONDITION_FAILED error when prim is not a valid camera
// prim, and with an INVALID_RESOLUTION error for degenerate resolutions.
// Resolving twice with the same resolution yields identical results.
func Resolve(prim scene.Prim, width, height float64) (Info, error) {
	cam, ok := prim.(scene.Camera)
	if prim == nil || !ok {
		return Info{}, errors.New(errors.ErrCodePrecondition, "prim is not a valid camera")
	}

	// Conformance first: the projection matrix must reflect the conformed
	// vertical aperture.
	if err := ConformVerticalAperture(cam, width, height); err != nil {
		return Info{}, err
	}

	projection := projectionMatrix(cam)

	cameraToWorld := cam.LocalToWorld(scene.DefaultTime)
	if cam.Stage().UpAxis() == scene.UpAxisZ {
		cameraToWorld = cameraToWorld.Mul(zToYUp)
	}

	worldToCamera, ok := cameraToWorld.Inverse()
	if !ok {
		return Info{}, errors.New(errors.ErrCodeInvalidCamera,
			"camera %s has a singular local-to-world transform", cam.Path())
	}
	worldToNDC := worldToCamera.Mul(projection)

	near, far := cam.ClippingRange()
	return Info{
		FocalLength:        cam.FocalLength(),
		HorizontalAperture: cam.HorizontalAperture(),
		VerticalAperture:   cam.VerticalAperture(),
		NearClip:           near,
		FarClip:            far,
		WorldToCamera:      [16]float64(worldToCamera),
		WorldToNDC:         [16]float64(worldToNDC),
		Projection:         [16]float64(projection),
	}, nil
}

// projectionMatrix builds the symmetric perspective projection from the
// camera frustum, in row-vector form with NDC depth in [-1, 1]. The camera
// looks down -Z; the field of view comes from the aperture-to-focal-length
// ratios, so the near plane cancels out of the diagonal terms.
func projectionMatrix(cam scene.Camera) mat4.Mat4 {
	focal := cam.FocalLength()
	near, far := cam.ClippingRange()
	depth := far - near

	var p mat4.Mat4
	p[0] = 2 * focal / cam.HorizontalAperture()
	p[5] = 2 * focal / cam.VerticalAperture()
	p[10] = -(far + near) / depth
	p[11] = -1
	p[14] = -2 * far * near / depth
	return p
}
