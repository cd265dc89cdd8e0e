package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rlei-miris/kit-render-service/internal/client"
	"github.com/rlei-miris/kit-render-service/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	camera     string    // camera/render-target name
	position   []float64 // world-space camera position (x, y, z)
	rotation   []float64 // Euler rotation in degrees (x, y, z)
	focal      float64   // focal length
	aperture   float64   // horizontal aperture
	resolution []float64 // image resolution (width, height)
}

// newRenderCmd creates the render command that submits one job and waits for
// its artifacts.
func newRenderCmd(newClient func() *client.Client) *cobra.Command {
	opts := renderOpts{
		position:   []float64{0, 0, 5},
		rotation:   []float64{0, 0, 0},
		resolution: []float64{1024, 1024},
	}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Submit a render job and wait for its artifacts",
		Long: `Render submits one job to the service and blocks until the renderer
completes, then prints the artifact paths and the resolved camera geometry.
A stage must be open first (see open-stage). Zero-valued camera parameters
fall back to the service defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), fmt.Sprintf("Rendering %s...", req.CameraName))
			spinner.Start()
			resp, err := newClient().Render(cmd.Context(), req)
			if err != nil {
				spinner.StopWithError(err.Error())
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("Rendered %s (job %s)", req.CameraName, resp.JobID))

			printFile(resp.ColorImagePath)
			printFile(resp.DepthImagePath)
			printFile(resp.DepthArrayPath)
			printCameraInfo(resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.camera, "camera", "camera_0", "camera name (render-target identifier)")
	cmd.Flags().Float64SliceVar(&opts.position, "position", opts.position, "camera position x,y,z")
	cmd.Flags().Float64SliceVar(&opts.rotation, "rotation", opts.rotation, "camera rotation in degrees x,y,z")
	cmd.Flags().Float64Var(&opts.focal, "focal-length", 15, "camera focal length")
	cmd.Flags().Float64Var(&opts.aperture, "aperture", 20, "camera horizontal aperture")
	cmd.Flags().Float64SliceVar(&opts.resolution, "resolution", opts.resolution, "image resolution width,height")
	return cmd
}

func (o renderOpts) request() (render.Request, error) {
	if len(o.position) != 3 || len(o.rotation) != 3 {
		return render.Request{}, fmt.Errorf("position and rotation need exactly 3 components")
	}
	if len(o.resolution) != 2 {
		return render.Request{}, fmt.Errorf("resolution needs exactly 2 components")
	}
	return render.Request{
		CameraName:               o.camera,
		CameraPosition:           [3]float64(o.position),
		CameraRotation:           [3]float64(o.rotation),
		CameraFocalLength:        o.focal,
		CameraHorizontalAperture: o.aperture,
		ImageResolution:          [2]float64(o.resolution),
	}, nil
}

func printCameraInfo(resp *render.Response) {
	printInfo("camera geometry")
	printKeyValue("focal length", fmt.Sprintf("%g", resp.Camera.FocalLength))
	printKeyValue("horizontal aperture", fmt.Sprintf("%g", resp.Camera.HorizontalAperture))
	printKeyValue("vertical aperture", fmt.Sprintf("%g", resp.Camera.VerticalAperture))
	printKeyValue("clip range", fmt.Sprintf("%g..%g", resp.Camera.NearClip, resp.Camera.FarClip))
}
