package cli

import "testing"

func TestRenderOptsRequest(t *testing.T) {
	opts := renderOpts{
		camera:     "cam0",
		position:   []float64{1, 2, 3},
		rotation:   []float64{0, 90, 0},
		focal:      15,
		aperture:   20,
		resolution: []float64{640, 480},
	}

	req, err := opts.request()
	if err != nil {
		t.Fatalf("request() failed: %v", err)
	}
	if req.CameraName != "cam0" {
		t.Errorf("CameraName = %q", req.CameraName)
	}
	if req.CameraPosition != [3]float64{1, 2, 3} {
		t.Errorf("CameraPosition = %v", req.CameraPosition)
	}
	if req.ImageResolution != [2]float64{640, 480} {
		t.Errorf("ImageResolution = %v", req.ImageResolution)
	}
}

func TestRenderOptsRequestRejectsBadLengths(t *testing.T) {
	tests := []struct {
		name string
		opts renderOpts
	}{
		{"short position", renderOpts{position: []float64{1, 2}, rotation: []float64{0, 0, 0}, resolution: []float64{64, 64}}},
		{"long rotation", renderOpts{position: []float64{0, 0, 0}, rotation: []float64{0, 0, 0, 0}, resolution: []float64{64, 64}}},
		{"short resolution", renderOpts{position: []float64{0, 0, 0}, rotation: []float64{0, 0, 0}, resolution: []float64{64}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.request(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
