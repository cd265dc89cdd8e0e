package render

import (
	"os"
	"path/filepath"

	"github.com/rlei-miris/kit-render-service/pkg/errors"
)

// Writer-convention artifact filenames. These names are a contract with the
// writer collaborator: changing them is a breaking interface change. The
// frame index is always 0000 because a job renders exactly one frame.
const (
	ColorImageName = "rgb_0000.png"
	DepthImageName = "distance_to_image_plane_0000.png"
	DepthArrayName = "distance_to_image_plane_0000.npy"
)

// Artifacts holds the absolute paths of one job's output files.
type Artifacts struct {
	ColorImage string
	DepthImage string
	DepthArray string
}

// ArtifactsIn returns the expected artifact paths under a job's output
// directory.
func ArtifactsIn(outputDir string) Artifacts {
	return Artifacts{
		ColorImage: filepath.Join(outputDir, ColorImageName),
		DepthImage: filepath.Join(outputDir, DepthImageName),
		DepthArray: filepath.Join(outputDir, DepthArrayName),
	}
}

// Verify checks that every expected artifact exists on disk. A missing file
// is a writer contract violation, reported as a fatal ARTIFACT_MISSING error
// naming the path; it is never retried. The output directory is left in
// place for diagnosis.
func (a Artifacts) Verify() error {
	for _, path := range []string{a.ColorImage, a.DepthImage, a.DepthArray} {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return errors.New(errors.ErrCodeArtifactMissing,
					"expected render artifact missing: %s", path)
			}
			return errors.Wrap(errors.ErrCodeArtifactMissing, err,
				"cannot stat render artifact %s", path)
		}
	}
	return nil
}
