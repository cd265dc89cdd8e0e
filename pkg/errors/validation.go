package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// cameraNameRegex matches valid camera names. Camera names double as render
// product identifiers and as path components of the job output directory, so
// the character set is intentionally conservative.
var cameraNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateCameraName validates a camera name for safety and correctness.
// Camera names become prim names in the scene graph and components of
// filesystem paths, so anything that could traverse or escape is rejected.
func ValidateCameraName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidCameraName, "camera name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidCameraName, "camera name too long (max 128 characters)")
	}

	if !cameraNameRegex.MatchString(name) {
		return New(ErrCodeInvalidCameraName, "invalid camera name: %q (letters, digits and underscores only)", name)
	}

	return nil
}

// ValidateStagePath validates the location of a stage file.
// The path is handed to the scene-graph collaborator verbatim, so validation
// is limited to rejecting obviously malformed input; existence and parseability
// are the collaborator's concern.
func ValidateStagePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "stage path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "stage path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "stage path contains invalid characters")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "stage path cannot contain backslashes")
	}

	return nil
}

// ValidateResolution validates a target image resolution.
// Width and height must both be strictly positive; a zero height would make
// the aspect ratio used for aperture conformance undefined.
func ValidateResolution(width, height float64) error {
	if height == 0 {
		return New(ErrCodeInvalidResolution, "image height cannot be zero")
	}
	if width <= 0 || height < 0 {
		return New(ErrCodeInvalidResolution, "image resolution must be positive, got (%v, %v)", width, height)
	}
	return nil
}
