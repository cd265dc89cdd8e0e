package render

import (
	"encoding/binary"
	"fmt"
	"os"
)

// writeNPY serializes a float32 raster of shape (height, width) in the NumPy
// .npy version 1.0 format. The header dict is padded so the binary payload
// starts on a 64-byte boundary, as the format requires.
func writeNPY(path string, width, height int, data []float32) error {
	if len(data) != width*height {
		return fmt.Errorf("npy: data length %d does not match %dx%d", len(data), width, height)
	}

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", height, width)
	// magic(6) + version(2) + header length(2) + header + '\n' aligned to 64.
	pad := 64 - (6+2+2+len(header)+1)%64
	if pad == 64 {
		pad = 0
	}
	for i := 0; i < pad; i++ {
		header += " "
	}
	header += "\n"

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write([]byte("\x93NUMPY\x01\x00")); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := f.Write([]byte(header)); err != nil {
		return err
	}
	return binary.Write(f, binary.LittleEndian, data)
}
