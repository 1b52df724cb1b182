// internal/transform/ops.go
package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/tendant/simple-transform/pkg/schema"
)

// ApplyOps runs the generic key-to-key operations (resize, greyscale,
// rotate) against the input bytes and returns the result encoded as PNG.
// A nil ops applies no operations but still re-encodes.
func ApplyOps(input []byte, ops *schema.Ops) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var out image.Image = img
	if ops != nil {
		if ops.Resize != nil && ops.Resize.Width > 0 && ops.Resize.Height > 0 {
			out = imaging.Resize(out, ops.Resize.Width, ops.Resize.Height, imaging.Lanczos)
		}
		if ops.Greyscale {
			out = imaging.Grayscale(out)
		}
		if ops.Rotate != nil {
			out = imaging.Rotate(out, float64(*ops.Rotate), color.Black)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}
