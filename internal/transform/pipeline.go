// internal/transform/pipeline.go
package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

const (
	// MinIterations and MaxIterations bound the per-job iteration count.
	MinIterations = 1
	MaxIterations = 200

	defaultWorkingWidth = 3840
	defaultThumbWidth   = 256
	defaultQuality      = 92
	defaultThumbQuality = 80
	defaultMedianSize   = 7
)

// ClampIterations coerces an iteration count into [MinIterations, MaxIterations].
// Zero and negative values clamp to the minimum.
func ClampIterations(n int) int {
	if n < MinIterations {
		return MinIterations
	}
	if n > MaxIterations {
		return MaxIterations
	}
	return n
}

// Result holds the encoded output of one pipeline run.
type Result struct {
	Output     []byte
	Thumb      []byte
	Kernel     string
	Iterations int
	Elapsed    time.Duration
}

// Pipeline runs the iterative convolution pipeline. The zero value is not
// usable; construct with NewPipeline. Fields may be lowered in tests to
// keep runs cheap.
type Pipeline struct {
	WorkingWidth int
	ThumbWidth   int
	Quality      int
	ThumbQuality int
	MedianSize   int
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		WorkingWidth: defaultWorkingWidth,
		ThumbWidth:   defaultThumbWidth,
		Quality:      defaultQuality,
		ThumbQuality: defaultThumbQuality,
		MedianSize:   defaultMedianSize,
	}
}

// Run decodes input, upscales it to the working width so CPU cost does not
// depend on the source resolution, then applies the selected kernel,
// sharpen, median and normalize for the given number of iterations,
// re-encoding to JPEG after each pass. Each iteration's encoded bytes feed
// the next. A thumbnail is derived once from the final output. Iterations
// are clamped; an unknown kernel name falls back to the default, and the
// effective name is reported in the result.
func (p *Pipeline) Run(input []byte, kernelName string, iterations int) (*Result, error) {
	iterations = ClampIterations(iterations)
	k := LookupKernel(kernelName)

	src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	var cur image.Image = imaging.Resize(src, p.WorkingWidth, 0, imaging.Lanczos)

	start := time.Now()
	var output []byte
	for i := 0; i < iterations; i++ {
		var stage image.Image = k.apply(cur)
		stage = imaging.Sharpen(stage, 1.0)
		stage = effect.Median(stage, float64(p.MedianSize))
		stage = normalize(stage)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, stage, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
			return nil, fmt.Errorf("encode iteration %d: %w", i, err)
		}
		output = buf.Bytes()

		if i < iterations-1 {
			cur, err = imaging.Decode(bytes.NewReader(output))
			if err != nil {
				return nil, fmt.Errorf("decode iteration %d: %w", i, err)
			}
		}
	}
	elapsed := time.Since(start)

	thumb, err := p.makeThumb(output)
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:     output,
		Thumb:      thumb,
		Kernel:     k.Name,
		Iterations: iterations,
		Elapsed:    elapsed,
	}, nil
}

func (p *Pipeline) makeThumb(output []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(output))
	if err != nil {
		return nil, fmt.Errorf("decode output for thumbnail: %w", err)
	}
	small := imaging.Resize(img, p.ThumbWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, small, imaging.JPEG, imaging.JPEGQuality(p.ThumbQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// normalize stretches the channel histogram to the full [0,255] range.
func normalize(src image.Image) *image.NRGBA {
	img := imaging.Clone(src)
	lo, hi := uint8(255), uint8(0)
	for i := 0; i < len(img.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := img.Pix[i+c]
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi <= lo || (lo == 0 && hi == 255) {
		return img
	}

	var lut [256]uint8
	scale := 255.0 / float64(hi-lo)
	for v := 0; v < 256; v++ {
		switch {
		case uint8(v) <= lo:
			lut[v] = 0
		case uint8(v) >= hi:
			lut[v] = 255
		default:
			lut[v] = uint8(float64(uint8(v)-lo)*scale + 0.5)
		}
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R, c.G, c.B = lut[c.R], lut[c.G], lut[c.B]
		return c
	})
}
