package transform

import (
	"bytes"
	"crypto/sha256"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-transform/pkg/schema"
)

// testPipeline keeps the working buffer small so tests stay fast.
func testPipeline() *Pipeline {
	return &Pipeline{
		WorkingWidth: 96,
		ThumbWidth:   32,
		Quality:      92,
		ThumbQuality: 80,
		MedianSize:   3,
	}
}

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7 % 256), G: uint8(y * 13 % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRunProducesOutputAndThumbnail(t *testing.T) {
	p := testPipeline()
	res, err := p.Run(testImage(t, 64, 48), "blur5", 2)
	require.NoError(t, err)

	assert.NotEmpty(t, res.Output)
	assert.NotEmpty(t, res.Thumb)
	assert.Equal(t, "blur5", res.Kernel)
	assert.Equal(t, 2, res.Iterations)
	assert.Greater(t, res.Elapsed.Nanoseconds(), int64(0))

	out, err := imaging.Decode(bytes.NewReader(res.Output))
	require.NoError(t, err)
	assert.Equal(t, p.WorkingWidth, out.Bounds().Dx())

	thumb, err := imaging.Decode(bytes.NewReader(res.Thumb))
	require.NoError(t, err)
	assert.Equal(t, p.ThumbWidth, thumb.Bounds().Dx())
}

func TestRunIsDeterministic(t *testing.T) {
	input := testImage(t, 64, 64)
	p := testPipeline()

	first, err := p.Run(input, "edge", 3)
	require.NoError(t, err)
	second, err := p.Run(input, "edge", 3)
	require.NoError(t, err)

	assert.Equal(t, sha256.Sum256(first.Output), sha256.Sum256(second.Output))
	assert.Equal(t, sha256.Sum256(first.Thumb), sha256.Sum256(second.Thumb))
}

func TestRunUnknownKernelFallsBack(t *testing.T) {
	res, err := testPipeline().Run(testImage(t, 32, 32), "nonexistent", 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultKernel, res.Kernel)
}

func TestRunClampsIterations(t *testing.T) {
	res, err := testPipeline().Run(testImage(t, 32, 32), "emboss", -5)
	require.NoError(t, err)
	assert.Equal(t, MinIterations, res.Iterations)
}

func TestRunRejectsInvalidInput(t *testing.T) {
	_, err := testPipeline().Run([]byte("not an image"), "edge", 1)
	require.Error(t, err)
}

func TestClampIterations(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 1},
		{-3, 1},
		{1, 1},
		{30, 30},
		{200, 200},
		{201, 200},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampIterations(tt.in))
	}
}

func TestApplyOpsResizeAndGreyscale(t *testing.T) {
	rotate := 90
	out, err := ApplyOps(testImage(t, 40, 20), &schema.Ops{
		Resize:    &schema.Resize{Width: 20, Height: 10},
		Greyscale: true,
		Rotate:    &rotate,
	})
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	// 20x10 rotated a quarter turn
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestApplyOpsNoOpsStillReencodes(t *testing.T) {
	out, err := ApplyOps(testImage(t, 16, 16), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestLookupKernelKnownNames(t *testing.T) {
	for _, name := range []string{"edge", "emboss", "blur5"} {
		assert.Equal(t, name, LookupKernel(name).Name)
	}
	assert.Equal(t, DefaultKernel, LookupKernel("box9").Name)
}
