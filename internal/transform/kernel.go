// internal/transform/kernel.go
package transform

import (
	"image"

	"github.com/disintegration/imaging"
)

// DefaultKernel is applied when a job names a kernel that is not in the
// table.
const DefaultKernel = "edge"

// Kernel is a fixed convolution matrix selectable by name.
type Kernel struct {
	Name string
	size int
	m3   [9]float64
	m5   [25]float64
}

var kernels = map[string]Kernel{
	"edge": {
		Name: "edge",
		size: 3,
		m3:   [9]float64{-1, -1, -1, -1, 8, -1, -1, -1, -1},
	},
	"emboss": {
		Name: "emboss",
		size: 3,
		m3:   [9]float64{-2, -1, 0, -1, 1, 1, 0, 1, 2},
	},
	"blur5": {
		Name: "blur5",
		size: 5,
		m5: [25]float64{
			1.0 / 25, 1.0 / 25, 1.0 / 25, 1.0 / 25, 1.0 / 25,
			1.0 / 25, 1.0 / 25, 1.0 / 25, 1.0 / 25, 1.0 / 25,
			1.0 / 25, 1.0 / 25, 1.0 / 25, 1.0 / 25, 1.0 / 25,
			1.0 / 25, 1.0 / 25, 1.0 / 25, 1.0 / 25, 1.0 / 25,
			1.0 / 25, 1.0 / 25, 1.0 / 25, 1.0 / 25, 1.0 / 25,
		},
	},
}

// LookupKernel returns the named kernel, or the default kernel when the
// name is unknown. It never fails; the caller reports the effective name.
func LookupKernel(name string) Kernel {
	if k, ok := kernels[name]; ok {
		return k
	}
	return kernels[DefaultKernel]
}

// KernelNames lists the recognized kernel names.
func KernelNames() []string {
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	return names
}

func (k Kernel) apply(src image.Image) *image.NRGBA {
	opts := &imaging.ConvolveOptions{Normalize: true}
	if k.size == 5 {
		return imaging.Convolve5x5(src, k.m5, opts)
	}
	return imaging.Convolve3x3(src, k.m3, opts)
}
