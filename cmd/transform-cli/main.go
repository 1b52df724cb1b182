// cmd/transform-cli runs the transformation pipeline against a local file
// without any queue, database, or blob store behind it.
//
// Usage:
//   ./transform-cli -input photo.jpg -out out.jpg -iterations 30 -kernel edge
//   ./transform-cli -input photo.jpg -thumb thumb.jpg
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tendant/simple-transform/internal/transform"
)

func main() {
	input := flag.String("input", "", "Input image path (required)")
	output := flag.String("out", "", "Output path (default: input_out.jpg)")
	thumb := flag.String("thumb", "", "Thumbnail output path (optional)")
	iterations := flag.Int("iterations", 30, "Pipeline iterations (clamped to 1..200)")
	kernel := flag.String("kernel", transform.DefaultKernel, "Convolution kernel: edge, emboss or blur5")
	width := flag.Int("width", 0, "Working width (default: pipeline default)")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Parse()

	if *input == "" {
		fmt.Println("Error: -input flag is required")
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	if *output == "" {
		ext := filepath.Ext(*input)
		*output = strings.TrimSuffix(*input, ext) + "_out.jpg"
	}

	pipeline := transform.NewPipeline()
	if *width > 0 {
		pipeline.WorkingWidth = *width
	}

	clamped := transform.ClampIterations(*iterations)
	if *verbose {
		fmt.Printf("input: %s (%d bytes)\n", *input, len(data))
		fmt.Printf("kernel: %s, iterations: %d, working width: %d\n", *kernel, clamped, pipeline.WorkingWidth)
	}

	start := time.Now()
	result, err := pipeline.Run(data, *kernel, clamped)
	if err != nil {
		log.Fatalf("transform: %v", err)
	}

	if err := os.WriteFile(*output, result.Output, 0o644); err != nil {
		log.Fatalf("write output: %v", err)
	}
	if *thumb != "" {
		if err := os.WriteFile(*thumb, result.Thumb, 0o644); err != nil {
			log.Fatalf("write thumbnail: %v", err)
		}
	}

	fmt.Printf("wrote %s (%d bytes)\n", *output, len(result.Output))
	if *thumb != "" {
		fmt.Printf("wrote %s (%d bytes)\n", *thumb, len(result.Thumb))
	}
	fmt.Printf("kernel=%s iterations=%d elapsed=%v\n", result.Kernel, result.Iterations, time.Since(start).Round(time.Millisecond))
}
