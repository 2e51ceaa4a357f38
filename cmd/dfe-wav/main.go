// Command dfe-wav streams a PCM WAV file through the receive pipeline, one
// pipeline per channel, and writes the result at the pipeline output rate.
//
// Usage:
//
//	dfe-wav -l 2 -m 3 input.wav output.wav      # 48 kHz -> 32 kHz, demo coefficients
//	dfe-wav -config pipeline.yaml input.wav output.wav
//	dfe-wav -parallel=false input.wav output.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	dfe "github.com/tphakala/go-dfe"
	"github.com/tphakala/go-dfe/internal/demo"
)

const (
	// bufferFrames is the number of frames read per chunk.
	bufferFrames = 16384

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32
	wavFormatPCM    = 1

	// CLI defaults
	defaultInterpolation = 2
	defaultDecimation    = 3
	defaultTaps          = 16
	defaultNotchFreq     = 0.2 // cycles per resampler output sample
	minRequiredArgs      = 2

	progressInterval = 10 // Print progress every N%
	percentScale     = 100
)

var errUsage = errors.New("insufficient arguments")

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML pipeline description (overrides -l, -m, -taps, -notch)")
	l := flag.Int("l", defaultInterpolation, "Interpolation factor L")
	m := flag.Int("m", defaultDecimation, "Decimation factor M")
	taps := flag.Int("taps", defaultTaps, "Taps per resampler branch")
	notch := flag.Float64("notch", defaultNotchFreq, "Notch frequency in cycles per resampler output sample")
	parallel := flag.Bool("parallel", true, "Process channels concurrently")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return errUsage
	}
	inputPath, outputPath := args[0], args[1]

	cfg, coeffs, err := loadPipeline(*configPath, *l, *m, *taps, *notch)
	if err != nil {
		return err
	}

	if *verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Output: %s", outputPath)
		if *configPath != "" {
			log.Printf("Config: %s", *configPath)
		} else {
			log.Printf("Ratio: %d/%d, %d taps per branch", *l, *m, *taps)
		}
	}

	start := time.Now()
	stats, err := convertWAV(inputPath, outputPath, cfg, coeffs, *verbose, *parallel)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Converted %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %d Hz -> %d Hz (%d channels, %d-bit)\n",
		stats.inputRate, stats.outputRate, stats.channels, stats.bitDepth)
	fmt.Printf("  %d frames -> %d frames\n", stats.inputFrames, stats.outputFrames)
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(),
		float64(stats.inputFrames)/float64(stats.inputRate)/elapsed.Seconds())
	return nil
}

// loadPipeline reads the YAML description when given, otherwise builds a
// rational L/M configuration with designed coefficients.
func loadPipeline(path string, l, m, taps int, notch float64) (*dfe.Config, *dfe.Coefficients, error) {
	if path != "" {
		return dfe.LoadConfig(path)
	}

	cfg := dfe.DefaultConfig(l, m, taps)
	cfg.Emit = dfe.EmitRational
	cfg.Stages = []dfe.StageKind{dfe.StageResampler, dfe.StageNotch}
	coeffs, err := demo.Tables(cfg, notch)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to design coefficients: %w", err)
	}
	return &cfg, coeffs, nil
}
