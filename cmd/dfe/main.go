// Command dfe builds a receive pipeline and runs a short demonstration
// through it: an impulse, a passband tone and a tone at the notch.
//
// Usage:
//
//	dfe                         # L=2, M=3 with designed demo coefficients
//	dfe -l 3 -m 2 -taps 24 -v
//	dfe -config pipeline.yaml   # parameters and coefficient files from YAML
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"strings"

	dfe "github.com/tphakala/go-dfe"
	"github.com/tphakala/go-dfe/internal/analysis"
	"github.com/tphakala/go-dfe/internal/demo"
)

type tone struct {
	name string
	freq float64 // cycles per input sample
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "YAML pipeline description (overrides -l, -m, -taps)")
		l          = flag.Int("l", defaultInterpolation, "Interpolation factor L")
		m          = flag.Int("m", defaultDecimation, "Decimation factor M")
		taps       = flag.Int("taps", defaultTaps, "Taps per resampler branch")
		notch      = flag.Float64("notch", defaultNotchFreq, "Demo notch frequency in cycles per resampler output sample")
		samples    = flag.Int("n", defaultSamples, "Tone length in input samples")
		verbose    = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	cfg, coeffs, err := loadPipeline(*configPath, *l, *m, *taps, *notch)
	if err != nil {
		return err
	}
	if *verbose {
		log.Printf("Resampler table: %d taps, notch table: %d taps", len(coeffs.Resampler), len(coeffs.Notch))
	}

	p, err := dfe.New(cfg, coeffs)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	printInfo(p.Info())
	resolved := p.Config()

	fmt.Println("\nImpulse response:")
	if err := runImpulse(p); err != nil {
		return err
	}

	fmt.Println("\nTone levels:")
	info := p.Info()
	tones := []tone{{"passband", passbandTone}}
	if resolved.Has(dfe.StageNotch) {
		tones = append(tones, tone{"notch", *notch * resamplerRate(&resolved)})
	}
	for _, t := range tones {
		p.Reset()
		if err := runTone(p, info, t, *samples, *verbose); err != nil {
			return err
		}
	}

	stats := p.Stats()
	if *verbose {
		log.Printf("Last run: %d ticks, %d accepted, %d emitted", stats.Ticks, stats.Accepted, stats.Emitted)
	}
	return nil
}

// loadPipeline reads the YAML description when given, otherwise builds a
// default configuration with designed coefficients.
func loadPipeline(path string, l, m, taps int, notch float64) (*dfe.Config, *dfe.Coefficients, error) {
	if path != "" {
		cfg, coeffs, err := dfe.LoadConfig(path)
		if err != nil {
			return nil, nil, err
		}
		return cfg, coeffs, nil
	}

	cfg := dfe.DefaultConfig(l, m, taps)
	cfg.Emit = dfe.EmitRational
	coeffs, err := demo.Tables(cfg, notch)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to design coefficients: %w", err)
	}
	return &cfg, coeffs, nil
}

// resamplerRate is the resampler output rate relative to its input, which
// converts a frequency at the notch into one at the pipeline input.
func resamplerRate(cfg *dfe.Config) float64 {
	if !cfg.Has(dfe.StageResampler) {
		return 1
	}
	if cfg.Emit == dfe.EmitRational {
		return float64(cfg.Interpolation) / float64(cfg.Decimation)
	}
	return float64(cfg.Interpolation)
}

func printInfo(info dfe.Info) {
	fmt.Printf("Pipeline created:\n")
	fmt.Printf("  Stages: %s\n", strings.Join(info.Stages, " -> "))
	fmt.Printf("  Rate: %d/%d\n", info.RateNum, info.RateDen)
	fmt.Printf("  Ticks per input: %d\n", info.TicksPerInput)
	fmt.Printf("  Accumulator: %d bits\n", info.AccumulatorWidth)
	if info.NotchRegisterWidth > 0 {
		fmt.Printf("  Notch registers: %d bits\n", info.NotchRegisterWidth)
	}
	if info.CICRegisterWidth > 0 {
		fmt.Printf("  CIC: %d-bit registers, gain %d, shift %d\n", info.CICRegisterWidth, info.CICGain, info.CICShift)
	}
	if info.CompensatorTaps > 0 {
		fmt.Printf("  Compensator: %d taps\n", info.CompensatorTaps)
	}
	fmt.Printf("  Emit: %s, overrun: %s\n", info.Emit, info.Overrun)
	fmt.Printf("  SIMD: %s\n", info.SIMD)
}

func runImpulse(p *dfe.Pipeline) error {
	cfg := p.Config()
	full := int64(1)<<(cfg.DataWidth-1) - 1

	// Long enough for the response to pass through every stage. Factors of
	// stages that are not configured may be zero.
	n := max(cfg.Decimation, 1) * max(cfg.Taps, cfg.CompensatorTaps, 1) * max(cfg.CICRate, 1)
	n = max(n, impulsePreview)
	impulse := make([]int64, n)
	impulse[0] = full

	out := p.Process(impulse)
	tail, err := p.Flush(0)
	if err != nil {
		return err
	}
	out = append(out, tail...)

	shown := out[:min(len(out), impulsePreview)]
	fmt.Printf("  %d outputs, first %d: %v\n", len(out), len(shown), shown)
	return nil
}

func runTone(p *dfe.Pipeline, info dfe.Info, t tone, n int, verbose bool) error {
	cfg := p.Config()
	frac := cfg.DataWidth - 1
	scale := math.Ldexp(toneAmplitude, frac)

	input := make([]int64, n)
	for i := range input {
		input[i] = int64(math.Round(scale * math.Sin(2*math.Pi*t.freq*float64(i))))
	}

	out := p.Process(input)
	tail, err := p.Flush(0)
	if err != nil {
		return err
	}
	out = append(out, tail...)

	// Skip the settling transient.
	settled := out[len(out)/4:]
	outFreq := t.freq * float64(info.RateDen) / float64(info.RateNum)
	if outFreq >= 0.5 {
		fmt.Printf("  %s: %.4f cycles/sample aliases at the output rate\n", t.name, t.freq)
		return nil
	}

	level, err := analysis.ToneAmplitude(analysis.ToFloat(settled, frac), outFreq)
	if err != nil {
		return err
	}
	if verbose {
		log.Printf("%s: %d inputs -> %d outputs", t.name, len(input), len(out))
	}
	fmt.Printf("  %s (%.4f cycles/sample): amplitude %.4f, %.1f dB\n",
		t.name, t.freq, level, analysis.DB(level/toneAmplitude))
	return nil
}
