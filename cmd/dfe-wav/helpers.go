package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	dfe "github.com/tphakala/go-dfe"
)

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file        *os.File
	decoder     *wav.Decoder
	rate        int
	channels    int
	bitDepth    int
	totalFrames int64
	format      *audio.Format
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string, verbose bool) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)
	switch bitDepth {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
	default:
		_ = inputFile.Close()
		return nil, fmt.Errorf("unsupported bit depth %d in %s", bitDepth, path)
	}

	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit", format.SampleRate, format.NumChannels, bitDepth)
	}

	// Total duration for progress reporting
	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}

	return &wavInputInfo{
		file:        inputFile,
		decoder:     decoder,
		rate:        format.SampleRate,
		channels:    format.NumChannels,
		bitDepth:    bitDepth,
		totalFrames: int64(duration.Seconds() * float64(format.SampleRate)),
		format:      format,
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// createChannelPipelines creates one pipeline per channel. Coefficient
// tables are shared; every pipeline owns its own state.
func createChannelPipelines(numChannels int, cfg *dfe.Config, coeffs *dfe.Coefficients) ([]*dfe.Pipeline, error) {
	pipelines := make([]*dfe.Pipeline, numChannels)
	for ch := range numChannels {
		p, err := dfe.New(cfg, coeffs)
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline for channel %d: %w", ch, err)
		}
		pipelines[ch] = p
	}
	return pipelines, nil
}

// outputRate applies the pipeline rate to inputRate. WAV needs an integer
// rate, so the ratio must divide evenly.
func outputRate(inputRate int, info dfe.Info) (int, error) {
	scaled := inputRate * info.RateNum
	if scaled%info.RateDen != 0 {
		return 0, fmt.Errorf("%d Hz times %d/%d is not an integer rate", inputRate, info.RateNum, info.RateDen)
	}
	return scaled / info.RateDen, nil
}

// wavOutputWriter wraps the output file and encoder.
type wavOutputWriter struct {
	file    *os.File
	encoder *wav.Encoder
	format  *audio.Format
}

// createWAVOutput creates the output file and encoder.
func createWAVOutput(path string, sampleRate, bitDepth, channels int) (*wavOutputWriter, error) {
	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutputWriter{
		file:    outputFile,
		encoder: wav.NewEncoder(outputFile, sampleRate, bitDepth, channels, wavFormatPCM),
		format:  &audio.Format{SampleRate: sampleRate, NumChannels: channels},
	}, nil
}

// WriteSamples writes interleaved samples to the output file.
func (w *wavOutputWriter) WriteSamples(samples []int) error {
	if len(samples) == 0 {
		return nil
	}
	return w.encoder.Write(&audio.IntBuffer{Data: samples, Format: w.format})
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutputWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// sampleScaler moves samples between the file bit depth and the pipeline
// data width. Both sides are full-scale signed integers, so conversion is
// a shift.
type sampleScaler struct {
	shift  int // dataWidth - bitDepth
	lo, hi int64
}

func newSampleScaler(bitDepth, dataWidth int) sampleScaler {
	return sampleScaler{
		shift: dataWidth - bitDepth,
		lo:    -(int64(1) << (bitDepth - 1)),
		hi:    int64(1)<<(bitDepth-1) - 1,
	}
}

func (s sampleScaler) toPipeline(v int) int64 {
	if s.shift >= 0 {
		return int64(v) << s.shift
	}
	return int64(v) >> -s.shift
}

func (s sampleScaler) fromPipeline(v int64) int {
	if s.shift >= 0 {
		v >>= s.shift
	} else {
		v <<= -s.shift
	}
	return int(max(s.lo, min(v, s.hi)))
}

// deinterleaveInto splits interleaved file samples into per-channel
// pipeline samples, reusing dst.
func deinterleaveInto(data []int, dst [][]int64, scaler sampleScaler) {
	channels := len(dst)
	frames := len(data) / channels
	for ch := range channels {
		dst[ch] = dst[ch][:0]
		for i := range frames {
			dst[ch] = append(dst[ch], scaler.toPipeline(data[i*channels+ch]))
		}
	}
}

// interleaveInto merges per-channel outputs into dst, reusing its backing
// array. Channels are truncated to the shortest.
func interleaveInto(channels [][]int64, dst []int, scaler sampleScaler) []int {
	frames := len(channels[0])
	for _, c := range channels[1:] {
		frames = min(frames, len(c))
	}

	dst = dst[:0]
	for i := range frames {
		for _, c := range channels {
			dst = append(dst, scaler.fromPipeline(c[i]))
		}
	}
	return dst
}

// processChannels runs every channel block through its pipeline. Pipelines
// are independent, so channels run concurrently when parallel is set.
func processChannels(pipelines []*dfe.Pipeline, in [][]int64, parallel bool) [][]int64 {
	out := make([][]int64, len(pipelines))

	if !parallel || len(pipelines) == 1 {
		for ch, p := range pipelines {
			out[ch] = p.Process(in[ch])
		}
		return out
	}

	var wg sync.WaitGroup
	for ch, p := range pipelines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[ch] = p.Process(in[ch])
		}()
	}
	wg.Wait()
	return out
}

// flushChannels drains every pipeline.
func flushChannels(pipelines []*dfe.Pipeline) ([][]int64, error) {
	out := make([][]int64, len(pipelines))
	for ch, p := range pipelines {
		tail, err := p.Flush(0)
		if err != nil {
			return nil, fmt.Errorf("failed to flush channel %d: %w", ch, err)
		}
		out[ch] = tail
	}
	return out, nil
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalFrames  int64
	lastProgress int
	verbose      bool
}

func newProgressTracker(totalFrames int64, verbose bool) *progressTracker {
	return &progressTracker{totalFrames: totalFrames, verbose: verbose}
}

// reportIfNeeded reports progress if threshold crossed.
func (p *progressTracker) reportIfNeeded(frames int64) {
	if !p.verbose || p.totalFrames == 0 {
		return
	}

	progress := int(float64(frames) / float64(p.totalFrames) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		log.Printf("Progress: %d%%", progress)
		p.lastProgress = progress
	}
}

// convertStats summarizes one conversion.
type convertStats struct {
	inputRate    int
	outputRate   int
	channels     int
	bitDepth     int
	inputFrames  int64
	outputFrames int64
}

// convertWAV streams inputPath through one pipeline per channel and writes
// the result to outputPath at the pipeline output rate.
func convertWAV(inputPath, outputPath string, cfg *dfe.Config, coeffs *dfe.Coefficients, verbose, parallel bool) (stats *convertStats, err error) {
	input, err := openWAVInput(inputPath, verbose)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	pipelines, err := createChannelPipelines(input.channels, cfg, coeffs)
	if err != nil {
		return nil, err
	}
	info := pipelines[0].Info()
	rate, err := outputRate(input.rate, info)
	if err != nil {
		return nil, err
	}

	output, err := createWAVOutput(outputPath, rate, input.bitDepth, input.channels)
	if err != nil {
		return nil, err
	}
	// Capture close errors on the success path; Close writes the header sizes.
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	resolved := pipelines[0].Config()
	scaler := newSampleScaler(input.bitDepth, resolved.DataWidth)
	intBuffer := &audio.IntBuffer{
		Data:   make([]int, bufferFrames*input.channels),
		Format: input.format,
	}
	channelBufs := make([][]int64, input.channels)
	for ch := range channelBufs {
		channelBufs[ch] = make([]int64, 0, bufferFrames)
	}
	var outBuf []int

	stats = &convertStats{
		inputRate:  input.rate,
		outputRate: rate,
		channels:   input.channels,
		bitDepth:   input.bitDepth,
	}
	progress := newProgressTracker(input.totalFrames, verbose)

	for {
		n, err := input.decoder.PCMBuffer(intBuffer)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}

		deinterleaveInto(intBuffer.Data[:n], channelBufs, scaler)
		stats.inputFrames += int64(n / input.channels)

		outBuf = interleaveInto(processChannels(pipelines, channelBufs, parallel), outBuf, scaler)
		stats.outputFrames += int64(len(outBuf) / input.channels)
		if err := output.WriteSamples(outBuf); err != nil {
			return nil, fmt.Errorf("failed to write audio data: %w", err)
		}

		progress.reportIfNeeded(stats.inputFrames)
	}

	tails, err := flushChannels(pipelines)
	if err != nil {
		return nil, err
	}
	outBuf = interleaveInto(tails, outBuf, scaler)
	stats.outputFrames += int64(len(outBuf) / input.channels)
	if err := output.WriteSamples(outBuf); err != nil {
		return nil, fmt.Errorf("failed to write flushed data: %w", err)
	}

	if verbose {
		s := pipelines[0].Stats()
		log.Printf("Channel 0: %d ticks, %d accepted, %d emitted", s.Ticks, s.Accepted, s.Emitted)
	}
	return stats, nil
}
