package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dfe "github.com/tphakala/go-dfe"
)

// writeTestWAV writes a 16-bit tone with the given channel count.
func writeTestWAV(t *testing.T, path string, rate, channels, frames int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)

	data := make([]int, frames*channels)
	for i := range frames {
		v := int(math.Round(8000 * math.Sin(2*math.Pi*0.01*float64(i))))
		for ch := range channels {
			data[i*channels+ch] = v
		}
	}

	enc := wav.NewEncoder(f, rate, bitsPerSample16, channels, wavFormatPCM)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Data:   data,
		Format: &audio.Format{SampleRate: rate, NumChannels: channels},
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func readTestWAV(t *testing.T, path string) *audio.IntBuffer {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	require.NoError(t, err)
	return buf
}

func TestOpenWAVInput_FileNotFound(t *testing.T) {
	_, err := openWAVInput("/nonexistent/file.wav", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open input file")
}

func TestOpenWAVInput_InvalidWAV(t *testing.T) {
	invalidFile := filepath.Join(t.TempDir(), "invalid.wav")
	require.NoError(t, os.WriteFile(invalidFile, []byte("not a wav file"), 0o644))

	_, err := openWAVInput(invalidFile, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid WAV file")
}

func TestOutputRate(t *testing.T) {
	rate, err := outputRate(48000, dfe.Info{RateNum: 2, RateDen: 3})
	require.NoError(t, err)
	assert.Equal(t, 32000, rate)

	_, err = outputRate(44100, dfe.Info{RateNum: 2, RateDen: 7})
	assert.Error(t, err)
}

func TestSampleScaler(t *testing.T) {
	tests := []struct {
		name      string
		bitDepth  int
		dataWidth int
		in        int
		pipeline  int64
	}{
		{"same width", 16, 16, -1234, -1234},
		{"widen", 16, 18, 1000, 4000},
		{"narrow", 24, 16, 0x7FFF00, 0x7FFF},
		{"narrow negative", 24, 16, -256, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSampleScaler(tt.bitDepth, tt.dataWidth)
			assert.Equal(t, tt.pipeline, s.toPipeline(tt.in))
		})
	}

	s := newSampleScaler(16, 18)
	assert.Equal(t, 32767, s.fromPipeline(1<<17-1))
	assert.Equal(t, -32768, s.fromPipeline(-1<<17))
	assert.Equal(t, 1000, s.fromPipeline(4000))
}

func TestInterleave_RoundTrip(t *testing.T) {
	scaler := newSampleScaler(16, 16)
	data := []int{1, -1, 2, -2, 3, -3}
	chans := make([][]int64, 2)

	deinterleaveInto(data, chans, scaler)
	assert.Equal(t, []int64{1, 2, 3}, chans[0])
	assert.Equal(t, []int64{-1, -2, -3}, chans[1])

	assert.Equal(t, data, interleaveInto(chans, nil, scaler))

	chans[1] = chans[1][:2]
	assert.Equal(t, data[:4], interleaveInto(chans, nil, scaler), "truncated to the shortest channel")
}

func TestConvertWAV(t *testing.T) {
	for _, channels := range []int{1, 2} {
		t.Run(map[int]string{1: "mono", 2: "stereo"}[channels], func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, "in.wav")
			out := filepath.Join(dir, "out.wav")
			writeTestWAV(t, in, 48000, channels, 3000)

			cfg, coeffs, err := loadPipeline("", 2, 3, 8, 0.2)
			require.NoError(t, err)

			stats, err := convertWAV(in, out, cfg, coeffs, false, true)
			require.NoError(t, err)
			assert.Equal(t, 32000, stats.outputRate)
			assert.Equal(t, int64(3000), stats.inputFrames)
			assert.Equal(t, int64(2000), stats.outputFrames)

			buf := readTestWAV(t, out)
			assert.Equal(t, 32000, buf.Format.SampleRate)
			assert.Equal(t, channels, buf.Format.NumChannels)
			require.Len(t, buf.Data, 2000*channels)
			if channels == 2 {
				for i := 0; i < len(buf.Data); i += 2 {
					require.Equal(t, buf.Data[i], buf.Data[i+1], "identical channels stay identical")
				}
			}
		})
	}
}

func TestConvertWAV_ParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	writeTestWAV(t, in, 48000, 2, 1200)

	cfg, coeffs, err := loadPipeline("", 2, 3, 8, 0.2)
	require.NoError(t, err)

	seq := filepath.Join(dir, "seq.wav")
	par := filepath.Join(dir, "par.wav")
	_, err = convertWAV(in, seq, cfg, coeffs, false, false)
	require.NoError(t, err)
	_, err = convertWAV(in, par, cfg, coeffs, false, true)
	require.NoError(t, err)

	assert.Equal(t, readTestWAV(t, seq).Data, readTestWAV(t, par).Data)
}
