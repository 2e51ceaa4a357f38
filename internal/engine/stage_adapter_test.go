package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-dfe/internal/coeff"
	"github.com/tphakala/go-dfe/internal/filter"
	"github.com/tphakala/go-dfe/internal/fixed"
	"github.com/tphakala/go-dfe/internal/pipeline"
	"github.com/tphakala/go-dfe/internal/testutil"
)

var q14 = fixed.Q(16, 14)

func newTestNotch(t *testing.T) *filter.Biquad {
	t.Helper()
	store, err := coeff.NewStore(testutil.NotchCoefficients(t, 0.125, 0.95, q14), q14)
	require.NoError(t, err)
	b, err := filter.NewBiquad(store.All(), q15, fixed.Saturate, fixed.RoundHalfUp)
	require.NoError(t, err)
	return b
}

func newTestCIC(t *testing.T, order, rate int) *filter.CIC {
	t.Helper()
	c, err := filter.NewCIC(filter.CICConfig{
		Order:          order,
		Rate:           rate,
		Data:           q15,
		RegisterPolicy: fixed.Wrap,
		OutputPolicy:   fixed.Saturate,
		OutputShift:    filter.AutoShift,
	})
	require.NoError(t, err)
	return c
}

func newTestFIR(t *testing.T, taps []int64, lanes int) *filter.MAC {
	t.Helper()
	store, err := coeff.NewStore(taps, q15)
	require.NoError(t, err)
	cfg := testMAC
	cfg.Lanes = lanes
	m, err := filter.NewMAC(store.All(), len(taps), cfg)
	require.NoError(t, err)
	return m
}

func TestNotchStage_MatchesBiquad(t *testing.T) {
	input := testutil.Tone(64, 0.05, 12000)

	ref := newTestNotch(t)
	want := make([]int64, len(input))
	for i, x := range input {
		want[i] = ref.Process(x)
	}

	stage := NewNotchStage(newTestNotch(t))
	c, err := pipeline.NewChain([]pipeline.Stage{stage}, false)
	require.NoError(t, err)

	// A single stage publishes on the tick that accepted the input.
	s, _ := c.Tick(pipeline.Valid(input[0]))
	assert.Equal(t, pipeline.Valid(want[0]), s)

	got := testutil.Drive(t, c, input[1:])
	assert.Equal(t, want[1:], got)
	assert.Equal(t, NameNotch, stage.Name())
}

func TestNotchStage_InvalidInputHoldsState(t *testing.T) {
	stage := NewNotchStage(newTestNotch(t))
	c, err := pipeline.NewChain([]pipeline.Stage{stage}, false)
	require.NoError(t, err)

	c.Tick(pipeline.Valid(10000))
	before := stage.Biquad().State()
	for range 5 {
		s, _ := c.Tick(pipeline.Sample{})
		assert.False(t, s.Valid)
	}
	assert.Equal(t, before, stage.Biquad().State())

	stage.Reset()
	assert.Equal(t, [2]int64{}, stage.Biquad().State())
	assert.False(t, stage.Output().Valid)
}

func TestCICStage_Decimates(t *testing.T) {
	stage := NewCICStage(newTestCIC(t, 1, 4))
	c, err := pipeline.NewChain([]pipeline.Stage{stage}, false)
	require.NoError(t, err)

	var valid []int
	for i := range 12 {
		s, _ := c.Tick(pipeline.Valid(100))
		if s.Valid {
			assert.Equal(t, int64(100), s.Value)
			valid = append(valid, i)
		}
	}
	// The gate passes every fourth sample: input indices 3, 7, 11.
	assert.Equal(t, []int{3, 7, 11}, valid)
	assert.Equal(t, NameCIC, stage.Name())
	assert.Equal(t, 4, stage.CIC().Rate())
}

func TestFIRStage_BusyWhileAccumulating(t *testing.T) {
	taps := []int64{8000, -6000, 4000, 2000}
	stage := NewFIRStage(NameCompensator, newTestFIR(t, taps, 1))
	c, err := pipeline.NewChain([]pipeline.Stage{stage}, false)
	require.NoError(t, err)

	_, status := c.Tick(pipeline.Valid(16384))
	require.Equal(t, pipeline.StatusAccepted, status)
	assert.False(t, c.Ready(), "one tap per tick leaves three taps pending")

	got := testutil.Drive(t, c, []int64{0, 0, 0})
	assert.Equal(t, []int64{4000, -3000, 2000, 1000}, got)
	assert.Equal(t, NameCompensator, stage.Name())
}

func TestFIRStage_SingleTickWindow(t *testing.T) {
	taps := []int64{8000, -6000, 4000, 2000}
	stage := NewFIRStage(NameCompensator, newTestFIR(t, taps, 0))
	c, err := pipeline.NewChain([]pipeline.Stage{stage}, false)
	require.NoError(t, err)

	var got []pipeline.Sample
	for _, x := range []int64{16384, 0, 0} {
		s, status := c.Tick(pipeline.Valid(x))
		assert.Equal(t, pipeline.StatusAccepted, status)
		got = append(got, s)
	}
	s, _ := c.Tick(pipeline.Sample{})
	got = append(got, s)

	want := []pipeline.Sample{pipeline.Valid(4000), pipeline.Valid(-3000), pipeline.Valid(2000), {}}
	assert.Equal(t, want, got)
}
