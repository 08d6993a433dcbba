package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterImpulseResponseOfFIRKernel(t *testing.T) {
	x := make([]float64, 12)
	x[0] = 1

	y := FIRKernel().Filter(x)

	want := []float64{0.25, 0.25, 0.25, 0.25, -0.25, -0.25, -0.25, -0.25, 0, 0, 0, 0}
	require.Len(t, y, len(want))
	for i := range want {
		assert.InDelta(t, want[i], y[i], 1e-15, "sample %d", i)
	}
}

func TestFilterStepResponseReachesDCGain(t *testing.T) {
	tf, err := Lowpass(6, 0.2)
	require.NoError(t, err)

	x := make([]float64, 2000)
	for i := range x {
		x[i] = 1
	}

	y := tf.Filter(x)
	assert.InDelta(t, 1.0, y[len(y)-1], 1e-6)
}

func TestFilterIsDeterministic(t *testing.T) {
	tf, err := Lowpass(6, 0.2)
	require.NoError(t, err)

	x := make([]float64, 512)
	for i := range x {
		x[i] = float64(i%17) - 8
	}

	first := tf.Filter(x)
	second := tf.Filter(x)
	require.Equal(t, first, second)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	tf, err := Highpass(4, 0.001)
	require.NoError(t, err)

	x := []float64{1, 2, 3, 4, 5}
	orig := append([]float64(nil), x...)
	_ = tf.Filter(x)
	require.Equal(t, orig, x)
}

func TestFilterNormalizesLeadingDenominator(t *testing.T) {
	tf := TF{B: []float64{2}, A: []float64{2}}

	x := []float64{1, -1, 0.5}
	y := tf.Filter(x)
	require.Equal(t, x, y)
}

func TestMagnitudeLengthMatchesRequest(t *testing.T) {
	tf, err := Bandstop(2, 0.098, 0.102)
	require.NoError(t, err)
	require.Len(t, tf.Magnitude(respBins), respBins)
}
