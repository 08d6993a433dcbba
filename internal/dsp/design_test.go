package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const respBins = 500 // one bin per integer hertz at fs = 1000

func TestLowpassFirstOrderKnownCoefficients(t *testing.T) {
	tf, err := Lowpass(1, 0.5)
	require.NoError(t, err)

	require.Len(t, tf.B, 2)
	require.Len(t, tf.A, 2)
	assert.InDelta(t, 0.5, tf.B[0], 1e-12)
	assert.InDelta(t, 0.5, tf.B[1], 1e-12)
	assert.InDelta(t, 1.0, tf.A[0], 1e-12)
	assert.InDelta(t, 0.0, tf.A[1], 1e-12)
}

func TestLowpassSecondOrderKnownCoefficients(t *testing.T) {
	tf, err := Lowpass(2, 0.5)
	require.NoError(t, err)

	wantB := []float64{0.2928932188134524, 0.5857864376269048, 0.2928932188134524}
	wantA := []float64{1.0, 0.0, 0.1715728752538099}
	require.Len(t, tf.B, 3)
	require.Len(t, tf.A, 3)
	for i := range wantB {
		assert.InDelta(t, wantB[i], tf.B[i], 1e-9)
	}
	for i := range wantA {
		assert.InDelta(t, wantA[i], tf.A[i], 1e-9)
	}
}

func TestLowpassCascadeCutoff(t *testing.T) {
	// The anti-alias stage of the cascade: order 6, 100 Hz at fs 1000.
	tf, err := Lowpass(6, 100.0/1000.0*2)
	require.NoError(t, err)

	mag := tf.Magnitude(respBins)
	assert.InDelta(t, 1.0, mag[0], 1e-9)
	// Prewarping puts the -3 dB point exactly on the design edge.
	assert.InDelta(t, 1/math.Sqrt2, mag[100], 1e-6)
	assert.Less(t, mag[250], 1e-3)
	assert.Greater(t, mag[50], 0.99)
}

func TestHighpassRejectsDC(t *testing.T) {
	tf, err := Highpass(4, 0.5/1000.0*2)
	require.NoError(t, err)

	mag := tf.Magnitude(respBins)
	assert.Less(t, mag[0], 1e-9)
	assert.InDelta(t, 1.0, mag[100], 1e-3)
}

func TestBandstopNotchEdges(t *testing.T) {
	tf, err := Bandstop(2, 49.0/500.0, 51.0/500.0)
	require.NoError(t, err)

	mag := tf.Magnitude(respBins)
	assert.Less(t, mag[50], 0.01)
	assert.InDelta(t, 1/math.Sqrt2, mag[49], 1e-6)
	assert.InDelta(t, 1/math.Sqrt2, mag[51], 1e-6)
	assert.InDelta(t, 1.0, mag[10], 0.01)
	assert.InDelta(t, 1.0, mag[200], 0.01)
}

func TestBandpassSelectsBand(t *testing.T) {
	tf, err := Bandpass(4, 8.0/500.0, 12.0/500.0)
	require.NoError(t, err)

	mag := tf.Magnitude(respBins)
	assert.Less(t, mag[0], 1e-6)
	assert.InDelta(t, 1/math.Sqrt2, mag[8], 1e-6)
	assert.InDelta(t, 1/math.Sqrt2, mag[12], 1e-6)
	assert.Greater(t, mag[10], 0.95)
	assert.Less(t, mag[100], 1e-3)
}

func TestMagnitudeNeverNegative(t *testing.T) {
	designs := []struct {
		name string
		tf   func() (TF, error)
	}{
		{"lowpass", func() (TF, error) { return Lowpass(6, 0.2) }},
		{"highpass", func() (TF, error) { return Highpass(4, 0.001) }},
		{"bandstop", func() (TF, error) { return Bandstop(2, 0.098, 0.102) }},
		{"bandpass", func() (TF, error) { return Bandpass(4, 0.016, 0.024) }},
		{"fir", func() (TF, error) { return FIRKernel(), nil }},
	}

	for _, d := range designs {
		tf, err := d.tf()
		require.NoError(t, err, d.name)
		for i, m := range tf.Magnitude(respBins) {
			if m < 0 {
				t.Fatalf("%s: magnitude negative at bin %d: %g", d.name, i, m)
			}
		}
	}
}

func TestDesignRejectsDegenerateSpecs(t *testing.T) {
	_, err := Lowpass(0, 0.2)
	assert.Error(t, err)
	_, err = Lowpass(6, 0)
	assert.Error(t, err)
	_, err = Lowpass(6, 1)
	assert.Error(t, err)
	_, err = Highpass(4, -0.5)
	assert.Error(t, err)
	_, err = Bandpass(4, 0.3, 0.2)
	assert.Error(t, err)
	_, err = Bandpass(4, 0.2, 0.2)
	assert.Error(t, err)
	_, err = Bandstop(2, -0.1, 0.5)
	assert.Error(t, err)
	_, err = Bandstop(2, 0.1, 1.5)
	assert.Error(t, err)
}
