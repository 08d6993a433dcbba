package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalfloor/noisewall/internal/dsp"
	"github.com/signalfloor/noisewall/internal/models"
)

func sine(n int, freqHz, amplitude float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/models.SampleRate)
	}
	return x
}

func rms(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestCascadeSuppressesMainsInterference(t *testing.T) {
	in := sine(5000, 50, 1)

	out, final, err := NewCascade().Apply(in, models.BandSelection{})
	require.NoError(t, err)
	require.Nil(t, final)
	require.Len(t, out, len(in))

	// Judge suppression after the notch transients have decayed.
	assert.Less(t, rms(out[2000:]), rms(in)/100)
}

func TestCascadePassesAlphaBand(t *testing.T) {
	in := sine(5000, 10, 1)

	out, _, err := NewCascade().Apply(in, models.BandSelection{Low: 8, High: 12})
	require.NoError(t, err)

	assert.Greater(t, rms(out[2000:]), rms(in)/2)
}

func TestCascadeBandpassResponseShape(t *testing.T) {
	_, final, err := NewCascade().Apply(sine(3000, 10, 1e-5), models.BandSelection{Low: 8, High: 12})
	require.NoError(t, err)
	require.Len(t, final, responseBins)

	assert.Greater(t, final[10], 0.8)
	assert.Less(t, final[30], 0.05)
	assert.Less(t, final[50], 1e-3)
	for i, v := range final {
		assert.GreaterOrEqual(t, v, 0.0, "bin %d", i)
	}
}

func TestCascadeFIRPassesFoldPerPass(t *testing.T) {
	in := sine(4000, 10, 1e-5)

	_, one, err := NewCascade().Apply(in, models.BandSelection{Low: -1})
	require.NoError(t, err)
	_, two, err := NewCascade().Apply(in, models.BandSelection{Low: -2})
	require.NoError(t, err)

	kernel := dsp.FIRKernel().Magnitude(responseBins)
	for i := range one {
		assert.InDelta(t, one[i]*kernel[i], two[i], 1e-12, "bin %d", i)
	}
	assert.Zero(t, two[0])
}

func TestCascadeRejectsBandEdgeAboveNyquist(t *testing.T) {
	_, _, err := NewCascade().Apply(sine(1000, 10, 1), models.BandSelection{Low: 100, High: 600})
	require.Error(t, err)
	assert.ErrorContains(t, err, "band selection")
}
