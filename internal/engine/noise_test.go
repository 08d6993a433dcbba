package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalfloor/noisewall/internal/models"
)

func makeRecording(eeg []float64, quiet models.Window, artefacts []models.Window) *models.Recording {
	return &models.Recording{
		Subject:    7,
		Experiment: "reach",
		Valid:      true,
		EEG:        eeg,
		Quiet:      quiet,
		Artefacts:  artefacts,
	}
}

// alternating builds a zero-mean square wave whose population variance is
// exactly amplitude squared.
func alternating(n int, amplitude float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		if i%2 == 0 {
			x[i] = amplitude
		} else {
			x[i] = -amplitude
		}
	}
	return x
}

func TestMinVarianceComputesQuietWindowVariance(t *testing.T) {
	rec := makeRecording(alternating(2000, 1e-6), models.Window{Start: 0, End: 1}, nil)

	v, err := NewNoiseEstimator(nil).MinVariance(rec, 1)
	require.NoError(t, err)
	assert.InEpsilon(t, 1e-12, v, 1e-9)
}

func TestMinVarianceAppliesNoiseReduction(t *testing.T) {
	rec := makeRecording(alternating(2000, 1e-6), models.Window{Start: 0, End: 1}, nil)
	est := NewNoiseEstimator(nil)

	base, err := est.MinVariance(rec, 1)
	require.NoError(t, err)
	reduced, err := est.MinVariance(rec, 2)
	require.NoError(t, err)

	assert.InEpsilon(t, base/4, reduced, 1e-12)
}

func TestMinVarianceFlagsRestlessQuietWindow(t *testing.T) {
	rec := makeRecording(alternating(2000, 100e-6), models.Window{Start: 0, End: 1}, nil)

	_, err := NewNoiseEstimator(nil).MinVariance(rec, 1)
	reason, ok := models.ExclusionReason(err)
	require.True(t, ok)
	assert.Equal(t, models.ReasonMinVarianceUnusuallyHigh, reason)
}

func TestMinVarianceRejectsWindowOutsideRecording(t *testing.T) {
	rec := makeRecording(alternating(2000, 1e-6), models.Window{Start: 5, End: 6}, nil)

	_, err := NewNoiseEstimator(nil).MinVariance(rec, 1)
	require.Error(t, err)
	_, ok := models.ExclusionReason(err)
	assert.False(t, ok)
}

func TestMinVarianceHonoursTimebaseOffset(t *testing.T) {
	eeg := make([]float64, 3000)
	copy(eeg[500:1500], alternating(1000, 3e-6))
	rec := makeRecording(eeg, models.Window{Start: 0, End: 1}, nil)
	rec.ZeroTimeData = 1.0
	rec.ZeroTimeVideo = 0.5

	v, err := NewNoiseEstimator(nil).MinVariance(rec, 1)
	require.NoError(t, err)
	assert.InEpsilon(t, 9e-12, v, 1e-9)
}

func TestMaxVarianceTakesMedianAcrossWindows(t *testing.T) {
	eeg := make([]float64, 4000)
	copy(eeg[1000:2000], alternating(1000, 2e-6))
	copy(eeg[2000:3000], alternating(1000, 1e-6))
	copy(eeg[3000:4000], alternating(1000, 4e-6))
	rec := makeRecording(eeg, models.Window{Start: 0, End: 1}, []models.Window{
		{Start: 1, End: 2},
		{Start: 2, End: 3},
		{Start: 3, End: 4},
	})

	v, err := NewNoiseEstimator(nil).MaxVariance(rec, 1)
	require.NoError(t, err)
	assert.InEpsilon(t, 4e-12, v, 1e-9)
}

func TestMaxVarianceAveragesMiddlePairForEvenCount(t *testing.T) {
	eeg := make([]float64, 3000)
	copy(eeg[1000:2000], alternating(1000, 2e-6))
	copy(eeg[2000:3000], alternating(1000, 1e-6))
	rec := makeRecording(eeg, models.Window{Start: 0, End: 1}, []models.Window{
		{Start: 1, End: 2},
		{Start: 2, End: 3},
	})

	v, err := NewNoiseEstimator(nil).MaxVariance(rec, 1)
	require.NoError(t, err)
	assert.InEpsilon(t, 2.5e-12, v, 1e-9)
}

func TestMaxVarianceRequiresArtefactWindows(t *testing.T) {
	rec := makeRecording(alternating(2000, 1e-6), models.Window{Start: 0, End: 1}, nil)

	_, err := NewNoiseEstimator(nil).MaxVariance(rec, 1)
	require.Error(t, err)
	assert.ErrorContains(t, err, "no artefact windows")
}

func TestValidateMinVarianceNegative(t *testing.T) {
	rec := makeRecording(nil, models.Window{}, nil)

	err := validateMinVariance(rec, -1e-15)
	reason, ok := models.ExclusionReason(err)
	require.True(t, ok)
	assert.Equal(t, models.ReasonMinVarianceNegative, reason)
}

func TestValidateMaxVarianceNegative(t *testing.T) {
	rec := makeRecording(nil, models.Window{}, nil)

	err := validateMaxVariance(rec, -1e-15)
	reason, ok := models.ExclusionReason(err)
	require.True(t, ok)
	assert.Equal(t, models.ReasonMaxVarianceNegative, reason)
}

func TestMedianSemantics(t *testing.T) {
	assert.Equal(t, 3.0, median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
	assert.Equal(t, 7.0, median([]float64{7}))
}
