package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalfloor/noisewall/internal/models"
)

func TestRhoKnownRatio(t *testing.T) {
	assert.InDelta(t, 10.0, Rho(1e-12, 1e-10), 1e-12)
}

func TestRhoZeroMinVariancePropagatesInfinity(t *testing.T) {
	rho := Rho(0, 1e-10)
	require.True(t, math.IsInf(rho, 1))

	wall, err := NoiseWall(1, "reach", rho)
	require.NoError(t, err)
	assert.True(t, math.IsInf(wall, 1))
}

func TestNoiseWallKnownValue(t *testing.T) {
	wall, err := NoiseWall(1, "reach", 10)
	require.NoError(t, err)
	assert.InDelta(t, 9.9563519459755, wall, 1e-9)
}

func TestNoiseWallAtUnityRhoIsNegativeInfinity(t *testing.T) {
	wall, err := NoiseWall(1, "reach", 1)
	require.NoError(t, err)
	assert.True(t, math.IsInf(wall, -1))
}

func TestNoiseWallRejectsRhoBelowOne(t *testing.T) {
	_, err := NoiseWall(4, "sudoku", 0.9)
	reason, ok := models.ExclusionReason(err)
	require.True(t, ok)
	assert.Equal(t, models.ReasonMinVarianceExceedsMaxVariance, reason)
}

func TestSNRKnownValues(t *testing.T) {
	// Conscious variance equal to the reconstructed noise floor sits at 0 dB.
	assert.InDelta(t, 0.0, SNR(1e-12, 10, 1e-11, 1), 1e-12)

	// Doubling the gain quadruples the conscious variance: +6.02 dB.
	assert.InDelta(t, 10*math.Log10(4), SNR(1e-12, 10, 1e-11, 2), 1e-12)
}
