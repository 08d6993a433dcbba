package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalfloor/noisewall/internal/models"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	results := []models.AnalysisResult{
		{
			Subject:         3,
			Experiment:      "relax",
			SNRWallDB:       9.9563519459755,
			SNRDB:           12.5,
			Rho:             10,
			NoiseVarMin:     1e-12,
			NoiseVarMax:     1e-10,
			ReferenceEEGVar: 4e-11,
			Detectable:      true,
		},
		{
			Subject:    4,
			Experiment: "sudoku",
			SNRWallDB:  math.Inf(-1),
			Rho:        1,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"subject", "experiment",
		"snr_wall_db", "snr_db", "rho",
		"noise_var_min", "noise_var_max", "reference_eeg_var",
		"detectable",
	}, rows[0])

	assert.Equal(t, "3", rows[1][0])
	assert.Equal(t, "relax", rows[1][1])
	assert.Equal(t, "true", rows[1][8])

	wall, err := strconv.ParseFloat(rows[1][2], 64)
	require.NoError(t, err)
	assert.InDelta(t, 9.9563519459755, wall, 1e-12)

	// Non-finite walls survive the trip, which JSON could not encode.
	assert.Equal(t, "-Inf", rows[2][2])
	assert.Equal(t, "false", rows[2][8])
}

func TestWriteCSVEmptyStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "subject", rows[0][0])
}
