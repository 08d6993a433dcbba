package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/signalfloor/noisewall/internal/models"
)

// WriteCSV writes one row per analysed recording. Non-finite walls print as
// Inf/NaN tokens, which is why survey output is CSV rather than JSON.
func WriteCSV(w io.Writer, results []models.AnalysisResult) error {
	cw := csv.NewWriter(w)
	header := []string{
		"subject", "experiment",
		"snr_wall_db", "snr_db", "rho",
		"noise_var_min", "noise_var_max", "reference_eeg_var",
		"detectable",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, res := range results {
		row := []string{
			strconv.Itoa(res.Subject),
			res.Experiment,
			formatFloat(res.SNRWallDB),
			formatFloat(res.SNRDB),
			formatFloat(res.Rho),
			formatFloat(res.NoiseVarMin),
			formatFloat(res.NoiseVarMax),
			formatFloat(res.ReferenceEEGVar),
			strconv.FormatBool(res.Detectable),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
