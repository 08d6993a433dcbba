// Package reference provides the paralysed-subject EEG power spectra from
// Whitham et al. against which the conscious EEG variance is estimated.
package reference

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"gonum.org/v1/gonum/interp"

	"github.com/signalfloor/noisewall/internal/dataset"
	"github.com/signalfloor/noisewall/internal/models"
)

// TableNames lists the six reference spectrum files, one per paralysed
// recording, expected inside the reference directory.
var TableNames = [...]string{"sub1a.dat", "sub1b.dat", "sub1c.dat", "sub2a.dat", "sub2b.dat", "sub2c.dat"}

// minTableRows is the smallest table a cubic spline can be fitted through.
const minTableRows = 4

type curve struct {
	name  string
	psd   interp.FittablePredictor
	minHz float64
	maxHz float64
}

// Spectra interpolates the reference power spectra and integrates them
// through a filter response.
type Spectra struct {
	logger *slog.Logger
	curves []curve
}

// Load reads and spline-fits all six reference tables from dir. Each table
// holds rows of (frequency, log10 power).
func Load(dir string, logger *slog.Logger) (*Spectra, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Spectra{logger: logger}
	for _, name := range TableNames {
		path := filepath.Join(dir, name)
		rows, err := dataset.ReadTable(path)
		if err != nil {
			return nil, fmt.Errorf("load reference spectrum: %w", err)
		}
		if len(rows) < minTableRows {
			return nil, fmt.Errorf("reference spectrum %s has %d rows, need at least %d", path, len(rows), minTableRows)
		}

		freqs := make([]float64, len(rows))
		powers := make([]float64, len(rows))
		for i, row := range rows {
			if len(row) < 2 {
				return nil, fmt.Errorf("reference spectrum %s row %d lacks a power column", path, i+1)
			}
			freqs[i] = row[0]
			powers[i] = row[1]
		}

		spline := &interp.NotAKnotCubic{}
		if err := spline.Fit(freqs, powers); err != nil {
			return nil, fmt.Errorf("fit reference spectrum %s: %w", path, err)
		}
		s.curves = append(s.curves, curve{
			name:  name,
			psd:   spline,
			minHz: freqs[0],
			maxHz: freqs[len(freqs)-1],
		})
	}

	logger.Debug("reference spectra loaded", slog.String("dir", dir), slog.Int("tables", len(s.curves)))
	return s, nil
}

// BandVariance integrates each reference spectrum over integer frequencies
// [band.MinHz, band.MaxHz), weighting the power at every frequency by the
// squared cascade response, and averages the six integrals. The result is the
// variance a paralysed subject's EEG would show through the same filters.
func (s *Spectra) BandVariance(band models.SignalBand, resp []float64) (float64, error) {
	if band.MinHz >= band.MaxHz {
		return 0, fmt.Errorf("signal band [%d,%d) is empty", band.MinHz, band.MaxHz)
	}
	if band.MinHz < 0 || band.MaxHz > len(resp) {
		return 0, fmt.Errorf("signal band [%d,%d) exceeds the %d-bin filter response", band.MinHz, band.MaxHz, len(resp))
	}

	total := 0.0
	for _, c := range s.curves {
		if float64(band.MinHz) < c.minHz || float64(band.MaxHz-1) > c.maxHz {
			return 0, fmt.Errorf("signal band [%d,%d) outside %s domain [%g,%g]",
				band.MinHz, band.MaxHz, c.name, c.minHz, c.maxHz)
		}
		bandpower := 0.0
		for f := band.MinHz; f < band.MaxHz; f++ {
			bandpower += math.Pow(10, c.psd.Predict(float64(f))) * resp[f] * resp[f]
		}
		total += bandpower
	}
	return total / float64(len(s.curves)), nil
}
