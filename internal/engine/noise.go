package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/signalfloor/noisewall/internal/models"
)

// maxQuietStdDev bounds the believable quiet-window noise floor at 50 uV.
// Anything above it means the subject was not actually resting.
const maxQuietStdDev = 50e-6

// NoiseEstimator measures the noise floor and the artefact-period noise of a
// recording whose EEG channel has already been through the cascade.
type NoiseEstimator struct {
	logger *slog.Logger
}

// NewNoiseEstimator constructs an estimator. A nil logger falls back to
// slog.Default().
func NewNoiseEstimator(logger *slog.Logger) *NoiseEstimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoiseEstimator{logger: logger}
}

// MinVariance estimates the noise floor from the recording's quiet window.
func (e *NoiseEstimator) MinVariance(rec *models.Recording, noiseReduction float64) (float64, error) {
	start, end, err := rec.SampleRange(rec.Quiet)
	if err != nil {
		return 0, fmt.Errorf("quiet window: %w", err)
	}
	e.warnOnOverlap(rec)
	v := scaledVariance(rec.EEG[start:end], noiseReduction)
	if err := validateMinVariance(rec, v); err != nil {
		return 0, err
	}
	return v, nil
}

// MaxVariance estimates the artefact-period noise as the median of the
// per-window variances across all annotated artefact stretches.
func (e *NoiseEstimator) MaxVariance(rec *models.Recording, noiseReduction float64) (float64, error) {
	if len(rec.Artefacts) == 0 {
		return 0, fmt.Errorf("recording has no artefact windows")
	}
	variances := make([]float64, 0, len(rec.Artefacts))
	for i, w := range rec.Artefacts {
		start, end, err := rec.SampleRange(w)
		if err != nil {
			return 0, fmt.Errorf("artefact window %d: %w", i+1, err)
		}
		variances = append(variances, scaledVariance(rec.EEG[start:end], noiseReduction))
	}
	v := median(variances)
	if err := validateMaxVariance(rec, v); err != nil {
		return 0, err
	}
	return v, nil
}

func validateMinVariance(rec *models.Recording, v float64) error {
	if v < 0 {
		return models.NewExclusion(rec.Subject, rec.Experiment, models.ReasonMinVarianceNegative,
			fmt.Sprintf("variance %g", v))
	}
	if math.Sqrt(v) > maxQuietStdDev {
		return models.NewExclusion(rec.Subject, rec.Experiment, models.ReasonMinVarianceUnusuallyHigh,
			fmt.Sprintf("std dev %.3g V exceeds %g V", math.Sqrt(v), maxQuietStdDev))
	}
	return nil
}

func validateMaxVariance(rec *models.Recording, v float64) error {
	if v < 0 {
		return models.NewExclusion(rec.Subject, rec.Experiment, models.ReasonMaxVarianceNegative,
			fmt.Sprintf("median variance %g", v))
	}
	return nil
}

// scaledVariance rescales the chunk by the noise-reduction divisor before
// taking the population variance.
func scaledVariance(chunk []float64, noiseReduction float64) float64 {
	if noiseReduction == 1 {
		return stat.PopVariance(chunk, nil)
	}
	scaled := make([]float64, len(chunk))
	for i, v := range chunk {
		scaled[i] = v / noiseReduction
	}
	return stat.PopVariance(scaled, nil)
}

// median of values, averaging the two central elements for even counts.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// warnOnOverlap flags suspicious annotations where the quiet stretch collides
// with a known artefact window. The analysis still runs; the estimates are
// just less trustworthy.
func (e *NoiseEstimator) warnOnOverlap(rec *models.Recording) {
	for _, w := range rec.Artefacts {
		if rec.Quiet.Overlaps(w) {
			e.logger.Warn("quiet window overlaps artefact window",
				slog.Int("subject", rec.Subject),
				slog.String("experiment", rec.Experiment),
				slog.Float64("artefact_start", w.Start),
				slog.Float64("artefact_end", w.End),
			)
			return
		}
	}
}
