package engine

import (
	"fmt"
	"math"

	"github.com/signalfloor/noisewall/internal/models"
)

// Rho is the noise-uncertainty ratio between the artefact-period and
// quiet-period noise variances. A zero minimum variance yields +Inf.
func Rho(minVar, maxVar float64) float64 {
	return math.Sqrt(maxVar / minVar)
}

// NoiseWall converts the variance ratio into the lowest SNR, in dB, at which
// a signal could still be told apart from the fluctuating noise floor. An
// uncertainty ratio below one means the quiet window was noisier than the
// artefact windows and the recording cannot be scored.
func NoiseWall(subject int, experiment string, rho float64) (float64, error) {
	if rho < 1 {
		return 0, models.NewExclusion(subject, experiment, models.ReasonMinVarianceExceedsMaxVariance,
			fmt.Sprintf("rho %g", rho))
	}
	return 10 * math.Log10(rho-1/rho), nil
}

// SNR estimates the achievable signal-to-noise ratio in dB: the conscious
// EEG variance expected through the cascade, scaled by the amplifier gain,
// against the reconstructed worst-case noise floor.
func SNR(minVar, rho, referenceVar, gain float64) float64 {
	noiseVar := minVar * rho
	consciousVar := gain * gain * referenceVar
	return 10 * math.Log10(consciousVar/noiseVar)
}
