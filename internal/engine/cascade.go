package engine

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/signalfloor/noisewall/internal/dsp"
	"github.com/signalfloor/noisewall/internal/models"
)

// responseBins is one magnitude sample per integer hertz up to Nyquist.
const responseBins = int(models.SampleRate / 2)

// Cascade is the fixed interference-rejection filter chain applied to every
// recording, with an optional band-limiting final stage.
type Cascade struct{}

// NewCascade constructs the cascade.
func NewCascade() *Cascade {
	return &Cascade{}
}

// Apply filters eeg through the cascade and returns the filtered signal
// together with the finalized transfer-function magnitude. The transfer
// function is finalized only by the band-selection stage; without one the
// second return value is nil and the filtering alone stands.
func (c *Cascade) Apply(eeg []float64, band models.BandSelection) ([]float64, []float64, error) {
	const nyquist = models.SampleRate / 2

	// Smooth at the 100 Hz anti-alias cutoff.
	lowpass, err := dsp.Lowpass(6, 100/nyquist)
	if err != nil {
		return nil, nil, fmt.Errorf("design anti-alias lowpass: %w", err)
	}
	eeg = lowpass.Filter(eeg)
	resp := fold(nil, lowpass)

	// Mains stop feeding the 0.5 Hz highpass, applied in series. Only the
	// highpass magnitude joins the accumulator here; the 49-51 Hz stop is
	// folded exactly once, by the standalone mains stage below.
	mains, err := dsp.Bandstop(2, 49/nyquist, 51/nyquist)
	if err != nil {
		return nil, nil, fmt.Errorf("design mains stop: %w", err)
	}
	highpass, err := dsp.Highpass(4, 0.5/nyquist)
	if err != nil {
		return nil, nil, fmt.Errorf("design highpass: %w", err)
	}
	eeg = highpass.Filter(mains.Filter(eeg))
	resp = fold(resp, highpass)

	// Secondary interference peak around half the mains frequency.
	harmonic, err := dsp.Bandstop(2, 24/nyquist, 26/nyquist)
	if err != nil {
		return nil, nil, fmt.Errorf("design 25 Hz stop: %w", err)
	}
	eeg = harmonic.Filter(eeg)
	resp = fold(resp, harmonic)

	// Mains stop a second time to deepen the rejection.
	eeg = mains.Filter(eeg)
	resp = fold(resp, mains)

	switch {
	case band.IsBandpass():
		bandpass, err := dsp.Bandpass(4, band.Low/nyquist, band.High/nyquist)
		if err != nil {
			return nil, nil, fmt.Errorf("design band selection [%g,%g]: %w", band.Low, band.High, err)
		}
		eeg = bandpass.Filter(eeg)
		// The finalized transfer function carries the bandpass; the
		// accumulator itself stays as built through the fixed stages.
		return eeg, fold(resp, bandpass), nil

	case band.FIRPasses() > 0:
		kernel := dsp.FIRKernel()
		for i := 0; i < band.FIRPasses(); i++ {
			eeg = kernel.Filter(eeg)
			resp = fold(resp, kernel)
		}
		return eeg, resp, nil

	default:
		// No band selection: the cascade's transfer function is never
		// finalized and downstream reference weighting must refuse to run.
		return eeg, nil, nil
	}
}

// fold multiplies a stage's magnitude response into the accumulator.
func fold(acc []float64, tf dsp.TF) []float64 {
	mag := tf.Magnitude(responseBins)
	if acc == nil {
		return mag
	}
	floats.Mul(mag, acc)
	return mag
}
