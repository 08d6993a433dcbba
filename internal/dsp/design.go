// Package dsp provides the filter primitives used by the EEG cascade:
// Butterworth design through analog prototypes and the bilinear transform,
// causal direct-form application, and magnitude response evaluation on a
// uniform frequency grid.
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// internalRate is the virtual sampling rate the bilinear transform operates
// at. Cutoffs are prewarped against it so the discrete filter hits the
// requested normalized frequency exactly.
const internalRate = 2.0

// Lowpass designs a Butterworth lowpass of the given order. The cutoff wn is
// expressed as a fraction of the Nyquist frequency, 0 < wn < 1.
func Lowpass(order int, wn float64) (TF, error) {
	if err := checkOrder(order); err != nil {
		return TF{}, err
	}
	if err := checkCutoff(wn); err != nil {
		return TF{}, err
	}

	warped := prewarp(wn)
	poles := prototype(order)
	for i := range poles {
		poles[i] *= complex(warped, 0)
	}
	gain := math.Pow(warped, float64(order))

	return discretize(nil, poles, gain)
}

// Highpass designs a Butterworth highpass of the given order with cutoff wn
// as a fraction of Nyquist.
func Highpass(order int, wn float64) (TF, error) {
	if err := checkOrder(order); err != nil {
		return TF{}, err
	}
	if err := checkCutoff(wn); err != nil {
		return TF{}, err
	}

	warped := prewarp(wn)
	proto := prototype(order)
	poles := make([]complex128, len(proto))
	prod := complex(1, 0)
	for i, p := range proto {
		poles[i] = complex(warped, 0) / p
		prod *= -p
	}
	zeros := make([]complex128, order) // all at s = 0
	gain := real(1 / prod)

	return discretize(zeros, poles, gain)
}

// Bandpass designs a Butterworth bandpass of the given prototype order (the
// discrete filter has twice as many poles) passing wnLow..wnHigh, both as
// fractions of Nyquist.
func Bandpass(order int, wnLow, wnHigh float64) (TF, error) {
	if err := checkOrder(order); err != nil {
		return TF{}, err
	}
	if err := checkBand(wnLow, wnHigh); err != nil {
		return TF{}, err
	}

	w1 := prewarp(wnLow)
	w2 := prewarp(wnHigh)
	bw := w2 - w1
	wo := math.Sqrt(w1 * w2)

	proto := prototype(order)
	poles := make([]complex128, 0, 2*order)
	for _, p := range proto {
		pl := p * complex(bw/2, 0)
		d := cmplx.Sqrt(pl*pl - complex(wo*wo, 0))
		poles = append(poles, pl+d, pl-d)
	}
	zeros := make([]complex128, order) // all at s = 0
	gain := math.Pow(bw, float64(order))

	return discretize(zeros, poles, gain)
}

// Bandstop designs a Butterworth band-stop (notch) of the given prototype
// order rejecting wnLow..wnHigh, both as fractions of Nyquist.
func Bandstop(order int, wnLow, wnHigh float64) (TF, error) {
	if err := checkOrder(order); err != nil {
		return TF{}, err
	}
	if err := checkBand(wnLow, wnHigh); err != nil {
		return TF{}, err
	}

	w1 := prewarp(wnLow)
	w2 := prewarp(wnHigh)
	bw := w2 - w1
	wo := math.Sqrt(w1 * w2)

	proto := prototype(order)
	poles := make([]complex128, 0, 2*order)
	prod := complex(1, 0)
	for _, p := range proto {
		ph := complex(bw/2, 0) / p
		d := cmplx.Sqrt(ph*ph - complex(wo*wo, 0))
		poles = append(poles, ph+d, ph-d)
		prod *= -p
	}
	zeros := make([]complex128, 0, 2*order) // conjugate pairs on the stop centre
	for i := 0; i < order; i++ {
		zeros = append(zeros, complex(0, wo), complex(0, -wo))
	}
	gain := real(1 / prod)

	return discretize(zeros, poles, gain)
}

// prototype returns the poles of the normalized analog Butterworth filter of
// the given order, evenly spaced on the left half of the unit circle.
func prototype(order int) []complex128 {
	poles := make([]complex128, order)
	for i := 0; i < order; i++ {
		m := float64(-order + 1 + 2*i)
		poles[i] = -cmplx.Exp(complex(0, math.Pi*m/(2*float64(order))))
	}
	return poles
}

// prewarp maps a normalized digital cutoff onto the analog frequency the
// bilinear transform will bend back to it.
func prewarp(wn float64) float64 {
	return 2 * internalRate * math.Tan(math.Pi*wn/internalRate)
}

// discretize moves an analog zero/pole/gain design into the z-domain via the
// bilinear transform and expands it into polynomial transfer coefficients.
func discretize(zeros, poles []complex128, gain float64) (TF, error) {
	const fs2 = 2 * internalRate
	degree := len(poles) - len(zeros)
	if degree < 0 {
		return TF{}, fmt.Errorf("improper transfer function: %d zeros exceed %d poles", len(zeros), len(poles))
	}

	num := complex(1, 0)
	den := complex(1, 0)

	zd := make([]complex128, 0, len(poles))
	for _, z := range zeros {
		zd = append(zd, (complex(fs2, 0)+z)/(complex(fs2, 0)-z))
		num *= complex(fs2, 0) - z
	}
	// Zeros pushed to infinity by the analog design land at z = -1.
	for i := 0; i < degree; i++ {
		zd = append(zd, complex(-1, 0))
	}

	pd := make([]complex128, len(poles))
	for i, p := range poles {
		pd[i] = (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
		den *= complex(fs2, 0) - p
	}

	k := gain * real(num/den)
	tf := TF{B: realPoly(zd, k), A: realPoly(pd, 1)}
	if err := tf.validate(); err != nil {
		return TF{}, err
	}
	return tf, nil
}

// realPoly expands a root set into polynomial coefficients (ascending powers
// of z^-1) scaled by k. Conjugate root pairs leave the coefficients real.
func realPoly(roots []complex128, k float64) []float64 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c) * k
	}
	return out
}

func checkOrder(order int) error {
	if order < 1 {
		return fmt.Errorf("filter order must be at least 1, got %d", order)
	}
	return nil
}

func checkCutoff(wn float64) error {
	if math.IsNaN(wn) || wn <= 0 || wn >= 1 {
		return fmt.Errorf("cutoff must lie strictly between 0 and 1 of Nyquist, got %g", wn)
	}
	return nil
}

func checkBand(low, high float64) error {
	if err := checkCutoff(low); err != nil {
		return err
	}
	if err := checkCutoff(high); err != nil {
		return err
	}
	if low >= high {
		return fmt.Errorf("band edges must satisfy low < high, got [%g, %g]", low, high)
	}
	return nil
}
