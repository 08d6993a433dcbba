package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// TF is a digital filter in transfer-function form: coefficients of z^-1
// polynomials, numerator B over denominator A, both ascending in delay.
type TF struct {
	B []float64
	A []float64
}

// FIRKernel returns the fixed 8-tap differencing kernel applied by the
// repeated-highpass branch of the cascade.
func FIRKernel() TF {
	return TF{
		B: []float64{0.25, 0.25, 0.25, 0.25, -0.25, -0.25, -0.25, -0.25},
		A: []float64{1},
	}
}

// Filter applies the transfer function causally to x using the direct-form II
// transposed structure and returns a fresh output slice. The filter is a pure
// function of its coefficients and input; state never leaks between calls.
func (tf TF) Filter(x []float64) []float64 {
	n := len(tf.A)
	if len(tf.B) > n {
		n = len(tf.B)
	}
	b := make([]float64, n)
	a := make([]float64, n)
	copy(b, tf.B)
	copy(a, tf.A)

	// Normalize so the recursion below can assume a0 == 1.
	a0 := a[0]
	for i := range b {
		b[i] /= a0
	}
	for i := range a {
		a[i] /= a0
	}

	state := make([]float64, n-1)
	y := make([]float64, len(x))
	for i, xn := range x {
		yn := b[0] * xn
		if len(state) > 0 {
			yn += state[0]
		}
		for j := 0; j < len(state); j++ {
			s := b[j+1]*xn - a[j+1]*yn
			if j+1 < len(state) {
				s += state[j+1]
			}
			state[j] = s
		}
		y[i] = yn
	}
	return y
}

// Magnitude evaluates |H(e^jw)| at n uniformly spaced frequencies in [0, π).
// With n equal to half the sampling rate the grid lands on integer hertz.
func (tf TF) Magnitude(n int) []float64 {
	mag := make([]float64, n)
	for k := 0; k < n; k++ {
		w := math.Pi * float64(k) / float64(n)
		zinv := cmplx.Exp(complex(0, -w))
		mag[k] = cmplx.Abs(polyEval(tf.B, zinv) / polyEval(tf.A, zinv))
	}
	return mag
}

// polyEval computes c[0] + c[1]*x + c[2]*x^2 + ... by Horner's rule.
func polyEval(coeffs []float64, x complex128) complex128 {
	acc := complex(0, 0)
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = acc*x + complex(coeffs[i], 0)
	}
	return acc
}

func (tf TF) validate() error {
	if len(tf.B) == 0 || len(tf.A) == 0 {
		return fmt.Errorf("empty filter coefficients")
	}
	if tf.A[0] == 0 {
		return fmt.Errorf("leading denominator coefficient is zero")
	}
	for _, c := range tf.B {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("numerator contains non-finite coefficient %g", c)
		}
	}
	for _, c := range tf.A {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("denominator contains non-finite coefficient %g", c)
		}
	}
	return nil
}
