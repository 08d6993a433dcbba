package models

import "time"

// SignalBand is the integer frequency band, in Hz, over which the reference
// EEG power spectral density is integrated.
type SignalBand struct {
	MinHz int
	MaxHz int
}

// DefaultSignalBand covers the usable EEG band between the highpass edge and
// the anti-alias cutoff.
func DefaultSignalBand() SignalBand { return SignalBand{MinHz: 1, MaxHz: 95} }

// BandSelection parameterises the cascade's optional final stage. Both bounds
// positive and Low < High selects a bandpass; a negative Low requests
// int(-Low) passes of the fixed differencing kernel; anything else leaves the
// cascade unrestricted.
type BandSelection struct {
	Low  float64
	High float64
}

// IsBandpass reports whether the selection requests the bandpass branch.
func (b BandSelection) IsBandpass() bool {
	return b.High > 0 && b.Low > 0 && b.Low < b.High
}

// FIRPasses returns the number of differencing-kernel passes requested, zero
// if the negative-low branch is not engaged.
func (b BandSelection) FIRPasses() int {
	if b.Low < 0 {
		return int(-b.Low)
	}
	return 0
}

// AnalysisRequest identifies one recording and the parameters of its noise
// wall computation.
type AnalysisRequest struct {
	Subject    int
	Experiment string

	SignalBand SignalBand
	Band       BandSelection

	// NoiseReduction divides the window samples before variance estimation
	// (identity by default). EEGGain scales the presumed conscious EEG
	// amplitude when computing the SNR.
	NoiseReduction float64
	EEGGain        float64
}

// Normalize fills zero-valued parameters with their defaults.
func (r AnalysisRequest) Normalize() AnalysisRequest {
	if r.SignalBand.MinHz == 0 && r.SignalBand.MaxHz == 0 {
		r.SignalBand = DefaultSignalBand()
	}
	if r.NoiseReduction == 0 {
		r.NoiseReduction = 1
	}
	if r.EEGGain == 0 {
		r.EEGGain = 1
	}
	return r
}

// AnalysisResult carries the noise wall and SNR of one recording together
// with the intermediate statistics they were derived from.
type AnalysisResult struct {
	Subject    int    `json:"subject"`
	Experiment string `json:"experiment"`

	SNRWallDB       float64 `json:"snr_wall_db"`
	SNRDB           float64 `json:"snr_db"`
	Rho             float64 `json:"rho"`
	NoiseVarMin     float64 `json:"noise_var_min"`
	NoiseVarMax     float64 `json:"noise_var_max"`
	ReferenceEEGVar float64 `json:"reference_eeg_var"`

	// Detectable is true when the achievable SNR clears the wall; only then
	// can a conscious EEG change be told apart from the EMG noise floor.
	Detectable bool `json:"detectable"`

	CreatedAt time.Time `json:"created_at"`
}
