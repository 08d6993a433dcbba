package models

import "fmt"

const (
	// SampleRate is the fixed sampling rate of the dataset recordings in Hz.
	SampleRate = 1000.0
	// SamplePeriod is the spacing of the regenerated time axis in seconds.
	SamplePeriod = 1.0 / SampleRate
	// AmplifierGain is the hardware gain the raw EEG channel was recorded with.
	AmplifierGain = 500.0
	// CalibrationFactor adjusts the average EEG power towards the 1e-13 V^2/Hz
	// reported for paralysed subjects by Whitham et al.
	CalibrationFactor = 2.0
)

// Window is a half-open time interval [Start, End) in seconds, recorded in the
// video timebase.
type Window struct {
	Start float64
	End   float64
}

// Duration returns the window length in seconds.
func (w Window) Duration() float64 { return w.End - w.Start }

// Overlaps reports whether two windows share any time span.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && other.Start < w.End
}

// Recording holds one subject/experiment session. The EEG channel is rescaled
// at load time and progressively overwritten by the filter cascade; all other
// fields are immutable after loading.
type Recording struct {
	Subject    int
	Experiment string

	// Valid mirrors the subject-level marker file. When false no signal data
	// is loaded and every computation on the recording fails.
	Valid bool

	Time    []float64
	EEG     []float64
	EMG     []float64
	Trigger []float64

	// ZeroTimeData and ZeroTimeVideo anchor the data and video timebases.
	ZeroTimeData  float64
	ZeroTimeVideo float64

	// Quiet is the stretch before the experiment starts, assumed free of
	// voluntary movement. Artefacts mark known interference events.
	Quiet     Window
	Artefacts []Window
}

// TimebaseOffset is added to video-timebase seconds to obtain data-timebase
// seconds.
func (r *Recording) TimebaseOffset() float64 {
	return r.ZeroTimeData - r.ZeroTimeVideo
}

// SampleRange converts a video-timebase window into a half-open sample index
// range into the signal channels. Indices are truncated towards zero, matching
// the dataset's original indexing convention.
func (r *Recording) SampleRange(w Window) (int, int, error) {
	offset := r.TimebaseOffset()
	start := int(SampleRate * (w.Start + offset))
	end := int(SampleRate * (w.End + offset))
	if start < 0 || end > len(r.EEG) || start >= end {
		return 0, 0, fmt.Errorf("window [%gs,%gs) maps to samples [%d,%d) outside recording of %d samples",
			w.Start, w.End, start, end, len(r.EEG))
	}
	return start, end, nil
}
