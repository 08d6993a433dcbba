// Package export writes analysed recordings to standard formats for
// inspection in external EEG tooling.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/OpenPSG/edf"

	"github.com/signalfloor/noisewall/internal/models"
)

// Digital full scale of the 16-bit EDF sample encoding, kept symmetric so a
// zero sample maps to a zero code.
const (
	digitalMin = -32767
	digitalMax = 32767
)

// WriteEDF exports a recording's EEG, EMG and trigger channels as an EDF
// file with one-second data records. The trailing part-second of samples is
// dropped so every record is full.
func WriteEDF(w io.WriteSeeker, rec *models.Recording, startTime time.Time) error {
	samplesPerRecord := int(models.SampleRate)
	records := len(rec.EEG) / samplesPerRecord
	if records == 0 {
		return fmt.Errorf("recording shorter than one data record (%d samples)", len(rec.EEG))
	}
	kept := records * samplesPerRecord
	if len(rec.EMG) < kept || len(rec.Trigger) < kept {
		return fmt.Errorf("channel lengths differ: eeg %d, emg %d, trigger %d",
			len(rec.EEG), len(rec.EMG), len(rec.Trigger))
	}

	hdr := edf.Header{
		Version:            edf.Version0,
		PatientID:          fmt.Sprintf("subj%02d", rec.Subject),
		RecordingID:        fmt.Sprintf("noisewall %s", rec.Experiment),
		StartTime:          startTime,
		DataRecordDuration: time.Second,
		SignalCount:        3,
		Signals: []edf.Signal{
			voltageSignal("EEG", rec.EEG[:kept], samplesPerRecord),
			voltageSignal("EMG", rec.EMG[:kept], samplesPerRecord),
			triggerSignal(rec.Trigger[:kept], samplesPerRecord),
		},
	}

	ew, err := edf.Create(w, hdr)
	if err != nil {
		return fmt.Errorf("create edf: %w", err)
	}
	for r := 0; r < records; r++ {
		lo := r * samplesPerRecord
		hi := lo + samplesPerRecord
		record := [][]float64{
			microvolts(rec.EEG[lo:hi]),
			microvolts(rec.EMG[lo:hi]),
			append([]float64(nil), rec.Trigger[lo:hi]...),
		}
		if err := ew.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", r, err)
		}
	}
	if err := ew.Close(); err != nil {
		return fmt.Errorf("finalise edf: %w", err)
	}
	return nil
}

// voltageSignal describes a channel stored in microvolts with a symmetric
// physical range wide enough for its samples.
func voltageSignal(label string, x []float64, samplesPerRecord int) edf.Signal {
	lo, hi := signalRange(x)
	limit := hi * 1e6
	if -lo*1e6 > limit {
		limit = -lo * 1e6
	}
	if limit == 0 {
		limit = 1
	}
	return edf.Signal{
		Label:             label,
		TransducerType:    "AgAgCl electrode",
		PhysicalDimension: "uV",
		PhysicalMin:       -limit,
		PhysicalMax:       limit,
		DigitalMin:        digitalMin,
		DigitalMax:        digitalMax,
		SamplesPerRecord:  samplesPerRecord,
	}
}

func triggerSignal(x []float64, samplesPerRecord int) edf.Signal {
	lo, hi := signalRange(x)
	if hi == lo {
		hi = lo + 1
	}
	return edf.Signal{
		Label:            "Trigger",
		PhysicalMin:      lo,
		PhysicalMax:      hi,
		DigitalMin:       digitalMin,
		DigitalMax:       digitalMax,
		SamplesPerRecord: samplesPerRecord,
	}
}

func signalRange(x []float64) (lo, hi float64) {
	lo, hi = x[0], x[0]
	for _, v := range x {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func microvolts(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v * 1e6
	}
	return out
}
