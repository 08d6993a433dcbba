// noisewall-synth writes a synthetic noise-study dataset for local
// development and demos: per-subject experiment recordings with a quiet
// stretch, artefact bursts, mains interference and baseline wander, plus the
// six reference spectrum tables.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/signalfloor/noisewall/internal/models"
	"github.com/signalfloor/noisewall/internal/reference"
)

type window struct{ start, end float64 }

// recordingSpec fixes the timing layout of one synthetic recording. Windows
// are in the video timebase, like the dataset stores them.
type recordingSpec struct {
	seconds   float64
	zeroData  float64
	zeroVideo float64
	quiet     window
	artefacts []window
}

func defaultSpec(seconds float64) recordingSpec {
	return recordingSpec{
		seconds:   seconds,
		zeroData:  1.25,
		zeroVideo: 0.75,
		quiet:     window{start: 0.5, end: 5.5},
		artefacts: []window{
			{start: 8, end: 10},
			{start: 13, end: 15},
			{start: 18, end: 20},
			{start: 23, end: 25},
		},
	}
}

// alphaAmplitudes gives each experiment its own resting-rhythm strength.
var alphaAmplitudes = map[string]float64{
	"relax":  6e-6,
	"reach":  2e-6,
	"sudoku": 1.5e-6,
	"tv":     3e-6,
}

var experiments = []string{"relax", "reach", "sudoku", "tv"}

func main() {
	var (
		root           string
		subjects       int
		seconds        float64
		seed           int64
		invalidSubject int
	)
	flag.StringVar(&root, "root", "data", "Directory to write the dataset into")
	flag.IntVar(&subjects, "subjects", 3, "Number of subjects to generate")
	flag.Float64Var(&seconds, "seconds", 30, "Length of each recording in seconds (minimum 26)")
	flag.Int64Var(&seed, "seed", 1, "Random seed")
	flag.IntVar(&invalidSubject, "invalid-subject", 0, "Subject to mark invalid (0: none)")
	flag.Parse()

	logger := log.New(os.Stderr, "noisewall-synth ", log.LstdFlags)

	if subjects < 1 {
		logger.Fatalf("need at least one subject, got %d", subjects)
	}
	if seconds < 26 {
		logger.Fatalf("recordings need at least 26 s to fit the artefact windows, got %g", seconds)
	}

	rng := rand.New(rand.NewSource(seed))

	for s := 1; s <= subjects; s++ {
		subjDir := filepath.Join(root, "experiment_data", fmt.Sprintf("subj%02d", s))

		// Invalid subjects still get full recordings; the marker alone
		// tells analyses to refuse them.
		marker := "True"
		if s == invalidSubject {
			marker = "False"
		}
		if err := writeLines(filepath.Join(subjDir, "all_exp_ok.dat"), func(w *bufio.Writer) {
			fmt.Fprintln(w, marker)
		}); err != nil {
			logger.Fatalf("write validity marker: %v", err)
		}

		for _, experiment := range experiments {
			spec := defaultSpec(seconds)
			eeg, emg, trigger := synthesize(rng, spec, alphaAmplitudes[experiment])
			if err := writeRecording(filepath.Join(subjDir, experiment), spec, eeg, emg, trigger); err != nil {
				logger.Fatalf("write subj%02d/%s: %v", s, experiment, err)
			}
		}
		logger.Printf("subj%02d written (%d experiments, marker %s)", s, len(experiments), marker)
	}

	if err := writeReferenceTables(filepath.Join(root, "reference"), rng); err != nil {
		logger.Fatalf("write reference tables: %v", err)
	}
	logger.Printf("dataset written to %s", root)
}

// synthesize builds the EEG and EMG channels in volts plus the trigger. The
// EEG carries a resting floor, the experiment's alpha rhythm, 50 Hz and 25 Hz
// interference for the notches to remove, slow baseline wander for the
// highpass, and EMG bleed-through during artefact windows.
func synthesize(rng *rand.Rand, spec recordingSpec, alphaAmp float64) (eeg, emg, trigger []float64) {
	n := int(spec.seconds * models.SampleRate)
	dt := spec.zeroData - spec.zeroVideo
	eeg = make([]float64, n)
	emg = make([]float64, n)
	trigger = make([]float64, n)

	for i := 0; i < n; i++ {
		t := float64(i) * models.SamplePeriod
		v := 4e-6*rng.NormFloat64() +
			alphaAmp*math.Sin(2*math.Pi*10*t) +
			5e-6*math.Sin(2*math.Pi*50*t) +
			2e-6*math.Sin(2*math.Pi*25*t) +
			20e-6*math.Sin(2*math.Pi*0.2*t)
		m := 8e-6 * rng.NormFloat64()

		// Windows are stored in the video timebase; this sample sits at
		// video time t - dt.
		if inWindow(spec.artefacts, t-dt) {
			v += 60e-6 * rng.NormFloat64()
			m += 300e-6 * rng.NormFloat64()
			trigger[i] = 1
		}
		eeg[i] = v
		emg[i] = m
	}
	return eeg, emg, trigger
}

func inWindow(windows []window, t float64) bool {
	for _, w := range windows {
		if t >= w.start && t < w.end {
			return true
		}
	}
	return false
}

// writeRecording lays one experiment directory out the way the published
// dataset does. The EEG column is stored in raw amplifier units, inverting
// the rescale the loader applies.
func writeRecording(dir string, spec recordingSpec, eeg, emg, trigger []float64) error {
	err := writeLines(filepath.Join(dir, "emgeeg.dat"), func(w *bufio.Writer) {
		for i := range eeg {
			// Stored timestamps drift slightly, as in the real recordings;
			// the loader regenerates the axis anyway.
			t := float64(i) * models.SamplePeriod * (1 + 3e-6)
			raw := eeg[i] * models.AmplifierGain / models.CalibrationFactor
			fmt.Fprintf(w, "%.6f %.9g %.9g %g\n", t, raw, emg[i], trigger[i])
		}
	})
	if err != nil {
		return err
	}

	if err := writeLines(filepath.Join(dir, "zero_time_data.dat"), func(w *bufio.Writer) {
		fmt.Fprintf(w, "%g\n", spec.zeroData)
	}); err != nil {
		return err
	}
	if err := writeLines(filepath.Join(dir, "zero_time_video.dat"), func(w *bufio.Writer) {
		fmt.Fprintf(w, "%g\n", spec.zeroVideo)
	}); err != nil {
		return err
	}
	if err := writeLines(filepath.Join(dir, "artefact.dat"), func(w *bufio.Writer) {
		for _, a := range spec.artefacts {
			fmt.Fprintf(w, "%g %g\n", a.start, a.end)
		}
	}); err != nil {
		return err
	}
	return writeLines(filepath.Join(dir, "dataok.dat"), func(w *bufio.Writer) {
		fmt.Fprintf(w, "%g %g\n", spec.quiet.start, spec.quiet.end)
	})
}

// writeReferenceTables writes the six paralysed-subject spectra: a gentle
// 1/f-like decay around 1e-13 V^2/Hz with an alpha bump, each table offset
// and roughened a little so the six integrals differ.
func writeReferenceTables(dir string, rng *rand.Rand) error {
	for _, name := range reference.TableNames {
		offset := 0.1 * rng.NormFloat64()
		err := writeLines(filepath.Join(dir, name), func(w *bufio.Writer) {
			for f := 0; f <= 128; f++ {
				bump := 0.3 * math.Exp(-(float64(f)-10)*(float64(f)-10)/18)
				p := -13.0 - 0.004*float64(f) + bump + offset + 0.02*rng.NormFloat64()
				fmt.Fprintf(w, "%d %.4f\n", f, p)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func writeLines(path string, fn func(w *bufio.Writer)) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fn(w)
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
