// Package dataset reads noise-study recordings from the on-disk layout used
// by the published dataset (researchdata.gla.ac.uk/676): one directory per
// subject under experiment_data/, one subdirectory per experiment.
package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/signalfloor/noisewall/internal/models"
)

const (
	experimentDataDir = "experiment_data"

	validityFile  = "all_exp_ok.dat"
	signalFile    = "emgeeg.dat"
	zeroDataFile  = "zero_time_data.dat"
	zeroVideoFile = "zero_time_video.dat"
	artefactFile  = "artefact.dat"
	quietFile     = "dataok.dat"

	signalColumns = 4 // timestamp, eeg, emg, trigger
)

// Loader locates and assembles recordings below an explicitly injected
// dataset root.
type Loader struct {
	root   string
	logger *slog.Logger
}

// NewLoader constructs a Loader for the given dataset root directory.
func NewLoader(root string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{root: root, logger: logger}
}

// Root returns the dataset root the loader was constructed with.
func (l *Loader) Root() string { return l.root }

// SubjectDir returns the directory holding one subject's experiments.
func (l *Loader) SubjectDir(subject int) string {
	return filepath.Join(l.root, experimentDataDir, fmt.Sprintf("subj%02d", subject))
}

// Valid reads the subject-level marker and reports whether the subject's
// recordings are usable. Accepted affirmative tokens are "true" and "ok" in
// any casing.
func (l *Loader) Valid(subject int) (bool, error) {
	token, err := readToken(filepath.Join(l.SubjectDir(subject), validityFile))
	if err != nil {
		return false, fmt.Errorf("read validity marker: %w", err)
	}
	switch strings.ToLower(token) {
	case "true", "ok":
		return true, nil
	}
	return false, nil
}

// Subjects lists the subject numbers present under the dataset root, in
// ascending order.
func (l *Loader) Subjects() ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(l.root, experimentDataDir))
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	var subjects []int
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "subj") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), "subj"))
		if err != nil {
			continue
		}
		subjects = append(subjects, n)
	}
	sort.Ints(subjects)
	return subjects, nil
}

// Experiments lists the experiments recorded for one subject: every
// subdirectory holding a signal table.
func (l *Loader) Experiments(subject int) ([]string, error) {
	entries, err := os.ReadDir(l.SubjectDir(subject))
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	var experiments []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(l.SubjectDir(subject), e.Name(), signalFile)); err != nil {
			continue
		}
		experiments = append(experiments, e.Name())
	}
	sort.Strings(experiments)
	return experiments, nil
}

// Load assembles the Recording for one subject/experiment pair. If the
// subject marker is negative the Recording is returned with Valid=false and
// no signal data: nothing else is read from disk.
func (l *Loader) Load(subject int, experiment string) (*models.Recording, error) {
	rec := &models.Recording{Subject: subject, Experiment: experiment}

	valid, err := l.Valid(subject)
	if err != nil {
		return nil, err
	}
	rec.Valid = valid
	if !valid {
		l.logger.Warn("subject marked invalid, skipping data load",
			slog.Int("subject", subject),
			slog.String("experiment", experiment))
		return rec, nil
	}

	dir := filepath.Join(l.SubjectDir(subject), experiment)

	table, err := ReadTable(filepath.Join(dir, signalFile))
	if err != nil {
		return nil, fmt.Errorf("load signal table: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("signal table %s is empty", filepath.Join(dir, signalFile))
	}
	if len(table[0]) < signalColumns {
		return nil, fmt.Errorf("signal table %s has %d columns, need %d", filepath.Join(dir, signalFile), len(table[0]), signalColumns)
	}

	n := len(table)
	rec.EEG = make([]float64, n)
	rec.EMG = make([]float64, n)
	rec.Trigger = make([]float64, n)
	for i, row := range table {
		rec.EEG[i] = row[1] / models.AmplifierGain * models.CalibrationFactor
		rec.EMG[i] = row[2]
		rec.Trigger[i] = row[3]
	}
	// The stored timestamps drift; the axis is regenerated from the fixed
	// sampling rate instead.
	rec.Time = make([]float64, n)
	for i := range rec.Time {
		rec.Time[i] = float64(i) * models.SamplePeriod
	}

	if rec.ZeroTimeData, err = l.readScalar(dir, zeroDataFile); err != nil {
		return nil, err
	}
	if rec.ZeroTimeVideo, err = l.readScalar(dir, zeroVideoFile); err != nil {
		return nil, err
	}

	artefacts, err := ReadTable(filepath.Join(dir, artefactFile))
	if err != nil {
		return nil, fmt.Errorf("load artefact windows: %w", err)
	}
	if len(artefacts) == 0 {
		return nil, fmt.Errorf("artefact table %s is empty", filepath.Join(dir, artefactFile))
	}
	for i, row := range artefacts {
		if len(row) < 2 {
			return nil, fmt.Errorf("artefact table %s row %d has no end time", filepath.Join(dir, artefactFile), i+1)
		}
		rec.Artefacts = append(rec.Artefacts, models.Window{Start: row[0], End: row[1]})
	}

	quiet, err := readScalars(filepath.Join(dir, quietFile))
	if err != nil {
		return nil, fmt.Errorf("load quiet window: %w", err)
	}
	if len(quiet) < 2 {
		return nil, fmt.Errorf("quiet window %s needs start and end, got %d values", filepath.Join(dir, quietFile), len(quiet))
	}
	rec.Quiet = models.Window{Start: quiet[0], End: quiet[1]}

	l.logger.Debug("recording loaded",
		slog.Int("subject", subject),
		slog.String("experiment", experiment),
		slog.Int("samples", n),
		slog.Int("artefact_windows", len(rec.Artefacts)))

	return rec, nil
}

func (l *Loader) readScalar(dir, name string) (float64, error) {
	values, err := readScalars(filepath.Join(dir, name))
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", name, err)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%s holds no value", filepath.Join(dir, name))
	}
	return values[0], nil
}
