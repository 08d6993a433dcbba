// Package engine computes noise walls for EEG recordings: it filters each
// recording through a fixed interference-rejection cascade, estimates the
// quiet and artefact-period noise variances, and converts their ratio into
// the minimum detectable SNR.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/signalfloor/noisewall/internal/models"
)

// RecordingLoader supplies recordings from the dataset.
type RecordingLoader interface {
	Load(subject int, experiment string) (*models.Recording, error)
}

// ReferenceSpectra integrates the paralysed-subject power spectra through a
// filter response to reconstruct the conscious-EEG variance in a band.
type ReferenceSpectra interface {
	BandVariance(band models.SignalBand, resp []float64) (float64, error)
}

// Pipeline runs the full noise-wall computation for one recording.
type Pipeline struct {
	logger    *slog.Logger
	loader    RecordingLoader
	reference ReferenceSpectra
	cascade   *Cascade
	noise     *NoiseEstimator
}

// NewPipeline wires the pipeline. A nil logger falls back to slog.Default().
func NewPipeline(logger *slog.Logger, loader RecordingLoader, reference ReferenceSpectra) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:    logger,
		loader:    loader,
		reference: reference,
		cascade:   NewCascade(),
		noise:     NewNoiseEstimator(logger),
	}
}

// Analyze loads one recording, filters it, and derives the noise wall and
// achievable SNR. Recordings whose data is suspect fail with a
// *models.ExclusionError carrying the reason; everything else fails with a
// plain error.
func (p *Pipeline) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	if p.loader == nil {
		return models.AnalysisResult{}, fmt.Errorf("recording loader not configured")
	}
	if p.reference == nil {
		return models.AnalysisResult{}, fmt.Errorf("reference spectra not configured")
	}
	req = req.Normalize()
	started := time.Now()

	rec, err := p.loader.Load(req.Subject, req.Experiment)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("load recording: %w", err)
	}
	if !rec.Valid {
		return models.AnalysisResult{}, models.NewExclusion(req.Subject, req.Experiment,
			models.ReasonDataInvalid, "subject validity marker negative")
	}
	if err := ctx.Err(); err != nil {
		return models.AnalysisResult{}, err
	}

	filtered, final, err := p.cascade.Apply(rec.EEG, req.Band)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("filter cascade: %w", err)
	}
	rec.EEG = filtered
	if final == nil {
		return models.AnalysisResult{}, fmt.Errorf("filter response not finalised: band selection [%g,%g] selects no final stage",
			req.Band.Low, req.Band.High)
	}
	if err := ctx.Err(); err != nil {
		return models.AnalysisResult{}, err
	}

	referenceVar, err := p.reference.BandVariance(req.SignalBand, final)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("reference variance: %w", err)
	}

	minVar, err := p.noise.MinVariance(rec, req.NoiseReduction)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	maxVar, err := p.noise.MaxVariance(rec, req.NoiseReduction)
	if err != nil {
		return models.AnalysisResult{}, err
	}

	rho := Rho(minVar, maxVar)
	wall, err := NoiseWall(req.Subject, req.Experiment, rho)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	snr := SNR(minVar, rho, referenceVar, req.EEGGain)

	result := models.AnalysisResult{
		Subject:         req.Subject,
		Experiment:      req.Experiment,
		SNRWallDB:       wall,
		SNRDB:           snr,
		Rho:             rho,
		NoiseVarMin:     minVar,
		NoiseVarMax:     maxVar,
		ReferenceEEGVar: referenceVar,
		Detectable:      snr > wall,
		CreatedAt:       time.Now().UTC(),
	}

	p.logger.Info("analysis complete",
		slog.Int("subject", req.Subject),
		slog.String("experiment", req.Experiment),
		slog.Float64("snr_wall_db", result.SNRWallDB),
		slog.Float64("snr_db", result.SNRDB),
		slog.Bool("detectable", result.Detectable),
		slog.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}
