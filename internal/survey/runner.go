// Package survey runs the noise-wall analysis across every recording in a
// dataset and aggregates the walls, SNRs and exclusion counts.
package survey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/signalfloor/noisewall/internal/cache"
	"github.com/signalfloor/noisewall/internal/metrics"
	"github.com/signalfloor/noisewall/internal/models"
)

// Analyzer runs one noise-wall analysis. Satisfied by *engine.Pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error)
}

// Lister discovers the recordings present in the dataset. Satisfied by
// *dataset.Loader.
type Lister interface {
	Subjects() ([]int, error)
	Experiments(subject int) ([]string, error)
}

// BandPlanner picks the analysis band for an experiment. Satisfied by
// *config.Config.
type BandPlanner interface {
	BandFor(experiment string) (low, high float64)
}

// Summary aggregates one dataset-wide survey run.
type Summary struct {
	Results  []models.AnalysisResult
	Excluded map[models.Reason]int
	Errors   int
	Cached   int

	Detectable   int
	MedianWallDB float64
	MedianSNRDB  float64

	DurationP50 time.Duration
	DurationP95 time.Duration
	Elapsed     time.Duration
}

// Analysed is the number of recordings that produced a wall.
func (s *Summary) Analysed() int { return len(s.Results) }

// Runner fans the per-recording analysis out over a worker pool.
type Runner struct {
	logger   *slog.Logger
	analyzer Analyzer
	lister   Lister
	cache    cache.Provider
	workers  int
}

// NewRunner wires a survey runner. A nil logger falls back to slog.Default(),
// a nil provider disables caching and workers <= 0 uses one worker per CPU.
func NewRunner(logger *slog.Logger, analyzer Analyzer, lister Lister, provider cache.Provider, workers int) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		logger:   logger,
		analyzer: analyzer,
		lister:   lister,
		cache:    provider,
		workers:  workers,
	}
}

type outcome struct {
	req      models.AnalysisRequest
	result   models.AnalysisResult
	err      error
	cached   bool
	duration time.Duration
}

// Run analyses every experiment of every subject. The base request supplies
// the shared analysis parameters; the planner, when non-nil, overrides the
// band per experiment. Exclusions and per-recording failures are aggregated,
// not fatal.
func (r *Runner) Run(ctx context.Context, base models.AnalysisRequest, bands BandPlanner) (*Summary, error) {
	if r.analyzer == nil {
		return nil, fmt.Errorf("analyzer not configured")
	}
	if r.lister == nil {
		return nil, fmt.Errorf("dataset lister not configured")
	}
	started := time.Now()

	subjects, err := r.lister.Subjects()
	if err != nil {
		return nil, err
	}
	var reqs []models.AnalysisRequest
	for _, subject := range subjects {
		experiments, err := r.lister.Experiments(subject)
		if err != nil {
			return nil, err
		}
		for _, experiment := range experiments {
			req := base
			req.Subject = subject
			req.Experiment = experiment
			if bands != nil {
				req.Band.Low, req.Band.High = bands.BandFor(experiment)
			}
			reqs = append(reqs, req.Normalize())
		}
	}

	r.logger.Info("survey started",
		slog.Int("subjects", len(subjects)),
		slog.Int("recordings", len(reqs)),
		slog.Int("workers", r.workers))

	jobs := make(chan models.AnalysisRequest)
	outcomes := make(chan outcome, len(reqs))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				outcomes <- r.analyzeOne(ctx, req)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, req := range reqs {
			select {
			case jobs <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(outcomes)

	summary := r.summarize(outcomes)
	summary.Elapsed = time.Since(started)

	r.logger.Info("survey complete",
		slog.Int("analysed", summary.Analysed()),
		slog.Int("detectable", summary.Detectable),
		slog.Int("excluded", totalExcluded(summary.Excluded)),
		slog.Int("errors", summary.Errors),
		slog.Int("cached", summary.Cached),
		slog.Duration("elapsed", summary.Elapsed))

	return summary, ctx.Err()
}

func (r *Runner) analyzeOne(ctx context.Context, req models.AnalysisRequest) outcome {
	out := outcome{req: req}
	if err := ctx.Err(); err != nil {
		out.err = err
		return out
	}

	key := cacheKey(req)
	if body, err := r.cache.Get(ctx, key); err == nil {
		var res models.AnalysisResult
		if err := json.Unmarshal(body, &res); err == nil {
			out.result = res
			out.cached = true
			return out
		}
		// A corrupt entry is dropped and recomputed.
		_ = r.cache.Del(ctx, key)
	}

	started := time.Now()
	res, err := r.analyzer.Analyze(ctx, req)
	out.duration = time.Since(started)
	if err != nil {
		out.err = err
		if reason, ok := models.ExclusionReason(err); ok {
			metrics.ObserveAnalysis(out.duration, metrics.OutcomeExcluded)
			metrics.ObserveExclusion(string(reason))
		} else {
			metrics.ObserveAnalysis(out.duration, metrics.OutcomeError)
		}
		return out
	}
	metrics.ObserveAnalysis(out.duration, metrics.OutcomeSuccess)
	out.result = res

	// Results with non-finite walls have no JSON encoding and stay uncached.
	if body, err := json.Marshal(res); err == nil {
		if err := r.cache.Set(ctx, key, body); err != nil {
			r.logger.Warn("cache write failed", slog.Any("error", err))
		}
	}
	return out
}

func (r *Runner) summarize(outcomes <-chan outcome) *Summary {
	summary := &Summary{Excluded: make(map[models.Reason]int)}
	var walls, snrs, durations []float64

	for out := range outcomes {
		switch {
		case out.err == nil:
			summary.Results = append(summary.Results, out.result)
			walls = append(walls, out.result.SNRWallDB)
			snrs = append(snrs, out.result.SNRDB)
			if out.result.Detectable {
				summary.Detectable++
			}
			if out.cached {
				summary.Cached++
			} else {
				durations = append(durations, out.duration.Seconds())
			}
		default:
			if reason, ok := models.ExclusionReason(out.err); ok {
				summary.Excluded[reason]++
				r.logger.Info("recording excluded",
					slog.Int("subject", out.req.Subject),
					slog.String("experiment", out.req.Experiment),
					slog.String("reason", string(reason)))
			} else {
				summary.Errors++
				r.logger.Error("analysis failed",
					slog.Int("subject", out.req.Subject),
					slog.String("experiment", out.req.Experiment),
					slog.Any("error", out.err))
			}
		}
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		a, b := summary.Results[i], summary.Results[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Experiment < b.Experiment
	})

	summary.MedianWallDB = quantile(walls, 0.5)
	summary.MedianSNRDB = quantile(snrs, 0.5)
	summary.DurationP50 = time.Duration(quantile(durations, 0.5) * float64(time.Second))
	summary.DurationP95 = time.Duration(quantile(durations, 0.95) * float64(time.Second))
	return summary
}

func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

func totalExcluded(byReason map[models.Reason]int) int {
	total := 0
	for _, n := range byReason {
		total += n
	}
	return total
}

// cacheKey derives a stable content key from the normalized request
// parameters.
func cacheKey(req models.AnalysisRequest) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%d|%d|%g|%g|%g|%g",
		req.Subject, req.Experiment,
		req.SignalBand.MinHz, req.SignalBand.MaxHz,
		req.Band.Low, req.Band.High,
		req.NoiseReduction, req.EEGGain)))
	return hex.EncodeToString(sum[:])
}
