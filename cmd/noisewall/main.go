package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalfloor/noisewall/internal/cache"
	"github.com/signalfloor/noisewall/internal/config"
	"github.com/signalfloor/noisewall/internal/dataset"
	"github.com/signalfloor/noisewall/internal/engine"
	"github.com/signalfloor/noisewall/internal/export"
	"github.com/signalfloor/noisewall/internal/metrics"
	"github.com/signalfloor/noisewall/internal/models"
	"github.com/signalfloor/noisewall/internal/reference"
	"github.com/signalfloor/noisewall/internal/survey"
	"github.com/signalfloor/noisewall/internal/utils"
)

func main() {
	var (
		configPath string
		subject    int
		experiment string
		runSurvey  bool
		bandLow    float64
		bandHigh   float64
		csvPath    string
		edfPath    string
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.IntVar(&subject, "subject", 0, "Subject number to analyse")
	flag.StringVar(&experiment, "experiment", "", "Experiment name to analyse")
	flag.BoolVar(&runSurvey, "survey", false, "Analyse every recording in the dataset")
	flag.Float64Var(&bandLow, "band-low", 0, "Lower edge of the analysis band in Hz (negative: that many differencing passes)")
	flag.Float64Var(&bandHigh, "band-high", 0, "Upper edge of the analysis band in Hz")
	flag.StringVar(&csvPath, "csv", "", "Write survey results to this CSV file")
	flag.StringVar(&edfPath, "edf", "", "Write the filtered recording to this EDF file")
	flag.Parse()

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}
	if setFlags["band-low"] {
		cfg.Analysis.BandLowHz = bandLow
	}
	if setFlags["band-high"] {
		cfg.Analysis.BandHighHz = bandHigh
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("starting noisewall", slog.String("dataset_root", cfg.Dataset.Root))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	loader := dataset.NewLoader(cfg.Dataset.Root, logger)
	spectra, err := reference.Load(cfg.Dataset.ReferenceDir, logger)
	if err != nil {
		logger.Error("failed to load reference spectra", slog.Any("error", err))
		os.Exit(1)
	}
	pipeline := engine.NewPipeline(logger, loader, spectra)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Metrics.Address,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Metrics.Address))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	base := models.AnalysisRequest{
		SignalBand:     models.SignalBand{MinHz: cfg.Analysis.SignalMinHz, MaxHz: cfg.Analysis.SignalMaxHz},
		Band:           models.BandSelection{Low: cfg.Analysis.BandLowHz, High: cfg.Analysis.BandHighHz},
		NoiseReduction: cfg.Analysis.NoiseReduction,
		EEGGain:        cfg.Analysis.EEGGain,
	}

	var exitCode int
	switch {
	case runSurvey:
		exitCode = surveyDataset(ctx, logger, cfg, pipeline, loader, base, csvPath)
	case subject > 0 && experiment != "":
		req := base
		req.Subject = subject
		req.Experiment = experiment
		req.Band.Low, req.Band.High = cfg.BandFor(experiment)
		if setFlags["band-low"] {
			req.Band.Low = bandLow
		}
		if setFlags["band-high"] {
			req.Band.High = bandHigh
		}
		exitCode = analyzeRecording(ctx, logger, pipeline, loader, req, edfPath)
	default:
		fmt.Fprintln(os.Stderr, "either -survey or both -subject and -experiment are required")
		flag.Usage()
		exitCode = 2
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("noisewall finished")
	os.Exit(exitCode)
}

// analyzeRecording scores a single subject/experiment recording and prints
// the wall and SNR. A reason-coded exclusion is the expected outcome for a
// suspect recording, so it is reported on stdout like a result.
func analyzeRecording(ctx context.Context, logger *slog.Logger, pipeline *engine.Pipeline, loader *dataset.Loader, req models.AnalysisRequest, edfPath string) int {
	res, err := pipeline.Analyze(ctx, req)
	if err != nil {
		if reason, ok := models.ExclusionReason(err); ok {
			logger.Warn("recording excluded",
				slog.Int("subject", req.Subject),
				slog.String("experiment", req.Experiment),
				slog.String("reason", string(reason)))
			fmt.Printf("subj%02d/%s excluded: %s\n", req.Subject, req.Experiment, reason)
			return 1
		}
		logger.Error("analysis failed",
			slog.Int("subject", req.Subject),
			slog.String("experiment", req.Experiment),
			slog.Any("error", err))
		return 1
	}

	verdict := "EEG changes are buried below the noise wall"
	if res.Detectable {
		verdict = "EEG changes are detectable above the noise wall"
	}
	fmt.Printf("subj%02d/%s: wall %.2f dB, snr %.2f dB, rho %.3f - %s\n",
		res.Subject, res.Experiment, res.SNRWallDB, res.SNRDB, res.Rho, verdict)

	if edfPath != "" {
		if err := writeFilteredEDF(loader, req, edfPath); err != nil {
			logger.Error("edf export failed", slog.String("path", edfPath), slog.Any("error", err))
			return 1
		}
		logger.Info("filtered recording exported", slog.String("path", edfPath))
	}
	return 0
}

// writeFilteredEDF re-runs the cascade on a fresh copy of the recording and
// writes the filtered channels next to the untouched EMG and trigger.
func writeFilteredEDF(loader *dataset.Loader, req models.AnalysisRequest, path string) error {
	rec, err := loader.Load(req.Subject, req.Experiment)
	if err != nil {
		return err
	}
	if !rec.Valid {
		return fmt.Errorf("subj%02d is marked invalid", req.Subject)
	}
	filtered, _, err := engine.NewCascade().Apply(rec.EEG, req.Band)
	if err != nil {
		return err
	}
	rec.EEG = filtered

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteEDF(f, rec, time.Now().UTC()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// surveyDataset analyses every recording under the dataset root and prints
// the aggregate picture; per-recording exclusions and failures are counted,
// not fatal.
func surveyDataset(ctx context.Context, logger *slog.Logger, cfg *config.Config, pipeline *engine.Pipeline, loader *dataset.Loader, base models.AnalysisRequest, csvPath string) int {
	var provider cache.Provider = cache.NoopProvider{}
	if cfg.Survey.CacheDir != "" {
		dirProvider, err := cache.NewDirProvider(cfg.Survey.CacheDir)
		if err != nil {
			logger.Warn("result cache unavailable", slog.Any("error", err))
		} else {
			provider = dirProvider
		}
	}
	defer provider.Close()

	runner := survey.NewRunner(logger, pipeline, loader, provider, cfg.Survey.Workers)
	summary, err := runner.Run(ctx, base, cfg)
	if err != nil {
		logger.Error("survey failed", slog.Any("error", err))
		return 1
	}

	printSummary(summary)

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			logger.Error("csv export failed", slog.String("path", csvPath), slog.Any("error", err))
			return 1
		}
		if err := export.WriteCSV(f, summary.Results); err != nil {
			f.Close()
			logger.Error("csv export failed", slog.String("path", csvPath), slog.Any("error", err))
			return 1
		}
		if err := f.Close(); err != nil {
			logger.Error("csv export failed", slog.String("path", csvPath), slog.Any("error", err))
			return 1
		}
		logger.Info("survey results written", slog.String("path", csvPath), slog.Int("rows", len(summary.Results)))
	}

	if summary.Errors > 0 {
		return 1
	}
	return 0
}

func printSummary(summary *survey.Summary) {
	fmt.Printf("recordings analysed: %d (detectable %d, cached %d)\n",
		summary.Analysed(), summary.Detectable, summary.Cached)
	if summary.Analysed() > 0 {
		fmt.Printf("median wall %.2f dB, median snr %.2f dB\n",
			summary.MedianWallDB, summary.MedianSNRDB)
		fmt.Printf("analysis duration p50 %s, p95 %s\n",
			summary.DurationP50.Round(time.Millisecond), summary.DurationP95.Round(time.Millisecond))
	}

	if len(summary.Excluded) > 0 {
		reasons := make([]string, 0, len(summary.Excluded))
		for reason := range summary.Excluded {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		fmt.Println("excluded recordings:")
		for _, reason := range reasons {
			fmt.Printf("  %-40s %d\n", reason, summary.Excluded[models.Reason(reason)])
		}
	}
	if summary.Errors > 0 {
		fmt.Printf("failed recordings: %d\n", summary.Errors)
	}
	fmt.Printf("elapsed: %s\n", summary.Elapsed.Round(time.Millisecond))
}
