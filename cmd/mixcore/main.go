// Command mixcore is the offline two-track DJ mix engine's CLI entrypoint
// (spec §6): `mixcore <song1.wav> <song2.wav> [output_dir]`.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cartomix/mixcore/internal/analyzer"
	"github.com/cartomix/mixcore/internal/config"
	"github.com/cartomix/mixcore/internal/mixer"
	"github.com/cartomix/mixcore/internal/stems"
	"github.com/cartomix/mixcore/internal/storage"
)

func main() {
	cfg := config.Parse()
	args := flag.Args()

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Error: usage: mixcore <song1.wav> <song2.wav> [output_dir]")
		os.Exit(1)
	}
	song1, song2 := args[0], args[1]
	outputDir := cfg.OutputDir
	if len(args) >= 3 {
		outputDir = args[2]
	}

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	o := &mixer.Orchestrator{
		Analyzer:       buildAnalyzer(cfg, logger),
		Stems:          buildStemStore(cfg, logger),
		OutputDir:      outputDir,
		Logger:         logger,
		DumpSections:   cfg.DumpSections,
		UseDTWVocalRef: cfg.UseDTWVocalRef,
	}

	result, err := o.Run(context.Background(), song1, song2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s (%s)\n", result.Path, result.Mode)
	if result.Score != nil {
		fmt.Println("vocal-fit score:")
		fmt.Printf("  accent   %.3f\n", result.Score.Accent)
		fmt.Printf("  timing   %.3f\n", result.Score.Timing)
		fmt.Printf("  contour  %.3f\n", result.Score.Contour)
		fmt.Printf("  voc_ref  %.3f\n", result.Score.VocRef)
		fmt.Printf("  final    %.3f (%s)\n", result.Score.Final, result.Score.Verdict())
	}
}

func buildAnalyzer(cfg *config.Config, logger *slog.Logger) analyzer.Analyzer {
	if analyzerCommandsResolvable(cfg) {
		return analyzer.NewClient(analyzer.Commands{
			BPM:      cfg.AnalyzerBPMCmd,
			Key:      cfg.AnalyzerKeyCmd,
			Choruses: cfg.AnalyzerChorusesCmd,
			Verses:   cfg.AnalyzerVersesCmd,
		}, logger)
	}
	logger.Warn("external analyzer commands not found on PATH, falling back to the placeholder analyzer")
	return analyzer.NewPlaceholder(logger)
}

func analyzerCommandsResolvable(cfg *config.Config) bool {
	for _, cmd := range [][]string{cfg.AnalyzerBPMCmd, cfg.AnalyzerKeyCmd, cfg.AnalyzerChorusesCmd, cfg.AnalyzerVersesCmd} {
		if len(cmd) == 0 {
			return false
		}
		if _, err := exec.LookPath(cmd[0]); err != nil {
			return false
		}
	}
	return true
}

func buildStemStore(cfg *config.Config, logger *slog.Logger) stems.Store {
	store := stems.Store{}

	if len(cfg.SeparatorCmd) > 0 {
		if _, err := exec.LookPath(cfg.SeparatorCmd[0]); err == nil {
			store.Separator = stems.ExternalSeparator{Command: cfg.SeparatorCmd}
		} else {
			logger.Warn("separator command not found on PATH, relying on the cached stem directory scan only", "cmd", cfg.SeparatorCmd[0])
		}
	}

	dataDir := filepath.Dir(cfg.StemCacheDB)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logger.Warn("could not create stem-cache data directory, running without the sqlite index", "error", err)
		return store
	}
	db, err := storage.Open(dataDir, logger)
	if err != nil {
		logger.Warn("could not open stem-cache index, running without it", "error", err)
		return store
	}
	store.Index = db
	return store
}
