// Package config parses the mix engine's CLI flags and environment
// overrides for the external processes the Orchestrator shells out to.
package config

import (
	"flag"
	"os"
	"strings"
)

// Config holds everything the Orchestrator needs beyond the two input
// paths and output directory positional arguments (spec §6 CLI).
type Config struct {
	OutputDir string
	LogLevel  string

	StemCacheDB  string
	SeparatorCmd []string

	AnalyzerBPMCmd      []string
	AnalyzerKeyCmd      []string
	AnalyzerChorusesCmd []string
	AnalyzerVersesCmd   []string

	// DumpSections writes track A's verse/chorus and track B's stretched
	// chorus/verse-1 sections alongside the mix for manual QA.
	DumpSections bool
	// UseDTWVocalRef switches the loop strategy's VocRef metric to a
	// DTW-aligned correlation instead of a plain truncated one.
	UseDTWVocalRef bool
}

// Parse reads flags shared across invocations; Song1/Song2/OutputDir
// positional arguments are read separately by the CLI's flag.Args().
func Parse() *Config {
	cfg := &Config{}

	var separator, bpmCmd, keyCmd, chorusesCmd, versesCmd string

	flag.StringVar(&cfg.OutputDir, "output-dir", "output", "directory the final mix and working state are written under")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.StemCacheDB, "stem-cache-db", defaultStemCacheDB(), "path to the stem-cache directory index sqlite database; only its directory is used, the file opened there is always stemcache.db")
	flag.StringVar(&separator, "separator-cmd", defaultSeparatorCmd(), "external stem-separation command, space-separated")
	flag.StringVar(&bpmCmd, "bpm-cmd", defaultCmd("MIXCORE_BPM_CMD", "get_bpm"), "external BPM estimator command")
	flag.StringVar(&keyCmd, "key-cmd", defaultCmd("MIXCORE_KEY_CMD", "get_key"), "external key estimator command")
	flag.StringVar(&chorusesCmd, "choruses-cmd", defaultCmd("MIXCORE_CHORUSES_CMD", "get_choruses"), "external chorus-section estimator command")
	flag.StringVar(&versesCmd, "verses-cmd", defaultCmd("MIXCORE_VERSES_CMD", "get_verses"), "external verse-section estimator command")
	flag.BoolVar(&cfg.DumpSections, "dump-sections", false, "write track A's verse/chorus and track B's stretched chorus/verse-1 sections alongside the mix, for manual QA")
	flag.BoolVar(&cfg.UseDTWVocalRef, "dtw-vocal-ref", false, "score the loop strategy's vocal-reference metric with DTW-aligned correlation instead of plain truncated correlation")

	flag.Parse()

	cfg.SeparatorCmd = splitCmd(separator)
	cfg.AnalyzerBPMCmd = splitCmd(bpmCmd)
	cfg.AnalyzerKeyCmd = splitCmd(keyCmd)
	cfg.AnalyzerChorusesCmd = splitCmd(chorusesCmd)
	cfg.AnalyzerVersesCmd = splitCmd(versesCmd)

	return cfg
}

func splitCmd(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func defaultCmd(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

func defaultSeparatorCmd() string {
	return defaultCmd("MIXCORE_SEPARATOR_CMD", "demucs --two-stems=none")
}

func defaultStemCacheDB() string {
	if dir := os.Getenv("MIXCORE_DATA_DIR"); dir != "" {
		return dir + "/stemcache.db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mixcore/stemcache.db"
	}
	return home + "/.mixcore/stemcache.db"
}
