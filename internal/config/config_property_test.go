package config

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// validLogLevels are the accepted log level values.
var validLogLevels = []string{"debug", "info", "warn", "error"}

// durationEnvKeys lists all Config fields that are parsed as time.Duration.
var durationEnvKeys = []string{
	"READ_TIMEOUT",
	"WRITE_TIMEOUT",
	"IDLE_TIMEOUT",
	"SHUTDOWN_TIMEOUT",
}

// allEnvKeys is every config-related env var key.
var allEnvKeys = append([]string{
	"PORT", "LOG_LEVEL", "UNIVERSE", "INITIAL_CASH", "POSITION_RATIO",
	"PC_METHOD", "LOT_SIZE", "SEQUENCE_LIMIT", "MC_SAMPLES", "MC_SEED",
	"PRICE_TARGET", "RENORMALIZE_SUSPENSIONS", "PAPER_AUTO_FILL", "EVENT_BUFFER",
	"RISK_COEF", "COST_COEF", "MC_EXPECTED_RETURNS", "MC_RISK_VARIANCES", "MC_COST_RATE",
}, durationEnvKeys...)

// unsetAllConfigEnv clears all config env vars and sets a minimal
// universe so Load can succeed.
func unsetAllConfigEnv() {
	for _, key := range allEnvKeys {
		os.Unsetenv(key)
	}
	os.Setenv("UNIVERSE", "A")
}

// genDurationString generates a valid Go duration string (e.g. "3s", "500ms", "2m").
func genDurationString() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		unit := rapid.SampledFrom([]string{"ms", "s", "m"}).Draw(t, "unit")
		val := rapid.IntRange(1, 600).Draw(t, "val")
		return fmt.Sprintf("%d%s", val, unit)
	})
}

// parseDurationOrDefault parses a duration string, returning the default if empty.
func parseDurationOrDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, _ := time.ParseDuration(s)
	return d
}

func TestProperty_ValidConfigParsing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		unsetAllConfigEnv()
		defer unsetAllConfigEnv()

		// Empty string means "use default" (env var not set).
		portStr := rapid.OneOf(
			rapid.Just(""),
			rapid.Map(rapid.IntRange(1, 65535), func(v int) string { return fmt.Sprintf("%d", v) }),
		).Draw(t, "port")

		logLevel := rapid.OneOf(
			rapid.Just(""),
			rapid.SampledFrom(validLogLevels),
		).Draw(t, "logLevel")

		universe := rapid.SliceOfNDistinct(rapid.StringMatching(`[0-9]{6}\.(SH|SZ)`), 1, 10, rapid.ID[string]).Draw(t, "universe")

		ratioPct := rapid.IntRange(1, 100).Draw(t, "ratioPct")
		lotSize := rapid.Int64Range(1, 1000).Draw(t, "lotSize")
		seqLimit := rapid.Int64Range(1, 9999).Draw(t, "seqLimit")

		durStrs := make(map[string]string, len(durationEnvKeys))
		for _, key := range durationEnvKeys {
			durStrs[key] = rapid.OneOf(
				rapid.Just(""),
				genDurationString(),
			).Draw(t, key)
		}

		if portStr != "" {
			os.Setenv("PORT", portStr)
		}
		if logLevel != "" {
			os.Setenv("LOG_LEVEL", logLevel)
		}
		os.Setenv("UNIVERSE", strings.Join(universe, ","))
		os.Setenv("POSITION_RATIO", fmt.Sprintf("%d.%02d", ratioPct/100, ratioPct%100))
		os.Setenv("LOT_SIZE", fmt.Sprintf("%d", lotSize))
		os.Setenv("SEQUENCE_LIMIT", fmt.Sprintf("%d", seqLimit))
		for _, key := range durationEnvKeys {
			if durStrs[key] != "" {
				os.Setenv(key, durStrs[key])
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned error for valid inputs: %v", err)
		}

		expectedPort := 8080
		if portStr != "" {
			fmt.Sscanf(portStr, "%d", &expectedPort)
		}
		if cfg.Port != expectedPort {
			t.Fatalf("Port = %d, want %d", cfg.Port, expectedPort)
		}

		expectedLogLevel := "info"
		if logLevel != "" {
			expectedLogLevel = logLevel
		}
		if cfg.LogLevel != expectedLogLevel {
			t.Fatalf("LogLevel = %q, want %q", cfg.LogLevel, expectedLogLevel)
		}

		if cfg.Universe != strings.Join(universe, ",") {
			t.Fatalf("Universe = %v, want %v", cfg.Universe, universe)
		}
		if want := float64(ratioPct) / 100; cfg.PositionRatio != want {
			t.Fatalf("PositionRatio = %v, want %v", cfg.PositionRatio, want)
		}
		if cfg.LotSize != lotSize || cfg.SequenceLimit != seqLimit {
			t.Fatalf("LotSize/SequenceLimit = %d/%d, want %d/%d", cfg.LotSize, cfg.SequenceLimit, lotSize, seqLimit)
		}

		type durField struct {
			envKey string
			got    time.Duration
			defVal time.Duration
		}
		durFields := []durField{
			{"READ_TIMEOUT", cfg.ReadTimeout, 5 * time.Second},
			{"WRITE_TIMEOUT", cfg.WriteTimeout, 10 * time.Second},
			{"IDLE_TIMEOUT", cfg.IdleTimeout, 60 * time.Second},
			{"SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout, 10 * time.Second},
		}
		for _, df := range durFields {
			expected := parseDurationOrDefault(durStrs[df.envKey], df.defVal)
			if df.got != expected {
				t.Fatalf("%s = %v, want %v (env=%q)", df.envKey, df.got, expected, durStrs[df.envKey])
			}
		}
	})
}

func TestProperty_OutOfRangeSequenceLimitReturnsError(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		unsetAllConfigEnv()
		defer unsetAllConfigEnv()

		limit := rapid.OneOf(
			rapid.Int64Range(-1000, 0),
			rapid.Int64Range(10000, 1_000_000),
		).Draw(t, "limit")
		os.Setenv("SEQUENCE_LIMIT", fmt.Sprintf("%d", limit))

		if _, err := Load(); err == nil {
			t.Fatalf("Load() should return error for SEQUENCE_LIMIT %d", limit)
		}
	})
}

func TestProperty_InvalidLogLevelReturnsError(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		unsetAllConfigEnv()
		defer unsetAllConfigEnv()

		invalidLevel := rapid.StringMatching(`[a-z]{1,20}`).Filter(func(s string) bool {
			for _, v := range validLogLevels {
				if s == v {
					return false
				}
			}
			return s != ""
		}).Draw(t, "invalidLevel")

		os.Setenv("LOG_LEVEL", invalidLevel)

		_, err := Load()
		if err == nil {
			t.Fatalf("Load() should return error for invalid LOG_LEVEL %q", invalidLevel)
		}
	})
}
