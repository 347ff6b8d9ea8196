package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the execution daemon.
type Config struct {
	Port     int
	LogLevel string

	Universe      string // comma-separated security codes
	InitialCash   float64
	PositionRatio float64
	PCMethod      string
	LotSize       int64
	SequenceLimit int64
	MCSamples     int
	MCSeed        int64
	PriceTarget   string
	Renormalize   bool

	// Net-revenue utility behind the mc method.
	RiskCoef        float64
	CostCoef        float64
	ExpectedReturns map[string]float64
	RiskVariances   map[string]float64
	CostRate        float64

	PaperAutoFill bool
	EventBuffer   int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	universe := strings.TrimSpace(os.Getenv("UNIVERSE"))
	if len(splitList(universe)) == 0 {
		return nil, errors.New("UNIVERSE is required: comma-separated security codes")
	}

	initialCash, err := getFloat("INITIAL_CASH", 1e6)
	if err != nil {
		return nil, fmt.Errorf("invalid INITIAL_CASH: %w", err)
	}
	if initialCash < 0 || math.IsNaN(initialCash) || math.IsInf(initialCash, 0) {
		return nil, fmt.Errorf("invalid INITIAL_CASH: %v, must be a non-negative number", initialCash)
	}

	positionRatio, err := getFloat("POSITION_RATIO", 1.0)
	if err != nil {
		return nil, fmt.Errorf("invalid POSITION_RATIO: %w", err)
	}
	if !(positionRatio > 0 && positionRatio <= 1) {
		return nil, fmt.Errorf("invalid POSITION_RATIO: %v, must be in (0, 1]", positionRatio)
	}

	pcMethod := getStr("PC_METHOD", "equal_weight")

	lotSize, err := getInt64("LOT_SIZE", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid LOT_SIZE: %w", err)
	}
	if lotSize <= 0 {
		return nil, fmt.Errorf("invalid LOT_SIZE: %d, must be positive", lotSize)
	}

	sequenceLimit, err := getInt64("SEQUENCE_LIMIT", 9999)
	if err != nil {
		return nil, fmt.Errorf("invalid SEQUENCE_LIMIT: %w", err)
	}
	if sequenceLimit < 1 || sequenceLimit > 9999 {
		return nil, fmt.Errorf("invalid SEQUENCE_LIMIT: %d, must be in [1, 9999]", sequenceLimit)
	}

	mcSamples, err := getInt("MC_SAMPLES", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid MC_SAMPLES: %w", err)
	}
	if mcSamples <= 0 {
		return nil, fmt.Errorf("invalid MC_SAMPLES: %d, must be positive", mcSamples)
	}

	mcSeed, err := getInt64("MC_SEED", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid MC_SEED: %w", err)
	}

	riskCoef, err := getFloat("RISK_COEF", 1.0)
	if err != nil {
		return nil, fmt.Errorf("invalid RISK_COEF: %w", err)
	}
	if !(riskCoef > 0) || math.IsInf(riskCoef, 0) {
		return nil, fmt.Errorf("invalid RISK_COEF: %v, must be a positive number", riskCoef)
	}

	costCoef, err := getFloat("COST_COEF", 1.0)
	if err != nil {
		return nil, fmt.Errorf("invalid COST_COEF: %w", err)
	}
	if !(costCoef > 0) || math.IsInf(costCoef, 0) {
		return nil, fmt.Errorf("invalid COST_COEF: %v, must be a positive number", costCoef)
	}

	expectedRet, err := getFloatMap("MC_EXPECTED_RETURNS")
	if err != nil {
		return nil, fmt.Errorf("invalid MC_EXPECTED_RETURNS: %w", err)
	}

	riskVariance, err := getFloatMap("MC_RISK_VARIANCES")
	if err != nil {
		return nil, fmt.Errorf("invalid MC_RISK_VARIANCES: %w", err)
	}
	for sec, v := range riskVariance {
		if v < 0 {
			return nil, fmt.Errorf("invalid MC_RISK_VARIANCES: %s has negative variance %v", sec, v)
		}
	}

	costRate, err := getFloat("MC_COST_RATE", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid MC_COST_RATE: %w", err)
	}
	if !(costRate >= 0) || math.IsInf(costRate, 0) {
		return nil, fmt.Errorf("invalid MC_COST_RATE: %v, must be a non-negative number", costRate)
	}

	priceTarget := getStr("PRICE_TARGET", "close")
	if priceTarget != "close" && priceTarget != "vwap" {
		return nil, fmt.Errorf("invalid PRICE_TARGET: %q, must be one of: close, vwap", priceTarget)
	}

	renormalize, err := getBool("RENORMALIZE_SUSPENSIONS", true)
	if err != nil {
		return nil, fmt.Errorf("invalid RENORMALIZE_SUSPENSIONS: %w", err)
	}

	autoFill, err := getBool("PAPER_AUTO_FILL", true)
	if err != nil {
		return nil, fmt.Errorf("invalid PAPER_AUTO_FILL: %w", err)
	}

	eventBuffer, err := getInt("EVENT_BUFFER", 256)
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_BUFFER: %w", err)
	}
	if eventBuffer < 0 {
		return nil, fmt.Errorf("invalid EVENT_BUFFER: %d, must be non-negative", eventBuffer)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		Universe:        universe,
		InitialCash:     initialCash,
		PositionRatio:   positionRatio,
		PCMethod:        pcMethod,
		LotSize:         lotSize,
		SequenceLimit:   sequenceLimit,
		MCSamples:       mcSamples,
		MCSeed:          mcSeed,
		RiskCoef:        riskCoef,
		CostCoef:        costCoef,
		ExpectedReturns: expectedRet,
		RiskVariances:   riskVariance,
		CostRate:        costRate,
		PriceTarget:     priceTarget,
		Renormalize:     renormalize,
		PaperAutoFill:   autoFill,
		EventBuffer:     eventBuffer,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

// getFloatMap parses "KEY:VALUE" pairs separated by commas, such as
// "600000.SH:0.02,000001.SZ:0.01". An unset variable yields nil.
func getFloatMap(key string) (map[string]float64, error) {
	pairs := splitList(os.Getenv(key))
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		sec, val, ok := strings.Cut(pair, ":")
		sec = strings.TrimSpace(sec)
		if !ok || sec == "" {
			return nil, fmt.Errorf("%q is not SECURITY:VALUE", pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sec, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%s: %v is not finite", sec, f)
		}
		out[sec] = f
	}
	return out, nil
}

// splitList splits a comma-separated list, trimming blanks.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
