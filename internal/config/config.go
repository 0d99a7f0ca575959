package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hydroseries/drought"
	"github.com/couchcryptid/hydroseries/timeseries"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Regularizer settings applied to every incoming batch.
	Frequency       string
	StartTime       string
	EndTime         string
	AggregateMethod string
	FillMethod      string
	FillLimit       int

	// Drought index endpoint configuration. The endpoint is enabled when a
	// history file is configured (DROUGHT_ENABLED overrides).
	DroughtEnabled   bool
	DroughtMetric    drought.Metric
	DroughtWindow    string
	DroughtSmoothing bool
	DroughtMinYears  int
	HistoryPath      string

	// RedisAddr enables the Redis model store; empty keeps models in memory.
	RedisAddr string
}

// Load reads configuration from environment variables, applying defaults
// where unset. Regularizer and drought settings are validated eagerly by
// constructing throwaway instances, so a typo fails at boot instead of on
// the first batch.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	flushInterval, err := parseDurationEnv("BATCH_FLUSH_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	batchSize, err := parseIntEnv("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}
	fillLimit, err := parseIntEnv("FILL_LIMIT", 0)
	if err != nil {
		return nil, err
	}
	minYears, err := parseIntEnv("DROUGHT_MIN_YEARS", 30)
	if err != nil {
		return nil, err
	}

	historyPath := os.Getenv("HISTORY_PATH")
	droughtEnabled := historyPath != ""
	if v := os.Getenv("DROUGHT_ENABLED"); v != "" {
		droughtEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "raw-sensor-readings"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "regularized-sensor-readings"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "hydroseries-etl"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		Frequency:       envOrDefault("FREQUENCY", "15min"),
		StartTime:       os.Getenv("START_TIME"),
		EndTime:         os.Getenv("END_TIME"),
		AggregateMethod: envOrDefault("AGGREGATE_METHOD", "mean"),
		FillMethod:      os.Getenv("FILL_METHOD"),
		FillLimit:       fillLimit,

		DroughtEnabled:   droughtEnabled,
		DroughtMetric:    drought.Metric(envOrDefault("DROUGHT_METRIC", string(drought.SPEI))),
		DroughtWindow:    envOrDefault("DROUGHT_WINDOW", "30D"),
		DroughtSmoothing: envOrDefault("DROUGHT_SMOOTHING", "true") == "true",
		DroughtMinYears:  minYears,
		HistoryPath:      historyPath,

		RedisAddr: os.Getenv("REDIS_ADDR"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.DroughtEnabled && cfg.HistoryPath == "" && cfg.RedisAddr == "" {
		return nil, errors.New("DROUGHT_ENABLED is true but neither HISTORY_PATH nor REDIS_ADDR is set")
	}

	if _, err := timeseries.NewRegularizer(cfg.RegularizerConfig(), nil); err != nil {
		return nil, fmt.Errorf("regularizer config: %w", err)
	}
	if _, err := drought.New(cfg.DroughtConfig(), nil); err != nil {
		return nil, fmt.Errorf("drought config: %w", err)
	}

	return cfg, nil
}

// RegularizerConfig maps the service settings onto the library config.
func (c *Config) RegularizerConfig() timeseries.RegularizerConfig {
	return timeseries.RegularizerConfig{
		Frequency:       c.Frequency,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		AggregateMethod: c.AggregateMethod,
		FillMethod:      c.FillMethod,
		FillLimit:       c.FillLimit,
	}
}

// DroughtConfig maps the service settings onto the library config.
func (c *Config) DroughtConfig() drought.Config {
	return drought.Config{
		Metric:    c.DroughtMetric,
		Window:    c.DroughtWindow,
		Smoothing: c.DroughtSmoothing,
		MinYears:  c.DroughtMinYears,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseIntEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
