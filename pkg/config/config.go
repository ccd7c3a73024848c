package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	Debug    bool
	HTTPPort string

	// Feed
	Product string
	WSURL   string
	CacheDir string // empty disables the cache sink

	// WebSocket transport
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSFrameBufferSize       int

	// Engine
	SampleInterval         time.Duration // MidPriceSeries grid
	ForecastWindow         time.Duration // forecast horizon and bucket span divisor
	Seasonality            int           // m
	Windows                []time.Duration
	RetrainShutdownTimeout time.Duration // bound on waiting for in-flight refits at shutdown
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		Debug:    getBoolOrDefault("DEBUG", false),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		Product:  getEnvOrDefault("PRODUCT", "BTC-USD"),
		WSURL:    getEnvOrDefault("WS_URL", "wss://ws-feed.pro.coinbase.com"),
		CacheDir: os.Getenv("CACHE_DIR"),

		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSFrameBufferSize:       getIntOrDefault("WS_FRAME_BUFFER_SIZE", 10000),

		SampleInterval:         getDurationOrDefault("SAMPLE_INTERVAL", 50*time.Millisecond),
		ForecastWindow:         getDurationOrDefault("FORECAST_WINDOW", 60*time.Second),
		Seasonality:            getIntOrDefault("SEASONALITY", 10),
		Windows:                defaultWindows,
		RetrainShutdownTimeout: getDurationOrDefault("RETRAIN_SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

var defaultWindows = []time.Duration{60 * time.Second, 300 * time.Second, 900 * time.Second}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}

	if c.Product == "" {
		return errors.New("PRODUCT cannot be empty")
	}

	if c.WSURL == "" {
		return errors.New("WS_URL cannot be empty")
	}

	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be positive, got %s", c.SampleInterval)
	}

	if c.ForecastWindow <= 0 {
		return fmt.Errorf("FORECAST_WINDOW must be positive, got %s", c.ForecastWindow)
	}

	if c.Seasonality < 2 {
		return fmt.Errorf("SEASONALITY must be at least 2, got %d", c.Seasonality)
	}

	if len(c.Windows) == 0 {
		return errors.New("Windows must contain at least one aggregation window")
	}
	for _, w := range c.Windows {
		if w <= 0 {
			return fmt.Errorf("aggregation windows must be positive, got %s", w)
		}
	}

	if c.WSFrameBufferSize < 1 {
		return fmt.Errorf("WS_FRAME_BUFFER_SIZE must be at least 1, got %d", c.WSFrameBufferSize)
	}

	if c.RetrainShutdownTimeout < 0 {
		return fmt.Errorf("RETRAIN_SHUTDOWN_TIMEOUT must be non-negative, got %s", c.RetrainShutdownTimeout)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}
