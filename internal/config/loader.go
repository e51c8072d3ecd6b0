package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "codeverse.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "CODEVERSE_PORT")
	setString(&cfg.Server.CORSOrigin, "CODEVERSE_CORS_ORIGIN")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "CODEVERSE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "CODEVERSE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "CODEVERSE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "CODEVERSE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "CODEVERSE_PG_HEALTH_CHECK")

	setString(&cfg.Agent.Bridge, "CODEVERSE_AGENT_BRIDGE")
	setString(&cfg.Agent.Binary, "CLAUDE_BIN")
	setDuration(&cfg.Agent.Timeout, "CODEVERSE_AGENT_TIMEOUT")

	setString(&cfg.STT.APIKey, "OPENAI_API_KEY")
	setString(&cfg.STT.Model, "CODEVERSE_STT_MODEL")
	setInt(&cfg.STT.MaxAudioBytes, "CODEVERSE_STT_MAX_AUDIO_BYTES")
	setFloat64(&cfg.STT.MaxAudioSeconds, "CODEVERSE_STT_MAX_AUDIO_SECONDS")
	setDuration(&cfg.STT.Timeout, "CODEVERSE_STT_TIMEOUT")

	setInt64(&cfg.Cache.L1MaxSizeMB, "CODEVERSE_CACHE_L1_SIZE_MB")

	setBool(&cfg.Rate.Enabled, "CODEVERSE_RATE_ENABLED")
	setFloat64(&cfg.Rate.RequestsPerSecond, "CODEVERSE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "CODEVERSE_RATE_BURST")

	setString(&cfg.Logging.Level, "CODEVERSE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CODEVERSE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "CODEVERSE_LOG_ASYNC")
	setInt(&cfg.Logging.AsyncBuffer, "CODEVERSE_LOG_ASYNC_BUFFER")

	setString(&cfg.Telemetry.OTLPEndpoint, "CODEVERSE_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Agent.Bridge == "" {
		return errors.New("agent.bridge is required")
	}
	if cfg.Agent.Timeout < 0 {
		return errors.New("agent.timeout must not be negative")
	}
	if cfg.STT.MaxAudioBytes < 1 {
		return errors.New("stt.max_audio_bytes must be >= 1")
	}
	if cfg.STT.MaxAudioSeconds <= 0 {
		return errors.New("stt.max_audio_seconds must be > 0")
	}
	if cfg.Cache.L1MaxSizeMB < 1 {
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	if cfg.Rate.Enabled {
		if cfg.Rate.RequestsPerSecond <= 0 {
			return errors.New("rate.requests_per_second must be > 0")
		}
		if cfg.Rate.Burst < 1 {
			return errors.New("rate.burst must be >= 1")
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
