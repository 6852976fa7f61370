// Package config loads service configuration from a YAML file with
// environment overrides. Env always wins so container deployments can
// tune a baked-in config file.
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `yaml:"listenAddr"`

	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`

	OSRMURL string  `yaml:"osrmUrl"`
	OSRMRPS float64 `yaml:"osrmRps"`

	AuthMode       string `yaml:"authMode"`
	AuthHMACSecret string `yaml:"authHmacSecret"`

	WebhookMaxAttempts int `yaml:"webhookMaxAttempts"`

	Solver SolverConfig `yaml:"solver"`
}

// SolverConfig overrides the solver defaults when non-zero.
type SolverConfig struct {
	Seed        int64   `yaml:"seed"`
	Alpha       float64 `yaml:"alpha"`
	Beta        float64 `yaml:"beta"`
	Evaporation float64 `yaml:"evaporation"`
}

func defaults() Config {
	return Config{
		ListenAddr:         ":8080",
		OSRMRPS:            5,
		AuthMode:           "dev",
		WebhookMaxAttempts: 10,
	}
}

// Load reads the file at path (skipped when empty or missing) and then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.ListenAddr, "LISTEN_ADDR")
	if v := os.Getenv("PORT"); v != "" {
		c.ListenAddr = ":" + v
	}
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.OSRMURL, "OSRM_URL")
	setFloat(&c.OSRMRPS, "OSRM_RPS")
	setString(&c.AuthMode, "AUTH_MODE")
	setString(&c.AuthHMACSecret, "AUTH_HMAC_SECRET")
	setInt(&c.WebhookMaxAttempts, "WEBHOOK_MAX_ATTEMPTS")
	setInt64(&c.Solver.Seed, "SOLVER_SEED")
	setFloat(&c.Solver.Alpha, "SOLVER_ALPHA")
	setFloat(&c.Solver.Beta, "SOLVER_BETA")
	setFloat(&c.Solver.Evaporation, "SOLVER_EVAPORATION")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
