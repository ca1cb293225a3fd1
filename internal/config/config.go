// Package config содержит логику чтения конфигурации сервиса бронирования.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultAPIBaseURL     = "http://localhost:8000/api"
	defaultAPITimeout     = 10 * time.Second
	defaultLookupDebounce = time.Second
	defaultWizardIdleTTL  = 30 * time.Minute
	defaultAllowedOrigins = "*"
)

// Config содержит параметры конфигурации сервиса бронирования.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	APIBaseURL     string        `env:"API_BASE_URL"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	APITimeout     time.Duration `env:"API_TIMEOUT"`
	LookupDebounce time.Duration `env:"LOOKUP_DEBOUNCE"`
	WizardIdleTTL  time.Duration `env:"WIZARD_IDLE_TTL"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg
	var origins string

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.APIBaseURL, "b", defaultAPIBaseURL, "booking API base URL")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for the order journal")
	flag.DurationVar(&cfg.APITimeout, "t", defaultAPITimeout, "booking API request timeout")
	flag.DurationVar(&cfg.LookupDebounce, "l", defaultLookupDebounce, "identity lookup debounce")
	flag.DurationVar(&cfg.WizardIdleTTL, "w", defaultWizardIdleTTL, "idle time before a wizard is closed")
	flag.StringVar(&origins, "o", defaultAllowedOrigins, "comma-separated CORS origins")

	flag.Parse()

	cfg.AllowedOrigins = splitList(origins)

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.APIBaseURL != "" {
		cfg.APIBaseURL = envCfg.APIBaseURL
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.APITimeout > 0 {
		cfg.APITimeout = envCfg.APITimeout
	}
	if envCfg.LookupDebounce > 0 {
		cfg.LookupDebounce = envCfg.LookupDebounce
	}
	if envCfg.WizardIdleTTL > 0 {
		cfg.WizardIdleTTL = envCfg.WizardIdleTTL
	}
	if len(envCfg.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = envCfg.AllowedOrigins
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("booking API base URL is required")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
