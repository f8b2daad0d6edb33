package application

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines the billing policy.
type Config struct {
	// DefaultMonthlyRate applies when a panel has no positive rate.
	DefaultMonthlyRate float64 `yaml:"default_monthly_rate"`
	Currency           string  `yaml:"currency"`
	// StandardMonthDays is the standardized month length used for the
	// full-month rule and the daily rate denominator.
	StandardMonthDays int `yaml:"standard_month_days"`
	// MunicipalityRates override the default rate per municipality for
	// panels without a configured rate.
	MunicipalityRates map[string]float64 `yaml:"municipality_rates"`
}

// LoadConfig loads billing config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		DefaultMonthlyRate: getenvFloatDefault("BILLING_DEFAULT_RATE", 37.70),
		Currency:           getenvDefault("BILLING_CURRENCY", "EUR"),
		StandardMonthDays:  30,
	}

	if path := os.Getenv("BILLING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DefaultMonthlyRate <= 0 {
		cfg.DefaultMonthlyRate = 37.70
	}
	if cfg.StandardMonthDays <= 0 {
		cfg.StandardMonthDays = 30
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	return cfg, nil
}

// RateFor resolves the monthly rate for a municipality fallback chain.
func (c Config) RateFor(municipality string) float64 {
	if c.MunicipalityRates != nil {
		if rate, ok := c.MunicipalityRates[municipality]; ok && rate > 0 {
			return rate
		}
	}
	return c.DefaultMonthlyRate
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
