package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	defaultBaseURL  = "https://transport.integration.sl.se/v1"
	defaultSiteID   = "1285"
	defaultBusLine  = "1"
	defaultTimezone = "Europe/Stockholm"
)

// Default proxy order matches how often each one actually works.
var defaultProxies = []string{
	"https://api.allorigins.win/get?url=",
	"https://cors-anywhere.herokuapp.com/",
	"https://api.codetabs.com/v1/proxy?quest=",
}

type Config struct {
	Port            string         `validate:"required"`
	BaseURL         string         `validate:"required,url"`
	SiteID          string         `validate:"required"`
	BusLine         string         `validate:"required"`
	MaxDepartures   int            `validate:"gt=0"`
	ForecastMinutes int            `validate:"gt=0"`
	RefreshInterval time.Duration  `validate:"gt=0"`
	FetchTimeout    time.Duration  `validate:"gt=0"`
	Proxies         []string       `validate:"dive,url"`
	Location        *time.Location `validate:"-"`
}

// Load reads configuration from the environment, with a .env file as
// fallback, and validates it. Invalid values fail startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8000"),
		BaseURL:         getEnv("SL_BASE_URL", defaultBaseURL),
		SiteID:          getEnv("SL_SITE_ID", defaultSiteID),
		BusLine:         getEnv("SL_BUS_LINE", defaultBusLine),
		MaxDepartures:   getIntEnv("MAX_DEPARTURES", 8),
		ForecastMinutes: getIntEnv("FORECAST_MINUTES", 60),
		RefreshInterval: getDurationEnv("REFRESH_INTERVAL", 30*time.Second),
		FetchTimeout:    getDurationEnv("FETCH_TIMEOUT", 10*time.Second),
		Proxies:         getListEnv("CORS_PROXIES", defaultProxies),
	}

	tz := getEnv("TIMEZONE", defaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: unresolvable timezone %q: %w", tz, err)
	}
	cfg.Location = loc

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getListEnv(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
