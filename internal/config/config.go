// Package config loads runtime configuration from .ls-chartcore.yaml,
// LSCHART_* environment variables (including a local .env file) and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/litescript/ls-chartcore/internal/ephem"
)

// EnvPrefix prefixes every environment variable, e.g. LSCHART_ORB.
const EnvPrefix = "LSCHART"

// LocationConfig relocates return charts away from the natal place.
type LocationConfig struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

// Config holds all runtime configuration.
type Config struct {
	LogLevel    string          `mapstructure:"log_level"`
	Evaluator   string          `mapstructure:"evaluator"`
	HouseSystem string          `mapstructure:"house_system"`
	Orb         float64         `mapstructure:"orb"`
	Natal       string          `mapstructure:"natal"`
	Catalog     string          `mapstructure:"catalog"` // empty uses the built-in catalog
	CachePath   string          `mapstructure:"cache_path"`
	MetricsAddr string          `mapstructure:"metrics_addr"`
	Tracing     bool            `mapstructure:"tracing"`
	Location    *LocationConfig `mapstructure:"location"` // nil keeps the natal place
}

// Init points viper at the config file and environment. cfgFile overrides
// the search for .ls-chartcore.yaml in the working and home directories.
// Finding no config file during the search is not an error; a named file
// that cannot be read is.
func Init(cfgFile string) error {
	// Real environment variables win over .env entries.
	_ = godotenv.Load()

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".ls-chartcore")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	BindEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// BindEnv maps LSCHART_* variables onto config keys; nested keys use
// underscores (LSCHART_LOCATION_LATITUDE).
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Location has no defaults, so its keys are only known once bound.
	_ = viper.BindEnv("location.latitude", EnvPrefix+"_LOCATION_LATITUDE")
	_ = viper.BindEnv("location.longitude", EnvPrefix+"_LOCATION_LONGITUDE")
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("evaluator", ephem.ModeAnalytic.String())
	viper.SetDefault("house_system", ephem.HouseEqual)
	viper.SetDefault("orb", 3.0)
	viper.SetDefault("natal", "natal.toml")
	viper.SetDefault("catalog", "")
	viper.SetDefault("cache_path", "")
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("tracing", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch c.Evaluator {
	case ephem.ModeAnalytic.String(), ephem.ModeHorizons.String():
	default:
		return fmt.Errorf("config: unknown evaluator %q (want analytic or horizons)", c.Evaluator)
	}
	switch c.HouseSystem {
	case ephem.HouseEqual, ephem.HouseWholeSign:
	default:
		return fmt.Errorf("config: %w: %q", ephem.ErrUnsupportedHouseSystem, c.HouseSystem)
	}
	if c.Orb < 0 || c.Orb > 15 {
		return fmt.Errorf("config: orb %v out of range [0, 15]", c.Orb)
	}
	if loc := c.Location; loc != nil {
		if loc.Latitude < -90 || loc.Latitude > 90 {
			return fmt.Errorf("config: latitude %v out of range", loc.Latitude)
		}
		if loc.Longitude < -180 || loc.Longitude > 180 {
			return fmt.Errorf("config: longitude %v out of range", loc.Longitude)
		}
	}
	return nil
}

// Mode returns the configured evaluator mode.
func (c Config) Mode() ephem.Mode {
	return ephem.ParseMode(c.Evaluator)
}
