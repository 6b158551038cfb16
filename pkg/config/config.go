package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/Cybercom1973/taglaget/pkg/util"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Trafikverket TrafikverketConfig `yaml:"trafikverket" validate:"required"`
	Tracker      TrackerConfig      `yaml:"tracker" validate:"required"`

	StationRegistryFile string `yaml:"station_registry_file" validate:"omitempty,file"`
	TimeZone            string `yaml:"time_zone" validate:"required,timezone"`
}

type TrafikverketConfig struct {
	Endpoint string        `yaml:"endpoint" validate:"required,url"`
	APIKey   string        `yaml:"api_key" validate:"required"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

type TrackerConfig struct {
	RefreshRate            time.Duration `yaml:"refresh_rate" validate:"gte=1s"`
	FreshnessWindow        time.Duration `yaml:"freshness_window" validate:"gt=0"`
	UnknownDirectionPolicy string        `yaml:"unknown_direction_policy" validate:"oneof=same hide"`
	IdleTimeout            time.Duration `yaml:"idle_timeout" validate:"gt=0"`
}

func Default() Config {
	return Config{
		Trafikverket: TrafikverketConfig{
			Endpoint: "https://api.trafikinfo.trafikverket.se/v2/data.xml",
			Timeout:  15 * time.Second,
		},
		Tracker: TrackerConfig{
			RefreshRate:            30 * time.Second,
			FreshnessWindow:        15 * time.Minute,
			UnknownDirectionPolicy: "same",
			IdleTimeout:            10 * time.Minute,
		},
		TimeZone: "Europe/Stockholm",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by TAGLAGET_CONFIG_FILE and then TAGLAGET_* environment overrides.
func Load() (Config, error) {
	env := util.GetEnvironmentVariables()

	return LoadFrom(env["TAGLAGET_CONFIG_FILE"], env)
}

func LoadFrom(path string, env map[string]string) (Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, err
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := config.applyEnvironment(env); err != nil {
		return config, err
	}

	if err := validator.New().Struct(config); err != nil {
		return config, err
	}

	return config, nil
}

func (c *Config) applyEnvironment(env map[string]string) error {
	if env["TAGLAGET_TRAFIKVERKET_ENDPOINT"] != "" {
		c.Trafikverket.Endpoint = env["TAGLAGET_TRAFIKVERKET_ENDPOINT"]
	}
	if env["TAGLAGET_TRAFIKVERKET_API_KEY"] != "" {
		c.Trafikverket.APIKey = env["TAGLAGET_TRAFIKVERKET_API_KEY"]
	}
	if env["TAGLAGET_STATION_REGISTRY_FILE"] != "" {
		c.StationRegistryFile = env["TAGLAGET_STATION_REGISTRY_FILE"]
	}
	if env["TAGLAGET_TIME_ZONE"] != "" {
		c.TimeZone = env["TAGLAGET_TIME_ZONE"]
	}
	if env["TAGLAGET_UNKNOWN_DIRECTION_POLICY"] != "" {
		c.Tracker.UnknownDirectionPolicy = env["TAGLAGET_UNKNOWN_DIRECTION_POLICY"]
	}

	durations := map[string]*time.Duration{
		"TAGLAGET_TRAFIKVERKET_TIMEOUT": &c.Trafikverket.Timeout,
		"TAGLAGET_REFRESH_RATE":         &c.Tracker.RefreshRate,
		"TAGLAGET_FRESHNESS_WINDOW":     &c.Tracker.FreshnessWindow,
		"TAGLAGET_IDLE_TIMEOUT":         &c.Tracker.IdleTimeout,
	}
	for name, target := range durations {
		if env[name] == "" {
			continue
		}

		duration, err := time.ParseDuration(env[name])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*target = duration
	}

	return nil
}

func (c Config) Location() *time.Location {
	location, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}

	return location
}
