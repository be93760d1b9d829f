package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jengzang/flight-schedule-go/internal/period"
)

// Config 应用配置
type Config struct {
	Port      string `yaml:"port"`
	DBPath    string `yaml:"db_path"`
	JWTSecret string `yaml:"jwt_secret"`

	DataDir      string `yaml:"data_dir"`      // raw YEAR_MONTH.csv files
	OutputDir    string `yaml:"output_dir"`    // cleaned files, defaults to DataDir
	AirportsFile string `yaml:"airports_file"` // LatLong.csv

	Workers     int    `yaml:"workers"`
	FirstPeriod string `yaml:"first_period"`
	LastPeriod  string `yaml:"last_period"`

	ArrivalFillFromArrival bool `yaml:"arrival_fill_from_arrival"`

	// Requests per minute per client on the public schedule endpoints
	RateLimit int `yaml:"rate_limit"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Port:        ":8080",
		DBPath:      "./data/schedule.db",
		JWTSecret:   "your-secret-key-change-in-production",
		DataDir:     "./data",
		Workers:     runtime.NumCPU(),
		FirstPeriod: period.First.String(),
		LastPeriod:  period.Last.String(),
		RateLimit:   60,
	}
}

// Load 加载配置: defaults, then the YAML file named by SCHEDCLEAN_CONFIG,
// then environment variables.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("SCHEDCLEAN_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.DataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"PORT":          &c.Port,
		"DB_PATH":       &c.DBPath,
		"JWT_SECRET":    &c.JWTSecret,
		"DATA_DIR":      &c.DataDir,
		"OUTPUT_DIR":    &c.OutputDir,
		"AIRPORTS_FILE": &c.AirportsFile,
		"FIRST_PERIOD":  &c.FirstPeriod,
		"LAST_PERIOD":   &c.LastPeriod,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WORKERS %q: %w", v, err)
		}
		c.Workers = n
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT %q: %w", v, err)
		}
		c.RateLimit = n
	}
	if v := os.Getenv("ARRIVAL_FILL_FROM_ARRIVAL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ARRIVAL_FILL_FROM_ARRIVAL %q: %w", v, err)
		}
		c.ArrivalFillFromArrival = b
	}

	if c.Port != "" && !strings.Contains(c.Port, ":") {
		c.Port = ":" + c.Port
	}
	return nil
}

// Validate checks the period range and worker count
func (c *Config) Validate() error {
	first, last, err := c.Periods()
	if err != nil {
		return err
	}
	if last.Before(first) {
		return fmt.Errorf("last period %s is before first period %s", last, first)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimit)
	}
	return nil
}

// Periods parses the configured period range
func (c *Config) Periods() (period.Period, period.Period, error) {
	first, err := period.Parse(c.FirstPeriod)
	if err != nil {
		return period.Period{}, period.Period{}, fmt.Errorf("first period: %w", err)
	}
	last, err := period.Parse(c.LastPeriod)
	if err != nil {
		return period.Period{}, period.Period{}, fmt.Errorf("last period: %w", err)
	}
	return first, last, nil
}
