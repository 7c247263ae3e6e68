// Package config loads the YAML configuration for the server and the
// report CLI. Missing files yield defaults so both binaries run with no
// setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Server configures the dashboard server.
type Server struct {
	Listen         string    `yaml:"listen"`
	DBPath         string    `yaml:"db_path"`
	PasswordHash   string    `yaml:"password_hash"`
	APIKey         string    `yaml:"api_key"`
	PlanCeilings   []float64 `yaml:"plan_ceilings"`
	TranscriptRoot string    `yaml:"transcript_root"`
	RatePerSecond  float64   `yaml:"rate_per_second"`
	RateBurst      int       `yaml:"rate_burst"`
}

// DefaultServer returns the configuration used when no file exists.
// Auth is off until a password hash or API key is configured.
func DefaultServer() Server {
	return Server{
		Listen:        ":8080",
		DBPath:        "./ccdash.db",
		PlanCeilings:  []float64{100, 200},
		RatePerSecond: 10,
		RateBurst:     30,
	}
}

// LoadServer reads the server configuration from path, filling in
// defaults for anything left unset.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./ccdash.db"
	}
	if len(cfg.PlanCeilings) == 0 {
		cfg.PlanCeilings = []float64{100, 200}
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 30
	}
	return cfg, nil
}

// CLI holds the report command's persistent preferences.
type CLI struct {
	Currency string  `yaml:"currency"`
	Rate     float64 `yaml:"rate"`
	Offline  bool    `yaml:"offline"`
}

func cliPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ccdash.yaml"), nil
}

// LoadCLI reads ~/.ccdash.yaml, returning zero values when absent.
func LoadCLI() (CLI, error) {
	path, err := cliPath()
	if err != nil {
		return CLI{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return CLI{}, nil
		}
		return CLI{}, err
	}

	var cfg CLI
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLI{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// SaveCLI writes the preferences back to ~/.ccdash.yaml.
func SaveCLI(cfg CLI) error {
	path, err := cliPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
