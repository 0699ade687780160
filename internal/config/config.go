package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValidationMode int

const (
	ValidationFull ValidationMode = iota
	ValidationProbeOnly
)

type Config struct {
	Connexion ConnexionConfig `yaml:"connexion"`
	Scan      ScanConfig      `yaml:"scan"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
}

type ConnexionConfig struct {
	Transport  string `yaml:"transport"`
	Address    string `yaml:"address"`
	BaudRate   *int   `yaml:"baud_rate"`
	TimeoutMS  *int   `yaml:"timeout_ms"`
}

type ScanConfig struct {
	DocSource  string `yaml:"doc_source"`
	Resolution *int   `yaml:"resolution"`
	ColorMode  string `yaml:"color_mode"`
	OutputDir  string `yaml:"output_dir"`
}

type RuntimeConfig struct {
	Pedantic *bool `yaml:"pedantic"`
	Debug    *bool `yaml:"debug"`
}

func Load(path string) (*Config, error) {
	return LoadWithMode(path, ValidationFull)
}

func LoadWithMode(path string, mode ValidationMode) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.resolvePaths(path)
	if err := cfg.ValidateWithMode(mode); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	return c.ValidateWithMode(ValidationFull)
}

func (c *Config) ValidateWithMode(mode ValidationMode) error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	switch mode {
	case ValidationProbeOnly:
		return nil
	case ValidationFull:
		return c.validateFullMode()
	default:
		return fmt.Errorf("unsupported validation mode: %d", mode)
	}
}

func (c *Config) validateCommon() error {
	if strings.TrimSpace(c.Connexion.Transport) == "" {
		return fmt.Errorf("config.connexion.transport is required")
	}
	if strings.TrimSpace(c.Connexion.Address) == "" {
		return fmt.Errorf("config.connexion.address is required")
	}
	switch c.Connexion.Transport {
	case "serial", "tcp":
	default:
		return fmt.Errorf("config.connexion.transport must be serial or tcp, got %q", c.Connexion.Transport)
	}
	if c.Connexion.TimeoutMS != nil && *c.Connexion.TimeoutMS <= 0 {
		return fmt.Errorf("config.connexion.timeout_ms must be > 0")
	}
	return nil
}

func (c *Config) validateFullMode() error {
	if c.Connexion.Transport == "serial" {
		if c.Connexion.BaudRate == nil {
			return fmt.Errorf("config.connexion.baud_rate is required for serial transport")
		}
		if *c.Connexion.BaudRate <= 0 {
			return fmt.Errorf("config.connexion.baud_rate must be > 0")
		}
	}

	if c.Scan.Resolution != nil && *c.Scan.Resolution <= 0 {
		return fmt.Errorf("config.scan.resolution must be > 0")
	}

	if strings.TrimSpace(c.Scan.OutputDir) != "" {
		if err := validateWritableDir(c.Scan.OutputDir, "config.scan.output_dir"); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) resolvePaths(configPath string) {
	configDir := filepath.Dir(configPath)
	c.Scan.OutputDir = resolvePath(configDir, c.Scan.OutputDir)
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Clean(filepath.Join(baseDir, trimmed))
}

func validateWritableDir(path string, field string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s must point to a directory", field)
	}
	return nil
}
