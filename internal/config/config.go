package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type PrometheusCfg struct {
	Port int `yaml:"port" json:"port"`
}

type LoggingCfg struct {
	RotationDays int `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type ResourceLimits struct {
	MaxCPUPercent float64 `yaml:"max_cpu_percent" json:"max_cpu_percent"` // Walk pacing budget (e.g., 10.0)
}

type ListCfg struct {
	ExcludePatterns []string `yaml:"exclude_patterns" json:"exclude_patterns"` // doublestar patterns, relative to the walk root
}

type CopyCfg struct {
	BufferKiB int `yaml:"buffer_kib" json:"buffer_kib"` // Transfer chunk size in KiB
}

type Config struct {
	AllowedRoots   []string       `yaml:"allowed_roots" json:"allowed_roots"`     // Roots destructive operations may touch
	ProtectedPaths []string       `yaml:"protected_paths" json:"protected_paths"` // Extra protected paths beyond the built-ins
	DatabasePath   string         `yaml:"database_path" json:"database_path"`     // SQLite audit log location
	Prometheus     PrometheusCfg  `yaml:"prometheus" json:"prometheus"`
	Logging        LoggingCfg     `yaml:"logging" json:"logging"`
	ResourceLimits ResourceLimits `yaml:"resource_limits" json:"resource_limits"`
	List           ListCfg        `yaml:"list" json:"list"`
	Copy           CopyCfg        `yaml:"copy" json:"copy"`
}

var (
	errNoRoots     = errors.New("configuration must specify allowed_roots")
	errInvalidPath = errors.New("path must be absolute")
)

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if len(c.AllowedRoots) == 0 {
		return errNoRoots
	}

	cleaned := make([]string, 0, len(c.AllowedRoots))
	for _, p := range c.AllowedRoots {
		cp, err := cleanAbsolute(p)
		if err != nil {
			return err
		}
		cleaned = append(cleaned, cp)
	}
	c.AllowedRoots = cleaned

	for i, p := range c.ProtectedPaths {
		cp, err := cleanAbsolute(p)
		if err != nil {
			return err
		}
		c.ProtectedPaths[i] = cp
	}

	if c.Prometheus.Port == 0 {
		c.Prometheus.Port = 9090
	}

	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	if c.ResourceLimits.MaxCPUPercent <= 0 {
		c.ResourceLimits.MaxCPUPercent = 10.0 // Default: 10% CPU budget for walks
	}

	if c.Copy.BufferKiB <= 0 {
		c.Copy.BufferKiB = 128 // Default: 128 KiB transfer chunks
	}

	if c.DatabasePath == "" {
		c.DatabasePath = "/var/lib/treekit/audit.db"
	}

	return nil
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

func (c *Config) PrometheusAddress() string {
	return fmt.Sprintf(":%d", c.Prometheus.Port)
}

// CopyBufferBytes returns the copy chunk size in bytes
func (c *Config) CopyBufferBytes() int {
	return c.Copy.BufferKiB * 1024
}
