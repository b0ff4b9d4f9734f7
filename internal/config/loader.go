package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".iptvscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML layout of a configuration file.
//
//	source: https://iptv-org.github.io/iptv/countries/jp.m3u
//	probe:
//	  concurrency: 100
//	  timeout: 2s
//	headers:
//	  Referer: https://example.com/
//	export:
//	  formats: [csv, md]
//	  dir: ./out
type File struct {
	// Source is the playlist URL or file path.
	Source string `yaml:"source,omitempty"`

	// Probe holds probe and concurrency settings.
	Probe ProbeSection `yaml:"probe,omitempty"`

	// Headers are extra request headers sent with every probe.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Export holds report settings.
	Export ExportSection `yaml:"export,omitempty"`
}

// ProbeSection is the probe: block of a configuration file.
type ProbeSection struct {
	Concurrency      int           `yaml:"concurrency,omitempty"`
	PerHost          int           `yaml:"perHost,omitempty"`
	Timeout          time.Duration `yaml:"timeout,omitempty"`
	ProgressInterval int           `yaml:"progressInterval,omitempty"`
	Method           string        `yaml:"method,omitempty"`
	UserAgent        string        `yaml:"userAgent,omitempty"`
	Proxy            string        `yaml:"proxy,omitempty"`
	Rate             float64       `yaml:"rate,omitempty"`
}

// ExportSection is the export: block of a configuration file.
type ExportSection struct {
	Formats       []string `yaml:"formats,omitempty"`
	Dir           string   `yaml:"dir,omitempty"`
	OnlyAvailable bool     `yaml:"onlyAvailable,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cf.Headers == nil {
		cf.Headers = make(map[string]string)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .iptvscan in the current directory
// 3. Look for .iptvscan in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
