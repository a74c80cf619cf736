package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".linkmatch"

// xdgConfigFile is the file name inside the XDG config directory.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads a configuration file.
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
	if cf.Hosts == nil {
		cf.Hosts = make(map[string]HostConfig)
	}

	return &cf, nil
}

// XDGConfigFile returns the path of the configuration file inside the XDG
// config directory.
func XDGConfigFile() string {
	return filepath.Join(XDGConfigDir(), xdgConfigFile)
}

// FindConfigFile searches for the configuration file in the following order:
//  1. configPath, if given
//  2. .linkmatch in the current directory
//  3. .linkmatch in the home directory
//  4. config.yaml in the XDG config directory
//
// It returns an empty string when nothing is found.
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
	candidates = append(candidates, XDGConfigFile())

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
