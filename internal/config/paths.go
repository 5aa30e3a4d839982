package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "ZMODELS_CONFIG"

	// ConfigFileName is looked up in the working directory
	ConfigFileName = "zmodels.yaml"

	// ConfigDirName is the directory under XDG, ~/.config and /etc
	ConfigDirName = "zmodels"

	dirConfigName = "config.yaml"
)

// SearchPaths lists the candidate config files in lookup order.
// Unset environment variables contribute no candidate.
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, ConfigFileName)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, dirConfigName))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, dirConfigName))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, dirConfigName))
}

// FindConfigPath returns the first existing candidate of SearchPaths, made
// absolute when relative, or "" when none exists.
func FindConfigPath() string {
	for _, p := range SearchPaths() {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
