//go:build !darwin

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

func newPlatformStore() (Store, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return newFileStore(path, jsonCodec{}), nil
}

func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			profile := os.Getenv("USERPROFILE")
			if profile == "" {
				return "", errors.New("neither APPDATA nor USERPROFILE is set")
			}
			configDir = filepath.Join(profile, "AppData", "Roaming")
		}
	default: // linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, "portzap", "config.json"), nil
}
