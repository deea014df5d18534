//go:build darwin

package config

import (
	"os"
	"path/filepath"
)

const plistPath = "Library/Preferences/dev.portzap.cli.plist"

func newPlatformStore() (Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return newFileStore(filepath.Join(home, plistPath), plistCodec{}), nil
}
