package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileStore persists preferences to a single file in the codec's format.
type fileStore struct {
	path  string
	codec codec
	mu    sync.RWMutex
}

func newFileStore(path string, c codec) *fileStore {
	return &fileStore{path: path, codec: c}
}

func (s *fileStore) Load() (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := Default()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	// Keys missing from the file keep their defaults.
	if err := s.codec.unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func (s *fileStore) Save(cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *cfg
	out.normalize()

	data, err := s.codec.marshal(&out)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}
