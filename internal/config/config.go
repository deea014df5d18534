package config

import (
	"slices"
	"sync"
	"time"

	"github.com/productdevbook/portzap/internal/log"
)

var logger = log.Component("config")

// Theme selects the TUI palette.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle flips between dark and light.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

const defaultAnimationMS = 1000

// Config holds user preferences for the interactive UI
type Config struct {
	Theme               Theme `json:"theme" plist:"theme"`
	SkipConfirmDialog   bool  `json:"skip_confirm_dialog" plist:"skipConfirmDialog"`
	AnimationDurationMS int   `json:"animation_duration_ms" plist:"animationDurationMs"`
	Favorites           []int `json:"favorites" plist:"favorites"`
}

// Default returns the preferences used when nothing is stored.
func Default() *Config {
	return &Config{
		Theme:               ThemeDark,
		AnimationDurationMS: defaultAnimationMS,
		Favorites:           []int{},
	}
}

// normalize repairs values a hand-edited file may carry.
func (c *Config) normalize() {
	if c.Theme != ThemeDark && c.Theme != ThemeLight {
		c.Theme = ThemeDark
	}
	if c.AnimationDurationMS < 0 {
		c.AnimationDurationMS = defaultAnimationMS
	}
	if c.Favorites == nil {
		c.Favorites = []int{}
	}
}

// AnimationDuration is how long killed rows stay highlighted.
func (c *Config) AnimationDuration() time.Duration {
	return time.Duration(c.AnimationDurationMS) * time.Millisecond
}

// Store interface for config persistence
type Store interface {
	Load() (*Config, error)
	Save(cfg *Config) error
}

// NewStore returns the platform store, or an in-memory one when no
// preferences location can be determined.
func NewStore() Store {
	store, err := newPlatformStore()
	if err != nil {
		logger.WithError(err).Warn("preferences will not be persisted")
		return &fallbackStore{}
	}
	return store
}

// LoadOrDefault loads from s and falls back to defaults on any error.
func LoadOrDefault(s Store) *Config {
	cfg, err := s.Load()
	if err != nil {
		logger.WithError(err).Warn("ignoring unreadable preferences")
		return Default()
	}
	return cfg
}

// fallbackStore keeps preferences for the life of the process only.
type fallbackStore struct {
	mu  sync.Mutex
	cfg *Config
}

func (f *fallbackStore) Load() (*Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cfg == nil {
		return Default(), nil
	}
	cp := *f.cfg
	cp.Favorites = slices.Clone(f.cfg.Favorites)
	return &cp, nil
}

func (f *fallbackStore) Save(cfg *Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *cfg
	cp.Favorites = slices.Clone(cfg.Favorites)
	f.cfg = &cp
	return nil
}

// IsFavorite checks if a port is in favorites
func (c *Config) IsFavorite(port int) bool {
	return slices.Contains(c.Favorites, port)
}

// AddFavorite adds a port to favorites
func (c *Config) AddFavorite(port int) {
	if !c.IsFavorite(port) {
		c.Favorites = append(c.Favorites, port)
	}
}

// RemoveFavorite removes a port from favorites
func (c *Config) RemoveFavorite(port int) {
	c.Favorites = slices.DeleteFunc(c.Favorites, func(p int) bool { return p == port })
}

// ToggleFavorite flips the favorite state of port and reports the new state.
func (c *Config) ToggleFavorite(port int) bool {
	if c.IsFavorite(port) {
		c.RemoveFavorite(port)
		return false
	}
	c.AddFavorite(port)
	return true
}
