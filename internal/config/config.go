package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"teateonair/internal/pages"
)

// AppName names the config and state directories.
const AppName = "teateonair"

// Station defaults.
const (
	DefaultStationName = "Radio Teate On Air"
	DefaultStreamURL   = "https://nr14.newradio.it:8663/radioteateonair"
	DefaultStatusURL   = "https://nr14.newradio.it:8663/status-json.xsl"
	DefaultScheduleURL = "https://radioteateonair.it/palinsesto"
	DefaultProgramsURL = "https://radioteateonair.it/programmi"
	DefaultUserAgent   = "TeateOnAir/1.0 (+https://radioteateonair.it)"
	DefaultLogLevel    = "info"
)

// Config is the merged user configuration with defaults applied.
type Config struct {
	StationName      string `koanf:"station_name"`
	StreamURL        string `koanf:"stream_url"`
	StatusURL        string `koanf:"status_url"`
	ScheduleURL      string `koanf:"schedule_url"`
	ProgramsURL      string `koanf:"programs_url"`
	ProgramsSelector string `koanf:"programs_selector"` // "#id" or [attr="value"]
	ArtworkURL       string `koanf:"artwork_url"`       // shown by desktop media widgets
	UserAgent        string `koanf:"user_agent"`

	Log   LogConfig   `koanf:"log"`
	Pages PagesConfig `koanf:"pages"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `koanf:"level"` // zerolog level name (default: info)
	File  string `koanf:"file"`  // default: $XDG_STATE_HOME/teateonair/teateonair.log
}

// PagesConfig holds page cache configuration.
type PagesConfig struct {
	Prefetch *bool `koanf:"prefetch"` // fetch schedule and programs at launch (default: true)
}

// Load reads the XDG config file and then ./config.toml; later files win.
func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom loads the given TOML files in order, skipping any that do not exist.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()

	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.StationName, DefaultStationName)
	setDefault(&c.StreamURL, DefaultStreamURL)
	setDefault(&c.StatusURL, DefaultStatusURL)
	setDefault(&c.ScheduleURL, DefaultScheduleURL)
	setDefault(&c.ProgramsURL, DefaultProgramsURL)
	setDefault(&c.ProgramsSelector, pages.DefaultProgramsSelector)
	setDefault(&c.UserAgent, DefaultUserAgent)
	setDefault(&c.Log.Level, DefaultLogLevel)
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// PrefetchPages reports whether the page cache is filled at launch.
func (c *Config) PrefetchPages() bool {
	return c.Pages.Prefetch == nil || *c.Pages.Prefetch
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/teateonair/config.toml
		filepath.Join(xdg.ConfigHome, AppName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
