package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atthetable/curiosity/pkg/curiosity/alias"
)

// Loader reads a YAML settings file and constructs the components a
// curiosity process needs, mirroring the teacher's config.Loader: a
// struct holding file paths, with a Load method that does the actual
// reading and construction.
type Loader struct {
	// ConfigPath is the YAML settings file. Empty means "use defaults".
	ConfigPath string
}

// Components holds everything a cmd/* entry point needs once config has
// been loaded: the resolved settings plus the two alias tables built in
// code (season slugs, speaker names).
type Components struct {
	Settings Settings
	Seasons  *alias.Table
	Speakers *alias.Table
}

// Load reads l.ConfigPath (if set) over DefaultSettings and returns the
// fully constructed Components. A missing ConfigPath is not an error;
// an unreadable or malformed one is.
func (l *Loader) Load() (*Components, error) {
	settings := DefaultSettings()

	if l.ConfigPath != "" {
		data, err := os.ReadFile(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("config: load settings: %w", err)
		}

		var raw rawSettings
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("config: parse settings: %w", err)
		}

		loaded := Settings{
			DataDir:         raw.DataDir,
			ListenAddr:      raw.ListenAddr,
			SourceURL:       raw.SourceURL,
			DefaultPageSize: raw.DefaultPageSize,
			MaxPageSize:     raw.MaxPageSize,
		}
		if raw.RefreshInterval != "" {
			d, err := time.ParseDuration(raw.RefreshInterval)
			if err != nil {
				return nil, fmt.Errorf("config: parse refresh_interval: %w", err)
			}
			loaded.RefreshInterval = d
		}

		settings = fillDefaults(loaded)
	}

	return &Components{
		Settings: settings,
		Seasons:  alias.Seasons(),
		Speakers: alias.Speakers(),
	}, nil
}

// fillDefaults replaces any zero-valued field left unset by the YAML
// file with DefaultSettings' value, so a settings file only needs to
// mention the fields it wants to override.
func fillDefaults(s Settings) Settings {
	d := DefaultSettings()
	if s.DataDir == "" {
		s.DataDir = d.DataDir
	}
	if s.ListenAddr == "" {
		s.ListenAddr = d.ListenAddr
	}
	if s.RefreshInterval == 0 {
		s.RefreshInterval = d.RefreshInterval
	}
	if s.DefaultPageSize == 0 {
		s.DefaultPageSize = d.DefaultPageSize
	}
	if s.MaxPageSize == 0 {
		s.MaxPageSize = d.MaxPageSize
	}
	return s
}
