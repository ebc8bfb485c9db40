package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/listview/internal/listview/layout"
	"github.com/charmbracelet/listview/internal/listview/selection"
	"github.com/tidwall/sjson"
)

const (
	appName              = "listview"
	defaultDataDirectory = ".listview"
	defaultOverscan      = 2
	defaultFPS           = 60
	defaultFrequency     = 7.0
	defaultDamping       = 0.9
)

type Selection struct {
	Mode        string `json:"mode,omitempty" toml:"mode"`
	TapBehavior string `json:"tap_behavior,omitempty" toml:"tap_behavior"`
}

type Layout struct {
	Kind     string `json:"kind,omitempty" toml:"kind"`
	Columns  int    `json:"columns,omitempty" toml:"columns"`
	Overscan int    `json:"overscan,omitempty" toml:"overscan"`
	// HeaderHeight of zero hides group headers, so unset is told apart.
	HeaderHeight *int `json:"header_height,omitempty" toml:"header_height"`
	ItemHeight   int  `json:"item_height,omitempty" toml:"item_height"`
}

type Animations struct {
	Enabled   *bool   `json:"enabled,omitempty" toml:"enabled"`
	Entrance  *bool   `json:"entrance,omitempty" toml:"entrance"`
	FPS       int     `json:"fps,omitempty" toml:"fps"`
	Frequency float64 `json:"frequency,omitempty" toml:"frequency"`
	Damping   float64 `json:"damping,omitempty" toml:"damping"`
}

type Options struct {
	Debug         bool   `json:"debug,omitempty" toml:"debug"`
	DataDirectory string `json:"data_directory,omitempty" toml:"data_directory"` // Relative to the cwd
}

// Config holds the configuration for listview.
type Config struct {
	Selection  *Selection  `json:"selection,omitempty" toml:"selection"`
	Layout     *Layout     `json:"layout,omitempty" toml:"layout"`
	Animations *Animations `json:"animations,omitempty" toml:"animations"`
	Options    *Options    `json:"options,omitempty" toml:"options"`

	// Internal
	path string `json:"-" toml:"-"`
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// SelectionConfig returns the parsed selection settings.
func (c *Config) SelectionConfig() (selection.Config, error) {
	mode, err := selection.ParseMode(c.Selection.Mode)
	if err != nil {
		return selection.Config{}, err
	}
	tap, err := selection.ParseTapBehavior(c.Selection.TapBehavior)
	if err != nil {
		return selection.Config{}, err
	}
	return selection.Config{Mode: mode, Tap: tap}, nil
}

// NewLayout builds the configured layout.
func (c *Config) NewLayout() (*layout.Grid, error) {
	kind, err := layout.ParseKind(c.Layout.Kind)
	if err != nil {
		return nil, err
	}
	var opts []layout.Option
	if c.Layout.Columns > 0 {
		opts = append(opts, layout.WithColumns(c.Layout.Columns))
	}
	if c.Layout.ItemHeight > 0 {
		opts = append(opts, layout.WithItemHeight(c.Layout.ItemHeight))
	}
	if c.Layout.HeaderHeight != nil {
		opts = append(opts, layout.WithHeaderHeight(*c.Layout.HeaderHeight))
	}
	return layout.New(kind, opts...), nil
}

// AnimationsEnabled reports whether transitions are animated.
func (c *Config) AnimationsEnabled() bool {
	return c.Animations.Enabled == nil || *c.Animations.Enabled
}

// EntranceEnabled reports whether the first paint plays an entrance.
func (c *Config) EntranceEnabled() bool {
	return c.Animations.Entrance == nil || *c.Animations.Entrance
}

func (c *Config) setDefaults() {
	if c.Selection == nil {
		c.Selection = &Selection{}
	}
	if c.Selection.Mode == "" {
		c.Selection.Mode = selection.ModeMulti.String()
	}
	if c.Selection.TapBehavior == "" {
		c.Selection.TapBehavior = selection.TapInvokeOnly.String()
	}
	if c.Layout == nil {
		c.Layout = &Layout{}
	}
	if c.Layout.Kind == "" {
		c.Layout.Kind = layout.KindList.String()
	}
	if c.Layout.Overscan <= 0 {
		c.Layout.Overscan = defaultOverscan
	}
	if c.Animations == nil {
		c.Animations = &Animations{}
	}
	if c.Animations.FPS <= 0 {
		c.Animations.FPS = defaultFPS
	}
	if c.Animations.Frequency <= 0 {
		c.Animations.Frequency = defaultFrequency
	}
	if c.Animations.Damping <= 0 {
		c.Animations.Damping = defaultDamping
	}
	if c.Options == nil {
		c.Options = &Options{}
	}
	if c.Options.DataDirectory == "" {
		c.Options.DataDirectory = defaultDataDirectory
	}
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if _, err := c.SelectionConfig(); err != nil {
		return fmt.Errorf("invalid selection: %w", err)
	}
	if _, err := layout.ParseKind(c.Layout.Kind); err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	if c.Layout.HeaderHeight != nil && *c.Layout.HeaderHeight < 0 {
		return fmt.Errorf("invalid layout: negative header height %d", *c.Layout.HeaderHeight)
	}
	return nil
}

// SetField writes key into the JSON configuration file at path, creating the
// file if needed. Keys use dot notation, such as "selection.mode".
func SetField(path, key string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			data = []byte("{}")
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	newValue, err := sjson.Set(string(data), key, value)
	if err != nil {
		return fmt.Errorf("failed to set config field %s: %w", key, err)
	}
	if err := os.WriteFile(path, []byte(newValue), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
