// Package config holds the iconkit settings shared by the CLI and the GUI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"

	"github.com/kacebover/iconkit/archive"
	"github.com/kacebover/iconkit/raster"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

const maxRecentDirs = 10

// Config holds all application configuration
type Config struct {
	// Paths
	IconDir     string `json:"icon_dir"`
	SourceImage string `json:"source_image"`

	Sizes    []int `json:"sizes"`
	WriteICO bool  `json:"write_ico"`

	Style   StyleConfig          `json:"style"`
	Resize  raster.ResizeOptions `json:"resize"`
	Enhance string               `json:"enhance_profile"` // "basic" or "super"
	Thicken ThickenConfig        `json:"thicken"`

	Verify      archive.VerifyOptions `json:"verify"`
	PackExclude []string              `json:"pack_exclude"`

	// Window settings
	WindowWidth  int `json:"window_width"`
	WindowHeight int `json:"window_height"`

	RecentDirs []string `json:"recent_dirs"`
}

// StyleConfig is the serialisable form of raster.IconStyle. Colours are hex
// strings ("#000", "#1a1a1a").
type StyleConfig struct {
	Scale            int            `json:"scale"`
	GridCount        int            `json:"grid_count"`
	LineWidthRatio   float64        `json:"line_width_ratio"`
	OutlineRatio     float64        `json:"outline_ratio"`
	StoneRadiusRatio float64        `json:"stone_radius_ratio"`
	Background       string         `json:"background"`
	Grid             string         `json:"grid"`
	DarkStone        string         `json:"dark_stone"`
	LightStone       string         `json:"light_stone"`
	Outline          string         `json:"outline"`
	Stones           []raster.Stone `json:"stones"`
}

// ThickenConfig chooses how many passes each icon size gets.
type ThickenConfig struct {
	DefaultPasses int         `json:"default_passes"`
	Passes        map[int]int `json:"passes"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		IconDir:      "icons",
		SourceImage:  "icon_source.png",
		Sizes:        []int{16, 48, 128},
		Style:        styleToConfig(raster.DefaultIconStyle()),
		Resize:       raster.DefaultResizeOptions(),
		Enhance:      "basic",
		Thicken:      ThickenConfig{DefaultPasses: 1, Passes: map[int]int{128: 2}},
		Verify:       archive.DefaultVerifyOptions(),
		PackExclude:  []string{".DS_Store", ".git", "Thumbs.db"},
		WindowWidth:  900,
		WindowHeight: 600,
		RecentDirs:   []string{},
	}
}

func styleToConfig(s raster.IconStyle) StyleConfig {
	return StyleConfig{
		Scale:            s.Scale,
		GridCount:        s.GridCount,
		LineWidthRatio:   s.LineWidthRatio,
		OutlineRatio:     s.OutlineRatio,
		StoneRadiusRatio: s.StoneRadiusRatio,
		Background:       hexOf(s.Background),
		Grid:             hexOf(s.Grid),
		DarkStone:        hexOf(s.DarkStone),
		LightStone:       hexOf(s.LightStone),
		Outline:          hexOf(s.Outline),
		Stones:           s.Stones,
	}
}

func hexOf(c color.Color) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}

// IconStyle converts the style section into a renderable raster.IconStyle.
func (c *Config) IconStyle() (raster.IconStyle, error) {
	s := c.Style
	style := raster.IconStyle{
		Scale:            s.Scale,
		GridCount:        s.GridCount,
		LineWidthRatio:   s.LineWidthRatio,
		OutlineRatio:     s.OutlineRatio,
		StoneRadiusRatio: s.StoneRadiusRatio,
		Stones:           s.Stones,
	}
	if len(style.Stones) == 0 {
		style.Stones = raster.DefaultStones()
	}

	colours := []struct {
		name string
		hex  string
		dst  *color.Color
	}{
		{"background", s.Background, &style.Background},
		{"grid", s.Grid, &style.Grid},
		{"dark_stone", s.DarkStone, &style.DarkStone},
		{"light_stone", s.LightStone, &style.LightStone},
		{"outline", s.Outline, &style.Outline},
	}
	for _, col := range colours {
		parsed, err := colorful.Hex(col.hex)
		if err != nil {
			return raster.IconStyle{}, fmt.Errorf("%w: style.%s %q: %v", ErrInvalidConfig, col.name, col.hex, err)
		}
		r, g, b := parsed.RGB255()
		*col.dst = color.NRGBA{R: r, G: g, B: b, A: 255}
	}

	if err := style.Validate(); err != nil {
		return raster.IconStyle{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return style, nil
}

// PassesFor returns the thicken pass count for an icon size.
func (c *Config) PassesFor(size int) int {
	if n, ok := c.Thicken.Passes[size]; ok {
		return n
	}
	return c.Thicken.DefaultPasses
}

// EnhanceProfile resolves the configured profile name.
func (c *Config) EnhanceProfile() (raster.EnhanceProfile, error) {
	return raster.ProfileByName(c.Enhance)
}

// Validate checks the values that cannot be repaired silently and clamps
// the window size like the GUI expects.
func (c *Config) Validate() error {
	if len(c.Sizes) == 0 {
		return fmt.Errorf("%w: no icon sizes", ErrInvalidConfig)
	}
	for _, size := range c.Sizes {
		if size <= 0 {
			return fmt.Errorf("%w: icon size %d", ErrInvalidConfig, size)
		}
	}
	if _, err := c.IconStyle(); err != nil {
		return err
	}
	if _, err := c.EnhanceProfile(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Thicken.DefaultPasses < 0 {
		return fmt.Errorf("%w: negative thicken passes", ErrInvalidConfig)
	}
	for size, n := range c.Thicken.Passes {
		if n < 0 {
			return fmt.Errorf("%w: negative thicken passes for size %d", ErrInvalidConfig, size)
		}
	}

	if c.WindowWidth < 400 {
		c.WindowWidth = 400
	}
	if c.WindowHeight < 300 {
		c.WindowHeight = 300
	}
	return nil
}

// AddRecentDir moves dir to the front of the recent list
func (c *Config) AddRecentDir(dir string) {
	dirs := make([]string, 0, len(c.RecentDirs)+1)
	dirs = append(dirs, dir)
	for _, d := range c.RecentDirs {
		if d != dir {
			dirs = append(dirs, d)
		}
	}
	if len(dirs) > maxRecentDirs {
		dirs = dirs[:maxRecentDirs]
	}
	c.RecentDirs = dirs
}

// Dir returns the per-user configuration directory.
func Dir() string {
	var base string

	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, "Library", "Application Support")
	default: // linux and others
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "iconkit")
}

// DefaultPath returns the full path to the config file
func DefaultPath() string {
	return filepath.Join(Dir(), "config.json")
}

// Load reads the config at path over the defaults. A missing file yields
// the defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if cfg.Verify.VersionPattern == "" {
		cfg.Verify = archive.DefaultVerifyOptions()
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Clone creates a deep copy of the config
func (c *Config) Clone() *Config {
	clone := *c
	clone.Sizes = append([]int(nil), c.Sizes...)
	clone.Style.Stones = append([]raster.Stone(nil), c.Style.Stones...)
	clone.PackExclude = append([]string(nil), c.PackExclude...)
	clone.RecentDirs = append([]string(nil), c.RecentDirs...)
	if c.Thicken.Passes != nil {
		clone.Thicken.Passes = make(map[int]int, len(c.Thicken.Passes))
		for k, v := range c.Thicken.Passes {
			clone.Thicken.Passes[k] = v
		}
	}
	return &clone
}
