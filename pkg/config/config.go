// Package config holds every tunable of the engine: the defaults the schema
// defaulter fills in, shell synthesis options, and the settings of the
// extraction client, cache and HTTP server.
//
// Configuration is read from TOML. Keys absent from the file keep their
// [Default] values, so a file only needs to mention what it changes:
//
//	[room]
//	height = 280
//
//	[shell]
//	ceiling = false
package config

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/blockout/pkg/cache"
	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/scene"
	"github.com/matzehuels/blockout/pkg/shell"
)

// Config is the complete engine configuration.
type Config struct {
	Room       Room       `toml:"room"`
	Position   Position   `toml:"position"`
	Dimensions Dimensions `toml:"dimensions"`
	Shell      Shell      `toml:"shell"`
	Extract    Extract    `toml:"extract"`
	Cache      Cache      `toml:"cache"`
	Server     Server     `toml:"server"`
}

// Room holds default room dimensions.
type Room struct {
	Width  float64 `toml:"width"`
	Length float64 `toml:"length"`
	Height float64 `toml:"height"`
}

// Position holds the default local offset of an object.
type Position struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	Z float64 `toml:"z"`
}

// Dimensions configures default dimensions for furniture-like types.
type Dimensions struct {
	Types    []string           `toml:"types"`
	Defaults map[string]float64 `toml:"defaults"`
}

// Shell configures room shell synthesis.
type Shell struct {
	PanelSize float64 `toml:"panel_size"`
	Ceiling   bool    `toml:"ceiling"`
}

// Extract configures the text-understanding client.
type Extract struct {
	Model    string   `toml:"model"`
	Endpoint string   `toml:"endpoint"`
	Timeout  Duration `toml:"timeout"`
}

// Cache selects the cache backend.
type Cache struct {
	Disabled  bool   `toml:"disabled"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	Prefix    string `toml:"prefix"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
	Workers      int    `toml:"workers"`
}

// Duration is a time.Duration that reads and writes TOML strings like "90s".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Reference values.
const (
	DefaultModel    = "gpt-4.1"
	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultAddr     = ":8080"
)

// Default returns the reference configuration: 400×500×300 rooms, objects
// at the parent origin, tables, bedside tables and desks 75 high, and a
// ceiling on every room.
func Default() Config {
	return Config{
		Room:     Room{Width: 400, Length: 500, Height: 300},
		Position: Position{},
		Dimensions: Dimensions{
			Types:    []string{"table", "bedside_table", "desk"},
			Defaults: map[string]float64{"height": 75},
		},
		Shell:   Shell{PanelSize: shell.DefaultPanelSize, Ceiling: true},
		Extract: Extract{Model: DefaultModel, Endpoint: DefaultEndpoint, Timeout: Duration{2 * time.Minute}},
		Server:  Server{Addr: DefaultAddr, MaxBodyBytes: 1 << 20, Workers: 4},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are rejected so
// that typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every default would itself pass scene validation.
func (c Config) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"room.width", c.Room.Width},
		{"room.length", c.Room.Length},
		{"room.height", c.Room.Height},
		{"shell.panel_size", c.Shell.PanelSize},
	} {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be positive, got %g", f.name, f.v)
		}
	}
	for _, v := range []float64{c.Position.X, c.Position.Y, c.Position.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "position defaults must be finite")
		}
	}
	if c.Extract.Model != "" {
		if err := errors.ValidateModelName(c.Extract.Model); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "extract.model")
		}
	}
	if c.Extract.Endpoint != "" {
		if err := errors.ValidateURL(c.Extract.Endpoint); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "extract.endpoint")
		}
	}
	if c.Cache.Dir != "" {
		if err := errors.ValidatePath(c.Cache.Dir); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "cache.dir")
		}
	}
	if c.Server.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.workers must not be negative")
	}
	return nil
}

// SceneDefaults returns the defaulter input.
func (c Config) SceneDefaults() scene.Defaults {
	dims := make(map[string]float64, len(c.Dimensions.Defaults))
	for k, v := range c.Dimensions.Defaults {
		dims[k] = v
	}
	return scene.Defaults{
		Room:             map[string]float64{"width": c.Room.Width, "length": c.Room.Length, "height": c.Room.Height},
		Position:         map[string]float64{"x": c.Position.X, "y": c.Position.Y, "z": c.Position.Z},
		DimensionedTypes: slices.Clone(c.Dimensions.Types),
		Dimensions:       dims,
	}
}

// ShellOptions returns the shell synthesis options.
func (c Config) ShellOptions() shell.Options {
	return shell.Options{PanelSize: c.Shell.PanelSize, Ceiling: c.Shell.Ceiling}
}

// Key digests every value that changes a resolved plan. Two configs with
// the same Key produce byte-identical plans for the same document.
func (c Config) Key() string {
	types := slices.Clone(c.Dimensions.Types)
	for i := range types {
		types[i] = strings.ToLower(types[i])
	}
	slices.Sort(types)
	relevant := struct {
		Room       Room
		Position   Position
		Types      []string
		Dimensions map[string]float64
		Shell      Shell
	}{c.Room, c.Position, types, c.Dimensions.Defaults, c.Shell}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%+v", relevant)
	return cache.Hash(buf.Bytes())[:16]
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
