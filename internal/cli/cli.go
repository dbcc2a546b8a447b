package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockout/pkg/cache"
	"github.com/matzehuels/blockout/pkg/config"
	"github.com/matzehuels/blockout/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "blockout"

	// Environment variables read by the CLI.
	envOpenAIKey = "OPENAI_API_KEY"
	envRedisAddr = "BLOCKOUT_REDIS_ADDR"
	envMongoURI  = "BLOCKOUT_MONGO_URI"
	envConfig    = "BLOCKOUT_CONFIG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty means BLOCKOUT_CONFIG or defaults.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the configuration named by --config or BLOCKOUT_CONFIG,
// falling back to the reference defaults.
func (c *CLI) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path == "" {
		return config.Default(), nil
	}
	c.Logger.Debug("loading config", "path", path)
	return config.Load(path)
}

// shellFlags are the shell overrides shared by resolve, build and inspect.
type shellFlags struct {
	noCeiling bool
	panelSize float64
}

func (f *shellFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCeiling, "no-ceiling", false, "omit ceiling panels")
	cmd.Flags().Float64Var(&f.panelSize, "panel-size", 0, "reference size of the panel primitive (default from config)")
}

// apply overrides cfg with the flags that were set and revalidates it.
func (f *shellFlags) apply(cfg config.Config) (config.Config, error) {
	if f.noCeiling {
		cfg.Shell.Ceiling = false
	}
	if f.panelSize != 0 {
		cfg.Shell.PanelSize = f.panelSize
	}
	return cfg, cfg.Validate()
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, newKeyer(cfg), c.Logger), nil
}

// newCache picks the cache backend: none, Redis when an address is
// configured, otherwise the local file cache.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}

	addr := os.Getenv(envRedisAddr)
	if addr == "" {
		addr = cfg.Cache.RedisAddr
	}
	if addr != "" {
		rc, err := cache.NewRedisCache(ctx, addr, "", 0)
		if err != nil {
			return nil, fmt.Errorf("redis cache %s: %w", addr, err)
		}
		c.Logger.Debug("using redis cache", "addr", addr)
		return rc, nil
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			c.Logger.Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	c.Logger.Debug("using file cache", "dir", dir)
	return cache.NewFileCache(dir)
}

func newKeyer(cfg config.Config) cache.Keyer {
	if cfg.Cache.Prefix != "" {
		return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	}
	return cache.NewDefaultKeyer()
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/blockout/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// formatExt maps an artifact format to its file suffix.
var formatExt = map[string]string{
	pipeline.FormatJSON:       ".plan.json",
	pipeline.FormatDOT:        ".dot",
	pipeline.FormatSVG:        ".svg",
	pipeline.FormatGraph:      ".graph.json",
	pipeline.FormatTranscript: ".transcript.json",
}

// basePath derives the base output path. With no output it strips the
// extension from input; a known artifact suffix is stripped from output.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	for _, ext := range formatExt {
		if strings.HasSuffix(output, ext) {
			return strings.TrimSuffix(output, ext)
		}
	}
	return strings.TrimSuffix(output, ".json")
}

// outputPaths maps each format to the file it is written to. A single
// format goes to output verbatim when one is given.
func outputPaths(formats []string, output, input string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + formatExt[f]
	}
	return paths
}
