package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockout/internal/server"
	"github.com/matzehuels/blockout/pkg/config"
	"github.com/matzehuels/blockout/pkg/observability"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		workers int
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolution pipeline over HTTP",
		Long: `Serve the resolution pipeline over HTTP.

Routes:
  GET  /healthz
  POST /v1/resolve         scene document → plan and artifacts
  POST /v1/resolve/batch   {"documents":[{"name","document"}]} → results
  POST /v1/extract         {"prompt","model"} → scene document

/v1/extract is enabled when OPENAI_API_KEY is set. Plans are cached in
Redis when BLOCKOUT_REDIS_ADDR (or cache.redis_addr) is set, otherwise in
the local cache directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if workers > 0 {
				cfg.Server.Workers = workers
			}

			observability.SetPipelineHooks(observability.LogPipelineHooks{Logger: c.Logger})
			observability.SetHTTPHooks(observability.LogHTTPHooks{Logger: c.Logger})
			defer observability.Reset()

			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts := []server.Option{server.WithLogger(c.Logger)}
			if os.Getenv(envOpenAIKey) != "" {
				ex, closeCache, err := c.newExtractor(ctx, cfg, noCache, false)
				if err != nil {
					return err
				}
				defer closeCache()
				opts = append(opts, server.WithExtractor(ex))
			} else {
				printWarning("%s not set, /v1/extract is disabled", envOpenAIKey)
			}

			printSuccess("Serving %s", appName)
			printKeyValue("address", cfg.Server.Addr)
			printKeyValue("workers", fmt.Sprint(cfg.Server.Workers))
			printKeyValue("model", cfg.Extract.Model)

			return server.New(runner, cfg, opts...).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+config.DefaultAddr+")")
	cmd.Flags().IntVar(&workers, "workers", 0, "documents resolved concurrently per batch (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
