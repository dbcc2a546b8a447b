package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockout/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Blockout turns scene graphs into room shells and placements",
		Long: `Blockout resolves a scene graph of rooms and objects into room shells
and world-space placements, ready to be blocked out in a 3D engine.

Scene documents can be written by hand or extracted from a text
description with a language model.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (TOML); defaults to $"+envConfig)

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.extractCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
