package cli

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockout/pkg/config"
	"github.com/matzehuels/blockout/pkg/errors"
	pkgio "github.com/matzehuels/blockout/pkg/io"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	return cmd
}

// configShowCommand prints the effective configuration as TOML.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}
}

// configInitCommand writes the reference configuration to a file.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := appName + ".toml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
			}

			var buf bytes.Buffer
			if err := config.Default().Encode(&buf); err != nil {
				return err
			}
			if err := pkgio.WriteFile(path, buf.Bytes()); err != nil {
				return err
			}

			printSuccess("Wrote default configuration")
			printFile(path)
			printNewline()
			printNextStep("Use it", appName+" --config "+path+" resolve scene.json")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
