package cli

import (
	"github.com/spf13/cobra"
)

// buildCommand creates the build command, which chains extract and resolve.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		eopts extractOpts
		ropts resolveOpts
	)

	cmd := &cobra.Command{
		Use:   "build [description...]",
		Short: "Extract a scene from a description and resolve it",
		Long: `Extract a scene from a description and resolve it.

Equivalent to 'extract' followed by 'resolve': the sanitized document is
written to <base>.json and the artifacts next to it. The base path is
"scene" unless --output is given.`,
		Example: `  blockout build "a living room with a sofa and a lamp" -o living -f json,svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := eopts.prompt(args)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if _, err := ropts.pipelineOptions(cfg); err != nil {
				return err
			}

			eopts.noCache, eopts.refresh = ropts.noCache, ropts.refresh
			doc, err := c.runExtract(cmd.Context(), cfg, prompt, &eopts)
			if err != nil {
				return err
			}

			base := basePath(ropts.output, "")
			if base == "" {
				base = "scene"
			}
			docPath := base + ".json"
			if err := writeDocument(docPath, doc); err != nil {
				return err
			}
			printSuccess("Extracted %d rooms, %d objects", len(doc.Rooms), len(doc.Objects))
			printFile(docPath)

			ropts.output = ""
			return c.runResolve(cmd.Context(), doc, docPath, &ropts)
		},
	}

	eopts.registerPrompt(cmd)
	ropts.register(cmd)
	return cmd
}
