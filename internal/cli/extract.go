package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockout/pkg/config"
	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/extract"
	"github.com/matzehuels/blockout/pkg/scene"
)

// extractOpts holds the flags shared by extract and build.
type extractOpts struct {
	model      string
	promptFile string
	noCache    bool
	refresh    bool
}

func (o *extractOpts) register(cmd *cobra.Command) {
	o.registerPrompt(cmd)
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "ignore cached extraction results")
}

func (o *extractOpts) registerPrompt(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.model, "model", "m", "", "language model (default from config, "+config.DefaultModel+")")
	cmd.Flags().StringVar(&o.promptFile, "prompt-file", "", "read the description from a file")
}

// prompt returns the description from --prompt-file or the arguments.
func (o *extractOpts) prompt(args []string) (string, error) {
	text := strings.Join(args, " ")
	if o.promptFile != "" {
		data, err := os.ReadFile(o.promptFile)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read prompt %s", o.promptFile)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "a scene description is required")
	}
	return text, nil
}

// extractCommand creates the extract command.
func (c *CLI) extractCommand() *cobra.Command {
	var (
		opts   extractOpts
		output string
	)

	cmd := &cobra.Command{
		Use:   "extract [description...]",
		Short: "Extract a scene document from a text description",
		Long: `Extract a scene document from a text description.

The description is sent to an OpenAI chat model, which answers with a call
to the parse_scene_graph function. The arguments are sanitized (missing
room sizes, positions and furniture heights are filled in) and written as
an indented scene document.

Requires OPENAI_API_KEY. Results are cached per prompt and model.`,
		Example: `  blockout extract "a bedroom with a desk and a lamp on the desk" -o bedroom.json
  blockout extract --prompt-file brief.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := opts.prompt(args)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			doc, err := c.runExtract(cmd.Context(), cfg, prompt, &opts)
			if err != nil {
				return err
			}
			if err := writeDocument(output, doc); err != nil {
				return err
			}

			printSuccess("Extracted %d rooms, %d objects", len(doc.Rooms), len(doc.Objects))
			printFile(output)
			printNewline()
			printNextStep("Resolve", appName+" resolve "+output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "scene.json", "output file")
	opts.register(cmd)
	return cmd
}

// newExtractor builds the cached OpenAI extractor from the environment and
// config.
func (c *CLI) newExtractor(ctx context.Context, cfg config.Config, noCache, refresh bool) (*extract.Cached, func() error, error) {
	key := os.Getenv(envOpenAIKey)
	if key == "" {
		return nil, nil, errors.New(errors.ErrCodeUnauthorized, "%s is not set", envOpenAIKey)
	}
	client := extract.NewOpenAI(key,
		extract.WithEndpoint(cfg.Extract.Endpoint),
		extract.WithTimeout(cfg.Extract.Timeout.Duration),
	)
	ch, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, nil, err
	}
	return extract.NewCached(client, ch, newKeyer(cfg)).Refresh(refresh), ch.Close, nil
}

// runExtract sends prompt to the model and sanitizes the answer.
func (c *CLI) runExtract(ctx context.Context, cfg config.Config, prompt string, opts *extractOpts) (scene.Document, error) {
	model := opts.model
	if model == "" {
		model = cfg.Extract.Model
	}
	if err := errors.ValidateModelName(model); err != nil {
		return scene.Document{}, err
	}

	ex, closeCache, err := c.newExtractor(ctx, cfg, opts.noCache, opts.refresh)
	if err != nil {
		return scene.Document{}, err
	}
	defer closeCache()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Asking %s...", model))
	spinner.Start()

	raw, err := ex.Extract(ctx, prompt, model)
	if err != nil {
		spinner.StopWithError("Extraction failed")
		return scene.Document{}, err
	}
	spinner.Stop()
	prog.done("Extracted scene graph", "model", model, "bytes", len(raw))

	return extract.Sanitize(raw, cfg.SceneDefaults())
}

// writeDocument writes doc as indented JSON.
func writeDocument(path string, doc scene.Document) error {
	data, err := scene.Encode(doc)
	if err != nil {
		return err
	}
	return writeArtifact(path, append(data, '\n'))
}
