package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockout/pkg/config"
	pkgio "github.com/matzehuels/blockout/pkg/io"
	"github.com/matzehuels/blockout/pkg/pipeline"
	"github.com/matzehuels/blockout/pkg/plan"
	"github.com/matzehuels/blockout/pkg/scene"
	"github.com/matzehuels/blockout/pkg/sink"
)

// resolveOpts holds the flags shared by resolve and build.
type resolveOpts struct {
	output   string // output file (single format) or base path
	formats  string // comma-separated artifact formats
	noCache  bool   // bypass every cache
	refresh  bool   // recompute but store results
	detailed bool   // positions in diagram labels
	mongoURI string // emit the plan into MongoDB
	mongoDB  string
	sceneID  string
	shell    shellFlags
}

func (o *resolveOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (single format) or base path (default: input path)")
	cmd.Flags().StringVarP(&o.formats, "format", "f", "", "artifact format(s): json (default), dot, svg, graph, transcript (comma-separated)")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&o.detailed, "detailed", false, "show positions in dot/svg labels")
	cmd.Flags().StringVar(&o.mongoURI, "mongo", "", "emit placements into MongoDB at this URI (default $"+envMongoURI+" when --scene-id is set)")
	cmd.Flags().StringVar(&o.mongoDB, "mongo-db", appName, "MongoDB database")
	cmd.Flags().StringVar(&o.sceneID, "scene-id", "", "scene id for MongoDB records (default: random)")
	o.shell.register(cmd)
}

// pipelineOptions validates the flags and builds pipeline options.
func (o *resolveOpts) pipelineOptions(cfg config.Config) (pipeline.Options, error) {
	cfg, err := o.shell.apply(cfg)
	if err != nil {
		return pipeline.Options{}, err
	}
	formats := parseFormats(o.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Config:   cfg,
		Formats:  formats,
		Detailed: o.detailed,
		Refresh:  o.refresh,
	}, nil
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var opts resolveOpts

	cmd := &cobra.Command{
		Use:   "resolve [scene.json]",
		Short: "Resolve a scene document into room shells and placements",
		Long: `Resolve a scene document into room shells and placements.

The document is defaulted, validated and resolved into a plan: one shell
of inward-facing panels per room and a world position for every object,
ordered so that parents come before children.

Artifacts are written next to the input unless --output is given:

  json        canonical plan (<base>.plan.json)
  dot, svg    attachment diagram (<base>.dot, <base>.svg)
  graph       attachment graph as nodes and edges (<base>.graph.json)
  transcript  sink call transcript (<base>.transcript.json)

With --mongo, the placements are also emitted into a MongoDB database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := pkgio.ImportDocument(args[0])
			if err != nil {
				return err
			}
			return c.runResolve(cmd.Context(), doc, args[0], &opts)
		},
	}
	opts.register(cmd)
	return cmd
}

// runResolve resolves doc and writes the requested artifacts. input names
// the document for default output paths.
func (c *CLI) runResolve(ctx context.Context, doc scene.Document, input string, opts *resolveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	popts, err := opts.pipelineOptions(cfg)
	if err != nil {
		return err
	}
	popts.Logger = c.Logger

	runner, err := c.newRunner(ctx, popts.Config, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %d rooms, %d objects...", len(doc.Rooms), len(doc.Objects)))
	spinner.Start()

	res, err := runner.ExecuteDocument(ctx, doc, popts)
	if err != nil {
		spinner.StopWithError("Resolve failed")
		return err
	}
	spinner.Stop()

	paths := outputPaths(popts.Formats, opts.output, input)
	written := make([]string, 0, len(paths))
	for _, format := range popts.Formats {
		path := paths[format]
		if err := writeArtifact(path, res.Artifacts[format]); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	uri := opts.mongoURI
	if uri == "" && opts.sceneID != "" {
		uri = os.Getenv(envMongoURI)
	}
	if uri != "" {
		id, err := c.emitMongo(ctx, res.Plan, uri, opts.mongoDB, opts.sceneID)
		if err != nil {
			return err
		}
		written = append(written, "mongodb scene "+id)
	}

	printSuccess("Resolved %s", input)
	for _, w := range written {
		printFile(w)
	}
	printStats(res.Stats.Stats, res.CacheInfo.PlanHit)
	printPlanTable(res.Plan)
	if !slices.Contains(popts.Formats, pipeline.FormatSVG) {
		printNewline()
		printNextStep("Diagram", appName+" resolve -f svg "+input)
	}
	return nil
}

// writeArtifact writes data to path, or to stdout for "-".
func writeArtifact(path string, data []byte) error {
	if path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return pkgio.WriteFile(path, data)
	}
	_, err := os.Stdout.Write(data)
	return err
}

// emitMongo replaces the scene sceneID in MongoDB with the plan's actors
// and attachments and returns the scene id used.
func (c *CLI) emitMongo(ctx context.Context, p *plan.Plan, uri, db, sceneID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	store, err := sink.ConnectMongo(ctx, uri, db)
	if err != nil {
		return "", err
	}
	defer store.Close(context.WithoutCancel(ctx))

	ms := store.NewSink(sceneID)
	if err := store.DeleteScene(ctx, ms.SceneID); err != nil {
		return "", fmt.Errorf("clear scene %s: %w", ms.SceneID, err)
	}
	if err := sink.Emit(ctx, p, ms); err != nil {
		return "", fmt.Errorf("emit to mongo: %w", err)
	}
	actors, attachments := ms.Records()
	c.Logger.Info("emitted scene", "scene", ms.SceneID, "actors", len(actors), "attachments", len(attachments))
	return ms.SceneID, nil
}
