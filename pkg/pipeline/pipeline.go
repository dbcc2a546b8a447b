// Package pipeline runs the resolution pipeline for blockout.
//
// The CLI and the HTTP service both go through a [Runner], so a document
// resolves to the same plan bytes no matter where it came from.
//
// # Stages
//
//  1. Decode: parse the document JSON ([scene.Decode])
//  2. Defaults: fill absent fields from the configuration
//  3. Validate: reject non-positive room dimensions and non-finite numbers
//  4. Hierarchy: reject duplicates, dangling parents and cycles; order objects
//  5. Shells and placements: synthesized concurrently, they only read the
//     validated document
//  6. Plan: assemble the canonical plan
//  7. Render: produce the requested artifacts from the plan
//
// Any error aborts the document; no partial plan is returned.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, raw, pipeline.Options{
//	    Config:  cfg,
//	    Formats: []string{pipeline.FormatJSON, pipeline.FormatSVG},
//	})
//	planJSON := res.Artifacts[pipeline.FormatJSON]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blockout/pkg/cache"
	"github.com/matzehuels/blockout/pkg/config"
	"github.com/matzehuels/blockout/pkg/plan"
)

// Format constants for output artifacts.
const (
	// FormatJSON is the canonical plan JSON.
	FormatJSON = "json"
	// FormatDOT is the attachment diagram in Graphviz DOT.
	FormatDOT = "dot"
	// FormatSVG is the attachment diagram laid out by Graphviz.
	FormatSVG = "svg"
	// FormatGraph is the attachment graph in node/edge JSON.
	FormatGraph = "graph"
	// FormatTranscript is the sink call transcript with sequential handles.
	FormatTranscript = "transcript"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:       true,
	FormatDOT:        true,
	FormatSVG:        true,
	FormatGraph:      true,
	FormatTranscript: true,
}

// Options configures one pipeline run.
type Options struct {
	// Config supplies defaults and shell settings. The zero value is
	// replaced by config.Default().
	Config config.Config `json:"-"`
	// Formats lists the artifacts to render. Defaults to FormatJSON.
	Formats []string `json:"formats,omitempty"`
	// Detailed adds positions to diagram labels.
	Detailed bool `json:"detailed,omitempty"`
	// Refresh bypasses cached plans and artifacts. Fresh results are
	// still stored.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Plan is the resolved plan.
	Plan *plan.Plan
	// DocHash is the content hash of the input document.
	DocHash string
	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte
	// Stats contains counts and timings.
	Stats Stats
	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	plan.Stats
	ResolveTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	PlanHit   bool
	RenderHit bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg, graph, transcript)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults fills defaults and checks the options. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Config.Shell.PanelSize == 0 && o.Config.Room == (config.Room{}) {
		o.Config = config.Default()
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// PlanKeyOpts returns cache key options for plan resolution.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	return cache.PlanKeyOpts{ConfigKey: o.Config.Key()}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	f := format
	if o.Detailed && (format == FormatDOT || format == FormatSVG) {
		f += "+detailed"
	}
	return cache.ArtifactKeyOpts{Format: f}
}
