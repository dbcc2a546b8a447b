package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/blockout/pkg/config"
	"github.com/matzehuels/blockout/pkg/hierarchy"
	"github.com/matzehuels/blockout/pkg/observability"
	"github.com/matzehuels/blockout/pkg/placement"
	"github.com/matzehuels/blockout/pkg/plan"
	"github.com/matzehuels/blockout/pkg/scene"
	"github.com/matzehuels/blockout/pkg/shell"
)

// Resolve turns a decoded document into a plan. It is a pure function of
// doc and cfg: no caching, no I/O.
//
// Errors keep their codes from pkg/errors, wrapped with the stage name.
func Resolve(ctx context.Context, doc scene.Document, cfg config.Config) (*plan.Plan, error) {
	var defaulted scene.Document
	err := stage(ctx, "defaults", func() error {
		defaulted = scene.ApplyDefaults(doc, cfg.SceneDefaults())
		return scene.Validate(defaulted)
	})
	if err != nil {
		return nil, err
	}

	var h hierarchy.Result
	err = stage(ctx, "hierarchy", func() error {
		var err error
		h, err = hierarchy.Resolve(defaulted)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Shells and placements read the validated document only.
	var (
		shells []plan.RoomShell
		instrs []placement.Instruction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return stage(gctx, "shells", func() error {
			shells = synthesizeShells(defaulted, cfg.ShellOptions())
			return nil
		})
	})
	g.Go(func() error {
		return stage(gctx, "placements", func() error {
			var err error
			instrs, err = placement.Resolve(defaulted, h)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return plan.New(shells, instrs, h), nil
}

func synthesizeShells(doc scene.Document, opts shell.Options) []plan.RoomShell {
	out := make([]plan.RoomShell, 0, len(doc.Rooms))
	for _, r := range doc.Rooms {
		w, l, h := r.Dims()
		out = append(out, plan.RoomShell{
			RoomID: r.Name,
			Width:  w,
			Length: l,
			Height: h,
			Panels: shell.Synthesize(r, opts),
		})
	}
	return out
}

// stage runs fn, reports it to the pipeline hooks and prefixes its error.
func stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	observability.Pipeline().OnStage(ctx, name, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
