package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/blockout/pkg/cache"
	"github.com/matzehuels/blockout/pkg/observability"
	"github.com/matzehuels/blockout/pkg/plan"
	"github.com/matzehuels/blockout/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete decode → resolve → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, raw []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	doc, err := scene.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return r.ExecuteDocument(ctx, doc, opts)
}

// ExecuteDocument runs the pipeline on an already decoded document.
func (r *Runner) ExecuteDocument(ctx context.Context, doc scene.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}
	resolveStart := time.Now()
	hooks := observability.Pipeline()
	hooks.OnResolveStart(ctx, len(doc.Rooms), len(doc.Objects))

	p, docHash, hit, err := r.ResolveWithCacheInfo(ctx, doc, opts)
	hooks.OnResolveComplete(ctx, len(doc.Objects), time.Since(resolveStart), err)
	if err != nil {
		return nil, err
	}
	result.Plan = p
	result.DocHash = docHash
	result.Stats.Stats = p.Stats()
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.CacheInfo.PlanHit = hit

	r.Logger.Info("resolved scene",
		"rooms", result.Stats.Rooms,
		"objects", result.Stats.Objects,
		"panels", result.Stats.Panels,
		"cached", hit,
		"duration", result.Stats.ResolveTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, p, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ResolveWithCacheInfo resolves doc, consulting the plan cache first. It
// returns the plan, the document hash and whether the plan came from cache.
func (r *Runner) ResolveWithCacheInfo(ctx context.Context, doc scene.Document, opts Options) (*plan.Plan, string, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", false, err
	}

	docData, err := scene.Encode(doc)
	if err != nil {
		return nil, "", false, fmt.Errorf("encode document: %w", err)
	}
	docHash := cache.Hash(docData)
	cacheKey := r.Keyer.PlanKey(docHash, opts.PlanKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if p, err := plan.Decode(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "plan")
				return p, docHash, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "plan")
	}

	p, err := Resolve(ctx, doc, opts.Config)
	if err != nil {
		return nil, docHash, false, err
	}

	if data, err := p.Encode(); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLPlan); err == nil {
			observability.Cache().OnCacheSet(ctx, "plan", len(data))
		} else {
			opts.Logger.Debug("plan cache write failed", "err", err)
		}
	}

	return p, docHash, false, nil
}

// RenderWithCacheInfo renders the requested formats of p and reports
// whether every artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, p *plan.Plan, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	planData, err := p.Encode()
	if err != nil {
		return nil, false, fmt.Errorf("serialize plan for cache key: %w", err)
	}
	planHash := cache.Hash(planData)

	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true
	for _, format := range opts.Formats {
		if format == FormatJSON {
			artifacts[format] = planData
			continue
		}
		key := r.Keyer.ArtifactKey(planHash, opts.ArtifactKeyOpts(format))
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
				continue
			}
		}
		allCached = false

		data, err := RenderFormat(ctx, p, format, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}
	return artifacts, allCached, nil
}

// Job is one document of a batch.
type Job struct {
	Name string
	Data []byte
}

// BatchResult is the outcome of one Job.
type BatchResult struct {
	Name   string
	Result *Result
	Err    error
}

// Batch runs Execute on every job with at most workers documents in flight.
// Documents fail independently: one bad document does not stop the others.
// Results are returned in job order.
func (r *Runner) Batch(ctx context.Context, jobs []Job, workers int, opts Options) []BatchResult {
	results := make([]BatchResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, job := range jobs {
		results[i].Name = job.Name
		g.Go(func() error {
			res, err := r.Execute(gctx, job.Data, opts)
			results[i].Result = res
			results[i].Err = err
			if err != nil {
				r.Logger.Warn("document failed", "name", job.Name, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
