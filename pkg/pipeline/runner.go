package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/retrobench/retroviz/pkg/cache"
	"github.com/retrobench/retroviz/pkg/diff"
	"github.com/retrobench/retroviz/pkg/graph"
	"github.com/retrobench/retroviz/pkg/layout"
	"github.com/retrobench/retroviz/pkg/observability"
	"github.com/retrobench/retroviz/pkg/render/dot"
	"github.com/retrobench/retroviz/pkg/route"
)

// TreeSource supplies route trees and stock catalogs to the pipeline.
// The database store implements this; tests supply in-memory fakes.
type TreeSource interface {
	// RouteTree assembles the full tree for a stored route.
	RouteTree(ctx context.Context, routeID string) (*route.Node, error)

	// StockSet returns the identity set of a stock catalog.
	StockSet(ctx context.Context, stockID string) (route.IdentitySet, error)
}

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the source, cache, and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Source TreeSource
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given source, cache, and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(source TreeSource, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
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
		Source: source,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete fetch → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Fetch
	fetchStart := time.Now()
	tree, fetchHit, err := r.FetchWithCacheInfo(ctx, opts.RouteID, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("fetch route %s: %w", opts.RouteID, err)
	}
	result.Tree = tree

	if opts.IsDiff() {
		other, otherHit, err := r.FetchWithCacheInfo(ctx, opts.OtherRouteID, opts.Refresh)
		if err != nil {
			return nil, fmt.Errorf("fetch route %s: %w", opts.OtherRouteID, err)
		}
		result.OtherTree = other
		fetchHit = fetchHit && otherHit
	}
	result.Stats.FetchTime = time.Since(fetchStart)
	result.CacheInfo.FetchHit = fetchHit

	r.Logger.Info("fetched route trees",
		"route", opts.RouteID,
		"nodes", tree.Count(),
		"duration", result.Stats.FetchTime)

	// Stage 2: Build
	buildStart := time.Now()
	g, buildHit, err := r.BuildWithCacheInfo(ctx, result.Tree, result.OtherTree, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.CacheInfo.BuildHit = buildHit

	if data, err := graph.Marshal(*g); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	r.Logger.Info("built graph",
		"mode", opts.Mode,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.BuildTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, opts)
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

// FetchWithCacheInfo assembles a route tree with caching and returns cache
// hit info. Refresh bypasses the cache read but still writes the result.
func (r *Runner) FetchWithCacheInfo(ctx context.Context, routeID string, refresh bool) (*route.Node, bool, error) {
	if r.Source == nil {
		return nil, false, fmt.Errorf("no tree source configured")
	}

	start := time.Now()
	observability.Pipeline().OnFetchStart(ctx, routeID)

	cacheKey := r.Keyer.TreeKey(routeID)
	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "tree")
			tree, err := route.UnmarshalTree(data)
			if err == nil {
				observability.Pipeline().OnFetchComplete(ctx, routeID, tree.Count(), time.Since(start), nil)
				return tree, true, nil
			}
		} else {
			observability.Cache().OnCacheMiss(ctx, "tree")
		}
	}

	tree, err := r.Source.RouteTree(ctx, routeID)
	if err != nil {
		observability.Pipeline().OnFetchComplete(ctx, routeID, 0, time.Since(start), err)
		return nil, false, err
	}

	if data, err := route.MarshalTree(tree); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLTree)
		observability.Cache().OnCacheSet(ctx, "tree", len(data))
	}

	observability.Pipeline().OnFetchComplete(ctx, routeID, tree.Count(), time.Since(start), nil)
	return tree, false, nil
}

// Fetch is a convenience wrapper that discards the cache hit info.
func (r *Runner) Fetch(ctx context.Context, routeID string) (*route.Node, error) {
	tree, _, err := r.FetchWithCacheInfo(ctx, routeID, false)
	return tree, err
}

// BuildWithCacheInfo computes the positioned graph with caching and returns
// cache hit info. The other tree may be nil for single mode.
func (r *Runner) BuildWithCacheInfo(ctx context.Context, tree, other *route.Node, opts Options) (*graph.Flat, bool, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	cacheKey, err := r.buildCacheKey(tree, other, opts)
	if err != nil {
		return nil, false, err
	}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "graph")
			cached, err := graph.Unmarshal(data)
			if err == nil {
				return &cached, true, nil
			}
			// Fall through to recompute on deserialization failure.
		} else {
			observability.Cache().OnCacheMiss(ctx, "graph")
		}
	}

	g, err := r.build(ctx, tree, other, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := graph.Marshal(*g); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph)
		observability.Cache().OnCacheSet(ctx, "graph", len(data))
	}

	return g, false, nil
}

// Build is a convenience wrapper that discards the cache hit info.
func (r *Runner) Build(ctx context.Context, tree, other *route.Node, opts Options) (*graph.Flat, error) {
	g, _, err := r.BuildWithCacheInfo(ctx, tree, other, opts)
	return g, err
}

// build dispatches to the mode-specific graph construction.
func (r *Runner) build(ctx context.Context, tree, other *route.Node, opts Options) (*graph.Flat, error) {
	start := time.Now()

	switch opts.Mode {
	case ModeSingle:
		observability.Pipeline().OnLayoutStart(ctx, opts.RouteID, tree.Count())

		var inStock route.IdentitySet
		if opts.StockID != "" {
			var err error
			inStock, err = r.Source.StockSet(ctx, opts.StockID)
			if err != nil {
				observability.Pipeline().OnLayoutComplete(ctx, opts.RouteID, time.Since(start), err)
				return nil, fmt.Errorf("load stock %s: %w", opts.StockID, err)
			}
		}
		g := layout.BuildRoute(tree, inStock, opts.Prefix)
		observability.Pipeline().OnLayoutComplete(ctx, opts.RouteID, time.Since(start), nil)
		return &g, nil

	case ModeSideBySide:
		observability.Pipeline().OnDiffStart(ctx, opts.Mode, opts.RouteID, opts.OtherRouteID)
		g := diff.SideBySide(tree, other,
			route.Identities(tree), route.Identities(other),
			opts.IsPrimary, opts.Prefix)
		observability.Pipeline().OnDiffComplete(ctx, opts.Mode, opts.RouteID, opts.OtherRouteID, time.Since(start), nil)
		return &g, nil

	case ModeOverlay:
		observability.Pipeline().OnDiffStart(ctx, opts.Mode, opts.RouteID, opts.OtherRouteID)
		g := diff.Overlay(tree, other)
		observability.Pipeline().OnDiffComplete(ctx, opts.Mode, opts.RouteID, opts.OtherRouteID, time.Since(start), nil)
		return &g, nil

	default:
		return nil, fmt.Errorf("invalid mode: %q", opts.Mode)
	}
}

// buildCacheKey derives the cache key for the build stage from the content
// of the input trees and the build options.
func (r *Runner) buildCacheKey(tree, other *route.Node, opts Options) (string, error) {
	treeData, err := route.MarshalTree(tree)
	if err != nil {
		return "", fmt.Errorf("serialize tree for cache key: %w", err)
	}
	treeHash := cache.Hash(treeData)

	if !opts.IsDiff() {
		return r.Keyer.GraphKey(treeHash, opts.GraphKeyOpts()), nil
	}

	otherData, err := route.MarshalTree(other)
	if err != nil {
		return "", fmt.Errorf("serialize tree for cache key: %w", err)
	}
	return r.Keyer.DiffKey(treeHash, cache.Hash(otherData), opts.DiffKeyOpts()), nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Flat, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	graphData, err := graph.Marshal(*g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	graphHash := cache.Hash(graphData)

	// Try to get all formats from cache.
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(graphHash, format)
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)

	rendered, err := r.renderAll(ctx, g, graphData, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(graphHash, format)
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *graph.Flat, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// renderAll produces every requested format. DOT is computed at most once
// and shared between the dot and svg outputs.
func (r *Runner) renderAll(ctx context.Context, g *graph.Flat, graphData []byte, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var dotSrc string

	needDOT := func() string {
		if dotSrc == "" {
			dotSrc = dot.ToDOT(g, dot.Options{Detailed: opts.Detailed})
		}
		return dotSrc
	}

	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			artifacts[format] = bytes.Clone(graphData)
		case FormatDOT:
			artifacts[format] = []byte(needDOT())
		case FormatSVG:
			svg, err := dot.RenderSVG(ctx, needDOT())
			if err != nil {
				return nil, fmt.Errorf("render svg: %w", err)
			}
			artifacts[format] = svg
		}
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
