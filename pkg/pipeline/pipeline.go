// Package pipeline provides the core graph-building pipeline.
//
// This package implements the complete fetch → build → render pipeline that
// can be used by CLI and API components. By centralizing this logic, we
// ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fetch: Assemble route trees from a TreeSource (usually the database)
//  2. Build: Compute a positioned graph (single layout, side-by-side diff,
//     or overlay diff), optionally annotated against a stock catalog
//  3. Render: Generate output in various formats (JSON, DOT, SVG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(source, cache, nil, logger)
//	opts := pipeline.Options{
//	    RouteID: "route-1",
//	    StockID: "zinc-stock",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/retrobench/retroviz/pkg/cache"
	"github.com/retrobench/retroviz/pkg/graph"
	"github.com/retrobench/retroviz/pkg/route"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// Mode constants for graph building.
const (
	ModeSingle     = "single"
	ModeSideBySide = "side-by-side"
	ModeOverlay    = "overlay"
)

// DefaultMode is the default build mode.
const DefaultMode = ModeSingle

// DefaultPrefix is the default node id prefix for single-route layouts.
const DefaultPrefix = "g-"

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidModes is the set of supported build modes.
var ValidModes = map[string]bool{
	ModeSingle:     true,
	ModeSideBySide: true,
	ModeOverlay:    true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the graph pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Fetch options
	RouteID      string `json:"route_id"`
	OtherRouteID string `json:"other_route_id,omitempty"` // second route for diff modes
	Refresh      bool   `json:"refresh,omitempty"`

	// Build options
	Mode      string `json:"mode,omitempty"`
	IsPrimary bool   `json:"is_primary,omitempty"` // side-by-side: render the reference side
	StockID   string `json:"stock_id,omitempty"`   // stock catalog for availability annotation
	Prefix    string `json:"prefix,omitempty"`     // node id prefix

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // include status and identity in DOT labels

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the assembled route tree for RouteID.
	Tree *route.Node

	// OtherTree is the assembled route tree for OtherRouteID (diff modes only).
	OtherTree *route.Node

	// Graph is the computed, positioned graph.
	Graph *graph.Flat

	// GraphHash is the content hash of the computed graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	FetchTime  time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	FetchHit  bool // Whether all route trees came from cache
	BuildHit  bool // Whether the computed graph came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg)", format)
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

// ValidateMode checks that a build mode is valid.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return fmt.Errorf("invalid mode: %q (must be one of: single, side-by-side, overlay)", mode)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForFetch(); err != nil {
		return err
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForFetch checks required fields for tree assembly.
func (o *Options) ValidateForFetch() error {
	if o.RouteID == "" {
		return fmt.Errorf("route_id is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForBuild checks build mode requirements and applies defaults.
func (o *Options) ValidateForBuild() error {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if o.IsDiff() && o.OtherRouteID == "" {
		return fmt.Errorf("other_route_id is required for mode %q", o.Mode)
	}
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// IsDiff returns true for the two-route build modes.
func (o *Options) IsDiff() bool {
	return o.Mode == ModeSideBySide || o.Mode == ModeOverlay
}

// GraphKeyOpts returns cache key options for single-route graph building.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		StockID: o.StockID,
		Prefix:  o.Prefix,
	}
}

// DiffKeyOpts returns cache key options for diff graph building.
func (o *Options) DiffKeyOpts() cache.DiffKeyOpts {
	return cache.DiffKeyOpts{
		Mode:      o.Mode,
		IsPrimary: o.IsPrimary,
	}
}
