package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/retrobench/retroviz/pkg/cache"
	"github.com/retrobench/retroviz/pkg/graph"
	"github.com/retrobench/retroviz/pkg/route"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"json", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"json", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateMode(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr bool
	}{
		{"single", false},
		{"side-by-side", false},
		{"overlay", false},
		{"invalid", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateMode(tt.mode)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateMode(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
		}
	}
}

func TestOptionsValidateForFetch(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForFetch(); err == nil {
		t.Error("Missing route_id should fail")
	}

	opts = Options{RouteID: "r1"}
	if err := opts.ValidateForFetch(); err != nil {
		t.Errorf("Valid options should pass: %v", err)
	}
	if opts.Logger == nil {
		t.Error("Logger default not set")
	}
}

func TestOptionsValidateForBuild(t *testing.T) {
	// Defaults
	opts := Options{RouteID: "r1"}
	if err := opts.ValidateForBuild(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}
	if opts.Mode != ModeSingle {
		t.Errorf("Mode should default to %s, got %s", ModeSingle, opts.Mode)
	}
	if opts.Prefix != DefaultPrefix {
		t.Errorf("Prefix should default to %s, got %s", DefaultPrefix, opts.Prefix)
	}

	// Diff mode without second route
	opts = Options{RouteID: "r1", Mode: ModeOverlay}
	if err := opts.ValidateForBuild(); err == nil {
		t.Error("Diff mode without other_route_id should fail")
	}

	opts = Options{RouteID: "r1", Mode: ModeSideBySide, OtherRouteID: "r2"}
	if err := opts.ValidateForBuild(); err != nil {
		t.Errorf("Valid diff options should pass: %v", err)
	}
}

func TestOptionsIsDiff(t *testing.T) {
	for mode, want := range map[string]bool{
		ModeSingle:     false,
		ModeSideBySide: true,
		ModeOverlay:    true,
	} {
		opts := Options{Mode: mode}
		if opts.IsDiff() != want {
			t.Errorf("IsDiff(%s) = %v, want %v", mode, opts.IsDiff(), want)
		}
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{RouteID: "r1"}

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalMode := opts.Mode
	originalPrefix := opts.Prefix
	originalFormats := len(opts.Formats)

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.Mode != originalMode {
		t.Error("Mode changed on second call")
	}
	if opts.Prefix != originalPrefix {
		t.Error("Prefix changed on second call")
	}
	if len(opts.Formats) != originalFormats {
		t.Error("Formats changed on second call")
	}
}

func TestSetRenderDefaults(t *testing.T) {
	opts := Options{}
	opts.SetRenderDefaults()

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats should be [json], got %v", opts.Formats)
	}
}

// =============================================================================
// Runner Tests
// =============================================================================

// fakeSource serves trees and stocks from memory and counts fetches.
type fakeSource struct {
	trees   map[string]*route.Node
	stocks  map[string]route.IdentitySet
	fetches int
}

func (s *fakeSource) RouteTree(ctx context.Context, routeID string) (*route.Node, error) {
	s.fetches++
	tree, ok := s.trees[routeID]
	if !ok {
		return nil, fmt.Errorf("route %s not found", routeID)
	}
	return tree, nil
}

func (s *fakeSource) StockSet(ctx context.Context, stockID string) (route.IdentitySet, error) {
	set, ok := s.stocks[stockID]
	if !ok {
		return nil, fmt.Errorf("stock %s not found", stockID)
	}
	return set, nil
}

func testSource() *fakeSource {
	return &fakeSource{
		trees: map[string]*route.Node{
			"r1": {
				Identity: "CCO", Smiles: "CCO",
				Children: []*route.Node{
					{Identity: "CC", Smiles: "CC"},
					{Identity: "O", Smiles: "O"},
				},
			},
			"r2": {
				Identity: "CCO", Smiles: "CCO",
				Children: []*route.Node{
					{Identity: "CC", Smiles: "CC"},
				},
			},
		},
		stocks: map[string]route.IdentitySet{
			"s1": route.NewIdentitySet("CC"),
		},
	}
}

func TestRunnerExecuteSingle(t *testing.T) {
	src := testSource()
	runner := NewRunner(src, cache.NewNullCache(), nil, nil)

	result, err := runner.Execute(context.Background(), Options{
		RouteID: "r1",
		StockID: "s1",
		Formats: []string{FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("stats = %d nodes / %d edges, want 3/2", result.Stats.NodeCount, result.Stats.EdgeCount)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash not set")
	}
	if len(result.Artifacts[FormatJSON]) == 0 || len(result.Artifacts[FormatDOT]) == 0 {
		t.Error("artifacts missing")
	}

	// Stock annotation flows through the single-mode build.
	var found bool
	for _, n := range result.Graph.Nodes {
		if n.Identity == "CC" && n.Status == graph.StatusInStock {
			found = true
		}
	}
	if !found {
		t.Error("in-stock node not annotated")
	}
}

func TestRunnerExecuteDiffModes(t *testing.T) {
	src := testSource()
	runner := NewRunner(src, cache.NewNullCache(), nil, nil)

	for _, mode := range []string{ModeSideBySide, ModeOverlay} {
		t.Run(mode, func(t *testing.T) {
			result, err := runner.Execute(context.Background(), Options{
				RouteID:      "r2",
				OtherRouteID: "r1",
				Mode:         mode,
			})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if result.OtherTree == nil {
				t.Error("OtherTree not set")
			}
			if result.Stats.NodeCount == 0 {
				t.Error("empty graph")
			}
		})
	}
}

func TestRunnerExecuteMissingRoute(t *testing.T) {
	runner := NewRunner(testSource(), cache.NewNullCache(), nil, nil)

	if _, err := runner.Execute(context.Background(), Options{RouteID: "nope"}); err == nil {
		t.Error("Execute with unknown route should fail")
	}
}

func TestRunnerFetchCaching(t *testing.T) {
	src := testSource()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(src, fc, nil, nil)
	ctx := context.Background()

	// First fetch misses, second hits.
	if _, hit, err := runner.FetchWithCacheInfo(ctx, "r1", false); err != nil || hit {
		t.Fatalf("first fetch: hit=%v err=%v", hit, err)
	}
	if _, hit, err := runner.FetchWithCacheInfo(ctx, "r1", false); err != nil || !hit {
		t.Fatalf("second fetch: hit=%v err=%v", hit, err)
	}
	if src.fetches != 1 {
		t.Errorf("source fetched %d times, want 1", src.fetches)
	}

	// Refresh bypasses the cache read.
	if _, hit, err := runner.FetchWithCacheInfo(ctx, "r1", true); err != nil || hit {
		t.Fatalf("refresh fetch: hit=%v err=%v", hit, err)
	}
	if src.fetches != 2 {
		t.Errorf("source fetched %d times after refresh, want 2", src.fetches)
	}
}

func TestRunnerBuildCaching(t *testing.T) {
	src := testSource()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(src, fc, nil, nil)
	ctx := context.Background()

	tree := src.trees["r1"]
	opts := Options{RouteID: "r1"}

	first, hit, err := runner.BuildWithCacheInfo(ctx, tree, nil, opts)
	if err != nil || hit {
		t.Fatalf("first build: hit=%v err=%v", hit, err)
	}

	second, hit, err := runner.BuildWithCacheInfo(ctx, tree, nil, opts)
	if err != nil || !hit {
		t.Fatalf("second build: hit=%v err=%v", hit, err)
	}
	if first.NodeCount() != second.NodeCount() {
		t.Error("cached graph differs from computed graph")
	}
}

func TestRunnerNilDependencies(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil)

	if runner.Cache == nil || runner.Keyer == nil || runner.Logger == nil {
		t.Error("NewRunner should fill nil dependencies")
	}
	if _, _, err := runner.FetchWithCacheInfo(context.Background(), "r1", false); err == nil {
		t.Error("fetch without source should fail")
	}
}
