package store

import (
	"context"
	"strings"
	"testing"

	"github.com/retrobench/retroviz/pkg/errors"
	"github.com/retrobench/retroviz/pkg/route"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTree() *route.Node {
	return &route.Node{
		Identity: "KEY-CCO", Smiles: "CCO",
		Children: []*route.Node{
			{Identity: "KEY-CC", Smiles: "CC"},
			{Identity: "O", Smiles: "O",
				Children: []*route.Node{
					{Identity: "KEY-H2", Smiles: "[H][H]"},
				},
			},
		},
	}
}

func TestBenchmarkCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	b := &Benchmark{Name: "uspto-190", Description: "190 targets"}
	if err := s.CreateBenchmark(ctx, b); err != nil {
		t.Fatalf("CreateBenchmark: %v", err)
	}
	if b.ID == "" {
		t.Fatal("ID not assigned")
	}

	got, err := s.GetBenchmark(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBenchmark: %v", err)
	}
	if got.Name != "uspto-190" || got.Description != "190 targets" {
		t.Errorf("got %+v", got)
	}

	byName, err := s.GetBenchmarkByName(ctx, "uspto-190")
	if err != nil || byName.ID != b.ID {
		t.Errorf("GetBenchmarkByName = %+v, %v", byName, err)
	}

	if _, err := s.GetBenchmark(ctx, "missing"); !errors.Is(err, errors.ErrCodeBenchmarkNotFound) {
		t.Errorf("missing benchmark error = %v", err)
	}

	if err := s.DeleteBenchmark(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBenchmark: %v", err)
	}
	if err := s.DeleteBenchmark(ctx, b.ID); !errors.Is(err, errors.ErrCodeBenchmarkNotFound) {
		t.Errorf("double delete error = %v", err)
	}
}

func TestListBenchmarksFilter(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, name := range []string{"uspto-190", "uspto-50k", "paroutes-n1"} {
		if err := s.CreateBenchmark(ctx, &Benchmark{Name: name}); err != nil {
			t.Fatalf("CreateBenchmark %s: %v", name, err)
		}
	}

	all, err := s.ListBenchmarks(ctx, ListOptions{})
	if err != nil || len(all) != 3 {
		t.Fatalf("ListBenchmarks = %d, %v", len(all), err)
	}

	uspto, err := s.ListBenchmarks(ctx, ListOptions{Query: "uspto"})
	if err != nil || len(uspto) != 2 {
		t.Errorf("filtered list = %d, %v", len(uspto), err)
	}

	paged, err := s.ListBenchmarks(ctx, ListOptions{Limit: 1, Offset: 1})
	if err != nil || len(paged) != 1 {
		t.Errorf("paged list = %d, %v", len(paged), err)
	}
}

func TestTargetsAndRoutes(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	b := &Benchmark{Name: "bench"}
	if err := s.CreateBenchmark(ctx, b); err != nil {
		t.Fatalf("CreateBenchmark: %v", err)
	}
	target := &Target{BenchmarkID: b.ID, Smiles: "CCO", InchiKey: "KEY-CCO"}
	if err := s.CreateTarget(ctx, target); err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}

	gt := &Route{TargetID: target.ID, Kind: KindGroundTruth}
	if err := s.CreateRoute(ctx, gt, testTree()); err != nil {
		t.Fatalf("CreateRoute gt: %v", err)
	}
	pred := &Route{TargetID: target.ID, Kind: KindPrediction, Model: "retro-star", Rank: 1}
	if err := s.CreateRoute(ctx, pred, testTree()); err != nil {
		t.Fatalf("CreateRoute pred: %v", err)
	}

	// Ground truth sorts first.
	routes, err := s.ListRoutes(ctx, target.ID, ListOptions{})
	if err != nil || len(routes) != 2 {
		t.Fatalf("ListRoutes = %d, %v", len(routes), err)
	}
	if routes[0].Kind != KindGroundTruth {
		t.Errorf("first route kind = %s", routes[0].Kind)
	}

	targets, err := s.ListTargets(ctx, b.ID, ListOptions{Query: "CCO"})
	if err != nil || len(targets) != 1 {
		t.Errorf("ListTargets = %d, %v", len(targets), err)
	}

	if err := s.CreateRoute(ctx, &Route{TargetID: target.ID, Kind: "guess"}, testTree()); err == nil {
		t.Error("invalid kind should fail")
	}
	if err := s.CreateRoute(ctx, &Route{TargetID: target.ID, Kind: KindPrediction}, nil); !errors.Is(err, errors.ErrCodeInvalidRoute) {
		t.Errorf("nil tree error = %v", err)
	}
}

func TestRouteTreeRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	b := &Benchmark{Name: "bench"}
	if err := s.CreateBenchmark(ctx, b); err != nil {
		t.Fatalf("CreateBenchmark: %v", err)
	}
	target := &Target{BenchmarkID: b.ID, Smiles: "CCO"}
	if err := s.CreateTarget(ctx, target); err != nil {
		t.Fatalf("CreateTarget: %v", err)
	}
	r := &Route{TargetID: target.ID, Kind: KindGroundTruth}
	if err := s.CreateRoute(ctx, r, testTree()); err != nil {
		t.Fatalf("CreateRoute: %v", err)
	}

	tree, err := s.RouteTree(ctx, r.ID)
	if err != nil {
		t.Fatalf("RouteTree: %v", err)
	}

	if tree.Identity != "KEY-CCO" || tree.Smiles != "CCO" {
		t.Errorf("root = %s/%s", tree.Identity, tree.Smiles)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(tree.Children))
	}
	// Sibling order survives storage.
	if tree.Children[0].Identity != "KEY-CC" || tree.Children[1].Identity != "O" {
		t.Errorf("children = %s, %s", tree.Children[0].Identity, tree.Children[1].Identity)
	}
	if len(tree.Children[1].Children) != 1 || tree.Children[1].Children[0].Smiles != "[H][H]" {
		t.Error("grandchild lost")
	}
	if tree.Count() != 4 {
		t.Errorf("Count = %d, want 4", tree.Count())
	}
}

func TestRouteTreeErrors(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.RouteTree(ctx, "missing"); !errors.Is(err, errors.ErrCodeRouteNotFound) {
		t.Errorf("missing route error = %v", err)
	}

	b := &Benchmark{Name: "bench"}
	if err := s.CreateBenchmark(ctx, b); err != nil {
		t.Fatal(err)
	}
	target := &Target{BenchmarkID: b.ID, Smiles: "CCO"}
	if err := s.CreateTarget(ctx, target); err != nil {
		t.Fatal(err)
	}
	r := &Route{TargetID: target.ID, Kind: KindGroundTruth}
	if err := s.CreateRoute(ctx, r, testTree()); err != nil {
		t.Fatal(err)
	}

	// Orphan the root to simulate a corrupted route.
	if _, err := s.db.Exec(`DELETE FROM route_nodes WHERE route_id = ? AND parent_id IS NULL`, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RouteTree(ctx, r.ID); !errors.Is(err, errors.ErrCodeInvalidRoute) {
		t.Errorf("corrupted route error = %v", err)
	}
}

func TestStockSet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	st := &Stock{Name: "zinc"}
	if err := s.CreateStock(ctx, st); err != nil {
		t.Fatalf("CreateStock: %v", err)
	}
	if err := s.AddStockItems(ctx, st.ID, map[string]string{
		"KEY-CC": "CC",
		"O":      "O",
	}); err != nil {
		t.Fatalf("AddStockItems: %v", err)
	}

	set, err := s.StockSet(ctx, st.ID)
	if err != nil {
		t.Fatalf("StockSet: %v", err)
	}
	if set.Len() != 2 || !set.Has("KEY-CC") || !set.Has("O") {
		t.Errorf("set = %v", set)
	}

	got, err := s.GetStock(ctx, st.ID)
	if err != nil || got.ItemCount != 2 {
		t.Errorf("GetStock = %+v, %v", got, err)
	}

	if _, err := s.StockSet(ctx, "missing"); !errors.Is(err, errors.ErrCodeStockNotFound) {
		t.Errorf("missing stock error = %v", err)
	}
}

func TestLoadBenchmarkCSV(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	csvData := `target_smiles,target_inchikey,kind,model,rank,route
CCO,KEY-CCO,ground-truth,,0,"{""smiles"": ""CCO"", ""children"": [{""smiles"": ""CC""}, {""smiles"": ""O""}]}"
CCO,KEY-CCO,prediction,retro-star,1,"{""smiles"": ""CCO"", ""children"": [{""smiles"": ""CC""}]}"
CCN,,ground-truth,,0,"{""smiles"": ""CCN""}"
`
	stats, err := s.LoadBenchmarkCSV(ctx, "mini", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("LoadBenchmarkCSV: %v", err)
	}
	if stats.Targets != 2 || stats.Routes != 3 {
		t.Errorf("stats = %+v, want 2 targets / 3 routes", stats)
	}

	// Rows for the same target share one target record.
	bench, err := s.GetBenchmarkByName(ctx, "mini")
	if err != nil {
		t.Fatal(err)
	}
	targets, err := s.ListTargets(ctx, bench.ID, ListOptions{})
	if err != nil || len(targets) != 2 {
		t.Fatalf("targets = %d, %v", len(targets), err)
	}

	// Loaded routes assemble back into trees.
	var ccoTarget *Target
	for _, target := range targets {
		if target.Smiles == "CCO" {
			ccoTarget = target
		}
	}
	routes, err := s.ListRoutes(ctx, ccoTarget.ID, ListOptions{})
	if err != nil || len(routes) != 2 {
		t.Fatalf("routes = %d, %v", len(routes), err)
	}
	tree, err := s.RouteTree(ctx, routes[0].ID)
	if err != nil || tree.Smiles != "CCO" || len(tree.Children) != 2 {
		t.Errorf("assembled tree = %+v, %v", tree, err)
	}
}

func TestLoadBenchmarkCSVBadHeader(t *testing.T) {
	s := testStore(t)

	_, err := s.LoadBenchmarkCSV(context.Background(), "bad", strings.NewReader("a,b,c\n1,2,3\n"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad header error = %v", err)
	}
}

func TestLoadStockCSV(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	csvData := `identity,smiles
KEY-CC,CC
O,O
KEY-CC,CC
`
	stats, err := s.LoadStockCSV(ctx, "zinc", strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("LoadStockCSV: %v", err)
	}
	// Duplicate identities collapse.
	if stats.Items != 2 {
		t.Errorf("items = %d, want 2", stats.Items)
	}

	set, err := s.StockSet(ctx, stats.StockID)
	if err != nil || set.Len() != 2 {
		t.Errorf("set = %v, %v", set, err)
	}

	// Loading again into the same stock is idempotent.
	if _, err := s.LoadStockCSV(ctx, "zinc", strings.NewReader(csvData)); err != nil {
		t.Fatalf("second load: %v", err)
	}
	set, _ = s.StockSet(ctx, stats.StockID)
	if set.Len() != 2 {
		t.Errorf("set after reload = %d items", set.Len())
	}
}
