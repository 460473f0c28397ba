package store

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/retrobench/retroviz/pkg/errors"
	"github.com/retrobench/retroviz/pkg/route"
)

// BenchmarkLoadStats summarizes a benchmark CSV import.
type BenchmarkLoadStats struct {
	BenchmarkID string
	Targets     int
	Routes      int
}

// StockLoadStats summarizes a stock CSV import.
type StockLoadStats struct {
	StockID string
	Items   int
}

// LoadBenchmarkCSV imports a benchmark from CSV. The expected header is
//
//	target_smiles,target_inchikey,kind,model,rank,route
//
// with one row per route; the route column holds the JSON tree. Rows for the
// same target SMILES share one target record. The benchmark is created if a
// benchmark with that name does not exist yet.
func (s *Store) LoadBenchmarkCSV(ctx context.Context, name string, r io.Reader) (*BenchmarkLoadStats, error) {
	bench, err := s.GetBenchmarkByName(ctx, name)
	if errors.IsNotFound(err) {
		bench = &Benchmark{Name: name}
		if err := s.CreateBenchmark(ctx, bench); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read csv header")
	}
	col, err := columnIndex(header, "target_smiles", "kind", "route")
	if err != nil {
		return nil, err
	}

	stats := &BenchmarkLoadStats{BenchmarkID: bench.ID}
	targets := make(map[string]string) // target smiles -> target id

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read csv line %d", line)
		}

		smiles := strings.TrimSpace(field(record, col["target_smiles"]))
		if smiles == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "line %d: target_smiles is empty", line)
		}

		targetID, ok := targets[smiles]
		if !ok {
			target := &Target{
				BenchmarkID: bench.ID,
				Smiles:      smiles,
				InchiKey:    strings.TrimSpace(field(record, col["target_inchikey"])),
			}
			if err := s.CreateTarget(ctx, target); err != nil {
				return nil, err
			}
			targetID = target.ID
			targets[smiles] = targetID
			stats.Targets++
		}

		tree, err := route.UnmarshalTree([]byte(field(record, col["route"])))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRoute, err, "line %d: parse route tree", line)
		}

		rank := 0
		if v := strings.TrimSpace(field(record, col["rank"])); v != "" {
			rank, err = strconv.Atoi(v)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d: parse rank", line)
			}
		}

		rt := &Route{
			TargetID: targetID,
			Kind:     strings.TrimSpace(field(record, col["kind"])),
			Model:    strings.TrimSpace(field(record, col["model"])),
			Rank:     rank,
		}
		if err := s.CreateRoute(ctx, rt, tree); err != nil {
			return nil, err
		}
		stats.Routes++
	}

	return stats, nil
}

// LoadStockCSV imports a stock catalog from CSV. The expected header is
//
//	identity,smiles
//
// where identity is the InChIKey (or the SMILES itself when no InChIKey is
// available) and smiles is optional. The stock is created if a stock with
// that name does not exist yet.
func (s *Store) LoadStockCSV(ctx context.Context, name string, r io.Reader) (*StockLoadStats, error) {
	stocks, err := s.ListStocks(ctx, ListOptions{Query: name, Limit: DefaultListLimit})
	if err != nil {
		return nil, err
	}
	var stock *Stock
	for _, st := range stocks {
		if st.Name == name {
			stock = st
			break
		}
	}
	if stock == nil {
		stock = &Stock{Name: name}
		if err := s.CreateStock(ctx, stock); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read csv header")
	}
	col, err := columnIndex(header, "identity")
	if err != nil {
		return nil, err
	}

	items := make(map[string]string)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read csv line %d", line)
		}
		identity := strings.TrimSpace(field(record, col["identity"]))
		if identity == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "line %d: identity is empty", line)
		}
		items[identity] = strings.TrimSpace(field(record, col["smiles"]))
	}

	if err := s.AddStockItems(ctx, stock.ID, items); err != nil {
		return nil, err
	}
	return &StockLoadStats{StockID: stock.ID, Items: len(items)}, nil
}

// columnIndex maps header names to indices and checks required columns.
// Optional columns missing from the header map to -1.
func columnIndex(header []string, required ...string) (map[string]int, error) {
	col := map[string]int{
		"target_smiles":   -1,
		"target_inchikey": -1,
		"kind":            -1,
		"model":           -1,
		"rank":            -1,
		"route":           -1,
		"identity":        -1,
		"smiles":          -1,
	}
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, name := range required {
		if col[name] < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "csv header missing required column %q", name)
		}
	}
	return col, nil
}

// field returns record[i] or "" when the column is absent.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
