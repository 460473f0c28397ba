package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/retrobench/retroviz/pkg/errors"
)

// ======================== BENCHMARK OPERATIONS ============================

// CreateBenchmark inserts a benchmark. A missing ID is filled with a UUID.
func (s *Store) CreateBenchmark(ctx context.Context, b *Benchmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "benchmark name is required")
	}

	const q = `INSERT INTO benchmarks (id, name, description) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, b.ID, b.Name, b.Description); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create benchmark %q", b.Name)
	}
	return nil
}

// GetBenchmark retrieves a benchmark by id.
func (s *Store) GetBenchmark(ctx context.Context, id string) (*Benchmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const q = `SELECT id, name, description, created_at FROM benchmarks WHERE id = ?`
	b := &Benchmark{}
	err := s.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.Name, &b.Description, &b.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeBenchmarkNotFound, "benchmark %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get benchmark %s", id)
	}
	return b, nil
}

// GetBenchmarkByName retrieves a benchmark by its unique name.
func (s *Store) GetBenchmarkByName(ctx context.Context, name string) (*Benchmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const q = `SELECT id, name, description, created_at FROM benchmarks WHERE name = ?`
	b := &Benchmark{}
	err := s.db.QueryRowContext(ctx, q, name).Scan(&b.ID, &b.Name, &b.Description, &b.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeBenchmarkNotFound, "benchmark %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get benchmark %q", name)
	}
	return b, nil
}

// ListBenchmarks returns benchmarks matching the options, newest first.
func (s *Store) ListBenchmarks(ctx context.Context, opts ListOptions) ([]*Benchmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	opts = opts.normalize()

	const q = `SELECT id, name, description, created_at FROM benchmarks
		WHERE name LIKE ? ORDER BY created_at DESC, name LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, "%"+opts.Query+"%", opts.Limit, opts.Offset)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list benchmarks")
	}
	defer rows.Close()

	var result []*Benchmark
	for rows.Next() {
		b := &Benchmark{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.CreatedAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan benchmark row")
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// DeleteBenchmark removes a benchmark and, via cascades, its targets, routes,
// and route nodes.
func (s *Store) DeleteBenchmark(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM benchmarks WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete benchmark %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeBenchmarkNotFound, "benchmark %s not found", id)
	}
	return nil
}

// ========================= TARGET OPERATIONS ==============================

// CreateTarget inserts a target molecule. A missing ID is filled with a UUID.
func (s *Store) CreateTarget(ctx context.Context, t *Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Smiles == "" {
		return errors.New(errors.ErrCodeInvalidInput, "target smiles is required")
	}

	const q = `INSERT INTO targets (id, benchmark_id, smiles, inchikey) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, t.ID, t.BenchmarkID, t.Smiles, t.InchiKey); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create target %q", t.Smiles)
	}
	return nil
}

// GetTarget retrieves a target by id.
func (s *Store) GetTarget(ctx context.Context, id string) (*Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const q = `SELECT id, benchmark_id, smiles, inchikey, created_at FROM targets WHERE id = ?`
	t := &Target{}
	err := s.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.BenchmarkID, &t.Smiles, &t.InchiKey, &t.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeTargetNotFound, "target %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get target %s", id)
	}
	return t, nil
}

// ListTargets returns the targets of a benchmark matching the options.
func (s *Store) ListTargets(ctx context.Context, benchmarkID string, opts ListOptions) ([]*Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	opts = opts.normalize()

	const q = `SELECT id, benchmark_id, smiles, inchikey, created_at FROM targets
		WHERE benchmark_id = ? AND (smiles LIKE ? OR inchikey LIKE ?)
		ORDER BY created_at, id LIMIT ? OFFSET ?`
	pattern := "%" + opts.Query + "%"
	rows, err := s.db.QueryContext(ctx, q, benchmarkID, pattern, pattern, opts.Limit, opts.Offset)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list targets of benchmark %s", benchmarkID)
	}
	defer rows.Close()

	var result []*Target
	for rows.Next() {
		t := &Target{}
		if err := rows.Scan(&t.ID, &t.BenchmarkID, &t.Smiles, &t.InchiKey, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan target row")
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
