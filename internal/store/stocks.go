package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/retrobench/retroviz/pkg/errors"
	"github.com/retrobench/retroviz/pkg/route"
)

// ========================== STOCK OPERATIONS ==============================

// CreateStock inserts a stock catalog. A missing ID is filled with a UUID.
func (s *Store) CreateStock(ctx context.Context, st *Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	if st.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "stock name is required")
	}

	const q = `INSERT INTO stocks (id, name, description) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, st.ID, st.Name, st.Description); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create stock %q", st.Name)
	}
	return nil
}

// GetStock retrieves a stock by id, with its item count.
func (s *Store) GetStock(ctx context.Context, id string) (*Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const q = `SELECT s.id, s.name, s.description, s.created_at, COUNT(i.identity)
		FROM stocks s LEFT JOIN stock_items i ON i.stock_id = s.id
		WHERE s.id = ? GROUP BY s.id`
	st := &Stock{}
	err := s.db.QueryRowContext(ctx, q, id).Scan(&st.ID, &st.Name, &st.Description, &st.CreatedAt, &st.ItemCount)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeStockNotFound, "stock %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get stock %s", id)
	}
	return st, nil
}

// ListStocks returns stock catalogs matching the options.
func (s *Store) ListStocks(ctx context.Context, opts ListOptions) ([]*Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	opts = opts.normalize()

	const q = `SELECT s.id, s.name, s.description, s.created_at, COUNT(i.identity)
		FROM stocks s LEFT JOIN stock_items i ON i.stock_id = s.id
		WHERE s.name LIKE ? GROUP BY s.id ORDER BY s.name LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, "%"+opts.Query+"%", opts.Limit, opts.Offset)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list stocks")
	}
	defer rows.Close()

	var result []*Stock
	for rows.Next() {
		st := &Stock{}
		if err := rows.Scan(&st.ID, &st.Name, &st.Description, &st.CreatedAt, &st.ItemCount); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan stock row")
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

// AddStockItems batch-inserts items into a stock in one transaction.
// Duplicate identities are ignored.
func (s *Store) AddStockItems(ctx context.Context, stockID string, items map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "begin tx (add stock items)")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO stock_items (stock_id, identity, smiles) VALUES (?, ?, ?)`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "prepare stock item insert")
	}
	defer stmt.Close()

	for identity, smiles := range items {
		if _, err := stmt.ExecContext(ctx, stockID, identity, smiles); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "insert stock item %q", identity)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "commit stock items for %s", stockID)
	}
	return nil
}

// StockSet returns the identity set of a stock catalog.
func (s *Store) StockSet(ctx context.Context, stockID string) (route.IdentitySet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stocks WHERE id = ?`, stockID).Scan(&exists); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "check stock %s", stockID)
	}
	if exists == 0 {
		return nil, errors.New(errors.ErrCodeStockNotFound, "stock %s not found", stockID)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT identity FROM stock_items WHERE stock_id = ?`, stockID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load items of stock %s", stockID)
	}
	defer rows.Close()

	set := route.NewIdentitySet()
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan stock item row")
		}
		set.Add(identity)
	}
	return set, rows.Err()
}

// DeleteStock removes a stock catalog and its items.
func (s *Store) DeleteStock(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM stocks WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete stock %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeStockNotFound, "stock %s not found", id)
	}
	return nil
}
