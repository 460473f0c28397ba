package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"sort"

	"github.com/google/uuid"

	"github.com/retrobench/retroviz/pkg/errors"
	"github.com/retrobench/retroviz/pkg/route"
)

// ========================== ROUTE OPERATIONS ==============================

// CreateRoute inserts a route together with its tree of nodes in one
// transaction. A missing route ID is filled with a UUID; node rows are
// derived from the tree in preorder with per-parent positions.
func (s *Store) CreateRoute(ctx context.Context, r *Route, tree *route.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Kind != KindGroundTruth && r.Kind != KindPrediction {
		return errors.New(errors.ErrCodeInvalidInput, "route kind must be %q or %q", KindGroundTruth, KindPrediction)
	}
	if tree == nil {
		return errors.New(errors.ErrCodeInvalidRoute, "route tree is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "begin tx (create route)")
	}
	defer tx.Rollback()

	const insRoute = `INSERT INTO routes (id, target_id, kind, model, rank) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insRoute, r.ID, r.TargetID, r.Kind, r.Model, r.Rank); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create route for target %s", r.TargetID)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO route_nodes
		(id, route_id, parent_id, position, smiles, inchikey, is_leaf)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "prepare route node insert")
	}
	defer stmt.Close()

	var insert func(n *route.Node, parentID string, pos int) error
	insert = func(n *route.Node, parentID string, pos int) error {
		id := uuid.New().String()
		var parent any
		if parentID != "" {
			parent = parentID
		}
		inchikey := ""
		if n.Identity != n.Smiles {
			inchikey = n.Identity
		}
		if _, err := stmt.ExecContext(ctx, id, r.ID, parent, pos, n.Smiles, inchikey, n.IsLeaf()); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "insert route node %q", n.Smiles)
		}
		for i, c := range n.Children {
			if err := insert(c, id, i); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(tree, "", 0); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "commit route %s", r.ID)
	}
	return nil
}

// GetRoute retrieves route metadata by id.
func (s *Store) GetRoute(ctx context.Context, id string) (*Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRoute(ctx, id)
}

func (s *Store) getRoute(ctx context.Context, id string) (*Route, error) {
	const q = `SELECT id, target_id, kind, model, rank, created_at FROM routes WHERE id = ?`
	r := &Route{}
	err := s.db.QueryRowContext(ctx, q, id).Scan(&r.ID, &r.TargetID, &r.Kind, &r.Model, &r.Rank, &r.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrCodeRouteNotFound, "route %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get route %s", id)
	}
	return r, nil
}

// ListRoutes returns the routes of a target, ground truth first, then
// predictions by rank.
func (s *Store) ListRoutes(ctx context.Context, targetID string, opts ListOptions) ([]*Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	opts = opts.normalize()

	const q = `SELECT id, target_id, kind, model, rank, created_at FROM routes
		WHERE target_id = ? AND model LIKE ?
		ORDER BY CASE kind WHEN 'ground-truth' THEN 0 ELSE 1 END, rank, created_at
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, targetID, "%"+opts.Query+"%", opts.Limit, opts.Offset)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list routes of target %s", targetID)
	}
	defer rows.Close()

	var result []*Route
	for rows.Next() {
		r := &Route{}
		if err := rows.Scan(&r.ID, &r.TargetID, &r.Kind, &r.Model, &r.Rank, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan route row")
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// DeleteRoute removes a route and its nodes.
func (s *Store) DeleteRoute(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM routes WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete route %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeRouteNotFound, "route %s not found", id)
	}
	return nil
}

// ========================== TREE ASSEMBLY =================================

// RouteTree assembles the stored node rows of a route back into a tree.
// Structural defects in the stored rows (no root, several roots, a node
// pointing at a parent outside the route) surface as INVALID_ROUTE errors
// here rather than reaching the layout engine.
func (s *Store) RouteTree(ctx context.Context, routeID string) (*route.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getRoute(ctx, routeID); err != nil {
		return nil, err
	}

	const q = `SELECT id, parent_id, position, smiles, inchikey FROM route_nodes WHERE route_id = ?`
	rows, err := s.db.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load nodes of route %s", routeID)
	}
	defer rows.Close()

	type row struct {
		id       string
		parentID string
		position int
		node     *route.Node
	}
	byID := make(map[string]*row)
	var order []*row

	for rows.Next() {
		r := &row{}
		var parent sql.NullString
		var smiles, inchikey string
		if err := rows.Scan(&r.id, &parent, &r.position, &smiles, &inchikey); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan route node row")
		}
		r.parentID = parent.String
		identity := inchikey
		if identity == "" {
			identity = smiles
		}
		r.node = &route.Node{Identity: identity, Smiles: smiles}
		byID[r.id] = r
		order = append(order, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "route node rows")
	}

	var root *route.Node
	pos := make(map[*route.Node]int, len(order))
	for _, r := range order {
		pos[r.node] = r.position
		if r.parentID == "" {
			if root != nil {
				return nil, errors.New(errors.ErrCodeInvalidRoute, "route %s has multiple root nodes", routeID)
			}
			root = r.node
			continue
		}
		parent, ok := byID[r.parentID]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidRoute, "route %s node %s references unknown parent %s", routeID, r.id, r.parentID)
		}
		parent.node.Children = append(parent.node.Children, r.node)
	}
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidRoute, "route %s has no root node", routeID)
	}

	// Restore sibling order by stored position.
	for _, r := range order {
		children := r.node.Children
		if len(children) > 1 {
			sort.SliceStable(children, func(i, j int) bool { return pos[children[i]] < pos[children[j]] })
		}
	}

	return root, nil
}
