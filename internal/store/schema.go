package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Migration describes a single schema migration that can be applied to the
// database. Migrations are ordered by Version and are idempotent.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the ordered list of all schema migrations.
// Apply them sequentially; skip any whose Version is already recorded
// in the schema_migrations table.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: benchmarks, targets, routes, route_nodes, stocks, stock_items",
		SQL: `
CREATE TABLE IF NOT EXISTS benchmarks (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS targets (
    id           TEXT PRIMARY KEY,
    benchmark_id TEXT NOT NULL,
    smiles       TEXT NOT NULL,
    inchikey     TEXT NOT NULL DEFAULT '',
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (benchmark_id) REFERENCES benchmarks(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_targets_benchmark ON targets(benchmark_id);

CREATE TABLE IF NOT EXISTS routes (
    id         TEXT PRIMARY KEY,
    target_id  TEXT NOT NULL,
    kind       TEXT NOT NULL CHECK (kind IN ('ground-truth', 'prediction')),
    model      TEXT NOT NULL DEFAULT '',
    rank       INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (target_id) REFERENCES targets(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_routes_target ON routes(target_id);

CREATE TABLE IF NOT EXISTS route_nodes (
    id        TEXT PRIMARY KEY,
    route_id  TEXT NOT NULL,
    parent_id TEXT,
    position  INTEGER NOT NULL DEFAULT 0,
    smiles    TEXT NOT NULL,
    inchikey  TEXT NOT NULL DEFAULT '',
    is_leaf   BOOLEAN NOT NULL DEFAULT FALSE,
    FOREIGN KEY (route_id) REFERENCES routes(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_route_nodes_route ON route_nodes(route_id);

CREATE TABLE IF NOT EXISTS stocks (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS stock_items (
    stock_id TEXT NOT NULL,
    identity TEXT NOT NULL,
    smiles   TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (stock_id, identity),
    FOREIGN KEY (stock_id) REFERENCES stocks(id) ON DELETE CASCADE
);
`,
	},
}
