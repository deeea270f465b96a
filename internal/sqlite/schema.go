package sqlite

// Schema DDL. Value rows are keyed by link id; lookup holds
// graph.LookupKey of the row's "value" field for equality queries.
const (
	createLinks = `CREATE TABLE IF NOT EXISTS links (
    id INTEGER PRIMARY KEY,
    type_id INTEGER NOT NULL DEFAULT 0,
    from_id INTEGER NOT NULL DEFAULT 0,
    to_id INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);`

	createValues = `CREATE TABLE IF NOT EXISTS link_values (
    link_id INTEGER PRIMARY KEY,
    table_name TEXT NOT NULL,
    value TEXT NOT NULL,
    lookup TEXT,
    FOREIGN KEY (link_id) REFERENCES links(id)
);`

	createCounters = `CREATE TABLE IF NOT EXISTS counters (
    name TEXT PRIMARY KEY,
    next INTEGER NOT NULL
);`
)

// Index DDL for the access paths of graph.Filter and SelectValues.
const (
	idxLinksType   = `CREATE INDEX IF NOT EXISTS idx_links_type ON links(type_id);`
	idxLinksFrom   = `CREATE INDEX IF NOT EXISTS idx_links_from ON links(from_id, type_id);`
	idxLinksTo     = `CREATE INDEX IF NOT EXISTS idx_links_to ON links(to_id, type_id);`
	idxValueLookup = `CREATE INDEX IF NOT EXISTS idx_values_lookup ON link_values(table_name, lookup);`
)

// schemaDDL lists all statements in dependency order.
var schemaDDL = []string{
	createLinks,
	createValues,
	createCounters,
	idxLinksType,
	idxLinksFrom,
	idxLinksTo,
	idxValueLookup,
}
