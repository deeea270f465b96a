// Package sqlite implements graph.Client on an embedded SQLite database.
// It backs the CLI's local mode and the packager test suites.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jacentio/linkpkg/graph"
)

var _ graph.Client = (*Backend)(nil)

// Backend errors.
var (
	ErrNotFound      = errors.New("sqlite: link not found")
	ErrAlreadyExists = errors.New("sqlite: link already exists")
	ErrInvalidCount  = errors.New("sqlite: reserve count must be positive")
)

// counterName is the counters row used for link ids.
const counterName = "links"

// DefaultIDOffset is the first id handed out by Reserve. Ids below it are
// left for the reserved layout written by graph.Seed.
const DefaultIDOffset = 100

// Backend is a graph store in a single SQLite file.
type Backend struct {
	db       *sql.DB
	idOffset int64
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func Open(path string) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection: keeps ":memory:" databases shared and serializes
	// Reserve against inserts.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Backend{db: db, idOffset: DefaultIDOffset}, nil
}

// Close releases the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Select returns links matching filter, ordered by id, values hydrated.
func (b *Backend) Select(ctx context.Context, filter graph.Filter) ([]graph.Link, error) {
	if filter.Empty() {
		return nil, graph.ErrInvalidFilter
	}

	query := `SELECT l.id, l.type_id, l.from_id, l.to_id, v.value
FROM links l LEFT JOIN link_values v ON v.link_id = l.id`
	var conditions []string
	var args []any

	if len(filter.IDs) > 0 {
		placeholders := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions, "l.id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.Type != 0 {
		conditions = append(conditions, "l.type_id = ?")
		args = append(args, filter.Type)
	}
	if filter.From != 0 {
		conditions = append(conditions, "l.from_id = ?")
		args = append(args, filter.From)
	}
	if filter.To != 0 {
		conditions = append(conditions, "l.to_id = ?")
		args = append(args, filter.To)
	}
	query += " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY l.id"

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting links: %w", err)
	}
	defer rows.Close()

	var links []graph.Link
	for rows.Next() {
		link, err := hydrateLink(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return links, nil
}

// SelectValues returns the ids of links whose value row in table has a
// "value" field equal to value.
func (b *Backend) SelectValues(ctx context.Context, table string, value any) ([]int64, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT link_id FROM link_values WHERE table_name = ? AND lookup = ? ORDER BY link_id",
		table, graph.LookupKey(value),
	)
	if err != nil {
		return nil, fmt.Errorf("selecting values: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning value row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertLink creates a link, allocating an id when link.ID is zero.
func (b *Backend) InsertLink(ctx context.Context, link graph.Link) (int64, error) {
	if link.ID == 0 {
		ids, err := b.Reserve(ctx, 1)
		if err != nil {
			return 0, err
		}
		link.ID = ids[0]
	}

	var exists bool
	err := b.db.QueryRowContext(ctx, "SELECT 1 FROM links WHERE id = ?", link.ID).Scan(&exists)
	if err == nil {
		return 0, fmt.Errorf("link %d: %w", link.ID, ErrAlreadyExists)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("checking link existence: %w", err)
	}

	_, err = b.db.ExecContext(ctx,
		"INSERT INTO links (id, type_id, from_id, to_id, created_at) VALUES (?, ?, ?, ?, ?)",
		link.ID, link.Type, link.From, link.To, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting link %d: %w", link.ID, err)
	}
	return link.ID, nil
}

// InsertValue creates the value row of linkID.
func (b *Backend) InsertValue(ctx context.Context, table string, linkID int64, value graph.Value) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding value of link %d: %w", linkID, err)
	}
	var lookup any
	if v, ok := value["value"]; ok {
		lookup = graph.LookupKey(v)
	}

	_, err = b.db.ExecContext(ctx,
		"INSERT INTO link_values (link_id, table_name, value, lookup) VALUES (?, ?, ?, ?)",
		linkID, table, string(data), lookup,
	)
	if err != nil {
		return fmt.Errorf("inserting value of link %d: %w", linkID, err)
	}
	return nil
}

// Reserve allocates n consecutive ids.
func (b *Backend) Reserve(ctx context.Context, n int) ([]int64, error) {
	if n <= 0 {
		return nil, ErrInvalidCount
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO counters (name, next) VALUES (?, ?)", counterName, b.idOffset,
	); err != nil {
		return nil, fmt.Errorf("initializing counter: %w", err)
	}

	var first int64
	if err := tx.QueryRowContext(ctx,
		"SELECT next FROM counters WHERE name = ?", counterName,
	).Scan(&first); err != nil {
		return nil, fmt.Errorf("reading counter: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE counters SET next = ? WHERE name = ?", first+int64(n), counterName,
	); err != nil {
		return nil, fmt.Errorf("advancing counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reservation: %w", err)
	}

	ids := make([]int64, n)
	for i := range ids {
		ids[i] = first + int64(i)
	}
	return ids, nil
}

// Await returns once link id exists. Inserts are synchronous, so an
// existing row is a settled link.
func (b *Backend) Await(ctx context.Context, id int64) error {
	var exists bool
	err := b.db.QueryRowContext(ctx, "SELECT 1 FROM links WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("link %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("awaiting link %d: %w", id, err)
	}
	return nil
}

// hydrateLink converts a joined row into a graph.Link.
func hydrateLink(rows *sql.Rows) (graph.Link, error) {
	var l graph.Link
	var value sql.NullString
	if err := rows.Scan(&l.ID, &l.Type, &l.From, &l.To, &value); err != nil {
		return l, err
	}
	if value.Valid {
		if err := json.Unmarshal([]byte(value.String), &l.Value); err != nil {
			return l, fmt.Errorf("parsing value of link %d: %w", l.ID, err)
		}
	}
	return l, nil
}
