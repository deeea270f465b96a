// Package graph defines the link model shared by the packager and the store
// backends, and the Client contract every backend implements.
//
// A link is a typed, directed record: it has an id, an optional type link,
// optional from/to links, and an optional value row kept in a side table
// selected by the link's type.
//
// # Client
//
// [Client] is the only surface the packager needs from a store:
//
//	Select        structured query over the link table
//	SelectValues  equality lookup over one value table
//	InsertLink    create one link (explicit id honoured)
//	InsertValue   create one value row
//	Reserve       atomically allocate fresh ids
//	Await         block until a link has settled in the store pipeline
//
// Implementations live in the store (DynamoDB) and internal/sqlite packages.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Value is the value row attached to a link, as it travels on the wire
// (for example {"value": "name"}). Row bookkeeping columns are not part of it.
type Value map[string]any

// Link is a single record of the graph store. Zero ids mean absent.
type Link struct {
	ID    int64
	Type  int64
	From  int64
	To    int64
	Value Value
}

// ValueField returns the scalar stored under the "value" key, or nil.
func (l Link) ValueField() any {
	if l.Value == nil {
		return nil
	}
	return l.Value["value"]
}

// StringValue returns the "value" field when it is a string.
func (l Link) StringValue() (string, bool) {
	s, ok := l.ValueField().(string)
	return s, ok
}

// Filter selects links. All set fields must match; zero fields are
// wildcards. At least one field must be set.
type Filter struct {
	IDs  []int64
	Type int64
	From int64
	To   int64
}

// Empty reports whether no field of the filter is set.
func (f Filter) Empty() bool {
	return len(f.IDs) == 0 && f.Type == 0 && f.From == 0 && f.To == 0
}

// Match reports whether l satisfies the scalar fields of f. IDs are not
// checked; backends use them to choose the access path.
func (f Filter) Match(l Link) bool {
	if f.Type != 0 && l.Type != f.Type {
		return false
	}
	if f.From != 0 && l.From != f.From {
		return false
	}
	if f.To != 0 && l.To != f.To {
		return false
	}
	return true
}

// Client is the graph store contract consumed by the packager.
type Client interface {
	// Select returns the links matching filter with their values hydrated.
	Select(ctx context.Context, filter Filter) ([]Link, error)

	// SelectValues returns the ids of links whose value row in table has a
	// "value" field equal to value.
	SelectValues(ctx context.Context, table string, value any) ([]int64, error)

	// InsertLink creates a link. A non-zero link.ID is used as is; a zero
	// id is allocated by the store. The id of the new link is returned.
	InsertLink(ctx context.Context, link Link) (int64, error)

	// InsertValue creates the value row of linkID in table.
	InsertValue(ctx context.Context, table string, linkID int64, value Value) error

	// Reserve allocates n fresh ids. Concurrent reservations never overlap.
	Reserve(ctx context.Context, n int) ([]int64, error)

	// Await returns once link id has settled in the store pipeline.
	Await(ctx context.Context, id int64) error
}

// ErrInvalidFilter is returned by backends for an empty filter.
var ErrInvalidFilter = errors.New("graph: filter must set at least one field")

// LookupKey returns the canonical encoding of a value used for equality
// lookups. Backends index value rows by LookupKey(row["value"]).
func LookupKey(v any) string {
	switch n := v.(type) {
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			v = f
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// TableName returns the value table name of a Table link.
func TableName(tableLinkID int64) string {
	return fmt.Sprintf("table%d", tableLinkID)
}
