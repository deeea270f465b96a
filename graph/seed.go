package graph

import (
	"context"
	"errors"
	"fmt"
)

// ErrAlreadySeeded is returned by Seed when the core namespace exists.
var ErrAlreadySeeded = errors.New("graph: store is already seeded")

// Seed writes the reserved links into an empty store and registers them as
// members of the core package, so exports can name reserved types as
// dependencies. The reserved links keep their fixed ids from t; the
// bookkeeping links get ids from Reserve. It returns the core package id.
func Seed(ctx context.Context, c Client, t Types) (int64, error) {
	stringTable := TableName(t.StringTable)

	existing, err := c.SelectValues(ctx, stringTable, CorePackage)
	if err != nil {
		return 0, fmt.Errorf("lookup core namespace: %w", err)
	}
	if len(existing) > 0 {
		links, err := c.Select(ctx, Filter{IDs: existing})
		if err != nil {
			return 0, fmt.Errorf("load core links: %w", err)
		}
		for _, l := range links {
			if l.Type == t.PackageNamespace {
				return 0, ErrAlreadySeeded
			}
		}
	}

	reservedLinks := t.reservedLinks()
	for _, r := range reservedLinks {
		if _, err := c.InsertLink(ctx, Link{ID: r.id, Type: r.typ}); err != nil {
			return 0, fmt.Errorf("insert %s: %w", r.name, err)
		}
	}

	edges := t.tableValues()
	// package, namespace, active, version, namespace contain, one contain
	// per reserved link
	ids, err := c.Reserve(ctx, len(edges)+5+len(reservedLinks))
	if err != nil {
		return 0, fmt.Errorf("reserve: %w", err)
	}
	next := func() int64 {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	for _, e := range edges {
		if _, err := c.InsertLink(ctx, Link{ID: next(), Type: t.TableValue, From: e.table, To: e.typ}); err != nil {
			return 0, fmt.Errorf("insert table value %d->%d: %w", e.table, e.typ, err)
		}
	}

	insert := func(l Link, value string) error {
		if _, err := c.InsertLink(ctx, l); err != nil {
			return err
		}
		if value == "" {
			return nil
		}
		return c.InsertValue(ctx, stringTable, l.ID, Value{"value": value})
	}

	pkg := next()
	if err := insert(Link{ID: pkg, Type: t.Package}, CorePackage); err != nil {
		return 0, fmt.Errorf("insert core package: %w", err)
	}
	for _, r := range reservedLinks {
		if err := insert(Link{ID: next(), Type: t.Contain, From: pkg, To: r.id}, r.name); err != nil {
			return 0, fmt.Errorf("insert contain %s: %w", r.name, err)
		}
	}

	ns := next()
	if err := insert(Link{ID: ns, Type: t.PackageNamespace}, CorePackage); err != nil {
		return 0, fmt.Errorf("insert core namespace: %w", err)
	}
	if err := insert(Link{ID: next(), Type: t.PackageActive, From: ns, To: pkg}, ""); err != nil {
		return 0, fmt.Errorf("insert core active: %w", err)
	}
	if err := insert(Link{ID: next(), Type: t.PackageVersion, From: ns, To: pkg}, CoreVersion); err != nil {
		return 0, fmt.Errorf("insert core version: %w", err)
	}
	if err := insert(Link{ID: next(), Type: t.Contain, From: ns, To: pkg}, ""); err != nil {
		return 0, fmt.Errorf("insert core namespace contain: %w", err)
	}

	return pkg, nil
}
