package packager

import (
	"context"
	"fmt"

	"github.com/jacentio/linkpkg/graph"
)

// insertNodes creates the links and values of order. Dependency nodes
// already name existing links and are skipped. Every link is awaited before
// the next one is written. The first failure stops the insert; links
// written so far stay in the store.
func (s *session) insertNodes(ctx context.Context, order, placeholders []*node) ([]int64, error) {
	for _, n := range placeholders {
		s.logger.Debug("dependency in place", "id", n.id.ID)
	}

	var created []int64
	for _, n := range order {
		switch n.kind {
		case kindDependency:
			continue
		case kindLink:
			link := graph.Link{ID: n.id.ID, Type: n.typ.ID, From: n.from.ID, To: n.to.ID}
			if _, err := s.client.InsertLink(ctx, link); err != nil {
				return nil, fmt.Errorf("%w: insert link %d: %w", ErrStore, link.ID, err)
			}
			if err := s.client.Await(ctx, link.ID); err != nil {
				return nil, fmt.Errorf("%w: await link %d: %w", ErrStore, link.ID, err)
			}
			created = append(created, link.ID)
			s.logger.Debug("inserted link",
				"id", link.ID,
				"type", link.Type,
				"from", link.From,
				"to", link.To,
			)
			if n.value != nil {
				if err := s.insertValue(ctx, n.id.ID, n.typ, n.value); err != nil {
					return nil, err
				}
			}
		case kindValue:
			owner := definingLink(order, n.id)
			if owner == nil {
				return nil, fmt.Errorf("%w: no link for value of item %d", ErrValidation, n.id.ID)
			}
			if err := s.insertValue(ctx, n.id.ID, owner.typ, n.value); err != nil {
				return nil, err
			}
		}
	}
	return created, nil
}

// insertValue writes the value row of linkID into the table of its type.
func (s *session) insertValue(ctx context.Context, linkID int64, typ ref, value graph.Value) error {
	if typ.isZero() {
		return fmt.Errorf("%w: value of untyped link %d", ErrValidation, linkID)
	}
	table, err := s.table(ctx, typ.ID)
	if err != nil {
		return fmt.Errorf("value of link %d: %w", linkID, err)
	}
	if err := s.client.InsertValue(ctx, table, linkID, value); err != nil {
		return fmt.Errorf("%w: insert value of link %d: %w", ErrStore, linkID, err)
	}
	s.logger.Debug("inserted value", "id", linkID, "table", table)
	return nil
}

// definingLink returns the link node with id, or nil.
func definingLink(order []*node, id ref) *node {
	for _, n := range order {
		if n.kind == kindLink && n.id == id {
			return n
		}
	}
	return nil
}
