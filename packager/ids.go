package packager

import (
	"context"
	"fmt"

	"github.com/jacentio/linkpkg/graph"
)

// updateIDs gives every node in order its store id: dependency nodes get
// the id of the existing link they stand for, link nodes take the next
// reserved id. After each assignment every node still holding the old local
// id in its id, type, from or to field is rewritten. Value nodes take the
// id of their link through that rewrite. It returns the local to store id
// mapping.
func (s *session) updateIDs(ctx context.Context, pkg *Package, order []*node, ids []int64) (map[int64]int64, error) {
	assigned := make(map[int64]int64, len(order))
	next := 0
	for _, n := range order {
		if n.id.Global || n.kind == kindValue {
			continue
		}
		old := n.id.ID

		var newID int64
		if n.kind == kindDependency {
			id, err := s.resolveDependency(ctx, pkg, n.dep)
			if err != nil {
				return nil, err
			}
			newID = id
		} else {
			if next >= len(ids) {
				return nil, fmt.Errorf("%w: reserved %d ids, need more", ErrStore, len(ids))
			}
			newID = ids[next]
			next++
		}

		assigned[old] = newID
		for _, m := range order {
			rewrite(&m.id, old, newID)
			rewrite(&m.typ, old, newID)
			rewrite(&m.from, old, newID)
			rewrite(&m.to, old, newID)
		}
	}
	return assigned, nil
}

func rewrite(r *ref, old, newID int64) {
	if r.isLocal(old) {
		*r = global(newID)
	}
}

// resolveDependency finds the link that the dependency package contains
// under ref.ContainValue. When several packages of that name hold a match,
// the one with the requested version wins, or else the newest.
func (s *session) resolveDependency(ctx context.Context, pkg *Package, dep DependencyRef) (int64, error) {
	ident, ok := pkg.Dependencies[dep.DependencyID]
	if !ok || ident.Name == "" {
		return 0, fmt.Errorf("%w: no dependency %d for %q", ErrDependencyResolution, dep.DependencyID, dep.ContainValue)
	}
	notFound := fmt.Errorf("%w: %q not found in package %q", ErrDependencyResolution, dep.ContainValue, ident.Name)

	containTable, err := s.table(ctx, s.types.Contain)
	if err != nil {
		return 0, err
	}
	packageTable, err := s.table(ctx, s.types.Package)
	if err != nil {
		return 0, err
	}

	containIDs, err := s.client.SelectValues(ctx, containTable, dep.ContainValue)
	if err != nil {
		return 0, fmt.Errorf("%w: contain %q: %w", ErrStore, dep.ContainValue, err)
	}
	if len(containIDs) == 0 {
		return 0, notFound
	}
	contains, err := s.client.Select(ctx, graph.Filter{IDs: containIDs, Type: s.types.Contain})
	if err != nil {
		return 0, fmt.Errorf("%w: contain %q: %w", ErrStore, dep.ContainValue, err)
	}

	pkgIDs, err := s.client.SelectValues(ctx, packageTable, ident.Name)
	if err != nil {
		return 0, fmt.Errorf("%w: package %q: %w", ErrStore, ident.Name, err)
	}
	if len(pkgIDs) == 0 {
		return 0, notFound
	}
	packages, err := s.client.Select(ctx, graph.Filter{IDs: pkgIDs, Type: s.types.Package})
	if err != nil {
		return 0, fmt.Errorf("%w: package %q: %w", ErrStore, ident.Name, err)
	}
	candidates := make(map[int64]bool, len(packages))
	for _, p := range packages {
		candidates[p.ID] = true
	}

	var match graph.Link
	for _, c := range contains {
		if !candidates[c.From] {
			continue
		}
		if ident.Version != "" {
			ok, err := s.hasVersion(ctx, c.From, ident.Version)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
		}
		if c.From > match.From {
			match = c
		}
	}
	if match.To == 0 {
		return 0, notFound
	}
	s.logger.Debug("resolved dependency",
		"dependency", ident.Name,
		"containValue", dep.ContainValue,
		"id", match.To,
	)
	return match.To, nil
}

// hasVersion reports whether package link pkgID is registered at version.
func (s *session) hasVersion(ctx context.Context, pkgID int64, version string) (bool, error) {
	links, err := s.client.Select(ctx, graph.Filter{Type: s.types.PackageVersion, To: pkgID})
	if err != nil {
		return false, fmt.Errorf("%w: version of package %d: %w", ErrStore, pkgID, err)
	}
	for _, l := range links {
		if v, ok := l.StringValue(); ok && v == version {
			return true, nil
		}
	}
	return false, nil
}
