package packager

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/jacentio/linkpkg/graph"
)

// ExportOptions selects the package to export.
type ExportOptions struct {
	// PackageLinkID is the root link, normally a Package link.
	PackageLinkID int64
	// Name and Version override the identifier read from the store.
	Name    string
	Version string
}

// Export serializes the subgraph rooted at opts.PackageLinkID. Links that
// cannot be serialized are reported in the returned errors; the package is
// still returned unless the store failed.
func (p *Packager) Export(ctx context.Context, opts ExportOptions) (*Package, []error) {
	s := p.session("export")
	s.logger = s.logger.With("root", opts.PackageLinkID)

	g, err := s.selectLinks(ctx, opts.PackageLinkID)
	if err != nil {
		return nil, []error{err}
	}
	pkg, errs := s.serialize(ctx, g, opts)
	if pkg == nil {
		return nil, errs
	}
	s.logger.Info("exported package",
		"name", pkg.Package.Name,
		"items", len(pkg.Data),
		"dependencies", len(pkg.Dependencies),
		"errors", len(errs),
	)
	return pkg, errs
}

// subgraph is the root link, the Contain edges from it, and the links they
// point to, ordered by id.
type subgraph struct {
	root  graph.Link
	links []graph.Link
	byID  map[int64]graph.Link
}

func (g *subgraph) has(id int64) bool {
	_, ok := g.byID[id]
	return ok
}

func (g *subgraph) add(links ...graph.Link) {
	for _, l := range links {
		if !g.has(l.ID) {
			g.byID[l.ID] = l
			g.links = append(g.links, l)
		}
	}
}

// selectLinks loads the root, its Contain edges and their targets.
func (s *session) selectLinks(ctx context.Context, rootID int64) (*subgraph, error) {
	roots, err := s.client.Select(ctx, graph.Filter{IDs: []int64{rootID}})
	if err != nil {
		return nil, fmt.Errorf("%w: load link %d: %w", ErrStore, rootID, err)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: link %d not found", ErrSerialization, rootID)
	}
	g := &subgraph{root: roots[0], byID: make(map[int64]graph.Link)}
	g.add(roots[0])

	contains, err := s.client.Select(ctx, graph.Filter{Type: s.types.Contain, From: rootID})
	if err != nil {
		return nil, fmt.Errorf("%w: load contains of %d: %w", ErrStore, rootID, err)
	}
	g.add(contains...)

	var memberIDs []int64
	for _, c := range contains {
		if c.To != 0 && !slices.Contains(memberIDs, c.To) {
			memberIDs = append(memberIDs, c.To)
		}
	}
	if len(memberIDs) > 0 {
		members, err := s.client.Select(ctx, graph.Filter{IDs: memberIDs})
		if err != nil {
			return nil, fmt.Errorf("%w: load members of %d: %w", ErrStore, rootID, err)
		}
		g.add(members...)
	}

	slices.SortFunc(g.links, func(a, b graph.Link) int { return cmp.Compare(a.ID, b.ID) })
	s.logger.Debug("selected links", "links", len(g.links))
	return g, nil
}

// owner names a link by the first Contain edge into it that comes from a
// Package link.
type owner struct {
	pkg     string
	contain string
}

func (s *session) ownerOf(ctx context.Context, id int64) (owner, error) {
	contains, err := s.client.Select(ctx, graph.Filter{Type: s.types.Contain, To: id})
	if err != nil {
		return owner{}, fmt.Errorf("%w: contains of %d: %w", ErrStore, id, err)
	}
	if len(contains) == 0 {
		return owner{}, nil
	}
	froms := make([]int64, 0, len(contains))
	for _, c := range contains {
		froms = append(froms, c.From)
	}
	pkgs, err := s.client.Select(ctx, graph.Filter{IDs: froms, Type: s.types.Package})
	if err != nil {
		return owner{}, fmt.Errorf("%w: packages containing %d: %w", ErrStore, id, err)
	}
	names := make(map[int64]string, len(pkgs))
	for _, p := range pkgs {
		name, _ := p.StringValue()
		names[p.ID] = name
	}
	for _, c := range contains {
		if name, ok := names[c.From]; ok {
			value, _ := c.StringValue()
			return owner{pkg: name, contain: value}, nil
		}
	}
	return owner{}, nil
}

// serialize turns g into a package: dependency items for links outside g,
// then the members of g, then the root unless it is the Package link that
// import re-creates.
func (s *session) serialize(ctx context.Context, g *subgraph, opts ExportOptions) (*Package, []error) {
	rootID := g.root.ID
	isNaming := func(l graph.Link) bool { return l.Type == s.types.Contain && l.From == rootID }
	emitted := func(l graph.Link) bool {
		if isNaming(l) {
			return false
		}
		return l.ID != rootID || l.Type != s.types.Package
	}

	names := make(map[int64]string)
	taken := make(map[string]bool)
	for _, l := range g.links {
		if !isNaming(l) {
			continue
		}
		if v, ok := l.StringValue(); ok && v != "" && !taken[v] {
			names[l.To] = v
			taken[v] = true
		}
	}
	counter := int64(1)
	nextID := func() ID {
		for taken[strconv.FormatInt(counter, 10)] {
			counter++
		}
		id := NumID(counter)
		counter++
		return id
	}

	var (
		errs     []error
		data     []Item
		deps     = make(map[int]Identifier)
		depIndex = make(map[string]int)
		external = make(map[int64]ID)
	)
	boundary := func(id int64) error {
		if id == 0 || g.has(id) {
			return nil
		}
		if _, ok := external[id]; ok {
			return nil
		}
		o, err := s.ownerOf(ctx, id)
		if err != nil {
			return err
		}
		if o.pkg == "" || o.contain == "" {
			errs = append(errs, fmt.Errorf("%w: link %d has no named Contain edge from a package", ErrSerialization, id))
			external[id] = ID{}
			return nil
		}
		idx, ok := depIndex[o.pkg]
		if !ok {
			idx = len(depIndex) + 1
			depIndex[o.pkg] = idx
			deps[idx] = Identifier{Name: o.pkg}
		}
		pid := nextID()
		external[id] = pid
		data = append(data, &DependencyItem{
			ID:         pid,
			Dependency: DependencyRef{DependencyID: idx, ContainValue: o.contain},
		})
		return nil
	}

	var members []graph.Link
	for _, l := range g.links {
		if !emitted(l) {
			continue
		}
		for _, id := range []int64{l.Type, l.From, l.To} {
			if err := boundary(id); err != nil {
				return nil, append(errs, err)
			}
		}
		if l.ID != rootID {
			members = append(members, l)
		}
	}
	if emitted(g.root) {
		members = append(members, g.root)
	}

	exportIDs := make(map[int64]ID, len(members))
	for _, m := range members {
		if name, ok := names[m.ID]; ok {
			exportIDs[m.ID] = StringID(name)
		} else {
			exportIDs[m.ID] = nextID()
		}
	}
	refOf := func(m graph.Link, id int64) ID {
		if e, ok := exportIDs[id]; ok {
			return e
		}
		if id == rootID {
			errs = append(errs, fmt.Errorf("%w: link %d references package link %d, which import re-creates", ErrSerialization, m.ID, rootID))
		}
		return external[id]
	}
	for _, m := range members {
		data = append(data, &LinkItem{
			ID:    exportIDs[m.ID],
			Type:  refOf(m, m.Type),
			From:  refOf(m, m.From),
			To:    refOf(m, m.To),
			Value: maps.Clone(m.Value),
		})
	}

	ident, err := s.identify(ctx, g.root, opts)
	if err != nil {
		return nil, append(errs, err)
	}
	pkg := &Package{Package: ident, Data: data}
	if len(deps) > 0 {
		pkg.Dependencies = deps
	}
	return pkg, errs
}

// identify reads the package name and version of root: the name from the
// root Package link (or the package containing root), the version from the
// newest PackageVersion edge into that package.
func (s *session) identify(ctx context.Context, root graph.Link, opts ExportOptions) (Identifier, error) {
	ident := Identifier{Name: opts.Name, Version: opts.Version}
	if root.Type != s.types.Package {
		if ident.Name == "" {
			o, err := s.ownerOf(ctx, root.ID)
			if err != nil {
				return ident, err
			}
			ident.Name = o.pkg
		}
		return ident, nil
	}

	if ident.Name == "" {
		ident.Name, _ = root.StringValue()
	}
	if ident.Version == "" {
		versions, err := s.client.Select(ctx, graph.Filter{Type: s.types.PackageVersion, To: root.ID})
		if err != nil {
			return ident, fmt.Errorf("%w: version of package %d: %w", ErrStore, root.ID, err)
		}
		for _, v := range versions {
			if str, ok := v.StringValue(); ok {
				ident.Version = str
			}
		}
	}
	return ident, nil
}
