package packager

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jacentio/linkpkg/graph"
)

// ref points at a link. Local refs hold an id of the package's own numbering
// and are rewritten when that item gets a store id; global refs hold a store
// id and are never rewritten. The zero ref means absent.
type ref struct {
	ID     int64
	Global bool
}

func local(id int64) ref  { return ref{ID: id} }
func global(id int64) ref { return ref{ID: id, Global: true} }

func (r ref) isZero() bool { return r.ID == 0 }

// isLocal reports whether r is the local ref id.
func (r ref) isLocal(id int64) bool { return !r.Global && r.ID != 0 && r.ID == id }

type nodeKind int

const (
	kindLink nodeKind = iota
	kindValue
	kindDependency
)

// node is a normalized item.
type node struct {
	kind  nodeKind
	id    ref
	typ   ref
	from  ref
	to    ref
	value graph.Value
	dep   DependencyRef
}

// refs reports whether n references the local id through its type, from or
// to field.
func (n *node) refs(id int64) bool {
	return n.typ.isLocal(id) || n.from.isLocal(id) || n.to.isLocal(id)
}

// deserialized is the normalized form of a package.
type deserialized struct {
	nodes        []*node
	placeholders []*node
	counter      int64
	names        map[string]int64
	packageID    int64
	namespace    ref
}

// deserialize validates pkg, renumbers its items and appends the
// bookkeeping links that register it in the store.
func (s *session) deserialize(ctx context.Context, pkg *Package) (*deserialized, error) {
	if err := s.validate.Struct(pkg.Package); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, formatValidationError(err))
	}

	d := &deserialized{names: make(map[string]int64)}
	var order []string
	for _, it := range pkg.Data {
		key := it.ItemID().String()
		if _, ok := d.names[key]; !ok {
			d.counter++
			d.names[key] = d.counter
			order = append(order, key)
		}
	}
	resolve := func(id ID) ref {
		if id.IsZero() {
			return ref{}
		}
		if l, ok := d.names[id.String()]; ok {
			return local(l)
		}
		if n, ok := id.Num(); ok {
			return global(n)
		}
		return ref{}
	}

	depIDs := make(map[int64]bool)
	for _, it := range pkg.Data {
		n := &node{id: local(d.names[it.ItemID().String()])}
		switch v := it.(type) {
		case *LinkItem:
			n.kind = kindLink
			n.typ, n.from, n.to = resolve(v.Type), resolve(v.From), resolve(v.To)
			n.value = maps.Clone(v.Value)
		case *ValueItem:
			n.kind = kindValue
			n.value = maps.Clone(v.Value)
		case *DependencyItem:
			n.kind = kindDependency
			n.dep = v.Dependency
			d.placeholders = append(d.placeholders, n)
			depIDs[n.id.ID] = true
		default:
			return nil, fmt.Errorf("%w: unknown item %T", ErrValidation, it)
		}
		d.nodes = append(d.nodes, n)
	}
	for _, n := range d.nodes {
		if n.kind != kindValue {
			continue
		}
		owners := 0
		for _, m := range d.nodes {
			if m.kind == kindLink && m.id == n.id {
				owners++
			}
		}
		if owners != 1 {
			return nil, fmt.Errorf("%w: value of item %d needs exactly one link, found %d", ErrValidation, n.id.ID, owners)
		}
	}

	t := s.types
	bookkeeping := func(n *node) *node {
		d.counter++
		n.id = local(d.counter)
		d.nodes = append(d.nodes, n)
		return n
	}

	pkgNode := bookkeeping(&node{typ: global(t.Package), value: graph.Value{"value": pkg.Package.Name}})
	d.packageID = pkgNode.id.ID
	for _, key := range order {
		member := d.names[key]
		if depIDs[member] {
			continue
		}
		bookkeeping(&node{
			typ:   global(t.Contain),
			from:  local(d.packageID),
			to:    local(member),
			value: graph.Value{"value": key},
		})
	}

	nsID, err := s.namespaceID(ctx, pkg.Package.Name)
	if err != nil {
		return nil, err
	}
	if nsID != 0 {
		d.namespace = global(nsID)
	} else {
		ns := bookkeeping(&node{typ: global(t.PackageNamespace), value: graph.Value{"value": pkg.Package.Name}})
		d.namespace = ns.id
		bookkeeping(&node{typ: global(t.PackageActive), from: d.namespace, to: local(d.packageID)})
	}
	bookkeeping(&node{
		typ:   global(t.PackageVersion),
		from:  d.namespace,
		to:    local(d.packageID),
		value: graph.Value{"value": pkg.Package.Version},
	})
	bookkeeping(&node{typ: global(t.Contain), from: d.namespace, to: local(d.packageID)})

	s.logger.Debug("deserialized package",
		"items", len(pkg.Data),
		"counter", d.counter,
		"placeholders", len(d.placeholders),
		"namespace", d.namespace.ID,
	)
	return d, nil
}

// namespaceID returns the id of the existing PackageNamespace link named
// name, or 0.
func (s *session) namespaceID(ctx context.Context, name string) (int64, error) {
	table, err := s.table(ctx, s.types.PackageNamespace)
	if err != nil {
		return 0, err
	}
	ids, err := s.client.SelectValues(ctx, table, name)
	if err != nil {
		return 0, fmt.Errorf("%w: namespace %q: %w", ErrStore, name, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	links, err := s.client.Select(ctx, graph.Filter{IDs: ids, Type: s.types.PackageNamespace})
	if err != nil {
		return 0, fmt.Errorf("%w: namespace %q: %w", ErrStore, name, err)
	}
	if len(links) == 0 {
		return 0, nil
	}
	return links[0].ID, nil
}

func formatValidationError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("package %s is required", field))
		default:
			msgs = append(msgs, fmt.Sprintf("package %s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}
