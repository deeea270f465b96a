// Package packager moves subgraphs between graph stores.
//
// Export walks a package link and the links it contains and produces a
// portable [Package]: members are named by their Contain edges, and
// references to links owned by other packages become dependency items.
// Import does the reverse. It renumbers the items into a local id space,
// adds the bookkeeping links that register the package and its namespace,
// orders the items so that references point backwards, reserves a block of
// store ids, resolves dependency items against the target store, and
// inserts every link and value one at a time.
//
// Import is not transactional. Links inserted before a failure stay in the
// store.
package packager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jacentio/linkpkg/graph"
)

// Packager imports and exports packages against one graph store.
type Packager struct {
	client   graph.Client
	types    graph.Types
	logger   *slog.Logger
	validate *validator.Validate
}

// Option configures a Packager.
type Option func(*Packager)

// WithTypes sets the reserved link ids of the target store.
// Default: graph.DefaultTypes().
func WithTypes(t graph.Types) Option {
	return func(p *Packager) { p.types = t }
}

// WithLogger sets the logger. A nil logger means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Packager) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Packager bound to client.
func New(client graph.Client, opts ...Option) *Packager {
	p := &Packager{
		client:   client,
		types:    graph.DefaultTypes(),
		logger:   slog.Default(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is the outcome of an import. Errors are returned as data: when
// Errors is non-empty, IDs and Names are empty.
type Result struct {
	// IDs lists the store ids given to created links, in insertion order.
	IDs []int64
	// Names maps each identifier used in Package.Data to its store id.
	Names map[string]int64
	// PackageID is the id of the created Package link.
	PackageID int64
	// NamespaceID is the id of the package namespace, new or reused.
	NamespaceID int64
	Errors      []error
}

// Err joins Errors, or returns nil.
func (r Result) Err() error {
	return errors.Join(r.Errors...)
}

func failed(err error) Result {
	return Result{Errors: []error{err}}
}

// Import creates the links of pkg in the store.
func (p *Packager) Import(ctx context.Context, pkg *Package) Result {
	s := p.session("import")
	if pkg == nil {
		return failed(fmt.Errorf("%w: nil package", ErrValidation))
	}
	s.logger = s.logger.With("package", pkg.Package.Name, "version", pkg.Package.Version)

	d, err := s.deserialize(ctx, pkg)
	if err != nil {
		return failed(err)
	}
	order := sortNodes(pkg.Strict, d.nodes)

	n := int(d.counter) - len(d.placeholders) + 2
	ids, err := p.client.Reserve(ctx, n)
	if err != nil {
		return failed(fmt.Errorf("%w: reserve %d ids: %w", ErrStore, n, err))
	}
	s.logger.Debug("reserved ids", "count", n, "first", ids[0])

	assigned, err := s.updateIDs(ctx, pkg, order, ids)
	if err != nil {
		return failed(err)
	}
	created, err := s.insertNodes(ctx, order, d.placeholders)
	if err != nil {
		return failed(err)
	}

	res := Result{
		IDs:         created,
		Names:       make(map[string]int64, len(d.names)),
		PackageID:   assigned[d.packageID],
		NamespaceID: d.namespace.ID,
	}
	if !d.namespace.Global {
		res.NamespaceID = assigned[d.namespace.ID]
	}
	for name, local := range d.names {
		res.Names[name] = assigned[local]
	}
	s.logger.Info("imported package",
		"links", len(created),
		"packageID", res.PackageID,
		"namespaceID", res.NamespaceID,
	)
	return res
}

// session carries per-call state: the logger tagged with a run id and the
// type to value-table cache.
type session struct {
	*Packager
	logger *slog.Logger
	tables map[int64]string
}

func (p *Packager) session(op string) *session {
	return &session{
		Packager: p,
		logger:   p.logger.With("op", op, "run", uuid.NewString()),
		tables:   make(map[int64]string),
	}
}

// table returns the value table that stores values of links typed typeID,
// following the TableValue edge into the type.
func (s *session) table(ctx context.Context, typeID int64) (string, error) {
	if t, ok := s.tables[typeID]; ok {
		return t, nil
	}
	links, err := s.client.Select(ctx, graph.Filter{Type: s.types.TableValue, To: typeID})
	if err != nil {
		return "", fmt.Errorf("%w: table for type %d: %w", ErrStore, typeID, err)
	}
	if len(links) == 0 {
		return "", fmt.Errorf("%w: no value table for type %d", ErrStore, typeID)
	}
	t := graph.TableName(links[0].From)
	s.tables[typeID] = t
	return t, nil
}
