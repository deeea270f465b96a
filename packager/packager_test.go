package packager_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/linkpkg/graph"
	"github.com/jacentio/linkpkg/internal/sqlite"
	"github.com/jacentio/linkpkg/packager"
)

var types = graph.DefaultTypes()

func newStore(t *testing.T) *sqlite.Backend {
	t.Helper()
	b, err := sqlite.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	_, err = graph.Seed(context.Background(), b, types)
	require.NoError(t, err)
	return b
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder wraps a client and records mutating calls. It fails the
// failInsert-th InsertLink call when set.
type recorder struct {
	graph.Client
	reserved   []int
	links      []graph.Link
	values     []int64
	failInsert int
}

func (r *recorder) Reserve(ctx context.Context, n int) ([]int64, error) {
	r.reserved = append(r.reserved, n)
	return r.Client.Reserve(ctx, n)
}

func (r *recorder) InsertLink(ctx context.Context, l graph.Link) (int64, error) {
	if r.failInsert > 0 && len(r.links)+1 == r.failInsert {
		return 0, errors.New("connection reset")
	}
	r.links = append(r.links, l)
	return r.Client.InsertLink(ctx, l)
}

func (r *recorder) InsertValue(ctx context.Context, table string, id int64, v graph.Value) error {
	r.values = append(r.values, id)
	return r.Client.InsertValue(ctx, table, id, v)
}

func getLink(t *testing.T, c graph.Client, id int64) graph.Link {
	t.Helper()
	links, err := c.Select(context.Background(), graph.Filter{IDs: []int64{id}})
	require.NoError(t, err)
	require.Len(t, links, 1, "link %d", id)
	return links[0]
}

func scenarioPackage() *packager.Package {
	return &packager.Package{
		Package: packager.Identifier{Name: "pkg", Version: "1.0.0"},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("a"), Type: packager.NumID(types.Package)},
			&packager.LinkItem{
				ID:    packager.StringID("b"),
				Type:  packager.NumID(types.Package),
				From:  packager.StringID("a"),
				To:    packager.StringID("a"),
				Value: graph.Value{"value": "x"},
			},
		},
	}
}

func TestImport_Scenario(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{Client: store}
	p := packager.New(rec, packager.WithLogger(quietLogger()))

	res := p.Import(ctx, scenarioPackage())
	require.NoError(t, res.Err())

	// a, b, package, two member contains, namespace, active, version,
	// namespace contain, plus two spare ids
	assert.Equal(t, []int{11}, rec.reserved)
	assert.Len(t, res.IDs, 9)
	assert.Len(t, rec.links, 9)

	a := getLink(t, store, res.Names["a"])
	b := getLink(t, store, res.Names["b"])
	assert.Equal(t, types.Package, a.Type)
	assert.Nil(t, a.Value)
	assert.Equal(t, types.Package, b.Type)
	assert.Equal(t, a.ID, b.From)
	assert.Equal(t, a.ID, b.To)
	assert.Equal(t, graph.Value{"value": "x"}, b.Value)

	ns := getLink(t, store, res.NamespaceID)
	assert.Equal(t, types.PackageNamespace, ns.Type)
	assert.Equal(t, "pkg", ns.ValueField())

	versions, err := store.Select(ctx, graph.Filter{Type: types.PackageVersion, To: res.PackageID})
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, res.NamespaceID, versions[0].From)
	assert.Equal(t, "1.0.0", versions[0].ValueField())

	active, err := store.Select(ctx, graph.Filter{Type: types.PackageActive, From: res.NamespaceID})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, res.PackageID, active[0].To)

	contains, err := store.Select(ctx, graph.Filter{Type: types.Contain, From: res.PackageID})
	require.NoError(t, err)
	named := make(map[string]int64)
	for _, c := range contains {
		named[c.ValueField().(string)] = c.To
	}
	assert.Equal(t, map[string]int64{"a": a.ID, "b": b.ID}, named)
}

func TestImport_ReusesNamespace(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := packager.New(store, packager.WithLogger(quietLogger()))

	first := p.Import(ctx, scenarioPackage())
	require.NoError(t, first.Err())

	next := scenarioPackage()
	next.Package.Version = "1.1.0"
	second := p.Import(ctx, next)
	require.NoError(t, second.Err())

	assert.Equal(t, first.NamespaceID, second.NamespaceID)
	assert.NotEqual(t, first.PackageID, second.PackageID)

	active, err := store.Select(ctx, graph.Filter{Type: types.PackageActive, From: first.NamespaceID})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	versions, err := store.Select(ctx, graph.Filter{Type: types.PackageVersion, From: first.NamespaceID})
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestImport_Validation(t *testing.T) {
	tests := []struct {
		name string
		pkg  *packager.Package
	}{
		{"nil package", nil},
		{"missing name", &packager.Package{Package: packager.Identifier{Version: "1.0.0"}}},
		{"missing version", &packager.Package{Package: packager.Identifier{Name: "pkg"}}},
		{"value without link", &packager.Package{
			Package: packager.Identifier{Name: "pkg", Version: "1.0.0"},
			Data: []packager.Item{
				&packager.ValueItem{ID: packager.StringID("ghost"), Value: graph.Value{"value": 1}},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{Client: newStore(t)}
			p := packager.New(rec, packager.WithLogger(quietLogger()))

			res := p.Import(context.Background(), tt.pkg)
			require.Len(t, res.Errors, 1)
			assert.ErrorIs(t, res.Errors[0], packager.ErrValidation)
			assert.Empty(t, res.IDs)
			assert.Empty(t, rec.reserved)
			assert.Empty(t, rec.links)
		})
	}
}

func TestImport_ValueItem(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{Client: store}
	p := packager.New(rec, packager.WithLogger(quietLogger()))

	res := p.Import(ctx, &packager.Package{
		Package: packager.Identifier{Name: "values", Version: "1.0.0"},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("a"), Type: packager.NumID(types.String)},
			&packager.ValueItem{ID: packager.StringID("a"), Value: graph.Value{"value": "late"}},
		},
	})
	require.NoError(t, res.Err())

	// one member, package, one contain, namespace, active, version,
	// namespace contain, plus two spare ids
	assert.Equal(t, []int{9}, rec.reserved)
	assert.Len(t, res.IDs, 7)

	a := getLink(t, store, res.Names["a"])
	assert.Equal(t, graph.Value{"value": "late"}, a.Value)
}

func TestImport_Dependency(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := packager.New(store, packager.WithLogger(quietLogger()))

	lib := p.Import(ctx, &packager.Package{
		Package: packager.Identifier{Name: "lib", Version: "1.0.0"},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("Foo"), Type: packager.NumID(types.String), Value: graph.Value{"value": "foo"}},
		},
	})
	require.NoError(t, lib.Err())

	rec := &recorder{Client: store}
	app := packager.New(rec, packager.WithLogger(quietLogger())).Import(ctx, &packager.Package{
		Package:      packager.Identifier{Name: "app", Version: "0.1.0"},
		Dependencies: map[int]packager.Identifier{1: {Name: "lib"}},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("y"), Type: packager.NumID(types.String), From: packager.StringID("x")},
			&packager.DependencyItem{ID: packager.StringID("x"), Dependency: packager.DependencyRef{DependencyID: 1, ContainValue: "Foo"}},
		},
	})
	require.NoError(t, app.Err())

	assert.Equal(t, lib.Names["Foo"], app.Names["x"])
	y := getLink(t, store, app.Names["y"])
	assert.Equal(t, lib.Names["Foo"], y.From)

	// one link, one placeholder, package, one contain, namespace, active,
	// version, namespace contain
	assert.Equal(t, []int{9}, rec.reserved)
	for _, l := range rec.links {
		assert.NotEqual(t, lib.Names["Foo"], l.ID, "placeholder must not be inserted")
		if l.Type == types.Contain && l.From == app.PackageID {
			assert.NotEqual(t, lib.Names["Foo"], l.To, "placeholder must not be contained")
		}
	}
}

func TestImport_DependencyVersion(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := packager.New(store, packager.WithLogger(quietLogger()))

	lib := func(version string) packager.Result {
		res := p.Import(ctx, &packager.Package{
			Package: packager.Identifier{Name: "lib", Version: version},
			Data: []packager.Item{
				&packager.LinkItem{ID: packager.StringID("Foo"), Type: packager.NumID(types.String), Value: graph.Value{"value": version}},
			},
		})
		require.NoError(t, res.Err())
		return res
	}
	v1 := lib("1.0.0")
	v2 := lib("2.0.0")

	app := func(version string) packager.Result {
		return p.Import(ctx, &packager.Package{
			Package:      packager.Identifier{Name: "app", Version: "0.1.0"},
			Dependencies: map[int]packager.Identifier{1: {Name: "lib", Version: version}},
			Data: []packager.Item{
				&packager.DependencyItem{ID: packager.StringID("x"), Dependency: packager.DependencyRef{DependencyID: 1, ContainValue: "Foo"}},
			},
		})
	}

	pinned := app("1.0.0")
	require.NoError(t, pinned.Err())
	assert.Equal(t, v1.Names["Foo"], pinned.Names["x"])

	latest := app("")
	require.NoError(t, latest.Err())
	assert.Equal(t, v2.Names["Foo"], latest.Names["x"])
}

func TestImport_DependencyNotFound(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{Client: store}
	p := packager.New(rec, packager.WithLogger(quietLogger()))

	res := p.Import(ctx, &packager.Package{
		Package:      packager.Identifier{Name: "app", Version: "1.0.0"},
		Dependencies: map[int]packager.Identifier{1: {Name: "otherpkg"}},
		Data: []packager.Item{
			&packager.DependencyItem{ID: packager.StringID("x"), Dependency: packager.DependencyRef{DependencyID: 1, ContainValue: "Foo"}},
			&packager.LinkItem{ID: packager.StringID("y"), Type: packager.StringID("x")},
		},
	})

	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], packager.ErrDependencyResolution)
	assert.Empty(t, res.IDs)
	assert.Empty(t, rec.links)
	assert.Empty(t, rec.values)
}

func TestImport_StoreFailureLeavesPartialState(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{Client: store, failInsert: 3}
	p := packager.New(rec, packager.WithLogger(quietLogger()))

	res := p.Import(ctx, scenarioPackage())
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], packager.ErrStore)
	assert.Empty(t, res.IDs)
	assert.Empty(t, res.Names)

	require.Len(t, rec.links, 2)
	for _, l := range rec.links {
		getLink(t, store, l.ID)
	}
}

func TestImport_UnresolvedStringRef(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := packager.New(store, packager.WithLogger(quietLogger()))

	res := p.Import(ctx, &packager.Package{
		Package: packager.Identifier{Name: "dangling", Version: "1.0.0"},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("a"), Type: packager.NumID(types.String), From: packager.StringID("nowhere")},
		},
	})
	require.NoError(t, res.Err())

	a := getLink(t, store, res.Names["a"])
	assert.Equal(t, types.String, a.Type)
	assert.Zero(t, a.From)
}

func TestImport_MissingValueTable(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{Client: store}
	p := packager.New(rec, packager.WithLogger(quietLogger()))

	res := p.Import(ctx, &packager.Package{
		Package: packager.Identifier{Name: "untabled", Version: "1.0.0"},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("T"), Type: packager.NumID(types.Type)},
			&packager.LinkItem{ID: packager.StringID("x"), Type: packager.StringID("T"), Value: graph.Value{"value": "v"}},
		},
	})
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], packager.ErrStore)
	assert.ErrorContains(t, res.Errors[0], "no value table")
	assert.Empty(t, res.IDs)

	// the link carrying the value was inserted before the table lookup failed
	require.NotEmpty(t, rec.links)
	last := rec.links[len(rec.links)-1]
	x := getLink(t, store, last.ID)
	assert.NotZero(t, x.Type)
	assert.Nil(t, x.Value)
	assert.NotContains(t, rec.values, last.ID)
	getLink(t, store, x.Type)
}

func TestImport_Strict(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rec := &recorder{Client: store}
	p := packager.New(rec, packager.WithLogger(quietLogger()))

	pkg := &packager.Package{
		Package: packager.Identifier{Name: "strict", Version: "1.0.0"},
		Strict:  true,
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("b"), Type: packager.NumID(types.String), From: packager.StringID("a")},
			&packager.LinkItem{ID: packager.StringID("a"), Type: packager.NumID(types.String)},
		},
	}
	res := p.Import(ctx, pkg)
	require.NoError(t, res.Err())

	// strict keeps the given order even though b references a
	assert.Equal(t, res.Names["b"], rec.links[0].ID)
	assert.Equal(t, res.Names["a"], rec.links[1].ID)
	assert.Equal(t, res.Names["a"], rec.links[0].From)

	rec.links = nil
	pkg.Strict = false
	pkg.Package.Name = "loose"
	res = p.Import(ctx, pkg)
	require.NoError(t, res.Err())
	assert.Less(t, indexOf(rec.links, res.Names["a"]), indexOf(rec.links, res.Names["b"]))
}

func indexOf(links []graph.Link, id int64) int {
	for i, l := range links {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func TestExport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newStore(t)
	target := newStore(t)

	original := &packager.Package{
		Package: packager.Identifier{Name: "shapes", Version: "2.3.0"},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("Shape"), Type: packager.NumID(types.String), Value: graph.Value{"value": "shape"}},
			&packager.LinkItem{
				ID:    packager.StringID("edge"),
				Type:  packager.NumID(types.String),
				From:  packager.StringID("Shape"),
				To:    packager.StringID("Shape"),
				Value: graph.Value{"value": "self"},
			},
			&packager.LinkItem{ID: packager.StringID("circle"), Type: packager.StringID("Shape"), From: packager.StringID("edge")},
		},
	}
	in := packager.New(source, packager.WithLogger(quietLogger())).Import(ctx, original)
	require.NoError(t, in.Err())

	exported, errs := packager.New(source, packager.WithLogger(quietLogger())).Export(ctx, packager.ExportOptions{PackageLinkID: in.PackageID})
	require.Empty(t, errs)
	assert.Equal(t, "shapes", exported.Package.Name)
	assert.Equal(t, "2.3.0", exported.Package.Version)
	assert.Equal(t, map[int]packager.Identifier{1: {Name: graph.CorePackage}}, exported.Dependencies)

	require.NotEmpty(t, exported.Data)
	dep, ok := exported.Data[0].(*packager.DependencyItem)
	require.True(t, ok, "dependency items come first")
	assert.Equal(t, packager.DependencyRef{DependencyID: 1, ContainValue: "String"}, dep.Dependency)

	var buf bytes.Buffer
	require.NoError(t, packager.WritePackage(&buf, exported))
	decoded, err := packager.ReadPackage(&buf)
	require.NoError(t, err)

	out := packager.New(target, packager.WithLogger(quietLogger())).Import(ctx, decoded)
	require.NoError(t, out.Err())

	shape := getLink(t, target, out.Names["Shape"])
	edge := getLink(t, target, out.Names["edge"])
	circle := getLink(t, target, out.Names["circle"])

	assert.Equal(t, types.String, shape.Type)
	assert.Equal(t, graph.Value{"value": "shape"}, shape.Value)
	assert.Equal(t, types.String, edge.Type)
	assert.Equal(t, shape.ID, edge.From)
	assert.Equal(t, shape.ID, edge.To)
	assert.Equal(t, graph.Value{"value": "self"}, edge.Value)
	assert.Equal(t, shape.ID, circle.Type)
	assert.Equal(t, edge.ID, circle.From)
	assert.Nil(t, circle.Value)

	again, errs := packager.New(target, packager.WithLogger(quietLogger())).Export(ctx, packager.ExportOptions{PackageLinkID: out.PackageID})
	require.Empty(t, errs)
	assert.ElementsMatch(t, itemIDs(exported), itemIDs(again))
}

func TestExport_Overrides(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := packager.New(store, packager.WithLogger(quietLogger()))

	in := p.Import(ctx, scenarioPackage())
	require.NoError(t, in.Err())

	pkg, errs := p.Export(ctx, packager.ExportOptions{PackageLinkID: in.PackageID, Name: "renamed", Version: "9.9.9"})
	require.Empty(t, errs)
	assert.Equal(t, packager.Identifier{Name: "renamed", Version: "9.9.9"}, pkg.Package)
}

func TestExport_UnnamedBoundary(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := packager.New(store, packager.WithLogger(quietLogger()))

	orphan, err := store.InsertLink(ctx, graph.Link{Type: types.Type})
	require.NoError(t, err)

	in := p.Import(ctx, &packager.Package{
		Package: packager.Identifier{Name: "orphaned", Version: "1.0.0"},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("a"), Type: packager.NumID(orphan)},
		},
	})
	require.NoError(t, in.Err())

	pkg, errs := p.Export(ctx, packager.ExportOptions{PackageLinkID: in.PackageID})
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], packager.ErrSerialization)
	require.NotNil(t, pkg)
	require.Len(t, pkg.Data, 1)
	item, ok := pkg.Data[0].(*packager.LinkItem)
	require.True(t, ok)
	assert.True(t, item.Type.IsZero())
}

func TestExport_KeepsValueFields(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := packager.New(store, packager.WithLogger(quietLogger()))

	value := graph.Value{"value": "x", "id": "keep", "link_id": "also"}
	in := p.Import(ctx, &packager.Package{
		Package: packager.Identifier{Name: "fields", Version: "1.0.0"},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("obj"), Type: packager.NumID(types.Object), Value: value},
		},
	})
	require.NoError(t, in.Err())

	pkg, errs := p.Export(ctx, packager.ExportOptions{PackageLinkID: in.PackageID})
	require.Empty(t, errs)
	item := findLinkItem(t, pkg, "obj")
	assert.Equal(t, value, item.Value)
}

func TestExport_MemberReferencesPackageLink(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := packager.New(store, packager.WithLogger(quietLogger()))

	in := p.Import(ctx, &packager.Package{
		Package: packager.Identifier{Name: "selfref", Version: "1.0.0"},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("a"), Type: packager.NumID(types.String)},
		},
	})
	require.NoError(t, in.Err())

	stringTable := graph.TableName(types.StringTable)
	extra, err := store.InsertLink(ctx, graph.Link{Type: types.String, From: in.PackageID})
	require.NoError(t, err)
	contain, err := store.InsertLink(ctx, graph.Link{Type: types.Contain, From: in.PackageID, To: extra})
	require.NoError(t, err)
	require.NoError(t, store.InsertValue(ctx, stringTable, contain, graph.Value{"value": "extra"}))

	pkg, errs := p.Export(ctx, packager.ExportOptions{PackageLinkID: in.PackageID})
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], packager.ErrSerialization)
	require.NotNil(t, pkg)
	assert.True(t, findLinkItem(t, pkg, "extra").From.IsZero())
	assert.False(t, findLinkItem(t, pkg, "a").Type.IsZero())
}

func TestExport_NonPackageRoot(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	p := packager.New(store, packager.WithLogger(quietLogger()))

	in := p.Import(ctx, &packager.Package{
		Package: packager.Identifier{Name: "widgets", Version: "1.0.0"},
		Data: []packager.Item{
			&packager.LinkItem{ID: packager.StringID("root"), Type: packager.NumID(types.Object)},
			&packager.LinkItem{ID: packager.StringID("leaf"), Type: packager.NumID(types.String), Value: graph.Value{"value": "hi"}},
			&packager.LinkItem{
				ID:    packager.StringID("label"),
				Type:  packager.NumID(types.Contain),
				From:  packager.StringID("root"),
				To:    packager.StringID("leaf"),
				Value: graph.Value{"value": "leaf"},
			},
		},
	})
	require.NoError(t, in.Err())

	pkg, errs := p.Export(ctx, packager.ExportOptions{PackageLinkID: in.Names["root"]})
	require.Empty(t, errs)
	assert.Equal(t, "widgets", pkg.Package.Name)
	assert.Equal(t, map[int]packager.Identifier{1: {Name: graph.CorePackage}}, pkg.Dependencies)

	deps := make(map[string]string)
	for _, it := range pkg.Data {
		if d, ok := it.(*packager.DependencyItem); ok {
			deps[d.ID.String()] = d.Dependency.ContainValue
		}
	}

	require.NotEmpty(t, pkg.Data)
	root, ok := pkg.Data[len(pkg.Data)-1].(*packager.LinkItem)
	require.True(t, ok, "root comes last")
	assert.NotEqual(t, "leaf", root.ID.String())
	assert.Equal(t, "Object", deps[root.Type.String()])
	assert.True(t, root.From.IsZero())

	leaf := findLinkItem(t, pkg, "leaf")
	assert.Equal(t, "String", deps[leaf.Type.String()])
	assert.Equal(t, graph.Value{"value": "hi"}, leaf.Value)
	for _, it := range pkg.Data {
		assert.NotEqual(t, "label", it.ItemID().String(), "naming edges are not exported")
	}
}

func TestExport_MissingRoot(t *testing.T) {
	p := packager.New(newStore(t), packager.WithLogger(quietLogger()))

	pkg, errs := p.Export(context.Background(), packager.ExportOptions{PackageLinkID: 999999})
	assert.Nil(t, pkg)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], packager.ErrSerialization)
}

func itemIDs(pkg *packager.Package) []string {
	ids := make([]string, 0, len(pkg.Data))
	for _, it := range pkg.Data {
		ids = append(ids, it.ItemID().String())
	}
	return ids
}

func findLinkItem(t *testing.T, pkg *packager.Package, id string) *packager.LinkItem {
	t.Helper()
	for _, it := range pkg.Data {
		if l, ok := it.(*packager.LinkItem); ok && l.ID.String() == id {
			return l
		}
	}
	require.Failf(t, "missing item", "no link item %q", id)
	return nil
}
