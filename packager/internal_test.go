package packager

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(nodes []*node) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.id.ID
	}
	return out
}

func TestSortNodes(t *testing.T) {
	tests := []struct {
		name  string
		nodes []*node
		want  []int64
	}{
		{
			name: "references point backwards",
			nodes: []*node{
				{id: local(3), from: local(2)},
				{id: local(2), from: local(1)},
				{id: local(1)},
			},
			want: []int64{1, 2, 3},
		},
		{
			name: "global refs are ignored",
			nodes: []*node{
				{id: local(1), typ: global(2)},
				{id: local(2), typ: global(1)},
			},
			want: []int64{2, 1},
		},
		{
			name: "dependencies form a prefix in order",
			nodes: []*node{
				{id: local(3), typ: local(1)},
				{kind: kindDependency, id: local(1)},
				{kind: kindDependency, id: local(2)},
			},
			want: []int64{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(sortNodes(false, tt.nodes)))
		})
	}
}

func TestSortNodes_ValueFollowsLink(t *testing.T) {
	a := &node{id: local(1)}
	b := &node{id: local(2), from: local(1)}
	v := &node{kind: kindValue, id: local(1)}

	sorted := sortNodes(false, []*node{a, b, v})
	require.Len(t, sorted, 3)
	assert.Same(t, a, sorted[0])
	assert.Same(t, v, sorted[1])
	assert.Same(t, b, sorted[2])
}

func TestSortNodes_Strict(t *testing.T) {
	nodes := []*node{
		{id: local(3), from: local(2)},
		{kind: kindValue, id: local(9)},
		{id: local(2), from: local(1)},
		{kind: kindDependency, id: local(1)},
	}
	assert.Equal(t, []int64{3, 9, 2, 1}, ids(sortNodes(true, nodes)))
}

func TestUpdateIDs(t *testing.T) {
	s := New(nil).session("test")

	// local 1 and the global type 1 must stay distinct
	a := &node{id: local(1), typ: global(1)}
	b := &node{id: local(2), typ: local(1), from: local(1), to: global(2)}
	v := &node{kind: kindValue, id: local(2)}

	assigned, err := s.updateIDs(context.Background(), &Package{}, []*node{a, b, v}, []int64{100, 101, 102})
	require.NoError(t, err)

	assert.Equal(t, map[int64]int64{1: 100, 2: 101}, assigned)
	assert.Equal(t, global(100), a.id)
	assert.Equal(t, global(1), a.typ)
	assert.Equal(t, global(101), b.id)
	assert.Equal(t, global(100), b.typ)
	assert.Equal(t, global(100), b.from)
	assert.Equal(t, global(2), b.to)
	assert.Equal(t, global(101), v.id)
}

func TestUpdateIDs_Exhausted(t *testing.T) {
	s := New(nil).session("test")
	nodes := []*node{{id: local(1)}, {id: local(2)}}

	_, err := s.updateIDs(context.Background(), &Package{}, nodes, []int64{100})
	assert.ErrorIs(t, err, ErrStore)
}

func TestPackageJSON(t *testing.T) {
	const wire = `{
		"package": {"name": "pkg", "version": "1.0.0"},
		"data": [
			{"id": "a", "type": 5},
			{"id": "b", "type": 5, "from": "a", "to": "a", "value": {"value": "x"}},
			{"id": "a", "value": {"value": 3}},
			{"id": 7, "package": {"dependencyId": 1, "containValue": "Foo"}}
		],
		"dependencies": {"1": {"name": "otherpkg"}},
		"strict": true
	}`

	var pkg Package
	require.NoError(t, json.Unmarshal([]byte(wire), &pkg))

	assert.Equal(t, Identifier{Name: "pkg", Version: "1.0.0"}, pkg.Package)
	assert.True(t, pkg.Strict)
	assert.Equal(t, map[int]Identifier{1: {Name: "otherpkg"}}, pkg.Dependencies)
	require.Len(t, pkg.Data, 4)

	link, ok := pkg.Data[1].(*LinkItem)
	require.True(t, ok)
	assert.Equal(t, StringID("b"), link.ID)
	assert.Equal(t, NumID(5), link.Type)
	assert.Equal(t, StringID("a"), link.From)

	_, ok = pkg.Data[2].(*ValueItem)
	assert.True(t, ok)

	dep, ok := pkg.Data[3].(*DependencyItem)
	require.True(t, ok)
	assert.Equal(t, NumID(7), dep.ID)
	assert.Equal(t, DependencyRef{DependencyID: 1, ContainValue: "Foo"}, dep.Dependency)

	out, err := json.Marshal(pkg)
	require.NoError(t, err)
	assert.JSONEq(t, wire, string(out))
}

func TestID_Memoization(t *testing.T) {
	assert.Equal(t, StringID("7").String(), NumID(7).String())
	assert.True(t, ID{}.IsZero())
	assert.True(t, NumID(0).IsZero())
	assert.False(t, StringID("0").IsZero())

	var id ID
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &id))
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}
