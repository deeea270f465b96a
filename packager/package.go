package packager

import (
	"encoding/json"
	"fmt"

	"github.com/jacentio/linkpkg/graph"
)

// Identifier names a package or a dependency.
type Identifier struct {
	Name    string `json:"name" validate:"required"`
	Version string `json:"version,omitempty" validate:"required"`
	URI     string `json:"uri,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Package is the portable form of a subgraph.
//
// Dependencies are keyed by the index that DependencyItem.Dependency
// refers to. When Strict is set, Data is imported in the given order.
type Package struct {
	Package      Identifier
	Data         []Item
	Dependencies map[int]Identifier
	Strict       bool
}

// Item is one entry of Package.Data: a *LinkItem, a *ValueItem or a
// *DependencyItem.
type Item interface {
	ItemID() ID
	item()
}

// LinkItem describes a link to create.
type LinkItem struct {
	ID    ID
	Type  ID
	From  ID
	To    ID
	Value graph.Value
}

// ValueItem attaches a value to a link described by a LinkItem with the
// same ID.
type ValueItem struct {
	ID    ID
	Value graph.Value
}

// DependencyItem stands for a link that already exists in another package.
// It is resolved at import time, never created.
type DependencyItem struct {
	ID         ID
	Dependency DependencyRef
}

// DependencyRef locates a link by the package that contains it and the
// value of that Contain edge.
type DependencyRef struct {
	DependencyID int    `json:"dependencyId"`
	ContainValue string `json:"containValue"`
}

func (i *LinkItem) ItemID() ID       { return i.ID }
func (i *ValueItem) ItemID() ID      { return i.ID }
func (i *DependencyItem) ItemID() ID { return i.ID }

func (*LinkItem) item()       {}
func (*ValueItem) item()      {}
func (*DependencyItem) item() {}

type wireItem struct {
	ID      ID             `json:"id"`
	Type    *ID            `json:"type,omitempty"`
	From    *ID            `json:"from,omitempty"`
	To      *ID            `json:"to,omitempty"`
	Value   graph.Value    `json:"value,omitempty"`
	Package *DependencyRef `json:"package,omitempty"`
}

type wirePackage struct {
	Package      Identifier         `json:"package"`
	Data         []wireItem         `json:"data"`
	Dependencies map[int]Identifier `json:"dependencies,omitempty"`
	Strict       bool               `json:"strict,omitempty"`
}

func optionalID(id ID) *ID {
	if id.IsZero() {
		return nil
	}
	return &id
}

func derefID(id *ID) ID {
	if id == nil {
		return ID{}
	}
	return *id
}

// MarshalJSON encodes the package in its wire format.
func (p Package) MarshalJSON() ([]byte, error) {
	w := wirePackage{
		Package:      p.Package,
		Data:         make([]wireItem, 0, len(p.Data)),
		Dependencies: p.Dependencies,
		Strict:       p.Strict,
	}
	for _, it := range p.Data {
		switch v := it.(type) {
		case *LinkItem:
			w.Data = append(w.Data, wireItem{
				ID:    v.ID,
				Type:  optionalID(v.Type),
				From:  optionalID(v.From),
				To:    optionalID(v.To),
				Value: v.Value,
			})
		case *ValueItem:
			w.Data = append(w.Data, wireItem{ID: v.ID, Value: v.Value})
		case *DependencyItem:
			ref := v.Dependency
			w.Data = append(w.Data, wireItem{ID: v.ID, Package: &ref})
		default:
			return nil, fmt.Errorf("unknown item %T", it)
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire format. An item with a "package" field is
// a DependencyItem; an item with a value and no type is a ValueItem; any
// other item is a LinkItem.
func (p *Package) UnmarshalJSON(data []byte) error {
	var w wirePackage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Package{
		Package:      w.Package,
		Dependencies: w.Dependencies,
		Strict:       w.Strict,
		Data:         make([]Item, 0, len(w.Data)),
	}
	for _, wi := range w.Data {
		typ := derefID(wi.Type)
		switch {
		case wi.Package != nil:
			out.Data = append(out.Data, &DependencyItem{ID: wi.ID, Dependency: *wi.Package})
		case wi.Value != nil && typ.IsZero():
			out.Data = append(out.Data, &ValueItem{ID: wi.ID, Value: wi.Value})
		default:
			out.Data = append(out.Data, &LinkItem{
				ID:    wi.ID,
				Type:  typ,
				From:  derefID(wi.From),
				To:    derefID(wi.To),
				Value: wi.Value,
			})
		}
	}
	*p = out
	return nil
}
