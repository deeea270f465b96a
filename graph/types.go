package graph

// Types holds the ids of the reserved links every store carries: the link
// types the packager depends on and the value tables.
type Types struct {
	Type             int64
	Table            int64
	TableValue       int64
	Contain          int64
	Package          int64
	PackageNamespace int64
	PackageActive    int64
	PackageVersion   int64
	String           int64
	Number           int64
	Object           int64

	StringTable int64
	NumberTable int64
	ObjectTable int64
}

// DefaultTypes returns the reserved layout written by Seed.
func DefaultTypes() Types {
	return Types{
		Type:             1,
		Table:            2,
		TableValue:       3,
		Contain:          4,
		Package:          5,
		PackageNamespace: 6,
		PackageActive:    7,
		PackageVersion:   8,
		String:           9,
		Number:           10,
		Object:           11,
		StringTable:      12,
		NumberTable:      13,
		ObjectTable:      14,
	}
}

// CorePackage is the name of the package that owns the reserved links.
const CorePackage = "core"

// CoreVersion is the version Seed registers for CorePackage.
const CoreVersion = "1.0.0"

// reserved is one named reserved link.
type reserved struct {
	name string
	id   int64
	typ  int64
}

// reservedLinks lists the reserved links in insertion order.
func (t Types) reservedLinks() []reserved {
	return []reserved{
		{"Type", t.Type, t.Type},
		{"Table", t.Table, t.Type},
		{"TableValue", t.TableValue, t.Type},
		{"Contain", t.Contain, t.Type},
		{"Package", t.Package, t.Type},
		{"PackageNamespace", t.PackageNamespace, t.Type},
		{"PackageActive", t.PackageActive, t.Type},
		{"PackageVersion", t.PackageVersion, t.Type},
		{"String", t.String, t.Type},
		{"Number", t.Number, t.Type},
		{"Object", t.Object, t.Type},
		{"StringTable", t.StringTable, t.Table},
		{"NumberTable", t.NumberTable, t.Table},
		{"ObjectTable", t.ObjectTable, t.Table},
	}
}

// tableValue is one TableValue edge: values of typ are stored in table.
type tableValue struct {
	table int64
	typ   int64
}

// tableValues lists the TableValue edges Seed creates.
func (t Types) tableValues() []tableValue {
	return []tableValue{
		{t.StringTable, t.Contain},
		{t.StringTable, t.Package},
		{t.StringTable, t.PackageNamespace},
		{t.StringTable, t.PackageVersion},
		{t.StringTable, t.String},
		{t.NumberTable, t.Number},
		{t.ObjectTable, t.Object},
	}
}

// ReservedNames returns the Contain names of the reserved links, keyed by id.
func (t Types) ReservedNames() map[int64]string {
	out := make(map[int64]string)
	for _, r := range t.reservedLinks() {
		out[r.id] = r.name
	}
	return out
}
