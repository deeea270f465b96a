package packager

import "errors"

var (
	// ErrValidation is returned when a package is malformed: a missing name
	// or version, or a value item with no link to attach to.
	ErrValidation = errors.New("packager: invalid package")

	// ErrDependencyResolution is returned when a dependency item matches no
	// link of the dependency package.
	ErrDependencyResolution = errors.New("packager: dependency not resolved")

	// ErrStore wraps failures reported by the graph store.
	ErrStore = errors.New("packager: store failure")

	// ErrSerialization is returned by Export for a boundary link that has no
	// named Contain edge from a package.
	ErrSerialization = errors.New("packager: cannot serialize link")
)
