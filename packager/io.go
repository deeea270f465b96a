package packager

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadPackage decodes a package from r. ReadPackage does not close r.
func ReadPackage(r io.Reader) (*Package, error) {
	var pkg Package
	if err := json.NewDecoder(r).Decode(&pkg); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &pkg, nil
}

// WritePackage encodes pkg to w as indented JSON.
func WritePackage(w io.Writer, pkg *Package) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pkg); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadFile reads the package stored at path.
func ReadFile(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPackage(f)
}

// WriteFile writes pkg to path, replacing any existing file.
func WriteFile(path string, pkg *Package) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePackage(f, pkg); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ImportFile reads the package stored at path and imports it.
func (p *Packager) ImportFile(ctx context.Context, path string) Result {
	pkg, err := ReadFile(path)
	if err != nil {
		return failed(fmt.Errorf("%w: %w", ErrValidation, err))
	}
	return p.Import(ctx, pkg)
}
