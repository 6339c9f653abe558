// Package pack bundles a backend's output into one distributable zip.
package pack

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"

	"github.com/OPS-PIvers/Doc2LMS/internal/export"
)

// ErrAssembly wraps any archive failure; assembly failures abort the run.
var ErrAssembly = errors.New("doc2lms: package assembly failed")

// Assemble writes the manifest and item documents at the archive root and
// the resource files under resources/.
func Assemble(res *export.Result) ([]byte, error) {
	if res == nil || len(res.Manifest.Data) == 0 {
		return nil, fmt.Errorf("%w: empty manifest", ErrAssembly)
	}
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	write := func(name string, data []byte) error {
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("%w: create %s: %v", ErrAssembly, name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("%w: write %s: %v", ErrAssembly, name, err)
		}
		return nil
	}

	if err := write(res.Manifest.Name, res.Manifest.Data); err != nil {
		return nil, err
	}
	for _, d := range res.Items {
		if err := write(d.Name, d.Data); err != nil {
			return nil, err
		}
	}
	for _, r := range res.Resources {
		if err := write("resources/"+r.Name, r.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssembly, err)
	}
	return buf.Bytes(), nil
}
