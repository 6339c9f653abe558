// Package blocks turns an uploaded document into the ordered block stream the
// structural parser consumes. A block is one paragraph/list-item-level unit of
// text with any images that sat inside it.
package blocks

import (
	"context"
	"fmt"
	"io"
)

// Image is one embedded image, not yet registered. Offset is the byte offset
// into the owning block's Text where the image originally appeared.
type Image struct {
	Bytes    []byte
	Width    int
	Height   int
	MIMEType string
	Offset   int
}

// Block is one unit of document text plus its inline images, owned by the
// caller for a single conversion run.
type Block struct {
	Text   string
	Images []Image
}

// Source reads a whole document of one format into an ordered block stream.
type Source interface {
	SupportedFormats() []string
	Read(ctx context.Context, r io.Reader) ([]Block, error)
}

// Registry maps a file extension (without dot, lowercase) to its Source.
type Registry struct {
	sources map[string]Source
}

func NewRegistry() *Registry {
	r := &Registry{sources: make(map[string]Source)}
	for _, s := range []Source{&TextSource{}, &DOCXSource{}, &XLSXSource{}, &PDFSource{}} {
		for _, f := range s.SupportedFormats() {
			r.sources[f] = s
		}
	}
	return r
}

func (r *Registry) Get(format string) (Source, error) {
	s, ok := r.sources[format]
	if !ok {
		return nil, fmt.Errorf("no block source for format: %s", format)
	}
	return s, nil
}

func (r *Registry) Register(format string, s Source) {
	r.sources[format] = s
}
