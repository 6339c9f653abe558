// Package export defines the backend contract every package format
// implements, and the format-key registry they register into.
package export

import (
	"github.com/OPS-PIvers/Doc2LMS/internal/quiz"
)

// Document is one generated file of a package.
type Document struct {
	Name string
	Data []byte
}

// Resource is one binary file (an image) shipped alongside the documents.
type Resource struct {
	Name string
	Data []byte
}

// Result is everything a backend produces for one conversion: the manifest,
// the item documents, the renamed resource files, and any per-item warnings
// for items that had to be defaulted or skipped.
type Result struct {
	Manifest  Document
	Items     []Document
	Resources []Resource
	Warnings  []string
}

// Backend generates a target-format package from the IR. Implementations are
// pure: same IR and registry in, same documents out (resource filenames track
// the run's image ids). A backend must emit a structurally valid item even
// for incomplete input, preferring a defaulted gradable document over
// aborting the export; per-item failures drop the item and continue.
type Backend interface {
	Generate(items []quiz.QuestionAnswer, images *quiz.ImageRegistry, title string) (*Result, error)
}

// Registry of backends by format key (e.g. "imscc", "qti21", "moodle").
var registry = map[string]Backend{}

// Register a backend. Called from init() in format subpackages.
func Register(key string, b Backend) { registry[key] = b }

// Lookup returns a registered backend for a format key.
func Lookup(key string) (Backend, bool) { b, ok := registry[key]; return b, ok }

// Keys returns the registered format keys.
func Keys() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
