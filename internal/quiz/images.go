package quiz

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Image is one embedded image registered for a run.
type Image struct {
	ID       string `json:"id"`
	Bytes    []byte `json:"-"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	MIMEType string `json:"mime_type"`
}

// Filename returns the resource filename for the image, derived from its id
// and mime type.
func (im Image) Filename() string {
	ext := ".png"
	switch im.MIMEType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/gif":
		ext = ".gif"
	case "image/bmp":
		ext = ".bmp"
	}
	return "img_" + im.ID + ext
}

// ImageRegistry holds every image seen during one conversion run, keyed by
// the fresh id minted when the image was registered.
type ImageRegistry struct {
	byID  map[string]Image
	order []string
}

func NewImageRegistry() *ImageRegistry {
	return &ImageRegistry{byID: map[string]Image{}}
}

// Register mints an id for the image, stores it, and returns the placeholder
// token to splice into the surrounding text.
func (r *ImageRegistry) Register(bytes []byte, width, height int, mimeType string) string {
	id := uuid.NewString()[:8]
	for _, exists := r.byID[id]; exists; _, exists = r.byID[id] {
		id = uuid.NewString()[:8]
	}
	r.byID[id] = Image{ID: id, Bytes: bytes, Width: width, Height: height, MIMEType: mimeType}
	r.order = append(r.order, id)
	return Placeholder(id)
}

func (r *ImageRegistry) Get(id string) (Image, bool) {
	im, ok := r.byID[id]
	return im, ok
}

// All returns registered images in registration order.
func (r *ImageRegistry) All() []Image {
	out := make([]Image, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *ImageRegistry) Len() int { return len(r.order) }

// Placeholder is the token embedded in stem/option text where an image sat.
func Placeholder(id string) string { return fmt.Sprintf("[[image:%s]]", id) }

var placeholderRe = regexp.MustCompile(`\[\[image:([0-9a-f-]+)\]\]`)

// RewritePlaceholders replaces every placeholder token in text using the
// supplied rewriter. Tokens whose id is unknown to the rewriter are left
// untouched so a failed image never corrupts surrounding text.
func RewritePlaceholders(text string, rewrite func(id string) (string, bool)) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(tok string) string {
		id := placeholderRe.FindStringSubmatch(tok)[1]
		if out, ok := rewrite(id); ok {
			return out
		}
		return tok
	})
}

// StripPlaceholders removes placeholder tokens, collapsing the surrounding
// whitespace. Used by backends with no image support.
func StripPlaceholders(text string) string {
	out := placeholderRe.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(out), " ")
}
