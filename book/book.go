// Package book models an EPUB container: its metadata, manifest items,
// spine (reading order) and table of contents.
//
// A Package is read once from a zip file with [Open] or [Read], has the
// content of its Document items replaced by the translation pipeline, and is
// written back with [Write] or [WriteFile]. Everything the pipeline does not
// touch (the OPF package document, the navigation files, images, styles and
// any entry not listed in the manifest) is carried through byte for byte.
package book

import (
	"archive/zip"
	"strings"
)

// Kind discriminates manifest items.
type Kind int

const (
	// Other is any resource whose bytes pass through untouched.
	Other Kind = iota
	// Document is an XHTML content document whose text gets translated.
	Document
)

func (k Kind) String() string {
	if k == Document {
		return "document"
	}
	return "other"
}

// Item is one manifest entry.
type Item struct {
	ID         string
	Href       string
	MediaType  string
	Properties string
	Kind       Kind

	// Name is the zip entry path the item is stored under.
	Name string

	// Content holds the raw bytes: markup for a Document, opaque data otherwise.
	Content []byte
}

// Clone returns a copy of the item with its own content slice.
func (it *Item) Clone() *Item {
	c := *it
	c.Content = append([]byte(nil), it.Content...)
	return &c
}

// Metadata is the package metadata keyed by element name ("title",
// "language", "creator", ...). It is informational; the package document
// itself is written back verbatim.
type Metadata map[string][]string

// Get returns the first value for key, or "".
func (m Metadata) Get(key string) string {
	if v := m[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Package is an in-memory EPUB.
type Package struct {
	Metadata Metadata
	// Spine lists manifest ids in reading order.
	Spine []string
	// TOC is the manifest id of the navigation document (NCX or EPUB 3 nav),
	// or "" when the book has none.
	TOC string
	// Items are in manifest order.
	Items []*Item

	// entries is the zip layout of the source container, in original order.
	entries []entry
}

type entry struct {
	header zip.FileHeader
	// data is nil for entries backed by a manifest item.
	data []byte
}

// WithItems returns a package sharing p's metadata, spine, table of contents
// and container layout, holding items instead of p's items.
func (p *Package) WithItems(items []*Item) *Package {
	return &Package{
		Metadata: p.Metadata,
		Spine:    p.Spine,
		TOC:      p.TOC,
		Items:    items,
		entries:  p.entries,
	}
}

// Documents returns the Document items in manifest order.
func (p *Package) Documents() []*Item {
	var docs []*Item
	for _, it := range p.Items {
		if it.Kind == Document {
			docs = append(docs, it)
		}
	}
	return docs
}

// Item returns the item with the given manifest id.
func (p *Package) Item(id string) (*Item, bool) {
	for _, it := range p.Items {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

func classify(mediaType, properties string) Kind {
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "application/xhtml+xml", "text/html":
	default:
		return Other
	}
	for _, p := range strings.Fields(properties) {
		if p == "nav" {
			return Other
		}
	}
	return Document
}
