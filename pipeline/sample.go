package pipeline

import (
	"github.com/sg6/epub-translator/book"
	"github.com/sg6/epub-translator/markup"
)

// Sample returns up to n paragraphs from the start of the book, in reading
// order. Documents missing from the spine follow in manifest order.
// Documents that cannot be parsed are skipped.
func Sample(pkg *book.Package, n int) []string {
	var out []string
	for _, it := range readingOrder(pkg) {
		d, err := markup.ParseMedia(it.Content, it.MediaType)
		if err != nil {
			continue
		}
		for _, u := range d.Units() {
			if len(out) == n {
				return out
			}
			out = append(out, u.Text)
		}
	}
	return out
}

func readingOrder(pkg *book.Package) []*book.Item {
	var docs []*book.Item
	seen := make(map[string]bool)
	for _, id := range pkg.Spine {
		if it, ok := pkg.Item(id); ok && it.Kind == book.Document && !seen[id] {
			seen[id] = true
			docs = append(docs, it)
		}
	}
	for _, it := range pkg.Documents() {
		if !seen[it.ID] {
			docs = append(docs, it)
		}
	}
	return docs
}
