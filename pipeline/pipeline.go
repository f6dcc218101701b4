// Package pipeline translates every content document of a book and writes
// the result into the output directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sg6/epub-translator/book"
	"github.com/sg6/epub-translator/console"
	"github.com/sg6/epub-translator/markup"
	"github.com/sg6/epub-translator/progress"
	"github.com/sg6/epub-translator/translate"
)

// Pipeline holds the settings of one translation run.
type Pipeline struct {
	Translator translate.Translator
	Source     string
	Target     string
	BatchSize  int
	Log        *console.Logger
	// Progress receives the completion percentage after every item.
	Progress progress.Sink
}

// Stats summarizes a run.
type Stats struct {
	Items     int
	Documents int
	// Units is the number of paragraphs sent for translation.
	Units int
	// Failed counts paragraphs kept in the source language because the
	// provider failed on them.
	Failed int
	// Kept counts documents left untouched because they could not be
	// processed.
	Kept int
}

// Translate returns a copy of pkg whose documents are translated. Items are
// processed one at a time in manifest order; a document that cannot be
// parsed or processed keeps its original bytes. The only error returned is
// the context's.
func (p *Pipeline) Translate(ctx context.Context, pkg *book.Package) (*book.Package, Stats, error) {
	batcher := &translate.Batcher{
		Translator: p.Translator,
		Source:     p.Source,
		Target:     p.Target,
		Size:       p.BatchSize,
		Log:        p.Log,
	}
	rep := progress.New(p.Progress)

	total := len(pkg.Items)
	stats := Stats{Items: total, Documents: len(pkg.Documents())}
	items := make([]*book.Item, 0, total)
	doc := 0
	for i, it := range pkg.Items {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		out := it.Clone()
		if it.Kind != book.Document {
			p.Log.Debug("Keeping %s (%s) as is.", it.Href, it.Kind)
		} else {
			doc++
			p.Log.Info("Translating %s... (%d/%d)", it.Href, doc, stats.Documents)
			content, n, err := p.document(ctx, batcher, it)
			if cerr := ctx.Err(); cerr != nil {
				return nil, stats, cerr
			}
			var ee *markup.ExtractionError
			switch {
			case err == nil:
				out.Content = content
				stats.Units += n.units
				stats.Failed += n.failed
			case errors.As(err, &ee):
				stats.Kept++
				p.Log.Warn("Failed to parse %s, keeping original: %v", it.Href, ee.Err)
			default:
				stats.Kept++
				p.Log.Warn("Failed to process %s, keeping original: %v", it.Href, err)
			}
		}
		items = append(items, out)
		rep.ReportAfterItem(i+1, total)
	}
	if total == 0 {
		rep.Empty()
	}
	return pkg.WithItems(items), stats, nil
}

// tally counts the paragraphs of one document.
type tally struct {
	units  int
	failed int
}

// document translates one content document and returns its new bytes. The
// tally is zero unless the document was translated.
func (p *Pipeline) document(ctx context.Context, b *translate.Batcher, it *book.Item) (content []byte, n tally, err error) {
	defer func() {
		if r := recover(); r != nil {
			content, n = nil, tally{}
			err = &ItemError{ID: it.ID, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	d, err := markup.ParseMedia(it.Content, it.MediaType)
	if err != nil {
		return nil, tally{}, err
	}
	units := d.Units()
	if len(units) == 0 {
		p.Log.Debug("No paragraphs found in %s.", it.Href)
		return it.Content, tally{}, nil
	}

	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}
	err = b.Run(ctx, texts, func(start int, results []translate.Result) error {
		for _, r := range results {
			if r.Err != nil {
				n.failed++
			}
		}
		n.units += len(results)
		return d.Apply(units[start:start+len(results)], translate.Texts(results))
	})
	if err == nil {
		content, err = d.Render()
	}
	if err != nil {
		return nil, tally{}, &ItemError{ID: it.ID, Err: err}
	}
	return content, n, nil
}
