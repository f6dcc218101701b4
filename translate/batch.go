package translate

import (
	"context"
	"fmt"

	"github.com/sg6/epub-translator/console"
)

// Batcher groups strings into batches of Size and translates them in order.
type Batcher struct {
	Translator Translator
	Source     string
	Target     string
	Size       int
	Log        *console.Logger
}

func (b *Batcher) size() int {
	if b.Size < 1 {
		return DefaultBatchSize
	}
	return b.Size
}

// Run translates texts in consecutive batches. After each batch, commit is
// called with the index of the batch's first string and the batch results,
// which hold exactly one entry per input string. A commit error or a
// cancelled ctx stops Run before the next batch.
func (b *Batcher) Run(ctx context.Context, texts []string, commit func(start int, results []Result) error) error {
	size := b.size()
	for start := 0; start < len(texts); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, len(texts))
		if end-start < size {
			b.Log.Debug("Translating final batch of %d texts.", end-start)
		} else {
			b.Log.Debug("Translating batch of %d texts.", size)
		}
		if err := commit(start, b.TranslateBatch(ctx, texts[start:end])); err != nil {
			return err
		}
	}
	return nil
}

// TranslateBatch translates each string in turn. A string that fails keeps
// its original text and carries a *TranslationError.
func (b *Batcher) TranslateBatch(ctx context.Context, texts []string) []Result {
	results := make([]Result, len(texts))
	for i, text := range texts {
		out, err := b.one(ctx, text)
		if err != nil {
			b.Log.Warn("Failed to translate text: %s Error: %v", console.Truncate(text, 30), err)
			results[i] = Result{Text: text, Err: &TranslationError{Text: text, Err: err}}
			continue
		}
		b.Log.Debug("Translated text: %s -> %s", console.Truncate(text, 30), console.Truncate(out, 30))
		results[i] = Result{Text: out}
	}
	return results
}

func (b *Batcher) one(ctx context.Context, text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()
	return b.Translator.Translate(ctx, text, b.Source, b.Target)
}
