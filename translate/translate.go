// Package translate sends paragraph text to a translation provider in
// fixed-size batches, one string at a time, and never lets a single failed
// string affect its neighbours.
package translate

import (
	"context"
	"fmt"
)

// DefaultBatchSize is the number of strings grouped into one batch.
const DefaultBatchSize = 5

// Translator translates a single string between two language codes.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Func adapts a function to Translator.
type Func func(ctx context.Context, text, source, target string) (string, error)

func (f Func) Translate(ctx context.Context, text, source, target string) (string, error) {
	return f(ctx, text, source, target)
}

// TranslationError reports one string the provider could not translate.
type TranslationError struct {
	Text string
	Err  error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate %q: %v", e.Text, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// Result is the outcome for one string: the translation, or the original
// text together with the error that prevented translating it.
type Result struct {
	Text string
	Err  error
}

// Texts returns the text of each result, in order.
func Texts(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Text
	}
	return out
}
