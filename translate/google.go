package translate

import (
	"context"

	"github.com/bregydoc/gtranslate"
)

// Google translates through the public Google Translate endpoint.
type Google struct{}

func (Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return gtranslate.TranslateWithParams(text, gtranslate.TranslationParams{
		From:  source,
		To:    target,
		Tries: 1,
	})
}
