package translate

import (
	"context"

	"golang.org/x/time/rate"
)

type paced struct {
	next    Translator
	limiter *rate.Limiter
}

// Paced spaces calls to t so that at most perSecond start each second.
// A non-positive perSecond returns t unchanged. Calls stay sequential.
func Paced(t Translator, perSecond float64) Translator {
	if perSecond <= 0 {
		return t
	}
	return &paced{next: t, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (p *paced) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return p.next.Translate(ctx, text, source, target)
}
