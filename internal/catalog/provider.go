package catalog

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang.org/x/time/rate"

	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/models"
)

const maxQueryLength = 120

// Searcher is the record store capability the picker needs.
type Searcher interface {
	SearchProducts(ctx context.Context, query string) ([]models.Product, error)
}

// Provider answers picker searches. It is called only when the operator submits a query.
type Provider struct {
	searcher Searcher
	limiter  *rate.Limiter
	logg     *logger.Logger
}

// NewProvider wraps searcher with an outbound limiter. rps <= 0 disables limiting.
func NewProvider(searcher Searcher, rps float64, burst int, logg *logger.Logger) *Provider {
	var limiter *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Provider{searcher: searcher, limiter: limiter, logg: logg}
}

// Search returns the matching products. An empty query yields the unfiltered page.
// Failures are retryable and leave any caller-held state untouched.
func (p *Provider) Search(ctx context.Context, query string) ([]models.Product, error) {
	if p == nil || p.searcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog search not configured")
	}
	q := NormalizeQuery(query)
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "catalog search cancelled")
		}
	}
	products, err := p.searcher.SearchProducts(ctx, q)
	if err != nil {
		if p.logg != nil {
			p.logg.Error(p.logg.WithField(ctx, "query", q), "catalog search failed", err)
		}
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeTransport, err, "failed to fetch products")
		}
		return nil, err
	}
	return products, nil
}

func NormalizeQuery(query string) string {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) > maxQueryLength {
		q = string([]rune(q)[:maxQueryLength])
	}
	return q
}
