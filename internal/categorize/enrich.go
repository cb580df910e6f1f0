package categorize

import (
	"context"
	"time"

	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/logger"
)

// Labeler proposes one category label per transaction, in input order.
type Labeler interface {
	Categorize(ctx context.Context, txs []domain.Transaction) ([]string, error)
}

// EnrichStats reports what an enrichment pass changed.
type EnrichStats struct {
	Requested int
	Applied   int
	Rejected  int  // labels outside the category set
	Fallback  bool // the whole response was discarded
}

// Enricher re-labels transactions through a Labeler. It never fails: any
// error, timeout or malformed response keeps the keyword categories.
type Enricher struct {
	labeler Labeler
	timeout time.Duration
}

// NewEnricher returns an Enricher bounding each call by timeout (0 = none).
func NewEnricher(labeler Labeler, timeout time.Duration) *Enricher {
	return &Enricher{labeler: labeler, timeout: timeout}
}

// Enrich returns txs with oracle categories applied. On fallback the input
// slice itself is returned.
func (e *Enricher) Enrich(ctx context.Context, txs []domain.Transaction) ([]domain.Transaction, EnrichStats) {
	stats := EnrichStats{Requested: len(txs)}
	if e == nil || e.labeler == nil || len(txs) == 0 {
		return txs, stats
	}
	log := logger.FromContext(ctx)

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	labels, err := e.labeler.Categorize(callCtx, txs)
	if err != nil {
		log.Warn().Err(err).Int("transactions", len(txs)).Msg("categorization oracle failed, keeping keyword categories")
		stats.Fallback = true
		return txs, stats
	}
	if len(labels) != len(txs) {
		log.Warn().
			Int("transactions", len(txs)).
			Int("labels", len(labels)).
			Msg("categorization oracle returned mismatched label count, keeping keyword categories")
		stats.Fallback = true
		return txs, stats
	}

	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	for i, label := range labels {
		canonical, ok := domain.CanonicalCategory(label)
		if !ok {
			stats.Rejected++
			continue
		}
		if canonical != out[i].Category {
			out[i].Category = canonical
			stats.Applied++
		}
	}
	log.Debug().
		Int("applied", stats.Applied).
		Int("rejected", stats.Rejected).
		Msg("categorization enrichment complete")
	return out, stats
}
