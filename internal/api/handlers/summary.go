package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spendlens/internal/api/middleware"
	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/oracle"
	"github.com/dvloznov/spendlens/internal/summary"
)

// DefaultNarrativeTTL is how long a narrative stays cached.
const DefaultNarrativeTTL = 10 * time.Minute

// Narrator turns a report into prose. ok is false when text is a
// placeholder.
type Narrator interface {
	Narrative(ctx context.Context, r summary.Report) (text string, ok bool)
}

// SummaryResponse is the body of GET /api/summary.
type SummaryResponse struct {
	summary.Report
	Recurring []domain.Transaction `json:"recurring"`
}

// NarrativeResponse is the body of GET /api/summary/narrative.
type NarrativeResponse struct {
	Narrative string `json:"narrative"`
	Available bool   `json:"available"`
	Cached    bool   `json:"cached"`
}

// SummaryHandler serves aggregate views over the ledger.
type SummaryHandler struct {
	ledger   LedgerView
	narrator Narrator
	cache    *cache.Cache
	log      zerolog.Logger
}

// NewSummaryHandler creates a new summary handler. narrator may be nil, in
// which case the narrative endpoint returns the placeholder.
func NewSummaryHandler(l LedgerView, narrator Narrator, ttl time.Duration, log zerolog.Logger) *SummaryHandler {
	if ttl <= 0 {
		ttl = DefaultNarrativeTTL
	}
	return &SummaryHandler{
		ledger:   l,
		narrator: narrator,
		cache:    cache.New(ttl, 2*ttl),
		log:      log,
	}
}

// GetSummary handles GET /api/summary
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	txs := h.ledger.All()

	recurring := summary.DetectRecurring(txs)
	flagged := make([]domain.Transaction, 0)
	for _, tx := range recurring {
		if tx.IsRecurring {
			flagged = append(flagged, tx)
		}
	}

	middleware.WriteJSON(w, http.StatusOK, SummaryResponse{
		Report:    summary.Summarize(txs),
		Recurring: flagged,
	})
}

// GetNarrative handles GET /api/summary/narrative
// Narratives are cached per ledger version; placeholders are not cached.
func (h *SummaryHandler) GetNarrative(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txs, version := h.ledger.Snapshot()
	key := fmt.Sprintf("narrative:%d", version)

	if cached, found := h.cache.Get(key); found {
		middleware.WriteJSON(w, http.StatusOK, NarrativeResponse{
			Narrative: cached.(string),
			Available: true,
			Cached:    true,
		})
		return
	}

	if h.narrator == nil {
		middleware.WriteJSON(w, http.StatusOK, NarrativeResponse{Narrative: oracle.NarrativeUnavailable})
		return
	}

	text, ok := h.narrator.Narrative(ctx, summary.Summarize(txs))
	if ok {
		h.cache.SetDefault(key, text)
	} else {
		h.log.Warn().Str("key", key).Msg("Narrative unavailable")
	}

	middleware.WriteJSON(w, http.StatusOK, NarrativeResponse{
		Narrative: text,
		Available: ok,
	})
}
