package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spendlens/internal/api/middleware"
	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/ledger"
)

// LedgerView is the part of the ledger the handlers read and mutate.
type LedgerView interface {
	All() []domain.Transaction
	BySource(sourceFile string) []domain.Transaction
	Sources() []ledger.SourceInfo
	RemoveSource(sourceFile string) (int, error)
	Reset()
	Snapshot() ([]domain.Transaction, uint64)
}

var _ LedgerView = (*ledger.Ledger)(nil)

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	ledger  LedgerView
	persist func() error
	log     zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler. persist, when
// not nil, is called after every mutation.
func NewTransactionsHandler(l LedgerView, persist func() error, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		ledger:  l,
		persist: persist,
		log:     log,
	}
}

// ListTransactions handles GET /api/transactions
// Optional filters: source, month (YYYY-MM), category, currency.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var txs []domain.Transaction
	if source := query.Get("source"); source != "" {
		txs = h.ledger.BySource(source)
	} else {
		txs = h.ledger.All()
	}

	month := query.Get("month")
	category := query.Get("category")
	currency := strings.ToUpper(query.Get("currency"))

	// Return array directly for frontend compatibility
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if month != "" && tx.Month() != month {
			continue
		}
		if category != "" && !strings.EqualFold(tx.Category, category) {
			continue
		}
		if currency != "" && tx.Currency != currency {
			continue
		}
		out = append(out, tx)
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// ListSources handles GET /api/sources
func (h *TransactionsHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	srcs := h.ledger.Sources()
	if srcs == nil {
		srcs = []ledger.SourceInfo{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"sources": srcs,
		"count":   len(srcs),
	})
}

// DeleteTransactions handles DELETE /api/transactions?source=
func (h *TransactionsHandler) DeleteTransactions(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		middleware.WriteError(w, http.StatusBadRequest, "source is required")
		return
	}

	removed, err := h.ledger.RemoveSource(source)
	if errors.Is(err, ledger.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "No transactions for source")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("source_file", source).Msg("Failed to remove transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to remove transactions")
		return
	}
	h.save()

	h.log.Info().Str("source_file", source).Int("removed", removed).Msg("Transactions removed")
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"source_file": source,
		"removed":     removed,
	})
}

// Reset handles POST /api/reset
func (h *TransactionsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.ledger.Reset()
	h.save()

	h.log.Info().Msg("Ledger reset")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *TransactionsHandler) save() {
	if h.persist == nil {
		return
	}
	if err := h.persist(); err != nil {
		h.log.Error().Err(err).Msg("Failed to persist ledger")
	}
}
