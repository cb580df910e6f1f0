package ledger

import (
	"fmt"
	"strings"

	"github.com/dvloznov/spendlens/internal/domain"
)

// DedupKey identifies a transaction across uploads. Currency is part of the
// key so equal amounts in different currencies stay distinct.
func DedupKey(tx domain.Transaction) string {
	return fmt.Sprintf("%s|%s|%.2f|%s",
		tx.Date,
		strings.ToLower(strings.TrimSpace(tx.Description)),
		tx.Amount,
		tx.Currency,
	)
}

// Deduplicate keeps the first transaction for every key, preserving order.
// Applying it twice gives the same result as applying it once.
func Deduplicate(txs []domain.Transaction) []domain.Transaction {
	out, _ := dedupAgainst(nil, txs)
	return out
}

// dedupAgainst returns the incoming transactions whose key is neither in seen
// nor earlier in incoming, and how many were dropped. seen is extended with
// the keys of the returned transactions.
func dedupAgainst(seen map[string]struct{}, incoming []domain.Transaction) ([]domain.Transaction, int) {
	if seen == nil {
		seen = make(map[string]struct{}, len(incoming))
	}
	out := make([]domain.Transaction, 0, len(incoming))
	dropped := 0
	for _, tx := range incoming {
		key := DedupKey(tx)
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tx)
	}
	return out, dropped
}
