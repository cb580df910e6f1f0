// Package ledger holds the in-memory transaction set that uploads append to.
package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dvloznov/spendlens/internal/domain"
)

// ErrNotFound is returned when no transaction matches a removal request.
var ErrNotFound = errors.New("not found")

// AppendResult reports the outcome of one AppendBatch call.
type AppendResult struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
}

// SourceInfo summarizes the transactions contributed by one file.
type SourceInfo struct {
	SourceFile string `json:"sourceFile"`
	Count      int    `json:"count"`
}

// Ledger is an in-memory transaction set safe for concurrent use.
// Every mutation bumps Version so derived views can be cached.
type Ledger struct {
	mu      sync.RWMutex
	txs     []domain.Transaction
	version uint64
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// NewFromTransactions creates a ledger holding txs as given.
func NewFromTransactions(txs []domain.Transaction) *Ledger {
	l := &Ledger{txs: make([]domain.Transaction, len(txs))}
	copy(l.txs, txs)
	return l
}

// AppendBatch appends a parsed batch as one unit: readers see either none or
// all of it. With dedup, transactions whose key already exists in the ledger
// or earlier in the batch are dropped.
func (l *Ledger) AppendBatch(ctx context.Context, txs []domain.Transaction, dedup bool) (AppendResult, error) {
	if err := ctx.Err(); err != nil {
		return AppendResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	batch := txs
	dropped := 0
	if dedup {
		seen := make(map[string]struct{}, len(l.txs)+len(txs))
		for _, tx := range l.txs {
			seen[DedupKey(tx)] = struct{}{}
		}
		batch, dropped = dedupAgainst(seen, txs)
	}

	if len(batch) > 0 {
		l.txs = append(l.txs, batch...)
		l.version++
	}
	return AppendResult{Added: len(batch), Duplicates: dropped}, nil
}

// All returns a copy of every transaction in append order.
func (l *Ledger) All() []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

// Snapshot returns a copy of the transactions and the version they belong to.
func (l *Ledger) Snapshot() ([]domain.Transaction, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Transaction, len(l.txs))
	copy(out, l.txs)
	return out, l.version
}

// BySource returns a copy of the transactions from sourceFile.
func (l *Ledger) BySource(sourceFile string) []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range l.txs {
		if tx.SourceFile == sourceFile {
			out = append(out, tx)
		}
	}
	return out
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txs)
}

// Version changes whenever the transaction set changes.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// Sources lists contributing files sorted by name.
func (l *Ledger) Sources() []SourceInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int)
	for _, tx := range l.txs {
		counts[tx.SourceFile]++
	}
	out := make([]SourceInfo, 0, len(counts))
	for name, n := range counts {
		out = append(out, SourceInfo{SourceFile: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceFile < out[j].SourceFile })
	return out
}

// RemoveSource deletes every transaction from sourceFile and returns how many
// were removed.
func (l *Ledger) RemoveSource(sourceFile string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.txs[:0:0]
	for _, tx := range l.txs {
		if tx.SourceFile != sourceFile {
			kept = append(kept, tx)
		}
	}
	removed := len(l.txs) - len(kept)
	if removed == 0 {
		return 0, ErrNotFound
	}
	l.txs = kept
	l.version++
	return removed, nil
}

// Reset removes every transaction.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.txs = nil
	l.version++
}

// MarkRecurring sets the recurring flags of the transactions whose IDs are in
// periods and clears them everywhere else.
func (l *Ledger) MarkRecurring(periods map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.txs {
		period, ok := periods[l.txs[i].ID]
		l.txs[i].IsRecurring = ok
		l.txs[i].RecurringPeriod = period
	}
	l.version++
}
