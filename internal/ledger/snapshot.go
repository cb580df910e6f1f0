package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dvloznov/spendlens/internal/domain"
)

// WriteJSON writes every transaction as a JSON array.
func (l *Ledger) WriteJSON(w io.Writer) error {
	txs := l.All()
	if txs == nil {
		txs = []domain.Transaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txs); err != nil {
		return fmt.Errorf("WriteJSON: encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON array written by WriteJSON.
func ReadJSON(r io.Reader) (*Ledger, error) {
	var txs []domain.Transaction
	if err := json.NewDecoder(r).Decode(&txs); err != nil {
		return nil, fmt.Errorf("ReadJSON: decode: %w", err)
	}
	return NewFromTransactions(txs), nil
}

// SaveFile writes the snapshot to path through a temporary file so a crash
// never leaves a truncated snapshot behind.
func (l *Ledger) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("SaveFile: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("SaveFile: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := l.WriteJSON(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("SaveFile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("SaveFile: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("SaveFile: rename: %w", err)
	}
	return nil
}

// LoadFile reads a snapshot from path. A missing file yields an empty ledger.
func LoadFile(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("LoadFile: open %s: %w", path, err)
	}
	defer f.Close()

	l, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: %s: %w", path, err)
	}
	return l, nil
}
