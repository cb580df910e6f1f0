package pipeline

import (
	"context"

	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/extract"
	"github.com/dvloznov/spendlens/internal/ledger"
)

// SourceFetcher loads statement files named by URI (local path or gs://).
type SourceFetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
	// Name returns the file name recorded as the transactions' SourceFile.
	Name(uri string) string
}

// PDFReader yields positional text fragments, one slice per page.
// This interface lets tests supply fragments without a real PDF.
type PDFReader interface {
	Fragments(data []byte) ([][]extract.Fragment, error)
}

// ImageReader transcribes a statement image into raw records.
type ImageReader interface {
	ExtractRecords(ctx context.Context, sourceFile string, image []byte, mime string) ([]extract.Record, error)
}

// Store receives each file's transactions as one atomic batch.
type Store interface {
	AppendBatch(ctx context.Context, txs []domain.Transaction, dedup bool) (ledger.AppendResult, error)
}

var _ Store = (*ledger.Ledger)(nil)
