package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/spendlens/internal/categorize"
	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/extract"
	"github.com/dvloznov/spendlens/internal/ledger"
	"github.com/dvloznov/spendlens/internal/logger"
)

// PipelineStep is a single step in processing one statement file.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds what the steps share while one file is processed.
type PipelineState struct {
	URI         string
	SourceFile  string
	Data        []byte
	Kind        extract.Kind
	ExtractedAt time.Time

	Transactions []domain.Transaction
	Stats        extract.Stats
	Rejected     int
	Enrich       categorize.EnrichStats
	Appended     ledger.AppendResult
}

// FetchStep loads the file bytes unless they were supplied with the source.
type FetchStep struct {
	Fetcher SourceFetcher
}

func (s *FetchStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Data != nil {
		return nil
	}
	if s.Fetcher == nil {
		return fmt.Errorf("FetchStep: no fetcher for %s", state.URI)
	}
	data, err := s.Fetcher.Fetch(ctx, state.URI)
	if err != nil {
		return fmt.Errorf("FetchStep: %w", err)
	}
	state.Data = data
	return nil
}

// DetectKindStep picks the extraction path from the file name.
type DetectKindStep struct{}

func (s *DetectKindStep) Execute(ctx context.Context, state *PipelineState) error {
	kind, err := extract.DetectKind(state.SourceFile)
	if err != nil {
		return fmt.Errorf("DetectKindStep: %s: %w", state.SourceFile, err)
	}
	state.Kind = kind
	return nil
}

// ExtractStep runs the extractor matching the file kind.
type ExtractStep struct {
	Columnar *extract.ColumnarExtractor
	Text     *extract.RowExtractor
	PDFRows  *extract.RowExtractor
	Records  *extract.RecordExtractor
	PDF      PDFReader
	Images   ImageReader
}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	var (
		txs   []domain.Transaction
		stats extract.Stats
	)

	switch state.Kind {
	case extract.KindCSV:
		table, err := extract.ParseCSV(bytes.NewReader(state.Data))
		if err != nil {
			return fmt.Errorf("ExtractStep: %w", err)
		}
		txs, stats = s.Columnar.Extract(ctx, state.SourceFile, table, state.ExtractedAt)

	case extract.KindXLS:
		table, err := extract.ParseXLS(state.Data)
		if err != nil {
			return fmt.Errorf("ExtractStep: %w", err)
		}
		txs, stats = s.Columnar.Extract(ctx, state.SourceFile, table, state.ExtractedAt)

	case extract.KindPDF:
		if s.PDF == nil {
			return fmt.Errorf("ExtractStep: %w: no PDF reader", extract.ErrUnsupportedSource)
		}
		pages, err := s.PDF.Fragments(state.Data)
		if err != nil {
			return fmt.Errorf("ExtractStep: %w", err)
		}
		lines := extract.ReconstructPages(pages)
		txs, stats = s.PDFRows.Extract(ctx, state.SourceFile, lines, state.ExtractedAt)

	case extract.KindText:
		lines := extract.SplitLines(string(state.Data))
		txs, stats = s.Text.Extract(ctx, state.SourceFile, lines, state.ExtractedAt)

	case extract.KindImage:
		if s.Images == nil {
			return fmt.Errorf("ExtractStep: %w: image extraction needs an oracle API key", extract.ErrUnsupportedSource)
		}
		records, err := s.Images.ExtractRecords(ctx, state.SourceFile, state.Data, extract.ImageMIMEType(state.SourceFile))
		if err != nil {
			return fmt.Errorf("ExtractStep: %w", err)
		}
		txs, stats = s.Records.Extract(ctx, state.SourceFile, records, state.ExtractedAt)

	default:
		return fmt.Errorf("ExtractStep: %w: %s", extract.ErrUnsupportedSource, state.Kind)
	}

	state.Transactions = txs
	state.Stats = stats
	return nil
}

// FilterStep drops transactions the validity filter rejects.
type FilterStep struct {
	Filter *ValidityFilter
}

func (s *FilterStep) Execute(ctx context.Context, state *PipelineState) error {
	kept, rejected := s.Filter.Apply(state.Transactions)
	if rejected > 0 {
		log := logger.FromContext(ctx)
		log.Debug().
			Str("source_file", state.SourceFile).
			Int("rejected", rejected).
			Msg("validity filter dropped transactions")
	}
	state.Transactions = kept
	state.Rejected = rejected
	return nil
}

// EnrichStep re-labels categories through the oracle. It never fails.
type EnrichStep struct {
	Enricher *categorize.Enricher
}

func (s *EnrichStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Transactions, state.Enrich = s.Enricher.Enrich(ctx, state.Transactions)
	return nil
}

// AppendStep appends the file's transactions to the store in one batch.
type AppendStep struct {
	Store Store
	Dedup bool
}

func (s *AppendStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Store == nil {
		return fmt.Errorf("AppendStep: no store configured")
	}
	res, err := s.Store.AppendBatch(ctx, state.Transactions, s.Dedup)
	if err != nil {
		return fmt.Errorf("AppendStep: %w", err)
	}
	state.Appended = res
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d cancelled: %w", i+1, err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
