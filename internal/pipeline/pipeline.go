// Package pipeline runs statement files through extraction, the validity
// filter, optional oracle enrichment and the ledger append.
package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/dvloznov/spendlens/internal/categorize"
	"github.com/dvloznov/spendlens/internal/config"
	"github.com/dvloznov/spendlens/internal/extract"
	"github.com/dvloznov/spendlens/internal/ledger"
	"github.com/dvloznov/spendlens/internal/logger"
)

// Options control policy, not format handling.
type Options struct {
	SpendingOnly  bool
	Dedup         bool
	Enrich        bool
	Workers       int
	MinLineLength int
	OracleTimeout time.Duration
}

// OptionsFromConfig maps the configuration onto pipeline options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SpendingOnly:  cfg.Pipeline.SpendingOnly,
		Dedup:         cfg.Pipeline.Dedup,
		Enrich:        cfg.Pipeline.Enrich,
		Workers:       cfg.Pipeline.Workers,
		MinLineLength: cfg.Pipeline.MinLineLength,
		OracleTimeout: cfg.Oracle.Timeout,
	}
}

// Dependencies are the collaborators a Processor uses. Only Store is
// required; a missing Fetcher limits input to in-memory sources, a missing
// PDF or Images reader fails those kinds per file, and a missing Labeler
// disables enrichment.
type Dependencies struct {
	Fetcher  SourceFetcher
	PDF      PDFReader
	Images   ImageReader
	Labeler  categorize.Labeler
	Store    Store
	Matcher  *categorize.Matcher
	SkipList *extract.SkipList
}

// Source is one file to process. When Data is nil the file is fetched
// from URI.
type Source struct {
	URI  string
	Name string
	Data []byte
}

// FileResult reports what processing one file did. Err is set when the
// file failed; the other fields are then partial.
type FileResult struct {
	URI        string
	SourceFile string
	Kind       extract.Kind
	Extracted  int
	Rejected   int
	Added      int
	Duplicates int
	Stats      extract.Stats
	Enrich     categorize.EnrichStats
	Err        error
}

// Processor processes statement files. It is safe for concurrent use.
type Processor struct {
	fetcher SourceFetcher
	store   Store
	extract *ExtractStep
	filter  *ValidityFilter
	enrich  *categorize.Enricher
	opts    Options
	now     func() time.Time
}

// NewProcessor creates a processor.
func NewProcessor(deps Dependencies, opts Options) *Processor {
	matcher := deps.Matcher
	if matcher == nil {
		matcher = categorize.DefaultMatcher()
	}
	skip := deps.SkipList
	if skip == nil {
		skip = extract.DefaultSkipList()
	}
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.OracleTimeout <= 0 {
		opts.OracleTimeout = DefaultOracleTimeout
	}
	minLine := opts.MinLineLength
	if minLine <= 0 {
		minLine = extract.DefaultMinLineLength
	}

	p := &Processor{
		fetcher: deps.Fetcher,
		store:   deps.Store,
		extract: &ExtractStep{
			Columnar: extract.NewColumnarExtractor(matcher),
			Text: extract.NewRowExtractor(matcher,
				extract.WithSkipList(skip),
				extract.WithMinLineLength(minLine)),
			PDFRows: extract.NewRowExtractor(matcher,
				extract.WithSkipList(skip),
				extract.WithMinLineLength(minLine),
				extract.WithSignConvention(extract.SignExpenseUnlessPositive)),
			Records: extract.NewRecordExtractor(matcher),
			PDF:     deps.PDF,
			Images:  deps.Images,
		},
		filter: NewValidityFilter(opts.SpendingOnly),
		opts:   opts,
		now:    time.Now,
	}
	if opts.Enrich && deps.Labeler != nil {
		p.enrich = categorize.NewEnricher(deps.Labeler, opts.OracleTimeout)
	}
	return p
}

// ProcessFile runs one source through the full pipeline and appends its
// transactions to the store.
func (p *Processor) ProcessFile(ctx context.Context, src Source) FileResult {
	name := src.Name
	if name == "" {
		if p.fetcher != nil {
			name = p.fetcher.Name(src.URI)
		} else {
			name = filepath.Base(src.URI)
		}
	}

	log := logger.FromContext(ctx).With().Str("source_file", name).Logger()
	ctx = logger.WithContext(ctx, log)

	state := &PipelineState{
		URI:         src.URI,
		SourceFile:  name,
		Data:        src.Data,
		ExtractedAt: p.now(),
	}
	err := p.newFilePipeline().Execute(ctx, state)

	res := FileResult{
		URI:        src.URI,
		SourceFile: name,
		Kind:       state.Kind,
		Extracted:  state.Stats.Emitted,
		Rejected:   state.Rejected,
		Added:      state.Appended.Added,
		Duplicates: state.Appended.Duplicates,
		Stats:      state.Stats,
		Enrich:     state.Enrich,
		Err:        err,
	}
	if err != nil {
		log.Error().Err(err).Msg("file processing failed")
		return res
	}
	log.Info().
		Str("kind", string(res.Kind)).
		Int("extracted", res.Extracted).
		Int("rejected", res.Rejected).
		Int("added", res.Added).
		Int("duplicates", res.Duplicates).
		Msg("file processed")
	return res
}

// newFilePipeline assembles the per-file steps.
func (p *Processor) newFilePipeline() *Pipeline {
	steps := []PipelineStep{
		&FetchStep{Fetcher: p.fetcher},
		&DetectKindStep{},
		p.extract,
		&FilterStep{Filter: p.filter},
	}
	if p.enrich != nil {
		steps = append(steps, &EnrichStep{Enricher: p.enrich})
	}
	steps = append(steps, &AppendStep{Store: p.store, Dedup: p.opts.Dedup})
	return NewPipeline(steps...)
}

// NewLedgerProcessor is NewProcessor with an in-memory ledger as the store.
func NewLedgerProcessor(l *ledger.Ledger, deps Dependencies, opts Options) *Processor {
	deps.Store = l
	return NewProcessor(deps, opts)
}
