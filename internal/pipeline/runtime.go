package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/spendlens/internal/categorize"
	"github.com/dvloznov/spendlens/internal/config"
	"github.com/dvloznov/spendlens/internal/ledger"
	"github.com/dvloznov/spendlens/internal/oracle"
	"github.com/dvloznov/spendlens/internal/pdftext"
	"github.com/dvloznov/spendlens/internal/sources"
)

// Runtime is the set of collaborators built from a configuration, shared by
// the CLI and the API server.
type Runtime struct {
	Config  *config.Config
	Fetcher *sources.Fetcher
	Oracle  *oracle.Service
	Matcher *categorize.Matcher
}

// NewRuntime builds the collaborators cfg names. Without an API key the
// oracle service is still returned; its calls fail with
// oracle.ErrNotConfigured and enrichment is disabled.
func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	matcher, err := categorize.NewMatcherFromFile(cfg.Pipeline.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("NewRuntime: categories: %w", err)
	}

	var client oracle.Client
	if cfg.Oracle.Configured() {
		client, err = oracle.NewClient(ctx, cfg.Oracle)
		if err != nil {
			return nil, fmt.Errorf("NewRuntime: %w", err)
		}
	}

	return &Runtime{
		Config:  cfg,
		Fetcher: sources.NewFetcher(sources.GCSFactory(cfg.Storage.CredentialsFile)),
		Oracle:  oracle.NewService(client),
		Matcher: matcher,
	}, nil
}

// Dependencies returns the processor collaborators for store.
func (r *Runtime) Dependencies(store Store) Dependencies {
	deps := Dependencies{
		Fetcher: r.Fetcher,
		PDF:     pdftext.NewReader(),
		Images:  r.Oracle,
		Store:   store,
		Matcher: r.Matcher,
	}
	if r.Oracle.Configured() {
		deps.Labeler = r.Oracle
	}
	return deps
}

// NewProcessor builds a processor appending to l.
func (r *Runtime) NewProcessor(l *ledger.Ledger) *Processor {
	return NewProcessor(r.Dependencies(l), OptionsFromConfig(r.Config))
}

// Close releases the remote store.
func (r *Runtime) Close() error {
	return r.Fetcher.Close()
}
