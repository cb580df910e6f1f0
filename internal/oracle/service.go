package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/spendlens/internal/categorize"
	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/extract"
	"github.com/dvloznov/spendlens/internal/logger"
	"github.com/dvloznov/spendlens/internal/summary"
)

// NarrativeUnavailable replaces the narrative when the oracle fails.
const NarrativeUnavailable = "summary unavailable"

// Service implements the three oracle contracts on top of a Client.
type Service struct {
	client Client
}

var _ categorize.Labeler = (*Service)(nil)

// NewService wraps client. A nil client yields ErrNotConfigured from every
// call.
func NewService(client Client) *Service {
	return &Service{client: client}
}

// Configured reports whether calls can reach a provider.
func (s *Service) Configured() bool {
	return s != nil && s.client != nil
}

// Categorize proposes one category label per transaction, in order. The
// labels are not validated here; categorize.Enricher does that.
func (s *Service) Categorize(ctx context.Context, txs []domain.Transaction) ([]string, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	raw, err := s.client.Generate(ctx, categorizePrompt(txs))
	if err != nil {
		return nil, fmt.Errorf("Categorize: %w", err)
	}
	var elems []json.RawMessage
	if err := FirstJSONArray(raw, &elems); err != nil {
		return nil, fmt.Errorf("Categorize: %w", err)
	}
	// A non-string element becomes "" so only that index is rejected.
	labels := make([]string, len(elems))
	for i, elem := range elems {
		var label string
		if err := json.Unmarshal(elem, &label); err == nil {
			labels[i] = label
		}
	}
	return labels, nil
}

// ExtractRecords transcribes a statement image. A provider error fails the
// call; a malformed answer yields no records and no error.
func (s *Service) ExtractRecords(ctx context.Context, sourceFile string, image []byte, mime string) ([]extract.Record, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	raw, err := s.client.Generate(ctx, imagePrompt(sourceFile, image, mime))
	if err != nil {
		return nil, fmt.Errorf("ExtractRecords: %s: %w", sourceFile, err)
	}

	var records []extract.Record
	if err := FirstJSONArray(raw, &records); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().
			Str("source_file", sourceFile).
			Int("response_bytes", len(raw)).
			Msg("image oracle returned no usable transactions")
		return nil, nil
	}
	return records, nil
}

// Narrative returns a plain-language reading of r. ok is false when the
// placeholder was returned instead.
func (s *Service) Narrative(ctx context.Context, r summary.Report) (text string, ok bool) {
	if !s.Configured() {
		return NarrativeUnavailable, false
	}
	out, err := s.client.Generate(ctx, narrativePrompt(r))
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("narrative oracle failed")
		return NarrativeUnavailable, false
	}
	return out, true
}
