package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dvloznov/spendlens/internal/domain"
	"github.com/dvloznov/spendlens/internal/extract"
	"github.com/dvloznov/spendlens/internal/ledger"
)

var testNow = time.UnixMilli(1767225600000)

// MockFetcher serves files from memory.
type MockFetcher struct {
	Files     map[string][]byte
	FetchFunc func(ctx context.Context, uri string) ([]byte, error)
}

func (m *MockFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, uri)
	}
	data, ok := m.Files[uri]
	if !ok {
		return nil, fmt.Errorf("no such file %s", uri)
	}
	return data, nil
}

func (m *MockFetcher) Name(uri string) string {
	return path.Base(uri)
}

// MockPDFReader returns fixed fragments.
type MockPDFReader struct {
	FragmentsFunc func(data []byte) ([][]extract.Fragment, error)
}

func (m *MockPDFReader) Fragments(data []byte) ([][]extract.Fragment, error) {
	return m.FragmentsFunc(data)
}

// MockImageReader returns fixed records.
type MockImageReader struct {
	ExtractRecordsFunc func(ctx context.Context, sourceFile string, image []byte, mime string) ([]extract.Record, error)
}

func (m *MockImageReader) ExtractRecords(ctx context.Context, sourceFile string, image []byte, mime string) ([]extract.Record, error) {
	return m.ExtractRecordsFunc(ctx, sourceFile, image, mime)
}

// MockLabeler returns fixed category labels.
type MockLabeler struct {
	CategorizeFunc func(ctx context.Context, txs []domain.Transaction) ([]string, error)
}

func (m *MockLabeler) Categorize(ctx context.Context, txs []domain.Transaction) ([]string, error) {
	return m.CategorizeFunc(ctx, txs)
}

func newTestProcessor(l *ledger.Ledger, deps Dependencies, opts Options) *Processor {
	p := NewLedgerProcessor(l, deps, opts)
	p.now = func() time.Time { return testNow }
	return p
}

const febText = "Statement Period 01/01/2026 to 01/31/2026\n" +
	"02/07/2026 Netflix Subscription -15.99\n" +
	"02/09/2026 Payment declined Amazon -20.00\n" +
	"02/10/2026 Salary credit +2500.00\n"

func TestProcessFile_TextStatement(t *testing.T) {
	l := ledger.New()
	p := newTestProcessor(l, Dependencies{}, Options{Dedup: true})

	res := p.ProcessFile(context.Background(), Source{Name: "feb.txt", Data: []byte(febText)})
	if res.Err != nil {
		t.Fatalf("ProcessFile: %v", res.Err)
	}
	if res.Kind != extract.KindText {
		t.Errorf("Kind = %q", res.Kind)
	}
	if res.Extracted != 3 || res.Rejected != 1 || res.Added != 2 {
		t.Errorf("result = %+v", res)
	}

	got := l.All()
	want := []domain.Transaction{
		{
			ID: "feb.txt-1-1767225600000", Date: "2026-02-07", Description: "Netflix Subscription",
			Amount: -15.99, Currency: "USD", Category: domain.CategoryEntertainment, SourceFile: "feb.txt",
		},
		{
			ID: "feb.txt-3-1767225600000", Date: "2026-02-10", Description: "Salary credit",
			Amount: 2500, Currency: "USD", Category: domain.CategoryIncome, SourceFile: "feb.txt",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ledger mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessFile_SpendingOnly(t *testing.T) {
	l := ledger.New()
	p := newTestProcessor(l, Dependencies{}, Options{SpendingOnly: true})

	res := p.ProcessFile(context.Background(), Source{Name: "feb.txt", Data: []byte(febText)})
	if res.Err != nil {
		t.Fatalf("ProcessFile: %v", res.Err)
	}
	if res.Added != 1 || res.Rejected != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestProcessFile_NetflixDedupAcrossUploads(t *testing.T) {
	l := ledger.New()
	p := newTestProcessor(l, Dependencies{}, Options{Dedup: true})
	ctx := context.Background()

	csv := "Date,Description,Amount\n2026-02-07,Netflix Subscription,-15.99\n2026-02-08,Uber trip,-9.50\n"

	first := p.ProcessFile(ctx, Source{Name: "feb.txt", Data: []byte(febText)})
	second := p.ProcessFile(ctx, Source{Name: "feb-export.csv", Data: []byte(csv)})
	again := p.ProcessFile(ctx, Source{Name: "feb-export.csv", Data: []byte(csv)})

	for _, r := range []FileResult{first, second, again} {
		if r.Err != nil {
			t.Fatalf("%s: %v", r.SourceFile, r.Err)
		}
	}
	if second.Added != 1 || second.Duplicates != 1 {
		t.Errorf("second upload = %+v, want 1 added 1 duplicate", second)
	}
	if again.Added != 0 || again.Duplicates != 2 {
		t.Errorf("re-upload = %+v, want all duplicates", again)
	}
	if l.Len() != 3 {
		t.Errorf("ledger len = %d, want 3", l.Len())
	}
}

func TestProcessFile_WithoutDedup(t *testing.T) {
	l := ledger.New()
	p := newTestProcessor(l, Dependencies{}, Options{Dedup: false})
	ctx := context.Background()

	p.ProcessFile(ctx, Source{Name: "feb.txt", Data: []byte(febText)})
	p.ProcessFile(ctx, Source{Name: "feb.txt", Data: []byte(febText)})
	if l.Len() != 4 {
		t.Errorf("ledger len = %d, want 4", l.Len())
	}
}

func TestProcessFile_Enrichment(t *testing.T) {
	line := []byte("02/07/2026 Netflix Subscription -15.99\n")

	tests := []struct {
		name    string
		labeler *MockLabeler
		want    string
	}{
		{
			name: "oracle label applied",
			labeler: &MockLabeler{CategorizeFunc: func(ctx context.Context, txs []domain.Transaction) ([]string, error) {
				return []string{"subscriptions & software"}, nil
			}},
			want: domain.CategorySubscriptions,
		},
		{
			name: "oracle error keeps keyword category",
			labeler: &MockLabeler{CategorizeFunc: func(ctx context.Context, txs []domain.Transaction) ([]string, error) {
				return nil, errors.New("quota exceeded")
			}},
			want: domain.CategoryEntertainment,
		},
		{
			name: "unknown label rejected",
			labeler: &MockLabeler{CategorizeFunc: func(ctx context.Context, txs []domain.Transaction) ([]string, error) {
				return []string{"Streaming"}, nil
			}},
			want: domain.CategoryEntertainment,
		},
		{
			name: "oracle timeout keeps keyword category",
			labeler: &MockLabeler{CategorizeFunc: func(ctx context.Context, txs []domain.Transaction) ([]string, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}},
			want: domain.CategoryEntertainment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ledger.New()
			p := newTestProcessor(l, Dependencies{Labeler: tt.labeler}, Options{Enrich: true, OracleTimeout: 20 * time.Millisecond})

			res := p.ProcessFile(context.Background(), Source{Name: "feb.txt", Data: line})
			if res.Err != nil {
				t.Fatalf("ProcessFile: %v", res.Err)
			}
			got := l.All()
			if len(got) != 1 {
				t.Fatalf("ledger len = %d", len(got))
			}
			if got[0].Category != tt.want {
				t.Errorf("Category = %q, want %q", got[0].Category, tt.want)
			}
		})
	}
}

func TestProcessFile_EnrichDisabled(t *testing.T) {
	called := false
	labeler := &MockLabeler{CategorizeFunc: func(ctx context.Context, txs []domain.Transaction) ([]string, error) {
		called = true
		return nil, nil
	}}
	p := newTestProcessor(ledger.New(), Dependencies{Labeler: labeler}, Options{Enrich: false})
	p.ProcessFile(context.Background(), Source{Name: "feb.txt", Data: []byte(febText)})
	if called {
		t.Error("labeler called with enrichment disabled")
	}
}

func TestProcessFile_PDF(t *testing.T) {
	reader := &MockPDFReader{FragmentsFunc: func(data []byte) ([][]extract.Fragment, error) {
		return [][]extract.Fragment{{
			{Text: "15.99", X: 400, Y: 700},
			{Text: "02/07/2026", X: 50, Y: 700},
			{Text: "Netflix Subscription", X: 150, Y: 700},
			{Text: "02/09/2026", X: 50, Y: 680},
			{Text: "Refund Amazon", X: 150, Y: 680},
			{Text: "+20.00", X: 400, Y: 680},
		}}, nil
	}}
	l := ledger.New()
	p := newTestProcessor(l, Dependencies{PDF: reader}, Options{})

	res := p.ProcessFile(context.Background(), Source{Name: "feb.pdf", Data: []byte("%PDF")})
	if res.Err != nil {
		t.Fatalf("ProcessFile: %v", res.Err)
	}
	got := l.All()
	if len(got) != 2 {
		t.Fatalf("ledger = %+v", got)
	}
	if got[0].Amount != -15.99 {
		t.Errorf("unsigned PDF amount = %v, want expense", got[0].Amount)
	}
	if got[1].Amount != 20 {
		t.Errorf("explicit + amount = %v, want credit", got[1].Amount)
	}
}

func TestProcessFile_PDFReaderMissing(t *testing.T) {
	p := newTestProcessor(ledger.New(), Dependencies{}, Options{})
	res := p.ProcessFile(context.Background(), Source{Name: "feb.pdf", Data: []byte("%PDF")})
	if !errors.Is(res.Err, extract.ErrUnsupportedSource) {
		t.Errorf("err = %v", res.Err)
	}
}

func TestProcessFile_Image(t *testing.T) {
	var gotMIME string
	images := &MockImageReader{ExtractRecordsFunc: func(ctx context.Context, sourceFile string, image []byte, mime string) ([]extract.Record, error) {
		gotMIME = mime
		return []extract.Record{
			{Date: "Feb 07, 2026", Description: "Netflix Subscription", Amount: extract.FlexAmount{Value: -15.99, Valid: true}, Currency: "USD"},
			{Date: "2026-02-08", Description: "Careem ride", Amount: extract.FlexAmount{Value: -850, Valid: true}, Currency: "PKR"},
			{Date: "2026-02-09", Description: "Broken", Amount: extract.FlexAmount{}, Currency: "USD"},
		}, nil
	}}
	l := ledger.New()
	p := newTestProcessor(l, Dependencies{Images: images}, Options{})

	res := p.ProcessFile(context.Background(), Source{Name: "shot.PNG", Data: []byte{0x89}})
	if res.Err != nil {
		t.Fatalf("ProcessFile: %v", res.Err)
	}
	if gotMIME != "image/png" {
		t.Errorf("mime = %q", gotMIME)
	}
	got := l.All()
	if len(got) != 2 {
		t.Fatalf("ledger = %+v", got)
	}
	if got[0].Date != "2026-02-07" || got[1].Currency != domain.CurrencyPKR {
		t.Errorf("ledger = %+v", got)
	}
}

func TestProcessFile_ImageOracleFailure(t *testing.T) {
	images := &MockImageReader{ExtractRecordsFunc: func(ctx context.Context, sourceFile string, image []byte, mime string) ([]extract.Record, error) {
		return nil, errors.New("vision model unavailable")
	}}
	l := ledger.New()
	p := newTestProcessor(l, Dependencies{Images: images}, Options{})

	res := p.ProcessFile(context.Background(), Source{Name: "shot.png", Data: []byte{0x89}})
	if res.Err == nil {
		t.Fatal("expected error")
	}
	if l.Len() != 0 {
		t.Errorf("ledger len = %d, want 0", l.Len())
	}
}

func TestProcessFile_FetchedByURI(t *testing.T) {
	fetcher := &MockFetcher{Files: map[string][]byte{"gs://bucket/2026/feb.txt": []byte(febText)}}
	l := ledger.New()
	p := newTestProcessor(l, Dependencies{Fetcher: fetcher}, Options{})

	res := p.ProcessFile(context.Background(), Source{URI: "gs://bucket/2026/feb.txt"})
	if res.Err != nil {
		t.Fatalf("ProcessFile: %v", res.Err)
	}
	if res.SourceFile != "feb.txt" {
		t.Errorf("SourceFile = %q", res.SourceFile)
	}
	if len(l.BySource("feb.txt")) != 2 {
		t.Errorf("BySource = %+v", l.BySource("feb.txt"))
	}
}

func TestProcessBatch_PartialFailureIsolation(t *testing.T) {
	fetcher := &MockFetcher{Files: map[string][]byte{
		"/in/feb.txt": []byte(febText),
		"/in/mar.csv": []byte("Date,Description,Amount\n2026-03-07,Netflix Subscription,-15.99\n"),
		"/in/notes.docx": []byte("not a statement"),
	}}
	l := ledger.New()
	p := newTestProcessor(l, Dependencies{Fetcher: fetcher}, Options{Dedup: true, Workers: 2})

	results := p.ProcessBatch(context.Background(), []Source{
		{URI: "/in/feb.txt"},
		{URI: "/in/missing.csv"},
		{URI: "/in/mar.csv"},
		{URI: "/in/notes.docx"},
	})
	if len(results) != 4 {
		t.Fatalf("got %d results", len(results))
	}

	var failed []string
	for _, r := range Failed(results) {
		failed = append(failed, r.SourceFile)
	}
	sort.Strings(failed)
	if diff := cmp.Diff([]string{"missing.csv", "notes.docx"}, failed); diff != "" {
		t.Errorf("failed files mismatch (-want +got):\n%s", diff)
	}
	for _, r := range results {
		if r.SourceFile == "notes.docx" && !errors.Is(r.Err, extract.ErrUnsupportedSource) {
			t.Errorf("docx err = %v", r.Err)
		}
	}
	if l.Len() != 3 {
		t.Errorf("ledger len = %d, want 3", l.Len())
	}
}

func TestProcessFile_CancelledContext(t *testing.T) {
	l := ledger.New()
	p := newTestProcessor(l, Dependencies{}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.ProcessFile(ctx, Source{Name: "feb.txt", Data: []byte(febText)})
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", res.Err)
	}
	if l.Len() != 0 {
		t.Error("nothing should be appended after cancellation")
	}
}
