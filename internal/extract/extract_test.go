package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"march.csv", KindCSV, false},
		{"EXPORT.XLS", KindXLS, false},
		{"statement.pdf", KindPDF, false},
		{"notes.txt", KindText, false},
		{"screen.JPEG", KindImage, false},
		{"screen.webp", KindImage, false},
		{"archive.zip", "", true},
		{"noextension", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectKind(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectKind(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedSource) {
				t.Errorf("expected ErrUnsupportedSource, got %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectKind(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestImageMIMEType(t *testing.T) {
	if got := ImageMIMEType("a.PNG"); got != "image/png" {
		t.Errorf("got %q", got)
	}
	if got := ImageMIMEType("a.jpg"); got != "image/jpeg" {
		t.Errorf("got %q", got)
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"  Netflix   Subscription  ", "Netflix Subscription", true},
		{"- Careem ride", "Careem ride", true},
		{"– Hotel booking EUR", "Hotel booking", true},
		{"Tab\tseparated\nvalue", "Tab separated value", true},
		{"ab", "ab", true},
		{"a", "", false},
		{"  -  ", "", false},
		{"USD", "USD", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := CleanDescription(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("CleanDescription(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("CleanDescription(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanDescription_Truncates(t *testing.T) {
	got, ok := CleanDescription(strings.Repeat("é", 150))
	if !ok {
		t.Fatal("expected ok")
	}
	if n := len([]rune(got)); n != 100 {
		t.Errorf("got %d runes, want 100", n)
	}
}
