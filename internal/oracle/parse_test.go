package oracle

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFirstJSONArray(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "bare", raw: `["a","b"]`, want: []string{"a", "b"}},
		{name: "fenced", raw: "```json\n[\"a\"]\n```", want: []string{"a"}},
		{name: "fence without language", raw: "```\n[\"a\"]\n```", want: []string{"a"}},
		{name: "surrounding prose", raw: `Sure! ["a","b"] Hope that helps [1]`, want: []string{"a", "b"}},
		{name: "skips wrong-typed array", raw: `[1,2] then ["x"]`, want: []string{"x"}},
		{name: "skips truncated array", raw: `[oops ["y"]`, want: []string{"y"}},
		{name: "empty array", raw: `[]`, want: []string{}},
		{name: "no array", raw: `{"a":1}`, wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "unterminated", raw: `["a",`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := FirstJSONArray(tt.raw, &got)
			if tt.wantErr {
				if !errors.Is(err, ErrNoJSONArray) {
					t.Errorf("err = %v, want ErrNoJSONArray", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FirstJSONArray: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
