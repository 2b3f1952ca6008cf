package formatting_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/verbatim/pkg/formatting"
)

type result struct {
	ID        int64  `json:"id"`
	Sentiment string `json:"sentiment"`
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
	}{
		{"direct array", `[{"id":1,"sentiment":"Positive"}]`, 1},
		{"padded", "  \n[{\"id\":1},{\"id\":2}]\n ", 2},
		{"json fence", "```json\n[{\"id\":3}]\n```", 1},
		{"bare fence", "```\n[{\"id\":3},{\"id\":4}]\n```", 2},
		{"prose around array", "Here are the results:\n[{\"id\":5}]\nLet me know if you need more.", 1},
		{"empty array", "[]", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.Parse[[]result](tt.input)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestParseObjectEmbedded(t *testing.T) {
	got, err := formatting.Parse[result](`Sure. {"id":9,"sentiment":"Negative"} Done.`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got.ID != 9 || got.Sentiment != "Negative" {
		t.Errorf("got %+v", got)
	}
}

func TestParseFailure(t *testing.T) {
	tests := []string{
		"",
		"no json here",
		"```json\nnot json\n```",
		`[{"id": "wrong type"}]`,
	}

	for _, input := range tests {
		_, err := formatting.Parse[[]result](input)
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("Parse(%q) error = %v, want ErrParseFailed", input, err)
		}
	}
}
