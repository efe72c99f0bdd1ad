package engine

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeSummary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "newlines flattened",
			in:   "The bridge holds.\nThe river does not. 🌊",
			want: "The bridge holds. The river does not. 🌊",
		},
		{
			name: "bullet markers stripped",
			in:   "• Gold rose\n- Festival planned\n– Heroes rested",
			want: "Gold rose Festival planned Heroes rested",
		},
		{
			name: "spaces collapsed and trimmed",
			in:   "  The   market    hums.  ",
			want: "The market hums.",
		},
		{
			name: "empty stays empty",
			in:   "",
			want: "",
		},
		{
			name: "whitespace only collapses to empty",
			in:   " \n \r ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSummary(tt.in); got != tt.want {
				t.Errorf("NormalizeSummary(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeSummaryCapsLength(t *testing.T) {
	got := NormalizeSummary(strings.Repeat("a", 300))

	if n := utf8.RuneCountInString(got); n != 220 {
		t.Errorf("length = %d runes, want 220", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("capped summary missing ellipsis: %q", got[len(got)-8:])
	}
}

func TestNormalizeSummaryCapTrimsTrailingSpace(t *testing.T) {
	in := strings.Repeat("a", 210) + strings.Repeat(" b", 40)

	got := NormalizeSummary(in)
	if strings.Contains(got, " …") {
		t.Errorf("ellipsis follows whitespace: %q", got)
	}
	if n := utf8.RuneCountInString(got); n > 220 {
		t.Errorf("length = %d runes, want <= 220", n)
	}
}
