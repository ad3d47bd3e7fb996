package ingest

import (
	"testing"
	"time"
)

func TestParseItalianDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"15/03/2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15-03-2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15.03.2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"1/9/2026", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		{"Scadenza: 15/03/2026 ore 12:00", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15 marzo 2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"1 GENNAIO 2027", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"entro il 30 Settembre 2026", time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)},
		{"2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2026/03/15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		// Day-first wins when both readings are plausible.
		{"03/04/2025", time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, ok := ParseItalianDate(tt.in)
		if !ok {
			t.Errorf("ParseItalianDate(%q): no date found", tt.in)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseItalianDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseItalianDateRejects(t *testing.T) {
	tests := []string{
		"",
		"prossimamente",
		"32/01/2026",
		"30/02/2026",
		"15/13/2026",
		"31/04/2026",
		"15/03/26", // two-digit years are ambiguous
		// A matched family that fails validation rejects the field,
		// later families are not consulted.
		"chiusura 31/04/2026, proroga al 15 marzo 2026",
	}

	for _, in := range tests {
		if got, ok := ParseItalianDate(in); ok {
			t.Errorf("ParseItalianDate(%q) = %v, expected no match", in, got)
		}
	}
}
