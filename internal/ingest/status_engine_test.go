package ingest

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestComputeStatus(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	policy := DefaultStatusPolicy()

	tests := []struct {
		name    string
		opening *time.Time
		closing *time.Time
		want    Status
	}{
		{"no dates", nil, nil, StatusActive},

		{"closing far away", nil, date(2026, 9, 1), StatusActive},
		{"closing inside window", nil, date(2026, 4, 10), StatusClosingSoon},
		{"closing passed", nil, date(2026, 3, 10), StatusExpired},
		{"closing today still in window", nil, date(2026, 3, 15), StatusClosingSoon},
		{"fifty nine days out is soon", nil, date(2026, 5, 13), StatusClosingSoon},
		{"exactly sixty days out is still active", nil, date(2026, 5, 14), StatusActive},

		{"opening in future", date(2026, 4, 1), nil, StatusUpcoming},
		{"opening today", date(2026, 3, 15), nil, StatusActive},
		{"opening passed", date(2026, 2, 1), nil, StatusActive},

		{"both, not yet open", date(2026, 4, 1), date(2026, 10, 1), StatusUpcoming},
		{"both, open and far", date(2026, 1, 1), date(2026, 10, 1), StatusActive},
		{"both, open and closing soon", date(2026, 1, 1), date(2026, 4, 1), StatusClosingSoon},
		{"both, expired", date(2026, 1, 1), date(2026, 2, 1), StatusExpired},
		{"future opening beats past closing", date(2026, 4, 1), date(2026, 2, 1), StatusUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatus(tt.opening, tt.closing, today, policy)
			if got != tt.want {
				t.Errorf("ComputeStatus(%v, %v) = %q, want %q", tt.opening, tt.closing, got, tt.want)
			}
		})
	}
}

func TestComputeStatusTruncatesToday(t *testing.T) {
	// Late in the evening of the closing date the grant must not read
	// expired yet.
	today := time.Date(2026, 3, 15, 23, 50, 0, 0, time.UTC)
	got := ComputeStatus(nil, date(2026, 3, 15), today, DefaultStatusPolicy())
	if got != StatusClosingSoon {
		t.Errorf("got %q, want %q", got, StatusClosingSoon)
	}
}

func TestComputeStatusCustomWindow(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	policy := StatusPolicy{ClosingSoonDays: 7}

	if got := ComputeStatus(nil, date(2026, 3, 20), today, policy); got != StatusClosingSoon {
		t.Errorf("inside window: got %q, want %q", got, StatusClosingSoon)
	}
	if got := ComputeStatus(nil, date(2026, 3, 30), today, policy); got != StatusActive {
		t.Errorf("outside window: got %q, want %q", got, StatusActive)
	}
}
