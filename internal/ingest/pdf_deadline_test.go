package ingest

import (
	"testing"
	"time"
)

func TestDateCandidatesFromText(t *testing.T) {
	text := `Le domande possono essere presentate dal 01/04/2026.
	Termine ultimo per la presentazione: 30 giugno 2026, ore 12:00.
	Decreto pubblicato il 2026-02-10.`

	got := dateCandidatesFromText(text)
	want := []time.Time{
		time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("candidate %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPickDeadline(t *testing.T) {
	today := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	candidates := []time.Time{
		time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	}

	got := pickDeadline(candidates, today)
	if got == nil || !got.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v, want first future candidate", got)
	}

	if pickDeadline(candidates[:1], today) != nil {
		t.Error("all-past candidates must yield nil")
	}
	if pickDeadline(nil, today) != nil {
		t.Error("no candidates must yield nil")
	}
}
