package ingest

import "time"

// Status is the lifecycle state of a grant. The values are the product's
// Italian labels and are stored verbatim.
type Status string

const (
	StatusUpcoming    Status = "In uscita"
	StatusActive      Status = "Attivo"
	StatusClosingSoon Status = "In scadenza"
	StatusExpired     Status = "Scaduto"
)

// StatusPolicy tunes the lifecycle derivation.
type StatusPolicy struct {
	// ClosingSoonDays is the lead window before the closing date during
	// which a grant reads "In scadenza".
	ClosingSoonDays int
}

// DefaultStatusPolicy matches the production window.
func DefaultStatusPolicy() StatusPolicy {
	return StatusPolicy{ClosingSoonDays: 60}
}

// ComputeStatus derives the lifecycle status from the opening and closing
// dates. Comparisons are strict: on the closing date itself a grant is still
// "In scadenza", and on the opening date it is already "Attivo". today is
// truncated to midnight so intra-day times never shift the outcome.
func ComputeStatus(opening, closing *time.Time, today time.Time, policy StatusPolicy) Status {
	today = truncateToDay(today)

	switch {
	case opening == nil && closing == nil:
		return StatusActive

	case opening == nil:
		return statusFromClosing(*closing, today, policy)

	case closing == nil:
		if today.Before(truncateToDay(*opening)) {
			return StatusUpcoming
		}
		return StatusActive
	}

	if today.Before(truncateToDay(*opening)) {
		return StatusUpcoming
	}
	return statusFromClosing(*closing, today, policy)
}

func statusFromClosing(closing, today time.Time, policy StatusPolicy) Status {
	closing = truncateToDay(closing)
	if today.After(closing) {
		return StatusExpired
	}
	if today.After(closing.AddDate(0, 0, -policy.ClosingSoonDays)) {
		return StatusClosingSoon
	}
	return StatusActive
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
