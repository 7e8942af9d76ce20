package task

import "time"

// legalTransitions maps each status to the statuses it may move to.
// rejected and paid are terminal.
var legalTransitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusPaid},
	StatusRejected: {},
	StatusPaid:     {},
}

func CanTransition(from, to string) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns a copy of the task moved to the target status.
// Approving stamps ApprovedAt, which marks the task available to the
// payment batch builder. Moving to paid requires a linked payment and
// only happens while a payment is processed, so callers outside the
// payment flow never pass StatusPaid here.
func Transition(t Task, to string, now time.Time) (Task, error) {
	if !CanTransition(t.Status, to) {
		return t, ErrInvalidTransition
	}
	if to == StatusPaid && !t.Linked() {
		return t, ErrInvalidTransition
	}

	t.Status = to
	if to == StatusApproved {
		stamp := now
		t.ApprovedAt = &stamp
	}
	return t, nil
}

// Mutable reports whether a task may still be edited or deleted.
func Mutable(status string) bool {
	return status != StatusPaid
}

// Available reports whether a task can be pulled into a new payment batch.
func Available(t Task) bool {
	return t.Status == StatusApproved && !t.Linked()
}
