package ledger

import (
	"math"
	"time"
)

// settledEpsilon is the dust threshold below which a balance counts as
// settled. The fold runs on float64, so a fully paid book can land a few
// ulps away from zero.
const settledEpsilon = 1e-9

// Settled reports whether a balance is zero for practical purposes.
func Settled(balance float64) bool {
	return math.Abs(balance) < settledEpsilon
}

type EntryKind string

const (
	KindTask    EntryKind = "task"
	KindPayment EntryKind = "payment"
)

// AccountEntry is one signed line of the derived ledger. Task value is owed
// (positive), a payment discharges owed value (negative). Entries are never
// persisted; they are a projection of the task and payment stores.
type AccountEntry struct {
	Date           time.Time `json:"date"`
	Description    string    `json:"description"`
	Kind           EntryKind `json:"kind"`
	Amount         float64   `json:"amount"`
	RunningBalance float64   `json:"runningBalance"`
}

// Window bounds a statement in time. A zero From or To leaves that side
// unbounded; the zero Window covers all time.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// Diagnostic flags a record that was excluded from the fold instead of
// crashing it, e.g. a task with no usable date.
type Diagnostic struct {
	Kind   EntryKind `json:"kind"`
	ID     string    `json:"id"`
	Reason string    `json:"reason"`
}

type Statement struct {
	Window          Window         `json:"window"`
	OpeningBalance  float64        `json:"openingBalance"`
	Entries         []AccountEntry `json:"entries"`
	TotalOwed       float64        `json:"totalOwed"`
	TotalDischarged float64        `json:"totalDischarged"`
	NetChange       float64        `json:"netChange"`
	ClosingBalance  float64        `json:"closingBalance"`
	Diagnostics     []Diagnostic   `json:"diagnostics,omitempty"`
}
