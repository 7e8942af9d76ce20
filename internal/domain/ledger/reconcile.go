package ledger

import (
	"fmt"
	"sort"

	"taskpay/internal/domain/payment"
	"taskpay/internal/domain/task"
)

// Build folds the given tasks and payments into a chronological statement
// for the window, starting from the opening balance.
//
// Only approved and paid tasks carry owed value; pending and rejected tasks
// never enter the ledger. A payment discharges the task-derived portion of
// its total (the activity total) once it is paid; base salary and manual
// adjustments settle outside this account. With that rule, the all-time
// balance of an employee whose approved work is fully paid folds to zero,
// and a nonzero balance reads directly as unpaid work (positive) or
// overpayment (negative).
func Build(tasks []task.Task, payments []payment.Payment, window Window, opening float64) Statement {
	stmt := Statement{Window: window, OpeningBalance: opening}

	var entries []AccountEntry
	for _, t := range tasks {
		if t.Status != task.StatusApproved && t.Status != task.StatusPaid {
			continue
		}
		if t.Date.IsZero() {
			stmt.Diagnostics = append(stmt.Diagnostics, Diagnostic{
				Kind:   KindTask,
				ID:     t.ID,
				Reason: "task has no usable date",
			})
			continue
		}
		if !window.Contains(t.Date) {
			continue
		}
		entries = append(entries, AccountEntry{
			Date:        t.Date,
			Description: taskDescription(t),
			Kind:        KindTask,
			Amount:      t.Value(),
		})
	}

	for _, p := range payments {
		if p.Status != payment.StatusPaid {
			continue
		}
		if p.Date.IsZero() {
			stmt.Diagnostics = append(stmt.Diagnostics, Diagnostic{
				Kind:   KindPayment,
				ID:     p.ID,
				Reason: "payment has no usable date",
			})
			continue
		}
		if !window.Contains(p.Date) {
			continue
		}
		if p.ActivityTotal == 0 {
			continue
		}
		entries = append(entries, AccountEntry{
			Date:        p.Date,
			Description: fmt.Sprintf("payment %s", p.Month),
			Kind:        KindPayment,
			Amount:      -p.ActivityTotal,
		})
	}

	// Stable sort keeps task lines ahead of the payment that covers them
	// when both fall on the same day.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	balance := opening
	for i := range entries {
		balance += entries[i].Amount
		entries[i].RunningBalance = balance
		if entries[i].Amount >= 0 {
			stmt.TotalOwed += entries[i].Amount
		} else {
			stmt.TotalDischarged += -entries[i].Amount
		}
	}

	stmt.Entries = entries
	stmt.NetChange = stmt.TotalOwed - stmt.TotalDischarged
	stmt.ClosingBalance = balance
	return stmt
}

func taskDescription(t task.Task) string {
	if t.Description != "" {
		return t.Description
	}
	if t.Type != "" {
		return t.Type
	}
	return "task"
}
