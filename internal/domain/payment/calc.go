package payment

import "taskpay/internal/domain/task"

// ActivityTotal sums the monetary value of the tasks linked to a payment.
func ActivityTotal(tasks []task.Task) float64 {
	var total float64
	for _, t := range tasks {
		total += t.Value()
	}
	return total
}

// ComputeTotal applies the payment formula:
// base salary + task value + bonus + allowances - deductions - taxes.
// Every persisted payment satisfies Total == ComputeTotal of its parts.
func ComputeTotal(baseSalary, activityTotal, bonus, allowances, deductions, taxes float64) float64 {
	return baseSalary + activityTotal + bonus + allowances - deductions - taxes
}
