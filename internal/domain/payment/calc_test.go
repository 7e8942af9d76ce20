package payment

import (
	"testing"

	"taskpay/internal/domain/task"
)

func TestActivityTotal(t *testing.T) {
	tasks := []task.Task{
		{Hours: 4, Rate: 10},
		{Hours: 5, Rate: 20},
	}
	if got := ActivityTotal(tasks); got != 140 {
		t.Fatalf("expected 140, got %v", got)
	}
	if got := ActivityTotal(nil); got != 0 {
		t.Fatalf("expected 0 for no tasks, got %v", got)
	}
}

func TestComputeTotal(t *testing.T) {
	// 3h at 15 linked into a payment with the full set of adjustments.
	activity := ActivityTotal([]task.Task{{Hours: 3, Rate: 15}})
	total := ComputeTotal(2500, activity, 100, 50, 150, 500)
	if total != 2045 {
		t.Fatalf("expected 2045, got %v", total)
	}
}

func TestComputeTotalBareSalary(t *testing.T) {
	if got := ComputeTotal(1800, 0, 0, 0, 0, 0); got != 1800 {
		t.Fatalf("expected 1800, got %v", got)
	}
}
