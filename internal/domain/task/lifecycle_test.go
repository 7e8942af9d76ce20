package task

import (
	"errors"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPaid, false},
		{StatusApproved, StatusPaid, true},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusPending, false},
		{StatusPaid, StatusApproved, false},
		{StatusPaid, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTransitionApproveStampsAvailability(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	work := Task{Status: StatusPending, Hours: 3, Rate: 15}

	approved, err := Transition(work, StatusApproved, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.ApprovedAt == nil || !approved.ApprovedAt.Equal(now) {
		t.Fatal("expected ApprovedAt to be stamped")
	}
}

func TestTransitionInvalidDoesNotMutate(t *testing.T) {
	work := Task{Status: StatusRejected}

	result, err := Transition(work, StatusApproved, time.Now())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if result.Status != StatusRejected {
		t.Fatalf("status corrupted on invalid transition: %s", result.Status)
	}
}

func TestTransitionPaidRequiresLinkedPayment(t *testing.T) {
	work := Task{Status: StatusApproved}
	if _, err := Transition(work, StatusPaid, time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for unlinked task, got %v", err)
	}

	paymentID := "p1"
	work.PaymentID = &paymentID
	paid, err := Transition(work, StatusPaid, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid.Status != StatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}
}

func TestMutable(t *testing.T) {
	for _, status := range []string{StatusPending, StatusApproved, StatusRejected} {
		if !Mutable(status) {
			t.Errorf("expected %s to be mutable", status)
		}
	}
	if Mutable(StatusPaid) {
		t.Error("paid tasks must never be mutable")
	}
}

func TestAvailable(t *testing.T) {
	paymentID := "p1"
	cases := []struct {
		name string
		task Task
		want bool
	}{
		{"approved unlinked", Task{Status: StatusApproved}, true},
		{"approved linked", Task{Status: StatusApproved, PaymentID: &paymentID}, false},
		{"pending", Task{Status: StatusPending}, false},
		{"paid", Task{Status: StatusPaid, PaymentID: &paymentID}, false},
	}
	for _, tc := range cases {
		if got := Available(tc.task); got != tc.want {
			t.Errorf("%s: Available = %v, want %v", tc.name, got, tc.want)
		}
	}
}
