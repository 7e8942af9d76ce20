package task

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"taskpay/internal/platform/bus"
)

type fakeStore struct {
	tasks  map[string]Task
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tasks: make(map[string]Task)}
}

func (f *fakeStore) List(_ context.Context, employeeID string, filter Filter) ([]Task, error) {
	var out []Task
	for _, t := range f.tasks {
		if t.EmployeeID != employeeID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, taskID string) (Task, error) {
	t, ok := f.tasks[taskID]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeStore) Create(_ context.Context, t Task) (Task, error) {
	f.nextID++
	t.ID = "t" + strconv.Itoa(f.nextID)
	t.Version = 1
	t.CreatedAt = time.Now()
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeStore) Update(_ context.Context, t Task) (Task, error) {
	stored, ok := f.tasks[t.ID]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	if stored.Version != t.Version {
		return Task{}, ErrStaleVersion
	}
	t.Version++
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeStore) Delete(_ context.Context, taskID string) error {
	stored, ok := f.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if stored.Status == StatusPaid {
		return ErrTaskPaid
	}
	delete(f.tasks, taskID)
	return nil
}

func (f *fakeStore) ListAvailable(_ context.Context, employeeID string) ([]Task, error) {
	var out []Task
	for _, t := range f.tasks {
		if t.EmployeeID == employeeID && Available(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func submitTask(t *testing.T, svc *Service) Task {
	t.Helper()
	created, err := svc.Submit(context.Background(), "emp-1", NewTaskInput{
		Type:        "overtime",
		Description: "weekend deploy",
		Date:        time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC),
		Hours:       3,
		Rate:        15,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return created
}

func TestSubmitStartsPending(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	created := submitTask(t, svc)

	if created.Status != StatusPending {
		t.Fatalf("expected pending, got %s", created.Status)
	}
	if created.Value() != 45 {
		t.Fatalf("expected value 45, got %v", created.Value())
	}
}

func TestSubmitRejectsNegativeNumbers(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	_, err := svc.Submit(context.Background(), "emp-1", NewTaskInput{
		Date:  time.Now(),
		Hours: -1,
		Rate:  10,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestApproveThenRejectFails(t *testing.T) {
	svc := NewService(newFakeStore(), nil)
	created := submitTask(t, svc)

	approved, err := svc.Approve(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != StatusApproved || approved.ApprovedAt == nil {
		t.Fatalf("expected approved with stamp, got %+v", approved)
	}

	if _, err := svc.Reject(context.Background(), created.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPaidTaskIsImmutable(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	created := submitTask(t, svc)

	paymentID := "p1"
	stored := store.tasks[created.ID]
	stored.Status = StatusPaid
	stored.PaymentID = &paymentID
	store.tasks[created.ID] = stored

	hours := 5.0
	if _, err := svc.Update(context.Background(), created.ID, UpdateTaskInput{Hours: &hours}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on edit, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on delete, got %v", err)
	}
	if got := store.tasks[created.ID]; got.Hours != 3 || got.Status != StatusPaid {
		t.Fatalf("paid task was mutated: %+v", got)
	}
}

func TestLinkedTaskFreezesMonetaryFields(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	created := submitTask(t, svc)

	if _, err := svc.Approve(context.Background(), created.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Claimed by a draft payment whose total was computed from 3h at 15.
	paymentID := "p1"
	stored := store.tasks[created.ID]
	stored.PaymentID = &paymentID
	store.tasks[created.ID] = stored

	hours := 10.0
	if _, err := svc.Update(context.Background(), created.ID, UpdateTaskInput{Hours: &hours}); !errors.Is(err, ErrTaskLinked) {
		t.Fatalf("expected ErrTaskLinked on hours edit, got %v", err)
	}
	rate := 20.0
	if _, err := svc.Update(context.Background(), created.ID, UpdateTaskInput{Rate: &rate}); !errors.Is(err, ErrTaskLinked) {
		t.Fatalf("expected ErrTaskLinked on rate edit, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, ErrTaskLinked) {
		t.Fatalf("expected ErrTaskLinked on delete, got %v", err)
	}
	if got := store.tasks[created.ID]; got.Value() != 45 {
		t.Fatalf("linked task value changed: %+v", got)
	}

	// Wording fixes stay possible while linked.
	desc := "weekend deploy and rollback"
	updated, err := svc.Update(context.Background(), created.ID, UpdateTaskInput{Description: &desc})
	if err != nil {
		t.Fatalf("description edit failed: %v", err)
	}
	if updated.Description != desc || updated.Value() != 45 {
		t.Fatalf("expected description-only change, got %+v", updated)
	}
}

func TestStaleVersionRejected(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	created := submitTask(t, svc)

	hours := 4.0
	if _, err := svc.Update(context.Background(), created.ID, UpdateTaskInput{Hours: &hours}); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	// Second writer still holds the original version.
	if _, err := svc.Update(context.Background(), created.ID, UpdateTaskInput{Hours: &hours, Version: created.Version}); !errors.Is(err, ErrStaleVersion) {
		t.Fatalf("expected ErrStaleVersion, got %v", err)
	}
}

func TestMutationsPublishTasksChanged(t *testing.T) {
	b := bus.New()
	var events []string
	b.Subscribe(bus.TopicTasksChanged, func(evt bus.Event) {
		events = append(events, evt.Action)
	})

	svc := NewService(newFakeStore(), b)
	created := submitTask(t, svc)
	if _, err := svc.Approve(context.Background(), created.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	want := []string{"created", StatusApproved, "deleted"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected event %d to be %s, got %s", i, want[i], events[i])
		}
	}
}
