package task

import (
	"context"
	"fmt"
	"time"

	"taskpay/internal/platform/bus"
)

type Service struct {
	store StoreAPI
	bus   *bus.Bus
	now   func() time.Time
}

func NewService(store StoreAPI, b *bus.Bus) *Service {
	return &Service{store: store, bus: b, now: time.Now}
}

func (s *Service) List(ctx context.Context, employeeID string, filter Filter) ([]Task, error) {
	return s.store.List(ctx, employeeID, filter)
}

func (s *Service) Get(ctx context.Context, taskID string) (Task, error) {
	return s.store.Get(ctx, taskID)
}

// Available lists approved tasks not yet consumed by a payment. The batch
// builder re-reads this on every tasks.changed signal instead of caching.
func (s *Service) Available(ctx context.Context, employeeID string) ([]Task, error) {
	return s.store.ListAvailable(ctx, employeeID)
}

// Submit records a new unit of extra work. Submissions always enter the
// lifecycle as pending regardless of what the caller supplies.
func (s *Service) Submit(ctx context.Context, employeeID string, input NewTaskInput) (Task, error) {
	if employeeID == "" {
		return Task{}, fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	if input.Date.IsZero() {
		return Task{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if input.Hours < 0 || input.Rate < 0 {
		return Task{}, fmt.Errorf("%w: hours and rate must not be negative", ErrInvalidInput)
	}

	created, err := s.store.Create(ctx, Task{
		EmployeeID:  employeeID,
		Type:        input.Type,
		Description: input.Description,
		Date:        input.Date,
		Hours:       input.Hours,
		Rate:        input.Rate,
		Status:      StatusPending,
	})
	if err != nil {
		return Task{}, err
	}
	s.publish(created, "created")
	return created, nil
}

// Update patches a task's own fields. Status and payment linkage are never
// touched here; those move only through Approve/Reject and the payment flow.
// Once a task is linked into a payment its monetary fields are frozen, since
// the owning payment's totals were computed from them; the payment flow
// releases the task before it can change again.
func (s *Service) Update(ctx context.Context, taskID string, patch UpdateTaskInput) (Task, error) {
	current, err := s.store.Get(ctx, taskID)
	if err != nil {
		return Task{}, err
	}
	if !Mutable(current.Status) {
		return Task{}, fmt.Errorf("%w: %w", ErrInvalidTransition, ErrTaskPaid)
	}
	if current.Linked() && (patch.Date != nil || patch.Hours != nil || patch.Rate != nil) {
		return Task{}, fmt.Errorf("%w: edit the payment to change its task set", ErrTaskLinked)
	}

	if patch.Type != nil {
		current.Type = *patch.Type
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.Date != nil {
		if patch.Date.IsZero() {
			return Task{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
		}
		current.Date = *patch.Date
	}
	if patch.Hours != nil {
		if *patch.Hours < 0 {
			return Task{}, fmt.Errorf("%w: hours must not be negative", ErrInvalidInput)
		}
		current.Hours = *patch.Hours
	}
	if patch.Rate != nil {
		if *patch.Rate < 0 {
			return Task{}, fmt.Errorf("%w: rate must not be negative", ErrInvalidInput)
		}
		current.Rate = *patch.Rate
	}
	if patch.Version > 0 {
		current.Version = patch.Version
	}

	updated, err := s.store.Update(ctx, current)
	if err != nil {
		return Task{}, err
	}
	s.publish(updated, "updated")
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, taskID string) error {
	current, err := s.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !Mutable(current.Status) {
		return fmt.Errorf("%w: %w", ErrInvalidTransition, ErrTaskPaid)
	}
	if current.Linked() {
		return fmt.Errorf("%w: release it from its payment first", ErrTaskLinked)
	}
	if err := s.store.Delete(ctx, taskID); err != nil {
		return err
	}
	s.publish(current, "deleted")
	return nil
}

func (s *Service) Approve(ctx context.Context, taskID string) (Task, error) {
	return s.transition(ctx, taskID, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, taskID string) (Task, error) {
	return s.transition(ctx, taskID, StatusRejected)
}

func (s *Service) transition(ctx context.Context, taskID, to string) (Task, error) {
	current, err := s.store.Get(ctx, taskID)
	if err != nil {
		return Task{}, err
	}
	next, err := Transition(current, to, s.now())
	if err != nil {
		return Task{}, fmt.Errorf("%w: %s to %s", err, current.Status, to)
	}
	updated, err := s.store.Update(ctx, next)
	if err != nil {
		return Task{}, err
	}
	s.publish(updated, to)
	return updated, nil
}

func (s *Service) publish(t Task, action string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{
		Topic:      bus.TopicTasksChanged,
		EmployeeID: t.EmployeeID,
		EntityID:   t.ID,
		Action:     action,
	})
}
