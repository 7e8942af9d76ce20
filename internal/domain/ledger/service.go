package ledger

import (
	"context"
	"sync"
	"time"

	"taskpay/internal/domain/payment"
	"taskpay/internal/domain/task"
	"taskpay/internal/platform/bus"
)

// Service derives statements and balances from the task and payment stores.
// It never stores ledger data of its own: every statement is recomputed from
// a fresh read, and the per-employee balance memo is dropped as soon as the
// bus signals a task or payment change.
type Service struct {
	tasks    task.StoreAPI
	payments payment.StoreAPI
	bus      *bus.Bus

	mu       sync.Mutex
	balances map[string]float64
	windows  map[string]Window
}

func NewService(tasks task.StoreAPI, payments payment.StoreAPI, b *bus.Bus) *Service {
	s := &Service{
		tasks:    tasks,
		payments: payments,
		bus:      b,
		balances: make(map[string]float64),
		windows:  make(map[string]Window),
	}
	if b != nil {
		b.Subscribe(bus.TopicTasksChanged, s.invalidate)
		b.Subscribe(bus.TopicPaymentsChanged, s.invalidate)
	}
	return s
}

// Statement builds the ledger for the window. A zero window means all time.
func (s *Service) Statement(ctx context.Context, employeeID string, window Window) (Statement, error) {
	tasks, err := s.tasks.List(ctx, employeeID, task.Filter{})
	if err != nil {
		return Statement{}, err
	}
	payments, err := s.payments.List(ctx, employeeID)
	if err != nil {
		return Statement{}, err
	}

	opening := 0.0
	if !window.From.IsZero() {
		// Carry the closing balance of everything before the window.
		prior := Build(tasks, payments, Window{To: window.From.Add(-time.Nanosecond)}, 0)
		opening = prior.ClosingBalance
	}
	return Build(tasks, payments, window, opening), nil
}

// Balance is the all-time closing balance for the employee. Zero means all
// approved work has been paid for; the value is memoized until the next
// change signal.
func (s *Service) Balance(ctx context.Context, employeeID string) (float64, error) {
	s.mu.Lock()
	if balance, ok := s.balances[employeeID]; ok {
		s.mu.Unlock()
		return balance, nil
	}
	s.mu.Unlock()

	stmt, err := s.Statement(ctx, employeeID, Window{})
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.balances[employeeID] = stmt.ClosingBalance
	s.mu.Unlock()
	return stmt.ClosingBalance, nil
}

// SetWindow records the active reporting window for an employee's views and
// broadcasts the change so open consumers recompute against it.
func (s *Service) SetWindow(employeeID string, window Window) {
	s.mu.Lock()
	s.windows[employeeID] = window
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(bus.Event{
			Topic:      bus.TopicWindowChanged,
			EmployeeID: employeeID,
			Action:     "window",
		})
	}
}

// ActiveWindow returns the employee's reporting window, defaulting to the
// month containing now.
func (s *Service) ActiveWindow(employeeID string, now time.Time) Window {
	s.mu.Lock()
	window, ok := s.windows[employeeID]
	s.mu.Unlock()
	if ok {
		return window
	}

	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return Window{From: from, To: from.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

func (s *Service) invalidate(evt bus.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if evt.EmployeeID == "" {
		s.balances = make(map[string]float64)
		return
	}
	delete(s.balances, evt.EmployeeID)
}
