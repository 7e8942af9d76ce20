package payment

import (
	"context"
	"fmt"

	"taskpay/internal/domain/task"
	"taskpay/internal/platform/bus"
)

// Service is the payment batch builder: it aggregates approved tasks plus
// manual adjustments into payment records and owns the payment lifecycle.
type Service struct {
	store StoreAPI
	tasks task.StoreAPI
	bus   *bus.Bus
}

func NewService(store StoreAPI, tasks task.StoreAPI, b *bus.Bus) *Service {
	return &Service{store: store, tasks: tasks, bus: b}
}

func (s *Service) List(ctx context.Context, employeeID string) ([]Payment, error) {
	return s.store.List(ctx, employeeID)
}

func (s *Service) Get(ctx context.Context, paymentID string) (Payment, error) {
	return s.store.Get(ctx, paymentID)
}

// Create builds a payment batch. All payments start as draft; submission is
// an explicit separate step.
func (s *Service) Create(ctx context.Context, employeeID string, input Input) (Payment, error) {
	if err := validateInput(employeeID, input); err != nil {
		return Payment{}, err
	}

	selected, err := s.selectedTasks(ctx, employeeID, input.TaskIDs)
	if err != nil {
		return Payment{}, err
	}

	activityTotal := ActivityTotal(selected)
	p := Payment{
		EmployeeID:    employeeID,
		Month:         input.Month,
		Date:          input.Date,
		DueDate:       input.DueDate,
		BaseSalary:    input.BaseSalary,
		ActivityTotal: activityTotal,
		Bonus:         input.Bonus,
		Allowances:    input.Allowances,
		Deductions:    input.Deductions,
		Taxes:         input.Taxes,
		Total:         ComputeTotal(input.BaseSalary, activityTotal, input.Bonus, input.Allowances, input.Deductions, input.Taxes),
		Status:        StatusDraft,
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
	}

	created, err := s.store.CreateWithTasks(ctx, p, input.TaskIDs)
	if err != nil {
		return Payment{}, err
	}
	s.publish(created, "created")
	s.publishTasks(created, "linked")
	return created, nil
}

// Edit recomputes the batch from the new inputs and relinks the task set.
// Paid payments are immutable.
func (s *Service) Edit(ctx context.Context, paymentID string, input Input) (Payment, error) {
	current, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	if current.Status == StatusPaid {
		return Payment{}, ErrPaymentPaid
	}
	if err := validateInput(current.EmployeeID, input); err != nil {
		return Payment{}, err
	}

	selected, err := s.selectedTasks(ctx, current.EmployeeID, input.TaskIDs)
	if err != nil {
		return Payment{}, err
	}

	activityTotal := ActivityTotal(selected)
	current.Month = input.Month
	current.Date = input.Date
	current.DueDate = input.DueDate
	current.BaseSalary = input.BaseSalary
	current.ActivityTotal = activityTotal
	current.Bonus = input.Bonus
	current.Allowances = input.Allowances
	current.Deductions = input.Deductions
	current.Taxes = input.Taxes
	current.Total = ComputeTotal(input.BaseSalary, activityTotal, input.Bonus, input.Allowances, input.Deductions, input.Taxes)
	current.PaymentMethod = input.PaymentMethod
	current.Notes = input.Notes
	if input.Version > 0 {
		current.Version = input.Version
	}

	updated, err := s.store.UpdateWithTasks(ctx, current, input.TaskIDs)
	if err != nil {
		return Payment{}, err
	}
	s.publish(updated, "updated")
	s.publishTasks(updated, "relinked")
	return updated, nil
}

// Delete removes a payment and releases every linked task back to approved
// with its link cleared. Deleting a paid payment would strand paid tasks,
// so it is refused.
func (s *Service) Delete(ctx context.Context, paymentID string) error {
	current, err := s.store.Get(ctx, paymentID)
	if err != nil {
		return err
	}
	if current.Status == StatusPaid {
		return ErrPaymentPaid
	}
	if err := s.store.DeleteReleasing(ctx, paymentID); err != nil {
		return err
	}
	s.publish(current, "deleted")
	s.publishTasks(current, "released")
	return nil
}

// Submit moves a draft payment into review.
func (s *Service) Submit(ctx context.Context, paymentID string) (Payment, error) {
	return s.advance(ctx, paymentID, StatusDraft, StatusPending)
}

// Approve moves a pending payment into processing.
func (s *Service) Approve(ctx context.Context, paymentID string) (Payment, error) {
	return s.advance(ctx, paymentID, StatusPending, StatusProcessing)
}

// Process settles the payment: the payment becomes paid and every linked
// task is cascaded to paid with it. Any not-yet-paid payment may be
// force-processed; the step is always forward.
func (s *Service) Process(ctx context.Context, paymentID string) (Payment, error) {
	paid, err := s.store.MarkPaid(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	s.publish(paid, StatusPaid)
	s.publishTasks(paid, StatusPaid)
	return paid, nil
}

func (s *Service) advance(ctx context.Context, paymentID, from, to string) (Payment, error) {
	updated, err := s.store.SetStatus(ctx, paymentID, from, to)
	if err != nil {
		return Payment{}, err
	}
	s.publish(updated, to)
	return updated, nil
}

// selectedTasks resolves and checks the caller's task selection: every task
// must belong to the employee and be approved with no other payment link.
func (s *Service) selectedTasks(ctx context.Context, employeeID string, taskIDs []string) ([]task.Task, error) {
	selected := make([]task.Task, 0, len(taskIDs))
	for _, id := range taskIDs {
		t, err := s.tasks.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if t.EmployeeID != employeeID {
			return nil, fmt.Errorf("%w: task %s belongs to another employee", ErrTaskUnavailable, id)
		}
		if t.Status != task.StatusApproved {
			return nil, fmt.Errorf("%w: task %s is %s", ErrTaskUnavailable, id, t.Status)
		}
		selected = append(selected, t)
	}
	return selected, nil
}

func validateInput(employeeID string, input Input) error {
	if employeeID == "" {
		return fmt.Errorf("%w: employee id is required", ErrInvalidInput)
	}
	if input.Month == "" {
		return fmt.Errorf("%w: month is required", ErrInvalidInput)
	}
	if input.Date.IsZero() || input.DueDate.IsZero() {
		return fmt.Errorf("%w: date and due date are required", ErrInvalidInput)
	}
	if input.BaseSalary <= 0 {
		return fmt.Errorf("%w: base salary must be positive", ErrInvalidInput)
	}
	for field, value := range map[string]float64{
		"bonus":      input.Bonus,
		"allowances": input.Allowances,
		"deductions": input.Deductions,
		"taxes":      input.Taxes,
	} {
		if value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, field)
		}
	}
	return nil
}

func (s *Service) publish(p Payment, action string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{
		Topic:      bus.TopicPaymentsChanged,
		EmployeeID: p.EmployeeID,
		EntityID:   p.ID,
		Action:     action,
	})
}

// publishTasks signals the task side after link/release/cascade side effects.
func (s *Service) publishTasks(p Payment, action string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{
		Topic:      bus.TopicTasksChanged,
		EmployeeID: p.EmployeeID,
		EntityID:   p.ID,
		Action:     action,
	})
}
