package task

import "time"

type Task struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employeeId"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
	Hours       float64    `json:"hours"`
	Rate        float64    `json:"rate"`
	Status      string     `json:"status"`
	PaymentID   *string    `json:"paymentId,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Value is the monetary value of the task.
func (t Task) Value() float64 {
	return t.Hours * t.Rate
}

// Linked reports whether the task has been consumed into a payment.
func (t Task) Linked() bool {
	return t.PaymentID != nil && *t.PaymentID != ""
}

type NewTaskInput struct {
	Type        string
	Description string
	Date        time.Time
	Hours       float64
	Rate        float64
}

type UpdateTaskInput struct {
	Type        *string
	Description *string
	Date        *time.Time
	Hours       *float64
	Rate        *float64
	Version     int
}

type Filter struct {
	Status string
	From   time.Time
	To     time.Time
}
