package payment

import "time"

type Payment struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employeeId"`
	Month         string    `json:"month"`
	Date          time.Time `json:"date"`
	DueDate       time.Time `json:"dueDate"`
	BaseSalary    float64   `json:"baseSalary"`
	TaskIDs       []string  `json:"taskIds"`
	ActivityTotal float64   `json:"activityTotal"`
	Bonus         float64   `json:"bonus"`
	Allowances    float64   `json:"allowances"`
	Deductions    float64   `json:"deductions"`
	Taxes         float64   `json:"taxes"`
	Total         float64   `json:"total"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod"`
	Notes         string    `json:"notes,omitempty"`
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Input struct {
	Month         string
	Date          time.Time
	DueDate       time.Time
	BaseSalary    float64
	TaskIDs       []string
	Bonus         float64
	Allowances    float64
	Deductions    float64
	Taxes         float64
	PaymentMethod string
	Notes         string
	Version       int
}
