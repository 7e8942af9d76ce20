package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"taskpay/internal/domain/payment"
	"taskpay/internal/domain/task"
)

// Document is the serialized book of one employee, shaped after the
// reference storage keys: two collections with ISO-8601 date strings.
type Document struct {
	EmployeeTasks    []TaskRecord    `json:"employeeTasks"`
	EmployeePayments []PaymentRecord `json:"employeePayments"`
}

type TaskRecord struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Date        ISODate `json:"date"`
	Hours       float64 `json:"hours"`
	Rate        float64 `json:"rate"`
	Status      string  `json:"status"`
	PaymentID   string  `json:"paymentId,omitempty"`
}

type PaymentRecord struct {
	ID            string   `json:"id"`
	Month         string   `json:"month"`
	Date          ISODate  `json:"date"`
	DueDate       ISODate  `json:"dueDate"`
	BaseSalary    float64  `json:"baseSalary"`
	TaskIDs       []string `json:"activities"`
	Bonus         float64  `json:"bonus"`
	Allowances    float64  `json:"allowances"`
	Deductions    float64  `json:"deductions"`
	Taxes         float64  `json:"taxes"`
	Total         float64  `json:"total"`
	Status        string   `json:"status"`
	PaymentMethod string   `json:"paymentMethod"`
	Notes         string   `json:"notes,omitempty"`
}

// ISODate marshals as an ISO-8601 string and accepts either a full
// RFC3339 timestamp or a plain YYYY-MM-DD on decode.
type ISODate struct {
	time.Time
}

func (d ISODate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

func (d *ISODate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be an ISO-8601 string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		d.Time = parsed
		return nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return fmt.Errorf("unparseable date %q", raw)
	}
	d.Time = parsed
	return nil
}

// Decode parses and validates a serialized document. Anything structurally
// broken fails with ErrCorruptSnapshot; the caller treats that as "no data"
// rather than silently substituting defaults.
func Decode(data []byte) (Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func Encode(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// totalTolerance absorbs float64 noise when re-deriving a payment's total
// from its parts.
const totalTolerance = 1e-6

// Validate checks the strict schema, the cross-entity link invariant (a
// task's paymentId must reference a payment in the document that lists the
// task among its activities, and vice versa) and that each payment's total
// still matches the formula over its own parts and linked task values.
func Validate(doc Document) error {
	activityTotals := make(map[string]float64)
	for _, t := range doc.EmployeeTasks {
		if t.PaymentID != "" {
			activityTotals[t.PaymentID] += t.Hours * t.Rate
		}
	}

	paymentTasks := make(map[string]map[string]bool, len(doc.EmployeePayments))
	paymentStatus := make(map[string]string, len(doc.EmployeePayments))
	for _, p := range doc.EmployeePayments {
		if p.ID == "" {
			return fmt.Errorf("%w: payment without id", ErrCorruptSnapshot)
		}
		if !payment.ValidStatus(p.Status) {
			return fmt.Errorf("%w: payment %s has unknown status %q", ErrCorruptSnapshot, p.ID, p.Status)
		}
		if p.BaseSalary < 0 || p.Bonus < 0 || p.Allowances < 0 || p.Deductions < 0 || p.Taxes < 0 {
			return fmt.Errorf("%w: payment %s has negative amounts", ErrCorruptSnapshot, p.ID)
		}
		if paymentTasks[p.ID] != nil {
			return fmt.Errorf("%w: duplicate payment id %s", ErrCorruptSnapshot, p.ID)
		}
		want := payment.ComputeTotal(p.BaseSalary, activityTotals[p.ID], p.Bonus, p.Allowances, p.Deductions, p.Taxes)
		if math.Abs(p.Total-want) > totalTolerance {
			return fmt.Errorf("%w: payment %s total %v does not match its parts (%v)", ErrCorruptSnapshot, p.ID, p.Total, want)
		}
		linked := make(map[string]bool, len(p.TaskIDs))
		for _, taskID := range p.TaskIDs {
			linked[taskID] = true
		}
		paymentTasks[p.ID] = linked
		paymentStatus[p.ID] = p.Status
	}

	taskIDs := make(map[string]bool, len(doc.EmployeeTasks))
	for _, t := range doc.EmployeeTasks {
		if t.ID == "" {
			return fmt.Errorf("%w: task without id", ErrCorruptSnapshot)
		}
		if taskIDs[t.ID] {
			return fmt.Errorf("%w: duplicate task id %s", ErrCorruptSnapshot, t.ID)
		}
		taskIDs[t.ID] = true
		if !task.ValidStatus(t.Status) {
			return fmt.Errorf("%w: task %s has unknown status %q", ErrCorruptSnapshot, t.ID, t.Status)
		}
		if t.Hours < 0 || t.Rate < 0 {
			return fmt.Errorf("%w: task %s has negative hours or rate", ErrCorruptSnapshot, t.ID)
		}
		if t.PaymentID != "" {
			linked, ok := paymentTasks[t.PaymentID]
			if !ok {
				return fmt.Errorf("%w: task %s references missing payment %s", ErrLinkMismatch, t.ID, t.PaymentID)
			}
			if !linked[t.ID] {
				return fmt.Errorf("%w: payment %s does not list task %s", ErrLinkMismatch, t.PaymentID, t.ID)
			}
		}
		if t.Status == task.StatusPaid {
			if t.PaymentID == "" {
				return fmt.Errorf("%w: paid task %s has no owning payment", ErrLinkMismatch, t.ID)
			}
			if paymentStatus[t.PaymentID] != payment.StatusPaid {
				return fmt.Errorf("%w: paid task %s linked to unpaid payment %s", ErrLinkMismatch, t.ID, t.PaymentID)
			}
		}
	}

	for paymentID, linked := range paymentTasks {
		for taskID := range linked {
			if !taskIDs[taskID] {
				return fmt.Errorf("%w: payment %s lists missing task %s", ErrLinkMismatch, paymentID, taskID)
			}
		}
	}
	return nil
}
