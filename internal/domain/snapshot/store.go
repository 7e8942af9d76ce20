package snapshot

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Export reads an employee's whole book.
func (s *Store) Export(ctx context.Context, employeeID string) (Document, error) {
	var doc Document

	rows, err := s.DB.Query(ctx, `
    SELECT id::text, type, description, date, hours, rate, status, COALESCE(payment_id::text, '')
    FROM tasks
    WHERE employee_id = $1
    ORDER BY date, created_at
  `, employeeID)
	if err != nil {
		return Document{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var record TaskRecord
		if err := rows.Scan(&record.ID, &record.Type, &record.Description, &record.Date.Time,
			&record.Hours, &record.Rate, &record.Status, &record.PaymentID); err != nil {
			return Document{}, err
		}
		doc.EmployeeTasks = append(doc.EmployeeTasks, record)
	}
	if err := rows.Err(); err != nil {
		return Document{}, err
	}

	paymentRows, err := s.DB.Query(ctx, `
    SELECT id::text, month, date, due_date, base_salary, bonus, allowances, deductions, taxes,
           total, status, payment_method, notes
    FROM payments
    WHERE employee_id = $1
    ORDER BY date, created_at
  `, employeeID)
	if err != nil {
		return Document{}, err
	}
	defer paymentRows.Close()
	for paymentRows.Next() {
		var record PaymentRecord
		if err := paymentRows.Scan(&record.ID, &record.Month, &record.Date.Time, &record.DueDate.Time,
			&record.BaseSalary, &record.Bonus, &record.Allowances, &record.Deductions, &record.Taxes,
			&record.Total, &record.Status, &record.PaymentMethod, &record.Notes); err != nil {
			return Document{}, err
		}
		doc.EmployeePayments = append(doc.EmployeePayments, record)
	}
	if err := paymentRows.Err(); err != nil {
		return Document{}, err
	}

	linked := make(map[string][]string)
	for _, t := range doc.EmployeeTasks {
		if t.PaymentID != "" {
			linked[t.PaymentID] = append(linked[t.PaymentID], t.ID)
		}
	}
	for i := range doc.EmployeePayments {
		doc.EmployeePayments[i].TaskIDs = linked[doc.EmployeePayments[i].ID]
	}
	return doc, nil
}

// Import restores a validated document as the employee's book in one
// transaction: anything already stored for the employee is dropped first,
// so importing the same document twice leaves one copy, not two. Document
// ids are foreign, so rows get fresh ids and the task-to-payment links are
// remapped.
func (s *Store) Import(ctx context.Context, employeeID string, doc Document) (int, int, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Tasks first; they reference payments.
	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE employee_id = $1`, employeeID); err != nil {
		return 0, 0, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE employee_id = $1`, employeeID); err != nil {
		return 0, 0, err
	}

	paymentIDs := make(map[string]string, len(doc.EmployeePayments))
	for _, record := range doc.EmployeePayments {
		activityTotal := importedActivityTotal(doc, record.ID)
		var newID string
		if err := tx.QueryRow(ctx, `
      INSERT INTO payments (employee_id, month, date, due_date, base_salary, activity_total,
                            bonus, allowances, deductions, taxes, total, status, payment_method, notes)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
      RETURNING id::text
    `, employeeID, record.Month, record.Date.Time, record.DueDate.Time, record.BaseSalary, activityTotal,
			record.Bonus, record.Allowances, record.Deductions, record.Taxes, record.Total,
			record.Status, record.PaymentMethod, record.Notes).Scan(&newID); err != nil {
			return 0, 0, err
		}
		paymentIDs[record.ID] = newID
	}

	for _, record := range doc.EmployeeTasks {
		var paymentID any
		if record.PaymentID != "" {
			paymentID = paymentIDs[record.PaymentID]
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO tasks (employee_id, type, description, date, hours, rate, status, payment_id)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    `, employeeID, record.Type, record.Description, record.Date.Time, record.Hours, record.Rate,
			record.Status, paymentID); err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return len(doc.EmployeeTasks), len(doc.EmployeePayments), nil
}

func importedActivityTotal(doc Document, paymentID string) float64 {
	var total float64
	for _, t := range doc.EmployeeTasks {
		if t.PaymentID == paymentID {
			total += t.Hours * t.Rate
		}
	}
	return total
}
