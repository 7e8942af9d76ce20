package payment

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"taskpay/internal/domain/task"
)

const paymentColumns = `id, employee_id, month, date, due_date, base_salary, activity_total,
       bonus, allowances, deductions, taxes, total, status, payment_method, notes, version, created_at`

func (s *Store) List(ctx context.Context, employeeID string) ([]Payment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+paymentColumns+`
    FROM payments
    WHERE employee_id = $1
    ORDER BY date, created_at
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments, err := scanPayments(rows)
	if err != nil {
		return nil, err
	}

	linked, err := s.linkedTasksByPayment(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		payments[i].TaskIDs = linked[payments[i].ID]
	}
	return payments, nil
}

func (s *Store) Get(ctx context.Context, paymentID string) (Payment, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+paymentColumns+`
    FROM payments
    WHERE id = $1
  `, paymentID)
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrPaymentNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	p.TaskIDs, err = s.linkedTaskIDs(ctx, s.DB, paymentID)
	return p, err
}

func (s *Store) CreateWithTasks(ctx context.Context, p Payment, taskIDs []string) (Payment, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Payment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
    INSERT INTO payments (employee_id, month, date, due_date, base_salary, activity_total,
                          bonus, allowances, deductions, taxes, total, status, payment_method, notes)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
    RETURNING `+paymentColumns+`
  `, p.EmployeeID, p.Month, p.Date, p.DueDate, p.BaseSalary, p.ActivityTotal,
		p.Bonus, p.Allowances, p.Deductions, p.Taxes, p.Total, p.Status, p.PaymentMethod, p.Notes)
	created, err := scanPayment(row)
	if err != nil {
		return Payment{}, err
	}

	if err := claimTasks(ctx, tx, created.ID, created.EmployeeID, taskIDs); err != nil {
		return Payment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Payment{}, err
	}
	created.TaskIDs = append([]string(nil), taskIDs...)
	return created, nil
}

func (s *Store) UpdateWithTasks(ctx context.Context, p Payment, taskIDs []string) (Payment, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Payment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
    UPDATE payments
    SET month = $1, date = $2, due_date = $3, base_salary = $4, activity_total = $5,
        bonus = $6, allowances = $7, deductions = $8, taxes = $9, total = $10,
        payment_method = $11, notes = $12, version = version + 1
    WHERE id = $13 AND version = $14
    RETURNING `+paymentColumns+`
  `, p.Month, p.Date, p.DueDate, p.BaseSalary, p.ActivityTotal,
		p.Bonus, p.Allowances, p.Deductions, p.Taxes, p.Total,
		p.PaymentMethod, p.Notes, p.ID, p.Version)
	updated, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, s.missingOrStale(ctx, p.ID)
	}
	if err != nil {
		return Payment{}, err
	}

	// Release whatever is no longer selected, then claim the new selection.
	if _, err := tx.Exec(ctx, `
    UPDATE tasks SET payment_id = NULL, version = version + 1
    WHERE payment_id = $1 AND NOT (id::text = ANY($2))
  `, updated.ID, taskIDs); err != nil {
		return Payment{}, err
	}
	if err := claimTasks(ctx, tx, updated.ID, updated.EmployeeID, taskIDs); err != nil {
		return Payment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Payment{}, err
	}
	updated.TaskIDs = append([]string(nil), taskIDs...)
	return updated, nil
}

func (s *Store) DeleteReleasing(ctx context.Context, paymentID string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx, "SELECT status FROM payments WHERE id = $1 FOR UPDATE", paymentID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPaymentNotFound
	}
	if err != nil {
		return err
	}
	if status == StatusPaid {
		return ErrPaymentPaid
	}

	if _, err := tx.Exec(ctx, `
    UPDATE tasks SET payment_id = NULL, status = $1, version = version + 1
    WHERE payment_id = $2
  `, task.StatusApproved, paymentID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM payments WHERE id = $1", paymentID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) SetStatus(ctx context.Context, paymentID, from, to string) (Payment, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE payments SET status = $1, version = version + 1
    WHERE id = $2 AND status = $3
    RETURNING `+paymentColumns+`
  `, to, paymentID, from)
	updated, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.Get(ctx, paymentID); getErr != nil {
			return Payment{}, getErr
		}
		return Payment{}, ErrNotForward
	}
	if err != nil {
		return Payment{}, err
	}
	updated.TaskIDs, err = s.linkedTaskIDs(ctx, s.DB, paymentID)
	return updated, err
}

func (s *Store) MarkPaid(ctx context.Context, paymentID string) (Payment, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Payment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
    UPDATE payments SET status = $1, version = version + 1
    WHERE id = $2 AND status <> $1
    RETURNING `+paymentColumns+`
  `, StatusPaid, paymentID)
	paid, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.Get(ctx, paymentID); getErr != nil {
			return Payment{}, getErr
		}
		return Payment{}, ErrNotForward
	}
	if err != nil {
		return Payment{}, err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE tasks SET status = $1, version = version + 1
    WHERE payment_id = $2 AND status = $3
  `, task.StatusPaid, paymentID, task.StatusApproved); err != nil {
		return Payment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Payment{}, err
	}
	paid.TaskIDs, err = s.linkedTaskIDs(ctx, s.DB, paymentID)
	return paid, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func claimTasks(ctx context.Context, tx pgx.Tx, paymentID, employeeID string, taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	tag, err := tx.Exec(ctx, `
    UPDATE tasks SET payment_id = $1, version = version + 1
    WHERE id::text = ANY($2) AND employee_id = $3 AND status = $4
      AND (payment_id IS NULL OR payment_id = $1)
  `, paymentID, taskIDs, employeeID, task.StatusApproved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(len(taskIDs)) {
		return ErrTaskUnavailable
	}
	return nil
}

func (s *Store) linkedTaskIDs(ctx context.Context, q querier, paymentID string) ([]string, error) {
	rows, err := q.Query(ctx, `
    SELECT id::text FROM tasks WHERE payment_id = $1 ORDER BY date, created_at
  `, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) linkedTasksByPayment(ctx context.Context, employeeID string) (map[string][]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, payment_id::text
    FROM tasks
    WHERE employee_id = $1 AND payment_id IS NOT NULL
    ORDER BY date, created_at
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	linked := make(map[string][]string)
	for rows.Next() {
		var taskID, paymentID string
		if err := rows.Scan(&taskID, &paymentID); err != nil {
			return nil, err
		}
		linked[paymentID] = append(linked[paymentID], taskID)
	}
	return linked, rows.Err()
}

func (s *Store) missingOrStale(ctx context.Context, paymentID string) error {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payments WHERE id = $1", paymentID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrPaymentNotFound
	}
	return ErrStaleVersion
}

func scanPayments(rows pgx.Rows) ([]Payment, error) {
	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.EmployeeID, &p.Month, &p.Date, &p.DueDate, &p.BaseSalary, &p.ActivityTotal,
		&p.Bonus, &p.Allowances, &p.Deductions, &p.Taxes, &p.Total, &p.Status, &p.PaymentMethod, &p.Notes,
		&p.Version, &p.CreatedAt)
	return p, err
}
