package task

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
)

const taskColumns = `id, employee_id, type, description, date, hours, rate, status, payment_id::text, approved_at, version, created_at`

func (s *Store) List(ctx context.Context, employeeID string, filter Filter) ([]Task, error) {
	query := `
    SELECT ` + taskColumns + `
    FROM tasks
    WHERE employee_id = $1
  `
	args := []any{employeeID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += " AND status = $2"
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += " AND date >= $" + itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += " AND date <= $" + itoa(len(args))
	}
	query += " ORDER BY date, created_at"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *Store) Get(ctx context.Context, taskID string) (Task, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+taskColumns+`
    FROM tasks
    WHERE id = $1
  `, taskID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return t, err
}

func (s *Store) Create(ctx context.Context, t Task) (Task, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO tasks (employee_id, type, description, date, hours, rate, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+taskColumns+`
  `, t.EmployeeID, t.Type, t.Description, t.Date, t.Hours, t.Rate, t.Status)
	return scanTask(row)
}

func (s *Store) Update(ctx context.Context, t Task) (Task, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE tasks
    SET type = $1, description = $2, date = $3, hours = $4, rate = $5,
        status = $6, approved_at = $7, version = version + 1
    WHERE id = $8 AND version = $9
    RETURNING `+taskColumns+`
  `, t.Type, t.Description, t.Date, t.Hours, t.Rate, t.Status, t.ApprovedAt, t.ID, t.Version)
	updated, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, s.missingOrStale(ctx, t.ID)
	}
	return updated, err
}

func (s *Store) Delete(ctx context.Context, taskID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND status <> $2", taskID, StatusPaid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var count int
		if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM tasks WHERE id = $1", taskID).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return ErrTaskNotFound
		}
		return ErrTaskPaid
	}
	return nil
}

func (s *Store) ListAvailable(ctx context.Context, employeeID string) ([]Task, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+taskColumns+`
    FROM tasks
    WHERE employee_id = $1 AND status = $2 AND payment_id IS NULL
    ORDER BY date, created_at
  `, employeeID, StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *Store) missingOrStale(ctx context.Context, taskID string) error {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM tasks WHERE id = $1", taskID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrTaskNotFound
	}
	return ErrStaleVersion
}

func scanTasks(rows pgx.Rows) ([]Task, error) {
	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.EmployeeID, &t.Type, &t.Description, &t.Date, &t.Hours, &t.Rate, &t.Status, &t.PaymentID, &t.ApprovedAt, &t.Version, &t.CreatedAt)
	return t, err
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
