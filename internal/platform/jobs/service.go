package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"taskpay/internal/domain/ledger"
	"taskpay/internal/platform/config"
)

const JobReconcileSweep = "reconcile_sweep"

// Service runs background jobs on a single worker goroutine. The only
// scheduled job is the reconciliation sweep: it recomputes every employee's
// all-time balance and records who still carries unpaid approved work.
type Service struct {
	DB     *pgxpool.Pool
	Cfg    config.Config
	Ledger *ledger.Service
	queue  chan job
}

type job struct {
	Type       string
	EmployeeID string
	Run        func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, ledgerSvc *ledger.Service) *Service {
	return &Service{
		DB:     db,
		Cfg:    cfg,
		Ledger: ledgerSvc,
		queue:  make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.ReconcileInterval > 0 {
		go s.scheduleSweeps(ctx, s.Cfg.ReconcileInterval)
	}
}

func (s *Service) Enqueue(jobType, employeeID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, EmployeeID: employeeID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "employeeId", employeeID)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, employeeID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, EmployeeID: employeeID, Run: run})
}

// SweepNow reconciles every known employee immediately and reports the
// outstanding balances.
func (s *Service) SweepNow(ctx context.Context) (any, error) {
	return s.RunNow(ctx, JobReconcileSweep, "", s.sweep)
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "employeeId", j.EmployeeID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, employee_id, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, j.Type, j.EmployeeID, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleSweeps(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobReconcileSweep, "", s.sweep)
		}
	}
}

func (s *Service) sweep(ctx context.Context) (any, error) {
	employees, err := s.listEmployees(ctx)
	if err != nil {
		return nil, err
	}

	outstanding := make(map[string]float64)
	for _, employeeID := range employees {
		balance, err := s.Ledger.Balance(ctx, employeeID)
		if err != nil {
			slog.Warn("balance recompute failed", "employeeId", employeeID, "err", err)
			continue
		}
		if balance != 0 {
			outstanding[employeeID] = balance
			slog.Info("employee carries unpaid approved work", "employeeId", employeeID, "balance", balance)
		}
	}
	return map[string]any{
		"employeesChecked": len(employees),
		"outstanding":      outstanding,
	}, nil
}

func (s *Service) listEmployees(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT employee_id FROM tasks
    UNION
    SELECT employee_id FROM payments
  `)
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
