package task

import "context"

type StoreAPI interface {
	List(ctx context.Context, employeeID string, filter Filter) ([]Task, error)
	Get(ctx context.Context, taskID string) (Task, error)
	Create(ctx context.Context, t Task) (Task, error)
	// Update writes the mutable fields of t, asserting t.Version against the
	// stored row. A stale version fails with ErrStaleVersion.
	Update(ctx context.Context, t Task) (Task, error)
	Delete(ctx context.Context, taskID string) error
	ListAvailable(ctx context.Context, employeeID string) ([]Task, error)
}
