package payment

import "context"

type StoreAPI interface {
	List(ctx context.Context, employeeID string) ([]Payment, error)
	Get(ctx context.Context, paymentID string) (Payment, error)
	// CreateWithTasks inserts the payment and claims the given tasks in one
	// transaction. Any task that is not approved-and-unlinked fails the whole
	// operation with ErrTaskUnavailable.
	CreateWithTasks(ctx context.Context, p Payment, taskIDs []string) (Payment, error)
	// UpdateWithTasks rewrites the payment (asserting p.Version) and relinks
	// its task set in one transaction: deselected tasks are released back to
	// approved-and-unlinked, newly selected tasks are claimed.
	UpdateWithTasks(ctx context.Context, p Payment, taskIDs []string) (Payment, error)
	// DeleteReleasing releases every linked task and removes the payment in
	// one transaction. Paid payments are refused.
	DeleteReleasing(ctx context.Context, paymentID string) error
	SetStatus(ctx context.Context, paymentID, from, to string) (Payment, error)
	// MarkPaid flips the payment to paid and cascades every linked task to
	// paid in one transaction.
	MarkPaid(ctx context.Context, paymentID string) (Payment, error)
}
