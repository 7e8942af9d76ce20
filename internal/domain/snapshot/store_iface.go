package snapshot

import "context"

type StoreAPI interface {
	Export(ctx context.Context, employeeID string) (Document, error)
	Import(ctx context.Context, employeeID string, doc Document) (tasks int, payments int, err error)
}
