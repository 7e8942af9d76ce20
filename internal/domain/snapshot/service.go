package snapshot

import (
	"context"

	"taskpay/internal/platform/bus"
)

type Service struct {
	store  StoreAPI
	events *bus.Bus
}

func NewService(store StoreAPI, events *bus.Bus) *Service {
	return &Service{store: store, events: events}
}

// Export serializes an employee's tasks and payments into one document.
func (s *Service) Export(ctx context.Context, employeeID string) ([]byte, error) {
	doc, err := s.store.Export(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return Encode(doc)
}

type ImportResult struct {
	Tasks    int `json:"tasks"`
	Payments int `json:"payments"`
}

// Import validates a serialized document and restores it as the employee's
// book, replacing whatever was stored before. A document that fails the
// schema or link checks is rejected whole; nothing is written.
func (s *Service) Import(ctx context.Context, employeeID string, data []byte) (ImportResult, error) {
	doc, err := Decode(data)
	if err != nil {
		return ImportResult{}, err
	}
	tasks, payments, err := s.store.Import(ctx, employeeID, doc)
	if err != nil {
		return ImportResult{}, err
	}
	s.events.Publish(bus.Event{Topic: bus.TopicPaymentsChanged, EmployeeID: employeeID, Action: "imported"})
	s.events.Publish(bus.Event{Topic: bus.TopicTasksChanged, EmployeeID: employeeID, Action: "imported"})
	return ImportResult{Tasks: tasks, Payments: payments}, nil
}
