package task

import "errors"

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid task status transition")
	ErrTaskPaid          = errors.New("paid tasks cannot be edited or deleted")
	ErrTaskLinked        = errors.New("task is already linked to a payment")
	ErrStaleVersion      = errors.New("task was changed by another writer")
	ErrInvalidInput      = errors.New("invalid task input")
)
