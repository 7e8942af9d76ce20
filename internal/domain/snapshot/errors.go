package snapshot

import "errors"

var (
	ErrCorruptSnapshot = errors.New("snapshot document is corrupt")
	ErrLinkMismatch    = errors.New("snapshot task/payment links do not reconcile")
)
