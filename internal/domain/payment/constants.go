package payment

const (
	StatusDraft      = "draft"
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusPaid       = "paid"
)

// statusRank orders the linear, forward-only lifecycle.
var statusRank = map[string]int{
	StatusDraft:      0,
	StatusPending:    1,
	StatusProcessing: 2,
	StatusPaid:       3,
}

func ValidStatus(status string) bool {
	_, ok := statusRank[status]
	return ok
}

// Forward reports whether moving from one status to the next is a legal
// forward step in the lifecycle.
func Forward(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
