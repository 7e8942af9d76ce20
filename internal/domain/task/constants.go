package task

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusPaid     = "paid"
)

var AllStatuses = []string{StatusPending, StatusApproved, StatusRejected, StatusPaid}

func ValidStatus(status string) bool {
	for _, candidate := range AllStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}
