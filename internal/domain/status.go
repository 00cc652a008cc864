package domain

import "strings"

// Status is the canonical transaction status. Every vendor status string is
// mapped into this set exactly once, at the point it enters the system.
type Status string

const (
	StatusPending      Status = "pending"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusAuthorized   Status = "authorized"
	StatusCancelled    Status = "cancelled"
	StatusRefunded     Status = "refunded"
	StatusRefundFailed Status = "refund_failed"
	StatusUnknown      Status = "unknown"
)

// MapVendorStatus folds a raw gateway status string into the canonical set.
// Matching is case-insensitive. Unrecognized values, including canonical
// names the gateway never emits, map to StatusUnknown.
func MapVendorStatus(raw string) Status {
	switch strings.ToLower(raw) {
	case "success":
		return StatusCompleted
	case "pending":
		return StatusPending
	case "failed", "error":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// ValidStatuses returns all canonical statuses.
func ValidStatuses() []Status {
	return []Status{
		StatusPending,
		StatusCompleted,
		StatusFailed,
		StatusAuthorized,
		StatusCancelled,
		StatusRefunded,
		StatusRefundFailed,
		StatusUnknown,
	}
}

// IsValidStatus checks whether the given value is a canonical status.
func IsValidStatus(s Status) bool {
	for _, v := range ValidStatuses() {
		if v == s {
			return true
		}
	}
	return false
}
