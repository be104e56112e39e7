package models

import "time"

// DueRecord is the denormalized due-tracking projection keyed by customer id.
// It must stay in sync with Customer.Due: every due mutation updates or
// removes the matching record in the same logical operation.
type DueRecord struct {
	CustomerID      int        `json:"customer_id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	DueAmount       float64    `json:"due_amount"`
	DueDate         time.Time  `json:"due_date"`
	LastMessageDate *time.Time `json:"last_message_date,omitempty"`
}

// Overdue bands, in days since the due date. Matches the admin dashboard
// highlighting thresholds.
const (
	OverdueRemindDays   = 15
	OverdueFollowUpDays = 30
	OverdueCriticalDays = 45
)

// OverdueBand classifies how stale a due is: "" (current), "remind",
// "follow_up" or "critical".
func (d *DueRecord) OverdueBand(now time.Time) string {
	if d.DueAmount <= 0 {
		return ""
	}
	days := int(now.Sub(d.DueDate).Hours() / 24)
	switch {
	case days >= OverdueCriticalDays:
		return "critical"
	case days >= OverdueFollowUpDays:
		return "follow_up"
	case days >= OverdueRemindDays:
		return "remind"
	default:
		return ""
	}
}
