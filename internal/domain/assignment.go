package domain

import "time"

// Assignment is an append-only audit entry for a claim.
type Assignment struct {
	ID         int64
	TicketID   int64
	UserID     int64
	AssignedAt time.Time
	Status     TicketStatus
}
