package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the status is part of the lifecycle.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Active reports whether the ticket still needs work.
func (s TicketStatus) Active() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress
}

// TicketPriority is an open label; the four canonical values have a fixed order.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "Critical"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityLow      TicketPriority = "Low"
)

// UnknownPriorityRank sorts after every known priority.
const UnknownPriorityRank = 5

var priorityRanks = map[TicketPriority]int{
	TicketPriorityCritical: 1,
	TicketPriorityHigh:     2,
	TicketPriorityMedium:   3,
	TicketPriorityLow:      4,
}

var priorityAliases = map[string]TicketPriority{
	"critical": TicketPriorityCritical,
	"crítico":  TicketPriorityCritical,
	"critico":  TicketPriorityCritical,
	"high":     TicketPriorityHigh,
	"alta":     TicketPriorityHigh,
	"medium":   TicketPriorityMedium,
	"média":    TicketPriorityMedium,
	"media":    TicketPriorityMedium,
	"low":      TicketPriorityLow,
	"baixa":    TicketPriorityLow,
}

// ParsePriority maps English and Portuguese labels to the canonical value.
// Unrecognized labels are returned trimmed but otherwise untouched.
func ParsePriority(label string) TicketPriority {
	trimmed := strings.TrimSpace(label)
	if p, ok := priorityAliases[strings.ToLower(trimmed)]; ok {
		return p
	}
	return TicketPriority(trimmed)
}

// Rank returns the scheduling rank; lower is more urgent.
func (p TicketPriority) Rank() int {
	if rank, ok := priorityRanks[p]; ok {
		return rank
	}
	return UnknownPriorityRank
}

// Known reports whether the priority is one of the canonical labels.
func (p TicketPriority) Known() bool {
	_, ok := priorityRanks[p]
	return ok
}

// Ticket is the aggregate for problem reports.
type Ticket struct {
	ID          int64
	Code        string
	Title       string
	Description string
	Category    string
	Priority    TicketPriority
	Status      TicketStatus
	CreatedBy   int64
	AssigneeID  *int64
	CreatedAt   time.Time
	DueAt       time.Time
	Resolution  *string
	ResolvedAt  *time.Time
}

// AssignedTo reports whether the primary assignee pointer equals userID.
func (t *Ticket) AssignedTo(userID int64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// Overdue reports whether an active ticket has passed its due date.
func (t *Ticket) Overdue(now time.Time) bool {
	return t.Status.Active() && now.After(t.DueAt)
}
