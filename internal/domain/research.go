package domain

import "time"

// ResearchResult is a retrieval hit persisted against a ticket.
type ResearchResult struct {
	ID          int64
	TicketID    int64
	Query       string
	Title       string
	URL         string
	Snippet     string
	Provider    string
	Stub        bool
	SavedBy     int64
	RetrievedAt time.Time
}
