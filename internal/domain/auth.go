package domain

import "time"

// Token represents issued access token metadata.
type Token struct {
	Value     string
	SubjectID int64
	Role      UserRole
	ExpiresAt time.Time
}
