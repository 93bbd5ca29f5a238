package service

import (
	"context"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// DashboardStats are the admin counters.
type DashboardStats struct {
	Tickets repository.TicketStats
	Users   int64
}

// AdminService backs the admin-only views.
type AdminService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	now     func() time.Time
}

// NewAdminService constructs the service.
func NewAdminService(tickets repository.TicketRepository, users repository.UserRepository) *AdminService {
	return &AdminService{tickets: tickets, users: users, now: time.Now}
}

// ListTickets searches all tickets.
func (s *AdminService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListUsers returns every account.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *AdminService) SetRole(ctx context.Context, actor *domain.User, userID int64, role domain.UserRole) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if actor.ID == userID && role != domain.UserRoleAdmin {
		return nil, apperrors.NewValidationError("admins cannot remove their own admin role", nil)
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, mapRepoErr(err, "user", map[string]any{"user_id": userID})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "user", map[string]any{"user_id": userID})
	}
	return user, nil
}

// Stats returns ticket and user counters.
func (s *AdminService) Stats(ctx context.Context) (DashboardStats, error) {
	ticketStats, err := s.tickets.Stats(ctx, s.now().UTC())
	if err != nil {
		return DashboardStats{}, apperrors.MapError(err)
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		return DashboardStats{}, apperrors.MapError(err)
	}
	return DashboardStats{Tickets: ticketStats, Users: users}, nil
}
