package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/extract"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const (
	minDueDays      = 1
	maxDueDays      = 90
	codeAttempts    = 3
	defaultPriority = domain.TicketPriorityMedium
)

// queueStatuses are the statuses that appear in the work queue.
var queueStatuses = []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress}

// strictTransitions is the lifecycle enforced when strict mode is on.
var strictTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
}

// ExtractionRecorder receives attachment extraction outcomes.
type ExtractionRecorder interface {
	RecordExtraction(format, status string)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	attachments repository.AttachmentRepository
	research    repository.ResearchRepository
	extractor   *extract.Extractor
	dispatcher  events.Dispatcher
	recorder    ExtractionRecorder
	logger      *zap.Logger
	cfg         config.TicketsConfig
	maxUpload   int
	locks       *keyedMutex
	now         func() time.Time
	newCode     func(time.Time) string
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo         repository.TicketRepository
	AttachmentRepo     repository.AttachmentRepository
	ResearchRepo       repository.ResearchRepository
	Extractor          *extract.Extractor
	Dispatcher         events.Dispatcher
	Recorder           ExtractionRecorder
	Logger             *zap.Logger
	Config             config.TicketsConfig
	MaxAttachmentBytes int
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
	DueInDays   int
}

// StatusChangeInput describes a status update.
type StatusChangeInput struct {
	Status     domain.TicketStatus
	Resolution string
}

// AttachmentInput is an uploaded file.
type AttachmentInput struct {
	FileName  string
	MediaType string
	Data      []byte
}

// TicketDetail is a ticket with everything attached to it.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Attachments []domain.Attachment
	Assignments []domain.Assignment
	Research    []domain.ResearchResult
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Config.DefaultDueDays <= 0 {
		deps.Config.DefaultDueDays = 30
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		attachments: deps.AttachmentRepo,
		research:    deps.ResearchRepo,
		extractor:   deps.Extractor,
		dispatcher:  deps.Dispatcher,
		recorder:    deps.Recorder,
		logger:      logger,
		cfg:         deps.Config,
		maxUpload:   deps.MaxAttachmentBytes,
		locks:       newKeyedMutex(),
		now:         time.Now,
		newCode:     generateTicketCode,
	}
}

// CreateTicket validates input and stores a new open ticket owned by creator.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)

	problems := map[string]any{}
	if title == "" {
		problems["title"] = "title is required"
	}
	if description == "" {
		problems["description"] = "description is required"
	}
	if category == "" {
		problems["category"] = "category is required"
	}

	dueDays := input.DueInDays
	if dueDays == 0 {
		dueDays = s.cfg.DefaultDueDays
	}
	if dueDays < minDueDays || dueDays > maxDueDays {
		problems["due_in_days"] = fmt.Sprintf("must be between %d and %d", minDueDays, maxDueDays)
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", problems)
	}

	priority := domain.ParsePriority(input.Priority)
	if priority == "" {
		priority = defaultPriority
	}

	now := s.now().UTC()
	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   creator.ID,
		CreatedAt:   now,
		DueAt:       now.AddDate(0, 0, dueDays),
	}

	var err error
	for attempt := 1; attempt <= codeAttempts; attempt++ {
		ticket.Code = s.newCode(now)
		err = s.tickets.Create(ctx, ticket)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		s.logger.Warn("ticket code collision", zap.String("code", ticket.Code), zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, mapRepoErr(err, "ticket", map[string]any{"code": ticket.Code})
	}

	if !priority.Known() {
		s.logger.Info("ticket created with unrecognized priority", zap.String("priority", string(priority)))
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(creator),
		Payload: events.TicketCreatedPayload{
			Code:     ticket.Code,
			Title:    ticket.Title,
			Category: ticket.Category,
			Priority: ticket.Priority,
			DueAt:    ticket.DueAt,
		},
	})
	return ticket, nil
}

// GetTicket returns the ticket with its attachments, claim history and research.
func (s *TicketService) GetTicket(ctx context.Context, ticketID int64) (*TicketDetail, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	assignments, err := s.tickets.ListAssignments(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	research, err := s.research.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &TicketDetail{
		Ticket:      ticket,
		Attachments: attachments,
		Assignments: assignments,
		Research:    research,
	}, nil
}

// ListMine returns the tickets userID created, newest first.
func (s *TicketService) ListMine(ctx context.Context, userID int64) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByCreator(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// AvailableFor is the work queue for actorID: active tickets not already
// pointed at the actor, most urgent first.
func (s *TicketService) AvailableFor(ctx context.Context, actorID int64) ([]domain.Ticket, error) {
	candidates, err := s.tickets.ListByStatuses(ctx, queueStatuses)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	queue := make([]domain.Ticket, 0, len(candidates))
	for _, t := range candidates {
		if !t.Status.Active() || t.AssignedTo(actorID) {
			continue
		}
		queue = append(queue, t)
	}
	OrderByPriority(queue)
	return queue, nil
}

// OrderByPriority sorts tickets Critical, High, Medium, Low, then unknown
// labels. Ties keep their input order.
func OrderByPriority(tickets []domain.Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].Priority.Rank() < tickets[j].Priority.Rank()
	})
}

// Assign makes actor the ticket's primary assignee. The audit trail gains a
// row only for the first claim by that user; repeat claims just refresh the
// pointer.
func (s *TicketService) Assign(ctx context.Context, actor *domain.User, ticketID int64) (*domain.Ticket, error) {
	unlock := s.locks.Lock(ticketID)
	defer unlock()

	before, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	recorded, err := s.tickets.Assign(ctx, ticketID, actor.ID, s.now().UTC())
	if err != nil {
		return nil, mapRepoErr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	after := *before
	after.AssigneeID = &actor.ID

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticketID,
		Actor:    actorOf(actor),
		Payload: events.TicketAssignedPayload{
			AssigneeID:       actor.ID,
			PreviousAssignee: before.AssigneeID,
			FirstClaim:       recorded,
		},
	})
	return &after, nil
}

// UpdateStatus validates and applies a status change. Entering resolved
// requires a resolution note; the note and timestamp are written together.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID int64, input StatusChangeInput) (*domain.Ticket, error) {
	if !input.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": input.Status})
	}
	resolution := strings.TrimSpace(input.Resolution)
	if input.Status == domain.TicketStatusResolved && resolution == "" {
		return nil, apperrors.NewValidationError("a resolution note is required to resolve a ticket", map[string]any{"resolution": "required"})
	}

	unlock := s.locks.Lock(ticketID)
	defer unlock()

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !canChangeStatus(actor, ticket) {
		return nil, apperrors.NewForbidden("only the creator, the assignee or an admin can change the status")
	}
	if s.cfg.StrictTransitions && !isValidTransition(ticket.Status, input.Status) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(input.Status))
	}

	oldStatus := ticket.Status
	if input.Status == domain.TicketStatusResolved {
		at := s.now().UTC()
		if err := s.tickets.Resolve(ctx, ticketID, oldStatus, resolution, at); err != nil {
			return nil, mapRepoErr(err, "ticket", map[string]any{"ticket_id": ticketID})
		}
		ticket.Resolution = &resolution
		ticket.ResolvedAt = &at
	} else {
		if err := s.tickets.UpdateStatus(ctx, ticketID, oldStatus, input.Status); err != nil {
			return nil, mapRepoErr(err, "ticket", map[string]any{"ticket_id": ticketID})
		}
		resolution = ""
	}
	ticket.Status = input.Status

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticketID,
		Actor:    actorOf(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus:  oldStatus,
			NewStatus:  input.Status,
			Resolution: resolution,
		},
	})
	return ticket, nil
}

// AddAttachment extracts text from the upload and stores blob and text
// together. Extraction problems are recorded on the attachment, not returned.
func (s *TicketService) AddAttachment(ctx context.Context, actor *domain.User, ticketID int64, input AttachmentInput) (*domain.Attachment, error) {
	name := strings.TrimSpace(input.FileName)
	if name == "" {
		return nil, apperrors.NewValidationError("file name is required", nil)
	}
	if s.maxUpload > 0 && len(input.Data) > s.maxUpload {
		return nil, apperrors.NewValidationError("attachment too large", map[string]any{
			"max_bytes": s.maxUpload,
			"size":      len(input.Data),
		})
	}
	if _, err := s.loadTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	ext := extract.ExtFromFileName(name)
	result := s.extractor.Extract(input.Data, ext)
	if s.recorder != nil {
		s.recorder.RecordExtraction(ext, string(result.Status))
	}

	attachment := &domain.Attachment{
		TicketID:          ticketID,
		FileName:          name,
		Data:              input.Data,
		MediaType:         input.MediaType,
		SizeBytes:         int64(len(input.Data)),
		UploadedBy:        actor.ID,
		UploadedAt:        s.now().UTC(),
		ExtractedText:     result.Text,
		ExtractionStatus:  domain.ExtractionStatus(result.Status),
		ExtractionMessage: result.Message,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, mapRepoErr(err, "attachment", map[string]any{"ticket_id": ticketID})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventAttachmentIngested,
		TicketID: ticketID,
		Actor:    actorOf(actor),
		Payload: events.AttachmentIngestedPayload{
			AttachmentID: attachment.ID,
			FileName:     attachment.FileName,
			Status:       attachment.ExtractionStatus,
			TextLength:   len(attachment.ExtractedText),
		},
	})
	return attachment, nil
}

// GetAttachment returns one attachment with its blob.
func (s *TicketService) GetAttachment(ctx context.Context, ticketID, attachmentID int64) (*domain.Attachment, error) {
	attachment, err := s.attachments.Get(ctx, ticketID, attachmentID)
	if err != nil {
		return nil, mapRepoErr(err, "attachment", map[string]any{"ticket_id": ticketID, "attachment_id": attachmentID})
	}
	return attachment, nil
}

// FlagOverdue publishes a ticket_overdue event for every active ticket past
// its due date and returns how many were found.
func (s *TicketService) FlagOverdue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	overdue, err := s.tickets.ListOverdue(ctx, now)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	for _, t := range overdue {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketOverdue,
			TicketID: t.ID,
			Payload: events.TicketOverduePayload{
				Code:       t.Code,
				DueAt:      t.DueAt,
				AssigneeID: t.AssigneeID,
			},
		})
	}
	return len(overdue), nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoErr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.now, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, now func() time.Time, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now().UTC()
	}
	_ = dispatcher.Publish(ctx, event)
}

func actorOf(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{}
	}
	return events.Actor{UserID: user.ID, Role: user.Role}
}

// generateTicketCode returns TKT-<timestamp>-<8 hex digits>.
func generateTicketCode(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "TKT-" + at.UTC().Format("20060102150405") + "-" + suffix
}

func canChangeStatus(actor *domain.User, ticket *domain.Ticket) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || ticket.CreatedBy == actor.ID || ticket.AssignedTo(actor.ID)
}

func isValidTransition(current, next domain.TicketStatus) bool {
	if current == next {
		return true
	}
	for _, candidate := range strictTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
