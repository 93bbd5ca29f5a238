package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/extract"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

type ticketFixture struct {
	svc         *TicketService
	tickets     *fakeTicketRepo
	attachments *fakeAttachmentRepo
	research    *fakeResearchRepo
	dispatcher  *recordingDispatcher
	extractions *extractionCounter
}

func newTicketFixture(t *testing.T, cfg config.TicketsConfig) *ticketFixture {
	t.Helper()
	f := &ticketFixture{
		tickets:     newFakeTicketRepo(),
		attachments: &fakeAttachmentRepo{},
		research:    &fakeResearchRepo{},
		dispatcher:  &recordingDispatcher{},
		extractions: &extractionCounter{},
	}
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:         f.tickets,
		AttachmentRepo:     f.attachments,
		ResearchRepo:       f.research,
		Extractor:          extract.New(zap.NewNop()),
		Dispatcher:         f.dispatcher,
		Recorder:           f.extractions,
		Config:             cfg,
		MaxAttachmentBytes: 1024,
	})
	return f
}

func user(id int64) *domain.User {
	return &domain.User{ID: id, Role: domain.UserRoleUser}
}

func admin(id int64) *domain.User {
	return &domain.User{ID: id, Role: domain.UserRoleAdmin}
}

func (f *ticketFixture) create(t *testing.T, creator *domain.User, priority string) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.CreateTicket(context.Background(), creator, TicketCreateInput{
		Title:       "Printer offline " + priority,
		Description: "The third floor printer does not respond.",
		Category:    "Hardware",
		Priority:    priority,
	})
	if err != nil {
		t.Fatalf("CreateTicket(%q): %v", priority, err)
	}
	return ticket
}

var codePattern = regexp.MustCompile(`^TKT-\d{14}-[0-9A-F]{8}$`)

func TestCreateTicketCodesAreDistinctUnderConcurrency(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})

	const n = 64
	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ticket, err := f.svc.CreateTicket(context.Background(), user(int64(i%4+1)), TicketCreateInput{
				Title: fmt.Sprintf("Ticket %d", i), Description: "d", Category: "c", Priority: "Low",
			})
			if err != nil {
				t.Errorf("CreateTicket: %v", err)
				return
			}
			codes <- ticket.Code
		}(i)
	}
	wg.Wait()
	close(codes)

	seen := map[string]bool{}
	for code := range codes {
		if !codePattern.MatchString(code) {
			t.Errorf("code %q has the wrong shape", code)
		}
		if seen[code] {
			t.Errorf("duplicate code %q", code)
		}
		seen[code] = true
	}
	if len(seen) != n {
		t.Errorf("got %d distinct codes, want %d", len(seen), n)
	}
}

func TestCreateTicketRetriesOnCodeCollision(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	f.tickets.codes["TKT-TAKEN"] = true

	queue := []string{"TKT-TAKEN", "TKT-TAKEN", "TKT-FREE"}
	f.svc.newCode = func(time.Time) string {
		code := queue[0]
		queue = queue[1:]
		return code
	}

	ticket, err := f.svc.CreateTicket(context.Background(), user(1), TicketCreateInput{
		Title: "VPN", Description: "down", Category: "Network",
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.Code != "TKT-FREE" {
		t.Errorf("code = %q, want TKT-FREE", ticket.Code)
	}

	f.svc.newCode = func(time.Time) string { return "TKT-TAKEN" }
	_, err = f.svc.CreateTicket(context.Background(), user(1), TicketCreateInput{
		Title: "VPN", Description: "down", Category: "Network",
	})
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Errorf("err = %v, want CONFLICT after exhausting retries", err)
	}
}

func TestCreateTicketDefaultsAndNormalization(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	ticket, err := f.svc.CreateTicket(context.Background(), user(1), TicketCreateInput{
		Title: "  Laptop  ", Description: "screen flickers", Category: "Hardware", Priority: "Crítico",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ticket.Priority != domain.TicketPriorityCritical {
		t.Errorf("priority = %q, want Critical", ticket.Priority)
	}
	if ticket.Title != "Laptop" || ticket.Status != domain.TicketStatusOpen {
		t.Errorf("unexpected ticket %+v", ticket)
	}
	if want := fixed.AddDate(0, 0, 30); !ticket.DueAt.Equal(want) {
		t.Errorf("due = %v, want %v", ticket.DueAt, want)
	}
	if ticket.Resolution != nil || ticket.ResolvedAt != nil {
		t.Error("new ticket must not carry a resolution")
	}
	if got := f.dispatcher.ofType(events.EventTicketCreated); len(got) != 1 || got[0].TicketID != ticket.ID {
		t.Errorf("created events = %+v", got)
	}

	custom, err := f.svc.CreateTicket(context.Background(), user(1), TicketCreateInput{
		Title: "Badge", Description: "lost", Category: "Facilities", Priority: "Urgentíssimo", DueInDays: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if custom.Priority != "Urgentíssimo" || custom.Priority.Rank() != domain.UnknownPriorityRank {
		t.Errorf("unknown label should be kept verbatim, got %q", custom.Priority)
	}
	if want := fixed.AddDate(0, 0, 3); !custom.DueAt.Equal(want) {
		t.Errorf("due = %v, want %v", custom.DueAt, want)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})

	cases := map[string]TicketCreateInput{
		"blank title":   {Title: "  ", Description: "d", Category: "c"},
		"no category":   {Title: "t", Description: "d"},
		"due too far":   {Title: "t", Description: "d", Category: "c", DueInDays: 91},
		"negative days": {Title: "t", Description: "d", Category: "c", DueInDays: -1},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := f.svc.CreateTicket(context.Background(), user(1), input); !apperrors.IsCode(err, "VALIDATION_FAILED") {
				t.Errorf("err = %v, want VALIDATION_FAILED", err)
			}
		})
	}
	if f.tickets.writes != 0 {
		t.Errorf("invalid input caused %d writes", f.tickets.writes)
	}
}

func TestAssignTwiceRecordsOneAuditRow(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	ticket := f.create(t, user(1), "High")
	claimant := user(2)

	for i := 0; i < 2; i++ {
		got, err := f.svc.Assign(context.Background(), claimant, ticket.ID)
		if err != nil {
			t.Fatalf("Assign #%d: %v", i+1, err)
		}
		if !got.AssignedTo(claimant.ID) {
			t.Errorf("Assign #%d: pointer = %v", i+1, got.AssigneeID)
		}
	}

	if n := f.tickets.countAssignments(ticket.ID, claimant.ID); n != 1 {
		t.Errorf("audit rows = %d, want 1", n)
	}
	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	if !stored.AssignedTo(claimant.ID) {
		t.Errorf("stored pointer = %v, want %d", stored.AssigneeID, claimant.ID)
	}

	claims := f.dispatcher.ofType(events.EventTicketAssigned)
	if len(claims) != 2 {
		t.Fatalf("assigned events = %d, want 2", len(claims))
	}
	first := claims[0].Payload.(events.TicketAssignedPayload)
	second := claims[1].Payload.(events.TicketAssignedPayload)
	if !first.FirstClaim || second.FirstClaim {
		t.Errorf("first-claim flags = %v/%v", first.FirstClaim, second.FirstClaim)
	}
}

func TestConcurrentClaimsKeepAuditTrailClean(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	ticket := f.create(t, user(1), "Medium")

	const perUser = 10
	users := []*domain.User{user(2), user(3), user(4)}
	var wg sync.WaitGroup
	for _, u := range users {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(u *domain.User) {
				defer wg.Done()
				if _, err := f.svc.Assign(context.Background(), u, ticket.ID); err != nil {
					t.Errorf("Assign: %v", err)
				}
			}(u)
		}
	}
	wg.Wait()

	for _, u := range users {
		if n := f.tickets.countAssignments(ticket.ID, u.ID); n != 1 {
			t.Errorf("user %d has %d audit rows, want 1", u.ID, n)
		}
	}
	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	if stored.AssigneeID == nil || *stored.AssigneeID < 2 || *stored.AssigneeID > 4 {
		t.Errorf("pointer = %v, want one of the claimants", stored.AssigneeID)
	}
	if f.svc.locks.size() != 0 {
		t.Errorf("lock table leaked %d entries", f.svc.locks.size())
	}
}

func TestAssignUnknownTicket(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	if _, err := f.svc.Assign(context.Background(), user(1), 99); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestResolveRequiresNote(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	creator := user(1)
	ticket := f.create(t, creator, "Low")
	writesBefore := f.tickets.writes

	_, err := f.svc.UpdateStatus(context.Background(), creator, ticket.ID, StatusChangeInput{
		Status: domain.TicketStatusResolved, Resolution: "   ",
	})
	if !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
	if f.tickets.writes != writesBefore {
		t.Error("rejected resolve must not write")
	}

	resolved, err := f.svc.UpdateStatus(context.Background(), creator, ticket.ID, StatusChangeInput{
		Status: domain.TicketStatusResolved, Resolution: "Replaced the toner",
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	for _, tk := range []*domain.Ticket{resolved, stored} {
		if tk.Status != domain.TicketStatusResolved {
			t.Errorf("status = %q", tk.Status)
		}
		if tk.Resolution == nil || *tk.Resolution != "Replaced the toner" || tk.ResolvedAt == nil {
			t.Errorf("resolution fields not set together: %v %v", tk.Resolution, tk.ResolvedAt)
		}
	}

	closed, err := f.svc.UpdateStatus(context.Background(), creator, ticket.ID, StatusChangeInput{Status: domain.TicketStatusClosed})
	if err != nil {
		t.Fatal(err)
	}
	if closed.Resolution == nil || closed.ResolvedAt == nil {
		t.Error("later transitions must keep the resolution history")
	}
}

func TestUpdateStatusActorsAndValues(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	ticket := f.create(t, user(1), "Low")

	if _, err := f.svc.UpdateStatus(context.Background(), user(5), ticket.ID, StatusChangeInput{Status: domain.TicketStatusInProgress}); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Errorf("stranger: err = %v, want FORBIDDEN", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), user(1), ticket.ID, StatusChangeInput{Status: "done"}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Errorf("unknown status: err = %v, want VALIDATION_FAILED", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), admin(9), ticket.ID, StatusChangeInput{Status: domain.TicketStatusInProgress}); err != nil {
		t.Errorf("admin: %v", err)
	}

	if _, err := f.svc.Assign(context.Background(), user(6), ticket.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), user(6), ticket.ID, StatusChangeInput{Status: domain.TicketStatusClosed}); err != nil {
		t.Errorf("assignee: %v", err)
	}
}

func TestTransitionPolicy(t *testing.T) {
	permissive := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	ticket := permissive.create(t, user(1), "Low")
	if _, err := permissive.svc.UpdateStatus(context.Background(), user(1), ticket.ID, StatusChangeInput{Status: domain.TicketStatusClosed}); err != nil {
		t.Fatalf("permissive open->closed: %v", err)
	}
	if _, err := permissive.svc.UpdateStatus(context.Background(), user(1), ticket.ID, StatusChangeInput{Status: domain.TicketStatusOpen}); err != nil {
		t.Fatalf("permissive reopen: %v", err)
	}

	strict := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30, StrictTransitions: true})
	ticket = strict.create(t, user(1), "Low")
	_, err := strict.svc.UpdateStatus(context.Background(), user(1), ticket.ID, StatusChangeInput{Status: domain.TicketStatusResolved, Resolution: "done"})
	if !apperrors.IsCode(err, "INVALID_TRANSITION") {
		t.Fatalf("strict open->resolved: err = %v, want INVALID_TRANSITION", err)
	}
	for _, next := range []domain.TicketStatus{domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed} {
		if _, err := strict.svc.UpdateStatus(context.Background(), user(1), ticket.ID, StatusChangeInput{Status: next, Resolution: "done"}); err != nil {
			t.Fatalf("strict ->%s: %v", next, err)
		}
	}
	if _, err := strict.svc.UpdateStatus(context.Background(), user(1), ticket.ID, StatusChangeInput{Status: domain.TicketStatusOpen}); !apperrors.IsCode(err, "INVALID_TRANSITION") {
		t.Errorf("strict closed->open: err = %v", err)
	}
}

func TestConcurrentStatusChangesFollowStrictTransitions(t *testing.T) {
	for round := 0; round < 50; round++ {
		f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30, StrictTransitions: true})
		ticket := f.create(t, user(1), "Low")
		if _, err := f.svc.UpdateStatus(context.Background(), user(1), ticket.ID, StatusChangeInput{Status: domain.TicketStatusInProgress}); err != nil {
			t.Fatal(err)
		}

		changes := []StatusChangeInput{
			{Status: domain.TicketStatusClosed},
			{Status: domain.TicketStatusResolved, Resolution: "Reseated the cable"},
		}
		errs := make([]error, len(changes))
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i, change := range changes {
			wg.Add(1)
			go func(i int, change StatusChangeInput) {
				defer wg.Done()
				<-start
				_, errs[i] = f.svc.UpdateStatus(context.Background(), user(1), ticket.ID, change)
			}(i, change)
		}
		close(start)
		wg.Wait()

		if errs[0] != nil {
			t.Fatalf("round %d: in_progress->closed or resolved->closed must succeed: %v", round, errs[0])
		}
		if errs[1] != nil && !apperrors.IsCode(errs[1], "INVALID_TRANSITION") {
			t.Fatalf("round %d: resolve err = %v, want nil or INVALID_TRANSITION", round, errs[1])
		}
		stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
		if stored.Status != domain.TicketStatusClosed {
			t.Fatalf("round %d: final status = %q, want closed", round, stored.Status)
		}
	}
}

// staleReadRepo reports a status the stored row no longer has, as a reader
// outside this process would see after a concurrent write.
type staleReadRepo struct {
	*fakeTicketRepo
	reported domain.TicketStatus
}

func (r *staleReadRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	t, err := r.fakeTicketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Status = r.reported
	return t, nil
}

func TestUpdateStatusRejectsStaleRead(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30, StrictTransitions: true})
	ticket := f.create(t, user(1), "Low")
	svc := NewTicketService(TicketDependencies{
		TicketRepo:     &staleReadRepo{fakeTicketRepo: f.tickets, reported: domain.TicketStatusInProgress},
		AttachmentRepo: f.attachments,
		ResearchRepo:   f.research,
		Extractor:      extract.New(zap.NewNop()),
		Dispatcher:     f.dispatcher,
		Recorder:       f.extractions,
		Config:         config.TicketsConfig{DefaultDueDays: 30, StrictTransitions: true},
	})
	writesBefore := f.tickets.writes

	_, err := svc.UpdateStatus(context.Background(), user(1), ticket.ID, StatusChangeInput{
		Status: domain.TicketStatusResolved, Resolution: "done",
	})
	if !apperrors.IsCode(err, "CONFLICT") {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	if stored.Status != domain.TicketStatusOpen || stored.Resolution != nil {
		t.Errorf("stored ticket changed: status %q resolution %v", stored.Status, stored.Resolution)
	}
	if f.tickets.writes != writesBefore {
		t.Error("stale write must not be applied")
	}
}

func TestAvailableForExcludesOwnClaimsAndOrders(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	actor := user(7)

	low := f.create(t, user(1), "Low")
	unknown := f.create(t, user(1), "Someday")
	highA := f.create(t, user(2), "High")
	mine := f.create(t, user(2), "Critical")
	highB := f.create(t, user(3), "Alta")
	done := f.create(t, user(3), "Critical")

	if _, err := f.svc.Assign(context.Background(), actor, mine.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), user(3), done.ID, StatusChangeInput{Status: domain.TicketStatusClosed}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Assign(context.Background(), user(8), low.ID); err != nil {
		t.Fatal(err)
	}

	queue, err := f.svc.AvailableFor(context.Background(), actor.ID)
	if err != nil {
		t.Fatal(err)
	}

	var got []int64
	for _, tk := range queue {
		if tk.AssignedTo(actor.ID) {
			t.Errorf("ticket %d is assigned to the actor", tk.ID)
		}
		got = append(got, tk.ID)
	}
	// Newest first within equal priority.
	want := []int64{highB.ID, highA.ID, low.ID, unknown.ID}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("queue = %v, want %v", got, want)
	}
}

func TestQueueShowsCriticalFirstAcrossUsers(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	high := f.create(t, user(1), "Alta")
	critical := f.create(t, user(2), "Crítico")

	queue, err := f.svc.AvailableFor(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(queue) != 2 {
		t.Fatalf("queue has %d tickets, want 2", len(queue))
	}
	if queue[0].ID != critical.ID || queue[0].Priority != domain.TicketPriorityCritical {
		t.Errorf("first = %+v, want the critical ticket", queue[0])
	}
	if queue[1].ID != high.ID {
		t.Errorf("second = %d, want %d", queue[1].ID, high.ID)
	}
}

func TestOrderByPriorityIsStable(t *testing.T) {
	tickets := []domain.Ticket{
		{ID: 1, Priority: "Low"},
		{ID: 2, Priority: "Whenever"},
		{ID: 3, Priority: "Critical"},
		{ID: 4, Priority: "Low"},
		{ID: 5, Priority: "Eventually"},
		{ID: 6, Priority: "Medium"},
		{ID: 7, Priority: "Critical"},
	}
	OrderByPriority(tickets)

	var got []int64
	for _, tk := range tickets {
		got = append(got, tk.ID)
	}
	if want := "[3 7 6 1 4 2 5]"; fmt.Sprint(got) != want {
		t.Errorf("order = %v, want %s", got, want)
	}
}

func TestAddAttachmentStoresExtraction(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	ticket := f.create(t, user(1), "Low")

	txt, err := f.svc.AddAttachment(context.Background(), user(1), ticket.ID, AttachmentInput{
		FileName: "error.log", MediaType: "text/plain", Data: []byte("disk quota exceeded"),
	})
	if err != nil {
		t.Fatalf("AddAttachment: %v", err)
	}
	if txt.ExtractionStatus != domain.ExtractionOK || txt.ExtractedText != "disk quota exceeded" {
		t.Errorf("unexpected extraction %+v", txt)
	}

	legacy, err := f.svc.AddAttachment(context.Background(), user(1), ticket.ID, AttachmentInput{
		FileName: "old.doc", Data: []byte{0xD0, 0xCF, 0x11, 0xE0},
	})
	if err != nil {
		t.Fatalf("unsupported type must not fail the upload: %v", err)
	}
	if legacy.ExtractionStatus != domain.ExtractionUnsupported || legacy.ExtractionMessage == "" {
		t.Errorf("unexpected extraction %+v", legacy)
	}

	broken, err := f.svc.AddAttachment(context.Background(), user(1), ticket.ID, AttachmentInput{
		FileName: "scan.pdf", Data: []byte("definitely not a pdf"),
	})
	if err != nil {
		t.Fatalf("corrupt file must not fail the upload: %v", err)
	}
	if broken.ExtractionStatus != domain.ExtractionFailed {
		t.Errorf("status = %q, want failed", broken.ExtractionStatus)
	}

	if _, err := f.svc.AddAttachment(context.Background(), user(1), ticket.ID, AttachmentInput{
		FileName: "big.txt", Data: make([]byte, 2048),
	}); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Errorf("oversized upload: err = %v", err)
	}
	if _, err := f.svc.AddAttachment(context.Background(), user(1), 404, AttachmentInput{
		FileName: "a.txt", Data: []byte("x"),
	}); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("missing ticket: err = %v", err)
	}

	if f.extractions.counts["log:ok"] != 1 || f.extractions.counts["doc:unsupported"] != 1 || f.extractions.counts["pdf:failed"] != 1 {
		t.Errorf("extraction metrics = %v", f.extractions.counts)
	}
	if len(f.attachments.items) != 3 {
		t.Errorf("stored %d attachments, want 3", len(f.attachments.items))
	}

	blob, err := f.svc.GetAttachment(context.Background(), ticket.ID, txt.ID)
	if err != nil || string(blob.Data) != "disk quota exceeded" {
		t.Errorf("GetAttachment = %v, %v", blob, err)
	}
	if _, err := f.svc.GetAttachment(context.Background(), ticket.ID+1, txt.ID); !apperrors.IsCode(err, "NOT_FOUND") {
		t.Errorf("attachment from another ticket: err = %v", err)
	}
}

func TestGetTicketDetail(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	ticket := f.create(t, user(1), "Low")
	if _, err := f.svc.Assign(context.Background(), user(2), ticket.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.AddAttachment(context.Background(), user(1), ticket.ID, AttachmentInput{FileName: "a.txt", Data: []byte("hello")}); err != nil {
		t.Fatal(err)
	}

	detail, err := f.svc.GetTicket(context.Background(), ticket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(detail.Assignments) != 1 || len(detail.Attachments) != 1 {
		t.Errorf("detail = %+v", detail)
	}
	if detail.Attachments[0].Data != nil {
		t.Error("detail must not carry blobs")
	}
}

func TestFlagOverdue(t *testing.T) {
	f := newTicketFixture(t, config.TicketsConfig{DefaultDueDays: 30})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return start }

	late := f.create(t, user(1), "High")
	done := f.create(t, user(1), "High")
	if _, err := f.svc.UpdateStatus(context.Background(), user(1), done.ID, StatusChangeInput{Status: domain.TicketStatusResolved, Resolution: "ok"}); err != nil {
		t.Fatal(err)
	}

	f.svc.now = func() time.Time { return start.AddDate(0, 0, 31) }
	n, err := f.svc.FlagOverdue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("flagged %d, want 1", n)
	}
	got := f.dispatcher.ofType(events.EventTicketOverdue)
	if len(got) != 1 || got[0].TicketID != late.ID || !got[0].Actor.System() {
		t.Errorf("overdue events = %+v", got)
	}
}
