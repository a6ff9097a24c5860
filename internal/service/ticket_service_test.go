package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/events"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

type recordingDispatcher struct {
	published []events.Event
}

func (r *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	r.published = append(r.published, event)
	return nil
}

func (r *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (r *recordingDispatcher) ofType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, event := range r.published {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

type ticketFixture struct {
	svc        *TicketService
	tickets    *fakeTicketRepo
	users      *fakeUserRepo
	clients    *fakeClientRepo
	activities *fakeActivityRepo
	dispatcher *recordingDispatcher
}

func newTicketFixture() *ticketFixture {
	f := &ticketFixture{
		tickets:    newFakeTicketRepo(),
		users:      newFakeUserRepo(),
		clients:    newFakeClientRepo(),
		activities: newFakeActivityRepo(),
		dispatcher: &recordingDispatcher{},
	}
	f.svc = NewTicketService(TicketDependencies{
		TxRunner:     fakeTxRunner{},
		TicketRepo:   f.tickets,
		UserRepo:     f.users,
		ClientRepo:   f.clients,
		ActivityRepo: f.activities,
		Dispatcher:   f.dispatcher,
	})
	return f
}

func (f *ticketFixture) seedTicket(owner *domain.User, mutate func(*domain.Ticket)) *domain.Ticket {
	ticket := &domain.Ticket{
		Title:       "Printer broken",
		Description: "It makes noises",
		Priority:    domain.TicketPriorityLow,
		Status:      domain.TicketStatusOpen,
		CreatedByID: owner.ID,
		CreatedBy:   owner.Ref(),
	}
	if mutate != nil {
		mutate(ticket)
	}
	_ = f.tickets.Create(context.Background(), ticket)
	return ticket
}

func strPtr(s string) *string { return &s }

func priPtr(p domain.TicketPriority) *domain.TicketPriority { return &p }

func statPtr(s domain.TicketStatus) *domain.TicketStatus { return &s }

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("creates ticket with creation activity", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))

		ticket, err := f.svc.CreateTicket(ctx, alice, TicketCreateInput{
			Title:       "Printer broken",
			Description: "It makes noises",
			Priority:    domain.TicketPriorityHigh,
			Status:      domain.TicketStatusOpen,
		})
		require.NoError(t, err)
		require.NotZero(t, ticket.ID)

		activities := f.activities.byTicket(ticket.ID)
		require.Len(t, activities, 1)
		assert.Equal(t, domain.ActivityTypeEdit, activities[0].Type)
		assert.Equal(t, "Alice created ticket", activities[0].Message)

		created := f.dispatcher.ofType(events.EventTicketCreated)
		require.Len(t, created, 1)
		assert.Equal(t, ticket.ID, created[0].TicketID)
	})

	t.Run("assignment on create requires assign authority", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		f.users.add(newTestUser(0, "Bob", "bob@example.com"))

		_, err := f.svc.CreateTicket(ctx, alice, TicketCreateInput{Title: "t", AssignedTo: "Bob"})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("unknown assignee fails", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com", domain.AuthorityAssignTicket))

		_, err := f.svc.CreateTicket(ctx, alice, TicketCreateInput{Title: "t", AssignedTo: "Nobody"})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})

	t.Run("assignment on create publishes event", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com", domain.AuthorityAssignTicket))
		bob := f.users.add(newTestUser(0, "Bob", "bob@example.com"))

		ticket, err := f.svc.CreateTicket(ctx, alice, TicketCreateInput{Title: "t", AssignedTo: "Bob"})
		require.NoError(t, err)
		require.NotNil(t, ticket.AssignedToID)
		assert.Equal(t, bob.ID, *ticket.AssignedToID)

		assigned := f.dispatcher.ofType(events.EventTicketAssigned)
		require.Len(t, assigned, 1)
		payload := assigned[0].Payload.(events.TicketAssignedPayload)
		assert.Nil(t, payload.OldAssignee)
		require.NotNil(t, payload.NewAssignee)
		assert.Equal(t, "bob@example.com", payload.NewAssignee.Email)
	})

	t.Run("unknown priority or status is rejected", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))

		_, err := f.svc.CreateTicket(ctx, alice, TicketCreateInput{Title: "t", Priority: "BANANA"})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

		_, err = f.svc.CreateTicket(ctx, alice, TicketCreateInput{Title: "t", Status: "PENDING"})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})

	t.Run("empty priority and status take defaults", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))

		ticket, err := f.svc.CreateTicket(ctx, alice, TicketCreateInput{Title: "t"})
		require.NoError(t, err)
		assert.Equal(t, domain.TicketPriorityLow, ticket.Priority)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)

		open, _, err := f.svc.TicketCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), open)
	})

	t.Run("unknown client fails", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		missing := int64(42)

		_, err := f.svc.CreateTicket(ctx, alice, TicketCreateInput{Title: "t", ClientID: &missing})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})
}

func TestEditTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("locked ticket rejects any patch", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		ticket := f.seedTicket(alice, func(tk *domain.Ticket) { tk.Locked = true })

		_, err := f.svc.EditTicket(ctx, alice, ticket.ID, TicketPatch{Title: strPtr("New")})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "LOCK_CONFLICT"))
	})

	t.Run("non-owner without edit authority is rejected", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		mallory := f.users.add(newTestUser(0, "Mallory", "mallory@example.com"))
		ticket := f.seedTicket(alice, nil)

		_, err := f.svc.EditTicket(ctx, mallory, ticket.ID, TicketPatch{Title: strPtr("Hijacked")})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
		assert.Zero(t, f.tickets.updateCalls)
		assert.Empty(t, f.activities.byTicket(ticket.ID))
	})

	t.Run("edit authority substitutes for ownership", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		eve := f.users.add(newTestUser(0, "Eve", "eve@example.com", domain.AuthorityEditTicket))
		ticket := f.seedTicket(alice, nil)

		updated, err := f.svc.EditTicket(ctx, eve, ticket.ID, TicketPatch{Title: strPtr("Printer on fire")})
		require.NoError(t, err)
		assert.Equal(t, "Printer on fire", updated.Title)
	})

	t.Run("owner edits title and priority in one patch", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		ticket := f.seedTicket(alice, nil)

		updated, err := f.svc.EditTicket(ctx, alice, ticket.ID, TicketPatch{
			Title:    strPtr("Printer on fire"),
			Priority: priPtr(domain.TicketPriorityHigh),
		})
		require.NoError(t, err)
		assert.Equal(t, "Printer on fire", updated.Title)
		assert.Equal(t, domain.TicketPriorityHigh, updated.Priority)

		activities := f.activities.byTicket(ticket.ID)
		require.Len(t, activities, 2)
		assert.Equal(t, "Alice change title from Printer broken to Printer on fire", activities[0].Message)
		assert.Equal(t, "Alice change priority from LOW to HIGH", activities[1].Message)

		edited := f.dispatcher.ofType(events.EventTicketEdited)
		require.Len(t, edited, 1)
		payload := edited[0].Payload.(events.TicketEditedPayload)
		assert.Equal(t, []string{"title", "priority"}, payload.Fields)
	})

	t.Run("patch of unchanged values is a no-op", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		ticket := f.seedTicket(alice, nil)

		_, err := f.svc.EditTicket(ctx, alice, ticket.ID, TicketPatch{
			Title:  strPtr("Printer broken"),
			Status: statPtr(domain.TicketStatusOpen),
		})
		require.NoError(t, err)
		assert.Zero(t, f.tickets.updateCalls)
		assert.Empty(t, f.activities.byTicket(ticket.ID))
		assert.Empty(t, f.dispatcher.published)
	})

	t.Run("invalid priority is rejected", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		ticket := f.seedTicket(alice, nil)

		_, err := f.svc.EditTicket(ctx, alice, ticket.ID, TicketPatch{Priority: priPtr("URGENT")})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})

	t.Run("ownership does not grant assignment", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		f.users.add(newTestUser(0, "Bob", "bob@example.com"))
		ticket := f.seedTicket(alice, nil)

		_, err := f.svc.EditTicket(ctx, alice, ticket.ID, TicketPatch{AssignedTo: strPtr("Bob")})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("reassignment records transition and event", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		bob := f.users.add(newTestUser(0, "Bob", "bob@example.com"))
		f.users.add(newTestUser(0, "Carol", "carol@example.com"))
		frank := f.users.add(newTestUser(0, "Frank", "frank@example.com", domain.AuthorityAssignTicket))
		ticket := f.seedTicket(alice, func(tk *domain.Ticket) {
			tk.AssignedToID = &bob.ID
			tk.AssignedTo = bob.Ref()
		})

		_, err := f.svc.EditTicket(ctx, frank, ticket.ID, TicketPatch{AssignedTo: strPtr("Carol")})
		require.NoError(t, err)

		activities := f.activities.byTicket(ticket.ID)
		require.Len(t, activities, 1)
		assert.Equal(t, "Frank unassigned Bob and assigned ticket to Carol", activities[0].Message)

		assigned := f.dispatcher.ofType(events.EventTicketAssigned)
		require.Len(t, assigned, 1)
		payload := assigned[0].Payload.(events.TicketAssignedPayload)
		assert.Equal(t, "bob@example.com", payload.OldAssignee.Email)
		assert.Equal(t, "carol@example.com", payload.NewAssignee.Email)
	})

	t.Run("empty assignee unassigns", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		bob := f.users.add(newTestUser(0, "Bob", "bob@example.com"))
		frank := f.users.add(newTestUser(0, "Frank", "frank@example.com", domain.AuthorityAssignTicket))
		ticket := f.seedTicket(alice, func(tk *domain.Ticket) {
			tk.AssignedToID = &bob.ID
			tk.AssignedTo = bob.Ref()
		})

		updated, err := f.svc.EditTicket(ctx, frank, ticket.ID, TicketPatch{AssignedTo: strPtr("")})
		require.NoError(t, err)
		assert.Nil(t, updated.AssignedToID)

		activities := f.activities.byTicket(ticket.ID)
		require.Len(t, activities, 1)
		assert.Equal(t, "Frank unassigned Bob", activities[0].Message)
	})

	t.Run("client change names both sides", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		acme := f.clients.add(&domain.Client{Name: "Acme"})
		globex := f.clients.add(&domain.Client{Name: "Globex"})
		ticket := f.seedTicket(alice, func(tk *domain.Ticket) { tk.ClientID = &acme.ID })

		_, err := f.svc.EditTicket(ctx, alice, ticket.ID, TicketPatch{ClientID: &globex.ID})
		require.NoError(t, err)

		activities := f.activities.byTicket(ticket.ID)
		require.Len(t, activities, 1)
		assert.Equal(t, "Alice change client from Acme to Globex", activities[0].Message)
	})
}

func TestLockUnlock(t *testing.T) {
	ctx := context.Background()

	t.Run("requires lock authority", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		ticket := f.seedTicket(alice, nil)

		_, err := f.svc.LockTicket(ctx, alice, ticket.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("locking is idempotent and silent", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com", domain.AuthorityLockTicket))
		ticket := f.seedTicket(alice, nil)

		locked, err := f.svc.LockTicket(ctx, alice, ticket.ID)
		require.NoError(t, err)
		assert.True(t, locked.Locked)

		locked, err = f.svc.LockTicket(ctx, alice, ticket.ID)
		require.NoError(t, err)
		assert.True(t, locked.Locked)

		assert.Empty(t, f.activities.byTicket(ticket.ID))
		assert.Empty(t, f.dispatcher.published)

		unlocked, err := f.svc.UnlockTicket(ctx, alice, ticket.ID)
		require.NoError(t, err)
		assert.False(t, unlocked.Locked)
	})
}

func TestDeleteTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("locked ticket cannot be deleted", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com", domain.AuthorityDeleteTicket))
		ticket := f.seedTicket(alice, func(tk *domain.Ticket) { tk.Locked = true })

		err := f.svc.DeleteTicket(ctx, alice, ticket.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "LOCK_CONFLICT"))
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		mallory := f.users.add(newTestUser(0, "Mallory", "mallory@example.com"))
		ticket := f.seedTicket(alice, nil)

		err := f.svc.DeleteTicket(ctx, mallory, ticket.ID)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})

	t.Run("owner delete clears assignment first", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		bob := f.users.add(newTestUser(0, "Bob", "bob@example.com"))
		ticket := f.seedTicket(alice, func(tk *domain.Ticket) {
			tk.AssignedToID = &bob.ID
			tk.AssignedTo = bob.Ref()
		})

		err := f.svc.DeleteTicket(ctx, alice, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, f.tickets.updateCalls)
		assert.Equal(t, 1, f.tickets.deleteCalls)
		_, err = f.tickets.GetByID(ctx, ticket.ID)
		require.Error(t, err)

		deleted := f.dispatcher.ofType(events.EventTicketDeleted)
		require.Len(t, deleted, 1)
	})
}

func TestTicketQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("counts per status", func(t *testing.T) {
		f := newTicketFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))
		f.seedTicket(alice, nil)
		f.seedTicket(alice, nil)
		f.seedTicket(alice, func(tk *domain.Ticket) { tk.Status = domain.TicketStatusClose })

		open, closed, err := f.svc.TicketCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), open)
		assert.Equal(t, int64(1), closed)
	})

	t.Run("invalid status filter is rejected", func(t *testing.T) {
		f := newTicketFixture()
		_, _, err := f.svc.ListTicketsByStatus(ctx, "PENDING", 20, 0)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	})

	t.Run("activities require an existing ticket", func(t *testing.T) {
		f := newTicketFixture()
		_, _, err := f.svc.ListActivities(ctx, 99, 20, 0)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})
}
