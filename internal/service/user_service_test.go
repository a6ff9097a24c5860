package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latte-hq/latte-api/internal/domain"
	apperrors "github.com/latte-hq/latte-api/pkg/util/errorutil"
)

type userFixture struct {
	svc        *UserService
	users      *fakeUserRepo
	roles      *fakeRoleRepo
	tickets    *fakeTicketRepo
	activities *fakeActivityRepo
}

func newUserFixture() *userFixture {
	f := &userFixture{
		users:      newFakeUserRepo(),
		roles:      newFakeRoleRepo(),
		tickets:    newFakeTicketRepo(),
		activities: newFakeActivityRepo(),
	}
	f.svc = NewUserService(UserDependencies{
		TxRunner:     fakeTxRunner{},
		UserRepo:     f.users,
		RoleRepo:     f.roles,
		TicketRepo:   f.tickets,
		ActivityRepo: f.activities,
	})
	return f
}

func TestUpdateSelf(t *testing.T) {
	ctx := context.Background()

	t.Run("updates profile fields", func(t *testing.T) {
		f := newUserFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))

		updated, err := f.svc.UpdateSelf(ctx, alice, UserUpdateInput{Firstname: "Alicia", Email: "alicia@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "Alicia", updated.Firstname)

		stored, err := f.users.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alicia@example.com", stored.Email)
	})

	t.Run("protected account cannot be edited", func(t *testing.T) {
		f := newUserFixture()
		admin := newTestUser(0, "Admin", "admin@admin.com")
		admin.Editable = false
		f.users.add(admin)

		_, err := f.svc.UpdateSelf(ctx, admin, UserUpdateInput{Firstname: "Root", Email: admin.Email})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves the new role by name", func(t *testing.T) {
		f := newUserFixture()
		f.roles.add(&domain.Role{Name: "Agent", Editable: true, Deletable: true})
		support := f.roles.add(&domain.Role{Name: "Support", Editable: true, Deletable: true})
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))

		updated, err := f.svc.UpdateUser(ctx, alice.Email, UserUpdateInput{
			Firstname: alice.Firstname,
			Email:     alice.Email,
			Role:      "Support",
		})
		require.NoError(t, err)
		assert.Equal(t, support.ID, updated.RoleID)
	})

	t.Run("unknown role fails", func(t *testing.T) {
		f := newUserFixture()
		alice := f.users.add(newTestUser(0, "Alice", "alice@example.com"))

		_, err := f.svc.UpdateUser(ctx, alice.Email, UserUpdateInput{
			Firstname: alice.Firstname,
			Email:     alice.Email,
			Role:      "Ghost",
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})

	t.Run("unknown user fails", func(t *testing.T) {
		f := newUserFixture()
		_, err := f.svc.UpdateUser(ctx, "nobody@example.com", UserUpdateInput{})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("reassigns footprint to the fallback admin", func(t *testing.T) {
		f := newUserFixture()
		admin := newTestUser(0, "Admin", "admin@admin.com")
		admin.Editable = false
		admin.Deletable = false
		f.users.add(admin)
		bob := f.users.add(newTestUser(0, "Bob", "bob@example.com"))

		owned := &domain.Ticket{Title: "Bob's ticket", CreatedByID: bob.ID, CreatedBy: bob.Ref()}
		require.NoError(t, f.tickets.Create(ctx, owned))
		assigned := &domain.Ticket{Title: "Assigned to Bob", CreatedByID: admin.ID, AssignedToID: &bob.ID, AssignedTo: bob.Ref()}
		require.NoError(t, f.tickets.Create(ctx, assigned))
		note := domain.Activity{Type: domain.ActivityTypeComment, Message: "hi", AuthorID: bob.ID, Author: bob.Ref(), TicketID: owned.ID}
		require.NoError(t, f.activities.Create(ctx, &note))

		require.NoError(t, f.svc.DeleteUser(ctx, bob.Email))

		_, err := f.users.GetByID(ctx, bob.ID)
		require.Error(t, err)

		movedTicket, err := f.tickets.GetByID(ctx, owned.ID)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, movedTicket.CreatedByID)

		unassigned, err := f.tickets.GetByID(ctx, assigned.ID)
		require.NoError(t, err)
		assert.Nil(t, unassigned.AssignedToID)

		movedNote, err := f.activities.GetByID(ctx, note.ID)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, movedNote.AuthorID)
	})

	t.Run("protected account cannot be deleted", func(t *testing.T) {
		f := newUserFixture()
		admin := newTestUser(0, "Admin", "admin@admin.com")
		admin.Deletable = false
		f.users.add(admin)

		err := f.svc.DeleteUser(ctx, admin.Email)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	})
}

func TestUserQueries(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	f.users.add(newTestUser(0, "Alice", "alice@example.com"))
	f.users.add(newTestUser(0, "Bob", "bob@example.com"))

	count, err := f.svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	names, total, err := f.svc.ListFirstnames(ctx, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)
}
