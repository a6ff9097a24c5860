package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveAuthorities(t *testing.T) {
	t.Run("role name counts as an authority", func(t *testing.T) {
		user := &User{
			Role: &Role{
				Name:        "Admin",
				Authorities: []string{AuthorityCreateTicket, AuthorityEditTicket},
			},
		}
		assert.ElementsMatch(t,
			[]string{AuthorityCreateTicket, AuthorityEditTicket, "Admin"},
			user.EffectiveAuthorities())
		assert.True(t, user.HasAuthority("Admin"))
		assert.True(t, user.HasAuthority(AuthorityEditTicket))
		assert.False(t, user.HasAuthority(AuthorityDeleteTicket))
	})

	t.Run("no role means no authorities", func(t *testing.T) {
		user := &User{}
		assert.Empty(t, user.EffectiveAuthorities())
		assert.False(t, user.HasAuthority(AuthorityCreateTicket))
	})
}

func TestTicketOwnership(t *testing.T) {
	ticket := &Ticket{CreatedBy: &UserRef{ID: 1, Email: "alice@example.com"}}

	t.Run("ownership is keyed by email", func(t *testing.T) {
		// same email under a different id still owns the ticket
		assert.True(t, ticket.IsOwnedBy(&User{ID: 9, Email: "alice@example.com"}))
		assert.False(t, ticket.IsOwnedBy(&User{ID: 1, Email: "mallory@example.com"}))
	})

	t.Run("nil sides never own", func(t *testing.T) {
		assert.False(t, ticket.IsOwnedBy(nil))
		assert.False(t, (&Ticket{}).IsOwnedBy(&User{Email: "alice@example.com"}))
	})
}

func TestValidEnums(t *testing.T) {
	assert.True(t, ValidPriority(TicketPriorityMedium))
	assert.False(t, ValidPriority("URGENT"))
	assert.True(t, ValidStatus(TicketStatusClose))
	assert.False(t, ValidStatus("PENDING"))
}
