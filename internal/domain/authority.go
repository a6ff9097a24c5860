package domain

// Authority tokens granted through roles. The engine never interprets the
// token beyond equality.
const (
	AuthorityCreateUser        = "user::create"
	AuthorityEditUser          = "user::edit"
	AuthorityDeleteUser        = "user::delete"
	AuthorityResetUserPassword = "user::reset-password"
	AuthorityCreateTicket      = "ticket::create"
	AuthorityEditTicket        = "ticket::edit"
	AuthorityDeleteTicket      = "ticket::delete"
	AuthorityLockTicket        = "ticket::lock-unlock"
	AuthorityAssignTicket      = "ticket::assign"
	AuthorityCreateRole        = "role::create"
	AuthorityEditRole          = "role::edit"
	AuthorityDeleteRole        = "role::delete"
)

// Authority is a seeded permission token row.
type Authority struct {
	ID    int64
	Token string
}
