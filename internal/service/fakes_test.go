package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/latte-hq/latte-api/internal/domain"
	"github.com/latte-hq/latte-api/internal/repository"
)

// In-memory fakes backing the service tests. WithTx returns the receiver;
// the fake runner simply invokes the callback, so transactional code paths
// run against the same state.

type fakeTxRunner struct{}

func (fakeTxRunner) InTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return fn(nil)
}

type fakeUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (f *fakeUserRepo) add(user *domain.User) *domain.User {
	if user.ID == 0 {
		user.ID = f.nextID
		f.nextID++
	} else if user.ID >= f.nextID {
		f.nextID = user.ID + 1
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) WithTx(tx pgx.Tx) repository.UserRepository { return f }

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.add(user)
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByFirstname(ctx context.Context, firstname string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Firstname == firstname {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) ExistsByEmailOrFirstname(ctx context.Context, email, firstname string) (bool, error) {
	for _, user := range f.users {
		if user.Email == email || user.Firstname == firstname {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) GetFallback(ctx context.Context) (*domain.User, error) {
	for _, user := range f.users {
		if !user.Deletable {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, *user)
	}
	return out, int64(len(f.users)), nil
}

func (f *fakeUserRepo) ListFirstnames(ctx context.Context, limit, offset int) ([]string, int64, error) {
	names := make([]string, 0, len(f.users))
	for _, user := range f.users {
		names = append(names, user.Firstname)
	}
	return names, int64(len(names)), nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) ReassignRole(ctx context.Context, fromRoleID, toRoleID int64) error {
	for _, user := range f.users {
		if user.RoleID == fromRoleID {
			user.RoleID = toRoleID
		}
	}
	return nil
}

type fakeTicketRepo struct {
	tickets     map[int64]*domain.Ticket
	nextID      int64
	updateCalls int
	deleteCalls int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[int64]*domain.Ticket), nextID: 1}
}

func (f *fakeTicketRepo) WithTx(tx pgx.Tx) repository.TicketRepository { return f }

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	ticket.ID = f.nextID
	f.nextID++
	clone := *ticket
	f.tickets[ticket.ID] = &clone
	return nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.updateCalls++
	clone := *ticket
	f.tickets[ticket.ID] = &clone
	return nil
}

func (f *fakeTicketRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	f.deleteCalls++
	delete(f.tickets, id)
	return nil
}

// GetByID hands out a copy so in-flight edits do not leak into the store
// before Update commits them.
func (f *fakeTicketRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (f *fakeTicketRepo) List(ctx context.Context, limit, offset int) ([]domain.Ticket, int64, error) {
	out := make([]domain.Ticket, 0, len(f.tickets))
	for _, ticket := range f.tickets {
		out = append(out, *ticket)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTicketRepo) ListByStatus(ctx context.Context, status domain.TicketStatus, limit, offset int) ([]domain.Ticket, int64, error) {
	out := make([]domain.Ticket, 0)
	for _, ticket := range f.tickets {
		if ticket.Status == status {
			out = append(out, *ticket)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeTicketRepo) CountByStatus(ctx context.Context, status domain.TicketStatus) (int64, error) {
	var count int64
	for _, ticket := range f.tickets {
		if ticket.Status == status {
			count++
		}
	}
	return count, nil
}

func (f *fakeTicketRepo) ReassignCreatedBy(ctx context.Context, fromUserID, toUserID int64) error {
	for _, ticket := range f.tickets {
		if ticket.CreatedByID == fromUserID {
			ticket.CreatedByID = toUserID
		}
	}
	return nil
}

func (f *fakeTicketRepo) ClearAssignee(ctx context.Context, userID int64) error {
	for _, ticket := range f.tickets {
		if ticket.AssignedToID != nil && *ticket.AssignedToID == userID {
			ticket.AssignedToID = nil
			ticket.AssignedTo = nil
		}
	}
	return nil
}

type fakeActivityRepo struct {
	activities map[int64]*domain.Activity
	nextID     int64
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{activities: make(map[int64]*domain.Activity), nextID: 1}
}

func (f *fakeActivityRepo) WithTx(tx pgx.Tx) repository.ActivityRepository { return f }

func (f *fakeActivityRepo) Create(ctx context.Context, activity *domain.Activity) error {
	activity.ID = f.nextID
	f.nextID++
	clone := *activity
	f.activities[activity.ID] = &clone
	return nil
}

func (f *fakeActivityRepo) CreateBatch(ctx context.Context, activities []domain.Activity) error {
	for i := range activities {
		if err := f.Create(ctx, &activities[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeActivityRepo) UpdateMessage(ctx context.Context, id int64, message string) error {
	activity, ok := f.activities[id]
	if !ok {
		return pgx.ErrNoRows
	}
	activity.Message = message
	return nil
}

func (f *fakeActivityRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.activities[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.activities, id)
	return nil
}

func (f *fakeActivityRepo) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	activity, ok := f.activities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *activity
	return &clone, nil
}

func (f *fakeActivityRepo) ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.Activity, int64, error) {
	out := make([]domain.Activity, 0)
	for id := int64(1); id < f.nextID; id++ {
		if activity, ok := f.activities[id]; ok && activity.TicketID == ticketID {
			out = append(out, *activity)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeActivityRepo) ReassignAuthor(ctx context.Context, fromUserID, toUserID int64) error {
	for _, activity := range f.activities {
		if activity.AuthorID == fromUserID {
			activity.AuthorID = toUserID
		}
	}
	return nil
}

func (f *fakeActivityRepo) byTicket(ticketID int64) []domain.Activity {
	out, _, _ := f.ListByTicket(context.Background(), ticketID, 0, 0)
	return out
}

type fakeRoleRepo struct {
	roles  map[int64]*domain.Role
	nextID int64
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[int64]*domain.Role), nextID: 1}
}

func (f *fakeRoleRepo) add(role *domain.Role) *domain.Role {
	if role.ID == 0 {
		role.ID = f.nextID
		f.nextID++
	} else if role.ID >= f.nextID {
		f.nextID = role.ID + 1
	}
	f.roles[role.ID] = role
	return role
}

func (f *fakeRoleRepo) WithTx(tx pgx.Tx) repository.RoleRepository { return f }

func (f *fakeRoleRepo) Create(ctx context.Context, role *domain.Role, authorityIDs []int64) error {
	f.add(role)
	return nil
}

func (f *fakeRoleRepo) Update(ctx context.Context, role *domain.Role, authorityIDs []int64) error {
	if _, ok := f.roles[role.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.roles[role.ID] = role
	return nil
}

func (f *fakeRoleRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.roles[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.roles, id)
	return nil
}

func (f *fakeRoleRepo) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	role, ok := f.roles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return role, nil
}

func (f *fakeRoleRepo) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	for _, role := range f.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRoleRepo) List(ctx context.Context) ([]domain.Role, error) {
	out := make([]domain.Role, 0, len(f.roles))
	for _, role := range f.roles {
		out = append(out, *role)
	}
	return out, nil
}

type fakeAuthorityRepo struct {
	authorities []domain.Authority
}

func newFakeAuthorityRepo(tokens ...string) *fakeAuthorityRepo {
	f := &fakeAuthorityRepo{}
	for i, token := range tokens {
		f.authorities = append(f.authorities, domain.Authority{ID: int64(i + 1), Token: token})
	}
	return f
}

func (f *fakeAuthorityRepo) GetByToken(ctx context.Context, token string) (*domain.Authority, error) {
	for i := range f.authorities {
		if f.authorities[i].Token == token {
			return &f.authorities[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAuthorityRepo) List(ctx context.Context) ([]domain.Authority, error) {
	return f.authorities, nil
}

type fakeNotificationRepo struct {
	notifications map[int64]*domain.Notification
	nextID        int64
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[int64]*domain.Notification), nextID: 1}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	notification.ID = f.nextID
	f.nextID++
	clone := *notification
	f.notifications[notification.ID] = &clone
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id int64) (*domain.Notification, error) {
	notification, ok := f.notifications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return notification, nil
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, int64, error) {
	out := make([]domain.Notification, 0)
	for id := int64(1); id < f.nextID; id++ {
		if notification, ok := f.notifications[id]; ok && notification.UserID == userID {
			out = append(out, *notification)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.notifications[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.notifications, id)
	return nil
}

func (f *fakeNotificationRepo) byUser(userID int64) []domain.Notification {
	out, _, _ := f.ListByUser(context.Background(), userID, 0, 0)
	return out
}

type fakeClientRepo struct {
	clients map[int64]*domain.Client
	nextID  int64
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[int64]*domain.Client), nextID: 1}
}

func (f *fakeClientRepo) add(client *domain.Client) *domain.Client {
	if client.ID == 0 {
		client.ID = f.nextID
		f.nextID++
	} else if client.ID >= f.nextID {
		f.nextID = client.ID + 1
	}
	f.clients[client.ID] = client
	return client
}

func (f *fakeClientRepo) Create(ctx context.Context, client *domain.Client) error {
	f.add(client)
	return nil
}

func (f *fakeClientRepo) Update(ctx context.Context, client *domain.Client) error {
	if _, ok := f.clients[client.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.clients[client.ID] = client
	return nil
}

func (f *fakeClientRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.clients[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.clients, id)
	return nil
}

func (f *fakeClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	client, ok := f.clients[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return client, nil
}

func (f *fakeClientRepo) List(ctx context.Context, limit, offset int) ([]domain.Client, int64, error) {
	out := make([]domain.Client, 0, len(f.clients))
	for _, client := range f.clients {
		out = append(out, *client)
	}
	return out, int64(len(out)), nil
}

// newTestUser builds a user whose role grants the given authority tokens.
func newTestUser(id int64, firstname, email string, authorities ...string) *domain.User {
	return &domain.User{
		ID:        id,
		Firstname: firstname,
		Email:     email,
		RoleID:    1,
		Role: &domain.Role{
			ID:          1,
			Name:        "Agent",
			Authorities: authorities,
		},
		Editable:  true,
		Deletable: true,
	}
}
