package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/latte-hq/latte-api/internal/domain"
)

// TicketRepository encapsulates ticket persistence. Reads resolve the
// creator and assignee into borrowed UserRefs via a join.
type TicketRepository interface {
	WithTx(tx pgx.Tx) TicketRepository
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, limit, offset int) ([]domain.Ticket, int64, error)
	ListByStatus(ctx context.Context, status domain.TicketStatus, limit, offset int) ([]domain.Ticket, int64, error)
	CountByStatus(ctx context.Context, status domain.TicketStatus) (int64, error)
	ReassignCreatedBy(ctx context.Context, fromUserID, toUserID int64) error
	ClearAssignee(ctx context.Context, userID int64) error
}

type ticketRepository struct {
	db Querier
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{db: pool}
}

func (r *ticketRepository) WithTx(tx pgx.Tx) TicketRepository {
	return &ticketRepository{db: tx}
}

const ticketSelect = `
        SELECT t.id, t.title, t.description, t.priority, t.status, t.locked,
               t.created_by, t.assigned_to, t.client_id, t.created_at, t.updated_at,
               c.id, c.firstname, c.email,
               a.id, a.firstname, a.email
        FROM tickets t
        JOIN users c ON c.id = t.created_by
        LEFT JOIN users a ON a.id = t.assigned_to`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, priority, status, locked, created_by, assigned_to, client_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.Locked,
		ticket.CreatedByID,
		ticket.AssignedToID,
		ticket.ClientID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, status=$4, locked=$5,
            assigned_to=$6, client_id=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.Locked,
		ticket.AssignedToID,
		ticket.ClientID,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id)
	return scanTicketRow(row)
}

func (r *ticketRepository) List(ctx context.Context, limit, offset int) ([]domain.Ticket, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, offset = normalizePage(limit, offset)
	rows, err := r.db.Query(ctx, ticketSelect+` ORDER BY t.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	result, err := scanTickets(rows)
	return result, total, err
}

func (r *ticketRepository) ListByStatus(ctx context.Context, status domain.TicketStatus, limit, offset int) ([]domain.Ticket, int64, error) {
	total, err := r.CountByStatus(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	limit, offset = normalizePage(limit, offset)
	rows, err := r.db.Query(ctx, ticketSelect+` WHERE t.status=$1 ORDER BY t.created_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	result, err := scanTickets(rows)
	return result, total, err
}

func (r *ticketRepository) CountByStatus(ctx context.Context, status domain.TicketStatus) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE status=$1`, status).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) ReassignCreatedBy(ctx context.Context, fromUserID, toUserID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE tickets SET created_by=$1, updated_at=NOW() WHERE created_by=$2`, toUserID, fromUserID)
	return err
}

func (r *ticketRepository) ClearAssignee(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE tickets SET assigned_to=NULL, updated_at=NOW() WHERE assigned_to=$1`, userID)
	return err
}

func scanTicketRow(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var creator domain.UserRef
	var assigneeID *int64
	var assigneeName, assigneeEmail *string
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Locked,
		&ticket.CreatedByID,
		&ticket.AssignedToID,
		&ticket.ClientID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&creator.ID,
		&creator.Firstname,
		&creator.Email,
		&assigneeID,
		&assigneeName,
		&assigneeEmail,
	); err != nil {
		return nil, err
	}
	ticket.CreatedBy = &creator
	if assigneeID != nil {
		ticket.AssignedTo = &domain.UserRef{ID: *assigneeID, Firstname: *assigneeName, Email: *assigneeEmail}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
