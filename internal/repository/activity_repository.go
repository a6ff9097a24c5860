package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/latte-hq/latte-api/internal/domain"
)

// ActivityRepository stores the ticket audit trail. Reads resolve the
// author into a borrowed UserRef.
type ActivityRepository interface {
	WithTx(tx pgx.Tx) ActivityRepository
	Create(ctx context.Context, activity *domain.Activity) error
	CreateBatch(ctx context.Context, activities []domain.Activity) error
	UpdateMessage(ctx context.Context, id int64, message string) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Activity, error)
	ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.Activity, int64, error)
	ReassignAuthor(ctx context.Context, fromUserID, toUserID int64) error
}

type activityRepository struct {
	db Querier
}

// NewActivityRepository builds repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{db: pool}
}

func (r *activityRepository) WithTx(tx pgx.Tx) ActivityRepository {
	return &activityRepository{db: tx}
}

const activitySelect = `
        SELECT act.id, act.type, act.message, act.author_id, act.ticket_id, act.created_at, act.updated_at,
               u.id, u.firstname, u.email
        FROM activities act
        JOIN users u ON u.id = act.author_id`

const activityInsert = `
        INSERT INTO activities (type, message, author_id, ticket_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.QueryRow(ctx, activityInsert,
		activity.Type,
		activity.Message,
		activity.AuthorID,
		activity.TicketID,
	).Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt)
}

func (r *activityRepository) CreateBatch(ctx context.Context, activities []domain.Activity) error {
	for i := range activities {
		if err := r.Create(ctx, &activities[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *activityRepository) UpdateMessage(ctx context.Context, id int64, message string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE activities SET message=$1, updated_at=NOW() WHERE id=$2`, message, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *activityRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM activities WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id int64) (*domain.Activity, error) {
	row := r.db.QueryRow(ctx, activitySelect+` WHERE act.id=$1`, id)
	return scanActivityRow(row)
}

func (r *activityRepository) ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.Activity, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM activities WHERE ticket_id=$1`, ticketID).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, offset = normalizePage(limit, offset)
	rows, err := r.db.Query(ctx, activitySelect+` WHERE act.ticket_id=$1 ORDER BY act.created_at ASC LIMIT $2 OFFSET $3`,
		ticketID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Activity
	for rows.Next() {
		activity, err := scanActivityRow(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *activity)
	}
	return result, total, rows.Err()
}

func (r *activityRepository) ReassignAuthor(ctx context.Context, fromUserID, toUserID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE activities SET author_id=$1, updated_at=NOW() WHERE author_id=$2`, toUserID, fromUserID)
	return err
}

func scanActivityRow(row pgx.Row) (*domain.Activity, error) {
	var activity domain.Activity
	var author domain.UserRef
	if err := row.Scan(
		&activity.ID,
		&activity.Type,
		&activity.Message,
		&activity.AuthorID,
		&activity.TicketID,
		&activity.CreatedAt,
		&activity.UpdatedAt,
		&author.ID,
		&author.Firstname,
		&author.Email,
	); err != nil {
		return nil, err
	}
	activity.Author = &author
	return &activity, nil
}
