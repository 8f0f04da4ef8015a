package repository

import (
	"context"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID string, id int64) error
	MarkAllRead(ctx context.Context, userID string) error
}

type PGNotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) NotificationRepository {
	return &PGNotificationRepository{db: db}
}

func (r *PGNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.QueryRow(ctx, `INSERT INTO notifications (user_id, order_id, type, title, message, action_url, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		n.UserID, n.OrderID, n.Type, n.Title, n.Message, n.ActionURL, n.Metadata).
		Scan(&n.ID, &n.CreatedAt)
}

func (r *PGNotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, order_id, type, title, message, action_url, read, metadata, created_at
		FROM notifications WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.OrderID, &n.Type, &n.Title, &n.Message,
			&n.ActionURL, &n.Read, &n.Metadata, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkRead is scoped by owner, so one user cannot flip another's rows.
func (r *PGNotificationRepository) MarkRead(ctx context.Context, userID string, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET read=true WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `UPDATE notifications SET read=true WHERE user_id=$1 AND read=false`, userID)
	return err
}

var _ NotificationRepository = (*PGNotificationRepository)(nil)
