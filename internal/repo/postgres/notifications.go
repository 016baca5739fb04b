package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sehyun-dev/taxlink/internal/domain/notification"
	"github.com/sehyun-dev/taxlink/internal/observability"
)

type NotificationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewNotificationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotificationsRepo {
	return &NotificationsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *NotificationsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *NotificationsRepo) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	var senderID *string

	if n.SenderID != "" {
		senderID = &n.SenderID
	}

	err := r.observe("notifications.create", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, sender_id, type, category, message, is_read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, n.ID, n.UserID, senderID, n.Type, n.Category, n.Message, n.IsRead, n.CreatedAt)
		return err
	})

	if err != nil {
		return notification.Notification{}, err
	}

	return n, nil
}

// ListByUser returns the user's notifications newest first. The
// ordering here is authoritative; clients render it as-is.
func (r *NotificationsRepo) ListByUser(ctx context.Context, userID string) (items []notification.Notification, err error) {
	var rows pgx.Rows

	err = r.observe("notifications.list_by_user", func() error {
		rows, err = r.pool.Query(ctx, `
		SELECT id, user_id, sender_id, type, category, message, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		`, userID)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]notification.Notification, 0)

	for rows.Next() {
		var n notification.Notification
		var senderID *string

		scanErr := rows.Scan(&n.ID, &n.UserID, &senderID, &n.Type, &n.Category, &n.Message, &n.IsRead, &n.CreatedAt)

		if scanErr != nil {
			err = scanErr
			return
		}

		if senderID != nil {
			n.SenderID = *senderID
		}

		items = append(items, n)
	}

	err = rows.Err()
	return
}

// MarkRead is idempotent: re-reading an already-read notification is a
// no-op, not an error. The update is scoped to the recipient, so an id
// belonging to another user reports not found.
func (r *NotificationsRepo) MarkRead(ctx context.Context, userID, id string) error {
	var isRead bool

	err := r.observe("notifications.mark_read", func() error {
		return r.pool.QueryRow(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
		RETURNING is_read
		`, id, userID).Scan(&isRead)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notification.ErrNotFound
		}

		return err
	}

	return nil
}

func (r *NotificationsRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int

	err := r.observe("notifications.unread_count", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`,
			userID).Scan(&count)
	})

	return count, err
}
