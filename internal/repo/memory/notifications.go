package memory

import (
	"context"
	"sync"

	"github.com/sehyun-dev/taxlink/internal/domain/notification"
)

type NotificationsRepo struct {
	mu    sync.Mutex
	items []notification.Notification
}

func NewNotificationsRepo() *NotificationsRepo {
	return &NotificationsRepo{items: make([]notification.Notification, 0)}
}

func (r *NotificationsRepo) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// prepend: list order is newest first
	r.items = append([]notification.Notification{n}, r.items...)

	return n, nil
}

func (r *NotificationsRepo) ListByUser(ctx context.Context, userID string) ([]notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]notification.Notification, 0)

	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}

	return out, nil
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id && r.items[i].UserID == userID {
			r.items[i].IsRead = true
			return nil
		}
	}

	return notification.ErrNotFound
}

func (r *NotificationsRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0

	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}

	return count, nil
}
