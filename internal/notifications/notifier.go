package notifications

import (
	"context"

	"github.com/sehyun-dev/taxlink/internal/domain/notification"
)

type SendInput struct {
	RecipientID string
	Category    notification.Category
	Message     string
}

// Notifier pushes a stored notification out to an external channel.
type Notifier interface {
	Send(ctx context.Context, input SendInput) error
}
