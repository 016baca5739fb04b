package jobs

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sehyun-dev/taxlink/internal/domain/notification"
)

// A DeliveryJob carries one notification to the external channel
// (push/SMS). The notification row itself is written synchronously by
// the transition; only the outbound delivery rides the queue.

type DeliveryJob struct {
	ID             string                `json:"id"`
	NotificationID string                `json:"notificationId"`
	RecipientID    string                `json:"recipientId"`
	Category       notification.Category `json:"category"`
	Message        string                `json:"message"`
	Attempts       int                   `json:"attempts"`
	MaxTries       int                   `json:"maxTries"`
	CreatedAt      time.Time             `json:"createdAt"`
}

var (
	ErrInvalidJob     = errors.New("invalid delivery job")
	ErrInvalidPayload = errors.New("invalid delivery job payload")
)

// NewDeliveryJob builds a pending delivery for a stored notification.

func NewDeliveryJob(n notification.Notification) DeliveryJob {
	return DeliveryJob{
		ID:             uuid.NewString(),
		NotificationID: n.ID,
		RecipientID:    n.UserID,
		Category:       notification.CategoryOf(n),
		Message:        n.Message,
		Attempts:       0,
		MaxTries:       5,
		CreatedAt:      time.Now().UTC(),
	}
}

func (j DeliveryJob) Validate() error {
	trim := strings.TrimSpace

	if trim(j.ID) == "" || trim(j.NotificationID) == "" || trim(j.RecipientID) == "" {
		return ErrInvalidJob
	}

	if trim(j.Message) == "" {
		return ErrInvalidPayload
	}

	return nil
}

func Encode(j DeliveryJob) ([]byte, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}

	return json.Marshal(j)
}

func Decode(raw []byte) (DeliveryJob, error) {
	if len(raw) == 0 {
		return DeliveryJob{}, ErrInvalidPayload
	}

	var j DeliveryJob

	if err := json.Unmarshal(raw, &j); err != nil {
		return DeliveryJob{}, ErrInvalidPayload
	}

	if err := j.Validate(); err != nil {
		return DeliveryJob{}, err
	}

	return j, nil
}
