package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sehyun-dev/taxlink/internal/domain/user"
)

// PaymentStatus is the derived view the dashboards poll.
type PaymentStatus struct {
	PaymentStatus   string     `json:"paymentStatus"`
	LastPaymentDate *time.Time `json:"lastPaymentDate,omitempty"`
	Valid           bool       `json:"valid"`
	DaysRemaining   int        `json:"daysRemaining"`
}

type PaymentService struct {
	users  UserStore
	log    *slog.Logger
	window time.Duration
}

func NewPaymentService(users UserStore, log *slog.Logger, window time.Duration) *PaymentService {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}

	return &PaymentService{
		users:  users,
		log:    log,
		window: window,
	}
}

// Process is the mock payment trigger: it marks the user paid as of now.
func (s *PaymentService) Process(ctx context.Context, userID string) (user.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC()

	return s.users.SetPayment(ctx, userID, user.PaymentPaid, &now)
}

// Status recomputes validity from the last payment date. A subscription
// that ran out is lazily flipped to UNPAID on read.
func (s *PaymentService) Status(ctx context.Context, userID string) (PaymentStatus, error) {
	u, err := s.users.GetByID(ctx, userID)

	if err != nil {
		return PaymentStatus{}, err
	}

	now := time.Now().UTC()

	info := PaymentStatus{
		PaymentStatus:   u.PaymentStatus,
		LastPaymentDate: u.LastPaymentDate,
		Valid:           paymentValid(u, now, s.window),
		DaysRemaining:   daysRemaining(u, now, s.window),
	}

	if u.PaymentStatus == user.PaymentPaid && !info.Valid {
		if _, err := s.users.SetPayment(ctx, userID, user.PaymentUnpaid, u.LastPaymentDate); err != nil {
			s.log.Error("flipping expired payment to UNPAID failed", "user_id", userID, "err", err)
		} else {
			info.PaymentStatus = user.PaymentUnpaid
		}
	}

	return info, nil
}

func paymentValid(u user.User, now time.Time, window time.Duration) bool {
	if u.PaymentStatus != user.PaymentPaid || u.LastPaymentDate == nil {
		return false
	}

	return now.Sub(*u.LastPaymentDate) <= window
}

func daysRemaining(u user.User, now time.Time, window time.Duration) int {
	if u.PaymentStatus != user.PaymentPaid || u.LastPaymentDate == nil {
		return 0
	}

	remaining := window - now.Sub(*u.LastPaymentDate)

	if remaining < 0 {
		return 0
	}

	return int(remaining / (24 * time.Hour))
}
