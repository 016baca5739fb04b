package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sehyun-dev/taxlink/internal/domain/mandate"
	"github.com/sehyun-dev/taxlink/internal/domain/notification"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/jobs"
	"github.com/sehyun-dev/taxlink/internal/observability"
)

type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateMandateStatus(ctx context.Context, id string, to mandate.Status, guard func(user.User) error) (user.User, error)
	SetPayment(ctx context.Context, id string, status string, lastPaymentDate *time.Time) (user.User, error)
	ListTaxAccountants(ctx context.Context) ([]user.User, error)
	ListMandateClients(ctx context.Context) ([]user.User, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n notification.Notification) (notification.Notification, error)
}

// DeliveryQueue hands finished notifications to the outbound worker.
type DeliveryQueue interface {
	Enqueue(ctx context.Context, j jobs.DeliveryJob) error
}

type MandateService struct {
	users         UserStore
	notifs        NotificationStore
	queue         DeliveryQueue // optional
	prom          *observability.Prom
	log           *slog.Logger
	paymentWindow time.Duration
}

func NewMandateService(users UserStore, notifs NotificationStore, queue DeliveryQueue, prom *observability.Prom, log *slog.Logger, paymentWindow time.Duration) *MandateService {
	if paymentWindow <= 0 {
		paymentWindow = 30 * 24 * time.Hour
	}

	return &MandateService{
		users:         users,
		notifs:        notifs,
		queue:         queue,
		prom:          prom,
		log:           log,
		paymentWindow: paymentWindow,
	}
}

// Request moves a client from NONE to REQUESTED and alerts every tax
// accountant. The payment gate is checked inside the row lock, so a
// stale "payment looked valid" read on the client side cannot slip an
// unpaid user through.
func (s *MandateService) Request(ctx context.Context, userID string) (user.User, error) {
	updated, err := s.users.UpdateMandateStatus(ctx, userID, mandate.StatusRequested, func(u user.User) error {
		if !paymentValid(u, time.Now().UTC(), s.paymentWindow) {
			return mandate.ErrPaymentRequired
		}

		if !u.MandateStatus.CanTransitionTo(mandate.StatusRequested) {
			return mandate.ErrInvalidTransition
		}

		return nil
	})

	s.countTransition(mandate.StatusRequested, err)

	if err != nil {
		return user.User{}, err
	}

	accountants, err := s.users.ListTaxAccountants(ctx)

	if err != nil {
		// the transition is already committed; the accountant still
		// sees the client on the mandate list even without the alert
		s.log.Error("listing tax accountants for mandate alert failed", "user_id", userID, "err", err)
		return updated, nil
	}

	for _, acc := range accountants {
		s.notify(ctx, notification.Notification{
			ID:        uuid.NewString(),
			UserID:    acc.ID,
			SenderID:  updated.ID,
			Type:      notification.TypeClientToTax,
			Category:  notification.CategoryMandate,
			Message:   updated.Name + "님이 수임 동의를 신청했습니다.",
			CreatedAt: time.Now().UTC(),
		})
	}

	return updated, nil
}

// SendRequest records that the accountant filed the mandate on the tax
// portal (REQUESTED -> SENT) and tells the client to go accept it there.
func (s *MandateService) SendRequest(ctx context.Context, taxAccountantID, clientID string) (user.User, error) {
	if err := s.requireTaxAccountant(ctx, taxAccountantID); err != nil {
		return user.User{}, err
	}

	updated, err := s.users.UpdateMandateStatus(ctx, clientID, mandate.StatusSent, func(u user.User) error {
		if !u.MandateStatus.CanTransitionTo(mandate.StatusSent) {
			return mandate.ErrInvalidTransition
		}

		return nil
	})

	s.countTransition(mandate.StatusSent, err)

	if err != nil {
		return user.User{}, err
	}

	s.notify(ctx, notification.Notification{
		ID:        uuid.NewString(),
		UserID:    updated.ID,
		SenderID:  taxAccountantID,
		Type:      notification.TypeTaxToClient,
		Category:  notification.CategoryMandate,
		Message:   "세무사가 수임 동의 요청을 보냈습니다. 홈택스에서 수임 동의 요청을 수락해주세요.",
		CreatedAt: time.Now().UTC(),
	})

	return updated, nil
}

// Complete records the client's attestation that they accepted the
// mandate on the tax portal (SENT -> COMPLETED).
func (s *MandateService) Complete(ctx context.Context, userID string) (user.User, error) {
	updated, err := s.users.UpdateMandateStatus(ctx, userID, mandate.StatusCompleted, func(u user.User) error {
		if !u.MandateStatus.CanTransitionTo(mandate.StatusCompleted) {
			return mandate.ErrInvalidTransition
		}

		return nil
	})

	s.countTransition(mandate.StatusCompleted, err)

	if err != nil {
		return user.User{}, err
	}

	return updated, nil
}

// RequestRelease resets an active mandate back to NONE and asks the
// client to undo the relationship on the tax portal. The reset is a
// bookkeeping step; the portal-side release stays a human action.
func (s *MandateService) RequestRelease(ctx context.Context, taxAccountantID, clientID string) (user.User, error) {
	if err := s.requireTaxAccountant(ctx, taxAccountantID); err != nil {
		return user.User{}, err
	}

	updated, err := s.users.UpdateMandateStatus(ctx, clientID, mandate.StatusNone, func(u user.User) error {
		if !u.MandateStatus.Active() {
			return mandate.ErrInvalidTransition
		}

		return nil
	})

	s.countTransition(mandate.StatusNone, err)

	if err != nil {
		return user.User{}, err
	}

	s.notify(ctx, notification.Notification{
		ID:        uuid.NewString(),
		UserID:    updated.ID,
		SenderID:  taxAccountantID,
		Type:      notification.TypeTaxToClient,
		Category:  notification.CategoryRelease,
		Message:   "세무사가 수임 해제를 요청했습니다. 홈택스에서 기존 세무사와의 수임 관계를 해제한 후 다시 수임 동의 신청을 진행해주세요.",
		CreatedAt: time.Now().UTC(),
	})

	return updated, nil
}

// List is the accountant's dashboard feed: every client past NONE.
func (s *MandateService) List(ctx context.Context) ([]user.User, error) {
	return s.users.ListMandateClients(ctx)
}

func (s *MandateService) requireTaxAccountant(ctx context.Context, id string) error {
	acc, err := s.users.GetByID(ctx, id)

	if err != nil {
		return err
	}

	if acc.Role != user.RoleTaxAccountant {
		return user.ErrNotTaxAccountant
	}

	return nil
}

func (s *MandateService) notify(ctx context.Context, n notification.Notification) {
	stored, err := s.notifs.Create(ctx, n)

	if err != nil {
		s.log.Error("creating notification failed", "recipient", n.UserID, "err", err)
		return
	}

	if s.queue == nil {
		return
	}

	if err := s.queue.Enqueue(ctx, jobs.NewDeliveryJob(stored)); err != nil {
		// the record exists; only the outbound push is lost
		s.log.Error("enqueueing delivery failed", "notification_id", stored.ID, "err", err)
	}
}

func (s *MandateService) countTransition(to mandate.Status, err error) {
	if s.prom == nil {
		return
	}

	result := "ok"

	switch {
	case err == nil:
	case errors.Is(err, mandate.ErrInvalidTransition), errors.Is(err, mandate.ErrPaymentRequired):
		result = "rejected"
	default:
		result = "error"
	}

	s.prom.TransitionsTotal.WithLabelValues(string(to), result).Inc()
}
