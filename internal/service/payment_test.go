package service

import (
	"context"
	"testing"
	"time"

	"github.com/sehyun-dev/taxlink/internal/domain/mandate"
	"github.com/sehyun-dev/taxlink/internal/domain/user"
	"github.com/sehyun-dev/taxlink/internal/repo/memory"
)

func newPaymentFixture(t *testing.T) (*PaymentService, *memory.UsersRepo) {
	t.Helper()

	users := memory.NewUsersRepo()

	return NewPaymentService(users, testLogger(), 0), users
}

func TestProcessMarksUserPaid(t *testing.T) {
	svc, users := newPaymentFixture(t)
	ctx := context.Background()

	u := paidClient("c1", mandate.StatusNone)
	u.PaymentStatus = user.PaymentUnpaid
	u.LastPaymentDate = nil
	seedUser(t, users, u)

	updated, err := svc.Process(ctx, "c1")

	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if updated.PaymentStatus != user.PaymentPaid {
		t.Fatalf("payment status = %s, want PAID", updated.PaymentStatus)
	}

	if updated.LastPaymentDate == nil || time.Since(*updated.LastPaymentDate) > time.Minute {
		t.Fatalf("lastPaymentDate = %v", updated.LastPaymentDate)
	}
}

func TestProcessUnknownUser(t *testing.T) {
	svc, _ := newPaymentFixture(t)

	if _, err := svc.Process(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestStatusWithinWindow(t *testing.T) {
	svc, users := newPaymentFixture(t)
	ctx := context.Background()

	u := paidClient("c1", mandate.StatusNone)
	paidAt := time.Now().UTC().Add(-10 * 24 * time.Hour)
	u.LastPaymentDate = &paidAt
	seedUser(t, users, u)

	info, err := svc.Status(ctx, "c1")

	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if !info.Valid {
		t.Fatal("payment 10 days old should be valid")
	}

	if info.DaysRemaining < 19 || info.DaysRemaining > 20 {
		t.Fatalf("daysRemaining = %d", info.DaysRemaining)
	}
}

func TestStatusFlipsExpiredPaymentToUnpaid(t *testing.T) {
	svc, users := newPaymentFixture(t)
	ctx := context.Background()

	u := paidClient("c1", mandate.StatusNone)
	expired := time.Now().UTC().Add(-31 * 24 * time.Hour)
	u.LastPaymentDate = &expired
	seedUser(t, users, u)

	info, err := svc.Status(ctx, "c1")

	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if info.Valid {
		t.Fatal("expired payment reported valid")
	}

	if info.PaymentStatus != user.PaymentUnpaid {
		t.Fatalf("payment status = %s, want UNPAID", info.PaymentStatus)
	}

	stored, _ := users.GetByID(ctx, "c1")

	if stored.PaymentStatus != user.PaymentUnpaid {
		t.Fatalf("stored status = %s, lazy flip did not persist", stored.PaymentStatus)
	}
}

func TestStatusNeverPaid(t *testing.T) {
	svc, users := newPaymentFixture(t)
	ctx := context.Background()

	u := paidClient("c1", mandate.StatusNone)
	u.PaymentStatus = user.PaymentUnpaid
	u.LastPaymentDate = nil
	seedUser(t, users, u)

	info, err := svc.Status(ctx, "c1")

	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	if info.Valid || info.DaysRemaining != 0 || info.LastPaymentDate != nil {
		t.Fatalf("info = %+v", info)
	}
}
