package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sehyun-dev/taxlink/internal/domain/notification"
	"github.com/sehyun-dev/taxlink/internal/jobs"
	"github.com/sehyun-dev/taxlink/internal/notifications"
	"github.com/sehyun-dev/taxlink/internal/queue/redisclient"
)

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []jobs.DeliveryJob
}

func (q *fakeQueue) Enqueue(ctx context.Context, j jobs.DeliveryJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, j)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, timeout time.Duration) (jobs.DeliveryJob, error) {
	return jobs.DeliveryJob{}, redisclient.ErrEmpty
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notifications.SendInput
	fail bool
}

func (n *fakeNotifier) Send(ctx context.Context, in notifications.SendInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fail {
		return errors.New("provider down")
	}

	n.sent = append(n.sent, in)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testJob(maxTries int) jobs.DeliveryJob {
	return jobs.DeliveryJob{
		ID:             "j-1",
		NotificationID: "n-1",
		RecipientID:    "u-1",
		Category:       notification.CategoryMandate,
		Message:        "수임 동의 신청",
		MaxTries:       maxTries,
	}
}

func TestProcessOneDelivers(t *testing.T) {
	q := &fakeQueue{}
	n := &fakeNotifier{}

	w := New(Config{WorkerID: "test"}, q, n, nil, testLogger())

	w.ProcessOne(context.Background(), testJob(5))

	if len(n.sent) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(n.sent))
	}

	if n.sent[0].RecipientID != "u-1" || n.sent[0].Category != notification.CategoryMandate {
		t.Fatalf("sent input = %+v", n.sent[0])
	}

	if len(q.enqueued) != 0 {
		t.Fatalf("successful delivery should not re-enqueue, got %d", len(q.enqueued))
	}
}

func TestProcessOneGivesUpAfterMaxTries(t *testing.T) {
	q := &fakeQueue{}
	n := &fakeNotifier{fail: true}

	w := New(Config{WorkerID: "test"}, q, n, nil, testLogger())

	w.ProcessOne(context.Background(), testJob(1))

	if len(q.enqueued) != 0 {
		t.Fatalf("exhausted job should not be re-enqueued, got %d", len(q.enqueued))
	}
}

func TestProcessOneRetriesWithIncrementedAttempts(t *testing.T) {
	q := &fakeQueue{}
	n := &fakeNotifier{fail: true}

	w := New(Config{WorkerID: "test"}, q, n, nil, testLogger())

	// cancelled context skips the backoff wait but still re-enqueues
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.ProcessOne(ctx, testJob(3))

	if len(q.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(q.enqueued))
	}

	if q.enqueued[0].Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1", q.enqueued[0].Attempts)
	}
}
