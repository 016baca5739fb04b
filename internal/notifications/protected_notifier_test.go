package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyNotifier struct {
	err   error
	calls int
}

func (n *flakyNotifier) Send(ctx context.Context, in SendInput) error {
	n.calls++
	return n.err
}

func TestCircuitOpensAfterThreshold(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("boom")}

	p := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 2,
		Cooldown:         time.Minute,
	})

	in := SendInput{RecipientID: "u-1", Message: "test"}

	for i := 0; i < 2; i++ {
		if err := p.Send(context.Background(), in); err == nil {
			t.Fatal("expected inner failure to propagate")
		}
	}

	err := p.Send(context.Background(), in)

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}

	if inner.calls != 2 {
		t.Fatalf("inner called %d times, want 2 (open circuit fails fast)", inner.calls)
	}
}

func TestCircuitClosesAfterHalfOpenSuccess(t *testing.T) {
	inner := &flakyNotifier{err: errors.New("boom")}

	p := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         time.Millisecond,
	})

	in := SendInput{RecipientID: "u-1", Message: "test"}

	_ = p.Send(context.Background(), in) // opens the circuit

	time.Sleep(5 * time.Millisecond)

	inner.err = nil // provider recovered

	if err := p.Send(context.Background(), in); err != nil {
		t.Fatalf("half-open trial should succeed, got %v", err)
	}

	if err := p.Send(context.Background(), in); err != nil {
		t.Fatalf("circuit should be closed again, got %v", err)
	}
}
