package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkflowFixture(t *testing.T, handler http.HandlerFunc) (*Workflow, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(srv.URL)

	require.NoError(t, c.Session().Set(Principal{
		User:        User{ID: "c1", MandateStatus: MandateNone},
		AccessToken: "t",
	}))

	w := NewWorkflow(c, NewPoller(c))
	w.Confirm = func(string) bool { return true }

	return w, srv
}

func TestRequestMandatePaymentGateBlocksCall(t *testing.T) {
	var mandateCalls atomic.Int64

	w, _ := newWorkflowFixture(t, func(rw http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/payment/status":
			rw.Write(jsonEnvelope("SUCCESS", "ok", map[string]interface{}{
				"paymentStatus": "UNPAID",
				"valid":         false,
			}))
		case "/api/mandate/request":
			mandateCalls.Add(1)
			rw.Write(jsonEnvelope("SUCCESS", "ok", nil))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	_, err := w.RequestMandate(context.Background())

	assert.ErrorIs(t, err, ErrPaymentRequired)
	assert.Zero(t, mandateCalls.Load(), "mandate call issued despite invalid payment")
}

func TestRequestMandateUsesCachedPayment(t *testing.T) {
	var statusCalls atomic.Int64

	w, _ := newWorkflowFixture(t, func(rw http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/payment/status":
			statusCalls.Add(1)
			rw.Write(jsonEnvelope("SUCCESS", "ok", map[string]interface{}{"valid": true, "paymentStatus": "PAID"}))
		case "/api/mandate/request":
			rw.Write(jsonEnvelope("SUCCESS", "ok", map[string]interface{}{"userId": "c1", "mandateStatus": "REQUESTED"}))
		case "/api/users/me":
			rw.Write(jsonEnvelope("SUCCESS", "ok", map[string]interface{}{"userId": "c1", "mandateStatus": "REQUESTED"}))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	// pre-seed the payment cache
	seq := w.poller.beginFetch(PollPayment)
	w.poller.install(PollPayment, seq, PaymentStatus{PaymentStatus: "PAID", Valid: true}, nil)

	u, err := w.RequestMandate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, MandateRequested, u.MandateStatus)
	assert.Zero(t, statusCalls.Load(), "cached payment state should be enough")

	// the session principal was overwritten with the fresh profile
	p, ok := w.c.Session().Current()
	require.True(t, ok)
	assert.Equal(t, MandateRequested, p.User.MandateStatus)
}

func TestConfirmationGateBlocksNetworkCall(t *testing.T) {
	var calls atomic.Int64

	w, _ := newWorkflowFixture(t, func(rw http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		rw.Write(jsonEnvelope("SUCCESS", "ok", nil))
	})

	w.Confirm = func(string) bool { return false }

	_, err := w.CompleteMandate(context.Background())
	assert.ErrorIs(t, err, ErrConfirmationDeclined)

	_, err = w.ConfirmSent(context.Background(), "c2")
	assert.ErrorIs(t, err, ErrConfirmationDeclined)

	_, err = w.RequestRelease(context.Background(), "c2")
	assert.ErrorIs(t, err, ErrConfirmationDeclined)

	assert.Zero(t, calls.Load(), "declined confirmation must not reach the network")
}

func TestConfirmationGateDefaultsToDecline(t *testing.T) {
	var calls atomic.Int64

	w, _ := newWorkflowFixture(t, func(rw http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		rw.Write(jsonEnvelope("SUCCESS", "ok", nil))
	})

	w.Confirm = nil

	_, err := w.CompleteMandate(context.Background())

	assert.ErrorIs(t, err, ErrConfirmationDeclined)
	assert.Zero(t, calls.Load())
}

func TestInFlightGuardDropsSecondTrigger(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	var mandateCalls atomic.Int64

	w, _ := newWorkflowFixture(t, func(rw http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/mandate/request":
			mandateCalls.Add(1)
			close(started)
			<-release
			rw.Write(jsonEnvelope("SUCCESS", "ok", map[string]interface{}{"userId": "c1", "mandateStatus": "REQUESTED"}))
		case "/api/users/me":
			rw.Write(jsonEnvelope("SUCCESS", "ok", map[string]interface{}{"userId": "c1", "mandateStatus": "REQUESTED"}))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	seq := w.poller.beginFetch(PollPayment)
	w.poller.install(PollPayment, seq, PaymentStatus{Valid: true}, nil)

	var wg sync.WaitGroup
	wg.Add(1)

	var firstErr error

	go func() {
		defer wg.Done()
		_, firstErr = w.RequestMandate(context.Background())
	}()

	<-started

	// second trigger while the first request is still on the wire
	_, err := w.RequestMandate(context.Background())
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, int64(1), mandateCalls.Load())
}

func TestInFlightGuardIsPerKey(t *testing.T) {
	s := newInflightSet()

	require.True(t, s.begin("mandate.send:c1"))
	assert.False(t, s.begin("mandate.send:c1"))

	// a different client is a different key
	assert.True(t, s.begin("mandate.send:c2"))

	s.end("mandate.send:c1")
	assert.True(t, s.begin("mandate.send:c1"))
}
