package client

import "context"

// Workflow drives the mandate state machine from the client side. The
// status only moves when a human did the real work on the tax portal,
// so SENT and COMPLETED sit behind an attestation prompt.
type Workflow struct {
	c        *Client
	poller   *Poller
	inflight *inflightSet

	// Confirm answers attestation prompts. A nil Confirm declines.
	Confirm func(prompt string) bool
}

func NewWorkflow(c *Client, poller *Poller) *Workflow {
	return &Workflow{
		c:        c,
		poller:   poller,
		inflight: newInflightSet(),
	}
}

func (w *Workflow) confirm(prompt string) bool {
	if w.Confirm == nil {
		return false
	}

	return w.Confirm(prompt)
}

// RequestMandate starts the NONE -> REQUESTED transition. The cached
// payment state gates the call locally; an invalid payment never
// reaches the server. The server re-checks under its own lock anyway.
func (w *Workflow) RequestMandate(ctx context.Context) (User, error) {
	if !w.inflight.begin("mandate.request") {
		return User{}, ErrInFlight
	}

	defer w.inflight.end("mandate.request")

	status, ok := w.poller.Payment()

	if !ok {
		// no cached state yet, ask directly
		var err error

		status, err = w.c.PaymentStatus(ctx)

		if err != nil {
			return User{}, err
		}
	}

	if !status.Valid {
		return User{}, ErrPaymentRequired
	}

	u, err := w.c.MandateRequest(ctx)

	if err != nil {
		return User{}, err
	}

	return u, w.afterTransition(ctx)
}

// ConfirmSent records that the accountant filed the request on the tax
// portal (REQUESTED -> SENT for the given client).
func (w *Workflow) ConfirmSent(ctx context.Context, clientID string) (User, error) {
	if !w.confirm("홈택스에서 수임 동의 요청을 보내셨습니까?") {
		return User{}, ErrConfirmationDeclined
	}

	key := "mandate.send:" + clientID

	if !w.inflight.begin(key) {
		return User{}, ErrInFlight
	}

	defer w.inflight.end(key)

	u, err := w.c.MandateSendRequest(ctx, clientID)

	if err != nil {
		return User{}, err
	}

	w.poller.Invalidate(PollMandateList)

	return u, nil
}

// CompleteMandate records the client's attestation that they accepted
// the request on the tax portal (SENT -> COMPLETED).
func (w *Workflow) CompleteMandate(ctx context.Context) (User, error) {
	if !w.confirm("홈택스에서 수임 동의를 완료하셨습니까?") {
		return User{}, ErrConfirmationDeclined
	}

	if !w.inflight.begin("mandate.complete") {
		return User{}, ErrInFlight
	}

	defer w.inflight.end("mandate.complete")

	u, err := w.c.MandateComplete(ctx)

	if err != nil {
		return User{}, err
	}

	return u, w.afterTransition(ctx)
}

// RequestRelease asks the client to undo the mandate on the tax portal
// and resets the tracked status to NONE.
func (w *Workflow) RequestRelease(ctx context.Context, clientID string) (User, error) {
	if !w.confirm("수임 해제를 요청하시겠습니까?") {
		return User{}, ErrConfirmationDeclined
	}

	key := "mandate.release:" + clientID

	if !w.inflight.begin(key) {
		return User{}, ErrInFlight
	}

	defer w.inflight.end(key)

	u, err := w.c.MandateReleaseRequest(ctx, clientID)

	if err != nil {
		return User{}, err
	}

	w.poller.Invalidate(PollMandateList)

	return u, nil
}

// afterTransition re-fetches the authoritative profile, overwrites the
// session copy, and kicks the polled resources a transition touches.
func (w *Workflow) afterTransition(ctx context.Context) error {
	fresh, err := w.c.Profile(ctx)

	if err != nil {
		return err
	}

	if err := w.c.Session().SetUser(fresh); err != nil {
		return err
	}

	w.poller.Invalidate(PollMandateList)
	w.poller.Invalidate(PollNotifications)
	w.poller.Invalidate(PollUnreadCount)

	return nil
}
