package client

import (
	"context"
	"sync"
	"time"
)

type PollKey string

const (
	PollPayment       PollKey = "payment"
	PollUnreadCount   PollKey = "unread_count"
	PollNotifications PollKey = "notifications"
	PollMandateList   PollKey = "mandate_list"
)

// Payment state moves rarely, everything else is dashboard data.
var pollIntervals = map[PollKey]time.Duration{
	PollPayment:       60 * time.Second,
	PollUnreadCount:   10 * time.Second,
	PollNotifications: 10 * time.Second,
	PollMandateList:   10 * time.Second,
}

type pollEntry struct {
	seq   uint64
	value interface{}
	err   error
	at    time.Time
}

// Poller re-fetches the dashboard resources on fixed intervals. Every
// fetch is numbered when it starts; a finished fetch only installs its
// result if no newer fetch has been installed, so a slow response can
// never overwrite fresher data.
type Poller struct {
	c *Client

	mu      sync.Mutex
	entries map[PollKey]pollEntry
	seq     map[PollKey]uint64

	kicks map[PollKey]chan struct{}
}

func NewPoller(c *Client) *Poller {
	p := &Poller{
		c:       c,
		entries: make(map[PollKey]pollEntry),
		seq:     make(map[PollKey]uint64),
		kicks:   make(map[PollKey]chan struct{}),
	}

	for key := range pollIntervals {
		p.kicks[key] = make(chan struct{}, 1)
	}

	return p
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for key, interval := range pollIntervals {
		wg.Add(1)

		go func(key PollKey, interval time.Duration) {
			defer wg.Done()
			p.loop(ctx, key, interval)
		}(key, interval)
	}

	wg.Wait()
}

func (p *Poller) loop(ctx context.Context, key PollKey, interval time.Duration) {
	p.fetch(ctx, key)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx, key)
		case <-p.kicks[key]:
			p.fetch(ctx, key)
		}
	}
}

// Invalidate forces an immediate re-fetch of the key. Non-blocking; a
// kick already pending is enough.
func (p *Poller) Invalidate(key PollKey) {
	kick, ok := p.kicks[key]

	if !ok {
		return
	}

	select {
	case kick <- struct{}{}:
	default:
	}
}

func (p *Poller) beginFetch(key PollKey) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq[key]++

	return p.seq[key]
}

// install writes the result unless a newer fetch already landed.
func (p *Poller) install(key PollKey, seq uint64, value interface{}, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cur, ok := p.entries[key]; ok && seq <= cur.seq {
		return false
	}

	p.entries[key] = pollEntry{
		seq:   seq,
		value: value,
		err:   err,
		at:    time.Now(),
	}

	return true
}

func (p *Poller) fetch(ctx context.Context, key PollKey) {
	seq := p.beginFetch(key)

	value, err := p.call(ctx, key)

	p.install(key, seq, value, err)
}

func (p *Poller) call(ctx context.Context, key PollKey) (interface{}, error) {
	switch key {
	case PollPayment:
		return p.c.PaymentStatus(ctx)
	case PollUnreadCount:
		return p.c.UnreadCount(ctx)
	case PollNotifications:
		return p.c.Notifications(ctx)
	case PollMandateList:
		return p.c.MandateList(ctx)
	}

	return nil, nil
}

func (p *Poller) cached(key PollKey) (interface{}, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[key]

	if !ok || entry.err != nil {
		return nil, false
	}

	return entry.value, true
}

func (p *Poller) Payment() (PaymentStatus, bool) {
	v, ok := p.cached(PollPayment)

	if !ok {
		return PaymentStatus{}, false
	}

	status, ok := v.(PaymentStatus)

	return status, ok
}

func (p *Poller) UnreadCount() (int, bool) {
	v, ok := p.cached(PollUnreadCount)

	if !ok {
		return 0, false
	}

	count, ok := v.(int)

	return count, ok
}

func (p *Poller) Notifications() (NotificationList, bool) {
	v, ok := p.cached(PollNotifications)

	if !ok {
		return NotificationList{}, false
	}

	list, ok := v.(NotificationList)

	return list, ok
}

func (p *Poller) MandateList() (MandateList, bool) {
	v, ok := p.cached(PollMandateList)

	if !ok {
		return MandateList{}, false
	}

	list, ok := v.(MandateList)

	return list, ok
}
