package engine

import (
	"context"
	"time"

	"github.com/roach88/upgrades/internal/economy"
)

// Notification is published after every successful mutation and every tick.
// Seq increases by one per notification within a session. View is shared by
// every subscriber and must be treated as read-only.
type Notification struct {
	Seq     int64        `json:"seq"`
	Session string       `json:"session"`
	Cause   string       `json:"cause"`
	At      time.Time    `json:"at"`
	View    economy.View `json:"view"`
}

// Subscription receives every notification published after it was created,
// in order. Its mailbox is unbounded: nothing is dropped or coalesced, so a
// subscriber that stops reading should Close.
type Subscription struct {
	engine  *Engine
	id      int
	mailbox *queue[Notification]
}

// Subscribe registers a new subscriber. Subscribing to a stopped engine
// yields a subscription that is already closed.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	sub := &Subscription{engine: e, id: e.nextSub, mailbox: newQueue[Notification]()}
	e.nextSub++
	if e.subsClosed {
		sub.mailbox.Close()
		return sub
	}
	e.subs[sub.id] = sub
	return sub
}

// Next blocks until a notification is available, the subscription is
// closed and drained, or ctx is done.
func (s *Subscription) Next(ctx context.Context) (Notification, error) {
	for {
		if n, ok := s.mailbox.TryDequeue(); ok {
			return n, nil
		}
		if s.mailbox.Drained() {
			return Notification{}, ErrSubscriptionClosed
		}
		select {
		case <-ctx.Done():
			return Notification{}, ctx.Err()
		case <-s.mailbox.Wait():
		}
	}
}

// Pending returns the number of undelivered notifications.
func (s *Subscription) Pending() int { return s.mailbox.Len() }

// Close unregisters the subscription. Notifications already queued can
// still be read.
func (s *Subscription) Close() {
	e := s.engine
	e.subsMu.Lock()
	delete(e.subs, s.id)
	e.subsMu.Unlock()
	s.mailbox.Close()
}

// publish is called only from the loop.
func (e *Engine) publish(cause string, now time.Time) {
	e.seq++
	n := Notification{
		Seq:     e.seq,
		Session: e.session,
		Cause:   cause,
		At:      now,
		View:    e.state.View(),
	}

	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, sub := range e.subs {
		sub.mailbox.Enqueue(n)
	}
}

func (e *Engine) closeSubscribers() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	e.subsClosed = true
	for id, sub := range e.subs {
		sub.mailbox.Close()
		delete(e.subs, id)
	}
}
