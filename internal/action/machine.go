package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"careersetu/listing-service/internal/notify"
)

// ErrNotAuthenticated is returned when Act is called without a session token.
// No state is mutated; the caller is expected to redirect to login.
var ErrNotAuthenticated = errors.New("not authenticated")

// Session identifies the acting user. Token is carried opaque to the confirm
// endpoint.
type Session struct {
	UserID string
	Token  string
}

// Outcome is the terminal result of one Act call.
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Machine owns every ActionRecord. It performs the optimistic local update,
// attempts server confirmation, and reconciles on success or failure.
//
// Failure policy: a failed confirmation still lands in the terminal
// FAILED_LOCALLY_CONFIRMED state rather than rolling back to NOT_ACTED. This
// accepts eventual inconsistency with the server in exchange for never
// letting a user re-submit repeatedly or see a stuck button; the failure is
// surfaced through the notification sink.
type Machine struct {
	store  Store
	client ConfirmClient
	sink   notify.Sink

	mu       sync.Mutex
	inflight map[string]*call
}

// call is one in-flight confirmation. Concurrent Act calls for the same key
// join it instead of issuing a second request.
type call struct {
	done    chan struct{}
	outcome Outcome
}

// NewMachine returns a Machine using store for state, client for
// confirmation and sink for user notifications.
func NewMachine(store Store, client ConfirmClient, sink notify.Sink) *Machine {
	return &Machine{
		store:    store,
		client:   client,
		sink:     sink,
		inflight: make(map[string]*call),
	}
}

func actKey(userID, listingID string) string {
	return userID + "\x00" + listingID
}

// Act applies the user's action to one listing.
//
//   - No session → ErrNotAuthenticated, nothing mutated.
//   - Already CONFIRMED or FAILED_LOCALLY_CONFIRMED → no-op returning the
//     current status, zero network calls.
//   - Already PENDING (concurrent call) → joins the in-flight confirmation
//     and returns its outcome; exactly one request is issued per key.
//   - Persisted PENDING with no in-flight call (a previous confirmation
//     never settled) → the PENDING write is skipped as an invalid
//     transition and the confirmation is reissued so the record can settle.
//   - Fresh → PENDING written synchronously, then one confirmation request,
//     then the terminal state is persisted and notified.
func (m *Machine) Act(ctx context.Context, sess Session, listingID string) (Outcome, error) {
	if sess.Token == "" || sess.UserID == "" {
		return Outcome{Status: StatusNotActed}, ErrNotAuthenticated
	}

	key := actKey(sess.UserID, listingID)

	m.mu.Lock()
	if c, ok := m.inflight[key]; ok {
		m.mu.Unlock()
		return m.join(ctx, c)
	}
	m.mu.Unlock()

	// The status read happens outside the lock: with a layered store it is a
	// network round-trip, and holding the mutex across it would serialize
	// every user's Act behind one slow read.
	current, err := m.store.Get(ctx, sess.UserID, listingID)
	if err != nil {
		slog.Warn("action store read failed, assuming NOT_ACTED", "listingId", listingID, "err", err)
		current = StatusNotActed
	}
	if IsTerminal(current) {
		return Outcome{Status: current, Message: "already applied"}, nil
	}

	m.mu.Lock()
	if c, ok := m.inflight[key]; ok {
		// Lost the race to another caller while reading the store.
		m.mu.Unlock()
		return m.join(ctx, c)
	}
	c := &call{done: make(chan struct{})}
	m.inflight[key] = c
	m.mu.Unlock()

	// Optimistic write, guarded by the transition table: the UI reflects
	// PENDING before any network traffic. A stale persisted PENDING is not
	// re-written (PENDING → PENDING is not a valid transition).
	if IsTransitionAllowed(current, StatusPending) {
		if err := m.store.Set(ctx, sess.UserID, listingID, StatusPending); err != nil {
			slog.Warn("pending write failed", "listingId", listingID, "err", err)
		}
	} else {
		slog.Warn("resuming unsettled action", "listingId", listingID, "status", current)
	}

	out := m.confirm(ctx, sess, listingID)

	m.mu.Lock()
	c.outcome = out
	delete(m.inflight, key)
	m.mu.Unlock()
	close(c.done)

	return out, nil
}

// join waits for an in-flight confirmation started by another caller.
func (m *Machine) join(ctx context.Context, c *call) (Outcome, error) {
	select {
	case <-c.done:
		return c.outcome, nil
	case <-ctx.Done():
		return Outcome{Status: StatusPending}, ctx.Err()
	}
}

// confirm issues the network request and settles the record in a terminal
// state either way.
func (m *Machine) confirm(ctx context.Context, sess Session, listingID string) Outcome {
	msg, err := m.client.Confirm(ctx, sess.Token, listingID)
	if err != nil {
		if msg == "" {
			msg = "application could not be confirmed by the server"
		}
		m.settle(ctx, sess.UserID, listingID, StatusPending, StatusFailedLocallyConfirmed)
		m.notify(ctx, sess.UserID, msg, notify.KindError)
		slog.Warn("confirmation failed, keeping action locally done",
			"listingId", listingID, "err", err)
		return Outcome{Status: StatusFailedLocallyConfirmed, Message: msg}
	}

	if msg == "" {
		msg = "application submitted successfully"
	}
	m.settle(ctx, sess.UserID, listingID, StatusPending, StatusConfirmed)
	m.notify(ctx, sess.UserID, msg, notify.KindSuccess)
	return Outcome{Status: StatusConfirmed, Message: msg}
}

// settle persists a terminal state, refusing moves the transition table does
// not permit.
func (m *Machine) settle(ctx context.Context, userID, listingID string, from, to Status) {
	if !IsTransitionAllowed(from, to) {
		slog.Warn("refusing invalid status transition", "listingId", listingID, "from", from, "to", to)
		return
	}
	if err := m.store.Set(ctx, userID, listingID, to); err != nil {
		slog.Warn("terminal status write failed", "listingId", listingID, "status", to, "err", err)
	}
}

func (m *Machine) notify(ctx context.Context, userID, text string, kind notify.Kind) {
	if m.sink == nil {
		return
	}
	if err := m.sink.Publish(ctx, notify.Message{Text: text, Kind: kind, UserID: userID}); err != nil {
		slog.Warn("notification publish failed", "err", err)
	}
}

// Status returns the current record status for one key. Store failures
// degrade to NOT_ACTED rather than propagating.
func (m *Machine) Status(ctx context.Context, userID, listingID string) Status {
	st, err := m.store.Get(ctx, userID, listingID)
	if err != nil {
		slog.Warn("action status read failed", "listingId", listingID, "err", err)
		return StatusNotActed
	}
	return st
}

// ActedOn returns every known (listingID → status) pair for a user, for
// seeding screens like "my applications".
func (m *Machine) ActedOn(ctx context.Context, userID string) (map[string]Status, error) {
	out, err := m.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list acted-on set: %w", err)
	}
	return out, nil
}
