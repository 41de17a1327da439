package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"maragu.dev/goqite"
)

// ErrNoMessage is returned when the queue is empty.
var ErrNoMessage = errors.New("no messages in queue")

// Manager is a thin wrapper around goqite, bounding the concurrent fan-out
// of source-adapter fetches during a scrape run (spec §4.2). It provides
// ONLY queue operations, no business logic.
type Manager struct {
	q *goqite.Queue
}

// NewManager creates a new queue manager, creating the goqite tables on the
// given *sql.DB if they do not already exist.
func NewManager(db *sql.DB, queueName string) (*Manager, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := goqite.Setup(ctx, db); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return nil, err
		}
	}

	q := goqite.New(goqite.NewOpts{
		DB:   db,
		Name: queueName,
	})

	return &Manager{q: q}, nil
}

// Enqueue adds a message to the queue.
func (m *Manager) Enqueue(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return m.q.Send(ctx, goqite.Message{Body: data})
}

// Receive pulls the next message from the queue. Returns the message and a
// delete function the worker must call after successful processing.
func (m *Manager) Receive(ctx context.Context) (*Message, func() error, error) {
	gMsg, err := m.q.Receive(ctx)
	if err != nil {
		return nil, nil, err
	}
	if gMsg == nil {
		return nil, nil, ErrNoMessage
	}

	var msg Message
	if err := json.Unmarshal(gMsg.Body, &msg); err != nil {
		return nil, nil, err
	}

	deleteFn := func() error {
		deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.q.Delete(deleteCtx, gMsg.ID)
	}

	return &msg, deleteFn, nil
}

// Extend extends the visibility timeout for a long-running fetch.
func (m *Manager) Extend(ctx context.Context, messageID goqite.ID, duration time.Duration) error {
	return m.q.Extend(ctx, messageID, duration)
}

// Close closes the queue manager. goqite requires no explicit teardown.
func (m *Manager) Close() error {
	return nil
}
