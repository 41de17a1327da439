package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newTestQueueDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestManager_EnqueueThenReceiveRoundTripsTheMessage(t *testing.T) {
	db := newTestQueueDB(t)
	m, err := NewManager(db, "test_queue")
	require.NoError(t, err)

	payload, err := json.Marshal(SourceFetchPayload{Source: "remotive", Keyword: "go"})
	require.NoError(t, err)
	require.NoError(t, m.Enqueue(context.Background(), Message{ScrapeRunID: "run1", Type: MessageTypeSourceFetch, Payload: payload}))

	msg, done, err := m.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run1", msg.ScrapeRunID)
	assert.Equal(t, MessageTypeSourceFetch, msg.Type)

	var decoded SourceFetchPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, "remotive", decoded.Source)

	require.NoError(t, done())
}

func TestManager_ReceiveOnEmptyQueueReturnsErrNoMessage(t *testing.T) {
	db := newTestQueueDB(t)
	m, err := NewManager(db, "test_queue")
	require.NoError(t, err)

	_, _, err = m.Receive(context.Background())

	assert.ErrorIs(t, err, ErrNoMessage)
}

func TestManager_SeparateQueueNamesDoNotSeeEachOthersMessages(t *testing.T) {
	db := newTestQueueDB(t)
	a, err := NewManager(db, "queue_a")
	require.NoError(t, err)
	b, err := NewManager(db, "queue_b")
	require.NoError(t, err)

	require.NoError(t, a.Enqueue(context.Background(), Message{ScrapeRunID: "run1", Type: MessageTypeSourceFetch}))

	_, _, err = b.Receive(context.Background())
	assert.ErrorIs(t, err, ErrNoMessage)
}

func TestManager_DeleteRemovesTheMessageFromTheQueue(t *testing.T) {
	db := newTestQueueDB(t)
	m, err := NewManager(db, "test_queue")
	require.NoError(t, err)

	require.NoError(t, m.Enqueue(context.Background(), Message{ScrapeRunID: "run1", Type: MessageTypeSourceFetch}))

	_, done, err := m.Receive(context.Background())
	require.NoError(t, err)
	require.NoError(t, done())

	_, _, err = m.Receive(context.Background())
	assert.ErrorIs(t, err, ErrNoMessage)
}
