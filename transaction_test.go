package ogm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginConflict(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	require.NoError(t, client.Begin(context.Background()))

	err := client.Begin(context.Background())
	assert.ErrorIs(t, err, ErrTransactionConflict)

	require.NoError(t, client.Rollback(context.Background()))
}

func TestCommitWithoutTransaction(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	assert.ErrorIs(t, client.Commit(context.Background()), ErrNoActiveTransaction)
	assert.ErrorIs(t, client.Rollback(context.Background()), ErrNoActiveTransaction)
}

func TestBeginBeforeConnect(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	client.conn = nil
	assert.ErrorIs(t, client.Begin(context.Background()), ErrClientNotInitialized)
}

func TestBatchCommitsOnce(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t)
	conn.stub(&rawResult{}, nil)
	conn.stub(&rawResult{}, nil)

	err := client.Batch(context.Background(), func(ctx context.Context) error {
		if _, err := client.Cypher(ctx, "CREATE (:Person {name: 'Alice'})", nil); err != nil {
			return err
		}
		_, err := client.Cypher(ctx, "CREATE (:Person {name: 'Bob'})", nil)
		return err
	})
	require.NoError(t, err)

	// One session, one transaction, both queries inside it.
	require.Len(t, conn.sessions, 1)
	tx := conn.sessions[0].tx
	assert.Len(t, tx.queries, 2)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
	assert.True(t, conn.sessions[0].closed)
}

func TestBatchRollsBackWholeBatchOnQueryFailure(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t)
	boom := errors.New("constraint violation")
	conn.stub(&rawResult{}, nil)
	conn.stub(nil, boom)

	err := client.Batch(context.Background(), func(ctx context.Context) error {
		if _, err := client.Cypher(ctx, "CREATE (:Person {name: 'Alice'})", nil); err != nil {
			return err
		}
		_, err := client.Cypher(ctx, "CREATE (:Person {name: 'Alice'})", nil)
		return err
	})
	assert.ErrorIs(t, err, boom)

	tx := conn.sessions[0].tx
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)

	// The batch is gone; there is nothing left to commit.
	assert.ErrorIs(t, client.Commit(context.Background()), ErrNoActiveTransaction)
}

func TestBatchRollsBackOnFunctionError(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t)
	boom := errors.New("validation failed")

	err := client.Batch(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, conn.sessions[0].tx.rolledBack)
}

func TestBatchConflict(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	require.NoError(t, client.Begin(context.Background()))

	err := client.Batch(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrTransactionConflict)

	require.NoError(t, client.Rollback(context.Background()))
}

func TestImplicitCallJoinsOpenBatch(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t)
	require.NoError(t, client.Begin(context.Background()))
	conn.stub(&rawResult{}, nil)

	_, err := client.Cypher(context.Background(), "CREATE (:Person)", nil)
	require.NoError(t, err)

	// The query ran inside the batch transaction, not a session of its own.
	require.Len(t, conn.sessions, 1)
	assert.Equal(t, []string{"CREATE (:Person)"}, conn.sessions[0].tx.queries)
	assert.False(t, conn.sessions[0].tx.committed)

	require.NoError(t, client.Commit(context.Background()))
	assert.True(t, conn.sessions[0].tx.committed)
	assert.True(t, conn.sessions[0].closed)
}

func TestQueryFailureInsideExplicitTransaction(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t)
	require.NoError(t, client.Begin(context.Background()))
	boom := errors.New("deadlock")
	conn.stub(nil, boom)

	_, err := client.Cypher(context.Background(), "CREATE (:Person)", nil)
	assert.ErrorIs(t, err, boom)

	// The failure rolled the transaction back.
	assert.True(t, conn.sessions[0].tx.rolledBack)
	assert.ErrorIs(t, client.Rollback(context.Background()), ErrNoActiveTransaction)
}

func TestCommitFailureReported(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t)
	require.NoError(t, client.Begin(context.Background()))
	conn.sessions[0].tx.commitErr = errors.New("leader switch")

	err := client.Commit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit failed")
}
