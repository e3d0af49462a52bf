package ogm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// activeTx is the single open session/transaction pair. Exactly one is alive
// between Begin and Commit/Rollback.
type activeTx struct {
	id      uuid.UUID
	session graphSession
	tx      graphTx
	batch   bool
}

// Begin opens an explicit transaction spanning subsequent calls until Commit
// or Rollback. Only one may be open per client.
func (c *Client) Begin(ctx context.Context) error {
	if c.conn == nil {
		return ErrClientNotInitialized
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil {
		return ErrTransactionConflict
	}

	session := c.conn.NewSession(ctx)
	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		_ = session.Close(ctx)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	c.tx = &activeTx{id: uuid.New(), session: session, tx: tx, batch: true}
	c.log.Debug("transaction begun", "tx_id", c.tx.id)
	return nil
}

// Commit commits the open transaction.
func (c *Client) Commit(ctx context.Context) error {
	c.mu.Lock()
	open := c.tx
	c.tx = nil
	c.mu.Unlock()
	if open == nil {
		return ErrNoActiveTransaction
	}
	return c.finishTx(ctx, open, true, nil)
}

// Rollback discards the open transaction.
func (c *Client) Rollback(ctx context.Context) error {
	c.mu.Lock()
	open := c.tx
	c.tx = nil
	c.mu.Unlock()
	if open == nil {
		return ErrNoActiveTransaction
	}
	return c.finishTx(ctx, open, false, nil)
}

// Batch opens a transaction, runs fn with every query issued through the
// client inside it, and commits once on success. The first failure rolls
// back everything issued inside the batch and propagates unchanged.
func (c *Client) Batch(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.Begin(ctx); err != nil {
		return err
	}

	if err := fn(ctx); err != nil {
		// A failing query already rolled the batch back; only roll back
		// here if it is still open.
		c.mu.Lock()
		open := c.tx
		c.tx = nil
		c.mu.Unlock()
		if open != nil {
			c.finishTx(ctx, open, false, err)
		}
		return err
	}

	return c.Commit(ctx)
}

// abortTx rolls back a batch after a failed query. The transaction slot is
// cleared so later calls see no open batch.
func (c *Client) abortTx(ctx context.Context, open *activeTx, cause error) {
	c.mu.Lock()
	if c.tx == open {
		c.tx = nil
	}
	c.mu.Unlock()
	c.finishTx(ctx, open, false, cause)
}

// finishTx commits or rolls back, fires the matching hooks, and closes the
// session. A commit/rollback failure is returned, but never masks cause.
func (c *Client) finishTx(ctx context.Context, open *activeTx, commit bool, cause error) error {
	defer func() {
		_ = open.tx.Close(ctx)
		_ = open.session.Close(ctx)
	}()

	if commit {
		c.hooks.fire(ctx, HookEvent{Phase: PhaseBeforeCommit, TxID: open.id})
		err := open.tx.Commit(ctx)
		c.hooks.fire(ctx, HookEvent{Phase: PhaseAfterCommit, TxID: open.id, Err: err})
		if err != nil {
			return fmt.Errorf("commit failed: %w", err)
		}
		c.log.Debug("transaction committed", "tx_id", open.id)
		return nil
	}

	c.hooks.fire(ctx, HookEvent{Phase: PhaseBeforeRollback, TxID: open.id, Err: cause})
	err := open.tx.Rollback(ctx)
	c.hooks.fire(ctx, HookEvent{Phase: PhaseAfterRollback, TxID: open.id, Err: cause})
	if err != nil {
		if cause != nil {
			// The original failure must reach the caller, not the rollback's.
			c.log.Warn("rollback failed", "tx_id", open.id, "error", err)
			return nil
		}
		return fmt.Errorf("rollback failed: %w", err)
	}
	c.log.Debug("transaction rolled back", "tx_id", open.id)
	return nil
}
