package ogm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/groc-prog/neo4j-ogm-sub000/pkg/codec"
	"github.com/groc-prog/neo4j-ogm-sub000/pkg/config"
	"github.com/groc-prog/neo4j-ogm-sub000/pkg/graph"
	"github.com/groc-prog/neo4j-ogm-sub000/pkg/logger"
	"github.com/groc-prog/neo4j-ogm-sub000/pkg/registry"
	"github.com/groc-prog/neo4j-ogm-sub000/pkg/resolver"
)

// Client is the object-graph mapper. It owns the session/transaction
// lifecycle, runs queries, and resolves returned graph entities into the
// models registered on it.
//
// Independent calls may run concurrently; each uses its own session. While a
// batch is open every query issued through the client joins the batch's
// transaction, so the caller must serialize its calls for that window.
type Client struct {
	log      *slog.Logger
	cfg      *config.Config
	registry *registry.Registry
	codec    *codec.Codec
	resolver *resolver.Resolver
	exec     *queryExecutor
	hooks    *hookTable

	conn graphConn

	mu sync.Mutex
	tx *activeTx
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger replaces the default logger.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// New creates a client from configuration. Models can be registered before
// Connect; every other operation requires an established connection.
func New(cfg *config.Config, opts ...ClientOption) *Client {
	if cfg == nil {
		cfg = config.Default()
	}

	var codecOpts []codec.Option
	if cfg.Codec.RepairJSON {
		codecOpts = append(codecOpts, codec.WithJSONRepair())
	}
	cd := codec.New(codec.Provider(cfg.Database.Provider), codecOpts...)
	reg := registry.New()

	c := &Client{
		log:      logger.NewDefaultLogger(logger.ParseLevel(cfg.Log.Level)),
		cfg:      cfg,
		registry: reg,
		codec:    cd,
		resolver: resolver.New(reg, cd),
		hooks:    newHookTable(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.exec = &queryExecutor{log: c.log, breaker: newBreaker(cfg.CircuitBreaker, c.log)}
	return c
}

func newBreaker(cfg config.CircuitBreakerConfig, log *slog.Logger) *gobreaker.CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ogm-query",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// Connect establishes the driver connection and verifies connectivity.
func (c *Client) Connect(ctx context.Context) error {
	db := c.cfg.Database
	conn, err := newNeoConn(db.URI, db.Username, db.Password, db.Database)
	if err != nil {
		return err
	}
	if err := conn.VerifyConnectivity(ctx); err != nil {
		_ = conn.Close(ctx)
		return fmt.Errorf("connectivity check failed: %w", err)
	}
	c.conn = conn
	c.log.Info("connected", "uri", db.URI, "provider", db.Provider)
	return nil
}

// Close rolls back any open transaction and releases the driver.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	open := c.tx
	c.tx = nil
	c.mu.Unlock()
	if open != nil {
		c.finishTx(ctx, open, false, nil)
	}
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(ctx)
	c.conn = nil
	return err
}

// Register adds a model to the client's registry.
func (c *Client) Register(m registry.Model) error {
	_, err := c.registry.Register(m)
	if err != nil {
		return err
	}
	c.log.Debug("model registered", "model", m.Name, "kind", m.Kind.String())
	return nil
}

// RegisterAll registers every model, stopping at the first collision.
func (c *Client) RegisterAll(models ...registry.Model) error {
	for _, m := range models {
		if err := c.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Registry exposes the model registry, e.g. for DDL generation.
func (c *Client) Registry() *registry.Registry { return c.registry }

// OnPhase appends a hook for a lifecycle phase. Hooks run in registration
// order.
func (c *Client) OnPhase(p Phase, fn HookFunc) {
	c.hooks.on(p, fn)
}

// Result is the outcome of one executed query. Row values are resolved:
// registered nodes and relationships appear as *resolver.Entity, paths as
// *resolver.Path, containers are rebuilt around them, and plain primitives
// pass through.
type Result struct {
	Keys []string
	Rows [][]any
}

type queryOptions struct {
	autoCommit     bool
	skipResolution bool
}

// QueryOption configures a single Cypher call.
type QueryOption func(*queryOptions)

// WithAutoCommit runs the query in a dedicated short-lived session instead
// of the shared transaction. Required for administrative queries that refuse
// to run inside a multi-statement transaction; such queries never join an
// open batch.
func WithAutoCommit() QueryOption {
	return func(o *queryOptions) { o.autoCommit = true }
}

// WithoutResolution returns raw driver values instead of resolved entities.
func WithoutResolution() QueryOption {
	return func(o *queryOptions) { o.skipResolution = true }
}

// Cypher executes a parameterized query. Without an open batch the query
// runs in its own transaction that commits on success and rolls back on any
// failure before the original error reaches the caller. With an open batch
// the query joins it, and a failure rolls back the entire batch.
func (c *Client) Cypher(ctx context.Context, query string, params map[string]any, opts ...QueryOption) (*Result, error) {
	if c.conn == nil {
		return nil, ErrClientNotInitialized
	}
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.autoCommit {
		return c.runAutoCommit(ctx, query, params, o)
	}

	c.mu.Lock()
	open := c.tx
	c.mu.Unlock()
	if open != nil {
		return c.runInTx(ctx, open, query, params, o)
	}
	return c.runImplicit(ctx, query, params, o)
}

// runAutoCommit uses a dedicated session and never touches the shared
// transaction.
func (c *Client) runAutoCommit(ctx context.Context, query string, params map[string]any, o queryOptions) (*Result, error) {
	c.hooks.fire(ctx, HookEvent{Phase: PhaseBeforeQuery, Query: query, Params: params})
	session := c.conn.NewSession(ctx)
	defer session.Close(ctx)

	raw, err := c.exec.run(ctx, session, query, params)
	if err == nil {
		var res *Result
		res, err = c.buildResult(raw, o)
		c.hooks.fire(ctx, HookEvent{Phase: PhaseAfterQuery, Query: query, Params: params, Err: err})
		return res, err
	}
	c.hooks.fire(ctx, HookEvent{Phase: PhaseAfterQuery, Query: query, Params: params, Err: err})
	return nil, err
}

// runImplicit wraps the query in a transaction of its own.
func (c *Client) runImplicit(ctx context.Context, query string, params map[string]any, o queryOptions) (*Result, error) {
	session := c.conn.NewSession(ctx)
	defer session.Close(ctx)

	tx, err := session.BeginTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Close(ctx)

	c.hooks.fire(ctx, HookEvent{Phase: PhaseBeforeQuery, Query: query, Params: params})

	res, err := c.runAndResolve(ctx, tx, query, params, o)
	c.hooks.fire(ctx, HookEvent{Phase: PhaseAfterQuery, Query: query, Params: params, Err: err})
	if err != nil {
		c.hooks.fire(ctx, HookEvent{Phase: PhaseBeforeRollback, Query: query, Err: err})
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			c.log.Warn("rollback failed", "error", rbErr)
		}
		c.hooks.fire(ctx, HookEvent{Phase: PhaseAfterRollback, Query: query, Err: err})
		return nil, err
	}

	c.hooks.fire(ctx, HookEvent{Phase: PhaseBeforeCommit, Query: query})
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit failed: %w", err)
	}
	c.hooks.fire(ctx, HookEvent{Phase: PhaseAfterCommit, Query: query})
	return res, nil
}

// runInTx joins the open batch transaction. Any failure rolls back the
// whole batch before the error propagates.
func (c *Client) runInTx(ctx context.Context, open *activeTx, query string, params map[string]any, o queryOptions) (*Result, error) {
	c.hooks.fire(ctx, HookEvent{Phase: PhaseBeforeQuery, TxID: open.id, Query: query, Params: params})

	res, err := c.runAndResolve(ctx, open.tx, query, params, o)
	c.hooks.fire(ctx, HookEvent{Phase: PhaseAfterQuery, TxID: open.id, Query: query, Params: params, Err: err})
	if err != nil {
		c.abortTx(ctx, open, err)
		return nil, err
	}
	return res, nil
}

func (c *Client) runAndResolve(ctx context.Context, runner queryRunner, query string, params map[string]any, o queryOptions) (*Result, error) {
	raw, err := c.exec.run(ctx, runner, query, params)
	if err != nil {
		return nil, err
	}
	return c.buildResult(raw, o)
}

// buildResult resolves every value of every row through a fresh call-scoped
// cache, so repeated element identifiers within one result set share one
// entity instance.
func (c *Client) buildResult(raw *rawResult, o queryOptions) (*Result, error) {
	res := &Result{Keys: raw.Keys, Rows: make([][]any, len(raw.Rows))}
	if o.skipResolution {
		copy(res.Rows, raw.Rows)
		return res, nil
	}

	cache := resolver.NewCache()
	for i, row := range raw.Rows {
		resolved := make([]any, len(row))
		for j, v := range row {
			rv, err := c.resolver.Resolve(graph.FromRaw(v), cache)
			if err != nil {
				return nil, err
			}
			resolved[j] = rv
		}
		res.Rows[i] = resolved
	}
	return res, nil
}
