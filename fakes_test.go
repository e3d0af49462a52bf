package ogm

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/require"

	"github.com/groc-prog/neo4j-ogm-sub000/pkg/config"
	"github.com/groc-prog/neo4j-ogm-sub000/pkg/registry"
)

// runStub is one scripted answer for a Run call, consumed in order across
// sessions and transactions.
type runStub struct {
	raw *rawResult
	err error
}

type fakeConn struct {
	mu       sync.Mutex
	stubs    []runStub
	runs     []string
	sessions []*fakeSession
	closed   bool
}

func (c *fakeConn) stub(raw *rawResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stubs = append(c.stubs, runStub{raw: raw, err: err})
}

func (c *fakeConn) next(query string) (*rawResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, query)
	if len(c.stubs) == 0 {
		return &rawResult{}, nil
	}
	s := c.stubs[0]
	c.stubs = c.stubs[1:]
	if s.err != nil {
		return nil, s.err
	}
	return s.raw, nil
}

func (c *fakeConn) runCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.runs)
}

func (c *fakeConn) NewSession(ctx context.Context) graphSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &fakeSession{conn: c}
	c.sessions = append(c.sessions, s)
	return s
}

func (c *fakeConn) VerifyConnectivity(ctx context.Context) error { return nil }

func (c *fakeConn) Close(ctx context.Context) error {
	c.closed = true
	return nil
}

type fakeSession struct {
	conn     *fakeConn
	tx       *fakeTx
	autoRuns []string
	closed   bool
	beginErr error
}

func (s *fakeSession) Run(ctx context.Context, query string, params map[string]any) (*rawResult, error) {
	s.autoRuns = append(s.autoRuns, query)
	return s.conn.next(query)
}

func (s *fakeSession) BeginTransaction(ctx context.Context) (graphTx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.tx = &fakeTx{conn: s.conn}
	return s.tx, nil
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type fakeTx struct {
	conn       *fakeConn
	queries    []string
	committed  bool
	rolledBack bool
	closed     bool
	commitErr  error
}

func (t *fakeTx) Run(ctx context.Context, query string, params map[string]any) (*rawResult, error) {
	t.queries = append(t.queries, query)
	return t.conn.next(query)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) Close(ctx context.Context) error {
	t.closed = true
	return nil
}

// newTestClient returns a connected client backed by a fake driver, with the
// Person node model and KNOWS relationship model registered.
func newTestClient(t *testing.T) (*Client, *fakeConn) {
	t.Helper()

	client := New(config.Default(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, client.Register(registry.Model{
		Name:   "Person",
		Labels: []string{"Person"},
		Fields: []registry.FieldShape{{Name: "name"}, {Name: "age"}},
	}))
	require.NoError(t, client.Register(registry.Model{
		Name:   "Knows",
		Kind:   registry.ModelRelationship,
		Type:   "KNOWS",
		Fields: []registry.FieldShape{{Name: "since"}},
	}))

	conn := &fakeConn{}
	client.conn = conn
	return client, conn
}

func personNodeRaw(id int64, elementID, name string, age int64) dbtype.Node {
	return dbtype.Node{
		Id:        id,
		ElementId: elementID,
		Labels:    []string{"Person"},
		Props:     map[string]any{"name": name, "age": age},
	}
}

func singleNodeResult(node dbtype.Node) *rawResult {
	return &rawResult{Keys: []string{"n"}, Rows: [][]any{{node}}}
}
