package ogm

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// neoConn adapts neo4j.DriverWithContext to the graphConn surface the core
// needs. Both Neo4j and Memgraph speak Bolt, so one adapter serves both
// providers.
type neoConn struct {
	driver   neo4j.DriverWithContext
	database string
}

func newNeoConn(uri, username, password, database string) (*neoConn, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}
	return &neoConn{driver: driver, database: database}, nil
}

func (c *neoConn) NewSession(ctx context.Context) graphSession {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	return &neoSession{session: session}
}

func (c *neoConn) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *neoConn) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

type neoSession struct {
	session neo4j.SessionWithContext
}

func (s *neoSession) Run(ctx context.Context, query string, params map[string]any) (*rawResult, error) {
	result, err := s.session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return collectResult(ctx, result)
}

func (s *neoSession) BeginTransaction(ctx context.Context) (graphTx, error) {
	tx, err := s.session.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return &neoTx{tx: tx}, nil
}

func (s *neoSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

type neoTx struct {
	tx neo4j.ExplicitTransaction
}

func (t *neoTx) Run(ctx context.Context, query string, params map[string]any) (*rawResult, error) {
	result, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return collectResult(ctx, result)
}

func (t *neoTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *neoTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
func (t *neoTx) Close(ctx context.Context) error    { return t.tx.Close(ctx) }

// collectResult drains a driver result into raw rows plus column names,
// preserving server order.
func collectResult(ctx context.Context, result neo4j.ResultWithContext) (*rawResult, error) {
	keys, err := result.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to read result keys: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, len(records))
	for i, record := range records {
		rows[i] = record.Values
	}
	return &rawResult{Keys: keys, Rows: rows}, nil
}
