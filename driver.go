package ogm

import "context"

// rawResult is one executed query's raw output: the column names and the
// server-ordered rows. len(Keys) equals the width of every row.
type rawResult struct {
	Keys []string
	Rows [][]any
}

// The core talks to the driver through these narrow interfaces so tests can
// substitute fakes without a running database.

type graphConn interface {
	NewSession(ctx context.Context) graphSession
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

type graphSession interface {
	// Run executes a query in the session's auto-commit mode.
	Run(ctx context.Context, query string, params map[string]any) (*rawResult, error)
	BeginTransaction(ctx context.Context) (graphTx, error)
	Close(ctx context.Context) error
}

type graphTx interface {
	Run(ctx context.Context, query string, params map[string]any) (*rawResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
}
