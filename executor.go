package ogm

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/sony/gobreaker"
)

// queryRunner is the common Run surface of sessions (auto-commit) and
// explicit transactions.
type queryRunner interface {
	Run(ctx context.Context, query string, params map[string]any) (*rawResult, error)
}

// queryExecutor runs queries against a runner, validating parameters first
// and optionally routing the network call through a circuit breaker.
type queryExecutor struct {
	log     *slog.Logger
	breaker *gobreaker.CircuitBreaker
}

func (e *queryExecutor) run(ctx context.Context, runner queryRunner, query string, params map[string]any) (*rawResult, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	started := time.Now()
	do := func() (any, error) { return runner.Run(ctx, query, params) }

	var (
		res any
		err error
	)
	if e.breaker != nil {
		res, err = e.breaker.Execute(do)
	} else {
		res, err = do()
	}
	if err != nil {
		e.log.Debug("query failed", "query", query, "elapsed", time.Since(started), "error", err)
		return nil, err
	}

	raw := res.(*rawResult)
	for i, row := range raw.Rows {
		if len(row) != len(raw.Keys) {
			return nil, fmt.Errorf("row %d width %d does not match %d columns", i, len(row), len(raw.Keys))
		}
	}
	e.log.Debug("query executed", "query", query, "rows", len(raw.Rows), "elapsed", time.Since(started))
	return raw, nil
}

// validateParams rejects parameter values the driver cannot transmit.
// Parameters are a flat mapping of primitives and collections thereof;
// unlike stored properties, nested maps are allowed because Cypher accepts
// map parameters.
func validateParams(params map[string]any) error {
	for name, v := range params {
		if err := validateParamValue(name, v); err != nil {
			return err
		}
	}
	return nil
}

func validateParamValue(name string, v any) error {
	if v == nil {
		return nil
	}
	switch tv := v.(type) {
	case bool, string, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32,
		float32, float64,
		time.Time, dbtype.Date, dbtype.LocalTime, dbtype.Time, dbtype.LocalDateTime,
		dbtype.Duration, dbtype.Point2D, dbtype.Point3D:
		return nil
	case map[string]any:
		for k, el := range tv {
			if err := validateParamValue(name+"."+k, el); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if err := validateParamValue(fmt.Sprintf("%s[%d]", name, i), rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("parameter %q has unsupported type %T", name, v)
}
