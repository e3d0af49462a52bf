package ogm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groc-prog/neo4j-ogm-sub000/pkg/config"
)

func TestValidateParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  map[string]any
		wantErr bool
	}{
		{"nil map", nil, false},
		{"primitives", map[string]any{"s": "a", "i": 42, "f": 1.5, "b": true, "n": nil}, false},
		{"bytes and time", map[string]any{"blob": []byte{1}, "at": time.Now()}, false},
		{"list", map[string]any{"l": []any{1, "a", true}}, false},
		{"typed slice", map[string]any{"l": []string{"a", "b"}}, false},
		{"nested map", map[string]any{"m": map[string]any{"inner": []any{1}}}, false},
		{"channel", map[string]any{"ch": make(chan int)}, true},
		{"func", map[string]any{"fn": func() {}}, true},
		{"bad list element", map[string]any{"l": []any{1, make(chan int)}}, true},
		{"bad nested value", map[string]any{"m": map[string]any{"fn": func() {}}}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateParams(tt.params)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInvalidParamsNeverReachTheDriver(t *testing.T) {
	t.Parallel()

	client, conn := newTestClient(t)
	_, err := client.Cypher(context.Background(), "RETURN $ch", map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Equal(t, 0, conn.runCount())
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60,
		Timeout:          30,
		ReadyToTripRatio: 0.6,
	}

	client, conn := newTestClient(t)
	client.exec.breaker = newBreaker(cfg.CircuitBreaker, client.log)

	boom := errors.New("connection reset")
	for i := 0; i < 3; i++ {
		conn.stub(nil, boom)
		_, err := client.Cypher(context.Background(), "RETURN 1", nil)
		assert.ErrorIs(t, err, boom)
	}

	// The breaker is open now: the call fails fast and the driver is not
	// touched again.
	before := conn.runCount()
	_, err := client.Cypher(context.Background(), "RETURN 1", nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, conn.runCount())
}

func TestBreakerDisabledByDefault(t *testing.T) {
	t.Parallel()

	client := New(config.Default())
	assert.Nil(t, client.exec.breaker)
}
