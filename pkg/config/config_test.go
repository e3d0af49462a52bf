package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "neo4j", cfg.Database.Provider)
	assert.Equal(t, "bolt://localhost:7687", cfg.Database.URI)
	assert.False(t, cfg.Codec.RepairJSON)
	assert.False(t, cfg.CircuitBreaker.Enabled)
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("NEO4J_URI", "bolt://db.internal:7687")
	t.Setenv("NEO4J_USER", "svc")
	t.Setenv("NEO4J_PASSWORD", "secret")
	t.Setenv("GRAPH_PROVIDER", "memgraph")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt://db.internal:7687", cfg.Database.URI)
	assert.Equal(t, "svc", cfg.Database.Username)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "memgraph", cfg.Database.Provider)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "neo4j", cfg.Database.Provider)
	assert.Equal(t, "info", cfg.Log.Level)
}
