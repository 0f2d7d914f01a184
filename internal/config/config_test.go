package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load("testdata/config.toml")
	require.NoError(t, err)

	assert.Equal(t, "bolt://graph.internal:7687", cfg.Graph.URI)
	assert.Equal(t, "loader", cfg.Graph.Username)
	assert.Equal(t, "file-secret", cfg.Graph.Password)
	assert.Equal(t, "codegraph", cfg.Graph.Database)

	// File values override defaults, untouched keys keep them.
	assert.Equal(t, 250, cfg.Load.NodeBatchSize)
	assert.Equal(t, 500, cfg.Load.EdgeBatchSize)
	assert.Equal(t, "nightly-analyzer", cfg.Load.Source)

	assert.Equal(t, int64(6943), cfg.Verify.ExpectedNodes)
	assert.Equal(t, int64(6942), cfg.Verify.ExpectedContains)
	assert.Equal(t, "platform", cfg.Verify.RootName)
	assert.Equal(t, int64(22), cfg.Verify.ExpectedRootChildren)
	assert.Equal(t, int64(2008), cfg.Verify.EdgeTypes["IMPORTS"])
	assert.Equal(t, int64(25), cfg.Verify.EdgeTypes["DEPENDS_ON"])

	assert.Equal(t, []string{"CodeElement", "Scratch"}, cfg.Export.ExcludeLabels)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist.toml")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
	assert.Equal(t, "neo4j", cfg.Graph.Username)
	assert.Equal(t, 1000, cfg.Load.NodeBatchSize)
	assert.Equal(t, 500, cfg.Load.EdgeBatchSize)
	assert.Equal(t, "codebase-analyzer", cfg.Load.Source)
	assert.Equal(t, []string{"CodeElement"}, cfg.Export.ExcludeLabels)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestApplyEnvOverridesFile(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://env-host:7687")
	t.Setenv("NEO4J_USERNAME", "env-user")
	t.Setenv("NEO4J_PASSWORD", "env-secret")
	t.Setenv("NEO4J_DATABASE", "env-db")

	cfg, err := Load("testdata/config.toml")
	require.NoError(t, err)
	cfg.ApplyEnv()

	assert.Equal(t, "bolt://env-host:7687", cfg.Graph.URI)
	assert.Equal(t, "env-user", cfg.Graph.Username)
	assert.Equal(t, "env-secret", cfg.Graph.Password)
	assert.Equal(t, "env-db", cfg.Graph.Database)
}

func TestApplyEnvLeavesUnsetAlone(t *testing.T) {
	t.Setenv("NEO4J_URI", "")
	t.Setenv("NEO4J_USERNAME", "")
	t.Setenv("NEO4J_PASSWORD", "")
	t.Setenv("NEO4J_DATABASE", "")

	cfg, err := Load("testdata/config.toml")
	require.NoError(t, err)
	cfg.ApplyEnv()

	assert.Equal(t, "bolt://graph.internal:7687", cfg.Graph.URI)
	assert.Equal(t, "file-secret", cfg.Graph.Password)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingPassword)

	cfg.Graph.Password = "secret"
	assert.NoError(t, cfg.Validate())
}
