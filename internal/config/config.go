package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/gantrylabs/gantry/internal/core/model"
)

// ErrMissingPassword is returned by Validate when no store password was
// provided by flag, environment or file. Checked before any connection
// attempt.
var ErrMissingPassword = errors.New("graph password not set, provide NEO4J_PASSWORD or [graph] password")

type GraphConfig struct {
	URI      string `toml:"uri"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

type LoadConfig struct {
	NodeBatchSize int    `toml:"node_batch_size"`
	EdgeBatchSize int    `toml:"edge_batch_size"`
	Source        string `toml:"source"`
}

type VerifyConfig struct {
	ExpectedNodes        int64            `toml:"expected_nodes"`
	ExpectedContains     int64            `toml:"expected_contains"`
	RootName             string           `toml:"root_name"`
	ExpectedRootChildren int64            `toml:"expected_root_children"`
	EdgeTypes            map[string]int64 `toml:"edge_types"`
}

// Expected converts the section into the reference counts verification
// compares against.
func (v VerifyConfig) Expected() model.ExpectedCounts {
	return model.ExpectedCounts{
		Nodes:        v.ExpectedNodes,
		Contains:     v.ExpectedContains,
		RootName:     v.RootName,
		RootChildren: v.ExpectedRootChildren,
		EdgeTypes:    v.EdgeTypes,
	}
}

type ExportConfig struct {
	ExcludeLabels []string `toml:"exclude_labels"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type Config struct {
	Graph  GraphConfig  `toml:"graph"`
	Load   LoadConfig   `toml:"load"`
	Verify VerifyConfig `toml:"verify"`
	Export ExportConfig `toml:"export"`
	Server ServerConfig `toml:"server"`
}

// Default returns the configuration used when no file is given. File values
// override these, environment values override both.
func Default() *Config {
	return &Config{
		Graph: GraphConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
		},
		Load: LoadConfig{
			NodeBatchSize: 1000,
			EdgeBatchSize: 500,
			Source:        "codebase-analyzer",
		},
		Export: ExportConfig{
			ExcludeLabels: []string{"CodeElement"},
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides the graph section with the NEO4J_* variables when set.
func (c *Config) ApplyEnv() {
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		c.Graph.URI = uri
	}
	if user := os.Getenv("NEO4J_USERNAME"); user != "" {
		c.Graph.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		c.Graph.Password = pass
	}
	if db := os.Getenv("NEO4J_DATABASE"); db != "" {
		c.Graph.Database = db
	}
}

// Validate checks the fail-fast preconditions for connecting.
func (c *Config) Validate() error {
	if c.Graph.Password == "" {
		return ErrMissingPassword
	}
	return nil
}
