package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"
)

// Neo4jDriver wraps the Bolt driver and routes every query to one logical
// database. It also works against Bolt-compatible stores such as Memgraph.
type Neo4jDriver struct {
	Driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver connects to the store and verifies connectivity before
// returning. An empty database name targets the server default.
func NewNeo4jDriver(uri, username, password, database string) (*Neo4jDriver, error) {
	d, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := d.VerifyConnectivity(context.Background()); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"component": "Neo4jDriver",
		"uri":       uri,
		"database":  database,
	}).Info("connected to graph store")

	return &Neo4jDriver{Driver: d, database: database}, nil
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if d.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(d.database))
	}

	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

// BuildIndices ensures the GUID lookup index used by relationship matching
// and the name index used by the root sanity check. Both statements are
// idempotent; a store that rejects one gets a warning and the loop moves on.
func (d *Neo4jDriver) BuildIndices(ctx context.Context) error {
	log := logrus.WithField("component", "Neo4jDriver")

	queries := []string{
		CreateNodeGUIDIndexQuery,
		CreateNodeNameIndexQuery,
	}

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			log.WithError(err).WithField("query", q).Warn("failed to create index")
		}
	}

	return nil
}
