package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphDriver is the store client handle shared by every component of a run.
// It is constructed once, passed explicitly, and closed when the run ends.
type GraphDriver interface {
	// ExecuteQuery runs one Cypher query with parameters and returns the
	// eagerly collected result.
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	// BuildIndices ensures the lookup indices exist. Creation is idempotent;
	// per-statement failures are logged and skipped.
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
