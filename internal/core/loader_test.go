package core

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantrylabs/gantry/internal/core/model"
	gdriver "github.com/gantrylabs/gantry/internal/driver"
)

func testLoader(d gdriver.GraphDriver) *Loader {
	l := NewLoader(d)
	l.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	uuidCounter := 0
	l.UUIDGenerator = func() string {
		uuidCounter++
		return fmt.Sprintf("uuid-%d", uuidCounter)
	}
	return l
}

func makeFlatNodes(n int) []model.FlatNode {
	nodes := make([]model.FlatNode, 0, n)
	for i := 0; i < n; i++ {
		nodes = append(nodes, model.FlatNode{
			GUID: fmt.Sprintf("guid-%d", i),
			Name: fmt.Sprintf("node-%d", i),
			Type: "file",
		})
	}
	return nodes
}

func TestLoadNodesChunking(t *testing.T) {
	// 2500 nodes at the default batch size: two full batches plus a
	// remainder, input order preserved across them.
	mock := &MockDriver{ResultQueue: []neo4j.EagerResult{
		countResult("created", 1000),
		countResult("created", 1000),
		countResult("created", 500),
	}}

	l := testLoader(mock)
	total, degraded, err := l.LoadNodes(context.Background(), makeFlatNodes(2500))
	require.NoError(t, err)
	assert.Equal(t, int64(2500), total)
	assert.False(t, degraded)
	assert.True(t, mock.IndicesBuilt)
	require.Len(t, mock.Queries, 3)

	first := mock.Queries[0].Params["batch"].([]map[string]interface{})
	last := mock.Queries[2].Params["batch"].([]map[string]interface{})
	require.Len(t, first, 1000)
	require.Len(t, last, 500)
	assert.Equal(t, "guid-0", first[0]["GUID"])
	assert.Equal(t, "guid-2499", last[499]["GUID"])
	assert.Equal(t, "codebase-analyzer", first[0]["source"])
	assert.Equal(t, "2025-06-01T12:00:00Z", first[0]["import_date"])
}

func TestLoadNodesCountMismatchFlagsDegraded(t *testing.T) {
	mock := &MockDriver{ResultQueue: []neo4j.EagerResult{countResult("created", 2)}}

	l := testLoader(mock)
	total, degraded, err := l.LoadNodes(context.Background(), makeFlatNodes(3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.True(t, degraded)
}

func TestLoadNodesBatchError(t *testing.T) {
	mock := &MockDriver{Err: fmt.Errorf("connection reset")}

	l := testLoader(mock)
	_, _, err := l.LoadNodes(context.Background(), makeFlatNodes(5))
	require.Error(t, err)

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, "nodes", batchErr.Stage)
	assert.Equal(t, 1, batchErr.Batch)
}

func TestLoadContainsEdges(t *testing.T) {
	mock := &MockDriver{ResultQueue: []neo4j.EagerResult{countResult("created", 2)}}

	l := testLoader(mock)
	edges := []model.ContainsEdge{
		{ParentGUID: "r", ChildGUID: "a"},
		{ParentGUID: "r", ChildGUID: "b"},
	}
	total, err := l.LoadContainsEdges(context.Background(), edges)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	batch := mock.Queries[0].Params["batch"].([]map[string]interface{})
	require.Len(t, batch, 2)
	assert.Equal(t, "r", batch[0]["parent_guid"])
	assert.Equal(t, "a", batch[0]["child_guid"])
}

func TestLoadEdgesFiltersMissingEndpoints(t *testing.T) {
	// The store only knows A and B, so the edge referencing X is skipped
	// and the other one is created.
	mock := &MockDriver{
		Handler: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
			if strings.Contains(query, "collect(n.GUID)") {
				return guidsResult("A", "B"), nil
			}
			batch := params["batch"].([]map[string]interface{})
			return countResult("created", int64(len(batch))), nil
		},
	}

	l := testLoader(mock)
	edges := []model.Edge{
		{GUID: "e1", Type: "calls", Source: "A", Target: "X"},
		{GUID: "e2", Type: "calls", Source: "A", Target: "B"},
	}
	stats, err := l.LoadEdges(context.Background(), edges)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	assert.Equal(t, "CALLS", stats[0].Type)
	assert.Equal(t, int64(2), stats[0].Total)
	assert.Equal(t, int64(1), stats[0].Skipped)
	assert.Equal(t, int64(1), stats[0].Created)
	assert.Equal(t, stats[0].Total, stats[0].Skipped+stats[0].Created)

	last := mock.Queries[len(mock.Queries)-1]
	batch := last.Params["batch"].([]map[string]interface{})
	require.Len(t, batch, 1)
	assert.Equal(t, "e2", batch[0]["guid"])
}

func TestLoadEdgesTypeNormalizationAndGrouping(t *testing.T) {
	mock := &MockDriver{
		Handler: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
			if strings.Contains(query, "collect(n.GUID)") {
				return guidsResult("A", "B"), nil
			}
			batch := params["batch"].([]map[string]interface{})
			return countResult("created", int64(len(batch))), nil
		},
	}

	l := testLoader(mock)
	edges := []model.Edge{
		{GUID: "e1", Type: "depends on", Source: "A", Target: "B"},
		{GUID: "e2", Type: "imports", Source: "B", Target: "A"},
	}
	stats, err := l.LoadEdges(context.Background(), edges)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Types come back in sorted token order.
	assert.Equal(t, "DEPENDS_ON", stats[0].Type)
	assert.Equal(t, int64(1), stats[0].Created)
	assert.Equal(t, "IMPORTS", stats[1].Type)
	assert.Equal(t, int64(1), stats[1].Created)
}

func TestLoadEdgesInvalidTypeToken(t *testing.T) {
	mock := &MockDriver{}
	l := testLoader(mock)

	edges := []model.Edge{{GUID: "e1", Type: "weird-type!", Source: "A", Target: "B"}}
	stats, err := l.LoadEdges(context.Background(), edges)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].Skipped)
	assert.Equal(t, int64(0), stats[0].Created)
	// Nothing reached the store.
	assert.Empty(t, mock.Queries)
}

func TestLoadEdgesSubBatching(t *testing.T) {
	var createBatches []int
	mock := &MockDriver{
		Handler: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
			if strings.Contains(query, "collect(n.GUID)") {
				return guidsResult(params["guids"].([]string)...), nil
			}
			batch := params["batch"].([]map[string]interface{})
			createBatches = append(createBatches, len(batch))
			return countResult("created", int64(len(batch))), nil
		},
	}

	l := testLoader(mock)
	edges := make([]model.Edge, 0, 1200)
	for i := 0; i < 1200; i++ {
		edges = append(edges, model.Edge{
			GUID:   fmt.Sprintf("e%d", i),
			Type:   "imports",
			Source: "A",
			Target: "B",
		})
	}
	stats, err := l.LoadEdges(context.Background(), edges)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, []int{500, 500, 200}, createBatches)
	assert.Equal(t, int64(1200), stats[0].Created)
}

func TestLoadEdgesGeneratesMissingGUIDs(t *testing.T) {
	mock := &MockDriver{
		Handler: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
			if strings.Contains(query, "collect(n.GUID)") {
				return guidsResult("A", "B"), nil
			}
			batch := params["batch"].([]map[string]interface{})
			return countResult("created", int64(len(batch))), nil
		},
	}

	l := testLoader(mock)
	edges := []model.Edge{{Type: "imports", Source: "A", Target: "B"}}
	_, err := l.LoadEdges(context.Background(), edges)
	require.NoError(t, err)

	last := mock.Queries[len(mock.Queries)-1]
	batch := last.Params["batch"].([]map[string]interface{})
	assert.Equal(t, "uuid-1", batch[0]["guid"])
}

func TestRunPipeline(t *testing.T) {
	// Tree {R, [A, B]} plus one "calls" edge A -> X where X was never
	// loaded: 3 nodes, 2 containment edges, 0 created CALLS, 1 skipped.
	mock := &MockDriver{
		Handler: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
			switch {
			case params == nil:
				return countResult("count", 0), nil
			case strings.Contains(query, "collect(n.GUID)"):
				return guidsResult("A"), nil
			default:
				batch := params["batch"].([]map[string]interface{})
				return countResult("created", int64(len(batch))), nil
			}
		},
	}

	l := testLoader(mock)
	input := &model.LoadInput{
		Nodes: &model.TreeNode{GUID: "R", Name: "root", Children: []*model.TreeNode{
			{GUID: "A", Name: "a"},
			{GUID: "B", Name: "b"},
		}},
		Edges: []model.Edge{{GUID: "e1", Type: "calls", Source: "A", Target: "X"}},
	}

	summary, err := l.Run(context.Background(), input, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.NodesCreated)
	assert.Equal(t, int64(2), summary.ContainsCreated)
	require.Len(t, summary.EdgeTypes, 1)
	assert.Equal(t, "CALLS", summary.EdgeTypes[0].Type)
	assert.Equal(t, int64(0), summary.EdgeTypes[0].Created)
	assert.Equal(t, int64(1), summary.EdgeTypes[0].Skipped)
	assert.False(t, summary.Degraded)
	assert.Equal(t, int64(0), summary.EdgesCreated())
	assert.Equal(t, int64(1), summary.EdgesSkipped())
}

func TestRunRefusesNonEmptyStore(t *testing.T) {
	mock := &MockDriver{ResultQueue: []neo4j.EagerResult{countResult("count", 7)}}

	l := testLoader(mock)
	input := &model.LoadInput{Nodes: &model.TreeNode{GUID: "R", Name: "root"}}
	_, err := l.Run(context.Background(), input, RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreNotEmpty)
	// Only the guard query ran.
	require.Len(t, mock.Queries, 1)
	assert.Equal(t, gdriver.CountNodesQuery, mock.Queries[0].Query)
}

func TestRunClearBeforeLoad(t *testing.T) {
	mock := &MockDriver{
		Handler: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
			if params == nil {
				return neo4j.EagerResult{}, nil
			}
			batch := params["batch"].([]map[string]interface{})
			return countResult("created", int64(len(batch))), nil
		},
	}

	l := testLoader(mock)
	input := &model.LoadInput{
		Nodes: &model.TreeNode{GUID: "R", Name: "root", Children: []*model.TreeNode{{GUID: "A", Name: "a"}}},
	}

	summary, err := l.Run(context.Background(), input, RunOptions{Clear: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.NodesCreated)

	// Clearing replaces the emptiness guard and runs first.
	require.NotEmpty(t, mock.Queries)
	assert.Contains(t, mock.Queries[0].Query, "DETACH DELETE")
	for _, q := range mock.Queries {
		assert.NotEqual(t, gdriver.CountNodesQuery, q.Query)
	}
}

func TestRunPropagatesFlattenError(t *testing.T) {
	mock := &MockDriver{}
	l := testLoader(mock)
	input := &model.LoadInput{Nodes: &model.TreeNode{GUID: "R", Children: []*model.TreeNode{{Name: "no-guid"}}}}

	_, err := l.Run(context.Background(), input, RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingGUID)
	assert.Empty(t, mock.Queries)
}
