package core

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type ExecutedQuery struct {
	Query  string
	Params map[string]interface{}
}

// MockDriver records every executed query and answers from a scripted
// result queue, or from Handler when set.
type MockDriver struct {
	Queries      []ExecutedQuery
	ResultQueue  []neo4j.EagerResult
	Handler      func(query string, params map[string]interface{}) (neo4j.EagerResult, error)
	Err          error
	IndicesBuilt bool
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Queries = append(m.Queries, ExecutedQuery{Query: query, Params: params})
	if m.Handler != nil {
		return m.Handler(query, params)
	}
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	if len(m.ResultQueue) > 0 {
		result := m.ResultQueue[0]
		m.ResultQueue = m.ResultQueue[1:]
		return result, nil
	}
	return neo4j.EagerResult{Records: []*neo4j.Record{}}, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	m.IndicesBuilt = true
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

// countResult builds the single-integer-column shape count queries return.
func countResult(key string, count int64) neo4j.EagerResult {
	return neo4j.EagerResult{
		Records: []*neo4j.Record{
			{Keys: []string{key}, Values: []interface{}{count}},
		},
	}
}

// guidsResult builds the result shape of the endpoint existence query.
func guidsResult(guids ...string) neo4j.EagerResult {
	list := make([]interface{}, len(guids))
	for i, guid := range guids {
		list[i] = guid
	}
	return neo4j.EagerResult{
		Records: []*neo4j.Record{
			{Keys: []string{"existing"}, Values: []interface{}{list}},
		},
	}
}
