package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantrylabs/gantry/internal/config"
)

type stubDriver struct {
	result  neo4j.EagerResult
	err     error
	queries []string
}

func (s *stubDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return neo4j.EagerResult{}, s.err
	}
	return s.result, nil
}

func (s *stubDriver) BuildIndices(ctx context.Context) error { return nil }
func (s *stubDriver) Close(ctx context.Context) error        { return nil }

func testRouter(d *stubDriver, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if cfg == nil {
		cfg = config.Default()
	}
	return NewServer(d, cfg).SetupRouter()
}

func TestHealth(t *testing.T) {
	r := testRouter(&stubDriver{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "gantry", body["service"])
	assert.Equal(t, "bolt://localhost:7687", body["uri"])
}

func TestQueryNormalizesValues(t *testing.T) {
	stub := &stubDriver{
		result: neo4j.EagerResult{
			Keys: []string{"name", "since"},
			Records: []*neo4j.Record{{
				Keys:   []string{"name", "since"},
				Values: []interface{}{"api", time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)},
			}},
		},
	}
	r := testRouter(stub, nil)

	body := bytes.NewBufferString(`{"query": "MATCH (n) RETURN n.name AS name, n.since AS since"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Columns []string        `json:"columns"`
		Data    [][]interface{} `json:"data"`
		Summary struct {
			Records int `json:"records"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"name", "since"}, resp.Columns)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "api", resp.Data[0][0])
	// Temporal values arrive as ISO-8601 strings, not JSON objects.
	assert.Equal(t, "2025-05-01T08:30:00Z", resp.Data[0][1])
	assert.Equal(t, 1, resp.Summary.Records)
}

func TestQueryRejectsEmpty(t *testing.T) {
	stub := &stubDriver{}
	r := testRouter(stub, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(`{"query": "   "}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, stub.queries)
}

func TestQueryStoreError(t *testing.T) {
	stub := &stubDriver{err: fmt.Errorf("syntax error")}
	r := testRouter(stub, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewBufferString(`{"query": "MATCH"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "syntax error")
}

func TestStats(t *testing.T) {
	// Every count query answers 5, so expectations of 5/5 verify complete.
	stub := &stubDriver{
		result: neo4j.EagerResult{
			Records: []*neo4j.Record{{Keys: []string{"count"}, Values: []interface{}{int64(5)}}},
		},
	}
	cfg := config.Default()
	cfg.Verify.ExpectedNodes = 5
	cfg.Verify.ExpectedContains = 5
	r := testRouter(stub, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		Nodes    int64 `json:"nodes"`
		Contains int64 `json:"contains"`
		Complete bool  `json:"complete"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(5), stats.Nodes)
	assert.Equal(t, int64(5), stats.Contains)
	assert.True(t, stats.Complete)
}
