package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/gantrylabs/gantry/internal/config"
	"github.com/gantrylabs/gantry/internal/core"
	"github.com/gantrylabs/gantry/internal/driver"
)

// Server exposes the read side of the store over HTTP: liveness,
// verification stats, and ad-hoc Cypher with JSON-safe values.
type Server struct {
	Driver driver.GraphDriver
	Config *config.Config
}

func NewServer(d driver.GraphDriver, cfg *config.Config) *Server {
	return &Server{
		Driver: d,
		Config: cfg,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.Health)
	r.GET("/stats", s.Stats)
	r.POST("/query", s.Query)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "gantry",
		"uri":     s.Config.Graph.URI,
	})
}

func (s *Server) Stats(c *gin.Context) {
	v := core.NewVerifier(s.Driver)
	stats, err := v.Verify(c.Request.Context(), s.Config.Verify.Expected())
	if err != nil {
		logrus.WithError(err).Error("stats verification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

type QueryRequest struct {
	Query  string                 `json:"query"`
	Params map[string]interface{} `json:"params"`
}

func (s *Server) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query must not be empty"})
		return
	}

	result, err := s.Driver.ExecuteQuery(c.Request.Context(), req.Query, req.Params)
	if err != nil {
		logrus.WithError(err).Error("query execution failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	columns := result.Keys
	if len(columns) == 0 && len(result.Records) > 0 {
		columns = result.Records[0].Keys
	}
	if columns == nil {
		columns = []string{}
	}

	data := make([][]interface{}, 0, len(result.Records))
	for _, record := range result.Records {
		row := make([]interface{}, len(record.Values))
		for i, value := range record.Values {
			row[i] = core.NormalizeValue(value)
		}
		data = append(data, row)
	}

	var availableAfter int64
	if result.Summary != nil {
		availableAfter = result.Summary.ResultAvailableAfter().Milliseconds()
	}

	c.JSON(http.StatusOK, gin.H{
		"columns": columns,
		"data":    data,
		"summary": gin.H{
			"records":            len(result.Records),
			"available_after_ms": availableAfter,
		},
	})
}

// Run starts the server on the configured port.
func (s *Server) Run() error {
	r := s.SetupRouter()
	addr := fmt.Sprintf(":%d", s.Config.Server.Port)
	logrus.WithField("addr", addr).Info("starting query facade")
	return r.Run(addr)
}
