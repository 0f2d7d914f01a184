package core

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/sirupsen/logrus"

	"github.com/gantrylabs/gantry/internal/core/model"
	"github.com/gantrylabs/gantry/internal/driver"
)

// DefaultExcludeLabel is the label the export leaves out unless told
// otherwise.
const DefaultExcludeLabel = "CodeElement"

// Exporter reads back every node and edge not carrying an excluded label
// and serializes them with store-native values normalized to JSON-safe
// shapes. Excluding a label excludes both the nodes and any edge touching
// them, so the output never dangles.
type Exporter struct {
	Driver    driver.GraphDriver
	SourceURI string

	// Now stamps the export metadata timestamp.
	Now func() time.Time
}

func NewExporter(d driver.GraphDriver, sourceURI string) *Exporter {
	return &Exporter{
		Driver:    d,
		SourceURI: sourceURI,
		Now:       time.Now,
	}
}

// ExportAll reads the non-excluded graph and wraps it with export metadata.
func (e *Exporter) ExportAll(ctx context.Context, excludeLabels []string) (*model.ExportPayload, error) {
	for _, label := range excludeLabels {
		if !driver.ValidLabel(label) {
			return nil, fmt.Errorf("excluded label %q failed token allow-list", label)
		}
	}

	nodes, err := e.exportNodes(ctx, excludeLabels)
	if err != nil {
		return nil, err
	}

	edges, err := e.exportEdges(ctx, excludeLabels)
	if err != nil {
		return nil, err
	}

	payload := &model.ExportPayload{
		Metadata: model.ExportMetadata{
			Timestamp:      e.Now().UTC().Format(time.RFC3339),
			SourceURI:      e.SourceURI,
			ExcludedLabels: excludeLabels,
			NodeCount:      len(nodes),
			EdgeCount:      len(edges),
		},
		Nodes: nodes,
		Edges: edges,
	}

	logrus.WithFields(logrus.Fields{
		"component": "Exporter",
		"nodes":     len(nodes),
		"edges":     len(edges),
		"excluded":  excludeLabels,
	}).Info("export complete")

	return payload, nil
}

func (e *Exporter) exportNodes(ctx context.Context, excludeLabels []string) ([]model.ExportNode, error) {
	result, err := e.Driver.ExecuteQuery(ctx, driver.ExportNodesQuery(excludeLabels), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to export nodes: %w", err)
	}

	nodes := make([]model.ExportNode, 0, len(result.Records))
	for _, record := range result.Records {
		id, _ := record.Get("id")
		rawLabels, _ := record.Get("labels")
		rawNode, _ := record.Get("n")

		props := map[string]interface{}{}
		if n, ok := rawNode.(dbtype.Node); ok {
			props = NormalizeProperties(n.Props)
		}

		nodes = append(nodes, model.ExportNode{
			ID:         NormalizeValue(id),
			Labels:     toStringSlice(rawLabels),
			Properties: props,
		})
	}
	return nodes, nil
}

func (e *Exporter) exportEdges(ctx context.Context, excludeLabels []string) ([]model.ExportEdge, error) {
	result, err := e.Driver.ExecuteQuery(ctx, driver.ExportEdgesQuery(excludeLabels), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to export edges: %w", err)
	}

	edges := make([]model.ExportEdge, 0, len(result.Records))
	for _, record := range result.Records {
		id, _ := record.Get("id")
		relType, _ := record.Get("type")
		sourceID, _ := record.Get("source_id")
		targetID, _ := record.Get("target_id")
		rawProps, _ := record.Get("props")

		props := map[string]interface{}{}
		if m, ok := rawProps.(map[string]interface{}); ok {
			props = NormalizeProperties(m)
		}

		typeName, _ := relType.(string)
		edges = append(edges, model.ExportEdge{
			ID:         NormalizeValue(id),
			Type:       typeName,
			SourceID:   NormalizeValue(sourceID),
			TargetID:   NormalizeValue(targetID),
			Properties: props,
		})
	}
	return edges, nil
}

// NormalizeValue converts store-native values into JSON-safe shapes at any
// nesting depth. Temporal values become ISO-8601 strings, graph entities
// become plain maps, sequences and maps are normalized element-wise.
func NormalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case dbtype.Date:
		return v.String()
	case dbtype.LocalTime:
		return v.String()
	case dbtype.Time:
		return v.String()
	case dbtype.LocalDateTime:
		return v.String()
	case dbtype.Duration:
		return v.String()
	case dbtype.Point2D:
		return v.String()
	case dbtype.Point3D:
		return v.String()
	case dbtype.Node:
		return map[string]interface{}{
			"id":         v.Id,
			"labels":     v.Labels,
			"properties": NormalizeProperties(v.Props),
		}
	case dbtype.Relationship:
		return map[string]interface{}{
			"id":         v.Id,
			"type":       v.Type,
			"start_id":   v.StartId,
			"end_id":     v.EndId,
			"properties": NormalizeProperties(v.Props),
		}
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = NormalizeValue(item)
		}
		return out
	case map[string]interface{}:
		return NormalizeProperties(v)
	default:
		return v
	}
}

// NormalizeProperties applies NormalizeValue to every value of props.
func NormalizeProperties(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = NormalizeValue(v)
	}
	return out
}

func toStringSlice(value interface{}) []string {
	list, ok := value.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
