package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/gantrylabs/gantry/internal/core/model"
	"github.com/gantrylabs/gantry/internal/driver"
)

// DefaultRelType is the relationship type used when an import edge does not
// declare one.
const DefaultRelType = "RELATED_TO"

// Importer merges an export-style payload into the store keyed on GUID.
// Merging never deletes, and re-running the same payload changes nothing.
type Importer struct {
	Driver driver.GraphDriver
}

func NewImporter(d driver.GraphDriver) *Importer {
	return &Importer{Driver: d}
}

// ValidatePayload checks payload integrity without touching the store:
// every node and edge needs a GUID, every edge both endpoint GUIDs, and
// every label and relationship type must pass the token allow-list. Import
// runs it before the first write so a bad payload aborts cleanly.
func (im *Importer) ValidatePayload(payload *model.ImportPayload) error {
	for i, node := range payload.Nodes {
		if node.GUID == "" {
			return fmt.Errorf("import node %d: %w", i, ErrMissingGUID)
		}
		for _, label := range node.Labels {
			if label != "" && !driver.ValidLabel(label) {
				return fmt.Errorf("import node %s: label %q failed token allow-list", node.GUID, label)
			}
		}
	}

	for i, edge := range payload.Edges {
		if edge.GUID == "" {
			return fmt.Errorf("import edge %d: %w", i, ErrMissingGUID)
		}
		if edge.FromGUID == "" || edge.ToGUID == "" {
			return &MissingEndpointError{EdgeGUID: edge.GUID}
		}
		token := driver.NormalizeRelType(relTypeOrDefault(edge.Type))
		if !driver.ValidRelType(token) {
			return fmt.Errorf("import edge %s: relationship type %q failed token allow-list", edge.GUID, edge.Type)
		}
	}

	return nil
}

// ImportAll validates the payload, makes a best-effort attempt at the
// uniqueness constraint, then merges every node and every edge. An edge
// whose endpoints are missing from the store merges nothing and is counted
// as unmatched, not failed.
func (im *Importer) ImportAll(ctx context.Context, payload *model.ImportPayload) (*model.ImportStats, error) {
	if err := im.ValidatePayload(payload); err != nil {
		return nil, err
	}

	stats := &model.ImportStats{}
	stats.ConstraintEnsured = im.ensureConstraint(ctx)

	for _, node := range payload.Nodes {
		if err := im.mergeNode(ctx, node); err != nil {
			return stats, err
		}
		stats.Nodes++
	}

	for _, edge := range payload.Edges {
		merged, err := im.mergeEdge(ctx, edge)
		if err != nil {
			return stats, err
		}
		if merged {
			stats.Edges++
		} else {
			stats.EdgesUnmatched++
		}
	}

	logrus.WithFields(logrus.Fields{
		"component": "Importer",
		"nodes":     stats.Nodes,
		"edges":     stats.Edges,
		"unmatched": stats.EdgesUnmatched,
	}).Info("import complete")

	return stats, nil
}

// ensureConstraint probes whether the store supports constraint DDL and,
// when it does, ensures the uniqueness constraint on imported GUIDs. The
// merge logic does not depend on the constraint for correctness, so either
// failure is a logged warning and the import proceeds.
func (im *Importer) ensureConstraint(ctx context.Context) bool {
	log := logrus.WithField("component", "Importer")

	if _, err := im.Driver.ExecuteQuery(ctx, driver.ShowConstraintsQuery, nil); err != nil {
		log.WithError(err).Warn("store does not support constraint listing, skipping uniqueness constraint")
		return false
	}

	if _, err := im.Driver.ExecuteQuery(ctx, driver.CreateImportedConstraintQuery, nil); err != nil {
		log.WithError(err).Warn("failed to create uniqueness constraint, continuing without it")
		return false
	}

	return true
}

func (im *Importer) mergeNode(ctx context.Context, node model.ImportNode) error {
	labelSet := map[string]bool{driver.ImportedLabel: true}
	for _, label := range node.Labels {
		if label != "" {
			labelSet[label] = true
		}
	}
	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	props, err := model.CoerceProperties(node.Properties)
	if err != nil {
		return fmt.Errorf("import node %s: %w", node.GUID, err)
	}
	props["GUID"] = node.GUID
	if node.LegacyID != nil {
		if _, ok := props["legacyNeo4jId"]; !ok {
			legacy, err := model.CoerceProperty(node.LegacyID)
			if err != nil {
				return fmt.Errorf("import node %s: legacy id: %w", node.GUID, err)
			}
			props["legacyNeo4jId"] = legacy
		}
	}

	params := map[string]interface{}{
		"guid":  node.GUID,
		"props": props,
	}
	if _, err := im.Driver.ExecuteQuery(ctx, driver.MergeImportNodeQuery(labels), params); err != nil {
		return fmt.Errorf("failed to merge node %s: %w", node.GUID, err)
	}
	return nil
}

func (im *Importer) mergeEdge(ctx context.Context, edge model.ImportEdge) (bool, error) {
	relType := driver.NormalizeRelType(relTypeOrDefault(edge.Type))

	props, err := model.CoerceProperties(edge.Properties)
	if err != nil {
		return false, fmt.Errorf("import edge %s: %w", edge.GUID, err)
	}
	props["GUID"] = edge.GUID
	if _, ok := props["fromGUID"]; !ok {
		props["fromGUID"] = edge.FromGUID
	}
	if _, ok := props["toGUID"]; !ok {
		props["toGUID"] = edge.ToGUID
	}
	if edge.LegacyID != nil {
		if _, ok := props["legacyNeo4jId"]; !ok {
			legacy, err := model.CoerceProperty(edge.LegacyID)
			if err != nil {
				return false, fmt.Errorf("import edge %s: legacy id: %w", edge.GUID, err)
			}
			props["legacyNeo4jId"] = legacy
		}
	}

	params := map[string]interface{}{
		"guid":      edge.GUID,
		"from_guid": edge.FromGUID,
		"to_guid":   edge.ToGUID,
		"props":     props,
	}

	result, err := im.Driver.ExecuteQuery(ctx, driver.MergeImportEdgeQuery(relType), params)
	if err != nil {
		return false, fmt.Errorf("failed to merge edge %s: %w", edge.GUID, err)
	}

	merged := countFromResult(result, "merged") > 0
	if !merged {
		logrus.WithFields(logrus.Fields{
			"component": "Importer",
			"edge":      edge.GUID,
		}).Warn("edge endpoints not found in store, nothing merged")
	}
	return merged, nil
}

func relTypeOrDefault(relType string) string {
	if relType == "" {
		return DefaultRelType
	}
	return relType
}
