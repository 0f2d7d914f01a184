package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/gantrylabs/gantry/internal/core/model"
	"github.com/gantrylabs/gantry/internal/driver"
)

// Verifier re-counts the store after a load and compares against expected
// reference values.
type Verifier struct {
	Driver driver.GraphDriver
}

func NewVerifier(d driver.GraphDriver) *Verifier {
	return &Verifier{Driver: d}
}

// Verify issues independent count queries for nodes, containment edges,
// each expected edge type, and the direct children of the designated root
// node. The load is complete iff nodes, containment and root children
// match expectations exactly. Per-type counts tolerate types the store has
// never seen (counted as zero with a warning), and shortfalls only warn,
// because edge validation legitimately skips edges.
func (v *Verifier) Verify(ctx context.Context, expected model.ExpectedCounts) (*model.VerificationStats, error) {
	log := logrus.WithField("component", "Verifier")

	stats := &model.VerificationStats{EdgeTypes: map[string]int64{}}

	var err error
	if stats.Nodes, err = v.count(ctx, driver.CountNodesQuery, nil); err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}
	if stats.Contains, err = v.count(ctx, driver.CountContainsQuery, nil); err != nil {
		return nil, fmt.Errorf("failed to count containment edges: %w", err)
	}

	types := make([]string, 0, len(expected.EdgeTypes))
	for relType := range expected.EdgeTypes {
		types = append(types, relType)
	}
	sort.Strings(types)

	for _, relType := range types {
		token := driver.NormalizeRelType(relType)
		if !driver.ValidRelType(token) {
			log.WithField("type", relType).Warn("relationship type failed token allow-list, counted as zero")
			stats.EdgeTypes[relType] = 0
			continue
		}

		count, err := v.count(ctx, driver.CountEdgesByTypeQuery(token), nil)
		if err != nil {
			// Some stores reject counting a relationship type they have
			// never stored.
			log.WithError(err).WithField("type", relType).Warn("edge type count failed, counted as zero")
			count = 0
		}
		stats.EdgeTypes[relType] = count

		if want := expected.EdgeTypes[relType]; count < want {
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("%s: %d of %d expected", relType, count, want))
		}
	}

	if expected.RootName != "" {
		params := map[string]interface{}{"name": expected.RootName}
		if stats.RootChildren, err = v.count(ctx, driver.CountRootChildrenQuery, params); err != nil {
			return nil, fmt.Errorf("failed to count root children: %w", err)
		}
	}

	stats.Complete = stats.Nodes == expected.Nodes &&
		stats.Contains == expected.Contains &&
		stats.RootChildren == expected.RootChildren

	log.WithFields(logrus.Fields{
		"nodes":         stats.Nodes,
		"contains":      stats.Contains,
		"root_children": stats.RootChildren,
		"complete":      stats.Complete,
	}).Info("verification finished")

	return stats, nil
}

func (v *Verifier) count(ctx context.Context, query string, params map[string]interface{}) (int64, error) {
	result, err := v.Driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return 0, err
	}
	return countFromResult(result, "count"), nil
}
