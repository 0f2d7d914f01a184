package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"github.com/gantrylabs/gantry/internal/core/model"
	"github.com/gantrylabs/gantry/internal/driver"
)

const (
	DefaultNodeBatchSize = 1000
	DefaultEdgeBatchSize = 500

	// DefaultSource marks loaded nodes with the toolchain that produced
	// the input.
	DefaultSource = "codebase-analyzer"
)

// Loader runs the bulk load path: unconditional node creation in batches,
// merge-keyed containment edges, and endpoint-validated typed edges. It
// assumes a cleared store; Run enforces that unless clearing is requested.
type Loader struct {
	Driver        driver.GraphDriver
	NodeBatchSize int
	EdgeBatchSize int
	Source        string

	// UUIDGenerator fills in edge GUIDs missing from the input.
	UUIDGenerator func() string
	// Now stamps import_date on loaded nodes, once per run.
	Now func() time.Time
}

func NewLoader(d driver.GraphDriver) *Loader {
	return &Loader{
		Driver:        d,
		NodeBatchSize: DefaultNodeBatchSize,
		EdgeBatchSize: DefaultEdgeBatchSize,
		Source:        DefaultSource,
		UUIDGenerator: uuid.NewString,
		Now:           time.Now,
	}
}

// RunOptions controls one bulk load run.
type RunOptions struct {
	// Clear detach-deletes previously loaded nodes before loading.
	Clear bool
}

// Run executes the full pipeline: flatten, guard or clear, nodes,
// containment edges, typed edges. All node batches complete before the
// first edge batch is submitted, because edge validation reads node
// existence. The returned summary is populated for the stages that ran
// even when a later stage fails.
func (l *Loader) Run(ctx context.Context, input *model.LoadInput, opts RunOptions) (*model.LoadSummary, error) {
	nodes, contains, err := FlattenTree(input.Nodes)
	if err != nil {
		return nil, err
	}

	if opts.Clear {
		if err := l.Clear(ctx); err != nil {
			return nil, err
		}
	} else if err := l.requireEmpty(ctx); err != nil {
		return nil, err
	}

	summary := &model.LoadSummary{}

	summary.NodesCreated, summary.Degraded, err = l.LoadNodes(ctx, nodes)
	if err != nil {
		return summary, err
	}

	summary.ContainsCreated, err = l.LoadContainsEdges(ctx, contains)
	if err != nil {
		return summary, err
	}

	summary.EdgeTypes, err = l.LoadEdges(ctx, input.Edges)
	if err != nil {
		return summary, err
	}

	return summary, nil
}

// LoadNodes creates nodes in chunks of NodeBatchSize, one UNWIND request
// per chunk, then ensures the lookup indices. The store-reported creation
// count of each chunk must equal the chunk length; a mismatch marks the
// run degraded but does not stop it.
func (l *Loader) LoadNodes(ctx context.Context, nodes []model.FlatNode) (int64, bool, error) {
	log := logrus.WithField("component", "Loader")

	importDate := l.Now().UTC().Format(time.RFC3339)

	var total int64
	degraded := false

	for start := 0; start < len(nodes); start += l.NodeBatchSize {
		end := start + l.NodeBatchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		chunk := nodes[start:end]
		batchNum := start/l.NodeBatchSize + 1

		batch := make([]map[string]interface{}, 0, len(chunk))
		for _, n := range chunk {
			batch = append(batch, map[string]interface{}{
				"GUID":        n.GUID,
				"name":        n.Name,
				"type":        n.Type,
				"description": n.Description,
				"path":        n.Path,
				"source":      l.Source,
				"import_date": importDate,
			})
		}

		result, err := l.Driver.ExecuteQuery(ctx, driver.CreateNodesBatchQuery, map[string]interface{}{"batch": batch})
		if err != nil {
			return total, degraded, &BatchError{Stage: "nodes", Batch: batchNum, Err: err}
		}

		created := countFromResult(result, "created")
		if created != int64(len(chunk)) {
			log.WithFields(logrus.Fields{
				"batch":    batchNum,
				"expected": len(chunk),
				"created":  created,
			}).Warn("node batch count mismatch")
			degraded = true
		}
		total += created

		log.WithFields(logrus.Fields{
			"batch":  batchNum,
			"loaded": total,
			"of":     len(nodes),
		}).Info("loaded node batch")
	}

	if err := l.Driver.BuildIndices(ctx); err != nil {
		return total, degraded, err
	}

	return total, degraded, nil
}

// LoadContainsEdges merges containment edges in chunks of NodeBatchSize.
// The MERGE is keyed on the (parent, child) GUID pair, so resuming after a
// partial failure does not duplicate containment.
func (l *Loader) LoadContainsEdges(ctx context.Context, edges []model.ContainsEdge) (int64, error) {
	log := logrus.WithField("component", "Loader")

	var total int64

	for start := 0; start < len(edges); start += l.NodeBatchSize {
		end := start + l.NodeBatchSize
		if end > len(edges) {
			end = len(edges)
		}
		chunk := edges[start:end]
		batchNum := start/l.NodeBatchSize + 1

		batch := make([]map[string]interface{}, 0, len(chunk))
		for _, e := range chunk {
			batch = append(batch, map[string]interface{}{
				"parent_guid": e.ParentGUID,
				"child_guid":  e.ChildGUID,
			})
		}

		result, err := l.Driver.ExecuteQuery(ctx, driver.MergeContainsBatchQuery, map[string]interface{}{"batch": batch})
		if err != nil {
			return total, &BatchError{Stage: "contains", Batch: batchNum, Err: err}
		}
		total += countFromResult(result, "created")

		log.WithFields(logrus.Fields{
			"batch":  batchNum,
			"loaded": total,
			"of":     len(edges),
		}).Info("loaded containment batch")
	}

	return total, nil
}

// LoadEdges groups edges by normalized type, queries once per type for
// which endpoints exist, drops edges with an absent endpoint, and creates
// the rest in sub-batches of EdgeBatchSize. Types are processed in sorted
// order. Per type, skipped + created always equals total.
func (l *Loader) LoadEdges(ctx context.Context, edges []model.Edge) ([]model.EdgeTypeStats, error) {
	log := logrus.WithField("component", "Loader")

	grouped := make(map[string][]model.Edge)
	for _, e := range edges {
		relType := driver.NormalizeRelType(e.Type)
		grouped[relType] = append(grouped[relType], e)
	}

	types := make([]string, 0, len(grouped))
	for relType := range grouped {
		types = append(types, relType)
	}
	sort.Strings(types)

	stats := make([]model.EdgeTypeStats, 0, len(types))
	for _, relType := range types {
		typeEdges := grouped[relType]
		ts := model.EdgeTypeStats{Type: relType, Total: int64(len(typeEdges))}

		if !driver.ValidRelType(relType) {
			log.WithFields(logrus.Fields{
				"type":  relType,
				"edges": len(typeEdges),
			}).Warn("relationship type failed token allow-list, skipping")
			ts.Skipped = ts.Total
			stats = append(stats, ts)
			continue
		}

		existing, err := l.existingGUIDs(ctx, typeEdges)
		if err != nil {
			stats = append(stats, ts)
			return stats, err
		}

		valid := make([]model.Edge, 0, len(typeEdges))
		for _, e := range typeEdges {
			if existing[e.Source] && existing[e.Target] {
				valid = append(valid, e)
			} else {
				ts.Skipped++
			}
		}

		query := driver.CreateEdgesBatchQuery(relType)
		for start := 0; start < len(valid); start += l.EdgeBatchSize {
			end := start + l.EdgeBatchSize
			if end > len(valid) {
				end = len(valid)
			}
			chunk := valid[start:end]

			batch := make([]map[string]interface{}, 0, len(chunk))
			for _, e := range chunk {
				guid := e.GUID
				if guid == "" {
					guid = l.UUIDGenerator()
				}
				batch = append(batch, map[string]interface{}{
					"guid":   guid,
					"name":   e.Name,
					"source": e.Source,
					"target": e.Target,
				})
			}

			result, err := l.Driver.ExecuteQuery(ctx, query, map[string]interface{}{"batch": batch})
			if err != nil {
				stats = append(stats, ts)
				return stats, &BatchError{Stage: "edges:" + relType, Batch: start/l.EdgeBatchSize + 1, Err: err}
			}
			ts.Created += countFromResult(result, "created")
		}

		log.WithFields(logrus.Fields{
			"type":    relType,
			"total":   ts.Total,
			"skipped": ts.Skipped,
			"created": ts.Created,
		}).Info("loaded edge type")

		stats = append(stats, ts)
	}

	return stats, nil
}

// Clear detach-deletes every loaded node, taking containment and typed
// edges with it.
func (l *Loader) Clear(ctx context.Context) error {
	logrus.WithField("component", "Loader").Info("clearing previously loaded nodes")
	if _, err := l.Driver.ExecuteQuery(ctx, driver.ClearNodesQuery, nil); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

// requireEmpty guards the unconditional CREATE path.
func (l *Loader) requireEmpty(ctx context.Context) error {
	result, err := l.Driver.ExecuteQuery(ctx, driver.CountNodesQuery, nil)
	if err != nil {
		return fmt.Errorf("failed to count existing nodes: %w", err)
	}
	if n := countFromResult(result, "count"); n > 0 {
		return fmt.Errorf("%d %s nodes present: %w", n, driver.NodeLabel, ErrStoreNotEmpty)
	}
	return nil
}

// existingGUIDs asks the store which of the endpoint GUIDs referenced by
// edges are actually present.
func (l *Loader) existingGUIDs(ctx context.Context, edges []model.Edge) (map[string]bool, error) {
	seen := make(map[string]bool)
	guids := make([]string, 0, len(edges)*2)
	for _, e := range edges {
		for _, guid := range [2]string{e.Source, e.Target} {
			if guid != "" && !seen[guid] {
				seen[guid] = true
				guids = append(guids, guid)
			}
		}
	}

	result, err := l.Driver.ExecuteQuery(ctx, driver.ExistingGUIDsQuery, map[string]interface{}{"guids": guids})
	if err != nil {
		return nil, fmt.Errorf("failed to check edge endpoints: %w", err)
	}

	existing := make(map[string]bool, len(guids))
	if len(result.Records) > 0 {
		if value, ok := result.Records[0].Get("existing"); ok {
			if list, ok := value.([]interface{}); ok {
				for _, item := range list {
					if guid, ok := item.(string); ok {
						existing[guid] = true
					}
				}
			}
		}
	}
	return existing, nil
}

// countFromResult pulls a single int64 column from an eager result,
// treating anything malformed as zero.
func countFromResult(result neo4j.EagerResult, key string) int64 {
	if len(result.Records) == 0 {
		return 0
	}
	value, ok := result.Records[0].Get(key)
	if !ok {
		return 0
	}
	count, ok := value.(int64)
	if !ok {
		return 0
	}
	return count
}
