package driver

import (
	"fmt"
	"regexp"
	"strings"
)

// NodeLabel is the single label carried by every bulk-loaded node.
const NodeLabel = "CodebaseNode"

// ImportedLabel is the marker label merged onto every imported node.
const ImportedLabel = "Imported"

const (
	CreateNodesBatchQuery = `
		UNWIND $batch AS node
		CREATE (n:CodebaseNode {
			GUID: node.GUID,
			name: node.name,
			type: node.type,
			description: node.description,
			path: node.path,
			source: node.source,
			import_date: node.import_date
		})
		RETURN count(n) AS created
	`

	MergeContainsBatchQuery = `
		UNWIND $batch AS rel
		MATCH (parent:CodebaseNode {GUID: rel.parent_guid})
		MATCH (child:CodebaseNode {GUID: rel.child_guid})
		MERGE (parent)-[r:CONTAINS {fromGUID: rel.parent_guid, toGUID: rel.child_guid}]->(child)
		RETURN count(r) AS created
	`

	ExistingGUIDsQuery = `
		UNWIND $guids AS guid
		MATCH (n:CodebaseNode {GUID: guid})
		RETURN collect(n.GUID) AS existing
	`

	ClearNodesQuery = `MATCH (n:CodebaseNode) DETACH DELETE n`

	CreateNodeGUIDIndexQuery = `CREATE INDEX IF NOT EXISTS FOR (n:CodebaseNode) ON (n.GUID)`
	CreateNodeNameIndexQuery = `CREATE INDEX IF NOT EXISTS FOR (n:CodebaseNode) ON (n.name)`

	CountNodesQuery    = `MATCH (n:CodebaseNode) RETURN count(n) AS count`
	CountContainsQuery = `MATCH (:CodebaseNode)-[r:CONTAINS]->(:CodebaseNode) RETURN count(r) AS count`

	CountRootChildrenQuery = `
		MATCH (root:CodebaseNode {name: $name})-[:CONTAINS]->(child)
		RETURN count(child) AS count
	`

	// ShowConstraintsQuery is the capability probe run before attempting
	// constraint DDL; stores without constraint support reject it.
	ShowConstraintsQuery = `SHOW CONSTRAINTS YIELD name RETURN count(name) AS count`

	CreateImportedConstraintQuery = `CREATE CONSTRAINT IF NOT EXISTS FOR (n:Imported) REQUIRE n.GUID IS UNIQUE`
)

var (
	relTypePattern = regexp.MustCompile(`^[A-Z0-9_]+$`)
	labelPattern   = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// NormalizeRelType converts a free-form edge type into the uppercase token
// used as the relationship type in the store.
func NormalizeRelType(relType string) string {
	return strings.ReplaceAll(strings.ToUpper(relType), " ", "_")
}

// ValidRelType reports whether a normalized type token is safe to
// interpolate into query text. Relationship types cannot be parameterized
// in Cypher, so everything outside the allow-list is refused.
func ValidRelType(relType string) bool {
	return relTypePattern.MatchString(relType)
}

// ValidLabel reports whether a node label is safe to interpolate into
// query text.
func ValidLabel(label string) bool {
	return labelPattern.MatchString(label)
}

// CreateEdgesBatchQuery builds the batched creation query for one
// relationship type. The token must already have passed ValidRelType.
func CreateEdgesBatchQuery(relType string) string {
	return fmt.Sprintf(`
		UNWIND $batch AS edge
		MATCH (source:CodebaseNode {GUID: edge.source})
		MATCH (target:CodebaseNode {GUID: edge.target})
		CREATE (source)-[r:%s {
			name: edge.name,
			edge_guid: edge.guid,
			fromGUID: edge.source,
			toGUID: edge.target
		}]->(target)
		RETURN count(r) AS created
	`, relType)
}

// CountEdgesByTypeQuery builds the per-type relationship count query used
// by verification.
func CountEdgesByTypeQuery(relType string) string {
	return fmt.Sprintf(`MATCH (:CodebaseNode)-[r:%s]->() RETURN count(r) AS count`, relType)
}

// ExportNodesQuery builds the node export query, excluding nodes that carry
// any of the given labels. Labels must already have passed ValidLabel.
func ExportNodesQuery(excludeLabels []string) string {
	q := "MATCH (n)"
	if clauses := notLabeled("n", excludeLabels); len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	return q + " RETURN n, labels(n) AS labels, id(n) AS id"
}

// ExportEdgesQuery builds the edge export query. An edge is excluded when
// either endpoint carries an excluded label, so the output never references
// a node the node query left out.
func ExportEdgesQuery(excludeLabels []string) string {
	q := "MATCH (source)-[r]->(target)"
	clauses := append(notLabeled("source", excludeLabels), notLabeled("target", excludeLabels)...)
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	return q + " RETURN id(r) AS id, type(r) AS type, id(source) AS source_id, id(target) AS target_id, properties(r) AS props"
}

// MergeImportNodeQuery builds the merge for one imported node. The label
// set must be sorted, deduplicated and validated by the caller; the merge
// key is the GUID alone.
func MergeImportNodeQuery(labels []string) string {
	return fmt.Sprintf(`
		MERGE (n:%s {GUID: $guid})
		SET n += $props
		RETURN n.GUID AS guid
	`, strings.Join(labels, ":"))
}

// MergeImportEdgeQuery builds the merge for one imported relationship,
// keyed on (type, GUID). Endpoints are matched label-free so edges between
// nodes imported under different label sets still resolve.
func MergeImportEdgeQuery(relType string) string {
	return fmt.Sprintf(`
		MATCH (from {GUID: $from_guid})
		MATCH (to {GUID: $to_guid})
		MERGE (from)-[r:%s {GUID: $guid}]->(to)
		SET r += $props
		RETURN count(r) AS merged
	`, relType)
}

func notLabeled(varName string, labels []string) []string {
	clauses := make([]string, 0, len(labels))
	for _, label := range labels {
		clauses = append(clauses, fmt.Sprintf("NOT %s:%s", varName, label))
	}
	return clauses
}
