package model

import (
	"encoding/json"
	"fmt"
)

// ExportMetadata describes one export run.
type ExportMetadata struct {
	Timestamp      string   `json:"timestamp"`
	SourceURI      string   `json:"source_uri"`
	ExcludedLabels []string `json:"excluded_labels"`
	NodeCount      int      `json:"node_count"`
	EdgeCount      int      `json:"edge_count"`
}

// ExportNode is one exported node: store id, labels and normalized properties.
type ExportNode struct {
	ID         interface{}            `json:"id"`
	Labels     []string               `json:"labels"`
	Properties map[string]interface{} `json:"properties"`
}

// ExportEdge is one exported relationship between two exported nodes.
type ExportEdge struct {
	ID         interface{}            `json:"id"`
	Type       string                 `json:"type"`
	SourceID   interface{}            `json:"source_id"`
	TargetID   interface{}            `json:"target_id"`
	Properties map[string]interface{} `json:"properties"`
}

// ExportPayload is the on-disk export format.
type ExportPayload struct {
	Metadata ExportMetadata `json:"export_metadata"`
	Nodes    []ExportNode   `json:"nodes"`
	Edges    []ExportEdge   `json:"edges"`
}

// LabelList is a node's label set in an import payload. Older payloads
// carry a single label string instead of a list; both forms decode.
type LabelList []string

func (l *LabelList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("labels must be a string or a list of strings")
	}
	if single == "" {
		*l = nil
		return nil
	}
	*l = LabelList{single}
	return nil
}

// ImportNode is one node of the idempotent import payload. GUID is the merge
// key; labels are unioned with the Imported marker before merging.
type ImportNode struct {
	GUID       string                 `json:"GUID"`
	Labels     LabelList              `json:"labels,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	LegacyID   interface{}            `json:"legacyId,omitempty"`
}

// ImportEdge is one relationship of the import payload. Type defaults to
// RELATED_TO when empty; both endpoint GUIDs are required.
type ImportEdge struct {
	GUID       string                 `json:"GUID"`
	Type       string                 `json:"type,omitempty"`
	FromGUID   string                 `json:"fromGUID"`
	ToGUID     string                 `json:"toGUID"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	LegacyID   interface{}            `json:"legacyId,omitempty"`
}

// ImportPayload is the import file format, matching what ExportPayload
// round-trips to after relabeling.
type ImportPayload struct {
	Nodes []ImportNode `json:"nodes"`
	Edges []ImportEdge `json:"edges"`
}
