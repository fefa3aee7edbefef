package domain

import "strings"

// ValueKind classifies how a tracker field serializes inside a create payload.
type ValueKind string

const (
	ValueKindString   ValueKind = "string"
	ValueKindNumber   ValueKind = "number"
	ValueKindArray    ValueKind = "array"
	ValueKindUser     ValueKind = "user"
	ValueKindPriority ValueKind = "priority"
	ValueKindUnknown  ValueKind = "unknown"
)

// ValueType carries the serialization kind plus the custom-field subtype
// reported by the tracker (e.g. ".../gh-sprint", ".../multicheckboxes").
type ValueType struct {
	Kind          ValueKind `json:"kind"`
	CustomSubtype string    `json:"customSubtype,omitempty"`
}

// FieldDefinition describes one tracker field. Identity is the tracker-assigned
// id; definitions are immutable once fetched.
type FieldDefinition struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	IsCustom    bool      `json:"isCustom"`
	ValueType   ValueType `json:"valueType"`
}

// Well-known field ids shared by the mapper and the payload builder.
const (
	FieldSummary     = "summary"
	FieldDescription = "description"
	FieldIssueType   = "issuetype"
	FieldProject     = "project"
	FieldPriority    = "priority"
	FieldAssignee    = "assignee"
	FieldReporter    = "reporter"
	FieldLabels      = "labels"
	FieldFixVersions = "fixVersions"
	FieldDueDate     = "duedate"
)

// ParseValueKind maps a raw schema type string from the field listing endpoint
// onto a ValueKind. Unrecognized types fall through to ValueKindUnknown.
func ParseValueKind(schemaType string) ValueKind {
	switch strings.ToLower(strings.TrimSpace(schemaType)) {
	case "string":
		return ValueKindString
	case "number":
		return ValueKindNumber
	case "array":
		return ValueKindArray
	case "user":
		return ValueKindUser
	case "priority":
		return ValueKindPriority
	default:
		return ValueKindUnknown
	}
}
