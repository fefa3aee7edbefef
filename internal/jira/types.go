package jira

// FieldSchema describes the value schema of a tracker field.
type FieldSchema struct {
	Type     string `json:"type"`
	System   string `json:"system,omitempty"`
	Custom   string `json:"custom,omitempty"`
	CustomID int    `json:"customId,omitempty"`
}

// Field is one entry from the field listing endpoint.
type Field struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Custom bool        `json:"custom"`
	Schema FieldSchema `json:"schema"`
}

// CreateMetaResponse is the create-metadata response for one or more projects.
type CreateMetaResponse struct {
	Projects []CreateMetaProject `json:"projects"`
}

// CreateMetaProject carries a project's creatable issue types.
type CreateMetaProject struct {
	Key        string                `json:"key"`
	Name       string                `json:"name"`
	IssueTypes []CreateMetaIssueType `json:"issuetypes"`
}

// CreateMetaIssueType lists the fields available on one issue type.
type CreateMetaIssueType struct {
	Name   string               `json:"name"`
	Fields map[string]FieldMeta `json:"fields"`
}

// FieldMeta is per-field creation metadata.
type FieldMeta struct {
	Required        bool        `json:"required"`
	Schema          FieldSchema `json:"schema"`
	Name            string      `json:"name"`
	HasDefaultValue bool        `json:"hasDefaultValue"`
}

// CreateIssueRequest is the body posted to the issue endpoint.
type CreateIssueRequest struct {
	Fields map[string]any `json:"fields"`
}

// IssueCreateResult is the tracker's response to a successful creation.
type IssueCreateResult struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// ErrorResponse is the tracker's standard error body.
type ErrorResponse struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}
