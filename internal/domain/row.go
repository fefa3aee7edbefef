package domain

// RowRecord is one source row: column name → raw cell value. Values are
// strings, numbers, or absent; rows are ephemeral and owned by the caller.
type RowRecord map[string]any

// ColumnNames returns the row's own column set. Each row may surface different
// columns than the batch header, so mapping always starts from the row itself.
func (r RowRecord) ColumnNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

// ColumnMapping associates every supplied column name with a field id. The
// empty string marks a column as explicitly unmappable; that is a terminal
// decision for the column, never a row failure.
type ColumnMapping map[string]string

// Clone returns an independent copy of the mapping.
func (m ColumnMapping) Clone() ColumnMapping {
	clone := make(ColumnMapping, len(m))
	for column, fieldID := range m {
		clone[column] = fieldID
	}
	return clone
}

// BuildResult is the outcome of turning one row into a create-request body.
// SkippedFields lists human-readable diagnostics for anything omitted.
type BuildResult struct {
	Fields        map[string]any `json:"fields"`
	SkippedFields []string       `json:"skippedFields"`
}

// RowOutcome reports one row's import result. Aggregation across rows is the
// batch layer's concern.
type RowOutcome struct {
	Success  bool   `json:"success"`
	IssueKey string `json:"issueKey,omitempty"`
	Error    string `json:"error,omitempty"`
}
