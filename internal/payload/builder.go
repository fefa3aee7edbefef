// Package payload turns one mapped row into a type-correct issue-creation
// body. A single bad cell never aborts a row: the field is skipped and the
// column recorded as a diagnostic.
package payload

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sheetflow/sheetflow/internal/catalog"
	"github.com/sheetflow/sheetflow/internal/domain"
	"github.com/sheetflow/sheetflow/internal/issuetype"
)

// fallbackIssueType is applied when issue type resolution yields nothing.
const fallbackIssueType = "Task"

// Builder assembles create-request bodies from rows and validated mappings.
type Builder struct {
	catalog  *catalog.Catalog
	resolver *issuetype.Resolver
}

// New creates a builder backed by the shared catalog and resolver.
func New(cat *catalog.Catalog, resolver *issuetype.Resolver) *Builder {
	return &Builder{catalog: cat, resolver: resolver}
}

// Build produces a complete create-request body for one row. The project key
// is required; everything else degrades per field. Diagnostics for skipped
// fields are returned alongside the payload, in column order.
func (b *Builder) Build(ctx context.Context, row domain.RowRecord, mapping domain.ColumnMapping, projectKey string) (domain.BuildResult, error) {
	result := domain.BuildResult{SkippedFields: []string{}}

	if strings.TrimSpace(projectKey) == "" {
		return result, domain.ErrMissingProjectKey
	}

	fields := map[string]any{
		"project": map[string]any{"key": projectKey},
	}

	types := b.resolver.AvailableTypes(ctx, projectKey)
	defaultType := fallbackIssueType
	if len(types.Names) > 0 {
		defaultType = types.Names[0]
	} else {
		result.SkippedFields = append(result.SkippedFields,
			fmt.Sprintf("no issue types resolved for %s; defaulting to %s", projectKey, fallbackIssueType))
	}

	issueType := defaultType
	if column, requested := issueTypeRequest(row, mapping); requested != "" {
		if canonical, ok := matchTypeName(types.Names, requested); ok {
			issueType = canonical
		} else {
			result.SkippedFields = append(result.SkippedFields,
				fmt.Sprintf("%s: issue type %q is not available in %s, using %s", column, requested, projectKey, defaultType))
		}
	}
	fields["issuetype"] = map[string]any{"name": issueType}

	columns := make([]string, 0, len(mapping))
	for column := range mapping {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var description string
	for _, column := range columns {
		fieldID := mapping[column]
		if fieldID == "" || fieldID == domain.FieldIssueType {
			continue
		}
		// The caller-supplied project key is authoritative; spreadsheet
		// project columns are always ignored.
		if fieldID == domain.FieldProject {
			continue
		}

		value := sanitizeCell(cellString(row[column]))
		if value == "" {
			continue
		}

		switch fieldID {
		case domain.FieldSummary:
			fields[domain.FieldSummary] = value
		case domain.FieldDescription:
			description = value
		case domain.FieldPriority:
			fields[domain.FieldPriority] = map[string]any{"name": value}
		case domain.FieldAssignee:
			fields[domain.FieldAssignee] = map[string]any{"emailAddress": value}
		case domain.FieldReporter:
			fields[domain.FieldReporter] = map[string]any{"emailAddress": value}
		case domain.FieldLabels:
			fields[domain.FieldLabels] = splitList(value)
		case domain.FieldFixVersions:
			// Version existence cannot be validated without another round
			// trip, so the field is conservatively omitted.
			result.SkippedFields = append(result.SkippedFields, column)
		default:
			serialized, ok := b.serializeCustom(fieldID, value)
			if !ok {
				result.SkippedFields = append(result.SkippedFields, column)
				continue
			}
			fields[fieldID] = serialized
		}
	}

	if description != "" {
		if criteria := acceptanceCriteria(row); criteria != "" {
			description = description + "\n\nAcceptance Criteria:\n" + criteria
		}
		fields[domain.FieldDescription] = adfDocument(description)
	}

	result.Fields = fields
	return result, nil
}

// serializeCustom shapes a custom field value by its catalog definition.
// Returns false when the field must be skipped.
func (b *Builder) serializeCustom(fieldID, value string) (any, bool) {
	def, known := b.catalog.ByID(fieldID)
	if !known {
		return value, true
	}

	switch def.ValueType.Kind {
	case domain.ValueKindNumber:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, false
		}
		return parsed, true
	case domain.ValueKindString:
		return value, true
	case domain.ValueKindArray:
		subtype := strings.ToLower(def.ValueType.CustomSubtype)
		if strings.Contains(subtype, "multicheckboxes") {
			// Option existence cannot be validated; skip like fixVersions.
			return nil, false
		}
		// Sprint-like and other array fields: coerce the cell to a list.
		return []any{value}, true
	case domain.ValueKindPriority:
		return map[string]any{"name": value}, true
	case domain.ValueKindUser:
		return map[string]any{"emailAddress": value}, true
	default:
		return value, true
	}
}

// issueTypeRequest finds the row's issue-type column, if any, and returns the
// column name plus the sanitized requested type.
func issueTypeRequest(row domain.RowRecord, mapping domain.ColumnMapping) (string, string) {
	for column, fieldID := range mapping {
		if fieldID != domain.FieldIssueType {
			continue
		}
		if value := sanitizeCell(cellString(row[column])); value != "" {
			return column, value
		}
	}
	return "", ""
}

func matchTypeName(names []string, requested string) (string, bool) {
	for _, name := range names {
		if strings.EqualFold(name, requested) {
			return name, true
		}
	}
	return "", false
}

// acceptanceCriteria scans the row for an acceptance-criteria column. The
// column does not need to be mapped; it rides along on the description.
func acceptanceCriteria(row domain.RowRecord) string {
	for column, value := range row {
		normalized := strings.ToLower(strings.TrimSpace(column))
		if strings.Contains(normalized, "acceptance") {
			return sanitizeCell(cellString(value))
		}
	}
	return ""
}

// adfDocument wraps text in a single-paragraph rich-text document.
func adfDocument(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type": "paragraph",
				"content": []any{
					map[string]any{"type": "text", "text": text},
				},
			},
		},
	}
}

// sanitizeCell strips one layer of surrounding quotes and trims whitespace,
// tolerating common spreadsheet export artifacts.
func sanitizeCell(value string) string {
	v := strings.TrimSpace(value)
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			v = v[1 : len(v)-1]
		}
	}
	return strings.TrimSpace(v)
}

// cellString renders a raw cell value as a string. Rows are string-keyed maps
// with variant values, so coercion happens here, at the builder boundary.
func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
