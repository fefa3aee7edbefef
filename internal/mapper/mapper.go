// Package mapper reconciles free-form spreadsheet column names with the
// tracker's field catalog. Resolution is layered: exact standard-field
// aliases, then ordered heuristic pattern families, then a raw catalog
// lookup. Columns that resolve nowhere map to the empty string; an unknown
// column is never an error.
package mapper

import (
	"context"
	"strings"

	"github.com/sheetflow/sheetflow/internal/catalog"
	"github.com/sheetflow/sheetflow/internal/domain"
)

// standardAliases maps normalized header names straight to well-known field
// ids, bypassing the catalog. When multiple raw headers mean the same thing,
// they all map here.
var standardAliases = map[string]string{
	"summary":     domain.FieldSummary,
	"title":       domain.FieldSummary,
	"story title": domain.FieldSummary,
	"name":        domain.FieldSummary,

	"description": domain.FieldDescription,
	"desc":        domain.FieldDescription,
	"details":     domain.FieldDescription,

	"assignee":    domain.FieldAssignee,
	"assigned to": domain.FieldAssignee,
	"owner":       domain.FieldAssignee,

	"reporter": domain.FieldReporter,

	"type":       domain.FieldIssueType,
	"issuetype":  domain.FieldIssueType,
	"issue type": domain.FieldIssueType,

	"priority": domain.FieldPriority,

	"labels": domain.FieldLabels,
	"label":  domain.FieldLabels,
	"tags":   domain.FieldLabels,

	"project":     domain.FieldProject,
	"project key": domain.FieldProject,

	"due date": domain.FieldDueDate,
	"duedate":  domain.FieldDueDate,

	"fix version":  domain.FieldFixVersions,
	"fix versions": domain.FieldFixVersions,
}

// patternFamily pairs the substrings that trigger a family with the search
// terms used against the catalog's display names. Trigger patterns are often
// broader than the search terms; the split keeps header matching loose while
// keeping catalog lookups precise.
type patternFamily struct {
	triggerPatterns []string
	searchTerms     []string
}

// patternFamilies is evaluated in order; within a family the search terms are
// tried in their listed order and the first catalog hit wins.
var patternFamilies = []patternFamily{
	{
		triggerPatterns: []string{"story point", "storypoint", "story pts", "points", "estimate"},
		searchTerms:     []string{"story point", "estimate"},
	},
	{
		triggerPatterns: []string{"sprint", "iteration"},
		searchTerms:     []string{"sprint"},
	},
	{
		triggerPatterns: []string{"hours", "hrs", "effort"},
		searchTerms:     []string{"hour"},
	},
	{
		triggerPatterns: []string{"flag"},
		searchTerms:     []string{"flagged"},
	},
	{
		triggerPatterns: []string{"fix version", "fixversion", "release"},
		searchTerms:     []string{"fix version"},
	},
	{
		triggerPatterns: []string{"qa cycle", "test cycle", "qa-cycle"},
		searchTerms:     []string{"qa cycle", "cycle"},
	},
	{
		triggerPatterns: []string{"epic"},
		searchTerms:     []string{"epic link", "epic"},
	},
	{
		triggerPatterns: []string{"team"},
		searchTerms:     []string{"team"},
	},
}

// Mapper maps column names to field ids using the shared field catalog.
type Mapper struct {
	catalog *catalog.Catalog
}

// New creates a mapper backed by the given catalog.
func New(cat *catalog.Catalog) *Mapper {
	return &Mapper{catalog: cat}
}

// Map resolves every supplied column name to a field id or to the empty
// string. The returned mapping always has exactly one entry per input column.
// The catalog is populated on first use; a populate failure propagates so the
// caller can decide whether to retry.
func (m *Mapper) Map(ctx context.Context, columnNames []string) (domain.ColumnMapping, error) {
	if _, err := m.catalog.DiscoverFields(ctx); err != nil {
		return nil, err
	}

	mapping := make(domain.ColumnMapping, len(columnNames))
	for _, column := range columnNames {
		mapping[column] = m.resolve(ctx, column)
	}
	return mapping, nil
}

func (m *Mapper) resolve(ctx context.Context, column string) string {
	normalized := strings.ToLower(strings.TrimSpace(column))

	if fieldID, ok := standardAliases[normalized]; ok {
		return fieldID
	}

	for _, family := range patternFamilies {
		if !family.matches(normalized) {
			continue
		}
		if fieldID := m.searchCatalog(ctx, family.searchTerms); fieldID != "" {
			return fieldID
		}
	}

	if def, ok := m.catalog.ByID(normalized); ok {
		return def.ID
	}
	if def, ok := m.catalog.ByDisplayName(normalized); ok {
		return def.ID
	}

	return ""
}

func (f patternFamily) matches(normalized string) bool {
	for _, pattern := range f.triggerPatterns {
		if strings.Contains(normalized, pattern) {
			return true
		}
	}
	return false
}

// searchCatalog finds the first cached field whose display name contains any
// of the search terms. Order is the family's term order, then catalog listing
// order, never alphabetical.
func (m *Mapper) searchCatalog(ctx context.Context, searchTerms []string) string {
	fields, err := m.catalog.DiscoverFields(ctx)
	if err != nil {
		return ""
	}
	for _, term := range searchTerms {
		for _, def := range fields {
			if strings.Contains(strings.ToLower(def.DisplayName), term) {
				return def.ID
			}
		}
	}
	return ""
}
