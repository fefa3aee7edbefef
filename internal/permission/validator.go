// Package permission narrows a column mapping down to the fields an issue
// type actually accepts at creation time. Metadata failures fail open: import
// progress is prioritized over strict validation.
package permission

import (
	"context"
	"fmt"
	"log"

	"github.com/sheetflow/sheetflow/internal/domain"
	"github.com/sheetflow/sheetflow/internal/issuetype"
)

// DefaultIssueType is assumed when the caller does not request one.
const DefaultIssueType = "Story"

// Validator cross-checks mappings against per-type field availability.
type Validator struct {
	resolver *issuetype.Resolver
}

// New creates a validator backed by the given resolver.
func New(resolver *issuetype.Resolver) *Validator {
	return &Validator{resolver: resolver}
}

// Validate keeps each mapped field only if the issue type accepts it,
// downgrading the rest to unmapped. When the requested issue type does not
// exist in the project, validation redirects once to the project's first
// available type; a project with zero issue types is fatal. When the metadata
// fetch itself fails, the input mapping is returned unchanged.
func (v *Validator) Validate(ctx context.Context, mapping domain.ColumnMapping, projectKey, issueType string) (domain.ColumnMapping, error) {
	if issueType == "" {
		issueType = DefaultIssueType
	}

	meta, err := v.resolver.Meta(ctx, projectKey)
	if err != nil {
		// Fail open: proceed with the unvalidated mapping rather than
		// blocking every row on a metadata outage.
		log.Printf("[PERMISSION] metadata fetch for %s failed, keeping mapping as-is: %v", projectKey, err)
		return mapping, nil
	}

	info, ok := meta.TypeNamed(issueType)
	if !ok {
		names := meta.TypeNames()
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoIssueTypes, projectKey)
		}
		// Single redirect to the first available type.
		info, _ = meta.TypeNamed(names[0])
	}

	validated := make(domain.ColumnMapping, len(mapping))
	for column, fieldID := range mapping {
		if fieldID == "" {
			validated[column] = ""
			continue
		}
		if _, allowed := info.AvailableFieldIDs[fieldID]; allowed {
			validated[column] = fieldID
		} else {
			validated[column] = ""
		}
	}
	return validated, nil
}
