package permission

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sheetflow/sheetflow/internal/domain"
	"github.com/sheetflow/sheetflow/internal/issuetype"
	"github.com/sheetflow/sheetflow/internal/jira"
)

type stubMetaFetcher struct {
	meta jira.CreateMetaResponse
	err  error
}

func (s *stubMetaFetcher) GetCreateMeta(ctx context.Context, projectKey string) (jira.CreateMetaResponse, error) {
	if s.err != nil {
		return jira.CreateMetaResponse{}, s.err
	}
	return s.meta, nil
}

func newValidator(fetcher *stubMetaFetcher) *Validator {
	return New(issuetype.NewResolver(fetcher))
}

func metaWithTypes() jira.CreateMetaResponse {
	return jira.CreateMetaResponse{
		Projects: []jira.CreateMetaProject{
			{
				Key: "PROJ",
				IssueTypes: []jira.CreateMetaIssueType{
					{Name: "Task", Fields: map[string]jira.FieldMeta{
						"summary":       {Name: "Summary"},
						"customfield_1": {Name: "Story Point Estimate"},
					}},
					{Name: "Epic", Fields: map[string]jira.FieldMeta{
						"summary": {Name: "Summary"},
					}},
				},
			},
		},
	}
}

func TestValidateNarrowsToAvailableFields(t *testing.T) {
	v := newValidator(&stubMetaFetcher{meta: metaWithTypes()})

	mapping := domain.ColumnMapping{
		"Story Title":  "summary",
		"Story Points": "customfield_1",
		"Secret Field": "customfield_99",
		"Random Col":   "",
	}

	validated, err := v.Validate(context.Background(), mapping, "PROJ", "Task")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	expected := domain.ColumnMapping{
		"Story Title":  "summary",
		"Story Points": "customfield_1",
		"Secret Field": "",
		"Random Col":   "",
	}
	if !reflect.DeepEqual(validated, expected) {
		t.Fatalf("unexpected validated mapping: %v", validated)
	}
}

func TestValidateRedirectsToFirstAvailableType(t *testing.T) {
	v := newValidator(&stubMetaFetcher{meta: metaWithTypes()})

	mapping := domain.ColumnMapping{
		"Story Title":  "summary",
		"Story Points": "customfield_1",
	}

	// Bug is not in the project; Task (first available) applies instead, and
	// Task does accept customfield_1.
	validated, err := v.Validate(context.Background(), mapping, "PROJ", "Bug")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if validated["Story Points"] != "customfield_1" {
		t.Fatalf("expected redirect to Task to keep customfield_1, got %q", validated["Story Points"])
	}
}

func TestValidateFailsForProjectWithoutIssueTypes(t *testing.T) {
	v := newValidator(&stubMetaFetcher{meta: jira.CreateMetaResponse{
		Projects: []jira.CreateMetaProject{{Key: "PROJ"}},
	}})

	_, err := v.Validate(context.Background(), domain.ColumnMapping{"Story Title": "summary"}, "PROJ", "Bug")
	if !errors.Is(err, domain.ErrNoIssueTypes) {
		t.Fatalf("expected ErrNoIssueTypes, got %v", err)
	}
}

func TestValidateFailsOpenOnMetadataError(t *testing.T) {
	v := newValidator(&stubMetaFetcher{err: errors.New("metadata outage")})

	mapping := domain.ColumnMapping{
		"Story Title":  "summary",
		"Secret Field": "customfield_99",
		"Random Col":   "",
	}

	validated, err := v.Validate(context.Background(), mapping, "PROJ", "Task")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !reflect.DeepEqual(validated, mapping) {
		t.Fatalf("expected input mapping returned verbatim, got %v", validated)
	}
}
