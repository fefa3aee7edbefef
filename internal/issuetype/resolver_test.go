package issuetype

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/sheetflow/sheetflow/internal/jira"
)

type stubMetaFetcher struct {
	meta  map[string]jira.CreateMetaResponse
	err   error
	calls atomic.Int32
}

var _ MetaFetcher = (*stubMetaFetcher)(nil)

func (s *stubMetaFetcher) GetCreateMeta(ctx context.Context, projectKey string) (jira.CreateMetaResponse, error) {
	s.calls.Add(1)
	if s.err != nil {
		return jira.CreateMetaResponse{}, s.err
	}
	return s.meta[projectKey], nil
}

func projMeta() jira.CreateMetaResponse {
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

func TestResolverAvailableTypes(t *testing.T) {
	fetcher := &stubMetaFetcher{meta: map[string]jira.CreateMetaResponse{"PROJ": projMeta()}}
	resolver := NewResolver(fetcher)

	result := resolver.AvailableTypes(context.Background(), "PROJ")
	if result.Degraded {
		t.Fatalf("did not expect degraded result")
	}
	if len(result.Names) != 2 || result.Names[0] != "Task" || result.Names[1] != "Epic" {
		t.Fatalf("unexpected type names: %v", result.Names)
	}
}

func TestResolverAvailableTypesFallsBackOnFetchFailure(t *testing.T) {
	fetcher := &stubMetaFetcher{err: errors.New("metadata outage")}
	resolver := NewResolver(fetcher)

	result := resolver.AvailableTypes(context.Background(), "PROJ")
	if !result.Degraded {
		t.Fatalf("expected degraded result")
	}
	if len(result.Names) != 3 || result.Names[0] != "Task" {
		t.Fatalf("expected built-in fallback types, got %v", result.Names)
	}
}

func TestResolverFieldAvailability(t *testing.T) {
	fetcher := &stubMetaFetcher{meta: map[string]jira.CreateMetaResponse{"PROJ": projMeta()}}
	resolver := NewResolver(fetcher)

	result := resolver.FieldAvailability(context.Background(), "PROJ", "Task")
	if result.Degraded {
		t.Fatalf("did not expect degraded result")
	}
	if _, ok := result.FieldIDs["customfield_1"]; !ok {
		t.Fatalf("expected customfield_1 to be available on Task")
	}

	epic := resolver.FieldAvailability(context.Background(), "PROJ", "Epic")
	if _, ok := epic.FieldIDs["customfield_1"]; ok {
		t.Fatalf("did not expect customfield_1 on Epic")
	}
}

func TestResolverFieldAvailabilityDegradesOnFailure(t *testing.T) {
	fetcher := &stubMetaFetcher{err: errors.New("metadata outage")}
	resolver := NewResolver(fetcher)

	result := resolver.FieldAvailability(context.Background(), "PROJ", "Task")
	if !result.Degraded {
		t.Fatalf("expected degraded result so callers fail open")
	}
}

func TestResolverCachesPerProject(t *testing.T) {
	fetcher := &stubMetaFetcher{meta: map[string]jira.CreateMetaResponse{"PROJ": projMeta()}}
	resolver := NewResolver(fetcher)

	for i := 0; i < 3; i++ {
		if _, err := resolver.Meta(context.Background(), "PROJ"); err != nil {
			t.Fatalf("Meta returned error: %v", err)
		}
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("expected one fetch for cached project, got %d", got)
	}

	resolver.Reset("PROJ")
	if _, err := resolver.Meta(context.Background(), "PROJ"); err != nil {
		t.Fatalf("Meta after reset returned error: %v", err)
	}
	if got := fetcher.calls.Load(); got != 2 {
		t.Fatalf("expected re-fetch after reset, got %d", got)
	}
}

func TestResolverDoesNotCacheFailures(t *testing.T) {
	fetcher := &stubMetaFetcher{err: errors.New("boom")}
	resolver := NewResolver(fetcher)

	if _, err := resolver.Meta(context.Background(), "PROJ"); err == nil {
		t.Fatalf("expected fetch error")
	}

	fetcher.err = nil
	fetcher.meta = map[string]jira.CreateMetaResponse{"PROJ": projMeta()}
	meta, err := resolver.Meta(context.Background(), "PROJ")
	if err != nil {
		t.Fatalf("retry returned error: %v", err)
	}
	if len(meta.Types) != 2 {
		t.Fatalf("expected 2 issue types, got %d", len(meta.Types))
	}
}
