// Package issuetype resolves, per project, which issue types exist and which
// fields each type accepts at creation time. Results are cached per project
// for the lifetime of the process.
package issuetype

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sheetflow/sheetflow/internal/jira"
)

// fallbackTypeNames is returned when the metadata fetch fails, so imports
// degrade instead of blocking on a transient outage.
var fallbackTypeNames = []string{"Task", "Story", "Bug"}

// MetaFetcher is the slice of the tracker client the resolver consumes.
type MetaFetcher interface {
	GetCreateMeta(ctx context.Context, projectKey string) (jira.CreateMetaResponse, error)
}

// Info describes one issue type and the field ids it accepts on creation.
type Info struct {
	Name              string
	AvailableFieldIDs map[string]struct{}
}

// ProjectMeta is the cached create-metadata for one project.
type ProjectMeta struct {
	ProjectKey string
	Types      []Info
}

// TypeNamed returns the issue type matching name (case-insensitive).
func (m ProjectMeta) TypeNamed(name string) (Info, bool) {
	for _, info := range m.Types {
		if strings.EqualFold(info.Name, name) {
			return info, true
		}
	}
	return Info{}, false
}

// TypeNames lists the issue type names in metadata order.
func (m ProjectMeta) TypeNames() []string {
	names := make([]string, 0, len(m.Types))
	for _, info := range m.Types {
		names = append(names, info.Name)
	}
	return names
}

// TypesResult carries available issue type names plus a Degraded tag marking
// that the names came from the built-in fallback rather than the tracker.
type TypesResult struct {
	Names    []string
	Degraded bool
}

// AvailabilityResult carries an issue type's field set. Degraded means the
// metadata could not be fetched and callers should fail open.
type AvailabilityResult struct {
	FieldIDs map[string]struct{}
	Degraded bool
}

// Resolver fetches and caches per-project create metadata. Concurrent first
// lookups for the same project share one in-flight fetch.
type Resolver struct {
	client MetaFetcher

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]ProjectMeta
}

// NewResolver creates a resolver backed by the given client.
func NewResolver(client MetaFetcher) *Resolver {
	return &Resolver{
		client: client,
		cache:  make(map[string]ProjectMeta),
	}
}

// Meta returns the cached create metadata for a project, fetching it on first
// use. Fetch failures are not cached.
func (r *Resolver) Meta(ctx context.Context, projectKey string) (ProjectMeta, error) {
	r.mu.RLock()
	if meta, ok := r.cache[projectKey]; ok {
		r.mu.RUnlock()
		return meta, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.group.Do(projectKey, func() (any, error) {
		raw, fetchErr := r.client.GetCreateMeta(ctx, projectKey)
		if fetchErr != nil {
			return ProjectMeta{}, fmt.Errorf("failed to fetch create metadata for %s: %w", projectKey, fetchErr)
		}
		meta := buildProjectMeta(projectKey, raw)
		r.mu.Lock()
		r.cache[projectKey] = meta
		r.mu.Unlock()
		return meta, nil
	})
	if err != nil {
		return ProjectMeta{}, err
	}
	return result.(ProjectMeta), nil
}

// AvailableTypes lists the issue type names creatable in a project. When the
// metadata fetch fails the built-in fallback names are returned, tagged
// Degraded, so the pipeline keeps moving.
func (r *Resolver) AvailableTypes(ctx context.Context, projectKey string) TypesResult {
	meta, err := r.Meta(ctx, projectKey)
	if err != nil {
		return TypesResult{Names: append([]string(nil), fallbackTypeNames...), Degraded: true}
	}
	return TypesResult{Names: meta.TypeNames()}
}

// FieldAvailability returns the field ids the named issue type accepts. A
// fetch failure yields a Degraded result with no field set; callers treat
// that as "everything allowed" rather than blocking creation.
func (r *Resolver) FieldAvailability(ctx context.Context, projectKey, issueType string) AvailabilityResult {
	meta, err := r.Meta(ctx, projectKey)
	if err != nil {
		return AvailabilityResult{Degraded: true}
	}
	info, ok := meta.TypeNamed(issueType)
	if !ok {
		return AvailabilityResult{FieldIDs: map[string]struct{}{}}
	}
	return AvailabilityResult{FieldIDs: info.AvailableFieldIDs}
}

// Reset drops the cached metadata for a project, or all projects when the key
// is empty.
func (r *Resolver) Reset(projectKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if projectKey == "" {
		r.cache = make(map[string]ProjectMeta)
		return
	}
	delete(r.cache, projectKey)
}

func buildProjectMeta(projectKey string, raw jira.CreateMetaResponse) ProjectMeta {
	meta := ProjectMeta{ProjectKey: projectKey}
	for _, project := range raw.Projects {
		if !strings.EqualFold(project.Key, projectKey) {
			continue
		}
		for _, issueType := range project.IssueTypes {
			fieldIDs := make(map[string]struct{}, len(issueType.Fields))
			for fieldID := range issueType.Fields {
				fieldIDs[fieldID] = struct{}{}
			}
			meta.Types = append(meta.Types, Info{
				Name:              issueType.Name,
				AvailableFieldIDs: fieldIDs,
			})
		}
	}
	return meta
}
