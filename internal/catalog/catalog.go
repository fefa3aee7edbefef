// Package catalog caches the tracker's field definitions for the lifetime of
// the process. Population happens once, on first use; concurrent first callers
// share a single in-flight fetch.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sheetflow/sheetflow/internal/domain"
	"github.com/sheetflow/sheetflow/internal/jira"
)

// FieldLister is the slice of the tracker client the catalog consumes.
type FieldLister interface {
	ListFields(ctx context.Context) ([]jira.Field, error)
}

// Catalog is a populate-once cache of field definitions, indexed by lower-cased
// display name and by id. Entries are immutable once written; the cache is
// append-only within a process lifetime and only an explicit Reset clears it.
type Catalog struct {
	client FieldLister

	group singleflight.Group

	mu      sync.RWMutex
	loaded  bool
	ordered []domain.FieldDefinition
	byName  map[string]domain.FieldDefinition
	byID    map[string]domain.FieldDefinition
}

// New creates an empty catalog backed by the given client.
func New(client FieldLister) *Catalog {
	return &Catalog{client: client}
}

// DiscoverFields returns all field definitions in listing order, fetching them
// on first use. Idempotent after the first success. A fetch failure is not
// cached, so the next call retries.
func (c *Catalog) DiscoverFields(ctx context.Context) ([]domain.FieldDefinition, error) {
	c.mu.RLock()
	if c.loaded {
		fields := c.ordered
		c.mu.RUnlock()
		return fields, nil
	}
	c.mu.RUnlock()

	_, err, _ := c.group.Do("fields", func() (any, error) {
		raw, fetchErr := c.client.ListFields(ctx)
		if fetchErr != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSchemaFetch, fetchErr)
		}
		c.store(raw)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ordered, nil
}

// ByDisplayName looks a field up case-insensitively by display name. The
// catalog must have been populated via DiscoverFields first.
func (c *Catalog) ByDisplayName(name string) (domain.FieldDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return def, ok
}

// ByID looks a field up by its exact id.
func (c *Catalog) ByID(id string) (domain.FieldDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.byID[id]
	return def, ok
}

// Reset drops the cached definitions so the next call re-fetches.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.ordered = nil
	c.byName = nil
	c.byID = nil
}

func (c *Catalog) store(raw []jira.Field) {
	ordered := make([]domain.FieldDefinition, 0, len(raw))
	byName := make(map[string]domain.FieldDefinition, len(raw))
	byID := make(map[string]domain.FieldDefinition, len(raw))

	for _, field := range raw {
		def := domain.FieldDefinition{
			ID:          field.ID,
			DisplayName: field.Name,
			IsCustom:    field.Custom,
			ValueType: domain.ValueType{
				Kind:          domain.ParseValueKind(field.Schema.Type),
				CustomSubtype: field.Schema.Custom,
			},
		}
		ordered = append(ordered, def)
		byName[strings.ToLower(strings.TrimSpace(def.DisplayName))] = def
		byID[def.ID] = def
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	c.ordered = ordered
	c.byName = byName
	c.byID = byID
}
