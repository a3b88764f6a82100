package catalog

import (
	"sort"
	"sync"

	"github.com/dshills/QuantaGraph/internal/errors"
	"github.com/dshills/QuantaGraph/internal/util/timeutil"
)

// MemoryCatalog is an in-memory implementation of the Catalog interface.
type MemoryCatalog struct {
	mu      sync.RWMutex
	stats   *GraphStats
	indexes map[string]*Index // property -> Index
	nextID  int64
}

// NewMemoryCatalog creates a new in-memory catalog with an empty snapshot.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		stats: &GraphStats{
			RelationshipCounts: make(map[string]int64),
		},
		indexes: make(map[string]*Index),
		nextID:  1,
	}
}

// SetGraphStats replaces the statistics snapshot.
func (c *MemoryCatalog) SetGraphStats(stats *GraphStats) error {
	if stats == nil {
		return errors.New(errors.InvalidStatistics, "statistics snapshot must not be nil")
	}
	if stats.NodeCount < 0 {
		return errors.Newf(errors.InvalidStatistics, "node count must be non-negative, got %d", stats.NodeCount)
	}
	for relType, count := range stats.RelationshipCounts {
		if count < 0 {
			return errors.Newf(errors.InvalidStatistics, "relationship count for %q must be non-negative, got %d", relType, count)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = cloneStats(stats)
	if c.stats.CollectedAt.IsZero() {
		c.stats.CollectedAt = timeutil.Now()
	}
	return nil
}

// GetGraphStats returns a copy of the current statistics snapshot.
func (c *MemoryCatalog) GetGraphStats() (*GraphStats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneStats(c.stats), nil
}

// CreateIndex registers a property index.
func (c *MemoryCatalog) CreateIndex(schema *IndexSchema) (*Index, error) {
	if schema.Property == "" {
		return nil, errors.New(errors.InvalidStatistics, "index property must not be empty")
	}
	if schema.Selectivity <= 0 || schema.Selectivity > 1 {
		return nil, errors.Newf(errors.InvalidStatistics, "index selectivity must be in (0, 1], got %g", schema.Selectivity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.indexes[schema.Property]; exists {
		return nil, errors.Newf(errors.DuplicateIndex, "index on property %q already exists", schema.Property)
	}

	name := schema.Name
	if name == "" {
		name = "idx_" + schema.Property
	}

	index := &Index{
		ID:          c.nextID,
		Name:        name,
		Property:    schema.Property,
		Selectivity: schema.Selectivity,
		CreatedAt:   timeutil.Now(),
	}
	c.nextID++
	c.indexes[schema.Property] = index

	return index, nil
}

// GetIndex returns the index on the given property, if one exists.
func (c *MemoryCatalog) GetIndex(property string) (*Index, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	index, exists := c.indexes[property]
	if !exists {
		return nil, errors.Newf(errors.UnknownIndex, "no index on property %q", property)
	}
	return index, nil
}

// ListIndexes returns all indexes ordered by property name.
func (c *MemoryCatalog) ListIndexes() ([]*Index, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	indexes := make([]*Index, 0, len(c.indexes))
	for _, index := range c.indexes {
		indexes = append(indexes, index)
	}
	sort.Slice(indexes, func(i, j int) bool {
		return indexes[i].Property < indexes[j].Property
	})
	return indexes, nil
}

// DropIndex removes the index on the given property.
func (c *MemoryCatalog) DropIndex(property string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.indexes[property]; !exists {
		return errors.Newf(errors.UnknownIndex, "no index on property %q", property)
	}
	delete(c.indexes, property)
	return nil
}

func cloneStats(stats *GraphStats) *GraphStats {
	counts := make(map[string]int64, len(stats.RelationshipCounts))
	for relType, count := range stats.RelationshipCounts {
		counts[relType] = count
	}
	return &GraphStats{
		NodeCount:          stats.NodeCount,
		RelationshipCounts: counts,
		CollectedAt:        stats.CollectedAt,
	}
}
