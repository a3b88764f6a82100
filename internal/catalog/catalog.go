// Package catalog manages graph metadata: the statistics snapshot and the
// property index definitions the cost model plans against.
package catalog

import (
	"time"
)

// Catalog exposes graph statistics and index metadata. Implementations must
// be safe for concurrent read-only use so independent compilations can share
// one catalog.
type Catalog interface {
	// Statistics operations
	GetGraphStats() (*GraphStats, error)

	// Index operations
	CreateIndex(index *IndexSchema) (*Index, error)
	GetIndex(property string) (*Index, error)
	ListIndexes() ([]*Index, error)
	DropIndex(property string) error
}

// GraphStats holds the statistics snapshot cardinality estimation reads.
// Estimates are deterministic for a fixed snapshot.
type GraphStats struct {
	// NodeCount is the total number of nodes in the graph.
	NodeCount int64
	// RelationshipCounts maps relationship type to the number of
	// relationships of that type.
	RelationshipCounts map[string]int64
	// CollectedAt records when the snapshot was taken.
	CollectedAt time.Time
}

// TotalRelationships returns the number of relationships across all types.
func (s *GraphStats) TotalRelationships() int64 {
	var total int64
	for _, count := range s.RelationshipCounts {
		total += count
	}
	return total
}

// RelationshipCount returns the number of relationships matching the given
// type set. An empty set matches any type.
func (s *GraphStats) RelationshipCount(types []string) int64 {
	if len(types) == 0 {
		return s.TotalRelationships()
	}
	var total int64
	for _, relType := range types {
		total += s.RelationshipCounts[relType]
	}
	return total
}

// IndexSchema defines the structure for creating a new index.
type IndexSchema struct {
	Name        string
	Property    string
	Selectivity float64
}

// Index represents a node property index with its metadata.
type Index struct {
	ID       int64
	Name     string
	Property string
	// Selectivity is the fraction of nodes a single-value lookup on this
	// index is expected to return.
	Selectivity float64
	CreatedAt   time.Time
}
