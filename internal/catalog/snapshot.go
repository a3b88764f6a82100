package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// snapshotFile is the YAML form of a statistics snapshot plus index
// definitions, used to seed a catalog from disk.
type snapshotFile struct {
	NodeCount     int64            `yaml:"node_count"`
	Relationships map[string]int64 `yaml:"relationships"`
	Indexes       []indexDef       `yaml:"indexes"`
}

type indexDef struct {
	Name        string  `yaml:"name"`
	Property    string  `yaml:"property"`
	Selectivity float64 `yaml:"selectivity"`
}

// LoadSnapshot builds a MemoryCatalog from a YAML snapshot file.
func LoadSnapshot(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics snapshot: %w", err)
	}

	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse statistics snapshot: %w", err)
	}

	cat := NewMemoryCatalog()
	stats := &GraphStats{
		NodeCount:          file.NodeCount,
		RelationshipCounts: file.Relationships,
	}
	if stats.RelationshipCounts == nil {
		stats.RelationshipCounts = make(map[string]int64)
	}
	if err := cat.SetGraphStats(stats); err != nil {
		return nil, err
	}

	for _, def := range file.Indexes {
		if _, err := cat.CreateIndex(&IndexSchema{
			Name:        def.Name,
			Property:    def.Property,
			Selectivity: def.Selectivity,
		}); err != nil {
			return nil, err
		}
	}

	return cat, nil
}

// SaveSnapshot writes the catalog's statistics and index definitions to a
// YAML snapshot file.
func SaveSnapshot(path string, cat *MemoryCatalog) error {
	stats, err := cat.GetGraphStats()
	if err != nil {
		return err
	}
	indexes, err := cat.ListIndexes()
	if err != nil {
		return err
	}

	file := snapshotFile{
		NodeCount:     stats.NodeCount,
		Relationships: stats.RelationshipCounts,
		Indexes:       make([]indexDef, len(indexes)),
	}
	for i, index := range indexes {
		file.Indexes[i] = indexDef{
			Name:        index.Name,
			Property:    index.Property,
			Selectivity: index.Selectivity,
		}
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("failed to encode statistics snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write statistics snapshot: %w", err)
	}
	return nil
}
