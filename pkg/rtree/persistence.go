package rtree

import (
	"encoding/gob"
	"fmt"
	"os"
)

// indexData is the serializable form of the index. The tree structure
// itself is not persisted; it is rebuilt on load.
type indexData struct {
	Entries []TripPoint
	Count   int64
}

// SaveToFile saves the index to a gob file.
func (g *Index) SaveToFile(filename string) error {
	// Extract every entry with a whole-world query; rtreego has no
	// iterator.
	entries, err := g.QueryBox(-90, -180, 90, 180)
	if err != nil {
		return fmt.Errorf("failed to extract points: %w", err)
	}

	data := indexData{
		Entries: entries,
		Count:   g.itemCount.Load(),
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	return nil
}

// LoadFromFile loads a saved index, replacing the current contents.
func (g *Index) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data indexData
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode index: %w", err)
	}

	g.Clear()
	g.Insert(data.Entries)
	return nil
}
