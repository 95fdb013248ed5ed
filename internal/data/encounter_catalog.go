package data

import (
	"fmt"

	"github.com/udisondev/raidtimers/internal/model"
)

// Catalog is an immutable-after-load index of encounter definitions.
// It is built on one goroutine and then only read.
type Catalog struct {
	files []*model.TimerFile
	byID  map[string]*model.TimerFile
	byMap map[uint32][]*model.TimerFile
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byID:  make(map[string]*model.TimerFile, 32),
		byMap: make(map[uint32][]*model.TimerFile, 16),
	}
}

// Add registers a definition. Encounter ids must be unique.
func (c *Catalog) Add(f *model.TimerFile) error {
	if prev, ok := c.byID[f.ID]; ok {
		return fmt.Errorf("%w %q (already loaded from %s)", ErrDuplicateID, f.ID, prev.Source)
	}
	c.files = append(c.files, f)
	c.byID[f.ID] = f
	c.byMap[f.MapID] = append(c.byMap[f.MapID], f)
	return nil
}

// Get returns the definition with the given id, or nil.
func (c *Catalog) Get(id string) *model.TimerFile {
	return c.byID[id]
}

// ForMap returns the definitions bound to mapID in load order.
func (c *Catalog) ForMap(mapID uint32) []*model.TimerFile {
	return c.byMap[mapID]
}

// All returns every definition in load order.
func (c *Catalog) All() []*model.TimerFile {
	return c.files
}

// Count returns the number of definitions.
func (c *Catalog) Count() int {
	return len(c.files)
}

// MapCount returns the number of distinct maps with definitions.
func (c *Catalog) MapCount() int {
	return len(c.byMap)
}
