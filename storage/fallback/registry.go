// Package fallback holds the static datasets served when every live tier of a read failed.
package fallback

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

// Datasets that do not map to an entity.
const (
	RecentActivity = "recent-activity"
	UpcomingExams  = "upcoming-exams"
)

// Registry maps a logical resource to its fallback rows. Rows are copied in and out,
// so callers can never alter a dataset through a served result.
type Registry struct {
	mu   sync.RWMutex
	sets map[string][]core.Record
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{sets: make(map[string][]core.Record)}
}

// Default returns a registry loaded with the built-in datasets.
func Default() *Registry {
	r := New()
	for name, rows := range builtin() {
		r.Set(name, rows)
	}
	return r
}

// Set replaces the dataset of resource.
func (r *Registry) Set(resource string, rows []core.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets[resource] = cloneRows(rows)
}

// Get returns a copy of the dataset of resource.
func (r *Registry) Get(resource string) ([]core.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows, ok := r.sets[resource]
	if !ok {
		return nil, false
	}
	return cloneRows(rows), true
}

// Search returns the rows of resource matching search (see core.Record.Matches).
// A resource without a dataset yields nil.
func (r *Registry) Search(resource, search string) []core.Record {
	rows, ok := r.Get(resource)
	if !ok {
		return nil
	}
	search = core.CleanString(search)
	if search == "" {
		return rows
	}
	out := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		if row.Matches(search) {
			out = append(out, row)
		}
	}
	return out
}

// Find returns the row of resource whose id is id.
func (r *Registry) Find(resource, id string) (core.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.sets[resource] {
		if row.IDString() == id {
			return row.Clone(), true
		}
	}
	return nil, false
}

// Resources lists the registered datasets, sorted.
func (r *Registry) Resources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile merges the datasets of a JSON file shaped as {"resource": [{...}, ...]}.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading fallback datasets")
	}
	var sets map[string][]core.Record
	if err := json.Unmarshal(data, &sets); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	for name, rows := range sets {
		if rows == nil {
			rows = []core.Record{}
		}
		r.Set(name, rows)
	}
	return nil
}

func cloneRows(rows []core.Record) []core.Record {
	out := make([]core.Record, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out
}
