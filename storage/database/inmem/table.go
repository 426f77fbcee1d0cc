package inmemdb

import (
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

// Table is a keyed set of records. Every method returns copies.
type Table struct {
	mutex sync.RWMutex
	rows  map[int]core.Record
	pk    int
}

// Filter selects rows. Search matches any string value (case-insensitive), Match requires every
// field to equal the given value once stringified.
type Filter struct {
	Search string
	Match  map[string]string
}

func (f Filter) matches(rec core.Record) bool {
	if f.Search != "" && !rec.Matches(f.Search) {
		return false
	}
	for field, want := range f.Match {
		if rec.String(field) != want {
			return false
		}
	}
	return true
}

// Query returns the matching rows ordered by id.
func (t *Table) Query(f Filter) []core.Record {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	ids := make([]int, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]core.Record, 0, len(ids))
	for _, id := range ids {
		if rec := t.rows[id]; f.matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

func (t *Table) Count() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.rows)
}

func (t *Table) Get(id int) (core.Record, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	if rec, ok := t.rows[id]; ok {
		return rec.Clone(), nil
	}
	return nil, errors.Wrap(core.ErrNotFound, "id "+strconv.Itoa(id))
}

// Create stores a copy of rec under the next key and returns it with its id.
func (t *Table) Create(rec core.Record) core.Record {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.pk++
	row := rec.Clone()
	row["id"] = float64(t.pk)
	t.rows[t.pk] = row
	return row.Clone()
}

// Update merges the fields of rec into row `id`. The id itself cannot change.
func (t *Table) Update(id int, rec core.Record) (core.Record, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, errors.Wrap(core.ErrNotFound, "id "+strconv.Itoa(id))
	}
	for k, v := range rec {
		if k == "id" {
			continue
		}
		row[k] = v
	}
	return row.Clone(), nil
}

func (t *Table) Delete(id int) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if _, ok := t.rows[id]; !ok {
		return errors.Wrap(core.ErrNotFound, "id "+strconv.Itoa(id))
	}
	delete(t.rows, id)
	return nil
}
