// Package inmemdb keeps the tables of the development backend in memory.
package inmemdb

import (
	"sort"
	"sync"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/user"
)

type (
	DB struct {
		mutex  sync.RWMutex
		tables map[string]*Table
		user   *userTable
	}

	userTable struct {
		table map[int]*user.User
		pk    int
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		tables: make(map[string]*Table),
		user:   &userTable{table: make(map[int]*user.User)},
	}
}

// Seed replaces the rows of table `name`. Rows keep their ids; rows without one get the next key.
func (db *DB) Seed(name string, rows []core.Record) {
	t := db.Table(name)
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.rows = make(map[int]core.Record, len(rows))
	t.pk = 0
	for _, row := range rows {
		id, ok := row.Int("id")
		if !ok || id <= 0 {
			id = t.pk + 1
		}
		rec := row.Clone()
		rec["id"] = float64(id)
		t.rows[id] = rec
		if id > t.pk {
			t.pk = id
		}
	}
}

// Table returns the table `name`, creating it when needed.
func (db *DB) Table(name string) *Table {
	db.mutex.RLock()
	t, ok := db.tables[name]
	db.mutex.RUnlock()
	if ok {
		return t
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()
	if t, ok = db.tables[name]; !ok {
		t = &Table{rows: make(map[int]core.Record)}
		db.tables[name] = t
	}
	return t
}

// Names lists the record tables, sorted.
func (db *DB) Names() []string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Datasets is a source of seed rows, such as the fallback registry.
type Datasets interface {
	Resources() []string
	Get(resource string) ([]core.Record, bool)
}

// Load seeds one table per dataset.
func (db *DB) Load(sets Datasets) {
	for _, name := range sets.Resources() {
		rows, _ := sets.Get(name)
		db.Seed(name, rows)
	}
}
