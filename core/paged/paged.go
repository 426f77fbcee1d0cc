// Package paged maps the response shapes of the various backends onto one canonical page of records.
package paged

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

// Shape is the variant of a raw response body.
type Shape int

const (
	ShapeUnknown   Shape = iota
	ShapeCanonical       // {success: bool, ...}
	ShapeArray           // [...]
	ShapeData            // {data: [...] | {...}, total?, count?}
	ShapeRows            // {rows: [...], count?}
	ShapeObject          // any other object: a single record
)

func (s Shape) String() string {
	switch s {
	case ShapeCanonical:
		return "canonical"
	case ShapeArray:
		return "array"
	case ShapeData:
		return "data"
	case ShapeRows:
		return "rows"
	case ShapeObject:
		return "object"
	default:
		return "unknown"
	}
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Result is the canonical page every façade returns.
// Count is the total number of matching records server-side, not len(Rows).
type Result struct {
	Success    bool
	Rows       []core.Record
	Count      int
	Pagination *Pagination
	// Mock is set when Rows were substituted from a fallback dataset.
	Mock bool
	// Source is the tier that produced the result (auth, public, direct, mock).
	Source string
}

// Data is an alias of Rows.
func (r Result) Data() []core.Record { return r.Rows }

// First returns the first row, if any.
func (r Result) First() (core.Record, bool) {
	if len(r.Rows) == 0 {
		return nil, false
	}
	return r.Rows[0], true
}

// Empty reports a genuine "no matches" answer.
func (r Result) Empty() bool { return r.Success && r.Count == 0 && len(r.Rows) == 0 }

type resultJSON struct {
	Success    bool          `json:"success"`
	Rows       []core.Record `json:"rows"`
	Data       []core.Record `json:"data"`
	Count      int           `json:"count"`
	Pagination *Pagination   `json:"pagination,omitempty"`
	Mock       bool          `json:"_isMockData,omitempty"`
}

// MarshalJSON emits `rows` and `data` with the same content.
// `_isMockData` is only emitted for substituted results.
func (r Result) MarshalJSON() ([]byte, error) {
	rows := r.Rows
	if rows == nil {
		rows = []core.Record{}
	}
	return json.Marshal(resultJSON{
		Success:    r.Success,
		Rows:       rows,
		Data:       rows,
		Count:      r.Count,
		Pagination: r.Pagination,
		Mock:       r.Mock,
	})
}

// Classify returns the shape of a decoded JSON body. First match wins.
func Classify(body interface{}) Shape {
	switch b := body.(type) {
	case []interface{}:
		return ShapeArray
	case map[string]interface{}:
		if _, ok := b["success"].(bool); ok {
			return ShapeCanonical
		}
		if _, ok := b["data"]; ok {
			return ShapeData
		}
		if _, ok := b["rows"].([]interface{}); ok {
			return ShapeRows
		}
		return ShapeObject
	default:
		return ShapeUnknown
	}
}

// Decode parses a raw JSON body and normalizes it.
func Decode(raw []byte) (Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Result{}, core.ErrUnusableBody
	}
	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return Result{}, errors.Wrap(core.ErrUnusableBody, err.Error())
	}
	return Normalize(body)
}

// Normalize maps a decoded JSON body onto a Result.
func Normalize(body interface{}) (Result, error) {
	shape := Classify(body)
	switch shape {
	case ShapeArray:
		rows, err := toRecords(body.([]interface{}))
		if err != nil {
			return Result{}, err
		}
		return Result{Success: true, Rows: rows, Count: len(rows)}, nil

	case ShapeCanonical:
		return normalizeCanonical(body.(map[string]interface{}))

	case ShapeData:
		b := body.(map[string]interface{})
		rows, err := rowsOf(b["data"])
		if err != nil {
			return Result{}, err
		}
		count, ok := countOf(b, "total", "count")
		if !ok {
			count = len(rows)
		}
		if _, isList := b["data"].([]interface{}); !isList {
			count = 1
		}
		return Result{Success: true, Rows: rows, Count: count, Pagination: paginationOf(b)}, nil

	case ShapeRows:
		b := body.(map[string]interface{})
		rows, err := toRecords(b["rows"].([]interface{}))
		if err != nil {
			return Result{}, err
		}
		count, ok := countOf(b, "count")
		if !ok {
			count = len(rows)
		}
		return Result{Success: true, Rows: rows, Count: count, Pagination: paginationOf(b)}, nil

	case ShapeObject:
		rec := core.Record(body.(map[string]interface{}))
		return Result{Success: true, Rows: []core.Record{rec}, Count: 1}, nil

	default:
		return Result{}, core.ErrUnusableBody
	}
}

// normalizeCanonical keeps an already canonical body as-is, filling in whichever
// of rows/count the backend spelled differently.
func normalizeCanonical(b map[string]interface{}) (Result, error) {
	res := Result{Success: b["success"].(bool)}
	if !res.Success {
		return Result{}, errors.Wrap(core.ErrUnusableBody, messageOf(b))
	}

	var (
		rows []core.Record
		err  error
	)
	switch {
	case b["rows"] != nil:
		rows, err = rowsOf(b["rows"])
	case b["data"] != nil:
		rows, err = rowsOf(b["data"])
	}
	if err != nil {
		return Result{}, err
	}
	if rows == nil {
		rows = []core.Record{}
	}
	res.Rows = rows
	res.Pagination = paginationOf(b)

	if count, ok := countOf(b, "count", "total"); ok {
		res.Count = count
	} else if res.Pagination != nil && res.Pagination.Total > 0 {
		res.Count = res.Pagination.Total
	} else {
		res.Count = len(rows)
	}
	return res, nil
}

// rowsOf accepts a list of objects or a single object.
func rowsOf(v interface{}) ([]core.Record, error) {
	switch d := v.(type) {
	case []interface{}:
		return toRecords(d)
	case map[string]interface{}:
		return []core.Record{core.Record(d)}, nil
	default:
		return nil, core.ErrUnusableBody
	}
}

func toRecords(items []interface{}) ([]core.Record, error) {
	rows := make([]core.Record, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.Wrap(core.ErrUnusableBody, "row is not an object")
		}
		rows = append(rows, core.Record(m))
	}
	return rows, nil
}

func countOf(b map[string]interface{}, keys ...string) (int, bool) {
	return core.Record(b).Int(keys...)
}

func paginationOf(b map[string]interface{}) *Pagination {
	p, ok := b["pagination"].(map[string]interface{})
	if !ok {
		p, ok = b["meta"].(map[string]interface{})
		if !ok {
			return nil
		}
	}
	rec := core.Record(p)
	pg := &Pagination{}
	pg.Page, _ = rec.Int("page", "currentPage", "current_page")
	pg.Limit, _ = rec.Int("limit", "pageSize", "page_size", "per_page")
	pg.Total, _ = rec.Int("total", "totalItems", "total_items")
	pg.Pages, _ = rec.Int("pages", "totalPages", "total_pages")
	return pg
}

func messageOf(b map[string]interface{}) string {
	if msg := core.Record(b).String("message", "error", "detail"); msg != "" {
		return msg
	}
	return "success=false"
}
