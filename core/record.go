package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a loosely-typed entity exchanged with the backend.
// The same concept may arrive under several keys (eg. `batch_name` or `name`),
// so accessors take the candidate keys in order of preference.
type Record map[string]interface{}

// File is a binary blob held by a Record field. Writes holding a File are sent as multipart.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Lookup returns the value of the first key present with a non-nil value.
func (r Record) Lookup(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the first present value rendered as a string, or "".
func (r Record) String(keys ...string) string {
	v, ok := r.Lookup(keys...)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// Float returns the first present value that can be read as a number.
func (r Record) Float(keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if f, ok := toFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

// Int is Float truncated to an int.
func (r Record) Int(keys ...string) (int, bool) {
	f, ok := r.Float(keys...)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// IDString returns the record id as a string, probing `id` then `_id`.
func (r Record) IDString() string {
	return r.String("id", "_id")
}

// HasFile reports whether one of the given fields holds a File.
func (r Record) HasFile(fields ...string) bool {
	for _, f := range fields {
		switch r[f].(type) {
		case File, *File:
			return true
		}
	}
	return false
}

// Matches reports whether any string or number field of the record contains `search`, ignoring case.
func (r Record) Matches(search string) bool {
	search = CleanString(search)
	if search == "" {
		return true
	}
	for _, v := range r {
		switch val := v.(type) {
		case string:
			if ContainsFold(val, search) {
				return true
			}
		case float64, int, int64, json.Number:
			if strings.Contains(fmt.Sprint(val), search) {
				return true
			}
		}
	}
	return false
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, !math.IsNaN(val)
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
