package paged

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

func TestDecode(t *testing.T) {
	cs := core.Record{"id": float64(1), "name": "CS"}
	ee := core.Record{"id": float64(2), "name": "EE"}

	tests := []struct {
		name      string
		body      string
		wantShape Shape
		wantRows  []core.Record
		wantCount int
	}{
		{
			name:      "canonical with data and total",
			body:      `{"success":true,"data":[{"id":1,"name":"CS"}],"total":1}`,
			wantShape: ShapeCanonical,
			wantRows:  []core.Record{cs},
			wantCount: 1,
		},
		{
			name:      "canonical with rows and count",
			body:      `{"success":true,"rows":[{"id":1,"name":"CS"},{"id":2,"name":"EE"}],"count":40}`,
			wantShape: ShapeCanonical,
			wantRows:  []core.Record{cs, ee},
			wantCount: 40,
		},
		{
			name:      "canonical with pagination total",
			body:      `{"success":true,"data":[{"id":1,"name":"CS"}],"pagination":{"page":2,"limit":1,"total":12,"totalPages":12}}`,
			wantShape: ShapeCanonical,
			wantRows:  []core.Record{cs},
			wantCount: 12,
		},
		{
			name:      "bare array",
			body:      `[{"id":1,"name":"CS"},{"id":2,"name":"EE"}]`,
			wantShape: ShapeArray,
			wantRows:  []core.Record{cs, ee},
			wantCount: 2,
		},
		{
			name:      "empty array",
			body:      `[]`,
			wantShape: ShapeArray,
			wantRows:  []core.Record{},
			wantCount: 0,
		},
		{
			name:      "fastapi data and total",
			body:      `{"data":[{"id":1,"name":"CS"}],"total":57}`,
			wantShape: ShapeData,
			wantRows:  []core.Record{cs},
			wantCount: 57,
		},
		{
			name:      "data list without total",
			body:      `{"data":[{"id":1,"name":"CS"},{"id":2,"name":"EE"}]}`,
			wantShape: ShapeData,
			wantRows:  []core.Record{cs, ee},
			wantCount: 2,
		},
		{
			name:      "data single object",
			body:      `{"data":{"id":1,"name":"CS"}}`,
			wantShape: ShapeData,
			wantRows:  []core.Record{cs},
			wantCount: 1,
		},
		{
			name:      "rows and count",
			body:      `{"rows":[{"id":2,"name":"EE"}],"count":9}`,
			wantShape: ShapeRows,
			wantRows:  []core.Record{ee},
			wantCount: 9,
		},
		{
			name:      "rows without count",
			body:      `{"rows":[{"id":2,"name":"EE"}]}`,
			wantShape: ShapeRows,
			wantRows:  []core.Record{ee},
			wantCount: 1,
		},
		{
			name:      "single object",
			body:      `{"id":1,"name":"CS"}`,
			wantShape: ShapeObject,
			wantRows:  []core.Record{cs},
			wantCount: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw interface{}
			if err := json.Unmarshal([]byte(tt.body), &raw); err != nil {
				t.Fatalf("json.Unmarshal() failed: %v", err)
			}
			if got := Classify(raw); got != tt.wantShape {
				t.Errorf("Classify() = %v, want %v", got, tt.wantShape)
			}

			res, err := Decode([]byte(tt.body))
			if err != nil {
				t.Fatalf("Decode() unexpected error = %v", err)
			}
			if !res.Success {
				t.Error("Decode().Success = false")
			}
			if diff := cmp.Diff(tt.wantRows, res.Rows); diff != "" {
				t.Errorf("Decode().Rows mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(res.Rows, res.Data()); diff != "" {
				t.Errorf("Data() differs from Rows:\n%s", diff)
			}
			if res.Count != tt.wantCount {
				t.Errorf("Decode().Count = %d, want %d", res.Count, tt.wantCount)
			}
			if res.Mock {
				t.Error("Decode().Mock = true for a network payload")
			}
		})
	}
}

func TestDecode_unusable(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "invalid json", body: "<html>502 Bad Gateway</html>"},
		{name: "null", body: "null"},
		{name: "scalar", body: `"ok"`},
		{name: "success false", body: `{"success":false,"message":"Database error"}`},
		{name: "non object rows", body: `[1,2,3]`},
		{name: "null data", body: `{"data":null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.body)); !errors.Is(err, core.ErrUnusableBody) {
				t.Errorf("Decode(%q) error = %v, want ErrUnusableBody", tt.body, err)
			}
		})
	}
}

func TestDecode_pagination(t *testing.T) {
	res, err := Decode([]byte(`{"success":true,"data":[],"pagination":{"page":3,"limit":10,"total":0,"pages":0}}`))
	if err != nil {
		t.Fatalf("Decode() unexpected error = %v", err)
	}
	want := &Pagination{Page: 3, Limit: 10}
	if diff := cmp.Diff(want, res.Pagination); diff != "" {
		t.Errorf("Pagination mismatch (-want +got):\n%s", diff)
	}
	if !res.Empty() {
		t.Error("Empty() = false for a success with no rows")
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	rows := []core.Record{{"id": float64(1)}}

	data, err := json.Marshal(Result{Success: true, Rows: rows, Count: 1})
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal() failed: %v", err)
	}
	if diff := cmp.Diff(got["rows"], got["data"]); diff != "" {
		t.Errorf("rows and data differ:\n%s", diff)
	}
	if _, ok := got["_isMockData"]; ok {
		t.Error("_isMockData leaked into a network result")
	}

	data, _ = json.Marshal(Result{Success: true, Rows: rows, Count: 1, Mock: true})
	got = nil
	_ = json.Unmarshal(data, &got)
	if got["_isMockData"] != true {
		t.Errorf("_isMockData = %v, want true", got["_isMockData"])
	}
}
