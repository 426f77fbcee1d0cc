package echoapi

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/database/inmem"
)

const (
	defaultLimit = 10
	maxLimit     = 500
)

var reservedParams = map[string]bool{"page": true, "limit": true, "search": true, "ordering": true}

// ListQuery is the paging and filtering part of a list request. Unreserved query parameters
// become exact-match filters.
type ListQuery struct {
	Page   int
	Limit  int
	Filter inmemdb.Filter
}

func (q *ListQuery) Bind(ctx echo.Context) {
	params := ctx.QueryParams()
	q.Page, _ = strconv.Atoi(params.Get("page"))
	q.Limit, _ = strconv.Atoi(params.Get("limit"))
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.Filter.Search = core.CleanString(params.Get("search"))
	for key, vals := range params {
		if reservedParams[key] || len(vals) == 0 || core.CleanString(vals[0]) == "" {
			continue
		}
		if q.Filter.Match == nil {
			q.Filter.Match = make(map[string]string)
		}
		q.Filter.Match[key] = core.CleanString(vals[0])
	}
}

// Slice returns the requested page of rows.
func (q ListQuery) Slice(rows []core.Record) []core.Record {
	start := (q.Page - 1) * q.Limit
	if start >= len(rows) {
		return []core.Record{}
	}
	end := start + q.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// bindRecord reads a JSON object or a multipart form into a record. Form files are saved
// and replaced by the path they are served at.
func (s *server) bindRecord(ctx echo.Context) (core.Record, error) {
	ct := ctx.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		form, err := ctx.MultipartForm()
		if err != nil {
			return nil, core.NewValidationError(errors.Wrap(err, "invalid multipart body"))
		}
		rec := make(core.Record, len(form.Value)+len(form.File))
		for key, vals := range form.Value {
			if len(vals) > 0 {
				rec[key] = formValue(vals[0])
			}
		}
		for key, files := range form.File {
			if len(files) == 0 {
				continue
			}
			path, err := s.uploads.save(files[0])
			if err != nil {
				return nil, core.NewValidationError(err, core.FieldError{Field: key, Error: err.Error()})
			}
			rec[key] = path
		}
		return rec, nil
	}

	data, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}
	rec := core.Record{}
	if len(bytes.TrimSpace(data)) == 0 {
		return rec, nil
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, core.NewValidationError(errors.New("body must be a JSON object"))
	}
	return rec, nil
}

// formValue decodes numbers, booleans and JSON documents sent as form fields; anything else stays a string.
func formValue(s string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	if _, isString := v.(string); isString {
		return s
	}
	return v
}
