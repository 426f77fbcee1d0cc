// Package resource is the generic façade over one CRUD entity of the backend.
package resource

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/core/fetch"
	"github.com/micky-code/school-management-system-SMS--sub000/core/paged"
)

type (
	Fetcher interface {
		Fetch(ctx context.Context, path string, opts fetch.Options) (paged.Result, error)
		Write(ctx context.Context, method, path string, body *fetch.Body, opts fetch.WriteOptions) (paged.Result, error)
	}

	Datasets interface {
		Search(resource, search string) []core.Record
		Find(resource, id string) (core.Record, bool)
	}

	// Query of a list. Zero Page and Limit take the defaults.
	Query struct {
		Page    int
		Limit   int
		Search  string
		Filters map[string]string
		// View enables the stale-response guard (eg. the screen issuing the query).
		View string
	}

	Options struct {
		PageSize int
		// FileFields are the fields whose core.File values switch a write to multipart.
		FileFields []string
		Loading    fetch.Loading
	}

	Service struct {
		name     string
		fetcher  Fetcher
		resolver *endpoint.Resolver
		datasets Datasets
		opts     Options
	}
)

const defaultPageSize = 10

// relatedKeys maps a sub-resource action to the field fallback rows are filtered on.
var relatedKeys = map[string]string{
	endpoint.ByProgram:    "program_id",
	endpoint.ByBatch:      "batch_id",
	endpoint.ByDepartment: "department_id",
	endpoint.ByStudent:    "student_id",
	endpoint.ByExam:       "exam_id",
	endpoint.ByDate:       "date",
}

// RelatedKey returns the field a sub-resource action filters on.
func RelatedKey(action string) (string, bool) {
	key, ok := relatedKeys[action]
	return key, ok
}

func NewService(name string, fetcher Fetcher, resolver *endpoint.Resolver, datasets Datasets, opts Options) *Service {
	if opts.PageSize < 1 {
		opts.PageSize = defaultPageSize
	}
	return &Service{name: name, fetcher: fetcher, resolver: resolver, datasets: datasets, opts: opts}
}

// Name returns the logical resource name.
func (svc *Service) Name() string { return svc.name }

func (svc *Service) params(q Query) url.Values {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = svc.opts.PageSize
	}
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(limit))
	if s := core.CleanString(q.Search); s != "" {
		v.Set("search", s)
	}
	for k, f := range q.Filters {
		if f = core.CleanString(f); f != "" {
			v.Set(k, f)
		}
	}
	return v
}

func (svc *Service) read(ctx context.Context, path string, q Query, fallback []core.Record) (paged.Result, error) {
	return svc.fetcher.Fetch(ctx, path, fetch.Options{
		UseAuth:  true,
		Params:   svc.params(q),
		Resource: svc.name,
		Fallback: fallback,
		View:     q.View,
		Loading:  svc.opts.Loading,
	})
}

// GetAll lists a page of records. Fallback rows are the search-filtered dataset of the resource.
func (svc *Service) GetAll(ctx context.Context, q Query) (paged.Result, error) {
	path, err := svc.resolver.Resolve(svc.name, endpoint.List)
	if err != nil {
		return paged.Result{}, err
	}
	var fallback []core.Record
	if svc.datasets != nil {
		fallback = svc.datasets.Search(svc.name, q.Search)
	}
	return svc.read(ctx, path, q, fallback)
}

// GetByID returns a single-row result. A live answer without the row is core.ErrNotFound; an
// outage is an AllTransportsFailedError unless the datasets hold the record.
func (svc *Service) GetByID(ctx context.Context, id string) (paged.Result, error) {
	if err := requireID(id); err != nil {
		return paged.Result{}, err
	}
	path, err := svc.resolver.Resolve(svc.name, endpoint.Get, id)
	if err != nil {
		return paged.Result{}, err
	}
	var fallback []core.Record
	if svc.datasets != nil {
		if rec, ok := svc.datasets.Find(svc.name, id); ok {
			fallback = []core.Record{rec}
		}
	}
	res, err := svc.fetcher.Fetch(ctx, path, fetch.Options{
		UseAuth:  true,
		Resource: svc.name,
		Fallback: fallback,
		Loading:  svc.opts.Loading,
	})
	if err != nil {
		return res, err
	}
	if len(res.Rows) == 0 {
		return res, errors.Wrapf(core.ErrNotFound, "%s %s", svc.name, id)
	}
	res.Rows = res.Rows[:1]
	res.Count = 1
	return res, nil
}

// Related lists a sub-resource, eg. students.byProgram. Fallback rows are the dataset rows whose
// foreign key equals the first argument.
func (svc *Service) Related(ctx context.Context, action string, q Query, args ...string) (paged.Result, error) {
	path, err := svc.resolver.Resolve(svc.name, action, args...)
	if err != nil {
		return paged.Result{}, err
	}
	var fallback []core.Record
	if svc.datasets != nil {
		fallback = svc.datasets.Search(svc.name, q.Search)
		if key, ok := relatedKeys[action]; ok && len(args) > 0 {
			fallback = filterBy(fallback, key, args[0])
		}
	}
	return svc.read(ctx, path, q, fallback)
}

func filterBy(rows []core.Record, key, value string) []core.Record {
	out := make([]core.Record, 0, len(rows))
	for _, r := range rows {
		if r.String(key) == value {
			out = append(out, r)
		}
	}
	return out
}

// Create posts rec. Writes never fall back to mock data.
func (svc *Service) Create(ctx context.Context, rec core.Record) (paged.Result, error) {
	if len(rec) == 0 {
		return paged.Result{}, &core.ValidationError{Message: "empty payload", Err: errors.New(svc.name + ": empty payload")}
	}
	path, err := svc.resolver.Resolve(svc.name, endpoint.Create)
	if err != nil {
		return paged.Result{}, err
	}
	return svc.write(ctx, http.MethodPost, path, rec)
}

func (svc *Service) Update(ctx context.Context, id string, rec core.Record) (paged.Result, error) {
	if err := requireID(id); err != nil {
		return paged.Result{}, err
	}
	path, err := svc.resolver.Resolve(svc.name, endpoint.Update, id)
	if err != nil {
		return paged.Result{}, err
	}
	return svc.write(ctx, http.MethodPut, path, rec)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	path, err := svc.resolver.Resolve(svc.name, endpoint.Delete, id)
	if err != nil {
		return err
	}
	_, err = svc.fetcher.Write(ctx, http.MethodDelete, path, nil, svc.writeOptions())
	return err
}

func (svc *Service) write(ctx context.Context, method, path string, rec core.Record) (paged.Result, error) {
	body, err := svc.Encode(rec)
	if err != nil {
		return paged.Result{}, err
	}
	return svc.fetcher.Write(ctx, method, path, body, svc.writeOptions())
}

func (svc *Service) writeOptions() fetch.WriteOptions {
	return fetch.WriteOptions{UseAuth: true, Resource: svc.name, Loading: svc.opts.Loading}
}

// Encode picks multipart when one of the file fields holds a core.File, JSON otherwise.
func (svc *Service) Encode(rec core.Record) (*fetch.Body, error) {
	if rec.HasFile(svc.opts.FileFields...) {
		return fetch.MultipartBody(rec)
	}
	return fetch.JSONBody(rec)
}

// FileFields returns the fields holding binary uploads, sorted.
func (svc *Service) FileFields() []string {
	out := append([]string(nil), svc.opts.FileFields...)
	sort.Strings(out)
	return out
}

func requireID(id string) error {
	if core.CleanString(id) == "" {
		return &core.ValidationError{
			Message: "id is required",
			Fields:  []core.FieldError{{Field: "id", Error: "id is required"}},
		}
	}
	return nil
}
