// Package dashboard composes the consolidated statistics of the home screen.
package dashboard

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/core/fetch"
	"github.com/micky-code/school-management-system-SMS--sub000/core/paged"
	"github.com/micky-code/school-management-system-SMS--sub000/core/resource"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/fallback"
)

// Sources of Stats.
const (
	SourceLive      = "live"      // the aggregate endpoint answered
	SourceCompiled  = "compiled"  // counted from the entity lists
	SourceSynthetic = "synthetic" // fixed figures
)

// Stats fields, as named in JSON and in Stats.Estimated.
const (
	FieldDepartments   = "total_departments"
	FieldPrograms      = "total_programs"
	FieldAcademicYears = "total_academic_years"
	FieldStudents      = "total_students"
	FieldTeachers      = "total_teachers"
)

var statKeys = map[string][]string{
	FieldDepartments:   {FieldDepartments, "totalDepartments", "departments"},
	FieldPrograms:      {FieldPrograms, "totalPrograms", "programs"},
	FieldAcademicYears: {FieldAcademicYears, "totalAcademicYears", "academic_years", "academicYears"},
	FieldStudents:      {FieldStudents, "totalStudents", "students"},
	FieldTeachers:      {FieldTeachers, "totalTeachers", "teachers"},
}

type Stats struct {
	Departments   int    `json:"total_departments"`
	Programs      int    `json:"total_programs"`
	AcademicYears int    `json:"total_academic_years"`
	Students      int    `json:"total_students"`
	Teachers      int    `json:"total_teachers"`
	Source        string `json:"source"`
	// Estimated names the fields holding heuristic figures.
	Estimated []string `json:"estimated,omitempty"`
	// Mock is set when any figure comes from fallback data.
	Mock bool `json:"_isMockData,omitempty"`
	// Raw is the verbatim payload of the aggregate endpoint.
	Raw core.Record `json:"-"`
}

// IsEstimated reports whether field holds a heuristic figure.
func (s Stats) IsEstimated(field string) bool {
	for _, f := range s.Estimated {
		if f == field {
			return true
		}
	}
	return false
}

type (
	Fetcher interface {
		Fetch(ctx context.Context, path string, opts fetch.Options) (paged.Result, error)
	}

	// Counter lists an entity. Only Count of the first page is used.
	Counter interface {
		GetAll(ctx context.Context, q resource.Query) (paged.Result, error)
	}

	Datasets interface {
		Get(resource string) ([]core.Record, bool)
	}

	Sources struct {
		Departments   Counter
		Programs      Counter
		AcademicYears Counter
		Students      Counter
		Teachers      Counter
	}

	Aggregator struct {
		fetcher  Fetcher
		resolver *endpoint.Resolver
		sources  Sources
		datasets Datasets
		fanout   int
		logger   core.Logger
	}
)

const defaultFanout = 5

func NewAggregator(fetcher Fetcher, resolver *endpoint.Resolver, sources Sources, datasets Datasets, fanout int, logger core.Logger) *Aggregator {
	if fanout < 1 {
		fanout = defaultFanout
	}
	return &Aggregator{
		fetcher:  fetcher,
		resolver: resolver,
		sources:  sources,
		datasets: datasets,
		fanout:   fanout,
		logger:   logger,
	}
}

// Stats returns the aggregate endpoint's figures, or figures compiled from the entity lists,
// or fixed synthetic figures when nothing could be counted. It fails on cancellation of ctx, and
// with the SessionExpiredError or ConnectionExhaustedError every source failed with.
func (a *Aggregator) Stats(ctx context.Context) (Stats, error) {
	if s, ok := a.live(ctx); ok {
		return s, nil
	}
	if err := ctx.Err(); err != nil {
		return Stats{}, errors.Wrap(err, "dashboard stats")
	}

	s, err := a.compile(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Stats{}, errors.Wrap(ctx.Err(), "dashboard stats")
		}
		if isTerminal(err) {
			return Stats{}, errors.Wrap(err, "dashboard stats")
		}
		a.logger.Warn("compiling dashboard stats failed, serving synthetic figures", err)
		return Synthetic(), nil
	}
	return s, nil
}

func (a *Aggregator) live(ctx context.Context) (Stats, bool) {
	path, err := a.resolver.Resolve(endpoint.Dashboard, endpoint.Stats)
	if err != nil {
		a.logger.Debug("no aggregate stats endpoint", err)
		return Stats{}, false
	}
	res, err := a.fetcher.Fetch(ctx, path, fetch.Options{UseAuth: true, Resource: endpoint.Dashboard})
	if err != nil {
		a.logger.Warn("aggregate stats unavailable", err)
		return Stats{}, false
	}
	rec, ok := res.First()
	if !ok {
		return Stats{}, false
	}
	if inner, ok := rec["stats"].(map[string]interface{}); ok {
		rec = core.Record(inner)
	}

	s := Stats{Source: SourceLive, Raw: rec}
	found := 0
	for field, keys := range statKeys {
		if n, ok := rec.Int(keys...); ok {
			s.set(field, n)
			found++
		}
	}
	if found == 0 {
		a.logger.Warn("aggregate stats payload carries no known figure", map[string]interface{}{"keys": len(rec)})
		return Stats{}, false
	}
	return s, true
}

func (s *Stats) set(field string, n int) {
	switch field {
	case FieldDepartments:
		s.Departments = n
	case FieldPrograms:
		s.Programs = n
	case FieldAcademicYears:
		s.AcademicYears = n
	case FieldStudents:
		s.Students = n
	case FieldTeachers:
		s.Teachers = n
	}
}

type count struct {
	n    int
	ok   bool
	mock bool
}

// compile counts every source concurrently. A failing source counts as missing; it only fails
// when every source did.
func (a *Aggregator) compile(ctx context.Context) (Stats, error) {
	fields := []string{FieldDepartments, FieldPrograms, FieldAcademicYears, FieldStudents, FieldTeachers}
	counters := []Counter{a.sources.Departments, a.sources.Programs, a.sources.AcademicYears, a.sources.Students, a.sources.Teachers}
	counts := make([]count, len(counters))

	var (
		mu       sync.Mutex
		failures []error
	)
	var g errgroup.Group
	g.SetLimit(a.fanout)
	for i, c := range counters {
		i, c := i, c
		if c == nil {
			continue
		}
		g.Go(func() error {
			res, err := c.GetAll(ctx, resource.Query{Page: 1, Limit: 1})
			if err != nil {
				a.logger.Warn("counting "+fields[i]+" failed", err)
				mu.Lock()
				failures = append(failures, errors.Wrap(err, fields[i]))
				mu.Unlock()
				return nil
			}
			counts[i] = count{n: res.Count, ok: true, mock: res.Mock}
			return nil
		})
	}
	_ = g.Wait()

	s := Stats{Source: SourceCompiled}
	okCount := 0
	for i, c := range counts {
		if !c.ok {
			continue
		}
		okCount++
		s.set(fields[i], c.n)
		s.Mock = s.Mock || c.mock
	}
	if okCount == 0 {
		if len(failures) > 0 {
			if allTerminal(failures) {
				return Stats{}, errors.Wrapf(mostUrgent(failures), "all %d sources failed", len(failures))
			}
			return Stats{}, errors.Errorf("all %d sources failed: %v", len(failures), failures[0])
		}
		return Stats{}, errors.New("no sources configured")
	}

	if !counts[3].ok || counts[3].n == 0 {
		s.Students = EstimateStudents(s.Departments, s.Programs)
		s.Estimated = append(s.Estimated, FieldStudents)
	}
	if !counts[4].ok || counts[4].n == 0 {
		s.Teachers = EstimateTeachers(s.Departments, s.Programs)
		s.Estimated = append(s.Estimated, FieldTeachers)
	}
	return s, nil
}

// isTerminal reports errors retrying elsewhere cannot fix: the caller must log in again or back off.
func isTerminal(err error) bool {
	return core.IsSessionExpired(err) || core.IsConnectionExhausted(err)
}

func allTerminal(errs []error) bool {
	for _, err := range errs {
		if !isTerminal(err) {
			return false
		}
	}
	return true
}

// mostUrgent prefers a SessionExpiredError: logging in again is the first thing to do.
func mostUrgent(errs []error) error {
	for _, err := range errs {
		if core.IsSessionExpired(err) {
			return err
		}
	}
	return errs[0]
}

// EstimateStudents is max(departments*50, programs*25, 100).
func EstimateStudents(departments, programs int) int {
	return maxOf(departments*50, programs*25, 100)
}

// EstimateTeachers is max(departments*8, programs*4, 10).
func EstimateTeachers(departments, programs int) int {
	return maxOf(departments*8, programs*4, 10)
}

func maxOf(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v > m {
			m = v
		}
	}
	return m
}

// Synthetic returns the fixed figures served when nothing could be counted.
func Synthetic() Stats {
	return Stats{
		Departments:   5,
		Programs:      12,
		AcademicYears: 3,
		Students:      1250,
		Teachers:      85,
		Source:        SourceSynthetic,
		Estimated:     []string{FieldDepartments, FieldPrograms, FieldAcademicYears, FieldStudents, FieldTeachers},
		Mock:          true,
	}
}

// RecentActivity lists the latest events, with fallback data.
func (a *Aggregator) RecentActivity(ctx context.Context) (paged.Result, error) {
	return a.list(ctx, endpoint.RecentActivity, fallback.RecentActivity)
}

// UpcomingExams lists the next exams, with fallback data.
func (a *Aggregator) UpcomingExams(ctx context.Context) (paged.Result, error) {
	return a.list(ctx, endpoint.UpcomingExams, fallback.UpcomingExams)
}

func (a *Aggregator) list(ctx context.Context, action, dataset string) (paged.Result, error) {
	path, err := a.resolver.Resolve(endpoint.Dashboard, action)
	if err != nil {
		return paged.Result{}, err
	}
	var rows []core.Record
	if a.datasets != nil {
		rows, _ = a.datasets.Get(dataset)
	}
	return a.fetcher.Fetch(ctx, path, fetch.Options{UseAuth: true, Resource: dataset, Fallback: rows})
}
