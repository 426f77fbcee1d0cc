// Package school wires the session store, the fetch engine and every façade from a Config.
package school

import (
	"time"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/auth"
	"github.com/micky-code/school-management-system-SMS--sub000/core/dashboard"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/core/fetch"
	"github.com/micky-code/school-management-system-SMS--sub000/core/grade"
	"github.com/micky-code/school-management-system-SMS--sub000/core/payment"
	"github.com/micky-code/school-management-system-SMS--sub000/core/resource"
	"github.com/micky-code/school-management-system-SMS--sub000/core/session"
	"github.com/micky-code/school-management-system-SMS--sub000/services/logger"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/fallback"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/keystore/file"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/keystore/inmem"
)

// FileFields lists, per entity, the fields that may carry an upload.
var FileFields = map[string][]string{
	endpoint.Students: {"photo", "profile_image"},
	endpoint.Teachers: {"photo", "profile_image"},
	endpoint.Users:    {"avatar", "profile_picture"},
}

// Deps are the optional collaborators of New. Zero values take defaults.
type Deps struct {
	Logger core.Logger
	// Session defaults to a file store at Config.SessionPath, or memory when it is empty.
	Session  session.Backend
	Client   fetch.Doer
	Recorder fetch.Recorder
	Datasets *fallback.Registry
	Registry endpoint.Registry
	Loading  fetch.Loading
	Now      func() time.Time
}

type App struct {
	Config    *core.Config
	Logger    core.Logger
	Session   *session.Store
	Engine    *fetch.Engine
	Resolver  *endpoint.Resolver
	Datasets  *fallback.Registry
	Auth      *auth.Service
	Grades    *grade.Service
	Payments  *payment.Service
	Dashboard *dashboard.Aggregator

	Students      *resource.Service
	Teachers      *resource.Service
	Departments   *resource.Service
	Programs      *resource.Service
	Majors        *resource.Service
	Subjects      *resource.Service
	Batches       *resource.Service
	AcademicYears *resource.Service
	Attendance    *resource.Service
	Exams         *resource.Service
	Parents       *resource.Service
	Users         *resource.Service

	services map[string]*resource.Service
}

func New(conf *core.Config, deps Deps) (*App, error) {
	if conf == nil {
		return nil, errors.New("school: nil config")
	}
	if deps.Logger == nil {
		deps.Logger = logsvc.Nop()
	}
	if deps.Session == nil {
		backend, err := sessionBackend(conf.SessionPath)
		if err != nil {
			return nil, err
		}
		deps.Session = backend
	}
	if deps.Datasets == nil {
		deps.Datasets = fallback.Default()
	}
	if deps.Registry == nil {
		deps.Registry = endpoint.DefaultRegistry()
	}

	resolver, err := endpoint.NewResolver(deps.Registry, conf.API.Profile)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(deps.Session, deps.Logger)
	var opts []fetch.Option
	if deps.Client != nil {
		opts = append(opts, fetch.WithClient(deps.Client))
	}
	if deps.Recorder != nil {
		opts = append(opts, fetch.WithRecorder(deps.Recorder))
	}
	if deps.Now != nil {
		opts = append(opts, fetch.WithClock(deps.Now))
	}
	engine := fetch.NewEngine(fetch.ConfigFrom(conf.API), store, deps.Logger, opts...)
	store.OnClear(engine.ClearHeaders)

	app := &App{
		Config:   conf,
		Logger:   deps.Logger,
		Session:  store,
		Engine:   engine,
		Resolver: resolver,
		Datasets: deps.Datasets,
		services: make(map[string]*resource.Service, len(endpoint.Entities)),
	}
	for _, name := range endpoint.Entities {
		app.services[name] = resource.NewService(name, engine, resolver, deps.Datasets, resource.Options{
			PageSize:   conf.API.PageSize,
			FileFields: FileFields[name],
			Loading:    deps.Loading,
		})
	}

	app.Students = app.services[endpoint.Students]
	app.Teachers = app.services[endpoint.Teachers]
	app.Departments = app.services[endpoint.Departments]
	app.Programs = app.services[endpoint.Programs]
	app.Majors = app.services[endpoint.Majors]
	app.Subjects = app.services[endpoint.Subjects]
	app.Batches = app.services[endpoint.Batches]
	app.AcademicYears = app.services[endpoint.AcademicYears]
	app.Attendance = app.services[endpoint.Attendance]
	app.Exams = app.services[endpoint.Exams]
	app.Parents = app.services[endpoint.Parents]
	app.Users = app.services[endpoint.Users]
	app.Grades = grade.NewService(app.services[endpoint.Grades])
	app.Payments = payment.NewService(app.services[endpoint.Payments], deps.Now)

	app.Auth = auth.NewService(engine, resolver, store, deps.Logger)
	app.Dashboard = dashboard.NewAggregator(engine, resolver, dashboard.Sources{
		Departments:   app.Departments,
		Programs:      app.Programs,
		AcademicYears: app.AcademicYears,
		Students:      app.Students,
		Teachers:      app.Teachers,
	}, deps.Datasets, conf.DashboardFanout, deps.Logger)
	return app, nil
}

// Resource returns the generic façade of an entity.
func (app *App) Resource(name string) (*resource.Service, bool) {
	svc, ok := app.services[name]
	return svc, ok
}

func sessionBackend(path string) (session.Backend, error) {
	if path == "" {
		return inmemstore.New(), nil
	}
	backend, err := filestore.New(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening session store")
	}
	return backend, nil
}
