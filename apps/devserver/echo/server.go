// Package echoapi serves a stub of the school backend for local development and integration tests.
package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/core/user"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/database/inmem"
)

// BasePath prefixes every API route. The public tier lives under BasePath + "/public".
const BasePath = "/api"

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DB             *inmemdb.DB
		UserSvc        *user.Service
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start() error
		Shutdown(ctx context.Context) error
	}

	server struct {
		ServerDeps
		app      *echo.Echo
		auth     *authenticator
		resolver *endpoint.Resolver
		uploads  *uploads
	}
)

var _ Server = (*server)(nil)

// NewServer routes the express profile of the registry onto the in-memory tables.
func NewServer(deps ServerDeps) (Server, error) {
	resolver, err := endpoint.NewResolver(endpoint.DefaultRegistry(), core.ProfileExpress)
	if err != nil {
		return nil, err
	}
	s := &server{
		ServerDeps: deps,
		app:        echo.New(),
		auth:       newAuthenticator(deps.Conf),
		resolver:   resolver,
		uploads:    newUploads(),
	}
	s.setup()
	return s, nil
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger)

	s.app.GET("/", home)
	s.app.GET("/uploads/:name", s.uploads.serve)

	api := s.app.Group(BasePath)
	jwt := middleware.JWTWithConfig(s.auth.config)

	s.registerAccountAPI(api, jwt)
	s.registerDashboardAPI(api, jwt)
	s.registerResourceAPI(api, jwt)
}

func (s *server) Start() error {
	return s.app.Start(s.Conf.DevServer.Address)
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "School management dev backend")
}
