package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/core/user"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Success bool        `json:"success"`
		Token   string      `json:"token"`
		User    core.Record `json:"user"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.ValidateStruct(lr)
}

func (s *server) registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	// un-authed endpoints
	g.POST(s.resolver.MustResolve(endpoint.Auth, endpoint.Login), s.login)
	g.POST(s.resolver.MustResolve(endpoint.Auth, endpoint.Register), s.register)

	// authed endpoints
	g.GET(s.resolver.MustResolve(endpoint.Auth, endpoint.Me), s.profile, jwt)
	g.PUT(s.resolver.MustResolve(endpoint.Auth, endpoint.UpdatePassword), s.updatePassword, jwt)
}

func (s *server) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := s.UserSvc.Authenticate(data.Username, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case user.ErrInvalidCredentials:
			return errAuthenticationFailed
		case user.ErrDeactivated:
			return errAccountDeactivated
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := s.auth.GenerateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Success: true, Token: token, User: usr.Record()})
}

func (s *server) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(s.UserSvc); err != nil {
		return err
	}
	// only an admin can hand out roles above student
	if data.Role != "" && data.Role != user.RoleStudent {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: "not enough rights to set this role"})
	}

	usr, err := s.UserSvc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "message": "User registered", "user": usr.Record()})
}

func (s *server) profile(ctx echo.Context) error {
	usr, err := s.auth.contextUser(ctx, s.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "data": usr.Record()})
}

func (s *server) updatePassword(ctx echo.Context) error {
	usr, err := s.auth.contextUser(ctx, s.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data user.PasswordChange
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordChange")
	}
	if err := s.UserSvc.ChangePassword(usr.ID, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password updated"})
}
