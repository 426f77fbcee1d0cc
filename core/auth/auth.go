// Package auth runs the login and logout flows and keeps the session store in sync.
package auth

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/core/fetch"
	"github.com/micky-code/school-management-system-SMS--sub000/core/paged"
	"github.com/micky-code/school-management-system-SMS--sub000/core/session"
)

// ErrNoToken is returned when a login answer carries no token.
var ErrNoToken = errors.New("login response carries no token")

type (
	Fetcher interface {
		Fetch(ctx context.Context, path string, opts fetch.Options) (paged.Result, error)
		Send(ctx context.Context, method, path string, body *fetch.Body, opts fetch.WriteOptions) (*fetch.Response, error)
	}

	Credentials struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	Registration struct {
		Name     string `json:"name,omitempty"`
		Username string `json:"username" validate:"required,alphanum_"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Role     string `json:"role,omitempty"`
	}

	PasswordChange struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
	}

	Service struct {
		fetcher  Fetcher
		resolver *endpoint.Resolver
		session  *session.Store
		logger   core.Logger
	}
)

func NewService(fetcher Fetcher, resolver *endpoint.Resolver, store *session.Store, logger core.Logger) *Service {
	return &Service{fetcher: fetcher, resolver: resolver, session: store, logger: logger}
}

// Login posts the credentials and persists the returned token and user profile.
// Login never sends a bearer token, so a 401 is a ValidationError (bad credentials).
func (svc *Service) Login(ctx context.Context, creds Credentials) (core.Record, error) {
	creds.Username = core.CleanString(creds.Username)
	if err := core.ValidateStruct(creds); err != nil {
		return nil, err
	}
	ans, err := svc.post(ctx, endpoint.Login, creds)
	if err != nil {
		return nil, err
	}
	token, user := tokenOf(ans), userOf(ans)
	if token == "" {
		return nil, ErrNoToken
	}
	if err := svc.session.SetToken(token); err != nil {
		return nil, err
	}
	if err := svc.session.SetUserInfo(user); err != nil {
		return nil, err
	}
	svc.logger.Info("logged in", map[string]interface{}{"username": creds.Username})
	return user, nil
}

// Register creates an account. A token in the answer logs the new user in.
func (svc *Service) Register(ctx context.Context, reg Registration) (core.Record, error) {
	reg.Username = core.CleanString(reg.Username)
	reg.Email = core.CleanString(reg.Email, true /* lower */)
	if err := core.ValidateStruct(reg); err != nil {
		return nil, err
	}
	ans, err := svc.post(ctx, endpoint.Register, reg)
	if err != nil {
		return nil, err
	}
	user := userOf(ans)
	if token := tokenOf(ans); token != "" {
		if err := svc.session.SetToken(token); err != nil {
			return nil, err
		}
		if err := svc.session.SetUserInfo(user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// UpdatePassword changes the password of the current user.
func (svc *Service) UpdatePassword(ctx context.Context, change PasswordChange) error {
	if err := core.ValidateStruct(change); err != nil {
		return err
	}
	path, err := svc.resolver.Resolve(endpoint.Auth, endpoint.UpdatePassword)
	if err != nil {
		return err
	}
	body, err := fetch.JSONBody(change)
	if err != nil {
		return err
	}
	_, err = svc.fetcher.Send(ctx, http.MethodPut, path, body, fetch.WriteOptions{UseAuth: true, Resource: endpoint.Auth})
	return err
}

// Logout clears the token and the user profile. It makes no request.
func (svc *Service) Logout() error {
	return svc.session.Logout()
}

// Profile returns the profile of the current user. The stored profile is served as mock data
// when the backend cannot be reached; a live answer refreshes it.
func (svc *Service) Profile(ctx context.Context) (core.Record, bool, error) {
	path, err := svc.resolver.Resolve(endpoint.Auth, endpoint.Me)
	if err != nil {
		return nil, false, err
	}
	var fallback []core.Record
	if info, err := svc.session.UserInfo(); err == nil && info != nil {
		fallback = []core.Record{info}
	}
	res, err := svc.fetcher.Fetch(ctx, path, fetch.Options{UseAuth: true, Resource: endpoint.Auth, Fallback: fallback})
	if err != nil {
		return nil, false, err
	}
	rec, ok := res.First()
	if !ok {
		return nil, res.Mock, errors.Wrap(core.ErrNotFound, "profile")
	}
	if u, ok := rec["user"].(map[string]interface{}); ok {
		rec = core.Record(u)
	}
	if !res.Mock {
		if err := svc.session.SetUserInfo(rec); err != nil {
			svc.logger.Warn("storing profile", err)
		}
	}
	return rec, res.Mock, nil
}

func (svc *Service) post(ctx context.Context, action string, payload interface{}) (core.Record, error) {
	path, err := svc.resolver.Resolve(endpoint.Auth, action)
	if err != nil {
		return nil, err
	}
	body, err := fetch.JSONBody(payload)
	if err != nil {
		return nil, err
	}
	resp, err := svc.fetcher.Send(ctx, http.MethodPost, path, body, fetch.WriteOptions{Resource: endpoint.Auth})
	if err != nil {
		return nil, err
	}
	var ans core.Record
	if err := resp.Decode(&ans); err != nil {
		return nil, errors.Wrap(core.ErrUnusableBody, err.Error())
	}
	if ok, isBool := ans["success"].(bool); isBool && !ok {
		msg := ans.String("message", "error")
		return nil, &core.ValidationError{Status: resp.Status, Message: msg, Err: errors.New(msg)}
	}
	return ans, nil
}

// tokenOf probes the usual places a backend puts the token.
func tokenOf(ans core.Record) string {
	if t := ans.String("token", "accessToken", "access_token"); t != "" {
		return t
	}
	if data, ok := ans["data"].(map[string]interface{}); ok {
		return core.Record(data).String("token", "accessToken", "access_token")
	}
	return ""
}

func userOf(ans core.Record) core.Record {
	for _, src := range []core.Record{ans, nested(ans, "data")} {
		if u, ok := src["user"].(map[string]interface{}); ok {
			return core.Record(u)
		}
	}
	user := ans.Clone()
	for _, k := range []string{"token", "accessToken", "access_token", "token_type", "success", "message"} {
		delete(user, k)
	}
	return user
}

func nested(rec core.Record, key string) core.Record {
	if m, ok := rec[key].(map[string]interface{}); ok {
		return core.Record(m)
	}
	return nil
}
