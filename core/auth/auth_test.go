package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/auth"
	"github.com/micky-code/school-management-system-SMS--sub000/core/endpoint"
	"github.com/micky-code/school-management-system-SMS--sub000/core/fetch"
	"github.com/micky-code/school-management-system-SMS--sub000/core/session"
	"github.com/micky-code/school-management-system-SMS--sub000/services/logger"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/keystore/inmem"
	"github.com/micky-code/school-management-system-SMS--sub000/tests"
)

func setup(t *testing.T) (*testutil.Backend, *session.Store, *fetch.Engine, *auth.Service) {
	t.Helper()
	b := testutil.NewBackend(t)
	store := session.NewStore(inmemstore.New(), logsvc.Nop())
	engine := fetch.NewEngine(b.Config(), store, logsvc.Nop())
	store.OnClear(engine.ClearHeaders)
	resolver, err := endpoint.NewResolver(endpoint.DefaultRegistry(), core.ProfileExpress)
	require.NoError(t, err)
	return b, store, engine, auth.NewService(engine, resolver, store, logsvc.Nop())
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "flat", body: `{"success":true,"token":"jwt-1","user":{"id":1,"username":"admin","role":"admin"}}`},
		{name: "nested data", body: `{"success":true,"data":{"token":"jwt-1","user":{"id":1,"username":"admin","role":"admin"}}}`},
		{name: "fastapi", body: `{"access_token":"jwt-1","token_type":"bearer","id":1,"username":"admin","role":"admin"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, store, _, svc := setup(t)
			b.Handle(testutil.Primary, http.MethodPost, "/auth/login", testutil.JSON(tt.body))

			user, err := svc.Login(context.Background(), auth.Credentials{Username: " admin ", Password: "admin123"})
			require.NoError(t, err)
			assert.Equal(t, "admin", user.String("username"))
			assert.Equal(t, "jwt-1", store.Token())

			info, err := store.UserInfo()
			require.NoError(t, err)
			assert.Equal(t, "admin", info.String("role"))
			_, hasToken := info["access_token"]
			assert.False(t, hasToken)

			req := b.Requests(testutil.Primary)[0]
			assert.Empty(t, req.Header.Get("Authorization"))
			var sent map[string]string
			require.NoError(t, json.Unmarshal(req.Body, &sent))
			assert.Equal(t, map[string]string{"username": "admin", "password": "admin123"}, sent)
		})
	}
}

func TestLogin_rejected(t *testing.T) {
	b, store, _, svc := setup(t)
	b.Handle(testutil.Primary, http.MethodPost, "/auth/login", testutil.Reply{Status: http.StatusUnauthorized, Body: `{"success":false,"message":"Invalid credentials"}`})

	_, err := svc.Login(context.Background(), auth.Credentials{Username: "admin", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.False(t, core.IsSessionExpired(err))
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.False(t, store.IsAuthenticated())
	assert.Zero(t, b.Hits(testutil.Direct))
}

func TestLogin_invalidInput(t *testing.T) {
	b, _, _, svc := setup(t)

	_, err := svc.Login(context.Background(), auth.Credentials{Username: "  "})
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"username": "this field is required",
		"password": "this field is required",
	}, verr.FieldMap())
	assert.Zero(t, b.Hits(testutil.Primary))
}

func TestLogin_noToken(t *testing.T) {
	b, store, _, svc := setup(t)
	b.Handle(testutil.Primary, http.MethodPost, "/auth/login", testutil.JSON(`{"success":true,"user":{"id":1}}`))

	_, err := svc.Login(context.Background(), auth.Credentials{Username: "admin", Password: "admin123"})
	assert.True(t, errors.Is(err, auth.ErrNoToken))
	assert.False(t, store.IsAuthenticated())
}

func TestRegister(t *testing.T) {
	b, store, _, svc := setup(t)
	b.Handle(testutil.Primary, http.MethodPost, "/auth/register", testutil.Reply{Status: http.StatusCreated, Body: `{"success":true,"data":{"user":{"id":3,"username":"ama"}}}`})

	_, err := svc.Register(context.Background(), auth.Registration{Username: "ama", Email: "not-an-email", Password: "secret1"})
	assert.True(t, core.IsValidation(err))

	user, err := svc.Register(context.Background(), auth.Registration{Username: "ama", Email: "Ama@Example.EDU", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "3", user.IDString())
	assert.False(t, store.IsAuthenticated())

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(b.Requests(testutil.Primary)[0].Body, &sent))
	assert.Equal(t, "ama@example.edu", sent["email"])
}

func TestUpdatePassword(t *testing.T) {
	b, store, _, svc := setup(t)
	require.NoError(t, store.SetToken("jwt-1"))
	b.Handle(testutil.Primary, http.MethodPut, "/auth/update-password", testutil.JSON(`{"success":true,"message":"Password updated"}`))

	err := svc.UpdatePassword(context.Background(), auth.PasswordChange{CurrentPassword: "same12", NewPassword: "same12"})
	assert.True(t, core.IsValidation(err))

	require.NoError(t, svc.UpdatePassword(context.Background(), auth.PasswordChange{CurrentPassword: "old123", NewPassword: "new123"}))
	reqs := b.Requests(testutil.Primary)
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer jwt-1", reqs[0].Header.Get("Authorization"))
}

func TestProfile(t *testing.T) {
	b, store, _, svc := setup(t)
	require.NoError(t, store.SetToken("jwt-1"))
	require.NoError(t, store.SetUserInfo(core.Record{"id": 1.0, "username": "cached"}))

	b.Handle(testutil.Primary, http.MethodGet, "/auth/profile", testutil.JSON(`{"user":{"id":1,"username":"admin"}}`))
	user, mock, err := svc.Profile(context.Background())
	require.NoError(t, err)
	assert.False(t, mock)
	assert.Equal(t, "admin", user.String("username"))
	info, _ := store.UserInfo()
	assert.Equal(t, "admin", info.String("username"))

	for _, srv := range []string{testutil.Primary, testutil.Public, testutil.Direct} {
		b.Handle(srv, http.MethodGet, "/auth/profile", testutil.Reply{Status: http.StatusBadGateway})
	}
	user, mock, err = svc.Profile(context.Background())
	require.NoError(t, err)
	assert.True(t, mock)
	assert.Equal(t, "admin", user.String("username"))
}

func TestLogout(t *testing.T) {
	_, store, engine, svc := setup(t)
	require.NoError(t, store.SetToken("jwt-1"))
	require.NoError(t, store.SetUserInfo(core.Record{"id": 1.0}))
	engine.SetHeader("X-School-Id", "7")

	require.NoError(t, svc.Logout())
	assert.False(t, store.IsAuthenticated())
	info, err := store.UserInfo()
	require.NoError(t, err)
	assert.Nil(t, info)
	assert.Empty(t, engine.Headers())
}
