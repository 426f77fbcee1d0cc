package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/micky-code/school-management-system-SMS--sub000/apps/devserver/echo"
	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/auth"
	"github.com/micky-code/school-management-system-SMS--sub000/core/school"
	"github.com/micky-code/school-management-system-SMS--sub000/core/user"
	"github.com/micky-code/school-management-system-SMS--sub000/services/logger"
	"github.com/micky-code/school-management-system-SMS--sub000/services/metrics"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/database/inmem"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/fallback"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	t.Helper()
	conf := &core.Config{
		Env:             "TEST",
		TestMode:        true,
		DashboardFanout: 5,
		DevServer:       core.DevServerConfig{SecretKey: "secret", JWTExpirationDelta: time.Hour},
	}

	// dev backend
	db := inmemdb.Open()
	db.Load(fallback.Default())
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	_, err := usrSvc.EnsureAdmin("admin", "admin123")
	require.NoError(t, err)
	srv, err := echoapi.NewServer(echoapi.ServerDeps{Conf: conf, Logger: logsvc.Nop(), DB: db, UserSvc: usrSvc, DisableReqLogs: true})
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	conf.API = core.APIConfig{
		Profile:       core.ProfileExpress,
		BaseURL:       ts.URL + echoapi.BasePath,
		PublicBaseURL: ts.URL + echoapi.BasePath + "/public",
		Timeout:       2 * time.Second,
		PageSize:      10,
	}
	reg := prometheus.NewRegistry()
	recorder, err := metricsvc.NewPrometheus(reg)
	require.NoError(t, err)
	app, err := school.New(conf, school.Deps{Recorder: recorder})
	require.NoError(t, err)

	out := new(bytes.Buffer)
	return &commandLine{app: app, out: out, metrics: reg}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string // substring of the output
}

func runTests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"smsctl"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(context.Background(), args)
			switch {
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "cli.run() error = %v, wantErr %v", err, tt.wantErr)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				require.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t)

	runTests(t, cli, out, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: "Usage: smsctl"},
		{name: "only metrics flag", args: []string{"-metrics"}, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "login: no username", args: []string{"login"}, wantErr: errHelp},
		{name: "list: no resource", args: []string{"list"}, wantErr: errHelp},
		{name: "list: unknown resource", args: []string{"list", "-resource", "lol"}, wantErrStr: `unknown resource "lol"`},
		{name: "list: bad flag", args: []string{"list", "-page", "one"}, wantErr: errHelp},
		{name: "get: no id", args: []string{"get", "-resource", "students"}, wantErr: errHelp},
		{name: "receipt: no id", args: []string{"receipt"}, wantErr: errHelp},
		{name: "whoami: logged out", args: []string{"whoami"}, wantErr: auth.ErrNoToken},
	})
}

func Test_commandLine_grade(t *testing.T) {
	cli, out := setup(t)

	runTests(t, cli, out, []cliTest{
		{name: "pass", args: []string{"grade", "-marks", "45", "-max", "100"}, wantOut: "C (45.0%)"},
		{name: "top", args: []string{"grade", "-marks", "19", "-max", "20"}, wantOut: "A+ (95.0%)"},
		{name: "default max", args: []string{"grade", "-marks", "30"}, wantOut: "F (30.0%)"},
		{name: "zero", args: []string{"grade", "-marks", "0"}, wantOut: "no grade"},
	})
}

func Test_commandLine_session(t *testing.T) {
	cli, out := setup(t)

	pwd := "wrong"
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = term.ReadPassword })

	runTests(t, cli, out, []cliTest{
		{name: "anonymous list", args: []string{"list", "-resource", "departments"}, wantOut: "3 departments"},
		{name: "bad password", args: []string{"login", "-username", "admin"}, wantErrStr: "Invalid credentials"},
	})

	pwd = "admin123"
	runTests(t, cli, out, []cliTest{
		{name: "login", args: []string{"login", "-username", "Admin"}, wantOut: "logged in as admin"},
		{name: "whoami", args: []string{"whoami"}, wantOut: "admin [admin]"},
		{name: "search", args: []string{"list", "-resource", " Students ", "-search", "kwame"}, wantOut: `"first_name": "Kwame"`},
		{name: "get", args: []string{"get", "-resource", "teachers", "-id", "1"}, wantOut: `"id": 1`},
		{name: "receipt", args: []string{"receipt", "-id", "1"}, wantOut: "REC-20240905-000001"},
		{name: "stats", args: []string{"stats"}, wantOut: "source: live"},
		{name: "delete", args: []string{"delete", "-resource", "students", "-id", "3"}, wantOut: "deleted students 3"},
		{name: "deleted", args: []string{"get", "-resource", "students", "-id", "3"}, wantErr: core.ErrNotFound},
		{name: "logout", args: []string{"logout"}, wantOut: "logged out"},
		{name: "whoami after logout", args: []string{"whoami"}, wantErr: auth.ErrNoToken},
	})
}

func Test_commandLine_metrics(t *testing.T) {
	cli, out := setup(t)

	require.NoError(t, cli.run(context.Background(), []string{"smsctl", "-metrics", "list", "-resource", "departments"}))
	assert.Contains(t, out.String(), `sms_fetch_attempts_total{outcome="ok",resource="departments",tier="public"} 1`)
	assert.Contains(t, out.String(), `sms_fetch_attempt_duration_seconds{tier="public"} count=1`)
	assert.False(t, strings.Contains(out.String(), "sms_fetch_mock_served_total"))
}
