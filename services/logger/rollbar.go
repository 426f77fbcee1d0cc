package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

// UserInfoFunc returns the profile of the current user, if any.
type UserInfoFunc func() (core.Record, error)

type RollbarLogger struct {
	std      *log.Logger
	userInfo UserInfoFunc
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger reports to rollbar and echoes every entry to `std`.
// Reporting is disabled when no rollbar token is configured.
func NewRollbarLogger(std *log.Logger, conf *core.Config, userInfo UserInfoFunc) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetServerRoot("github.com/micky-code/school-management-system-SMS--sub000")
	rollbar.SetStackTracer(errors.StackTracer)
	l := &RollbarLogger{std: std, userInfo: userInfo}
	l.Enable(conf.RollbarToken != "" && !conf.TestMode)
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}
// the current session user is attached as the rollbar person.
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	newArgs = append(newArgs, args...)

	if l.userInfo != nil {
		if usr, err := l.userInfo(); err == nil && usr != nil {
			rollbar.SetPerson(usr.IDString(), usr.String("username", "name"), usr.String("email"))
			return newArgs
		}
	}
	rollbar.ClearPerson()
	return newArgs
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	rollbar.Wait()
	l.print(msg, args)
	l.std.Fatal(msg)
}
