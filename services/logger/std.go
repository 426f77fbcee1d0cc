package logsvc

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

// StdLogger writes leveled lines to a *log.Logger. Debug lines are dropped unless debug is set.
type StdLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger, debug bool) *StdLogger {
	return &StdLogger{std: std, debug: debug}
}

func (l StdLogger) line(level, msg string, args []interface{}) string {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)
	for _, arg := range args {
		b.WriteString(" | ")
		_, _ = fmt.Fprintf(&b, "%v", arg)
	}
	return b.String()
}

func (l StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.std.Println(l.line("DEBUG", msg, args))
	}
}

func (l StdLogger) Info(msg string, args ...interface{}) {
	l.std.Println(l.line("INFO", msg, args))
}

func (l StdLogger) Warn(msg string, args ...interface{}) {
	l.std.Println(l.line("WARN", msg, args))
}

func (l StdLogger) Error(msg string, args ...interface{}) {
	l.std.Println(l.line("ERROR", msg, args))
}

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	l.std.Fatal(l.line("FATAL", msg, args))
}

// Nop returns a logger that discards everything. Fatal still exits.
func Nop() *StdLogger {
	return NewStdLogger(log.New(io.Discard, "", 0), false)
}
