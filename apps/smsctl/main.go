// Command smsctl is a terminal client of the school management backend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/school"
	"github.com/micky-code/school-management-system-SMS--sub000/services/logger"
	"github.com/micky-code/school-management-system-SMS--sub000/services/metrics"
)

func main() {
	logger := log.New(os.Stderr, "SMS : ", log.LstdFlags)

	conf, err := core.NewConfig(".")
	errAndDie(logger, err)
	if conf.SessionPath == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			conf.SessionPath = filepath.Join(dir, "smsctl", "session.json")
		}
	}

	reg := prometheus.NewRegistry()
	recorder, err := metricsvc.NewPrometheus(reg)
	errAndDie(logger, err)

	var app *school.App
	var lg core.Logger = logsvc.NewStdLogger(logger, conf.Debug && os.Getenv("SMS_VERBOSE") != "")
	if conf.RollbarToken != "" {
		lg = logsvc.NewRollbarLogger(logger, conf, func() (core.Record, error) {
			if app == nil {
				return nil, nil
			}
			return app.Session.UserInfo()
		})
	}

	app, err = school.New(conf, school.Deps{Logger: lg, Recorder: recorder})
	errAndDie(logger, err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli := commandLine{app: app, out: os.Stdout, metrics: reg}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			logger.Printf("error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func errAndDie(logger *log.Logger, err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
