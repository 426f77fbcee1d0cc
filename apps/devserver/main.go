// Command devserver runs the stub school backend on the configured address.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/apps/devserver/echo"
	"github.com/micky-code/school-management-system-SMS--sub000/core"
	"github.com/micky-code/school-management-system-SMS--sub000/core/user"
	"github.com/micky-code/school-management-system-SMS--sub000/services/logger"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/database/inmem"
	"github.com/micky-code/school-management-system-SMS--sub000/storage/fallback"
)

const shutdownTimeout = 5 * time.Second

func main() {
	conf, err := core.NewConfig(".")
	if err != nil {
		log.Fatalf("loading config: %+v", err)
	}

	std := log.New(os.Stdout, "DEV : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewStdLogger(std, conf.Debug)

	db, usrSvc, err := seed(conf, fallback.Default())
	if err != nil {
		logger.Fatal(fmt.Sprintf("seeding database: %v", err), err)
	}

	server, err := echoapi.NewServer(echoapi.ServerDeps{
		Conf:    conf,
		Logger:  logger,
		DB:      db,
		UserSvc: usrSvc,
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up server: %v", err), err)
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("listening on %s%s", conf.DevServer.Address, echoapi.BasePath))
		errs <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err = <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)
		}
	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
	logger.Info("Application stopped")
}

// seed loads every dataset of reg into a fresh database and creates the admin account.
func seed(conf *core.Config, reg *fallback.Registry) (*inmemdb.DB, *user.Service, error) {
	db := inmemdb.Open()
	db.Load(reg)
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	if _, err := usrSvc.EnsureAdmin(conf.DevServer.AdminUsername, conf.DevServer.AdminPassword); err != nil {
		return nil, nil, errors.Wrap(err, "creating admin")
	}
	return db, usrSvc, nil
}
