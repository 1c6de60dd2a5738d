package main

import (
	"context"
	"log"
	"net"
	"os"

	"github.com/trezcool/tamasha/apps/api/echo"
	"github.com/trezcool/tamasha/core"
	"github.com/trezcool/tamasha/core/event"
	"github.com/trezcool/tamasha/core/registration"
	"github.com/trezcool/tamasha/core/user"
	emailsvc "github.com/trezcool/tamasha/services/email"
	logsvc "github.com/trezcool/tamasha/services/logger"
	storagesvc "github.com/trezcool/tamasha/services/storage"
	"github.com/trezcool/tamasha/storage/database"
	sqlxrepos "github.com/trezcool/tamasha/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}
	logger.Enable(!core.Conf.Debug)

	if err := run(logger); err != nil {
		logger.Fatal("api: startup failed", err)
	}
}

func run(logger core.Logger) error {
	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return err
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := database.Migrate(db.DB); err != nil {
		return err
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	var fileStorage core.FileStorage
	if core.Conf.Storage.Backend == "gcs" {
		fileStorage, err = storagesvc.NewGCSService(context.Background())
	} else {
		fileStorage, err = storagesvc.NewLocalService()
	}
	if err != nil {
		return err
	}

	usrRepo := sqlxrepos.NewUserRepository(db)
	evtRepo := sqlxrepos.NewEventRepository(db)
	regRepo := sqlxrepos.NewRegistrationRepository(db)

	usrSvc := user.NewService(usrRepo)
	evtSvc := event.NewService(evtRepo)
	regSvc := registration.NewService(regRepo, evtRepo, mailSvc, logger)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:  net.JoinHostPort(core.Conf.Server.Host, core.Conf.Server.Port),
			UserSvc:  usrSvc,
			EventSvc: evtSvc,
			RegSvc:   regSvc,
			Storage:  fileStorage,
			Logger:   logger,
		},
	)
	app.Start()
	return nil
}
