package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/config"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/controller"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/docstore"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/mailer"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/notify"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/outbox"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/router"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/service"
	"github.com/Gonlonge/smartplanAnskaffelse-sub001/internal/storage"
)

type App struct {
	store      *docstore.Postgres
	service    *service.Service
	controller *controller.Controller
	queue      *outbox.Queue
	cron       *cron.Cron
	stopSig    chan os.Signal
	cfg        *config.Config

	Done chan struct{}
}

type option func(*App)

func WithConfig(cfg *config.Config) option {
	return func(app *App) {
		app.cfg = cfg
	}
}

func NewApp(opts ...option) (*App, error) {
	var err error

	app := &App{
		stopSig: make(chan os.Signal, 2),
		Done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.cfg == nil {
		cfg, err := config.NewConfig()
		if err != nil {
			return nil, err
		}
		app.cfg = cfg
	}

	app.store, err = docstore.NewPostgres(nil, &app.cfg.PostgresConfig)
	if err != nil {
		return nil, err
	}

	blobs, err := storage.NewFilesystem(app.cfg.AttachmentDir)
	if err != nil {
		return nil, err
	}

	app.queue = outbox.NewQueue()
	notifier := notify.NewNotifier(app.store, mailer.NewSMTP(app.cfg.SMTPConfig))

	app.service = service.NewService(app.store, blobs, notifier, app.queue,
		service.WithStandstillDays(app.cfg.StandstillDays),
		service.WithReminderOffsets(app.cfg.ReminderOffsets),
	)
	app.controller = controller.NewController(app.service)

	return app, nil
}

func (app *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		signal.Notify(app.stopSig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		sig := <-app.stopSig
		log.Printf("Received signal: %s\n", sig)
		cancel()
	}()

	app.queue.Start(ctx)

	app.cron = cron.New()
	_, err := app.cron.AddFunc(app.cfg.ReminderSchedule, func() {
		result, err := app.service.CheckDeadlineReminders(context.Background())
		if err != nil {
			log.Println("Deadline sweep error:", err)
			return
		}
		if result.Closed > 0 || result.Reminded > 0 {
			log.Printf("Deadline sweep: closed %d, reminded %d\n", result.Closed, result.Reminded)
		}
	})
	if err != nil {
		log.Println("Could not schedule deadline sweep:", err)
	}
	app.cron.Start()

	server := http.Server{
		Addr:         app.cfg.ServerAddress,
		Handler:      router.NewRouter(app.controller),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Println("Http server error:", err)
		}
	}()

	log.Printf("Server started at %s, listening for connections...\n", app.cfg.ServerAddress)
	<-ctx.Done()

	timeout, tcancel := context.WithTimeout(context.Background(), time.Second*10)
	defer tcancel()
	log.Println("Shutting down http server...")
	server.Shutdown(timeout)

	log.Println("Stopping deadline sweep...")
	<-app.cron.Stop().Done()

	log.Println("Draining notification outbox...")
	app.queue.Wait()
	app.queue.Close()

	log.Println("Closing document store...")
	err = app.store.Close()
	if err != nil {
		log.Println("Document store closing error:", err)
	}

	close(app.Done)
	log.Println("Exiting app.")
}
