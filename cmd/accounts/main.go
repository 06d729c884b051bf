package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/activitymap"
	"github.com/goliatone/go-accounts/config"
	"github.com/goliatone/go-accounts/mailer"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config   *config.Config
	bunDB    *bun.DB
	repo     accounts.RepositoryManager
	notifier *accounts.AsyncNotifier
	activity accounts.ActivitySink
	manager  *accounts.Manager
	srv      *fiber.App
	logger   *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(config.Defaults()).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg.Raw().ApplyDefaults(),
		logger: lgr,
	}

	if err := app.config.Validate(); err != nil {
		panic(err)
	}

	if app.config.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(app.config))
		fmt.Println("============")
	}

	app.activity = activitymap.LogSink(app.GetLogger("activity"),
		activitymap.WithChannel(app.config.Activity.Channel),
	)

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithNotifier(app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(app); err != nil {
		panic(err)
	}

	go func() {
		if err := app.srv.Listen(app.config.Listen); err != nil {
			app.GetLogger("http").Error("server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	app.GetLogger("app").Info("shutting down", "signal", sig.String())

	Shutdown(app)
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.DSN)
	if err != nil {
		return err
	}

	if err := accounts.Migrate(ctx, db, "sqlite3"); err != nil {
		return err
	}

	app.bunDB = bun.NewDB(db, sqlitedialect.New())
	app.repo = accounts.NewRepositoryManager(app.bunDB)
	app.repo.MustValidate()

	return nil
}

func WithNotifier(app *App) error {
	var transport accounts.Notifier

	smtp := mailer.Config{
		Host:     app.config.SMTP.Host,
		Port:     app.config.SMTP.Port,
		Username: app.config.SMTP.Username,
		Password: app.config.SMTP.Password,
		From:     app.config.SMTP.From,
	}

	if smtp.Configured() {
		transport = mailer.NewSMTP(smtp, app.GetLogger("mailer"))
	} else {
		app.GetLogger("mailer").Warn("smtp is not configured, emails are only logged")
		transport = mailer.NewLog(app.GetLogger("mailer"))
	}

	app.notifier = accounts.NewAsyncNotifier(transport,
		accounts.WithNotifierWorkers(app.config.Notifier.Workers),
		accounts.WithNotifierQueueSize(app.config.Notifier.QueueSize),
		accounts.WithNotifierTimeout(app.config.GetNotifierTimeout()),
		accounts.WithNotifierLogger(app.GetLogger("notifier")),
		accounts.WithNotifierActivitySink(app.activity),
	)

	return nil
}

func WithHTTPServer(app *App) error {
	views, err := accounts.NewViewEngine(nil)
	if err != nil {
		return err
	}

	app.manager = accounts.NewManager(app.repo, app.config,
		accounts.WithLogger(app.GetLogger("manager")),
		accounts.WithNotifier(app.notifier),
		accounts.WithActivitySink(app.activity),
		accounts.WithViews(views),
		accounts.WithHashedIDs(app.config.Auth.HashedIDs),
	)

	app.srv = fiber.New(fiber.Config{
		AppName:               "go-accounts",
		Views:                 views,
		DisableStartupMessage: !app.config.Debug,
	})

	controller := accounts.NewAccountController(app.manager,
		accounts.WithControllerLogger(app.GetLogger("http")),
		accounts.WithControllerDebug(app.config.Debug),
	)

	accounts.RegisterAccountRoutes(app.srv.Group("/users"), controller)

	return nil
}

func Shutdown(app *App) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	lgr := app.GetLogger("app")

	if err := app.srv.ShutdownWithContext(ctx); err != nil {
		lgr.Error("http shutdown failed", "error", err)
	}

	if err := app.notifier.Close(ctx); err != nil {
		lgr.Error("notifier shutdown failed", "error", err)
	}

	if err := app.bunDB.Close(); err != nil {
		lgr.Error("database close failed", "error", err)
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
