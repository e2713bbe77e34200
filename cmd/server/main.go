package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/justcars/go-dealer-auth"
	"github.com/justcars/go-dealer-auth/cmd/server/config"
	"github.com/justcars/go-dealer-auth/notify"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	repo   dealer.RepositoryManager
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("dealer-auth"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(app); err != nil {
		panic(err)
	}

	app.srv.Serve(app.Config().GetApp().GetAddress())

	WaitExitSignal()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		log.Fatal(err)
		return err
	}

	persistence.RegisterModel((*dealer.Dealer)(nil))
	persistence.RegisterModel((*dealer.Admin)(nil))
	persistence.RegisterModel((*dealer.DealerSession)(nil))
	persistence.RegisterModel((*dealer.AuthLogEntry)(nil))

	pcfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(pcfg, db, dialect)
	if err != nil {
		log.Fatal(err)
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(dealer.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = dealer.NewRepositoryManager(client.DB())

	return nil
}

func WithHTTPServer(app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: true,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	appLogger := printfLogger{log: app.GetLogger("dealer")}
	authCfg := app.Config().GetAuth()

	sink := dealer.NewAuthLogSink(app.repo.AuthLogs())

	var sms notify.Sender
	if ncfg := app.Config().GetNotify(); ncfg.TermiiAPIKey != "" {
		sms = notify.NewTermiiSender(ncfg.TermiiAPIKey, ncfg.TermiiSenderID)
	} else {
		sms = notify.NewLogSender(appLogger)
	}
	notifier := notify.New(
		notify.WithSMS(sms),
		notify.WithLogger(appLogger),
	)

	dealer.RegisterDealerRoutes(srv.Router(),
		dealer.WithControllerLogger(appLogger),
		dealer.WithControllerRepo(app.repo),
		dealer.WithControllerSink(sink),
		dealer.WithControllerNotifier(notifier),
		dealer.WithControllerBaseURL(app.Config().GetApp().GetBaseURL()),
		dealer.WithControllerCookieName(authCfg.GetSessionCookieName()),
		dealer.WithControllerVerifier(dealer.NewAdminTokenVerifier(dealerConfig{
			app:  app.Config().GetApp(),
			auth: authCfg,
		})),
	)

	app.srv = srv

	return nil
}

// dealerConfig adapts the loaded configuration tree to dealer.Config.
type dealerConfig struct {
	app  config.App
	auth config.Auth
}

func (c dealerConfig) GetBaseURL() string           { return c.app.GetBaseURL() }
func (c dealerConfig) GetSessionCookieName() string { return c.auth.GetSessionCookieName() }
func (c dealerConfig) GetAdminSigningKey() string   { return c.auth.GetAdminSigningKey() }
func (c dealerConfig) GetAdminIssuer() string       { return c.auth.GetAdminIssuer() }

// printfLogger adapts the structured glog logger to the printf-style
// dealer.Logger interface.
type printfLogger struct {
	log glog.Logger
}

func (l printfLogger) Debug(format string, args ...any) { l.log.Debug(fmt.Sprintf(format, args...)) }
func (l printfLogger) Info(format string, args ...any)  { l.log.Info(fmt.Sprintf(format, args...)) }
func (l printfLogger) Warn(format string, args ...any)  { l.log.Warn(fmt.Sprintf(format, args...)) }
func (l printfLogger) Error(format string, args ...any) { l.log.Error(fmt.Sprintf(format, args...)) }

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
