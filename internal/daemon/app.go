// Package daemon runs carddavd: the scheduled refresh of all users'
// accounts and addressbooks, with a gRPC health endpoint reporting on it.
package daemon

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/bootstrap"
	"github.com/dmitrijs2005/carddavsync/internal/healthsrv"
	"github.com/dmitrijs2005/carddavsync/internal/logging"
	"github.com/dmitrijs2005/carddavsync/internal/refresher"
)

const pingTimeout = 3 * time.Second

type App struct {
	env       *bootstrap.Env
	logger    logging.Logger
	health    *healthsrv.Server
	refresher *refresher.Refresher
}

func NewApp(env *bootstrap.Env) *App {
	app := &App{
		env:    env,
		logger: logging.ForModule(env.Logger, "daemon"),
		health: healthsrv.New(env.Config.HealthAddr, env.Logger),
	}
	app.refresher = refresher.New(env.Gateway, app.target, env.Policy.TemplateDefaults, env.Logger)
	app.refresher.OnPass(app.reportPass)
	app.refresher.Include(env.Config.UserID)
	return app
}

// target prepares the manager of one user for a refresh pass. Preset
// accounts are brought in line with the policy first; a failure there is
// logged and does not skip the user.
func (app *App) target(ctx context.Context, userID string) (refresher.Target, error) {
	m, _, err := app.env.Manager(userID)
	if err != nil {
		return nil, err
	}
	if err := app.env.Policy.Init(ctx, m, app.env.Logger); err != nil {
		app.logger.Warn(ctx, "preset initialization failed", "user_id", userID, "error", err)
	}
	return m, nil
}

func (app *App) reportPass(_ refresher.Stats, err error) {
	app.health.SetServing(healthsrv.ServiceRefresher, err == nil)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	app.health.SetServing("", app.env.DB.PingContext(ctx) == nil)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is done, a termination signal arrives, or the
// health server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting daemon...", "refresh_interval", app.env.Config.RefreshInterval)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHealthServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		_ = app.refresher.Run(ctx, app.env.Config.RefreshInterval)
	}()

	wg.Wait()
	app.logger.Info(ctx, "Daemon stopped")
}
