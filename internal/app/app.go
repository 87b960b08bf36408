package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sdwijaya/herald/internal/pkg/clock"
	"github.com/sdwijaya/herald/internal/pkg/config"
	"github.com/sdwijaya/herald/internal/pkg/goroutine"
	"github.com/sdwijaya/herald/internal/pkg/hash"
	"github.com/sdwijaya/herald/internal/pkg/idempotency"
	"github.com/sdwijaya/herald/internal/pkg/instrument"
	"github.com/sdwijaya/herald/internal/pkg/mail"
	"github.com/sdwijaya/herald/internal/pkg/messaging"
	"github.com/sdwijaya/herald/internal/pkg/router"
	"github.com/sdwijaya/herald/internal/pkg/uid"
	"github.com/sdwijaya/herald/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine   *goroutine.Manager
	validator   validator.Validator
	clock       clock.Clocker
	fingerprint hash.Fingerprinter
	uid         uid.NumberID
	uuid        uid.StringID

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Guard
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
