// internal/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	router "cardledger/internal/api"
	"cardledger/internal/api/handler"
	"cardledger/internal/config"
	"cardledger/internal/idgen"
	"cardledger/internal/notify"
	"cardledger/internal/persistence"
	"cardledger/internal/persistence/sqlstore"
	"cardledger/internal/repository"
	"cardledger/internal/repository/memory"
	"cardledger/internal/scheduler"
	"cardledger/internal/service"
	"cardledger/internal/util"
	"cardledger/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB // nil with the file storage driver

	Persistence *persistence.Layer
	Publisher   notify.Publisher
	nats        *notify.NATSPublisher

	// Repositories
	CardRepository     repository.CardRepository
	CooldownRepository repository.CooldownRepository
	SkinRepository     repository.SkinRepository

	// Services
	LedgerService service.LedgerService
	SkinService   service.SkinService
	Autosaver     *scheduler.Autosaver

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{Logger: util.GetLogger()}
}

// Initialize initializes all application components and loads the ledger.
// On failure every connection opened so far is closed again.
func (app *Application) Initialize(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			app.release()
		}
	}()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg

	// 2. Initialize Logger
	util.InitLogger(cfg.LogLevel)
	app.Logger = util.GetLogger()
	app.Logger.Info("Application configuration loaded successfully.", "storage_driver", cfg.StorageDriver)

	// 3. Open snapshot storage
	backend, err := app.openBackend(ctx)
	if err != nil {
		return fmt.Errorf("failed to open snapshot storage: %w", err)
	}
	app.Persistence = persistence.NewLayer(backend, persistence.Files{
		Cards:     cfg.CardsFile,
		Cooldowns: cfg.CooldownsFile,
		Skins:     cfg.SkinsFile,
	}, app.Logger)

	// 4. Initialize Repositories
	cards := memory.NewCardStore()
	app.CardRepository = cards
	app.CooldownRepository = memory.NewCooldownStore()
	app.SkinRepository = memory.NewSkinStore()

	// 5. Event publishing
	app.Publisher = notify.Nop{}
	if cfg.NATSURL != "" {
		pub, err := notify.Connect(cfg.NATSURL, cfg.NATSToken, cfg.NATSSubjectPrefix, app.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		app.nats = pub
		app.Publisher = pub
		app.Logger.Info("NATS publisher connected.", "url", cfg.NATSURL)
	}

	// 6. Initialize Services and load persisted state
	app.LedgerService = service.NewLedgerService(
		app.CardRepository,
		app.CooldownRepository,
		idgen.New(nil, nil),
		app.Persistence,
		app.Publisher,
		service.LedgerConfig{
			Cooldown:             cfg.Cooldown(),
			DestroyRequiresEmpty: cfg.DestroyRequiresEmpty,
		},
		app.Logger,
	)
	app.SkinService = service.NewSkinService(app.SkinRepository, app.Persistence, cfg.SkinNames, app.Logger)

	if err := app.LedgerService.Load(ctx); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	if err := app.SkinService.Load(ctx); err != nil {
		return fmt.Errorf("failed to load skins: %w", err)
	}
	app.Logger.Info("Services initialized.")

	// 7. Autosave
	app.Autosaver = scheduler.NewAutosaver(cfg.AutosaveInterval(), app.Logger, app.LedgerService, app.SkinService)
	if err := app.Autosaver.Start(); err != nil {
		return fmt.Errorf("failed to start autosave: %w", err)
	}

	// 8. Initialize HTTP Handlers and Router
	cardHandler := handler.NewCardHandler(app.LedgerService, app.Logger)
	skinHandler := handler.NewSkinHandler(app.SkinService, app.Logger)
	app.HTTPHandler = router.NewRouter(cardHandler, skinHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

func (app *Application) openBackend(ctx context.Context) (persistence.Backend, error) {
	cfg := app.Config
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "ledger.db")
		}
		if _, err := persistence.NewFileBackend(filepath.Dir(path)); err != nil {
			return nil, err
		}
		conn, err := db.NewSQLiteDB(path)
		if err != nil {
			return nil, err
		}
		app.DB = conn
		app.Logger.Info("SQLite snapshot store opened.", "path", path)
		return sqlstore.New(ctx, conn)
	case config.DriverPostgres:
		conn, err := db.NewPostgresDB(cfg.DB())
		if err != nil {
			return nil, err
		}
		app.DB = conn
		app.Logger.Info("Database connection established.")
		return sqlstore.New(ctx, conn)
	default:
		return persistence.NewFileBackend(cfg.DataDir)
	}
}

// release drains NATS and closes the database handle, if they were opened.
func (app *Application) release() error {
	if app.nats != nil {
		if err := app.nats.Close(); err != nil {
			app.Logger.Error("Failed to drain NATS connection", "error", err)
		}
		app.nats = nil
	}
	if app.DB == nil {
		return nil
	}
	err := app.DB.Close()
	app.DB = nil
	if err != nil {
		app.Logger.Error("Failed to close database connection", "error", err)
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	app.Logger.Info("Database connection closed.")
	return nil
}

// Shutdown stops autosave, performs the final save and releases resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	var errs []error

	if app.Autosaver != nil {
		if err := app.Autosaver.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := app.release(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
