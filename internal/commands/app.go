package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"myday/internal/calendar"
	"myday/internal/config"
	"myday/internal/logging"
	"myday/internal/metrics"
	"myday/internal/retention"
	"myday/internal/service"
	"myday/internal/storage"
)

// Flags holds the global flag values shared by every command.
type Flags struct {
	ConfigPath  string
	LogLevel    string
	MetricsAddr string
}

// App is built once in the root Before hook. Commands hold a pointer to it
// and read its fields at action time.
type App struct {
	Config  config.Config
	Store   *storage.Store
	Tasks   *service.Tasks
	Metrics *metrics.Metrics

	log      zerolog.Logger
	mirror   *calendar.Mirror
	closeLog func()
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// DefaultConfigPath is the config location used when --config is not given.
func DefaultConfigPath() string {
	p, err := config.ResolveConfigPath()
	if err != nil {
		return config.DefaultConfigFileName
	}
	return p
}

// Open loads the config and starts every long-lived component.
func (a *App) Open(ctx context.Context, flags *Flags) error {
	cfg, err := config.LoadOrCreate(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if flags.LogLevel != "" {
		level = flags.LogLevel
	}

	logger, closer, err := logging.New(level, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	log.Logger = logger

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		closer()
		return fmt.Errorf("open database: %w", err)
	}

	a.Config = cfg
	a.Store = store
	a.Metrics = metrics.New()
	a.log = logger
	a.closeLog = closer

	var mirror service.Mirror
	events, err := newEventStore(ctx, cfg.Calendar)
	switch {
	case err != nil:
		logger.Warn().Err(err).Str("backend", cfg.Calendar.Backend).Msg("calendar mirroring disabled")
	case events != nil:
		a.mirror = calendar.NewMirror(events, logger, a.Metrics, cfg.Calendar.QueueSize)
		mirror = a.mirror
	}

	a.Tasks = service.New(store, mirror, a.Metrics, logger,
		service.WithRetentionDays(cfg.RetentionDays),
	)

	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel

	if interval := cfg.SweepInterval.Std(); interval > 0 {
		sweeper := retention.NewSweeper(a.Tasks, logger)
		a.wg.Go(func() { sweeper.Run(bgCtx, interval) })
	}
	if flags.MetricsAddr != "" {
		a.wg.Go(func() {
			if err := a.Metrics.Serve(bgCtx, flags.MetricsAddr, logger); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		})
	}

	return nil
}

// Close stops background work, drains pending calendar operations and closes
// the store and log file.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if a.mirror != nil {
		a.mirror.Close()
	}

	var err error
	if a.Store != nil {
		if cerr := a.Store.Close(); cerr != nil {
			a.log.Error().Err(cerr).Msg("failed to close database")
			err = cerr
		}
	}
	if a.closeLog != nil {
		a.closeLog()
	}
	return err
}

// newEventStore returns nil without error when mirroring is switched off.
func newEventStore(ctx context.Context, cfg config.Calendar) (calendar.EventStore, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return calendar.NewMemoryStore(), nil
	case "google":
		client, err := calendar.HTTPClient(ctx, cfg.CredentialsFile, cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		return calendar.NewGoogleStore(ctx, client, cfg.CalendarID)
	default:
		return nil, errors.New("unknown calendar backend " + cfg.Backend)
	}
}
