package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"quill-server-go/internal/domain/eventbus"
	"quill-server-go/internal/domain/session"
	sessionstore "quill-server-go/internal/domain/session/store"
	platformconfig "quill-server-go/internal/platform/config"
	platformerrors "quill-server-go/internal/platform/errors"
	platformlogging "quill-server-go/internal/platform/logging"
	platformstorage "quill-server-go/internal/platform/storage"
	httptransport "quill-server-go/internal/transport/http"
	wstransport "quill-server-go/internal/transport/ws"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	config    *platformconfig.Config
	logger    *platformlogging.Logger
	db        *gorm.DB
	bus       *eventbus.Bus
	credStore sessionstore.Store
	manager   *session.Manager
	startedAt time.Time
}

// Run drives the whole service lifecycle: configuration, dependency
// initialisation, serving and graceful shutdown.
func Run(ctx context.Context) error {
	state := &appState{startedAt: time.Now()}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	manager := state.manager
	if config == nil || logger == nil || manager == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger/session manager not initialised",
		)
	}

	logBootstrapGraph(steps, logger)

	defer func() {
		if err := manager.Close(); err != nil {
			logger.ErrorTag("session", "session manager did not close cleanly: %v", err)
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("bootstrap", "service stopped")
	logger.Close()
	return nil
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	logger.InfoTag("bootstrap", "initialisation order")
	for _, step := range steps {
		logger.InfoTag("bootstrap", "  %s", step.Title)
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph declares the initialisation steps in dependency order.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init",
			Title:     "Initialise logging",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Open database and migrate schema",
			DependsOn: []string{"config:load", "logging:init"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "storage:seed-admin",
			Title:     "Seed administrator account",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindStorage,
			Execute:   seedAdminStep,
		},
		{
			ID:        "events:init-bus",
			Title:     "Initialise event bus",
			DependsOn: []string{"logging:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "session:init-store",
			Title:     "Initialise credential store",
			DependsOn: []string{"config:load", "storage:init-database"},
			Kind:      platformerrors.KindSession,
			Execute:   initCredStoreStep,
		},
		{
			ID:        "session:init-manager",
			Title:     "Initialise session manager",
			DependsOn: []string{"session:init-store", "events:init-bus"},
			Kind:      platformerrors.KindSession,
			Execute:   initSessionManagerStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	cfg, err := platformconfig.NewLoader().Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = cfg
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level: state.config.Log.Level,
		Dir:   state.config.Log.Dir,
		File:  state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init", "failed to initialise logging", err)
	}
	state.logger = logger
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Database.DSN)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-database", "failed to open database", err)
	}
	state.db = db
	return nil
}

func seedAdminStep(_ context.Context, state *appState) error {
	err := platformstorage.EnsureAdminUser(state.db, state.config.Auth.AdminEmail, state.config.Auth.AdminPassword)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:seed-admin", "failed to seed admin user", err)
	}
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	state.bus = eventbus.New()
	return nil
}

func initCredStoreStep(_ context.Context, state *appState) error {
	storeCfg := state.config.Auth.Store
	credStore, err := sessionstore.New(sessionstore.Config{
		Driver: storeCfg.Type,
		Redis: &sessionstore.RedisConfig{
			Addr:     storeCfg.Redis.Addr,
			Username: storeCfg.Redis.Username,
			Password: storeCfg.Redis.Password,
			DB:       storeCfg.Redis.DB,
			Prefix:   storeCfg.Redis.Prefix,
		},
		Memory: &sessionstore.MemoryConfig{
			GCInterval: storeCfg.Memory.GCInterval,
		},
	}, sessionstore.Dependencies{SQLiteDB: state.db})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindSession, "session:init-store", "failed to create credential store", err)
	}
	state.credStore = credStore
	return nil
}

func initSessionManagerStep(_ context.Context, state *appState) error {
	codec, err := session.NewCodec(session.CodecConfig{
		AccessSecret:  state.config.Auth.AccessSecret,
		RefreshSecret: state.config.Auth.RefreshSecret,
		AccessTTL:     state.config.Auth.AccessTTL,
		RefreshTTL:    state.config.Auth.RefreshTTL,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindSession, "session:init-manager", "failed to create token codec", err)
	}

	manager, err := session.NewManager(session.Options{
		Store:         state.credStore,
		Codec:         codec,
		Users:         platformstorage.NewUserRepository(state.db),
		Logger:        state.logger,
		Events:        state.bus,
		SweepInterval: state.config.Auth.Sweep.Interval,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindSession, "session:init-manager", "failed to create session manager", err)
	}
	state.manager = manager
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	config := state.config
	logger := state.logger

	users := platformstorage.NewUserRepository(state.db)
	content := platformstorage.NewContentRepository(state.db)

	cookies := httptransport.CookieWriter{
		AccessTTL:  config.Auth.AccessTTL,
		RefreshTTL: config.Auth.RefreshTTL,
		Secure:     config.Server.Production,
	}
	guards := &httptransport.Guards{Manager: state.manager, Logger: logger}

	eventHub, err := wstransport.NewEventHub(state.bus, logger)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "ws:init-event-hub", "failed to create event hub", err)
	}

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
		Guards: guards,
		Auth: &httptransport.AuthHandler{
			Manager: state.manager,
			Users:   users,
			Cookies: cookies,
			Logger:  logger,
		},
		Content: &httptransport.ContentHandler{
			Content: content,
			Logger:  logger,
		},
		Admin: &httptransport.AdminHandler{
			Users:     users,
			CredStore: state.manager.Store(),
			StartedAt: state.startedAt,
		},
		EventStream: eventHub.Handler(),
	})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "http:build-router", "failed to build router", err)
	}

	httpRouter.Engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httptransport.APIResponse{
			Success: false,
			Data:    gin.H{},
			Message: "not found",
			Code:    http.StatusNotFound,
		})
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Server.IP, config.Server.Port),
		Handler: httpRouter.Engine,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "server listening on http://%s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			eventHub.Close()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("bootstrap", "shutdown requested: %v", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("bootstrap", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("bootstrap", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("bootstrap", "shutdown timed out, forcing exit")
		return errors.New("shutdown timed out")
	}
	return nil
}
