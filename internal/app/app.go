package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"projectTracker/internal/auth"
	"projectTracker/internal/config"
	"projectTracker/internal/handlers"
	"projectTracker/internal/logger"
	"projectTracker/internal/middleware"
	"projectTracker/internal/realtime"
	"projectTracker/internal/repository/inmemory"
	"projectTracker/internal/repository/mongo"
	"projectTracker/internal/repository/postgres"
	"projectTracker/internal/service"
	"projectTracker/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	store     service.Store
	service   *service.Service
	hub       *realtime.Hub
	worker    *worker.OrphanSweeper
	cancel    context.CancelFunc
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	store, err := openStore(ctx, a.config)
	if err != nil {
		a.shutdown()
		return fmt.Errorf("инициализация хранилища: %w", err)
	}
	a.store = store
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Закрытие хранилища...")
		closeCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("Ошибка закрытия хранилища", err)
		}
	})

	a.service = service.New(store)
	a.hub = realtime.NewHub()

	// контекст живет до остановки приложения, на нем держатся websocket соединения
	appCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.router = a.routes(appCtx)
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "project-tracker"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	if a.config.Worker.Enabled {
		interval := a.config.Worker.Interval
		batch := a.config.Worker.BatchSize
		a.worker = worker.NewOrphanSweeper(store, &interval, &batch)
	}

	logger.Info("Приложение инициализировано",
		zap.String("store", a.config.Store.Type),
		zap.String("addr", a.server.Addr),
		zap.Bool("worker", a.worker != nil))
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (service.Store, error) {
	switch cfg.Store.Type {
	case config.StoreMongo:
		storage, err := mongo.New(ctx, mongo.Options{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			MaxPoolSize:    cfg.Mongo.MaxPoolSize,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		return storage, nil
	case config.StorePostgres:
		if err := postgres.Migrate(cfg.Postgres.URL); err != nil {
			return nil, err
		}
		storage, err := postgres.New(ctx, postgres.Options{
			DSN:             cfg.Postgres.URL,
			MaxConns:        cfg.Postgres.MaxConnections,
			MinConns:        cfg.Postgres.MinConnections,
			MaxConnIdleTime: cfg.Postgres.IdleTimeout,
		})
		if err != nil {
			return nil, err
		}
		return storage, nil
	case config.StoreMemory:
		return inmemory.New(), nil
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", cfg.Store.Type)
	}
}

func (a *App) routes(ctx context.Context) *chi.Mux {
	verifier := auth.NewVerifier(a.config.Auth.Secret,
		auth.WithIssuer(a.config.Auth.Issuer),
		auth.WithLeeway(a.config.Auth.Leeway))
	authenticate := middleware.Authenticate(verifier, a.service.Users)

	projectHandler := handlers.NewProjectHandler(a.service.Projects, a.hub)
	taskHandler := handlers.NewTaskHandler(a.service.Tasks, a.hub)
	commentHandler := handlers.NewCommentHandler(a.service.Comments, a.hub)
	userHandler := handlers.NewUserHandler(a.service.Users, a.service)
	wsHandler := realtime.NewHandler(ctx, a.hub, a.service.Projects, a.config.Server.AllowedOrigins)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	r.Get("/health", userHandler.HealthCheck)

	// websocket живет дольше любого таймаута запроса
	r.With(authenticate).Get("/ws", wsHandler.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
		r.Use(authenticate)

		r.Get("/users/me", userHandler.Me)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.ListProjects) // GET /projects
			r.Post("/", projectHandler.CreateProject)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", projectHandler.GetProject)
				r.Put("/", projectHandler.UpdateProject)
				r.Delete("/", projectHandler.DeleteProject)
				r.Post("/members", projectHandler.AddMember) // POST /projects/{id}/members
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks) // GET /tasks?project=&status=&assignedTo=
			r.Post("/", taskHandler.CreateTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)
				r.Put("/", taskHandler.UpdateTask)
				r.Delete("/", taskHandler.DeleteTask)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", commentHandler.ListComments) // GET /comments?task=
			r.Post("/", commentHandler.CreateComment)
			r.Put("/{id}", commentHandler.UpdateComment)
			r.Delete("/{id}", commentHandler.DeleteComment)
		})
	})

	return r
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Hub() *realtime.Hub {
	return a.hub
}

// блокируется до отмены ctx или падения сервера
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		a.cancel()
		a.hub.Close()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.shutdown()
	return err
}

// если Run не запускался
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	a.shutdown()
}

func (a *App) shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
