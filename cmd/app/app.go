package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"mosaicboard/internal/access"
	"mosaicboard/internal/config"
	"mosaicboard/internal/database"
	"mosaicboard/internal/events"
	handlers "mosaicboard/internal/handler"
	"mosaicboard/internal/metrics"
	"mosaicboard/internal/middleware"
	"mosaicboard/internal/repository"
	"mosaicboard/internal/service"
	"mosaicboard/internal/storage"
)

// App holds the wired dependencies of one process.
type App struct {
	Cfg      *config.Config
	DB       *database.DB
	Repo     *repository.Repository
	Services *service.Service
	Metrics  *metrics.Metrics
	Events   *events.Dispatcher
}

// New connects to the database and wires repositories, services and the
// event pipeline. Media storage is optional: when MinIO cannot be reached
// uploads are refused but the board keeps working.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// connection DB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}

	m, err := metrics.New()
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	var store storage.Storage
	if cfg.MinIO.Enabled() {
		minioClient, err := storage.NewMinIOClient(ctx, cfg.MinIO)
		if err != nil {
			zap.L().Warn("media storage unavailable, uploads disabled", zap.Error(err))
		} else {
			store = minioClient
		}
	}

	dispatcher := events.NewDispatcher(newSink(cfg), m)

	// enabling dependencies
	repo := repository.NewRepository(db.DB)
	checker := access.NewRoleChecker(repo.Role)
	services := service.NewService(repo, cfg, store, checker, dispatcher, db)

	return &App{
		Cfg:      cfg,
		DB:       db,
		Repo:     repo,
		Services: services,
		Metrics:  m,
		Events:   dispatcher,
	}, nil
}

func newSink(cfg *config.Config) events.Sink {
	if cfg.RabbitMQ.Enabled() {
		sink, err := events.NewRabbitMQSink(cfg.RabbitMQ)
		if err == nil {
			zap.L().Info("publishing events to rabbitmq", zap.String("exchange", cfg.RabbitMQ.Exchange))
			return sink
		}
		zap.L().Warn("rabbitmq unavailable, logging events instead", zap.Error(err))
	}
	return events.NewLogSink(zap.L())
}

// Router builds the HTTP surface. Everything under /api and /view needs a
// logged-in user; /api writes also need a sesskey.
func (a *App) Router() http.Handler {
	h := handlers.NewHandlers(a.Services, a.Cfg, a.Metrics)

	router := mux.NewRouter()
	router.Use(middleware.MetricsMiddleware(a.Metrics))
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, "Not found", http.StatusNotFound, handlers.CodeNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, "Method not allowed", http.StatusMethodNotAllowed, handlers.CodeInvalidParameter)
	})

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", a.Metrics.Handler()).Methods(http.MethodGet)

	view := router.PathPrefix("/view").Subrouter()
	view.Use(middleware.AuthMiddleware(a.Services.Auth))
	view.HandleFunc("/{boardid:[0-9]+}", h.ViewBoard).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(
		middleware.AuthMiddleware(a.Services.Auth),
		middleware.SesskeyMiddleware(a.Services.Auth),
	)

	api.HandleFunc("/boards/{boardid:[0-9]+}", h.GetBoard).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardid:[0-9]+}/config", h.BoardConfig).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardid:[0-9]+}/settings", h.UpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/boards/{boardid:[0-9]+}/theme", h.UpdateTheme).Methods(http.MethodPut)
	api.HandleFunc("/boards/{boardid:[0-9]+}/sections", h.CreateSection).Methods(http.MethodPost)
	api.HandleFunc("/boards/{boardid:[0-9]+}/users/{userid:[0-9]+}/outline", h.UserOutline).Methods(http.MethodGet)
	api.HandleFunc("/boards/{boardid:[0-9]+}/cards", h.CreateCard).Methods(http.MethodPost)

	api.HandleFunc("/cards/{cardid:[0-9]+}", h.UpdateCard).Methods(http.MethodPatch)
	api.HandleFunc("/cards/{cardid:[0-9]+}", h.DeleteCard).Methods(http.MethodDelete)
	api.HandleFunc("/cards/{cardid:[0-9]+}/purge", h.PurgeCard).Methods(http.MethodDelete)
	api.HandleFunc("/cards/{cardid:[0-9]+}/reactions", h.AddReaction).Methods(http.MethodPost)
	api.HandleFunc("/cards/{cardid:[0-9]+}/reactions", h.RemoveReaction).Methods(http.MethodDelete)
	api.HandleFunc("/cards/{cardid:[0-9]+}/comments", h.AddComment).Methods(http.MethodPost)
	api.HandleFunc("/cards/{cardid:[0-9]+}/comments", h.ListComments).Methods(http.MethodGet)
	api.HandleFunc("/cards/{cardid:[0-9]+}/media", h.UploadMedia).Methods(http.MethodPost)

	return middleware.Chain(
		router,
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware,
	)
}

func (a *App) Close() {
	if err := a.Events.Close(); err != nil {
		zap.L().Warn("failed to close event sink", zap.Error(err))
	}
	if err := a.DB.CloseDB(); err != nil {
		zap.L().Warn("failed to close database", zap.Error(err))
	}
}
