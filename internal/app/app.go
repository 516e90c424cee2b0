package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskAssistant/internal/assistant"
	"taskAssistant/internal/auth"
	"taskAssistant/internal/config"
	"taskAssistant/internal/handlers"
	"taskAssistant/internal/logger"
	"taskAssistant/internal/middleware"
	"taskAssistant/internal/provider"
	"taskAssistant/internal/provider/deepseek"
	"taskAssistant/internal/provider/openai"
	chatinmemory "taskAssistant/internal/repository/chat/inmemory"
	chatpostgres "taskAssistant/internal/repository/chat/postgres"
	"taskAssistant/internal/repository/postgres"
	taskinmemory "taskAssistant/internal/repository/task/inmemory"
	taskpostgres "taskAssistant/internal/repository/task/postgres"
	"taskAssistant/internal/service"
	"taskAssistant/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	worker    *worker.ReminderWorker
	blacklist *auth.TokenBlacklist
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

	taskRepo, chatRepo, err := a.initRepositories(ctx)
	if err != nil {
		return err
	}

	taskService := service.NewTaskService(taskRepo)
	chatService := service.NewChatSessionService(chatRepo)

	registry := provider.NewRegistry(
		openai.New(openai.Config{
			APIKey:  a.config.Providers.OpenAI.APIKey,
			BaseURL: a.config.Providers.OpenAI.BaseURL,
			Model:   a.config.Providers.OpenAI.Model,
			Timeout: a.config.Providers.OpenAI.Timeout,
		}),
		deepseek.New(deepseek.Config{
			APIKey:  a.config.Providers.DeepSeek.APIKey,
			BaseURL: a.config.Providers.DeepSeek.BaseURL,
			Model:   a.config.Providers.DeepSeek.Model,
			Timeout: a.config.Providers.DeepSeek.Timeout,
		}),
	)

	dispatcher := assistant.NewDispatcher(taskService)
	orchestrator := assistant.NewOrchestrator(chatService, registry, dispatcher, a.config.Assistant.HistoryWindow)

	taskHandler := handlers.NewTaskHandler(taskService)
	chatHandler := handlers.NewChatHandler(chatService, orchestrator)

	a.blacklist = auth.NewTokenBlacklist(5 * time.Minute)
	a.shutdowns = append(a.shutdowns, a.blacklist.Stop)

	if a.config.Worker.Enabled {
		a.worker = worker.NewReminderWorker(taskRepo, a.config.Worker.Interval, a.config.Worker.BatchSize)
	}

	a.router = a.buildRouter(taskHandler, chatHandler)
	a.server = &http.Server{
		Addr:    a.config.GetServerAddr(),
		Handler: a.router,
	}

	return nil
}

func (a *App) initRepositories(ctx context.Context) (service.TaskRepository, service.ChatRepository, error) {
	switch a.config.Repository.Type {
	case "postgres":
		logger.Info("App: Применение миграций")
		if err := postgres.Migrate(a.config.Database.URL); err != nil {
			return nil, nil, fmt.Errorf("миграции: %w", err)
		}

		taskRepo, err := taskpostgres.New(ctx, a.config.Database.URL,
			int32(a.config.Database.MaxConnections), int32(a.config.Database.MinConnections))
		if err != nil {
			return nil, nil, fmt.Errorf("подключение к postgres (tasks): %w", err)
		}
		a.shutdowns = append(a.shutdowns, taskRepo.Close)

		chatRepo, err := chatpostgres.New(ctx, a.config.Database.URL,
			int32(a.config.Database.MaxConnections), int32(a.config.Database.MinConnections))
		if err != nil {
			return nil, nil, fmt.Errorf("подключение к postgres (chats): %w", err)
		}
		a.shutdowns = append(a.shutdowns, chatRepo.Close)

		logger.Info("App: Репозитории postgres готовы")
		return taskRepo, chatRepo, nil

	case "inmemory", "":
		logger.Info("App: Репозитории в памяти")
		return taskinmemory.NewTaskStorage(), chatinmemory.NewChatStorage(), nil

	default:
		return nil, nil, fmt.Errorf("неизвестный тип репозитория: %s", a.config.Repository.Type)
	}
}

func (a *App) buildRouter(taskHandler *handlers.TaskHandler, chatHandler *handlers.ChatHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(a.config.Server.RateLimitRPM))
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	r.Use(middleware.Blacklist(a.blacklist))

	r.Get("/health", taskHandler.HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(middleware.UserContext)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.GetTasks)      // GET /tasks
			r.Post("/", taskHandler.PostTask)     // POST /tasks
			r.Post("/batch", taskHandler.PostTasksBatch)
			r.Get("/stats", taskHandler.GetStatistics)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTaskByID)       // GET /tasks/{id}
				r.Put("/", taskHandler.UpdateTaskByID)    // PUT /tasks/{id}
				r.Delete("/", taskHandler.DeleteTaskByID) // DELETE /tasks/{id}

				r.Get("/subtasks", taskHandler.GetSubTasks)
				r.Post("/subtasks", taskHandler.PostSubTask)

				r.Get("/dependencies", taskHandler.GetDependencies)
				r.Post("/dependencies", taskHandler.PostDependency)
				r.Delete("/dependencies/{depId}", taskHandler.DeleteDependency)
				r.Get("/dependents", taskHandler.GetDependents)
			})
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/send", chatHandler.PostSendMessage)
			r.Get("/models", chatHandler.GetModels)
		})

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", chatHandler.GetChats)
			r.Post("/", chatHandler.PostChat)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", chatHandler.GetChatByID)
				r.Put("/", chatHandler.RenameChat)
				r.Delete("/", chatHandler.DeleteChat)

				r.Post("/archive", chatHandler.ArchiveChat)
			})
		})
	})

	return r
}

func (a *App) Run(ctx context.Context) error {
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	if a.worker != nil {
		go a.worker.Start(workerCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		cancelWorker()
		a.shutdown()
		return fmt.Errorf("сервер: %w", err)
	case <-ctx.Done():
	}

	logger.Info("App: Останавливаемся...")
	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("App: Ошибка остановки сервера", err)
	}

	a.shutdown()
	return nil
}

func (a *App) shutdown() {
	// в обратном порядке: логгер закрывается последним
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
