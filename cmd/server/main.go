package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vedran77/taskmanager/internal/cache"
	"github.com/vedran77/taskmanager/internal/config"
	"github.com/vedran77/taskmanager/internal/database"
	"github.com/vedran77/taskmanager/internal/email"
	"github.com/vedran77/taskmanager/internal/logger"
	"github.com/vedran77/taskmanager/internal/repository"
	"github.com/vedran77/taskmanager/internal/repository/memory"
	postgresrepo "github.com/vedran77/taskmanager/internal/repository/postgres"
	"github.com/vedran77/taskmanager/internal/service"
	"github.com/vedran77/taskmanager/internal/transport/http/handlers"
	"github.com/vedran77/taskmanager/internal/transport/http/middleware"
	"github.com/vedran77/taskmanager/internal/transport/ws"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logg, err := logger.New(logger.Options{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer logg.Sync()

	if err := run(cfg, logg); err != nil {
		logg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	var (
		userRepo repository.UserRepository
		taskRepo repository.TaskRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		userRepo, taskRepo = store.Users(), store.Tasks()
		logg.Warn("using in-memory store, data is lost on restart")
	default:
		pool, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
		logg.Info("connected to database")
		userRepo, taskRepo = postgresrepo.NewUserRepo(pool), postgresrepo.NewTaskRepo(pool)
	}

	// Services
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	userService := service.NewUserService(userRepo, taskRepo, tokens, logg)
	taskService := service.NewTaskService(taskRepo, logg)

	if cfg.SendGridAPIKey != "" {
		userService.SetMailer(email.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromAddress))
	} else {
		userService.SetMailer(email.NewLogMailer(logg))
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.Open(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		userService.SetSessionCache(cache.NewRedisSessions(rdb, cfg.SessionTTL))
		logg.Info("session cache enabled")
	}

	// Real-time task feed
	hub := ws.NewHub(logg)
	taskService.SetNotifier(ws.NewHubNotifier(hub))
	userService.SetSessionCloser(hub)

	// Handlers
	userHandler := handlers.NewUserHandler(userService, logg)
	taskHandler := handlers.NewTaskHandler(taskService, logg)

	// Routes
	mux := http.NewServeMux()
	handlers.Routes(mux, userHandler, taskHandler, middleware.Auth(userService, logg))
	mux.Handle("GET /ws", ws.ServeWS(ctx, hub, userService, ws.OriginHosts(cfg.CORSOrigins)))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           middleware.Logging(logg)(middleware.CORS(cfg.CORSOrigins)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logg.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		userService.Wait()
		return err
	})

	return g.Wait()
}
