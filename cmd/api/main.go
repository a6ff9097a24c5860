package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/latte-hq/latte-api/internal/api/http"
	"github.com/latte-hq/latte-api/internal/api/http/handlers"
	"github.com/latte-hq/latte-api/internal/auth"
	"github.com/latte-hq/latte-api/internal/config"
	"github.com/latte-hq/latte-api/internal/events"
	"github.com/latte-hq/latte-api/internal/observability"
	"github.com/latte-hq/latte-api/internal/persistence"
	"github.com/latte-hq/latte-api/internal/repository"
	"github.com/latte-hq/latte-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	txRunner := repository.NewTxRunner(pool)
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	authorityRepo := repository.NewAuthorityRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	clientRepo := repository.NewClientRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, cfg.Auth.RefreshTokenTTLMinutes)

	authService := service.NewAuthService(userRepo, roleRepo, tokens, cfg.Auth.BcryptCost)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TxRunner:     txRunner,
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		ClientRepo:   clientRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
		Dispatcher:   dispatcher,
	})
	userService := service.NewUserService(service.UserDependencies{
		TxRunner:     txRunner,
		UserRepo:     userRepo,
		RoleRepo:     roleRepo,
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
	})
	passwordService := service.NewPasswordService(userRepo, userService, cfg.Auth.BcryptCost)
	roleService := service.NewRoleService(service.RoleDependencies{
		TxRunner:      txRunner,
		RoleRepo:      roleRepo,
		AuthorityRepo: authorityRepo,
		UserRepo:      userRepo,
	})
	clientService := service.NewClientService(clientRepo)
	notificationService := service.NewNotificationService(notificationRepo, dispatcher, redis, logger)
	notificationService.RegisterHandlers()

	if err := service.EnsureBootstrapAdmin(ctx, userRepo, roleRepo, service.BootstrapConfig{
		AdminEmail:    cfg.Bootstrap.AdminEmail,
		AdminPassword: cfg.Bootstrap.AdminPassword,
		AdminRole:     cfg.Bootstrap.AdminRole,
		CredentialDir: cfg.Bootstrap.CredentialDir,
		BcryptCost:    cfg.Auth.BcryptCost,
	}, logger); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, commentService),
		Users:          handlers.NewUsersHandler(userService, passwordService),
		Roles:          handlers.NewRolesHandler(roleService),
		Clients:        handlers.NewClientsHandler(clientService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
