package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/festival-teams/config"
	"github.com/Dosada05/festival-teams/db"
	"github.com/Dosada05/festival-teams/handlers"
	"github.com/Dosada05/festival-teams/middleware"
	"github.com/Dosada05/festival-teams/payments"
	"github.com/Dosada05/festival-teams/realtime"
	"github.com/Dosada05/festival-teams/repositories"
	"github.com/Dosada05/festival-teams/repositories/memstore"
	api "github.com/Dosada05/festival-teams/routes"
	"github.com/Dosada05/festival-teams/services"
	"github.com/Dosada05/festival-teams/storage"
	"github.com/go-chi/chi/v5"
)

// store объединяет репозитории одного драйвера хранения.
type store struct {
	txManager     services.TxManager
	teams         repositories.TeamRepository
	members       repositories.MemberRepository
	invitations   repositories.InvitationRepository
	joinRequests  repositories.JoinRequestRepository
	payments      repositories.PaymentRecordSource
	events        repositories.EventCatalog
	registrations repositories.RegistrationRepository
	users         repositories.UserRepository
	close         func() error
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("store", cfg.StoreDriver))

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	var uploader storage.FileUploader
	r2Cfg := storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Cfg.Enabled() {
		uploader, err = storage.NewR2Uploader(context.Background(), r2Cfg)
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("R2 is not configured, team report export disabled")
	}

	var gateway services.PaymentGateway
	if cfg.PaymentGatewayURL != "" {
		gw, err := payments.NewHTTPGateway(payments.GatewayConfig{
			BaseURL: cfg.PaymentGatewayURL,
			APIKey:  cfg.PaymentGatewayAPIKey,
			Timeout: cfg.PaymentGatewayTimeout,
		})
		if err != nil {
			logger.Error("failed to initialize payment gateway", slog.Any("error", err))
			os.Exit(1)
		}
		gateway = gw
	} else {
		logger.Warn("payment gateway is not configured, team payments disabled")
	}

	// Инициализация WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	wsHub := realtime.NewHub(logger)
	go wsHub.Run(hubCtx)

	// Инициализация сервисов
	reconciler := services.NewReconciliationService(st.members, st.payments, st.events, cfg.ReconcileConcurrency, logger)
	syncService := services.NewSyncService(st.teams, st.registrations, reconciler, logger)
	teamService := services.NewTeamService(st.txManager, st.teams, st.members, st.invitations, st.joinRequests, st.events, reconciler, wsHub, logger)
	invitationService := services.NewInvitationService(st.txManager, st.teams, st.members, st.invitations, st.joinRequests, st.users, reconciler, syncService, wsHub, logger)
	joinRequestService := services.NewJoinRequestService(st.txManager, st.teams, st.members, st.invitations, st.joinRequests, reconciler, syncService, wsHub, logger)
	searchService := services.NewSearchService(st.teams, st.members, st.invitations, st.joinRequests, st.users)
	registrationService := services.NewRegistrationService(st.payments, st.registrations)
	paymentService := services.NewPaymentService(st.teams, st.events, reconciler, gateway, cfg.PaymentReturnURL, logger)
	reportService := services.NewReportService(st.teams, reconciler, uploader, logger)
	logger.Info("services initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, middleware.NewAuthenticator(cfg.JWTSecretKey), cfg.CORSAllowedOrigins, api.Handlers{
		Team:         handlers.NewTeamHandler(teamService, syncService),
		Invitation:   handlers.NewInvitationHandler(invitationService),
		JoinRequest:  handlers.NewJoinRequestHandler(joinRequestService),
		Search:       handlers.NewSearchHandler(searchService),
		Registration: handlers.NewRegistrationHandler(registrationService, paymentService),
		Admin:        handlers.NewAdminHandler(reportService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, teamService, cfg.CORSAllowedOrigins, logger),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		stopHub()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
}

func openStore(cfg *config.Config, logger *slog.Logger) (*store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return openMemoryStore(cfg, logger)
	}
	return openPostgresStore(cfg, logger)
}

func openPostgresStore(cfg *config.Config, logger *slog.Logger) (*store, error) {
	sqlDB, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := db.Migrate(sqlDB, logger); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	txManager, err := db.NewTransactionManager(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create transaction manager: %w", err)
	}

	conn := db.NewDB(sqlDB)
	return &store{
		txManager:     txManager,
		teams:         repositories.NewPostgresTeamRepository(conn),
		members:       repositories.NewPostgresMemberRepository(conn),
		invitations:   repositories.NewPostgresInvitationRepository(conn),
		joinRequests:  repositories.NewPostgresJoinRequestRepository(conn),
		payments:      repositories.NewPostgresPaymentRecordSource(conn),
		events:        repositories.NewPostgresEventCatalog(conn),
		registrations: repositories.NewPostgresRegistrationRepository(conn),
		users:         repositories.NewPostgresUserRepository(conn),
		close:         sqlDB.Close,
	}, nil
}

func openMemoryStore(cfg *config.Config, logger *slog.Logger) (*store, error) {
	mem := memstore.New()
	if cfg.MemorySeedFile != "" {
		f, err := os.Open(cfg.MemorySeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open memory seed file: %w", err)
		}
		defer f.Close()
		if err := mem.LoadSeed(f); err != nil {
			return nil, err
		}
		logger.Info("memory store seeded", slog.String("file", cfg.MemorySeedFile))
	}
	logger.Warn("using in-memory store, data is lost on restart")

	return &store{
		txManager:     mem,
		teams:         mem.Teams(),
		members:       mem.Members(),
		invitations:   mem.Invitations(),
		joinRequests:  mem.JoinRequests(),
		payments:      mem.Payments(),
		events:        mem.Events(),
		registrations: mem.Registrations(),
		users:         mem.Users(),
		close:         func() error { return nil },
	}, nil
}
