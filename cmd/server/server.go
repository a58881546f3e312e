package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/config"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/eventengine"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/finance"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/item"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/ledger"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/notification"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/reconciliation"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/features/transition"
	"github.com/eng-by-tdm/blue-harbor-hotel-backend/internal/middlewares"
	"github.com/go-chi/chi"
	chimiddleware "github.com/go-chi/chi/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ServerConfig struct {
	Config *config.Config
	DB     *sql.DB
	Logger *zap.Logger
}

type server struct {
	*ServerConfig

	doneCh        chan struct{}   // signals internal go routines to shutdown
	internalSrvWG *sync.WaitGroup // waits for internal go routines before exit

	eventEngine eventengine.SubscribeRegisterPublisher
	srv         *http.Server
}

func NewServer(serverConfig *ServerConfig) *server {
	srv := &server{
		ServerConfig:  serverConfig,
		doneCh:        make(chan struct{}),
		internalSrvWG: &sync.WaitGroup{},
	}

	return srv
}

func (s *server) Run() {
	router := chi.NewRouter()

	// strip trailing slashes so /items/1/ routes the same as /items/1
	router.Use(chimiddleware.StripSlashes)

	s.prep()

	router.Mount("/api/v1", s.v1Router()) // api version 1 subrouter

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%s", s.Config.ServerAddr),
		Handler: router,
	}

	// start server and listen for [os.Signal] signals to gracefully
	// shutdown the server.
	s.listenAndServe()
}

func (s *server) listenAndServe() {
	shutdownCtx, shutdownCancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer shutdownCancel()

	errGrp, shutdownCtx := errgroup.WithContext(shutdownCtx)

	errGrp.Go(
		func() error {
			s.Logger.Info("server started", zap.String("port", s.Config.ServerAddr))

			if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) && err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}

			return nil
		},
	)

	errGrp.Go(
		func() error {
			<-shutdownCtx.Done() // block and listen for shutdown signals
			s.Logger.Info("server is gracefully shutting down")

			ctx, cancel := context.WithTimeout(
				context.Background(),
				s.Config.ShutdownTimeout,
			)
			defer cancel()

			s.Logger.Info("waiting for pending requests to finish")
			if err := s.srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("server failed to shutdown gracefully: %w", err)
			}

			return nil
		},
	)

	if err := errGrp.Wait(); err != nil {
		s.Logger.Fatal("server exited with error", zap.Error(err))
	}
	s.Logger.Info("all pending requests completed")

	s.Logger.Info("draining internal go routines")
	close(s.doneCh)
	s.internalSrvWG.Wait()
	s.Logger.Info("all internal go routines are done")

	if err := s.DB.Close(); err != nil {
		s.Logger.Error("failed to close db for shutdown", zap.Error(err))
	}

	s.Logger.Info("server has been gracefully shutdown")
	os.Exit(0)
}

// prep prepares server dependencies needed before routes are mounted.
func (s *server) prep() {
	s.eventEngine = eventengine.NewEventEngine(
		&eventengine.EventEngineConfig{
			DoneCh:        s.doneCh,
			InternalSrvWG: s.internalSrvWG,
			Logger:        s.Logger,
		},
	)
}

func (s *server) v1Router() *chi.Mux {
	r := chi.NewRouter()

	// health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	middleware := middlewares.NewMiddleware(s.Logger)

	// item feature
	itemStore := item.NewStore(s.DB)
	itemService := item.NewService(itemStore)
	itemHandler := item.NewHandler(itemService, middleware)
	itemHandler.RegisterRoutes(r)

	// ledger feature
	ledgerStore := ledger.NewStore(s.DB)
	ledgerService := ledger.NewService(ledgerStore)
	ledgerHandler := ledger.NewHandler(ledgerService, middleware)
	ledgerHandler.RegisterRoutes(r)

	// transition feature
	transitionStore := transition.NewStore(s.DB)
	transitionService := transition.NewService(
		&transition.ServiceConfig{
			Store:           transitionStore,
			EventEngine:     s.eventEngine,
			Logger:          s.Logger,
			DefaultFacility: s.Config.DefaultFacility,
			MaxRetries:      s.Config.TransitionMaxRetries,
			RetryBase:       s.Config.TransitionRetryBase,
		},
	)
	transitionHandler := transition.NewHandler(transitionService, middleware)
	transitionHandler.RegisterRoutes(r)

	// reconciliation feature
	reconciliationStore := reconciliation.NewStore(s.DB)
	reconciliationService := reconciliation.NewService(
		&reconciliation.ServiceConfig{
			Store:              reconciliationStore,
			Recipes:            reconciliationStore,
			Occupancy:          reconciliationStore,
			EventEngine:        s.eventEngine,
			Logger:             s.Logger,
			VendorBacklogRatio: s.Config.VendorBacklogRatio,
		},
	)
	reconciliationHandler := reconciliation.NewHandler(reconciliationService, middleware)
	reconciliationHandler.RegisterRoutes(r)

	// finance feature
	financeStore := finance.NewStore(s.DB)
	financeService := finance.NewService(financeStore)
	financeHandler := finance.NewHandler(financeService, middleware)
	financeHandler.RegisterRoutes(r)

	finance.NewEventHandler(
		&finance.HandlerEventsConfig{
			DoneCh:        s.doneCh,
			InternalSrvWG: s.internalSrvWG,
			EventEngine:   s.eventEngine,
			Service:       financeService,
			Logger:        s.Logger,
		},
	)

	// notification feature
	notificationService := notification.NewService(s.Logger)
	notification.NewEventHandler(
		&notification.HandlerEventsConfig{
			DoneCh:        s.doneCh,
			InternalSrvWG: s.internalSrvWG,
			EventEngine:   s.eventEngine,
			Service:       notificationService,
			Logger:        s.Logger,
		},
	)

	return r
}
