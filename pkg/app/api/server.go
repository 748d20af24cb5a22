// Package api implements app.Runner for the orchestrator service process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/lpbridge/middleware/pkg/app/http"
	"github.com/lpbridge/middleware/pkg/backend"
	"github.com/lpbridge/middleware/pkg/chain"
	"github.com/lpbridge/middleware/pkg/config"
	"github.com/lpbridge/middleware/pkg/deposit"
	"github.com/lpbridge/middleware/pkg/exitwatch"
	"github.com/lpbridge/middleware/pkg/gate"
	"github.com/lpbridge/middleware/pkg/orchestrator"
	"github.com/lpbridge/middleware/pkg/pgutil"
	"github.com/lpbridge/middleware/pkg/quote"
	"github.com/lpbridge/middleware/pkg/record"
	"github.com/lpbridge/middleware/pkg/registry"
	"github.com/lpbridge/middleware/pkg/wallet"
)

const defaultRequestTimeout = 60

// Server holds cfg to init the orchestrator service.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new orchestrator server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("orchestrator config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting orchestrator service",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	logger.Info("Registry loaded",
		zap.Int("chains", len(reg.Chains)),
		zap.Int("tokens", len(reg.Tokens)),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	signer, err := wallet.NewKeyWallet(cfg.Wallet.PrivateKey)
	if err != nil {
		return fmt.Errorf("init wallet: %w", err)
	}

	clients, err := s.dialChains(reg, logger)
	if err != nil {
		return err
	}

	backendClient := backend.NewClient(
		cfg.Backend.BaseURL,
		&http.Client{Timeout: cfg.Backend.RequestTimeout},
		logger,
	)

	poolClients := make([]*chain.Client, 0, len(clients))
	for _, c := range clients {
		poolClients = append(poolClients, c)
	}
	quoter := quote.NewEngine(
		reg,
		chain.NewPools(poolClients...),
		quote.NewDebouncedGasPrice(backendClient, cfg.Orchestrator.GasPriceDebounce),
		logger,
	)

	session := &orchestrator.Session{UserAddress: signer.Address()}
	records := record.NewStore(db)
	orch := s.buildOrchestrator(reg, clients, backendClient, signer, session, quoter, records, logger)

	handler := newHandler(orch, session, quoter, records, reg, clients, db, logger)
	router := s.setupRouter(handler)

	return apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)
}

func (s *Server) dialChains(reg *registry.Registry, logger *zap.Logger) (map[int64]*chain.Client, error) {
	clients := make(map[int64]*chain.Client, len(reg.Chains))
	for _, c := range reg.Chains {
		client, err := chain.Dial(c, logger)
		if err != nil {
			return nil, fmt.Errorf("dial chain %s: %w", c.Name, err)
		}
		clients[c.ChainID] = client
		logger.Info("Connected to chain",
			zap.String("chain", c.Name),
			zap.Int64("chain_id", c.ChainID),
		)
	}
	return clients, nil
}

func (s *Server) buildOrchestrator(
	reg *registry.Registry,
	clients map[int64]*chain.Client,
	backendClient *backend.Client,
	signer *wallet.KeyWallet,
	session *orchestrator.Session,
	quoter orchestrator.Quoter,
	records *record.Store,
	logger *zap.Logger,
) *orchestrator.Orchestrator {
	cfg := s.cfg.Orchestrator

	broadcasters := make(map[int64]deposit.Broadcaster, len(clients))
	confirmers := make(map[int64]exitwatch.Confirmer, len(clients))
	for id, c := range clients {
		broadcasters[id] = c
		confirmers[id] = c
	}

	submitter := deposit.NewSubmitter(reg, broadcasters, backendClient, signer, deposit.Options{
		Gasless:           s.cfg.Wallet.Gasless,
		ConfirmationDepth: cfg.ConfirmationDepth,
	}, logger)

	watcher := exitwatch.NewWatcher(backendClient, cfg.ExitPollInterval, cfg.ExitPollMaxAttempts, logger)

	return orchestrator.New(orchestrator.Config{
		Session:           session,
		Quoter:            quoter,
		Gate:              gate.NewGate(reg, backendClient, logger),
		Submitter:         submitter,
		Watcher:           watcher,
		Confirmers:        confirmers,
		Records:           records,
		ConfirmationDepth: cfg.ConfirmationDepth,
		Logger:            logger,
	})
}

func (s *Server) setupRouter(h *handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Second * defaultRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ready", apphttp.HandleError(h.ready))

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/quote", apphttp.HandleError(h.quote))
		r.Post("/transfers", apphttp.HandleError(h.initiate))
		r.Get("/transfers", apphttp.HandleError(h.list))
		r.Get("/transfers/state", apphttp.HandleError(h.state))
		r.Post("/transfers/reset", apphttp.HandleError(h.reset))
		r.Get("/transfers/{id}", apphttp.HandleError(h.get))
	})

	return r
}
