package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/louisbranch/kitties/internal/random"
	kittiesgrpc "github.com/louisbranch/kitties/internal/services/kitties/api/grpc/kitties"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/engine"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/ledger"
	"github.com/louisbranch/kitties/internal/services/kitties/storage"
	"github.com/louisbranch/kitties/internal/services/kitties/storage/integrity"
	kittiessqlite "github.com/louisbranch/kitties/internal/services/kitties/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// ErrSeedMismatch reports a configured entropy seed that differs from the
// seed the store was initialized with.
var ErrSeedMismatch = errors.New("configured entropy seed does not match the stored seed")

// Config holds the server settings resolved by the command layer.
type Config struct {
	Addr               string
	DBPath             string
	EntropySeed        []byte
	CreateDeposit      kitty.Balance
	ExistentialDeposit kitty.Balance
	// GenesisBalances endows accounts when the store is first initialized.
	GenesisBalances map[kitty.AccountID]kitty.Balance
	BreedPolicy     ledger.BreedPolicy
	Keyring         *integrity.Keyring
	Logger          *zap.Logger
}

// Server hosts the kitties service.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      storage.Store
	handler    *engine.Handler
	logger     *zap.Logger
	closeOnce  sync.Once
}

// New opens storage, restores the ledger and binds the listener.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := openStore(ctx, cfg.DBPath, cfg.Keyring, logger)
	if err != nil {
		return nil, err
	}
	handler, err := Bootstrap(ctx, store, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(kittiesgrpc.UnaryServerInterceptor(nil)),
	)
	kittiesgrpc.RegisterKittyServiceServer(grpcServer, kittiesgrpc.NewService(handler, store, logger))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(kittiesgrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		handler:    handler,
		logger:     logger,
	}, nil
}

// Bootstrap initializes store on first use and returns an engine over the
// persisted ledger. A configured seed must match the stored one.
func Bootstrap(ctx context.Context, store storage.LedgerStore, cfg Config) (*engine.Handler, error) {
	if store == nil {
		return nil, errors.New("ledger store is required")
	}
	seed := bytes.Clone(cfg.EntropySeed)
	if len(seed) == 0 {
		generated, err := random.NewSeedBytes()
		if err != nil {
			return nil, fmt.Errorf("generate entropy seed: %w", err)
		}
		seed = generated
	}
	balances, err := genesisBalances(cfg.GenesisBalances, cfg.ExistentialDeposit)
	if err != nil {
		return nil, err
	}
	stored, err := store.Init(ctx, storage.Genesis{Seed: seed, Balances: balances})
	if err != nil {
		return nil, fmt.Errorf("initialize store: %w", err)
	}
	if len(cfg.EntropySeed) > 0 && !bytes.Equal(stored, cfg.EntropySeed) {
		return nil, ErrSeedMismatch
	}

	state := ledger.NewState()
	bank := currency.NewMemory(cfg.ExistentialDeposit)
	if err := store.Load(ctx, state, bank); err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	source, err := random.NewSource(stored)
	if err != nil {
		return nil, fmt.Errorf("build entropy source: %w", err)
	}
	return engine.NewHandler(state, bank, engine.Options{
		Ledger: ledger.Ledger{
			Entropy: source,
			Policy:  cfg.BreedPolicy,
			Deposit: cfg.CreateDeposit,
		},
		Store:  store,
		Logger: cfg.Logger,
	})
}

// genesisBalances stages the endowments through the currency rules so an
// amount under the existential deposit is rejected at startup.
func genesisBalances(endowments map[kitty.AccountID]kitty.Balance, existentialDeposit kitty.Balance) ([]currency.Change, error) {
	tx := currency.NewMemory(existentialDeposit).Begin()
	for who, amount := range endowments {
		if err := tx.Deposit(who, amount); err != nil {
			return nil, fmt.Errorf("genesis balance for account %s: %w", who, err)
		}
	}
	return tx.Changes(), nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a kitties server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	s.logger.Info("kitties server listening",
		zap.String("addr", s.Addr()),
		zap.Uint32("next_kitty_id", uint32(s.handler.NextID())),
	)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.health != nil {
			s.health.Shutdown()
		}
		if s.grpcServer != nil {
			s.grpcServer.Stop()
		}
		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("close kitties listener", zap.Error(err))
			}
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				s.logger.Warn("close kitties store", zap.Error(err))
			}
		}
	})
}

func openStore(ctx context.Context, path string, keyring *integrity.Keyring, logger *zap.Logger) (storage.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, applied, err := kittiessqlite.Open(ctx, path, keyring)
	if err != nil {
		return nil, fmt.Errorf("open kitties sqlite store: %w", err)
	}
	for _, name := range applied {
		logger.Info("applied migration", zap.String("migration", name))
	}
	return store, nil
}
