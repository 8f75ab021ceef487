// Package kitties parses kitties command flags and starts the ledger service.
package kitties

import (
	"context"
	"flag"
	"fmt"

	entrypoint "github.com/louisbranch/kitties/internal/platform/cmd"
	"github.com/louisbranch/kitties/internal/platform/config"
	"github.com/louisbranch/kitties/internal/platform/logging"
	"github.com/louisbranch/kitties/internal/platform/timeouts"
	server "github.com/louisbranch/kitties/internal/services/kitties/app"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/ledger"
	"github.com/louisbranch/kitties/internal/services/kitties/storage/integrity"
	"go.uber.org/zap"
)

// Config holds kitties command configuration.
type Config struct {
	Port               int             `env:"KITTIES_PORT" envDefault:"8095"`
	DBPath             string          `env:"KITTIES_DB_PATH" envDefault:"data/kitties.db"`
	LogLevel           string          `env:"KITTIES_LOG_LEVEL" envDefault:"info"`
	EntropySeed        config.HexBytes `env:"KITTIES_ENTROPY_SEED"`
	CreateDeposit      uint64          `env:"KITTIES_CREATE_DEPOSIT" envDefault:"1"`
	ExistentialDeposit uint64          `env:"KITTIES_EXISTENTIAL_DEPOSIT" envDefault:"0"`
	GenesisBalances    config.Balances `env:"KITTIES_GENESIS_BALANCES"`
	RequireOwnership   bool            `env:"KITTIES_BREED_REQUIRE_OWNERSHIP"`
	RequireDistinct    bool            `env:"KITTIES_BREED_REQUIRE_DISTINCT_PARENTS"`

	Keyring integrity.KeyringConfig

	// Addr is flag-only and overrides Port.
	Addr string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The kitties gRPC server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The kitties server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The kitties SQLite database path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "The log level (debug, info, warn, error)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListenAddr returns the configured listen address.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return fmt.Sprintf(":%d", c.Port)
}

// ServerConfig resolves the server settings, building the journal keyring.
func (c Config) ServerConfig(logger *zap.Logger) (server.Config, error) {
	keyring, err := c.Keyring.Keyring()
	if err != nil {
		return server.Config{}, fmt.Errorf("load event keyring: %w", err)
	}
	balances := make(map[kitty.AccountID]kitty.Balance, len(c.GenesisBalances))
	for _, account := range c.GenesisBalances.Accounts() {
		balances[kitty.AccountID(account)] = kitty.Balance(c.GenesisBalances[account])
	}
	return server.Config{
		Addr:               c.ListenAddr(),
		DBPath:             c.DBPath,
		EntropySeed:        []byte(c.EntropySeed),
		CreateDeposit:      kitty.Balance(c.CreateDeposit),
		ExistentialDeposit: kitty.Balance(c.ExistentialDeposit),
		GenesisBalances:    balances,
		BreedPolicy: ledger.BreedPolicy{
			RequireOwnership:       c.RequireOwnership,
			RequireDistinctParents: c.RequireDistinct,
		},
		Keyring: keyring,
		Logger:  logger,
	}, nil
}

// Run starts the kitties ledger service.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(entrypoint.ServiceKitties, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	serverCfg, err := cfg.ServerConfig(logger)
	if err != nil {
		return err
	}
	options := entrypoint.RunOptions{ShutdownTimeout: timeouts.Shutdown, Logger: logger}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceKitties, options, func(ctx context.Context) error {
		return server.Run(ctx, serverCfg)
	})
}
