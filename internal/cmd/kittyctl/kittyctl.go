// Package kittyctl implements the kittyctl command line client.
package kittyctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	entrypoint "github.com/louisbranch/kitties/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/kitties/internal/platform/grpc"
	"github.com/louisbranch/kitties/internal/platform/timeouts"
	kittiesgrpc "github.com/louisbranch/kitties/internal/services/kitties/api/grpc/kitties"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Config holds the environment defaults of kittyctl.
type Config struct {
	Addr      string        `env:"KITTIES_ADDR" envDefault:"localhost:8095"`
	AccountID string        `env:"KITTIES_ACCOUNT_ID"`
	Timeout   time.Duration `env:"KITTIES_TIMEOUT" envDefault:"5s"`
}

// Caller invokes KittyService methods.
type Caller interface {
	Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// DialFunc connects to addr and returns a caller plus its close function.
type DialFunc func(ctx context.Context, addr string) (Caller, func() error, error)

// Options wires the command's outputs and transport.
type Options struct {
	Out  io.Writer
	Dial DialFunc
}

// ParseConfig loads kittyctl environment defaults.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Dial connects to a kitties server and waits for it to report healthy.
func Dial(ctx context.Context, addr string) (Caller, func() error, error) {
	conn, err := platformgrpc.DialWithHealth(ctx, nil, addr, timeouts.GRPCDial, nil, platformgrpc.DefaultClientDialOptions()...)
	if err != nil {
		return nil, nil, err
	}
	return kittiesgrpc.NewKittyServiceClient(conn), conn.Close, nil
}

// NewRootCommand builds the kittyctl command tree.
func NewRootCommand(cfg Config, opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Dial == nil {
		opts.Dial = Dial
	}
	c := &cli{cfg: cfg, opts: opts}

	root := &cobra.Command{
		Use:           entrypoint.ServiceKittyctl,
		Short:         "Operate on the kitties ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.cfg.Addr, "addr", cfg.Addr, "kitties server address")
	root.PersistentFlags().StringVar(&c.cfg.AccountID, "account", cfg.AccountID, "calling account id")
	root.PersistentFlags().DurationVar(&c.cfg.Timeout, "timeout", cfg.Timeout, "per-call timeout")

	root.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Mint a kitty with random DNA",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.invoke(cmd.Context(), kittiesgrpc.MethodCreateKitty, nil)
			},
		},
		&cobra.Command{
			Use:   "breed <parent1> <parent2>",
			Short: "Mint a kitty from two parents",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				parent1, err := kitty.ParseID(args[0])
				if err != nil {
					return err
				}
				parent2, err := kitty.ParseID(args[1])
				if err != nil {
					return err
				}
				return c.invoke(cmd.Context(), kittiesgrpc.MethodBreedKitty, map[string]any{
					"parent1": float64(parent1),
					"parent2": float64(parent2),
				})
			},
		},
		&cobra.Command{
			Use:   "transfer <kitty-id> <to-account>",
			Short: "Hand a kitty to another account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := kitty.ParseID(args[0])
				if err != nil {
					return err
				}
				to, err := kitty.ParseAccountID(args[1])
				if err != nil {
					return err
				}
				return c.invoke(cmd.Context(), kittiesgrpc.MethodTransferKitty, map[string]any{
					"kitty_id": float64(id),
					"to":       to.String(),
				})
			},
		},
		newListCommand(c),
		&cobra.Command{
			Use:   "buy <kitty-id> <offer>",
			Short: "Buy a listed kitty",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := kitty.ParseID(args[0])
				if err != nil {
					return err
				}
				offer, err := kitty.ParseBalance(args[1])
				if err != nil {
					return err
				}
				return c.invoke(cmd.Context(), kittiesgrpc.MethodBuyKitty, map[string]any{
					"kitty_id": float64(id),
					"offer":    offer.String(),
				})
			},
		},
		&cobra.Command{
			Use:   "kitty <kitty-id>",
			Short: "Show a kitty's DNA, owner and price",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := kitty.ParseID(args[0])
				if err != nil {
					return err
				}
				return c.invoke(cmd.Context(), kittiesgrpc.MethodGetKitty, map[string]any{"kitty_id": float64(id)})
			},
		},
		&cobra.Command{
			Use:   "balance [account-id]",
			Short: "Show free and reserved balances",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fields := map[string]any{}
				if len(args) == 1 {
					who, err := kitty.ParseAccountID(args[0])
					if err != nil {
						return err
					}
					fields["account_id"] = who.String()
				}
				return c.invoke(cmd.Context(), kittiesgrpc.MethodGetBalance, fields)
			},
		},
		newEventsCommand(c),
		&cobra.Command{
			Use:   "verify",
			Short: "Verify the event journal hash chain and signatures",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.invoke(cmd.Context(), kittiesgrpc.MethodVerifyEvents, nil)
			},
		},
	)
	return root
}

func newListCommand(c *cli) *cobra.Command {
	var withdraw bool
	listCmd := &cobra.Command{
		Use:   "list <kitty-id> [price]",
		Short: "Set or clear a kitty's asking price",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := kitty.ParseID(args[0])
			if err != nil {
				return err
			}
			fields := map[string]any{"kitty_id": float64(id), "price": nil}
			switch {
			case withdraw && len(args) == 2:
				return errors.New("price and --clear are mutually exclusive")
			case !withdraw && len(args) == 1:
				return errors.New("price is required unless --clear is set")
			case len(args) == 2:
				price, err := kitty.ParseBalance(args[1])
				if err != nil {
					return err
				}
				fields["price"] = price.String()
			}
			return c.invoke(cmd.Context(), kittiesgrpc.MethodListKitty, fields)
		},
	}
	listCmd.Flags().BoolVar(&withdraw, "clear", false, "withdraw the kitty from sale")
	return listCmd
}

func newEventsCommand(c *cli) *cobra.Command {
	var pageSize int32
	var pageToken string
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "List journal events in sequence order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.invoke(cmd.Context(), kittiesgrpc.MethodListEvents, map[string]any{
				"page_size":  float64(pageSize),
				"page_token": pageToken,
			})
		},
	}
	eventsCmd.Flags().Int32Var(&pageSize, "page-size", 0, "events per page (server default when 0)")
	eventsCmd.Flags().StringVar(&pageToken, "page-token", "", "token from a previous page")
	return eventsCmd
}

type cli struct {
	cfg  Config
	opts Options
}

func (c *cli) invoke(ctx context.Context, method string, fields map[string]any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	caller, closeFn, err := c.opts.Dial(ctx, c.cfg.Addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.cfg.Addr, err)
	}
	defer func() { _ = closeFn() }()

	if c.cfg.AccountID != "" {
		who, err := kitty.ParseAccountID(c.cfg.AccountID)
		if err != nil {
			return err
		}
		ctx = kittiesgrpc.WithCaller(ctx, uint64(who))
	}
	timeout := c.cfg.Timeout
	if timeout <= 0 {
		timeout = timeouts.GRPCRequest
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := caller.Call(callCtx, method, in)
	if err != nil {
		return err
	}
	rendered, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(out)
	if err != nil {
		return fmt.Errorf("render response: %w", err)
	}
	_, err = fmt.Fprintln(c.opts.Out, string(rendered))
	return err
}
