package server

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	platformgrpc "github.com/louisbranch/kitties/internal/platform/grpc"
	kittiesgrpc "github.com/louisbranch/kitties/internal/services/kitties/api/grpc/kitties"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/command"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/currency"
	"github.com/louisbranch/kitties/internal/services/kitties/domain/kitty"
	"github.com/louisbranch/kitties/internal/services/kitties/storage/integrity"
	"github.com/louisbranch/kitties/internal/services/kitties/storage/memory"
	"go.uber.org/goleak"
	"google.golang.org/protobuf/types/known/structpb"
)

func testKeyring(t *testing.T) *integrity.Keyring {
	t.Helper()
	ring, err := integrity.NewKeyring(map[string][]byte{"v1": []byte("test-secret")}, "v1")
	if err != nil {
		t.Fatalf("new keyring: %v", err)
	}
	return ring
}

func testConfig(t *testing.T, dbPath string) Config {
	t.Helper()
	return Config{
		Addr:            "127.0.0.1:0",
		DBPath:          dbPath,
		EntropySeed:     []byte("server-test-seed"),
		CreateDeposit:   1,
		GenesisBalances: map[kitty.AccountID]kitty.Balance{1: 100, 2: 100},
		Keyring:         testKeyring(t),
	}
}

func TestBootstrapKeepsExistingGenesis(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)

	cfg := Config{
		EntropySeed:     []byte("first"),
		CreateDeposit:   1,
		GenesisBalances: map[kitty.AccountID]kitty.Balance{1: 50},
	}
	if _, err := Bootstrap(ctx, store, cfg); err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}

	handler, err := Bootstrap(ctx, store, Config{
		CreateDeposit:   1,
		GenesisBalances: map[kitty.AccountID]kitty.Balance{1: 9999, 3: 10},
	})
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if got := handler.Balance(1); got != (currency.Account{Free: 50}) {
		t.Fatalf("balance = %v, want free 50", got)
	}
	if got := handler.Balance(3); got != (currency.Account{}) {
		t.Fatalf("late genesis must be ignored, got %v", got)
	}
}

func TestBootstrapRejectsSeedMismatch(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	if _, err := Bootstrap(ctx, store, Config{EntropySeed: []byte("one")}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	_, err := Bootstrap(ctx, store, Config{EntropySeed: []byte("two")})
	if !errors.Is(err, ErrSeedMismatch) {
		t.Fatalf("err = %v, want %v", err, ErrSeedMismatch)
	}
}

func TestBootstrapRejectsEndowmentBelowExistentialDeposit(t *testing.T) {
	_, err := Bootstrap(context.Background(), memory.New(nil), Config{
		EntropySeed:        []byte("seed"),
		ExistentialDeposit: 10,
		GenesisBalances:    map[kitty.AccountID]kitty.Balance{1: 5},
	})
	if !errors.Is(err, currency.ErrExistentialDeposit) {
		t.Fatalf("err = %v, want %v", err, currency.ErrExistentialDeposit)
	}
}

func TestNewRequiresKeyring(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "kitties.db"))
	cfg.Keyring = nil
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected error without keyring")
	}
}

func TestRestartRestoresLedger(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "data", "kitties.db")

	first, err := New(ctx, testConfig(t, dbPath))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	cmd, err := command.New(command.TypeCreate, 1, command.CreatePayload{})
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	created, err := first.handler.Execute(ctx, cmd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	before, err := first.handler.Kitty(created.KittyID)
	if err != nil {
		t.Fatalf("kitty: %v", err)
	}
	first.Close()

	second, err := New(ctx, testConfig(t, dbPath))
	if err != nil {
		t.Fatalf("reopen server: %v", err)
	}
	defer second.Close()

	after, err := second.handler.Kitty(created.KittyID)
	if err != nil {
		t.Fatalf("kitty after restart: %v", err)
	}
	if after.DNA != before.DNA || after.Owner != before.Owner {
		t.Fatalf("kitty after restart = %+v, want %+v", after, before)
	}
	if got := second.handler.NextID(); got != 2 {
		t.Fatalf("next id = %d, want 2", got)
	}
	if got := second.handler.Balance(1); got != (currency.Account{Free: 99, Reserved: 1}) {
		t.Fatalf("balance = %v", got)
	}
}

func TestServeStopsOnContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv, err := New(context.Background(), testConfig(t, filepath.Join(t.TempDir(), "kitties.db")))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ctx)
	}()

	conn, err := platformgrpc.DialWithHealth(ctx, nil, srv.Addr(), 2*time.Second, nil, platformgrpc.DefaultClientDialOptions()...)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	client := kittiesgrpc.NewKittyServiceClient(conn)
	callCtx, callCancel := context.WithTimeout(kittiesgrpc.WithCaller(context.Background(), 2), time.Second)
	out, err := client.Call(callCtx, kittiesgrpc.MethodCreateKitty, &structpb.Struct{})
	callCancel()
	if err != nil {
		t.Fatalf("create kitty: %v", err)
	}
	if got := out.GetFields()["kitty"].GetStructValue().GetFields()["owner"].GetStringValue(); got != "2" {
		t.Fatalf("owner = %q, want 2", got)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close conn: %v", err)
	}

	cancel()
	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop in time")
	}
}
