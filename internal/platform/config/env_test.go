package config

import (
	"bytes"
	"strings"
	"testing"
)

type envTestConfig struct {
	Port     int      `env:"KITTIES_TEST_PORT" envDefault:"123"`
	Seed     HexBytes `env:"KITTIES_TEST_SEED"`
	Balances Balances `env:"KITTIES_TEST_BALANCES"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
	if cfg.Seed != nil {
		t.Fatalf("expected empty seed, got %x", []byte(cfg.Seed))
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("KITTIES_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvCustomTypes(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("KITTIES_TEST_SEED", "0xdeadbeef")
	t.Setenv("KITTIES_TEST_BALANCES", "2=50, 1=100000")

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if !bytes.Equal(cfg.Seed, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("seed = %x, want deadbeef", []byte(cfg.Seed))
	}
	if got := cfg.Balances[1]; got != 100000 {
		t.Fatalf("balance[1] = %d, want 100000", got)
	}
	accounts := cfg.Balances.Accounts()
	if len(accounts) != 2 || accounts[0] != 1 || accounts[1] != 2 {
		t.Fatalf("accounts = %v, want [1 2]", accounts)
	}
}

func TestParseBalancesRejectsMalformedEntries(t *testing.T) {
	for _, input := range []string{"1", "x=1", "1=y", "1=1,1=2"} {
		if _, err := ParseBalances(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestParseHexBytesRejectsInvalidHex(t *testing.T) {
	if _, err := ParseHexBytes("zz"); err == nil {
		t.Fatal("expected error")
	}
}
