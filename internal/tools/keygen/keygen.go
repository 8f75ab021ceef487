// Package keygen prints fresh secrets for a kitties deployment in env file
// form.
package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/louisbranch/kitties/internal/random"
)

const (
	hmacKeyEnv     = "KITTIES_EVENT_HMAC_KEY"
	hmacKeyIDEnv   = "KITTIES_EVENT_HMAC_KEY_ID"
	entropySeedEnv = "KITTIES_ENTROPY_SEED"
)

// Config holds configuration for key generation.
type Config struct {
	Bytes int
	KeyID string
	Seed  bool
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: 32, KeyID: "v1", Seed: true}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "number of random bytes in the HMAC key")
	fs.StringVar(&cfg.KeyID, "key-id", cfg.KeyID, "identifier recorded with each event signature")
	fs.BoolVar(&cfg.Seed, "seed", cfg.Seed, "also print a fresh entropy seed")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates the secrets and writes them to out.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.Bytes <= 0 {
		return errors.New("bytes must be greater than zero")
	}
	if cfg.KeyID == "" {
		return errors.New("key id is required")
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	key := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, key); err != nil {
		return fmt.Errorf("generate hmac key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "%s=%s\n%s=%s\n", hmacKeyIDEnv, cfg.KeyID, hmacKeyEnv, hex.EncodeToString(key)); err != nil {
		return err
	}
	if !cfg.Seed {
		return nil
	}

	seed := make([]byte, random.SeedSize)
	if _, err := io.ReadFull(reader, seed); err != nil {
		return fmt.Errorf("generate entropy seed: %w", err)
	}
	_, err := fmt.Fprintf(out, "%s=%s\n", entropySeedEnv, hex.EncodeToString(seed))
	return err
}
