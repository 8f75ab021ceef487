package integrity

import (
	"fmt"
	"strings"

	"github.com/louisbranch/kitties/internal/platform/config"
)

// KeyringConfig is the environment configuration of the journal keyring.
// KITTIES_EVENT_HMAC_KEYS ("id=secret,id=secret") takes precedence over the
// single KITTIES_EVENT_HMAC_KEY.
type KeyringConfig struct {
	Key   string `env:"KITTIES_EVENT_HMAC_KEY"`
	KeyID string `env:"KITTIES_EVENT_HMAC_KEY_ID" envDefault:"v1"`
	Keys  string `env:"KITTIES_EVENT_HMAC_KEYS"`
}

// KeyringFromEnv loads the HMAC keyring from environment variables.
func KeyringFromEnv() (*Keyring, error) {
	var cfg KeyringConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return cfg.Keyring()
}

// Keyring builds the keyring described by the configuration.
func (c KeyringConfig) Keyring() (*Keyring, error) {
	keyID := strings.TrimSpace(c.KeyID)
	if keyID == "" {
		keyID = "v1"
	}

	spec := strings.TrimSpace(c.Keys)
	if spec == "" {
		raw := strings.TrimSpace(c.Key)
		if raw == "" {
			return nil, fmt.Errorf("KITTIES_EVENT_HMAC_KEY is required")
		}
		return NewKeyring(map[string][]byte{keyID: []byte(raw)}, keyID)
	}

	keys := make(map[string][]byte)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, value, ok := strings.Cut(entry, "=")
		id = strings.TrimSpace(id)
		value = strings.TrimSpace(value)
		if !ok || id == "" || value == "" {
			return nil, fmt.Errorf("invalid KITTIES_EVENT_HMAC_KEYS entry %q", entry)
		}
		keys[id] = []byte(value)
	}
	return NewKeyring(keys, keyID)
}
