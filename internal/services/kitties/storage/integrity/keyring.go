package integrity

import (
	"crypto/hkdf"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Keyring stores root HMAC keys and the active key id.
type Keyring struct {
	keys        map[string][]byte
	activeKeyID string
}

// NewKeyring constructs a keyring for HMAC signing and verification.
func NewKeyring(keys map[string][]byte, activeKeyID string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("hmac keys are required")
	}
	activeKeyID = strings.TrimSpace(activeKeyID)
	if activeKeyID == "" {
		return nil, fmt.Errorf("active hmac key id is required")
	}
	if _, ok := keys[activeKeyID]; !ok {
		return nil, fmt.Errorf("active hmac key id %q is not configured", activeKeyID)
	}
	copied := make(map[string][]byte, len(keys))
	for id, key := range keys {
		copied[id] = append([]byte(nil), key...)
	}
	return &Keyring{keys: copied, activeKeyID: activeKeyID}, nil
}

// ActiveKeyID returns the configured signing key id.
func (k *Keyring) ActiveKeyID() string {
	if k == nil {
		return ""
	}
	return k.activeKeyID
}

// Sign signs a chain hash for journal with the active key. It returns the
// signature and the key id used.
func (k *Keyring) Sign(journal, chainHash string) (string, string, error) {
	if k == nil {
		return "", "", fmt.Errorf("hmac keyring is not configured")
	}
	key, err := deriveJournalKey(k.keys[k.activeKeyID], journal)
	if err != nil {
		return "", "", err
	}
	return hmacSHA256Hex(key, chainHash), k.activeKeyID, nil
}

// Verify checks a chain hash signature made by any configured key.
func (k *Keyring) Verify(journal, chainHash, signature, keyID string) error {
	if k == nil {
		return fmt.Errorf("hmac keyring is not configured")
	}
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return fmt.Errorf("signature key id is required")
	}
	rootKey, ok := k.keys[keyID]
	if !ok {
		return fmt.Errorf("signature key id %q is unknown", keyID)
	}
	key, err := deriveJournalKey(rootKey, journal)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(hmacSHA256Hex(key, chainHash)), []byte(signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

func deriveJournalKey(rootKey []byte, journal string) ([]byte, error) {
	journal = strings.TrimSpace(journal)
	if journal == "" {
		return nil, fmt.Errorf("journal name is required")
	}
	key, err := hkdf.Key(sha256.New, rootKey, nil, "journal:"+journal, 32)
	if err != nil {
		return nil, fmt.Errorf("derive journal key: %w", err)
	}
	return key, nil
}

func hmacSHA256Hex(key []byte, value string) string {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
