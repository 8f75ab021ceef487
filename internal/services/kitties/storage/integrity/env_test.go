package integrity

import "testing"

func setKeyEnv(t *testing.T, key, keyID, keys string) {
	t.Helper()
	t.Setenv("KITTIES_EVENT_HMAC_KEY", key)
	t.Setenv("KITTIES_EVENT_HMAC_KEY_ID", keyID)
	t.Setenv("KITTIES_EVENT_HMAC_KEYS", keys)
}

func TestKeyringFromEnvRequiresKey(t *testing.T) {
	setKeyEnv(t, "", "", "")
	if _, err := KeyringFromEnv(); err == nil {
		t.Fatal("expected error when no key is configured")
	}
}

func TestKeyringFromEnvSingleKey(t *testing.T) {
	setKeyEnv(t, "secret", "", "")
	ring, err := KeyringFromEnv()
	if err != nil {
		t.Fatalf("keyring from env: %v", err)
	}
	if ring.ActiveKeyID() != "v1" {
		t.Fatalf("expected default key id v1, got %s", ring.ActiveKeyID())
	}
}

func TestKeyringFromEnvKeySpec(t *testing.T) {
	setKeyEnv(t, "", "k2", "k1=one, ,k2=two")
	ring, err := KeyringFromEnv()
	if err != nil {
		t.Fatalf("keyring from env: %v", err)
	}
	if ring.ActiveKeyID() != "k2" {
		t.Fatalf("expected active key id k2, got %s", ring.ActiveKeyID())
	}
}

func TestKeyringFromEnvInvalidKeySpec(t *testing.T) {
	for _, spec := range []string{"bad-entry", "k1=one,k2=", "=x"} {
		setKeyEnv(t, "", "k1", spec)
		if _, err := KeyringFromEnv(); err == nil {
			t.Fatalf("expected error for key spec %q", spec)
		}
	}
}
