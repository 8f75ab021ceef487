// Package config loads process configuration from the environment.
package config

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
)

// HexBytes is a byte slice configured as a hex string.
type HexBytes []byte

// Balances maps account ids to amounts, configured as "acct=amount,acct=amount".
type Balances map[uint64]uint64

// Accounts returns the configured account ids in ascending order.
func (b Balances) Accounts() []uint64 {
	accounts := make([]uint64, 0, len(b))
	for account := range b {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })
	return accounts
}

var parsers = map[reflect.Type]env.ParserFunc{
	reflect.TypeOf(HexBytes(nil)): func(value string) (any, error) {
		return ParseHexBytes(value)
	},
	reflect.TypeOf(Balances(nil)): func(value string) (any, error) {
		return ParseBalances(value)
	},
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{FuncMap: parsers}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseHexBytes decodes a hex string, tolerating an optional 0x prefix.
func ParseHexBytes(value string) (HexBytes, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(strings.TrimPrefix(value, "0x"), "0X")
	if value == "" {
		return nil, nil
	}
	decoded, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return HexBytes(decoded), nil
}

// ParseBalances decodes a comma separated list of account=amount pairs.
func ParseBalances(value string) (Balances, error) {
	balances := Balances{}
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid balance entry %q", entry)
		}
		account, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid account in %q: %w", entry, err)
		}
		amount, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid amount in %q: %w", entry, err)
		}
		if _, exists := balances[account]; exists {
			return nil, fmt.Errorf("duplicate balance entry for account %d", account)
		}
		balances[account] = amount
	}
	return balances, nil
}
