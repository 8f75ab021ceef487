// Package kitties exposes the kitty ledger over gRPC.
//
// Messages are google.protobuf.Struct documents so the service can be called
// without generated stubs. Account ids, balances and event sequences travel
// as decimal strings; kitty ids are plain numbers.
package kitties
