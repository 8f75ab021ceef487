// Package server boots the kitties gRPC process: it opens the ledger store,
// replays persisted state into the engine and serves KittyService with the
// standard health service alongside.
package server
