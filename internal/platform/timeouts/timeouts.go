// Package timeouts defines the timeout constants shared by the kitties
// server and its command-line client.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer, health check
// included.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single client call.
const GRPCRequest = 5 * time.Second

// Shutdown limits how long the server waits for in-flight calls during
// graceful shutdown.
const Shutdown = 5 * time.Second
