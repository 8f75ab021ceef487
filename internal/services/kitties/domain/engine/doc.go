// Package engine executes ledger commands one at a time.
//
// For each command the handler validates the envelope, runs the ledger
// operation on staged transactions, validates the emitted event, persists
// the event together with the staged writes, and finally commits the staged
// writes to memory. A failure at any step discards the staged writes, so
// neither the in-memory registries nor the store observe a partial
// operation.
package engine
