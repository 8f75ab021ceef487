// Package kitty defines the identifiers and genome arithmetic of the kitty
// ledger.
//
// Everything here is a pure function of its inputs: identifier allocation
// depends only on the stored counter and DNA combination only on the parent
// genomes and the selector, so every replica that replays the same commands
// with the same entropy reaches the same registries.
package kitty
