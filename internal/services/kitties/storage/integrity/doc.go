// Package integrity seals journal events into a tamper-evident chain.
//
// Each event carries a content hash of its envelope, a chain hash linking it
// to its predecessor, and an HMAC signature of the chain hash under a key
// derived from the active root key. Verification walks the journal from the
// first event and recomputes all three.
package integrity
