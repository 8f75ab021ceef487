// Package ledger owns the kitty registries and the five operations that
// mutate them.
//
// State is the committed arena: the id counter, the entropy nonce and the
// kitty, owner and price registries. Handlers never write State directly.
// They stage writes on a Tx and return the single event describing the
// transition; the engine persists both and only then calls Commit. A handler
// that returns an error leaves its Tx to be discarded, which is how every
// operation stays all-or-nothing.
package ledger
