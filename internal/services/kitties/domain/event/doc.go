// Package event defines the event envelope and event-type registry for the
// kitty ledger write path.
//
// Every accepted operation emits exactly one event. The registry checks the
// type and payload before the journal assigns sequence and integrity fields,
// so the journal only ever holds facts that downstream readers can decode.
package event
