// Package history keeps an audit trail of shutter position decisions.
//
// Every decision that moves a shutter is stored with the mode, special
// state and reason that produced it, so an operator can answer "why did the
// living room close at 14:05?" after the fact.
//
// Entries live in the shutter_history table created by the embedded
// migrations. Old entries are removed by Prune according to the configured
// retention.
package history
