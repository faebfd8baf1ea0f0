// Package store keeps the run history: every pipeline report, indexed by
// run id, flow and fingerprint, in a single SQLite file under the XDG
// data directory (modernc.org/sqlite, no cgo).
package store
