// Package database provides SQLite-based case history for picase.
//
// Every rendered case record can be stored as a snapshot: the record JSON,
// a SHA3-256 fingerprint of it and a few key figures. Rendering the same
// documents twice stores one snapshot, so the history only grows when the
// extracted data changes.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, and the
// database is a single file in the XDG data directory.
package database
