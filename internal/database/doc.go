// Package database writes probe results to a SQLite snapshot file.
//
// A snapshot holds the entries and the summary of a single probe pass. Its
// tables are dropped and recreated on every write, so a file never carries
// results of earlier passes. The file can be queried with any SQLite client:
//
//	SELECT name, link FROM entries WHERE status = 'available';
//
// The pure-Go modernc.org/sqlite driver is used, so no cgo toolchain is
// needed to build iptvscan.
package database
