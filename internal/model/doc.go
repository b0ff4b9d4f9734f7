// Package model defines the core data structures used throughout iptvscan.
//
// This package contains the following main types:
//   - Entry: one candidate stream discovered in a playlist
//   - Status: the terminal outcome of probing an Entry
//   - BatchRun: aggregate statistics over one probe pass
//
// Models are kept free of I/O so the playlist, probe, pipeline and report
// packages can share them without import cycles. Summarize is the only
// computation here and it is a pure function over a slice of entries.
package model
