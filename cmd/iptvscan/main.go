// Package main provides the entry point for the iptvscan CLI.
//
// iptvscan loads an IPTV playlist (M3U), checks every stream link for
// reachability concurrently, and exports the results.
//
// Usage:
//
//	iptvscan scan
//	iptvscan scan --source channels.m3u --only-available
//
// See --help for all available options.
package main

func main() {
	Execute()
}
