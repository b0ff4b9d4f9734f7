// Package config provides the configuration of an iptvscan run: where the
// playlist comes from, how links are probed and which reports are written.
// Values come from defaults, an optional .iptvscan YAML file and CLI flags,
// in increasing order of precedence.
package config
