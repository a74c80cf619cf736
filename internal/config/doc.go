// Package config provides the configuration of linkmatch: defaults,
// validation, the optional .linkmatch YAML file with per-host overrides and
// the XDG directories used for the history database.
package config
