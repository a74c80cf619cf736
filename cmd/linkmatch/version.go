package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags "-X main.version=...".
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildSetting returns the value of a VCS setting recorded by the go tool.
func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// getVersion prefers ldflags, then the module version, then "(devel)".
func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

// getCommit returns the short commit hash or "unknown".
func getCommit() string {
	c := commit
	if c == "" {
		c = buildSetting("vcs.revision")
	}
	switch {
	case c == "":
		return "unknown"
	case len(c) > 7:
		return c[:7]
	default:
		return c
	}
}

// getDate returns the build or commit date or "unknown".
func getDate() string {
	if date != "" {
		return date
	}
	if d := buildSetting("vcs.time"); d != "" {
		return d
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of linkmatch.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "linkmatch %s\n", getVersion())
			fmt.Fprintf(out, "  commit: %s\n", getCommit())
			fmt.Fprintf(out, "  built:  %s\n", getDate())
		},
	}
}
