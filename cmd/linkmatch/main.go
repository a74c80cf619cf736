// Package main provides the entry point for the linkmatch CLI.
//
// linkmatch extracts anchor link targets from local HTML files and from
// documents fetched with a raw HTTP/1.1 GET.
//
// Usage:
//
//	linkmatch extract page.html http://example.com/
//	linkmatch history http://example.com/
//	linkmatch compare http://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
