// Package main provides the entry point for the bmclean CLI.
//
// bmclean cleans a browser bookmark export (Netscape bookmark HTML). It
// removes entries that repeat a URL and entries whose URL answers 404 Not
// Found, then writes the cleaned document next to the input.
//
// Usage:
//
//	bmclean bookmarks.html
//	bmclean -o cleaned.html --skip-check bookmarks.html
//
// See --help for all available options.
package main

func main() {
	Execute()
}
