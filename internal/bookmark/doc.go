// Package bookmark indexes the bookmark entries of a parsed document by URL.
//
// A bookmark entry is an <a> element whose href contains "http". URLs are
// used exactly as written: no normalization, case folding or trimming.
package bookmark
