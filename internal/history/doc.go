// Package history records clean runs in a local SQLite database.
//
// The history is an audit log. Each row summarises one run and keeps the
// full JSON report; nothing in the clean itself reads it back, so a URL's
// classification never depends on earlier runs.
package history
