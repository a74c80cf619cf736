// Package database stores the extraction history of linkmatch in SQLite.
//
// Every extraction, successful or failed, is one row in the extractions
// table; its links are rows in the links table, kept in first-seen order.
// The history command lists these rows and the compare command diffs the
// link lists of the two latest successful extractions of a source.
//
// The driver is modernc.org/sqlite, so no cgo is required.
package database
