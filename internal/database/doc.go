// Package database provides page storage and page sources for doctaxon.
//
// This package implements:
//   - PageStore: a local SQLite database of clients, imported pages and
//     the history of taxonomy builds
//   - PostgresSource: a read-only source over the crawler's PostgreSQL
//     tables
//
// Both satisfy PageSource, which is what a build reads pages from.
//
// Design decision: The local store uses SQLite (via modernc.org/sqlite)
// so that builds can run from an exported page dump without access to the
// crawler's database. The CGO-free driver keeps the binary portable.
package database
