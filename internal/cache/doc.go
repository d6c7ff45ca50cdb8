// Package cache memoizes per-document page geometry.
//
// Lookups go through two tiers. A [ProcessCache] mirrors results inside the
// running process; behind it a [SharedCache] backend (SQLite objectcache
// table, a badger directory, or memory) keeps them across restarts and
// between processes. Entries are keyed by the document's content hash, so
// identical files share one entry.
//
// A document whose metadata cannot be parsed is stored as a failure marker,
// so later lookups answer immediately instead of parsing the same broken
// blob again. Racing writers are harmless: every writer computes the same
// value and the last write wins.
package cache
