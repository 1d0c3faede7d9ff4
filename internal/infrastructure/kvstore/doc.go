// Package kvstore provides the string key-value storage used in place of
// browser local storage.
//
// Two implementations satisfy Store:
//   - SQLiteStore persists to the local_storage table
//   - MemoryStore keeps values in process memory, for tests and as a
//     fallback when the database is unavailable
//
// Values are opaque strings; callers encode JSON themselves.
package kvstore
