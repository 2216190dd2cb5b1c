// Package storage persists the reminder store's state document.
//
// It currently supports:
//   - A single-file JSON document (atomic replace)
//   - An optional SQLite backend (build tag "sqlite")
package storage
