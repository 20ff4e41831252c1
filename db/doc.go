// Package db provides the database layer for the Fritter application.
// It encapsulates all interactions with the underlying SQLite database, managing
// data persistence for users, sessions, freets, comments, follows, reactions,
// the audit log and statistics.
//
// This package is responsible for:
//   - Establishing and managing database connections (`db.go`).
//   - Defining database-specific data structures that map to SQL table schemas.
//   - Implementing the repository interfaces of the domain package
//     (e.g., `FreetRepository`, `ReactionRepository`) to perform CRUD operations.
//   - Handling data conversion between domain-specific structs and database-friendly
//     structs, including the use of `sql.Null*` types for nullable fields.
//   - Managing database migrations (`migrations/`).
//   - Providing common database utility types (`types.go`).
package db
