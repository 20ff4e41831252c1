// Package domain defines the core business logic and data structures of the Fritter application.
// It contains the primary domain models, such as User, Freet, Comment and Session,
// as well as the repository interfaces that define the contracts for data persistence.
//
// This package serves as the central point for application-wide types and business rules,
// such as the reaction state machine and the feed filters, keeping them independent of
// the database and the HTTP transport.
package domain
