// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - base.go: AggregateModel shared by aggregate roots
//   - sales.go: SequenceCounterModel and SalesDocumentModel
//
// The tables themselves are owned by the SQL files in migrations/; AutoMigrate is only
// used by tests running against SQLite.
package models
