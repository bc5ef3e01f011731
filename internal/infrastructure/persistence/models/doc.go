// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: base persistence models and the variant column mapping
// - inventory.go: StockLine
// - trade.go: SalesOrder, ExpectedReturnEntry and their lines
// - outbox.go: outbox pattern model for event delivery
package models
