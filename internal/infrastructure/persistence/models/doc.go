// Package models contains GORM persistence models for the credit tables.
// Domain types carry no ORM tags; each model maps one table and converts
// to and from its domain entity.
//
// Conversions from the database parse every enum column strictly, so a row
// holding an unknown status or kind fails to load instead of producing a
// half-valid aggregate.
//
// Structure:
// - base.go: BaseModel and AggregateModel (id, timestamps, version)
// - credit.go: profiles, ledger entries, holds, limit changes and alerts
package models
