// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns: persistence models carry all GORM annotations and table mappings,
// and ToDomain/FromDomain mappers convert between the two.
package models
