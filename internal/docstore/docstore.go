// Package docstore is the collection-oriented persistence gateway. Entities
// are stored as JSON documents in named collections; callers read, modify
// and write whole documents. Time fields round-trip as RFC 3339 inside the
// document body.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("document does not exist")
	ErrConflict = errors.New("document no longer satisfies the update condition")
)

// Collection names used by the service layer.
const (
	CollectionTenders       = "tenders"
	CollectionUsers         = "users"
	CollectionContracts     = "contracts"
	CollectionNotifications = "notifications"
)

type Op string

const (
	// OpEqual matches a top-level string field against Value.
	OpEqual Op = "=="
	// OpIn matches a top-level string field against any of Value ([]string).
	OpIn Op = "in"
	// OpAbsent matches when a top-level field is missing, null or empty.
	OpAbsent Op = "absent"
)

// Predicate filters Query and conditions UpdateWhere. Only top-level fields
// are addressable; anything richer is filtered in memory by the caller.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, value string) Predicate {
	return Predicate{Field: field, Op: OpEqual, Value: value}
}

func In(field string, values ...string) Predicate {
	return Predicate{Field: field, Op: OpIn, Value: values}
}

func Absent(field string) Predicate {
	return Predicate{Field: field, Op: OpAbsent}
}

// Store is the document persistence contract the core consumes.
//
// Get unmarshals the document into out and returns ErrNotFound when absent.
// Query unmarshals all matching documents into out, which must be a pointer
// to a slice; result order is unspecified, callers sort in memory.
// Create stores data under a generated id and returns it.
// Update replaces the document body as one logical write.
// UpdateWhere replaces the body only while every predicate still holds,
// returning ErrConflict otherwise.
type Store interface {
	Get(ctx context.Context, collection, id string, out any) error
	Query(ctx context.Context, collection string, preds []Predicate, out any) error
	Create(ctx context.Context, collection string, data any) (string, error)
	Update(ctx context.Context, collection, id string, data any) error
	UpdateWhere(ctx context.Context, collection, id string, data any, preds []Predicate) error
	Delete(ctx context.Context, collection, id string) error
}
