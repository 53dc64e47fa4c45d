// Package store defines the persistence contract shared by every entity.
// Backends live in the gormstore and mongostore subpackages.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Field names are the persisted column (or document key) names.
const (
	FieldID                  = "id"
	FieldEmail               = "email"
	FieldFirstName           = "first_name"
	FieldLastName            = "last_name"
	FieldAge                 = "age"
	FieldPasswordHash        = "password_hash"
	FieldResetToken          = "reset_token"
	FieldResetTokenExpiresAt = "reset_token_expires_at"

	FieldTitle   = "title"
	FieldDetails = "details"
	FieldDate    = "scheduled_date"
	FieldTime    = "scheduled_time"
	FieldStatus  = "status"
	FieldOwnerID = "owner_id"

	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

type Op int

const (
	OpEq Op = iota
	OpGt
)

type Condition struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of conditions.
type Filter []Condition

func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

func Gt(field string, value any) Condition {
	return Condition{Field: field, Op: OpGt, Value: value}
}

func Where(conds ...Condition) Filter {
	return Filter(conds)
}

// ByID matches the entity with the given identifier.
func ByID(id string) Filter {
	return Where(Eq(FieldID, id))
}

// Fields maps field names to new values for Update. A nil value clears the field.
type Fields map[string]any

// Repository is the generic CRUD contract for an entity type T.
//
// Update is a single atomic find-and-update: it applies fields to the first
// entity matching filter and returns the entity as stored afterwards.
// Update and Delete return ErrNotFound when nothing matches; Create and
// Update return ErrDuplicate on a unique-key violation.
type Repository[T any] interface {
	Create(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id string) (*T, error)
	FindOne(ctx context.Context, filter Filter) (*T, error)
	List(ctx context.Context, filter Filter) ([]T, error)
	Update(ctx context.Context, filter Filter, fields Fields) (*T, error)
	Delete(ctx context.Context, filter Filter) error
}
