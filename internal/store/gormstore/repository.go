// Package gormstore implements store.Repository on top of gorm for the
// postgres and sqlite drivers.
package gormstore

import (
	"context"
	"errors"

	"task-tracker/backend/internal/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository[T any] struct {
	db *gorm.DB
}

// New expects db to be opened with TranslateError enabled so unique-key
// violations surface as gorm.ErrDuplicatedKey.
func New[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return translate(r.db.WithContext(ctx).Create(entity).Error)
}

func (r *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return r.FindOne(ctx, store.ByID(id))
}

func (r *Repository[T]) FindOne(ctx context.Context, filter store.Filter) (*T, error) {
	var out T
	if err := r.db.WithContext(ctx).Scopes(where(filter)).Take(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *Repository[T]) List(ctx context.Context, filter store.Filter) ([]T, error) {
	out := make([]T, 0)
	err := r.db.WithContext(ctx).
		Scopes(where(filter)).
		Order(clause.OrderByColumn{Column: clause.Column{Name: store.FieldCreatedAt}}).
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Update finds the row, then writes with the filter applied again alongside
// the primary key. A writer that lost a race re-evaluates the filter against
// the committed row, affects nothing and gets ErrNotFound.
func (r *Repository[T]) Update(ctx context.Context, filter store.Filter, fields store.Fields) (*T, error) {
	var out T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(where(filter)).Take(&out).Error; err != nil {
			return err
		}

		result := tx.Model(&out).Scopes(where(filter)).Updates(map[string]any(fields))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		// The primary key on out scopes the reload.
		return tx.Take(&out).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *Repository[T]) Delete(ctx context.Context, filter store.Filter) error {
	result := r.db.WithContext(ctx).Scopes(where(filter)).Delete(new(T))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func where(filter store.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, cond := range filter {
			column := clause.Column{Name: cond.Field}
			switch cond.Op {
			case store.OpGt:
				db = db.Where(clause.Gt{Column: column, Value: cond.Value})
			default:
				db = db.Where(clause.Eq{Column: column, Value: cond.Value})
			}
		}
		return db
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrDuplicate
	default:
		return err
	}
}
