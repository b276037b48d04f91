// Package gormstore implements the repository interfaces on PostgreSQL through gorm.
package gormstore

import (
	"context"
	"errors"

	"github.com/justsurfingit/connect-jobs/internal/apperr"
	"github.com/justsurfingit/connect-jobs/internal/repository"
	"gorm.io/gorm"
)

type txKey struct{}

type base struct {
	db *gorm.DB
}

// conn returns the transaction bound to ctx, if any, else the pool.
func (b base) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return b.db.WithContext(ctx)
}

type transactor struct{ base }

func (t transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, nested := ctx.Value(txKey{}).(*gorm.DB); nested {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// New expects db to be opened with TranslateError so duplicate keys surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB) repository.Store {
	b := base{db: db}
	return repository.Store{
		Users:        userRepo{b},
		Jobs:         jobRepo{b},
		Applications: applicationRepo{b},
		Outbox:       outboxRepo{b},
		Tx:           transactor{b},
	}
}

func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.CodeNotFound, entity+" not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.CodeConflict, entity+" already exists", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Wrap(apperr.CodeNotFound, entity+" references a missing record", err)
	default:
		return apperr.Internal("failed to access "+entity, err)
	}
}

func notFound(entity string) error {
	return apperr.NotFound(entity + " not found")
}
