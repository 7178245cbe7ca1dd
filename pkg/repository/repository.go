package repository

import (
	"context"
)

type Repository[T any] interface {
	FindOne(ctx context.Context, query *T) (*T, error)
	Upsert(ctx context.Context, resource *T, conflictColumns ...string) error
}
