// Package session keeps the per-client controllers of the HTTP API.
package session

import "context"

type Store[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	Put(ctx context.Context, id string, v T) error
	Delete(ctx context.Context, id string) (bool, error)
	Len() int
	NewID() string
}
