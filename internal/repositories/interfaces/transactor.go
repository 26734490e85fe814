package interfaces

import "context"

// Transactor runs fn atomically. Repository calls made with the context passed
// to fn take part in the same transaction; if fn returns an error none of its
// writes are kept. Satisfied by database.MongoDB.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
