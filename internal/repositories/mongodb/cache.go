package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raddiwala/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/mongo"
)

// CacheService is the slice of the cache the repositories read through.
// Satisfied by services.CacheService.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

func findError(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return interfaces.ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func insertError(err error, what string) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to create %s: %w", what, interfaces.ErrDuplicateKey)
	}
	return fmt.Errorf("failed to create %s: %w", what, err)
}
