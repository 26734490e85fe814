package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raddiwala/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
	Down        func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	log        *logger.Logger
	migrations []Migration
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		log:        log,
		migrations: getMigrations(),
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}
		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection("migrations").FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection("migrations").ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create party collections with unique contact indexes",
			Up: func(ctx context.Context, db *mongo.Database) error {
				if err := createPartyIndexes(ctx, db.Collection("customers")); err != nil {
					return err
				}
				return createPartyIndexes(ctx, db.Collection("collectors"))
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				return dropIndexes(ctx, db, "customers", "collectors")
			},
		},
		{
			Version:     2,
			Description: "Create addresses city index",
			Up: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection("addresses").Indexes().CreateOne(ctx, mongo.IndexModel{
					Keys: bson.D{{Key: "city_key", Value: 1}},
				})
				return err
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				return dropIndexes(ctx, db, "addresses")
			},
		},
		{
			Version:     3,
			Description: "Create pickup request and bid indexes",
			Up:          createPickupIndexes,
			Down: func(ctx context.Context, db *mongo.Database) error {
				return dropIndexes(ctx, db, "pickup_requests", "bids")
			},
		},
		{
			Version:     4,
			Description: "Create completed transaction and subscription indexes",
			Up:          createSettlementIndexes,
			Down: func(ctx context.Context, db *mongo.Database) error {
				return dropIndexes(ctx, db, "completed_transactions", "subscriptions")
			},
		},
		{
			Version:     5,
			Description: "Create otp lookup and expiry indexes",
			Up: func(ctx context.Context, db *mongo.Database) error {
				_, err := db.Collection("otps").Indexes().CreateMany(ctx, []mongo.IndexModel{
					{
						Keys: bson.D{{Key: "email", Value: 1}, {Key: "purpose", Value: 1}, {Key: "role", Value: 1}, {Key: "created_at", Value: -1}},
					},
					{
						Keys:    bson.D{{Key: "expires_at", Value: 1}},
						Options: options.Index().SetExpireAfterSeconds(0),
					},
				})
				return err
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				return dropIndexes(ctx, db, "otps")
			},
		},
	}
}

func createPartyIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "is_active", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func createPickupIndexes(ctx context.Context, db *mongo.Database) error {
	requests := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "address_id", Value: 1}, {Key: "status", Value: 1}},
		},
	}
	if _, err := db.Collection("pickup_requests").Indexes().CreateMany(ctx, requests); err != nil {
		return err
	}

	bids := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pickup_request_id", Value: 1}, {Key: "collector_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "collector_id", Value: 1}, {Key: "is_accepted", Value: 1}},
		},
	}
	_, err := db.Collection("bids").Indexes().CreateMany(ctx, bids)
	return err
}

func createSettlementIndexes(ctx context.Context, db *mongo.Database) error {
	transactions := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pickup_request_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "completed_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "collector_id", Value: 1}, {Key: "completed_at", Value: -1}},
		},
	}
	if _, err := db.Collection("completed_transactions").Indexes().CreateMany(ctx, transactions); err != nil {
		return err
	}

	_, err := db.Collection("subscriptions").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collector_id", Value: 1}, {Key: "is_active", Value: 1}, {Key: "expiry_date", Value: -1}},
	})
	return err
}

func dropIndexes(ctx context.Context, db *mongo.Database, collections ...string) error {
	for _, name := range collections {
		if _, err := db.Collection(name).Indexes().DropAll(ctx); err != nil {
			return fmt.Errorf("failed to drop indexes on %s: %w", name, err)
		}
	}
	return nil
}
