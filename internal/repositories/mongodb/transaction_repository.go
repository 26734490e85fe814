package mongodb

import (
	"context"
	"fmt"
	"time"

	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"
	"raddiwala/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type transactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) interfaces.TransactionRepository {
	return &transactionRepository{
		collection: db.Collection("completed_transactions"),
	}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.CompletedTransaction) error {
	txn.ID = primitive.NewObjectID()
	txn.CreatedAt = time.Now()
	txn.UpdatedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, txn); err != nil {
		return insertError(err, "transaction")
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CompletedTransaction, error) {
	var txn models.CompletedTransaction
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&txn); err != nil {
		return nil, findError(err, "transaction")
	}
	return &txn, nil
}

func (r *transactionRepository) GetByPickupRequest(ctx context.Context, requestID primitive.ObjectID) (*models.CompletedTransaction, error) {
	var txn models.CompletedTransaction
	if err := r.collection.FindOne(ctx, bson.M{"pickup_request_id": requestID}).Decode(&txn); err != nil {
		return nil, findError(err, "transaction")
	}
	return &txn, nil
}

func (r *transactionRepository) List(ctx context.Context, filter *models.TransactionFilter, params *utils.PaginationParams) ([]*models.CompletedTransaction, int64, error) {
	query := transactionQuery(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	txns := []*models.CompletedTransaction{}
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, 0, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return txns, total, nil
}

func (r *transactionRepository) SetCustomerRating(ctx context.Context, id primitive.ObjectID, rating *models.PartyRating) error {
	return r.setRating(ctx, id, "customer_rating", rating)
}

func (r *transactionRepository) SetCollectorRating(ctx context.Context, id primitive.ObjectID, rating *models.PartyRating) error {
	return r.setRating(ctx, id, "collector_rating", rating)
}

// setRating only writes a slot that is still null.
func (r *transactionRepository) setRating(ctx context.Context, id primitive.ObjectID, field string, rating *models.PartyRating) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, field: nil},
		bson.M{"$set": bson.M{field: rating, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrStaleState
	}
	return nil
}

func (r *transactionRepository) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment_status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *transactionRepository) Stats(ctx context.Context, filter *models.TransactionFilter) (*models.TransactionStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: transactionQuery(filter)}},
		{{Key: "$group", Value: bson.M{
			"_id":                      nil,
			"total_transactions":       bson.M{"$sum": 1},
			"total_amount":             bson.M{"$sum": "$total_amount"},
			"average_amount":           bson.M{"$avg": "$total_amount"},
			"average_customer_rating":  bson.M{"$avg": "$customer_rating.rating"},
			"average_collector_rating": bson.M{"$avg": "$collector_rating.rating"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":                      0,
			"total_transactions":       1,
			"total_amount":             1,
			"average_amount":           bson.M{"$ifNull": bson.A{"$average_amount", 0}},
			"average_customer_rating":  bson.M{"$ifNull": bson.A{"$average_customer_rating", 0}},
			"average_collector_rating": bson.M{"$ifNull": bson.A{"$average_collector_rating", 0}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate transaction stats: %w", err)
	}
	defer cursor.Close(ctx)

	stats := &models.TransactionStats{}
	if cursor.Next(ctx) {
		if err := cursor.Decode(stats); err != nil {
			return nil, fmt.Errorf("failed to decode transaction stats: %w", err)
		}
	}
	return stats, cursor.Err()
}

func transactionQuery(filter *models.TransactionFilter) bson.M {
	query := bson.M{}
	if filter == nil {
		return query
	}
	if filter.CustomerID != nil {
		query["customer_id"] = *filter.CustomerID
	}
	if filter.CollectorID != nil {
		query["collector_id"] = *filter.CollectorID
	}
	if filter.PaymentStatus != "" {
		query["payment_status"] = filter.PaymentStatus
	}
	return query
}
