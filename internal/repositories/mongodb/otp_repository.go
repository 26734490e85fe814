package mongodb

import (
	"context"
	"fmt"
	"time"

	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type otpRepository struct {
	collection *mongo.Collection
}

func NewOTPRepository(db *mongo.Database) interfaces.OTPRepository {
	return &otpRepository{
		collection: db.Collection("otps"),
	}
}

func (r *otpRepository) Create(ctx context.Context, otp *models.OneTimeCode) error {
	otp.ID = primitive.NewObjectID()
	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, otp); err != nil {
		return insertError(err, "otp")
	}
	return nil
}

func (r *otpRepository) DeleteOutstanding(ctx context.Context, email string, purpose models.OTPPurpose, role models.Role) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{
		"email":   email,
		"purpose": purpose,
		"role":    role,
	})
	if err != nil {
		return fmt.Errorf("failed to delete outstanding otps: %w", err)
	}
	return nil
}

func (r *otpRepository) FindLatest(ctx context.Context, email string, purpose models.OTPPurpose, role models.Role) (*models.OneTimeCode, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var otp models.OneTimeCode
	err := r.collection.FindOne(ctx, bson.M{
		"email":   email,
		"purpose": purpose,
		"role":    role,
	}, opts).Decode(&otp)
	if err != nil {
		return nil, findError(err, "otp")
	}
	return &otp, nil
}

func (r *otpRepository) MarkUsed(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "is_used": false},
		bson.M{"$set": bson.M{"is_used": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark otp used: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrStaleState
	}
	return nil
}
