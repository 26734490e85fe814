package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SettlementService completes accepted pickups and manages the resulting transactions.
type SettlementService interface {
	Complete(ctx context.Context, collectorID, bidID primitive.ObjectID, req *validators.CompletePickupRequest) (*models.CompletedTransaction, error)

	// Ratings
	RateCollector(ctx context.Context, customerID, transactionID primitive.ObjectID, req *validators.RatingRequest) (*models.CompletedTransaction, error)
	RateCustomer(ctx context.Context, collectorID, transactionID primitive.ObjectID, req *validators.RatingRequest) (*models.CompletedTransaction, error)

	// Transactions
	Get(ctx context.Context, transactionID, callerID primitive.ObjectID, role models.Role) (*models.TransactionView, error)
	List(ctx context.Context, callerID primitive.ObjectID, role models.Role, paymentStatus string, params *utils.PaginationParams) ([]*models.TransactionView, int64, error)
	UpdatePaymentStatus(ctx context.Context, transactionID, callerID primitive.ObjectID, role models.Role, req *validators.PaymentStatusUpdateRequest) (*models.CompletedTransaction, error)
	Stats(ctx context.Context, callerID primitive.ObjectID, role models.Role) (*models.TransactionStats, error)
}

type settlementService struct {
	tx              interfaces.Transactor
	bidRepo         interfaces.BidRepository
	pickupRepo      interfaces.PickupRequestRepository
	transactionRepo interfaces.TransactionRepository
	customerRepo    interfaces.CustomerRepository
	collectorRepo   interfaces.CollectorRepository
	dir             *directory
	subscriptions   SubscriptionService
	notifier        NotificationService
	logger          *logger.Logger
	now             func() time.Time
}

func NewSettlementService(
	tx interfaces.Transactor,
	bidRepo interfaces.BidRepository,
	pickupRepo interfaces.PickupRequestRepository,
	transactionRepo interfaces.TransactionRepository,
	customerRepo interfaces.CustomerRepository,
	collectorRepo interfaces.CollectorRepository,
	addressRepo interfaces.AddressRepository,
	subscriptions SubscriptionService,
	notifier NotificationService,
	logger *logger.Logger,
) SettlementService {
	return &settlementService{
		tx:              tx,
		bidRepo:         bidRepo,
		pickupRepo:      pickupRepo,
		transactionRepo: transactionRepo,
		customerRepo:    customerRepo,
		collectorRepo:   collectorRepo,
		dir: &directory{
			customerRepo:  customerRepo,
			collectorRepo: collectorRepo,
			addressRepo:   addressRepo,
		},
		subscriptions: subscriptions,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

// Complete closes an accepted pickup, records its transaction and counts it
// against the collector's monthly quota.
func (s *settlementService) Complete(ctx context.Context, collectorID, bidID primitive.ObjectID, req *validators.CompletePickupRequest) (*models.CompletedTransaction, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, notFound(err, "Bid")
	}
	if bid.CollectorID != collectorID {
		return nil, newError(ErrAccessDenied, "Access denied")
	}
	if !bid.IsAccepted {
		return nil, newError(ErrInvalidState, "Bid is not accepted")
	}

	request, err := s.pickupRepo.GetByID(ctx, bid.PickupRequestID)
	if err != nil {
		return nil, notFound(err, "Pickup request")
	}
	if request.Status != models.PickupStatusAccepted || request.AcceptedBidID == nil || *request.AcceptedBidID != bidID {
		return nil, newError(ErrInvalidState, "Pickup request is not in accepted status")
	}

	// The monthly reset has to land before this pickup is counted.
	collector, err := s.collectorRepo.GetByID(ctx, collectorID)
	if err != nil {
		return nil, notFound(err, "Raddiwala")
	}
	if err := s.subscriptions.EnsureCurrentPeriod(ctx, collector); err != nil {
		return nil, err
	}

	amount := bid.TotalEstimatedAmount
	if req.TotalAmount != nil && *req.TotalAmount > 0 {
		amount = *req.TotalAmount
	}

	now := s.now()
	txn := &models.CompletedTransaction{
		PickupRequestID: request.ID,
		BidID:           bid.ID,
		CustomerID:      request.CustomerID,
		CollectorID:     collectorID,
		TotalAmount:     amount,
		ActualWeight:    req.ActualWeight,
		PaymentStatus:   models.PaymentStatusCompleted,
		CompletedAt:     now,
	}

	// The status change, the transaction and the quota count commit together.
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		err := s.pickupRepo.UpdateWhereStatus(ctx, request.ID, models.PickupStatusAccepted, map[string]interface{}{
			"status":                         models.PickupStatusCompleted,
			"status_timestamps.completed_at": now,
		})
		if err != nil {
			if errors.Is(err, interfaces.ErrStaleState) {
				return newError(ErrInvalidState, "Pickup request is not in accepted status")
			}
			return err
		}

		if err := s.transactionRepo.Create(ctx, txn); err != nil {
			if errors.Is(err, interfaces.ErrDuplicateKey) {
				return newError(ErrInvalidState, "Pickup request is already settled")
			}
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		if err := s.collectorRepo.IncrementMonthlyPickups(ctx, collectorID); err != nil {
			return fmt.Errorf("failed to count pickup: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogSettlementEvent(txn.ID, "completed", txn.TotalAmount)
	s.logger.LogPickupEvent(request.ID, "completed", map[string]interface{}{
		"bid_id":         bidID.Hex(),
		"transaction_id": txn.ID.Hex(),
	})

	if customer, err := s.customerRepo.GetByID(ctx, request.CustomerID); err == nil {
		s.notifier.NotifyPickupCompleted(ctx, customer.Recipient(), txn)
	} else {
		s.logger.WithError(err).WithField("customer_id", request.CustomerID.Hex()).Warn("Could not notify customer of completed pickup")
	}

	return txn, nil
}

// RateCollector records the customer's rating of the collector.
func (s *settlementService) RateCollector(ctx context.Context, customerID, transactionID primitive.ObjectID, req *validators.RatingRequest) (*models.CompletedTransaction, error) {
	return s.rate(ctx, customerID, models.RoleCustomer, transactionID, req)
}

// RateCustomer records the collector's rating of the customer.
func (s *settlementService) RateCustomer(ctx context.Context, collectorID, transactionID primitive.ObjectID, req *validators.RatingRequest) (*models.CompletedTransaction, error) {
	return s.rate(ctx, collectorID, models.RoleCollector, transactionID, req)
}

// rate writes the rater's slot once and then folds the stars into the other party's aggregate.
func (s *settlementService) rate(ctx context.Context, raterID primitive.ObjectID, raterRole models.Role, transactionID primitive.ObjectID, req *validators.RatingRequest) (*models.CompletedTransaction, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	txn, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, notFound(err, "Transaction")
	}
	if !txn.Involves(raterID, raterRole) {
		return nil, newError(ErrNotFound, "Transaction not found")
	}

	rating := &models.PartyRating{
		Rating:  req.Rating,
		Review:  req.Review,
		RatedAt: s.now(),
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if raterRole == models.RoleCustomer {
			err = s.transactionRepo.SetCustomerRating(ctx, transactionID, rating)
		} else {
			err = s.transactionRepo.SetCollectorRating(ctx, transactionID, rating)
		}
		if err != nil {
			if errors.Is(err, interfaces.ErrStaleState) {
				return newError(ErrAlreadyRated, "You have already rated this transaction")
			}
			return err
		}

		if raterRole == models.RoleCustomer {
			err = s.collectorRepo.ApplyRating(ctx, txn.CollectorID, req.Rating)
		} else {
			err = s.customerRepo.ApplyRating(ctx, txn.CustomerID, req.Rating)
		}
		if err != nil {
			return fmt.Errorf("failed to update rating aggregate: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if raterRole == models.RoleCustomer {
		txn.CustomerRating = rating
	} else {
		txn.CollectorRating = rating
	}

	s.logger.WithPartyID(raterID).WithFields(map[string]interface{}{
		"transaction_id": transactionID.Hex(),
		"rating":         req.Rating,
		"rater_role":     raterRole,
	}).Info("Transaction rated")

	return txn, nil
}

func (s *settlementService) Get(ctx context.Context, transactionID, callerID primitive.ObjectID, role models.Role) (*models.TransactionView, error) {
	txn, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, notFound(err, "Transaction")
	}
	if !txn.Involves(callerID, role) {
		return nil, newError(ErrAccessDenied, "Access denied")
	}
	return s.view(ctx, s.dir.views(), txn)
}

func (s *settlementService) List(ctx context.Context, callerID primitive.ObjectID, role models.Role, paymentStatus string, params *utils.PaginationParams) ([]*models.TransactionView, int64, error) {
	filter := partyFilter(callerID, role)
	if paymentStatus != "" {
		status := models.PaymentStatus(paymentStatus)
		if !status.IsValid() {
			return nil, 0, invalidField("payment_status", "Invalid payment status")
		}
		filter.PaymentStatus = status
	}

	txns, total, err := s.transactionRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, err
	}

	v := s.dir.views()
	result := make([]*models.TransactionView, 0, len(txns))
	for _, txn := range txns {
		view, err := s.view(ctx, v, txn)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, view)
	}
	return result, total, nil
}

func (s *settlementService) UpdatePaymentStatus(ctx context.Context, transactionID, callerID primitive.ObjectID, role models.Role, req *validators.PaymentStatusUpdateRequest) (*models.CompletedTransaction, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	txn, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, notFound(err, "Transaction")
	}
	if !txn.Involves(callerID, role) {
		return nil, newError(ErrAccessDenied, "Access denied")
	}

	status := models.PaymentStatus(req.PaymentStatus)
	if err := s.transactionRepo.UpdatePaymentStatus(ctx, transactionID, status); err != nil {
		return nil, notFound(err, "Transaction")
	}
	txn.PaymentStatus = status

	s.logger.WithPartyID(callerID).WithFields(map[string]interface{}{
		"transaction_id": transactionID.Hex(),
		"payment_status": status,
	}).Info("Payment status updated")

	return txn, nil
}

func (s *settlementService) Stats(ctx context.Context, callerID primitive.ObjectID, role models.Role) (*models.TransactionStats, error) {
	return s.transactionRepo.Stats(ctx, partyFilter(callerID, role))
}

func (s *settlementService) view(ctx context.Context, v *views, txn *models.CompletedTransaction) (*models.TransactionView, error) {
	request, err := s.pickupRepo.GetByID(ctx, txn.PickupRequestID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}
	customer, err := v.customer(ctx, txn.CustomerID, false)
	if err != nil {
		return nil, err
	}
	collector, err := v.collector(ctx, txn.CollectorID)
	if err != nil {
		return nil, err
	}

	return &models.TransactionView{
		CompletedTransaction: txn,
		PickupRequest:        request,
		Customer:             customer,
		Collector:            collector,
	}, nil
}

func partyFilter(partyID primitive.ObjectID, role models.Role) *models.TransactionFilter {
	filter := &models.TransactionFilter{}
	if role == models.RoleCollector {
		filter.CollectorID = &partyID
	} else {
		filter.CustomerID = &partyID
	}
	return filter
}
