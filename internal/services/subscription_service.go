package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raddiwala/internal/config"
	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"
	"raddiwala/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionService gates bidding on the monthly free quota and sells the
// premium subscription that lifts it.
type SubscriptionService interface {
	// Quota gate
	EnsureCurrentPeriod(ctx context.Context, collector *models.Collector) error
	CanPlaceBid(collector *models.Collector) bool
	RefreshStatus(ctx context.Context, collector *models.Collector) (*models.Subscription, error)

	// Subscription management
	Status(ctx context.Context, collectorID primitive.ObjectID) (*models.SubscriptionStatus, error)
	CreateOrder(ctx context.Context, collectorID primitive.ObjectID, req *validators.SubscriptionOrderRequest) (*payment.Order, error)
	Purchase(ctx context.Context, collectorID primitive.ObjectID, req *validators.SubscriptionPurchaseRequest) (*models.Subscription, error)
	History(ctx context.Context, collectorID primitive.ObjectID) ([]*models.Subscription, error)
	Cancel(ctx context.Context, collectorID primitive.ObjectID) error
}

type subscriptionService struct {
	collectorRepo    interfaces.CollectorRepository
	subscriptionRepo interfaces.SubscriptionRepository
	payments         payment.PaymentProvider
	notifier         NotificationService
	market           *config.MarketplaceConfig
	currency         string
	logger           *logger.Logger
	now              func() time.Time
}

// NewSubscriptionService builds the service. payments may be nil when no gateway is configured.
func NewSubscriptionService(
	collectorRepo interfaces.CollectorRepository,
	subscriptionRepo interfaces.SubscriptionRepository,
	payments payment.PaymentProvider,
	notifier NotificationService,
	market *config.MarketplaceConfig,
	currency string,
	logger *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		collectorRepo:    collectorRepo,
		subscriptionRepo: subscriptionRepo,
		payments:         payments,
		notifier:         notifier,
		market:           market,
		currency:         currency,
		logger:           logger,
		now:              time.Now,
	}
}

// EnsureCurrentPeriod zeroes the monthly pickup counter once the calendar month rolls over.
func (s *subscriptionService) EnsureCurrentPeriod(ctx context.Context, collector *models.Collector) error {
	now := s.now()
	if collector.InCurrentPeriod(now) {
		return nil
	}

	if err := s.collectorRepo.ResetMonthlyCount(ctx, collector.ID, now); err != nil {
		return fmt.Errorf("failed to reset monthly count: %w", err)
	}
	collector.MonthlyPickupsCount = 0
	collector.LastResetDate = now
	return nil
}

func (s *subscriptionService) CanPlaceBid(collector *models.Collector) bool {
	return collector.CanPlaceBid(s.market.FreeMonthlyPickups)
}

// RefreshStatus expires a lapsed subscription and clears the premium flag it
// granted. A collector with no subscription record keeps whatever flag it has.
// It returns the latest subscription that was active, which may have just been
// expired, or nil.
func (s *subscriptionService) RefreshStatus(ctx context.Context, collector *models.Collector) (*models.Subscription, error) {
	now := s.now()

	sub, err := s.subscriptionRepo.GetLatestActive(ctx, collector.ID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	if errors.Is(err, interfaces.ErrNotFound) {
		sub = nil
	}

	if sub != nil && now.After(sub.ExpiryDate) {
		if err := s.subscriptionRepo.Update(ctx, sub.ID, map[string]interface{}{"is_active": false}); err != nil {
			return nil, fmt.Errorf("failed to expire subscription: %w", err)
		}
		sub.IsActive = false
		s.logger.WithPartyID(collector.ID).WithField("subscription_id", sub.ID.Hex()).Info("Subscription expired")
	}

	if sub != nil && !sub.IsValid(now) && collector.IsPremiumUser {
		if err := s.collectorRepo.SetPremium(ctx, collector.ID, false); err != nil {
			return nil, fmt.Errorf("failed to clear premium flag: %w", err)
		}
		collector.IsPremiumUser = false
	}

	return sub, nil
}

func (s *subscriptionService) Status(ctx context.Context, collectorID primitive.ObjectID) (*models.SubscriptionStatus, error) {
	collector, err := s.collectorRepo.GetByID(ctx, collectorID)
	if err != nil {
		return nil, notFound(err, "Raddiwala")
	}

	if err := s.EnsureCurrentPeriod(ctx, collector); err != nil {
		return nil, err
	}
	sub, err := s.RefreshStatus(ctx, collector)
	if err != nil {
		return nil, err
	}

	limit := s.market.FreeMonthlyPickups
	return &models.SubscriptionStatus{
		HasActiveSubscription: sub != nil && sub.IsValid(s.now()),
		IsPremium:             collector.IsPremiumUser,
		Subscription:          sub,
		MonthlyPickups:        collector.MonthlyPickupsCount,
		MonthlyLimit:          limit,
		CanPlaceBids:          s.CanPlaceBid(collector),
		NeedsPremium:          collector.MonthlyPickupsCount >= limit && !collector.IsPremiumUser,
	}, nil
}

func (s *subscriptionService) CreateOrder(ctx context.Context, collectorID primitive.ObjectID, req *validators.SubscriptionOrderRequest) (*payment.Order, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	if s.payments == nil {
		return nil, newError(ErrInvalidState, "Online payments are not configured")
	}

	order, err := s.payments.CreateOrder(ctx, &payment.OrderRequest{
		Amount:   s.market.SubscriptionPrice,
		Currency: s.currency,
		Receipt:  fmt.Sprintf("sub-%s-%d", collectorID.Hex(), s.now().Unix()),
		Notes: map[string]string{
			"collector_id":   collectorID.Hex(),
			"payment_method": req.PaymentMethod,
		},
	})
	if err != nil {
		s.logger.WithPartyID(collectorID).WithError(err).Error("Failed to create subscription order")
		return nil, newError(ErrPaymentFailed, "Could not create payment order")
	}
	return order, nil
}

// Purchase extends a still valid subscription by one period, or starts a new one.
func (s *subscriptionService) Purchase(ctx context.Context, collectorID primitive.ObjectID, req *validators.SubscriptionPurchaseRequest) (*models.Subscription, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	collector, err := s.collectorRepo.GetByID(ctx, collectorID)
	if err != nil {
		return nil, notFound(err, "Raddiwala")
	}

	method := models.PaymentMethod(req.PaymentMethod)
	transactionID, err := s.verifyPayment(ctx, collectorID, method, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub, err := s.subscriptionRepo.GetLatestActive(ctx, collectorID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	if err == nil && sub.IsValid(now) {
		sub.ExpiryDate = sub.ExpiryDate.Add(s.market.SubscriptionPeriod)
		if err := s.subscriptionRepo.Update(ctx, sub.ID, map[string]interface{}{
			"expiry_date": sub.ExpiryDate,
			"is_active":   true,
		}); err != nil {
			return nil, fmt.Errorf("failed to extend subscription: %w", err)
		}
	} else {
		sub = &models.Subscription{
			CollectorID:   collectorID,
			StartDate:     now,
			ExpiryDate:    now.Add(s.market.SubscriptionPeriod),
			IsActive:      true,
			PricePaid:     s.market.SubscriptionPrice,
			PaymentMethod: method,
			TransactionID: transactionID,
			OrderID:       req.OrderID,
		}
		if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
	}

	if err := s.collectorRepo.SetPremium(ctx, collectorID, true); err != nil {
		return nil, fmt.Errorf("failed to set premium flag: %w", err)
	}

	s.logger.WithPartyID(collectorID).WithFields(map[string]interface{}{
		"subscription_id": sub.ID.Hex(),
		"expiry_date":     sub.ExpiryDate,
		"payment_method":  method,
	}).Info("Subscription purchased")

	s.notifier.NotifySubscriptionActivated(ctx, collector.Recipient(), sub)
	return sub, nil
}

// verifyPayment confirms online and upi payments with the gateway when one is configured.
// Without a gateway the caller supplied transaction id is recorded as is.
func (s *subscriptionService) verifyPayment(ctx context.Context, collectorID primitive.ObjectID, method models.PaymentMethod, req *validators.SubscriptionPurchaseRequest) (string, error) {
	if method == models.PaymentMethodCash || s.payments == nil {
		return req.TransactionID, nil
	}

	if req.OrderID == "" || req.PaymentID == "" {
		return "", &DomainError{
			Kind:    ErrValidation,
			Message: "order_id and payment_id are required for online payments",
			Details: map[string]string{
				"order_id":   "required",
				"payment_id": "required",
			},
		}
	}

	result, err := s.payments.VerifyPayment(ctx, &payment.VerifyRequest{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Amount:    s.market.SubscriptionPrice,
	})
	if err != nil {
		s.logger.LogSecurityEvent("subscription_payment_rejected", "medium", map[string]interface{}{
			"collector_id": collectorID.Hex(),
			"order_id":     req.OrderID,
			"provider":     s.payments.Name(),
			"error":        err.Error(),
		})
		return "", newError(ErrPaymentFailed, "Payment could not be verified")
	}
	return result.TransactionID, nil
}

func (s *subscriptionService) History(ctx context.Context, collectorID primitive.ObjectID) ([]*models.Subscription, error) {
	return s.subscriptionRepo.ListByCollector(ctx, collectorID)
}

func (s *subscriptionService) Cancel(ctx context.Context, collectorID primitive.ObjectID) error {
	sub, err := s.subscriptionRepo.GetLatestActive(ctx, collectorID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return newError(ErrNotFound, "No active subscription found")
		}
		return err
	}

	if err := s.subscriptionRepo.Update(ctx, sub.ID, map[string]interface{}{"is_active": false}); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if err := s.collectorRepo.SetPremium(ctx, collectorID, false); err != nil {
		return fmt.Errorf("failed to clear premium flag: %w", err)
	}

	s.logger.WithPartyID(collectorID).WithField("subscription_id", sub.ID.Hex()).Info("Subscription cancelled")
	return nil
}
