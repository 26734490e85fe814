package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BidStatusFilter narrows a collector's bid list.
type BidStatusFilter string

const (
	BidFilterAll      BidStatusFilter = ""
	BidFilterAccepted BidStatusFilter = "accepted"
	BidFilterPending  BidStatusFilter = "pending"
)

type BidService interface {
	Place(ctx context.Context, collectorID primitive.ObjectID, req *validators.BidCreateRequest) (*models.Bid, error)
	Update(ctx context.Context, collectorID, bidID primitive.ObjectID, req *validators.BidUpdateRequest) (*models.Bid, error)
	Delete(ctx context.Context, collectorID, bidID primitive.ObjectID) error
	Get(ctx context.Context, bidID, callerID primitive.ObjectID, role models.Role) (*models.BidView, error)

	// Collector views
	ListForCollector(ctx context.Context, collectorID primitive.ObjectID, filter BidStatusFilter) ([]*models.BidView, error)
	PendingPickups(ctx context.Context, collectorID primitive.ObjectID) ([]*models.BidView, error)
	OngoingForCollector(ctx context.Context, collectorID primitive.ObjectID) ([]*models.PickupRequestView, error)
}

type bidService struct {
	tx            interfaces.Transactor
	bidRepo       interfaces.BidRepository
	pickupRepo    interfaces.PickupRequestRepository
	collectorRepo interfaces.CollectorRepository
	addressRepo   interfaces.AddressRepository
	customerRepo  interfaces.CustomerRepository
	dir           *directory
	subscriptions SubscriptionService
	notifier      NotificationService
	logger        *logger.Logger
	now           func() time.Time
}

func NewBidService(
	tx interfaces.Transactor,
	bidRepo interfaces.BidRepository,
	pickupRepo interfaces.PickupRequestRepository,
	customerRepo interfaces.CustomerRepository,
	collectorRepo interfaces.CollectorRepository,
	addressRepo interfaces.AddressRepository,
	subscriptions SubscriptionService,
	notifier NotificationService,
	logger *logger.Logger,
) BidService {
	return &bidService{
		tx:            tx,
		bidRepo:       bidRepo,
		pickupRepo:    pickupRepo,
		collectorRepo: collectorRepo,
		addressRepo:   addressRepo,
		customerRepo:  customerRepo,
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

// Place checks, in order: subscription expiry, monthly reset, quota, the request
// being open, the city match and an existing bid.
func (s *bidService) Place(ctx context.Context, collectorID primitive.ObjectID, req *validators.BidCreateRequest) (*models.Bid, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	requestID, _ := primitive.ObjectIDFromHex(req.PickupRequestID)

	collector, err := s.gatedCollector(ctx, collectorID)
	if err != nil {
		return nil, err
	}

	request, err := s.pickupRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "Pickup request")
	}
	if request.Status != models.PickupStatusOpen {
		return nil, newError(ErrInvalidState, "Pickup request is no longer open")
	}

	if err := s.checkSameCity(ctx, collector, request); err != nil {
		return nil, err
	}

	if _, err := s.bidRepo.FindByRequestAndCollector(ctx, requestID, collectorID); err == nil {
		return nil, newError(ErrDuplicateBid, "You have already placed a bid for this request")
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	bid := &models.Bid{
		PickupRequestID:    requestID,
		CollectorID:        collectorID,
		ItemRates:          itemRates(req.ItemRates),
		ProposedPickupTime: req.ProposedPickupTime,
		Notes:              req.Notes,
	}
	bid.Recalculate(request.WeightCategory)

	err = s.whileOpen(ctx, requestID, func(ctx context.Context) error {
		if err := s.bidRepo.Create(ctx, bid); err != nil {
			if errors.Is(err, interfaces.ErrDuplicateKey) {
				return newError(ErrDuplicateBid, "You have already placed a bid for this request")
			}
			return fmt.Errorf("failed to create bid: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogBidEvent(bid.ID, "placed", map[string]interface{}{
		"pickup_request_id": requestID.Hex(),
		"collector_id":      collectorID.Hex(),
		"estimate":          bid.TotalEstimatedAmount,
	})

	if customer, err := s.customerRepo.GetByID(ctx, request.CustomerID); err == nil {
		s.notifier.NotifyNewBid(ctx, customer.Recipient(), bid)
	} else {
		s.logger.WithError(err).WithField("customer_id", request.CustomerID.Hex()).Warn("Could not notify customer of new bid")
	}

	return bid, nil
}

func (s *bidService) Update(ctx context.Context, collectorID, bidID primitive.ObjectID, req *validators.BidUpdateRequest) (*models.Bid, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	bid, err := s.ownedBid(ctx, collectorID, bidID)
	if err != nil {
		return nil, err
	}
	if bid.IsAccepted {
		return nil, newError(ErrInvalidState, "Cannot update accepted bid")
	}

	request, err := s.pickupRepo.GetByID(ctx, bid.PickupRequestID)
	if err != nil {
		return nil, notFound(err, "Pickup request")
	}
	if request.Status != models.PickupStatusOpen {
		return nil, newError(ErrInvalidState, "Pickup request is no longer open")
	}

	updates := map[string]interface{}{}
	if len(req.ItemRates) > 0 {
		bid.ItemRates = itemRates(req.ItemRates)
		updates["item_rates"] = bid.ItemRates
	}
	if req.ProposedPickupTime != nil {
		bid.ProposedPickupTime = *req.ProposedPickupTime
		updates["proposed_pickup_time"] = bid.ProposedPickupTime
	}
	if req.Notes != nil {
		bid.Notes = *req.Notes
		updates["notes"] = bid.Notes
	}
	bid.Recalculate(request.WeightCategory)
	updates["total_estimated_amount"] = bid.TotalEstimatedAmount

	err = s.whileOpen(ctx, bid.PickupRequestID, func(ctx context.Context) error {
		if err := s.bidRepo.UpdateUnaccepted(ctx, bidID, updates); err != nil {
			if errors.Is(err, interfaces.ErrStaleState) {
				return newError(ErrInvalidState, "Cannot update accepted bid")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogBidEvent(bidID, "updated", map[string]interface{}{"estimate": bid.TotalEstimatedAmount})
	return bid, nil
}

// whileOpen runs fn in a transaction that first writes to the pickup request
// guarded on its status. A concurrent accept or cancel either conflicts with it
// or makes the guard fail, so fn never lands on a request that has moved on.
func (s *bidService) whileOpen(ctx context.Context, requestID primitive.ObjectID, fn func(ctx context.Context) error) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.pickupRepo.UpdateWhereStatus(ctx, requestID, models.PickupStatusOpen, map[string]interface{}{}); err != nil {
			if errors.Is(err, interfaces.ErrStaleState) {
				return newError(ErrInvalidState, "Pickup request is no longer open")
			}
			return err
		}
		return fn(ctx)
	})
}

func (s *bidService) Delete(ctx context.Context, collectorID, bidID primitive.ObjectID) error {
	bid, err := s.ownedBid(ctx, collectorID, bidID)
	if err != nil {
		return err
	}
	if bid.IsAccepted {
		return newError(ErrInvalidState, "Cannot delete accepted bid")
	}

	if err := s.bidRepo.DeleteUnaccepted(ctx, bidID); err != nil {
		if errors.Is(err, interfaces.ErrStaleState) {
			return newError(ErrInvalidState, "Cannot delete accepted bid")
		}
		return err
	}

	s.logger.LogBidEvent(bidID, "deleted", nil)
	return nil
}

// Get is visible to the collector who placed the bid and to the customer who owns the request.
func (s *bidService) Get(ctx context.Context, bidID, callerID primitive.ObjectID, role models.Role) (*models.BidView, error) {
	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, notFound(err, "Bid")
	}

	request, err := s.pickupRepo.GetByID(ctx, bid.PickupRequestID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	switch {
	case role == models.RoleCollector && bid.CollectorID == callerID:
	case role == models.RoleCustomer && request != nil && request.CustomerID == callerID:
	default:
		return nil, newError(ErrAccessDenied, "Access denied")
	}

	v := s.dir.views()
	view, err := v.bid(ctx, bid)
	if err != nil {
		return nil, err
	}
	if request != nil {
		withPhone := bid.IsAccepted && request.Status == models.PickupStatusAccepted
		if view.PickupRequest, err = v.request(ctx, request, withPhone); err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (s *bidService) ListForCollector(ctx context.Context, collectorID primitive.ObjectID, filter BidStatusFilter) ([]*models.BidView, error) {
	var accepted *bool
	switch filter {
	case BidFilterAll:
	case BidFilterAccepted, BidFilterPending:
		value := filter == BidFilterAccepted
		accepted = &value
	default:
		return nil, invalidField("status", "status must be accepted or pending")
	}

	bids, err := s.bidRepo.ListByCollector(ctx, collectorID, accepted)
	if err != nil {
		return nil, err
	}
	return s.withRequests(ctx, bids, false)
}

// PendingPickups lists accepted bids whose request still waits to be completed.
// The customer's phone number is included so the pickup can be arranged.
func (s *bidService) PendingPickups(ctx context.Context, collectorID primitive.ObjectID) ([]*models.BidView, error) {
	accepted := true
	bids, err := s.bidRepo.ListByCollector(ctx, collectorID, &accepted)
	if err != nil {
		return nil, err
	}
	return s.withRequests(ctx, bids, true)
}

// OngoingForCollector lists the open requests in the collector's city. A collector
// over quota cannot see them.
func (s *bidService) OngoingForCollector(ctx context.Context, collectorID primitive.ObjectID) ([]*models.PickupRequestView, error) {
	collector, err := s.gatedCollector(ctx, collectorID)
	if err != nil {
		return nil, err
	}

	shop, err := s.addressRepo.GetByID(ctx, collector.ShopAddressID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return []*models.PickupRequestView{}, nil
		}
		return nil, err
	}

	addressIDs, err := s.addressRepo.FindIDsByCity(ctx, shop.City)
	if err != nil {
		return nil, err
	}
	requests, err := s.pickupRepo.ListOpenByAddresses(ctx, addressIDs)
	if err != nil {
		return nil, err
	}

	requestIDs := make([]primitive.ObjectID, 0, len(requests))
	for _, request := range requests {
		requestIDs = append(requestIDs, request.ID)
	}
	mine, err := s.bidRepo.RequestIDsWithBidFrom(ctx, collectorID, requestIDs)
	if err != nil {
		return nil, err
	}

	v := s.dir.views()
	result := make([]*models.PickupRequestView, 0, len(requests))
	for _, request := range requests {
		view, err := v.request(ctx, request, false)
		if err != nil {
			return nil, err
		}
		hasMyBid := mine[request.ID]
		view.HasMyBid = &hasMyBid
		result = append(result, view)
	}
	return result, nil
}

// gatedCollector loads the collector and applies expiry, monthly reset and quota.
func (s *bidService) gatedCollector(ctx context.Context, collectorID primitive.ObjectID) (*models.Collector, error) {
	collector, err := s.collectorRepo.GetByID(ctx, collectorID)
	if err != nil {
		return nil, notFound(err, "Raddiwala")
	}

	if _, err := s.subscriptions.RefreshStatus(ctx, collector); err != nil {
		return nil, err
	}
	if err := s.subscriptions.EnsureCurrentPeriod(ctx, collector); err != nil {
		return nil, err
	}

	if !s.subscriptions.CanPlaceBid(collector) {
		return nil, &DomainError{
			Kind:    ErrQuotaExceeded,
			Message: "Monthly pickup limit exceeded. Please upgrade to premium.",
			Details: map[string]string{
				"monthly_pickups": strconv.Itoa(collector.MonthlyPickupsCount),
				"is_premium":      strconv.FormatBool(collector.IsPremiumUser),
			},
		}
	}
	return collector, nil
}

func (s *bidService) checkSameCity(ctx context.Context, collector *models.Collector, request *models.PickupRequest) error {
	shop, err := s.addressRepo.GetByID(ctx, collector.ShopAddressID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return err
	}
	pickup, err := s.addressRepo.GetByID(ctx, request.AddressID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return err
	}

	if !shop.SameCity(pickup) {
		return newError(ErrGeoMismatch, "Can only bid on requests in your city")
	}
	return nil
}

func (s *bidService) ownedBid(ctx context.Context, collectorID, bidID primitive.ObjectID) (*models.Bid, error) {
	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, notFound(err, "Bid")
	}
	if bid.CollectorID != collectorID {
		return nil, newError(ErrAccessDenied, "Access denied")
	}
	return bid, nil
}

// withRequests joins each bid with its request. With onlyAccepted set, bids whose
// request has left the accepted state are dropped.
func (s *bidService) withRequests(ctx context.Context, bids []*models.Bid, onlyAccepted bool) ([]*models.BidView, error) {
	v := s.dir.views()
	result := make([]*models.BidView, 0, len(bids))
	for _, bid := range bids {
		request, err := s.pickupRepo.GetByID(ctx, bid.PickupRequestID)
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		if onlyAccepted && (request == nil || request.Status != models.PickupStatusAccepted) {
			continue
		}

		view := &models.BidView{Bid: bid}
		if request != nil {
			if view.PickupRequest, err = v.request(ctx, request, onlyAccepted); err != nil {
				return nil, err
			}
		}
		result = append(result, view)
	}
	return result, nil
}

func itemRates(reqs []validators.ItemRateRequest) []models.ItemRate {
	rates := make([]models.ItemRate, 0, len(reqs))
	for _, r := range reqs {
		rates = append(rates, models.ItemRate{
			WasteType:  models.WasteType(r.WasteType),
			PricePerKg: r.PricePerKg,
		})
	}
	return rates
}
