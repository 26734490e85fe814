package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raddiwala/internal/config"
	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"
	"raddiwala/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PickupService owns the pickup request state machine:
// open -> accepted -> completed, and open -> cancelled.
type PickupService interface {
	Create(ctx context.Context, customerID primitive.ObjectID, req *validators.PickupRequestCreateRequest, photos []*FileUpload) (*models.PickupRequestView, error)
	Get(ctx context.Context, requestID, callerID primitive.ObjectID, role models.Role) (*models.PickupRequestView, error)
	Update(ctx context.Context, customerID, requestID primitive.ObjectID, req *validators.PickupRequestUpdateRequest) (*models.PickupRequestView, error)
	Cancel(ctx context.Context, customerID, requestID primitive.ObjectID) error
	AcceptBid(ctx context.Context, customerID, requestID primitive.ObjectID, req *validators.AcceptBidRequest) (*models.PickupRequest, error)

	ListBids(ctx context.Context, customerID, requestID primitive.ObjectID) ([]*models.BidView, error)
	ListForCustomer(ctx context.Context, customerID primitive.ObjectID, status models.PickupStatus) ([]*models.PickupRequestView, error)
	PendingForCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*models.PickupRequestView, error)
}

type pickupService struct {
	tx           interfaces.Transactor
	pickupRepo   interfaces.PickupRequestRepository
	bidRepo      interfaces.BidRepository
	customerRepo interfaces.CustomerRepository
	dir          *directory
	storage      storage.StorageProvider
	notifier     NotificationService
	market       *config.MarketplaceConfig
	logger       *logger.Logger
	now          func() time.Time
}

func NewPickupService(
	tx interfaces.Transactor,
	pickupRepo interfaces.PickupRequestRepository,
	bidRepo interfaces.BidRepository,
	customerRepo interfaces.CustomerRepository,
	collectorRepo interfaces.CollectorRepository,
	addressRepo interfaces.AddressRepository,
	storage storage.StorageProvider,
	notifier NotificationService,
	market *config.MarketplaceConfig,
	logger *logger.Logger,
) PickupService {
	return &pickupService{
		tx:           tx,
		pickupRepo:   pickupRepo,
		bidRepo:      bidRepo,
		customerRepo: customerRepo,
		dir: &directory{
			customerRepo:  customerRepo,
			collectorRepo: collectorRepo,
			addressRepo:   addressRepo,
		},
		storage:  storage,
		notifier: notifier,
		market:   market,
		logger:   logger,
		now:      time.Now,
	}
}

// Create stores the photos and then the request. If anything after the first
// upload fails, every stored photo is deleted again.
func (s *pickupService) Create(ctx context.Context, customerID primitive.ObjectID, req *validators.PickupRequestCreateRequest, photos []*FileUpload) (view *models.PickupRequestView, err error) {
	if errs := validators.ValidatePickupRequestCreate(req, len(photos), s.market.MaxRequestPhotos); len(errs) > 0 {
		return nil, validationError(errs)
	}
	addressID, _ := primitive.ObjectIDFromHex(req.AddressID)

	stored := &storedFiles{storage: s.storage, logger: s.logger}
	defer func() {
		if err != nil {
			stored.rollback()
		}
	}()

	request := &models.PickupRequest{
		CustomerID:     customerID,
		Photos:         make([]models.Photo, 0, len(photos)),
		WasteTypes:     make([]models.WasteType, 0, len(req.WasteTypes)),
		WeightCategory: models.WeightCategory(req.WeightCategory),
		Description:    req.Description,
		AddressID:      addressID,
		TimeWindow:     req.TimeWindow,
		Status:         models.PickupStatusOpen,
		IsActive:       true,
	}
	for _, wasteType := range req.WasteTypes {
		request.WasteTypes = append(request.WasteTypes, models.WasteType(wasteType))
	}

	for _, photo := range photos {
		contentType, reader, err := checkImage(photo, s.market.MaxUploadSize)
		if err != nil {
			return nil, err
		}
		resp, err := stored.upload(ctx, &storage.UploadRequest{
			Key:         utils.GenerateStorageKey("pickup-requests", customerID.Hex(), photo.Filename),
			Reader:      reader,
			ContentType: contentType,
			Size:        photo.Size,
		})
		if err != nil {
			return nil, err
		}
		request.Photos = append(request.Photos, models.Photo{Key: resp.Key, URL: resp.URL})
	}

	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, notFound(err, "Customer")
	}
	if !customer.OwnsAddress(addressID) {
		return nil, newError(ErrAccessDenied, "Invalid address")
	}

	if err := s.pickupRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create pickup request: %w", err)
	}

	s.logger.LogPickupEvent(request.ID, "created", map[string]interface{}{
		"customer_id":     customerID.Hex(),
		"photos":          len(request.Photos),
		"weight_category": request.WeightCategory,
	})

	return s.dir.views().request(ctx, request, true)
}

// Get is open to the owning customer and to any collector.
func (s *pickupService) Get(ctx context.Context, requestID, callerID primitive.ObjectID, role models.Role) (*models.PickupRequestView, error) {
	request, err := s.pickupRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "Pickup request")
	}

	isOwner := role == models.RoleCustomer && request.CustomerID == callerID
	if !isOwner && role != models.RoleCollector {
		return nil, newError(ErrAccessDenied, "Access denied")
	}

	v := s.dir.views()
	view, err := v.request(ctx, request, isOwner)
	if err != nil {
		return nil, err
	}
	if err := s.attachAcceptedBid(ctx, v, view); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *pickupService) Update(ctx context.Context, customerID, requestID primitive.ObjectID, req *validators.PickupRequestUpdateRequest) (*models.PickupRequestView, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	request, err := s.ownedRequest(ctx, customerID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.PickupStatusOpen {
		return nil, newError(ErrInvalidState, "Cannot update request that is not open")
	}

	updates := map[string]interface{}{}
	if req.Description != nil && *req.Description != "" {
		updates["description"] = *req.Description
		request.Description = *req.Description
	}
	if req.TimeWindow != nil && *req.TimeWindow != "" {
		updates["time_window"] = *req.TimeWindow
		request.TimeWindow = *req.TimeWindow
	}

	if len(updates) > 0 {
		err := s.pickupRepo.UpdateWhereStatus(ctx, requestID, models.PickupStatusOpen, updates)
		if err != nil {
			if errors.Is(err, interfaces.ErrStaleState) {
				return nil, newError(ErrInvalidState, "Cannot update request that is not open")
			}
			return nil, err
		}
	}

	return s.dir.views().request(ctx, request, true)
}

// Cancel is only possible while the request is still open.
func (s *pickupService) Cancel(ctx context.Context, customerID, requestID primitive.ObjectID) error {
	request, err := s.ownedRequest(ctx, customerID, requestID)
	if err != nil {
		return err
	}
	if request.Status != models.PickupStatusOpen {
		return newError(ErrInvalidState, "Only open pickup requests can be cancelled")
	}

	now := s.now()
	err = s.pickupRepo.UpdateWhereStatus(ctx, requestID, models.PickupStatusOpen, map[string]interface{}{
		"status":                         models.PickupStatusCancelled,
		"status_timestamps.cancelled_at": now,
		"is_active":                      false,
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrStaleState) {
			return newError(ErrInvalidState, "Only open pickup requests can be cancelled")
		}
		return err
	}

	s.logger.LogPickupEvent(requestID, "cancelled", nil)
	return nil
}

// AcceptBid moves an open request to accepted and marks the bid accepted in one
// transaction. The status change is a compare-and-swap, so of two concurrent
// acceptances exactly one wins. Other bids are left as they are.
func (s *pickupService) AcceptBid(ctx context.Context, customerID, requestID primitive.ObjectID, req *validators.AcceptBidRequest) (*models.PickupRequest, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	bidID, _ := primitive.ObjectIDFromHex(req.BidID)

	request, err := s.ownedRequest(ctx, customerID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.PickupStatusOpen {
		return nil, newError(ErrInvalidState, "Pickup request is no longer open")
	}

	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, notFound(err, "Bid")
	}
	if bid.PickupRequestID != requestID {
		return nil, newError(ErrNotFound, "Bid not found")
	}

	now := s.now()
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		err := s.pickupRepo.UpdateWhereStatus(ctx, requestID, models.PickupStatusOpen, map[string]interface{}{
			"status":                        models.PickupStatusAccepted,
			"accepted_bid_id":               bidID,
			"status_timestamps.accepted_at": now,
		})
		if err != nil {
			if errors.Is(err, interfaces.ErrStaleState) {
				return newError(ErrInvalidState, "Pickup request is no longer open")
			}
			return err
		}

		// The bid may have been withdrawn since it was read.
		if err := s.bidRepo.MarkAccepted(ctx, bidID); err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return newError(ErrNotFound, "Bid not found")
			}
			return fmt.Errorf("failed to mark bid accepted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = models.PickupStatusAccepted
	request.AcceptedBidID = &bidID
	request.StatusTimestamps.AcceptedAt = &now

	s.logger.LogPickupEvent(requestID, "bid_accepted", map[string]interface{}{
		"bid_id":       bidID.Hex(),
		"collector_id": bid.CollectorID.Hex(),
	})

	if collector, err := s.dir.collectorRepo.GetByID(ctx, bid.CollectorID); err == nil {
		s.notifier.NotifyBidAccepted(ctx, collector.Recipient(), request)
	} else {
		s.logger.WithError(err).WithField("collector_id", bid.CollectorID.Hex()).Warn("Could not notify collector of accepted bid")
	}

	return request, nil
}

func (s *pickupService) ListBids(ctx context.Context, customerID, requestID primitive.ObjectID) ([]*models.BidView, error) {
	if _, err := s.ownedRequest(ctx, customerID, requestID); err != nil {
		return nil, err
	}

	bids, err := s.bidRepo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return s.dir.views().bids(ctx, bids)
}

func (s *pickupService) ListForCustomer(ctx context.Context, customerID primitive.ObjectID, status models.PickupStatus) ([]*models.PickupRequestView, error) {
	if status != "" && !status.IsValid() {
		return nil, invalidField("status", "Unknown pickup status")
	}

	requests, err := s.pickupRepo.ListByCustomer(ctx, customerID, status)
	if err != nil {
		return nil, err
	}

	v := s.dir.views()
	result := make([]*models.PickupRequestView, 0, len(requests))
	for _, request := range requests {
		view, err := v.request(ctx, request, true)
		if err != nil {
			return nil, err
		}
		if err := s.attachAcceptedBid(ctx, v, view); err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, nil
}

// PendingForCustomer lists the customer's open requests with every bid received so far.
func (s *pickupService) PendingForCustomer(ctx context.Context, customerID primitive.ObjectID) ([]*models.PickupRequestView, error) {
	requests, err := s.pickupRepo.ListByCustomer(ctx, customerID, models.PickupStatusOpen)
	if err != nil {
		return nil, err
	}

	v := s.dir.views()
	result := make([]*models.PickupRequestView, 0, len(requests))
	for _, request := range requests {
		view, err := v.request(ctx, request, true)
		if err != nil {
			return nil, err
		}
		bids, err := s.bidRepo.ListByRequest(ctx, request.ID)
		if err != nil {
			return nil, err
		}
		if view.Bids, err = v.bids(ctx, bids); err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, nil
}

func (s *pickupService) ownedRequest(ctx context.Context, customerID, requestID primitive.ObjectID) (*models.PickupRequest, error) {
	request, err := s.pickupRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "Pickup request")
	}
	if request.CustomerID != customerID {
		return nil, newError(ErrAccessDenied, "Access denied")
	}
	return request, nil
}

func (s *pickupService) attachAcceptedBid(ctx context.Context, v *views, view *models.PickupRequestView) error {
	if view.AcceptedBidID == nil {
		return nil
	}

	bid, err := s.bidRepo.GetByID(ctx, *view.AcceptedBidID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil
		}
		return err
	}
	view.AcceptedBid, err = v.bid(ctx, bid)
	return err
}
