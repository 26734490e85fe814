package services

import (
	"bytes"
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
	"raddiwala/pkg/maps"
	"raddiwala/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PartyService manages customer and collector accounts after signup.
type PartyService interface {
	// Profiles
	CustomerProfile(ctx context.Context, customerID primitive.ObjectID) (*models.CustomerProfile, error)
	CollectorProfile(ctx context.Context, collectorID primitive.ObjectID) (*models.CollectorProfile, error)
	UpdateProfile(ctx context.Context, partyID primitive.ObjectID, role models.Role, req *validators.ProfileUpdateRequest) error
	UploadProfilePicture(ctx context.Context, partyID primitive.ObjectID, role models.Role, upload *FileUpload) (string, error)
	RegisterDeviceToken(ctx context.Context, partyID primitive.ObjectID, role models.Role, req *validators.DeviceTokenRequest) error
	Deactivate(ctx context.Context, partyID primitive.ObjectID, role models.Role) error

	// Addresses
	AddAddress(ctx context.Context, customerID primitive.ObjectID, req *validators.AddressRequest) (*models.Address, error)
	UpdateAddress(ctx context.Context, customerID, addressID primitive.ObjectID, req *validators.AddressUpdateRequest) (*models.Address, error)
	DeleteAddress(ctx context.Context, customerID, addressID primitive.ObjectID) error
	UpdateShopAddress(ctx context.Context, collectorID primitive.ObjectID, req *validators.AddressRequest) (*models.Address, error)
}

type partyService struct {
	customerRepo  interfaces.CustomerRepository
	collectorRepo interfaces.CollectorRepository
	addressRepo   interfaces.AddressRepository
	pickupRepo    interfaces.PickupRequestRepository
	subscriptions SubscriptionService
	storage       storage.StorageProvider
	geocoder      maps.Geocoder
	market        *config.MarketplaceConfig
	logger        *logger.Logger
	now           func() time.Time
}

// NewPartyService builds the service. geocoder may be nil.
func NewPartyService(
	customerRepo interfaces.CustomerRepository,
	collectorRepo interfaces.CollectorRepository,
	addressRepo interfaces.AddressRepository,
	pickupRepo interfaces.PickupRequestRepository,
	subscriptions SubscriptionService,
	storage storage.StorageProvider,
	geocoder maps.Geocoder,
	market *config.MarketplaceConfig,
	logger *logger.Logger,
) PartyService {
	return &partyService{
		customerRepo:  customerRepo,
		collectorRepo: collectorRepo,
		addressRepo:   addressRepo,
		pickupRepo:    pickupRepo,
		subscriptions: subscriptions,
		storage:       storage,
		geocoder:      geocoder,
		market:        market,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *partyService) CustomerProfile(ctx context.Context, customerID primitive.ObjectID) (*models.CustomerProfile, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, notFound(err, "Customer")
	}

	addresses, err := s.addressRepo.GetMany(ctx, customer.AddressIDs)
	if err != nil {
		return nil, err
	}
	return &models.CustomerProfile{Customer: customer, Addresses: addresses}, nil
}

// CollectorProfile applies the monthly reset and subscription expiry before reporting quota.
func (s *partyService) CollectorProfile(ctx context.Context, collectorID primitive.ObjectID) (*models.CollectorProfile, error) {
	collector, err := s.collectorRepo.GetByID(ctx, collectorID)
	if err != nil {
		return nil, notFound(err, "Raddiwala")
	}

	if err := s.subscriptions.EnsureCurrentPeriod(ctx, collector); err != nil {
		return nil, err
	}
	if _, err := s.subscriptions.RefreshStatus(ctx, collector); err != nil {
		return nil, err
	}

	shop, err := s.addressRepo.GetByID(ctx, collector.ShopAddressID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	return &models.CollectorProfile{
		Collector:   collector,
		ShopAddress: shop,
		CanPlaceBid: s.subscriptions.CanPlaceBid(collector),
	}, nil
}

func (s *partyService) UpdateProfile(ctx context.Context, partyID primitive.ObjectID, role models.Role, req *validators.ProfileUpdateRequest) error {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return validationError(errs)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = validators.SanitizeInput(*req.Name)
	}
	if req.Phone != nil {
		phone := utils.NormalizePhone(*req.Phone)
		if err := s.checkPhoneFree(ctx, partyID, role, phone); err != nil {
			return err
		}
		updates["phone"] = phone
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.updateParty(ctx, partyID, role, updates); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateKey) {
			return newError(ErrConflict, "Phone number is already in use")
		}
		return notFound(err, "Account")
	}
	return nil
}

// UploadProfilePicture stores a resized copy of the picture and removes the previous one.
func (s *partyService) UploadProfilePicture(ctx context.Context, partyID primitive.ObjectID, role models.Role, upload *FileUpload) (string, error) {
	if upload == nil {
		return "", invalidField("profile_picture", "No file uploaded")
	}
	_, reader, err := checkImage(upload, s.market.MaxUploadSize)
	if err != nil {
		return "", err
	}

	profile, err := s.profile(ctx, partyID, role)
	if err != nil {
		return "", err
	}

	data, contentType, ext, err := utils.PrepareProfilePicture(reader)
	if err != nil {
		return "", invalidField("profile_picture", "Image could not be decoded")
	}

	stored := &storedFiles{storage: s.storage, logger: s.logger}
	resp, err := stored.upload(ctx, &storage.UploadRequest{
		Key:          utils.GenerateStorageKey("profile-pictures", fmt.Sprintf("%s-%s", role, partyID.Hex()), "picture"+ext),
		Reader:       bytes.NewReader(data),
		ContentType:  contentType,
		Size:         int64(len(data)),
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return "", err
	}

	err = s.updateParty(ctx, partyID, role, map[string]interface{}{
		"profile_picture": resp.URL,
		"picture_key":     resp.Key,
	})
	if err != nil {
		stored.rollback()
		return "", notFound(err, "Account")
	}

	if profile.PictureKey != "" {
		if err := s.storage.Delete(ctx, profile.PictureKey); err != nil {
			s.logger.WithError(err).WithField("key", profile.PictureKey).Warn("Failed to delete previous profile picture")
		}
	}

	return resp.URL, nil
}

func (s *partyService) RegisterDeviceToken(ctx context.Context, partyID primitive.ObjectID, role models.Role, req *validators.DeviceTokenRequest) error {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return validationError(errs)
	}

	token := models.DeviceToken{
		Token:        req.Token,
		Platform:     models.DevicePlatform(req.Platform),
		RegisteredAt: s.now(),
	}

	var err error
	if role == models.RoleCollector {
		err = s.collectorRepo.AddDeviceToken(ctx, partyID, token)
	} else {
		err = s.customerRepo.AddDeviceToken(ctx, partyID, token)
	}
	if err != nil {
		return notFound(err, "Account")
	}
	return nil
}

// Deactivate soft-deletes the account. Its email and phone stay reserved.
func (s *partyService) Deactivate(ctx context.Context, partyID primitive.ObjectID, role models.Role) error {
	var err error
	if role == models.RoleCollector {
		err = s.collectorRepo.Deactivate(ctx, partyID)
	} else {
		err = s.customerRepo.Deactivate(ctx, partyID)
	}
	if err != nil {
		return notFound(err, "Account")
	}

	s.logger.LogSecurityEvent("account_deactivated", "low", map[string]interface{}{
		"party_id": partyID.Hex(),
		"role":     role,
	})
	return nil
}

func (s *partyService) AddAddress(ctx context.Context, customerID primitive.ObjectID, req *validators.AddressRequest) (*models.Address, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, notFound(err, "Customer")
	}
	limit := s.market.MaxCustomerAddresses
	if len(customer.AddressIDs) >= limit {
		return nil, addressLimitError(limit)
	}

	address := s.newAddress(ctx, req)
	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to create address: %w", err)
	}

	if err := s.customerRepo.AddAddress(ctx, customerID, address.ID, limit); err != nil {
		if delErr := s.addressRepo.Delete(ctx, address.ID); delErr != nil {
			s.logger.WithError(delErr).WithField("address_id", address.ID.Hex()).Warn("Failed to remove orphaned address")
		}
		if errors.Is(err, interfaces.ErrStaleState) {
			return nil, addressLimitError(limit)
		}
		return nil, err
	}

	return address, nil
}

func (s *partyService) UpdateAddress(ctx context.Context, customerID, addressID primitive.ObjectID, req *validators.AddressUpdateRequest) (*models.Address, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}
	if err := s.checkOwnsAddress(ctx, customerID, addressID); err != nil {
		return nil, err
	}

	address, err := s.addressRepo.GetByID(ctx, addressID)
	if err != nil {
		return nil, notFound(err, "Address")
	}
	if req.IsEmpty() {
		return address, nil
	}

	updates := map[string]interface{}{}
	if req.Line != nil {
		address.Line = *req.Line
		updates["line"] = address.Line
	}
	if req.Area != nil {
		address.Area = *req.Area
		updates["area"] = address.Area
	}
	if req.City != nil {
		address.City = *req.City
		address.CityKey = models.CityKey(address.City)
		updates["city"] = address.City
	}
	if req.Pincode != nil {
		address.Pincode = *req.Pincode
		updates["pincode"] = address.Pincode
	}
	if req.Landmark != nil {
		address.Landmark = *req.Landmark
		updates["landmark"] = address.Landmark
	}
	if location := s.geocode(ctx, address); location != nil {
		address.Location = location
		updates["location"] = location
	}

	if err := s.addressRepo.Update(ctx, addressID, updates); err != nil {
		return nil, notFound(err, "Address")
	}
	return address, nil
}

// DeleteAddress refuses while an open or accepted request still points at the address.
func (s *partyService) DeleteAddress(ctx context.Context, customerID, addressID primitive.ObjectID) error {
	if err := s.checkOwnsAddress(ctx, customerID, addressID); err != nil {
		return err
	}

	active, err := s.pickupRepo.CountActiveByAddress(ctx, addressID)
	if err != nil {
		return err
	}
	if active > 0 {
		return newError(ErrInvalidState, "Address is used by an active pickup request")
	}

	if err := s.customerRepo.RemoveAddress(ctx, customerID, addressID); err != nil {
		return notFound(err, "Customer")
	}
	if err := s.addressRepo.Delete(ctx, addressID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return err
	}
	return nil
}

// UpdateShopAddress replaces the shop address in place, or creates one if the collector has none.
func (s *partyService) UpdateShopAddress(ctx context.Context, collectorID primitive.ObjectID, req *validators.AddressRequest) (*models.Address, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	collector, err := s.collectorRepo.GetByID(ctx, collectorID)
	if err != nil {
		return nil, notFound(err, "Raddiwala")
	}

	address := s.newAddress(ctx, req)
	address.ID = collector.ShopAddressID

	err = s.addressRepo.Update(ctx, collector.ShopAddressID, map[string]interface{}{
		"line":     address.Line,
		"area":     address.Area,
		"city":     address.City,
		"pincode":  address.Pincode,
		"landmark": address.Landmark,
		"location": address.Location,
	})
	if err == nil {
		address.CityKey = models.CityKey(address.City)
		return address, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to create shop address: %w", err)
	}
	if err := s.collectorRepo.Update(ctx, collectorID, map[string]interface{}{"shop_address_id": address.ID}); err != nil {
		return nil, notFound(err, "Raddiwala")
	}
	return address, nil
}

func (s *partyService) newAddress(ctx context.Context, req *validators.AddressRequest) *models.Address {
	address := &models.Address{
		Line:     validators.SanitizeInput(req.Line),
		Area:     validators.SanitizeInput(req.Area),
		City:     validators.SanitizeInput(req.City),
		Pincode:  req.Pincode,
		Landmark: validators.SanitizeInput(req.Landmark),
	}
	address.Location = s.geocode(ctx, address)
	return address
}

// geocode is best effort: a missing geocoder or a failed lookup yields nil.
func (s *partyService) geocode(ctx context.Context, address *models.Address) *models.GeoPoint {
	if s.geocoder == nil {
		return nil
	}

	result, err := s.geocoder.Geocode(ctx, &maps.GeocodeRequest{
		Address:    address.FormattedAddress(),
		PostalCode: address.Pincode,
		Region:     "in",
	})
	if err != nil {
		s.logger.WithError(err).WithField("pincode", address.Pincode).Debug("Address geocoding failed")
		return nil
	}
	return &models.GeoPoint{Latitude: result.Latitude, Longitude: result.Longitude}
}

func (s *partyService) checkOwnsAddress(ctx context.Context, customerID, addressID primitive.ObjectID) error {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return notFound(err, "Customer")
	}
	if !customer.OwnsAddress(addressID) {
		return newError(ErrAccessDenied, "Address not found or access denied")
	}
	return nil
}

func (s *partyService) checkPhoneFree(ctx context.Context, partyID primitive.ObjectID, role models.Role, phone string) error {
	var ownerID primitive.ObjectID
	var err error
	if role == models.RoleCollector {
		var collector *models.Collector
		if collector, err = s.collectorRepo.GetByPhone(ctx, phone); err == nil {
			ownerID = collector.ID
		}
	} else {
		var customer *models.Customer
		if customer, err = s.customerRepo.GetByPhone(ctx, phone); err == nil {
			ownerID = customer.ID
		}
	}

	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return nil
	case err != nil:
		return err
	case ownerID != partyID:
		return newError(ErrConflict, "Phone number is already in use")
	}
	return nil
}

func (s *partyService) profile(ctx context.Context, partyID primitive.ObjectID, role models.Role) (*models.Profile, error) {
	if role == models.RoleCollector {
		collector, err := s.collectorRepo.GetByID(ctx, partyID)
		if err != nil {
			return nil, notFound(err, "Raddiwala")
		}
		return &collector.Profile, nil
	}

	customer, err := s.customerRepo.GetByID(ctx, partyID)
	if err != nil {
		return nil, notFound(err, "Customer")
	}
	return &customer.Profile, nil
}

func (s *partyService) updateParty(ctx context.Context, partyID primitive.ObjectID, role models.Role, updates map[string]interface{}) error {
	if role == models.RoleCollector {
		return s.collectorRepo.Update(ctx, partyID, updates)
	}
	return s.customerRepo.Update(ctx, partyID, updates)
}

func addressLimitError(limit int) error {
	return newError(ErrValidation, "Maximum %d addresses allowed", limit)
}
