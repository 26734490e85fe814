package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"raddiwala/internal/config"
	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"
	"raddiwala/internal/utils"
	"raddiwala/pkg/logger"
	"raddiwala/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// customers

type fakeCustomers struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Customer
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{byID: make(map[primitive.ObjectID]*models.Customer)}
}

func (f *fakeCustomers) Create(ctx context.Context, c *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == c.Email || existing.Phone == c.Phone {
			return interfaces.ErrDuplicateKey
		}
	}
	c.ID = primitive.NewObjectID()
	c.IsActive = true
	c.CreatedAt = testNow
	cp := *c
	cp.AddressIDs = append([]primitive.ObjectID(nil), c.AddressIDs...)
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCustomers) get(id primitive.ObjectID) (*models.Customer, bool) {
	c, ok := f.byID[id]
	if !ok || !c.IsActive {
		return nil, false
	}
	return c, true
}

func (f *fakeCustomers) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.get(id)
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *c
	cp.AddressIDs = append([]primitive.ObjectID(nil), c.AddressIDs...)
	return &cp, nil
}

func (f *fakeCustomers) find(match func(*models.Customer) bool) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.IsActive && match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeCustomers) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return f.find(func(c *models.Customer) bool { return c.Email == email })
}

func (f *fakeCustomers) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return f.find(func(c *models.Customer) bool { return c.Phone == phone })
}

func (f *fakeCustomers) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.get(id)
	if !ok {
		return interfaces.ErrNotFound
	}
	applyProfileUpdates(&c.Profile, updates)
	return nil
}

func (f *fakeCustomers) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.get(id)
	if !ok {
		return interfaces.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (f *fakeCustomers) AddAddress(ctx context.Context, id, addressID primitive.ObjectID, limit int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.get(id)
	if !ok || len(c.AddressIDs) >= limit {
		return interfaces.ErrStaleState
	}
	c.AddressIDs = append(c.AddressIDs, addressID)
	return nil
}

func (f *fakeCustomers) RemoveAddress(ctx context.Context, id, addressID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.get(id)
	if !ok {
		return interfaces.ErrNotFound
	}
	kept := c.AddressIDs[:0]
	for _, a := range c.AddressIDs {
		if a != addressID {
			kept = append(kept, a)
		}
	}
	c.AddressIDs = kept
	return nil
}

func (f *fakeCustomers) ApplyRating(ctx context.Context, id primitive.ObjectID, stars int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	c.Rating = c.Rating.Add(stars)
	return nil
}

func (f *fakeCustomers) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.get(id)
	if !ok {
		return interfaces.ErrNotFound
	}
	c.DeviceTokens = append(c.DeviceTokens, token)
	return nil
}

// collectors

type fakeCollectors struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Collector
}

func newFakeCollectors() *fakeCollectors {
	return &fakeCollectors{byID: make(map[primitive.ObjectID]*models.Collector)}
}

func (f *fakeCollectors) Create(ctx context.Context, c *models.Collector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == c.Email || existing.Phone == c.Phone {
			return interfaces.ErrDuplicateKey
		}
	}
	c.ID = primitive.NewObjectID()
	c.IsActive = true
	c.CreatedAt = testNow
	if c.LastResetDate.IsZero() {
		c.LastResetDate = testNow
	}
	cp := *c
	f.byID[c.ID] = &cp
	return nil
}

func (f *fakeCollectors) get(id primitive.ObjectID) (*models.Collector, bool) {
	c, ok := f.byID[id]
	if !ok || !c.IsActive {
		return nil, false
	}
	return c, true
}

func (f *fakeCollectors) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Collector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.get(id)
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCollectors) find(match func(*models.Collector) bool) (*models.Collector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.IsActive && match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeCollectors) GetByEmail(ctx context.Context, email string) (*models.Collector, error) {
	return f.find(func(c *models.Collector) bool { return c.Email == email })
}

func (f *fakeCollectors) GetByPhone(ctx context.Context, phone string) (*models.Collector, error) {
	return f.find(func(c *models.Collector) bool { return c.Phone == phone })
}

func (f *fakeCollectors) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.get(id)
	if !ok {
		return interfaces.ErrNotFound
	}
	applyProfileUpdates(&c.Profile, updates)
	if v, ok := updates["shop_address_id"].(primitive.ObjectID); ok {
		c.ShopAddressID = v
	}
	return nil
}

func (f *fakeCollectors) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.get(id)
	if !ok {
		return interfaces.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (f *fakeCollectors) ApplyRating(ctx context.Context, id primitive.ObjectID, stars int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	c.Rating = c.Rating.Add(stars)
	return nil
}

func (f *fakeCollectors) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.get(id)
	if !ok {
		return interfaces.ErrNotFound
	}
	c.DeviceTokens = append(c.DeviceTokens, token)
	return nil
}

func (f *fakeCollectors) ResetMonthlyCount(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	c.MonthlyPickupsCount = 0
	c.LastResetDate = at
	return nil
}

func (f *fakeCollectors) IncrementMonthlyPickups(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	c.MonthlyPickupsCount++
	return nil
}

func (f *fakeCollectors) SetPremium(ctx context.Context, id primitive.ObjectID, premium bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	c.IsPremiumUser = premium
	return nil
}

func (f *fakeCollectors) snapshot(id primitive.ObjectID) models.Collector {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

func applyProfileUpdates(p *models.Profile, updates map[string]interface{}) {
	if v, ok := updates["name"].(string); ok {
		p.Name = v
	}
	if v, ok := updates["phone"].(string); ok {
		p.Phone = v
	}
	if v, ok := updates["profile_picture"].(string); ok {
		p.ProfilePicture = v
	}
	if v, ok := updates["picture_key"].(string); ok {
		p.PictureKey = v
	}
}

// addresses

type fakeAddresses struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Address
}

func newFakeAddresses() *fakeAddresses {
	return &fakeAddresses{byID: make(map[primitive.ObjectID]*models.Address)}
}

func (f *fakeAddresses) Create(ctx context.Context, a *models.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = primitive.NewObjectID()
	a.CityKey = models.CityKey(a.City)
	cp := *a
	f.byID[a.ID] = &cp
	return nil
}

func (f *fakeAddresses) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAddresses) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.Address, error) {
	result := []*models.Address{}
	for _, id := range ids {
		if a, err := f.GetByID(ctx, id); err == nil {
			result = append(result, a)
		}
	}
	return result, nil
}

func (f *fakeAddresses) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if v, ok := updates["line"].(string); ok {
		a.Line = v
	}
	if v, ok := updates["area"].(string); ok {
		a.Area = v
	}
	if v, ok := updates["city"].(string); ok {
		a.City = v
		a.CityKey = models.CityKey(v)
	}
	if v, ok := updates["pincode"].(string); ok {
		a.Pincode = v
	}
	if v, ok := updates["landmark"].(string); ok {
		a.Landmark = v
	}
	return nil
}

func (f *fakeAddresses) Delete(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return interfaces.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAddresses) FindIDsByCity(ctx context.Context, city string) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.CityKey(city)
	ids := []primitive.ObjectID{}
	for id, a := range f.byID {
		if a.CityKey == key {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// pickup requests

type fakePickups struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.PickupRequest
	seq  int
}

func newFakePickups() *fakePickups {
	return &fakePickups{byID: make(map[primitive.ObjectID]*models.PickupRequest)}
}

func (f *fakePickups) Create(ctx context.Context, r *models.PickupRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	r.ID = primitive.NewObjectID()
	r.CreatedAt = testNow.Add(time.Duration(f.seq) * time.Second)
	cp := *r
	f.byID[r.ID] = &cp
	return nil
}

func (f *fakePickups) GetByID(ctx context.Context, id primitive.ObjectID) (*models.PickupRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakePickups) UpdateWhereStatus(ctx context.Context, id primitive.ObjectID, status models.PickupStatus, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok || r.Status != status {
		return interfaces.ErrStaleState
	}
	for key, value := range updates {
		switch key {
		case "status":
			r.Status = value.(models.PickupStatus)
		case "accepted_bid_id":
			bidID := value.(primitive.ObjectID)
			r.AcceptedBidID = &bidID
		case "status_timestamps.accepted_at":
			at := value.(time.Time)
			r.StatusTimestamps.AcceptedAt = &at
		case "status_timestamps.completed_at":
			at := value.(time.Time)
			r.StatusTimestamps.CompletedAt = &at
		case "status_timestamps.cancelled_at":
			at := value.(time.Time)
			r.StatusTimestamps.CancelledAt = &at
		case "is_active":
			r.IsActive = value.(bool)
		case "description":
			r.Description = value.(string)
		case "time_window":
			r.TimeWindow = value.(string)
		}
	}
	return nil
}

func (f *fakePickups) list(match func(*models.PickupRequest) bool) []*models.PickupRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*models.PickupRequest{}
	for _, r := range f.byID {
		if match(r) {
			cp := *r
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (f *fakePickups) ListByCustomer(ctx context.Context, customerID primitive.ObjectID, status models.PickupStatus) ([]*models.PickupRequest, error) {
	return f.list(func(r *models.PickupRequest) bool {
		return r.CustomerID == customerID && (status == "" || r.Status == status)
	}), nil
}

func (f *fakePickups) ListOpenByAddresses(ctx context.Context, addressIDs []primitive.ObjectID) ([]*models.PickupRequest, error) {
	in := make(map[primitive.ObjectID]bool, len(addressIDs))
	for _, id := range addressIDs {
		in[id] = true
	}
	return f.list(func(r *models.PickupRequest) bool {
		return in[r.AddressID] && r.Status == models.PickupStatusOpen && r.IsActive
	}), nil
}

func (f *fakePickups) CountActiveByAddress(ctx context.Context, addressID primitive.ObjectID) (int64, error) {
	return int64(len(f.list(func(r *models.PickupRequest) bool {
		return r.AddressID == addressID && (r.Status == models.PickupStatusOpen || r.Status == models.PickupStatusAccepted)
	}))), nil
}

// bids

type fakeBids struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Bid
}

func newFakeBids() *fakeBids {
	return &fakeBids{byID: make(map[primitive.ObjectID]*models.Bid)}
}

func (f *fakeBids) Create(ctx context.Context, b *models.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.PickupRequestID == b.PickupRequestID && existing.CollectorID == b.CollectorID {
			return interfaces.ErrDuplicateKey
		}
	}
	b.ID = primitive.NewObjectID()
	b.CreatedAt = testNow
	cp := *b
	f.byID[b.ID] = &cp
	return nil
}

func (f *fakeBids) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBids) UpdateUnaccepted(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || b.IsAccepted {
		return interfaces.ErrStaleState
	}
	if v, ok := updates["item_rates"].([]models.ItemRate); ok {
		b.ItemRates = v
	}
	if v, ok := updates["proposed_pickup_time"].(string); ok {
		b.ProposedPickupTime = v
	}
	if v, ok := updates["notes"].(string); ok {
		b.Notes = v
	}
	if v, ok := updates["total_estimated_amount"].(float64); ok {
		b.TotalEstimatedAmount = v
	}
	return nil
}

func (f *fakeBids) DeleteUnaccepted(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || b.IsAccepted {
		return interfaces.ErrStaleState
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeBids) MarkAccepted(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	b.IsAccepted = true
	return nil
}

func (f *fakeBids) list(match func(*models.Bid) bool) []*models.Bid {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*models.Bid{}
	for _, b := range f.byID {
		if match(b) {
			cp := *b
			result = append(result, &cp)
		}
	}
	return result
}

func (f *fakeBids) FindByRequestAndCollector(ctx context.Context, requestID, collectorID primitive.ObjectID) (*models.Bid, error) {
	found := f.list(func(b *models.Bid) bool {
		return b.PickupRequestID == requestID && b.CollectorID == collectorID
	})
	if len(found) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return found[0], nil
}

func (f *fakeBids) ListByRequest(ctx context.Context, requestID primitive.ObjectID) ([]*models.Bid, error) {
	return f.list(func(b *models.Bid) bool { return b.PickupRequestID == requestID }), nil
}

func (f *fakeBids) ListByCollector(ctx context.Context, collectorID primitive.ObjectID, accepted *bool) ([]*models.Bid, error) {
	return f.list(func(b *models.Bid) bool {
		return b.CollectorID == collectorID && (accepted == nil || b.IsAccepted == *accepted)
	}), nil
}

func (f *fakeBids) RequestIDsWithBidFrom(ctx context.Context, collectorID primitive.ObjectID, requestIDs []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	wanted := make(map[primitive.ObjectID]bool, len(requestIDs))
	for _, id := range requestIDs {
		wanted[id] = true
	}
	result := make(map[primitive.ObjectID]bool)
	for _, b := range f.list(func(b *models.Bid) bool { return b.CollectorID == collectorID }) {
		if wanted[b.PickupRequestID] {
			result[b.PickupRequestID] = true
		}
	}
	return result, nil
}

// transactions

type fakeTransactions struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.CompletedTransaction
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{byID: make(map[primitive.ObjectID]*models.CompletedTransaction)}
}

func (f *fakeTransactions) Create(ctx context.Context, t *models.CompletedTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.PickupRequestID == t.PickupRequestID {
			return interfaces.ErrDuplicateKey
		}
	}
	t.ID = primitive.NewObjectID()
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTransactions) GetByID(ctx context.Context, id primitive.ObjectID) (*models.CompletedTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTransactions) GetByPickupRequest(ctx context.Context, requestID primitive.ObjectID) (*models.CompletedTransaction, error) {
	found := f.matching(&models.TransactionFilter{})
	for _, t := range found {
		if t.PickupRequestID == requestID {
			return t, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeTransactions) matching(filter *models.TransactionFilter) []*models.CompletedTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*models.CompletedTransaction{}
	for _, t := range f.byID {
		if filter.CustomerID != nil && t.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.CollectorID != nil && t.CollectorID != *filter.CollectorID {
			continue
		}
		if filter.PaymentStatus != "" && t.PaymentStatus != filter.PaymentStatus {
			continue
		}
		cp := *t
		result = append(result, &cp)
	}
	return result
}

func (f *fakeTransactions) List(ctx context.Context, filter *models.TransactionFilter, params *utils.PaginationParams) ([]*models.CompletedTransaction, int64, error) {
	found := f.matching(filter)
	return found, int64(len(found)), nil
}

func (f *fakeTransactions) setRating(id primitive.ObjectID, set func(*models.CompletedTransaction) bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || !set(t) {
		return interfaces.ErrStaleState
	}
	return nil
}

func (f *fakeTransactions) SetCustomerRating(ctx context.Context, id primitive.ObjectID, rating *models.PartyRating) error {
	return f.setRating(id, func(t *models.CompletedTransaction) bool {
		if t.CustomerRating != nil {
			return false
		}
		t.CustomerRating = rating
		return true
	})
}

func (f *fakeTransactions) SetCollectorRating(ctx context.Context, id primitive.ObjectID, rating *models.PartyRating) error {
	return f.setRating(id, func(t *models.CompletedTransaction) bool {
		if t.CollectorRating != nil {
			return false
		}
		t.CollectorRating = rating
		return true
	})
}

func (f *fakeTransactions) UpdatePaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	t.PaymentStatus = status
	return nil
}

func (f *fakeTransactions) Stats(ctx context.Context, filter *models.TransactionFilter) (*models.TransactionStats, error) {
	stats := &models.TransactionStats{}
	for _, t := range f.matching(filter) {
		stats.TotalTransactions++
		stats.TotalAmount += t.TotalAmount
	}
	if stats.TotalTransactions > 0 {
		stats.AverageAmount = stats.TotalAmount / float64(stats.TotalTransactions)
	}
	return stats, nil
}

// subscriptions

type fakeSubscriptions struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Subscription
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{byID: make(map[primitive.ObjectID]*models.Subscription)}
}

func (f *fakeSubscriptions) Create(ctx context.Context, s *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = primitive.NewObjectID()
	cp := *s
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeSubscriptions) GetLatestActive(ctx context.Context, collectorID primitive.ObjectID) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Subscription
	for _, s := range f.byID {
		if s.CollectorID == collectorID && s.IsActive && (latest == nil || s.ExpiryDate.After(latest.ExpiryDate)) {
			latest = s
		}
	}
	if latest == nil {
		return nil, interfaces.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeSubscriptions) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if v, ok := updates["expiry_date"].(time.Time); ok {
		s.ExpiryDate = v
	}
	if v, ok := updates["is_active"].(bool); ok {
		s.IsActive = v
	}
	return nil
}

func (f *fakeSubscriptions) ListByCollector(ctx context.Context, collectorID primitive.ObjectID) ([]*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []*models.Subscription{}
	for _, s := range f.byID {
		if s.CollectorID == collectorID {
			cp := *s
			result = append(result, &cp)
		}
	}
	return result, nil
}

// one-time codes

type fakeOTPs struct {
	mu    sync.Mutex
	codes []*models.OneTimeCode
}

func (f *fakeOTPs) Create(ctx context.Context, otp *models.OneTimeCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	otp.ID = primitive.NewObjectID()
	cp := *otp
	f.codes = append(f.codes, &cp)
	return nil
}

func (f *fakeOTPs) DeleteOutstanding(ctx context.Context, email string, purpose models.OTPPurpose, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.codes[:0]
	for _, c := range f.codes {
		if !(c.Email == email && c.Purpose == purpose && c.Role == role && !c.IsUsed) {
			kept = append(kept, c)
		}
	}
	f.codes = kept
	return nil
}

func (f *fakeOTPs) FindLatest(ctx context.Context, email string, purpose models.OTPPurpose, role models.Role) (*models.OneTimeCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.codes) - 1; i >= 0; i-- {
		c := f.codes[i]
		if c.Email == email && c.Purpose == purpose && c.Role == role {
			cp := *c
			return &cp, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeOTPs) MarkUsed(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.ID == id {
			if c.IsUsed {
				return interfaces.ErrStaleState
			}
			c.IsUsed = true
			return nil
		}
	}
	return interfaces.ErrStaleState
}

// storage

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  int
	uploads int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(ctx context.Context, req *storage.UploadRequest) (*storage.UploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.failOn > 0 && f.uploads == f.failOn {
		return nil, errors.New("storage unavailable")
	}
	data, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, err
	}
	f.objects[req.Key] = data
	return &storage.UploadResponse{Key: req.Key, URL: "/uploads/" + req.Key, Size: int64(len(data))}, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// notifications

type sentNotification struct {
	kind  string
	email string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	otps map[string]string
}

func (n *recordingNotifier) record(kind string, r *models.Recipient) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{kind: kind, email: r.Email})
}

func (n *recordingNotifier) SendOTP(ctx context.Context, email, code string, purpose models.OTPPurpose) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.otps == nil {
		n.otps = make(map[string]string)
	}
	n.otps[email] = code
}

func (n *recordingNotifier) NotifyNewBid(ctx context.Context, customer *models.Recipient, bid *models.Bid) {
	n.record("new_bid", customer)
}

func (n *recordingNotifier) NotifyBidAccepted(ctx context.Context, collector *models.Recipient, request *models.PickupRequest) {
	n.record("bid_accepted", collector)
}

func (n *recordingNotifier) NotifyPickupCompleted(ctx context.Context, customer *models.Recipient, txn *models.CompletedTransaction) {
	n.record("pickup_completed", customer)
}

func (n *recordingNotifier) NotifySubscriptionActivated(ctx context.Context, collector *models.Recipient, sub *models.Subscription) {
	n.record("subscription_activated", collector)
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		kinds = append(kinds, s.kind)
	}
	return kinds
}

// transactions

// fakeTx runs one transaction at a time and puts every marketplace store back
// the way it was when fn fails.
type fakeTx struct {
	mu sync.Mutex
	m  *marketplace
}

type storeSnapshot struct {
	customers    map[primitive.ObjectID]*models.Customer
	collectors   map[primitive.ObjectID]*models.Collector
	pickups      map[primitive.ObjectID]*models.PickupRequest
	bids         map[primitive.ObjectID]*models.Bid
	transactions map[primitive.ObjectID]*models.CompletedTransaction
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := f.m.snapshot()
	if err := fn(ctx); err != nil {
		f.m.restore(snap)
		return err
	}
	return nil
}

func cloneStore[V any](mu *sync.Mutex, src map[primitive.ObjectID]*V) map[primitive.ObjectID]*V {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[primitive.ObjectID]*V, len(src))
	for id, v := range src {
		cp := *v
		out[id] = &cp
	}
	return out
}

func (m *marketplace) snapshot() *storeSnapshot {
	return &storeSnapshot{
		customers:    cloneStore(&m.customers.mu, m.customers.byID),
		collectors:   cloneStore(&m.collectors.mu, m.collectors.byID),
		pickups:      cloneStore(&m.pickups.mu, m.pickups.byID),
		bids:         cloneStore(&m.bids.mu, m.bids.byID),
		transactions: cloneStore(&m.transactions.mu, m.transactions.byID),
	}
}

func (m *marketplace) restore(snap *storeSnapshot) {
	m.customers.mu.Lock()
	m.customers.byID = snap.customers
	m.customers.mu.Unlock()
	m.collectors.mu.Lock()
	m.collectors.byID = snap.collectors
	m.collectors.mu.Unlock()
	m.pickups.mu.Lock()
	m.pickups.byID = snap.pickups
	m.pickups.mu.Unlock()
	m.bids.mu.Lock()
	m.bids.byID = snap.bids
	m.bids.mu.Unlock()
	m.transactions.mu.Lock()
	m.transactions.byID = snap.transactions
	m.transactions.mu.Unlock()
}

// marketplace wires every service against the fakes with a fixed clock.
type marketplace struct {
	customers     *fakeCustomers
	collectors    *fakeCollectors
	addresses     *fakeAddresses
	pickups       *fakePickups
	bids          *fakeBids
	transactions  *fakeTransactions
	subscriptions *fakeSubscriptions
	storage       *fakeStorage
	notifier      *recordingNotifier
	market        *config.MarketplaceConfig
	tx            *fakeTx

	pickupSvc       *pickupService
	bidSvc          *bidService
	settlementSvc   *settlementService
	subscriptionSvc *subscriptionService
	partySvc        *partyService
}

func newMarketplace() *marketplace {
	m := &marketplace{
		customers:     newFakeCustomers(),
		collectors:    newFakeCollectors(),
		addresses:     newFakeAddresses(),
		pickups:       newFakePickups(),
		bids:          newFakeBids(),
		transactions:  newFakeTransactions(),
		subscriptions: newFakeSubscriptions(),
		storage:       newFakeStorage(),
		notifier:      &recordingNotifier{},
		market: &config.MarketplaceConfig{
			FreeMonthlyPickups:   50,
			SubscriptionPeriod:   30 * 24 * time.Hour,
			SubscriptionPrice:    30,
			MaxCustomerAddresses: 3,
			MaxRequestPhotos:     5,
			MaxUploadSize:        5 * 1024 * 1024,
		},
	}
	m.tx = &fakeTx{m: m}
	log := logger.NewNop()

	m.subscriptionSvc = NewSubscriptionService(m.collectors, m.subscriptions, nil, m.notifier, m.market, "INR", log).(*subscriptionService)
	m.subscriptionSvc.now = fixedClock

	m.pickupSvc = NewPickupService(m.tx, m.pickups, m.bids, m.customers, m.collectors, m.addresses, m.storage, m.notifier, m.market, log).(*pickupService)
	m.pickupSvc.now = fixedClock

	m.bidSvc = NewBidService(m.tx, m.bids, m.pickups, m.customers, m.collectors, m.addresses, m.subscriptionSvc, m.notifier, log).(*bidService)
	m.bidSvc.now = fixedClock

	m.settlementSvc = NewSettlementService(m.tx, m.bids, m.pickups, m.transactions, m.customers, m.collectors, m.addresses, m.subscriptionSvc, m.notifier, log).(*settlementService)
	m.settlementSvc.now = fixedClock

	m.partySvc = NewPartyService(m.customers, m.collectors, m.addresses, m.pickups, m.subscriptionSvc, m.storage, nil, m.market, log).(*partyService)
	m.partySvc.now = fixedClock

	return m
}

func (m *marketplace) addCustomer(city string) (*models.Customer, *models.Address) {
	ctx := context.Background()
	address := &models.Address{Line: "12 MG Road", Area: "Indiranagar", City: city, Pincode: "560038"}
	m.addresses.Create(ctx, address)

	n := len(m.customers.byID) + 1
	customer := &models.Customer{
		Profile: models.Profile{
			Name:  "Asha",
			Email: "asha" + string(rune('a'+n)) + "@example.com",
			Phone: "98450000" + string(rune('0'+n/10)) + string(rune('0'+n%10)),
		},
		AddressIDs: []primitive.ObjectID{address.ID},
	}
	m.customers.Create(ctx, customer)
	return customer, address
}

func (m *marketplace) addCollector(city string) *models.Collector {
	ctx := context.Background()
	shop := &models.Address{Line: "4 Market Street", Area: "Shivajinagar", City: city, Pincode: "560001"}
	m.addresses.Create(ctx, shop)

	n := len(m.collectors.byID) + 1
	collector := &models.Collector{
		Profile: models.Profile{
			Name:  "Ravi",
			Email: "ravi" + string(rune('a'+n)) + "@example.com",
			Phone: "97400000" + string(rune('0'+n/10)) + string(rune('0'+n%10)),
		},
		ShopAddressID: shop.ID,
		LastResetDate: testNow,
	}
	m.collectors.Create(ctx, collector)
	return collector
}

// openRequest stores an open request directly, skipping photo handling.
func (m *marketplace) openRequest(customer *models.Customer, address *models.Address, category models.WeightCategory, wasteTypes ...models.WasteType) *models.PickupRequest {
	request := &models.PickupRequest{
		CustomerID:     customer.ID,
		WasteTypes:     wasteTypes,
		WeightCategory: category,
		AddressID:      address.ID,
		Status:         models.PickupStatusOpen,
		IsActive:       true,
	}
	m.pickups.Create(context.Background(), request)
	return request
}
