package services

import (
	"context"
	"errors"

	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// directory resolves the parties and addresses that views are joined with.
type directory struct {
	customerRepo  interfaces.CustomerRepository
	collectorRepo interfaces.CollectorRepository
	addressRepo   interfaces.AddressRepository
}

// views memoizes lookups while one response is assembled. Missing or
// deactivated records resolve to nil rather than an error.
type views struct {
	dir        *directory
	customers  map[primitive.ObjectID]*models.PartySummary
	collectors map[primitive.ObjectID]*models.PartySummary
	addresses  map[primitive.ObjectID]*models.Address
}

func (d *directory) views() *views {
	return &views{
		dir:        d,
		customers:  make(map[primitive.ObjectID]*models.PartySummary),
		collectors: make(map[primitive.ObjectID]*models.PartySummary),
		addresses:  make(map[primitive.ObjectID]*models.Address),
	}
}

func (v *views) address(ctx context.Context, id primitive.ObjectID) (*models.Address, error) {
	if address, ok := v.addresses[id]; ok {
		return address, nil
	}

	address, err := v.dir.addressRepo.GetByID(ctx, id)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}
	v.addresses[id] = address
	return address, nil
}

// customer returns the customer's public summary. The phone number is only
// included for a collector whose bid the customer accepted.
func (v *views) customer(ctx context.Context, id primitive.ObjectID, withPhone bool) (*models.PartySummary, error) {
	summary, ok := v.customers[id]
	if !ok {
		customer, err := v.dir.customerRepo.GetByID(ctx, id)
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		if customer != nil {
			summary = &models.PartySummary{
				ID:     customer.ID,
				Name:   customer.Name,
				Phone:  customer.Phone,
				Rating: customer.Rating,
			}
		}
		v.customers[id] = summary
	}

	if summary == nil || withPhone {
		return summary, nil
	}
	public := *summary
	public.Phone = ""
	return &public, nil
}

func (v *views) collector(ctx context.Context, id primitive.ObjectID) (*models.PartySummary, error) {
	if summary, ok := v.collectors[id]; ok {
		return summary, nil
	}

	collector, err := v.dir.collectorRepo.GetByID(ctx, id)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	var summary *models.PartySummary
	if collector != nil {
		shop, err := v.address(ctx, collector.ShopAddressID)
		if err != nil {
			return nil, err
		}
		summary = &models.PartySummary{
			ID:          collector.ID,
			Name:        collector.Name,
			Rating:      collector.Rating,
			ShopAddress: shop,
		}
	}
	v.collectors[id] = summary
	return summary, nil
}

func (v *views) request(ctx context.Context, request *models.PickupRequest, withPhone bool) (*models.PickupRequestView, error) {
	customer, err := v.customer(ctx, request.CustomerID, withPhone)
	if err != nil {
		return nil, err
	}
	address, err := v.address(ctx, request.AddressID)
	if err != nil {
		return nil, err
	}

	return &models.PickupRequestView{
		PickupRequest: request,
		Customer:      customer,
		Address:       address,
	}, nil
}

func (v *views) bid(ctx context.Context, bid *models.Bid) (*models.BidView, error) {
	collector, err := v.collector(ctx, bid.CollectorID)
	if err != nil {
		return nil, err
	}
	return &models.BidView{Bid: bid, Collector: collector}, nil
}

func (v *views) bids(ctx context.Context, bids []*models.Bid) ([]*models.BidView, error) {
	result := make([]*models.BidView, 0, len(bids))
	for _, bid := range bids {
		view, err := v.bid(ctx, bid)
		if err != nil {
			return nil, err
		}
		result = append(result, view)
	}
	return result, nil
}
