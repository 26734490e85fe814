package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleCustomer  Role = "customer"
	RoleCollector Role = "raddiwala"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleCollector
}

type DevicePlatform string

const (
	PlatformAndroid DevicePlatform = "android"
	PlatformIOS     DevicePlatform = "ios"
	PlatformWeb     DevicePlatform = "web"
)

type DeviceToken struct {
	Token        string         `json:"token" bson:"token"`
	Platform     DevicePlatform `json:"platform" bson:"platform"`
	RegisteredAt time.Time      `json:"registered_at" bson:"registered_at"`
}

// RatingSummary is the running aggregate of stars a party has received.
type RatingSummary struct {
	TotalStars   int     `json:"total_stars" bson:"total_stars"`
	TotalRatings int     `json:"total_ratings" bson:"total_ratings"`
	Average      float64 `json:"average" bson:"average"`
}

func (r RatingSummary) Add(stars int) RatingSummary {
	r.TotalStars += stars
	r.TotalRatings++
	r.Average = float64(r.TotalStars) / float64(r.TotalRatings)
	return r
}

// Profile holds the fields customers and collectors share.
type Profile struct {
	Name           string        `json:"name" bson:"name"`
	Email          string        `json:"email" bson:"email"`
	Phone          string        `json:"phone" bson:"phone"`
	ProfilePicture string        `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	PictureKey     string        `json:"-" bson:"picture_key,omitempty"`
	Rating         RatingSummary `json:"rating" bson:"rating"`
	DeviceTokens   []DeviceToken `json:"-" bson:"device_tokens,omitempty"`
	IsActive       bool          `json:"is_active" bson:"is_active"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at"`
}

type Customer struct {
	ID         primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Profile    `bson:",inline"`
	AddressIDs []primitive.ObjectID `json:"address_ids" bson:"addresses"`
}

func (c *Customer) OwnsAddress(addressID primitive.ObjectID) bool {
	for _, id := range c.AddressIDs {
		if id == addressID {
			return true
		}
	}
	return false
}

type Collector struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Profile             `bson:",inline"`
	ShopAddressID       primitive.ObjectID `json:"shop_address_id" bson:"shop_address_id"`
	IsPremiumUser       bool               `json:"is_premium_user" bson:"is_premium_user"`
	MonthlyPickupsCount int                `json:"monthly_pickups_count" bson:"monthly_pickups_count"`
	LastResetDate       time.Time          `json:"last_reset_date" bson:"last_reset_date"`
}

// InCurrentPeriod reports whether the monthly counter belongs to now's calendar month.
func (c *Collector) InCurrentPeriod(now time.Time) bool {
	last := c.LastResetDate.In(now.Location())
	return last.Year() == now.Year() && last.Month() == now.Month()
}

// CanPlaceBid applies the free-tier limit unless the collector is premium.
func (c *Collector) CanPlaceBid(limit int) bool {
	return c.IsPremiumUser || c.MonthlyPickupsCount < limit
}

// Recipient is the contact surface notifications are fanned out to.
type Recipient struct {
	PartyID      primitive.ObjectID
	Name         string
	Email        string
	Phone        string
	DeviceTokens []DeviceToken
}

func (p *Profile) Recipient() *Recipient {
	return &Recipient{
		Name:         p.Name,
		Email:        p.Email,
		Phone:        p.Phone,
		DeviceTokens: p.DeviceTokens,
	}
}

func (c *Customer) Recipient() *Recipient {
	r := c.Profile.Recipient()
	r.PartyID = c.ID
	return r
}

func (c *Collector) Recipient() *Recipient {
	r := c.Profile.Recipient()
	r.PartyID = c.ID
	return r
}

// PartySummary is the public face of a party shown to its counterparties.
type PartySummary struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	Phone       string             `json:"phone,omitempty"`
	Rating      RatingSummary      `json:"rating"`
	ShopAddress *Address           `json:"shop_address,omitempty"`
}

type CustomerProfile struct {
	*Customer
	Addresses []*Address `json:"addresses"`
}

type CollectorProfile struct {
	*Collector
	ShopAddress *Address `json:"shop_address,omitempty"`
	CanPlaceBid bool     `json:"can_place_bid"`
}
