package config

import "time"

type MarketplaceConfig struct {
	FreeMonthlyPickups   int           `yaml:"free_monthly_pickups"`
	SubscriptionPeriod   time.Duration `yaml:"subscription_period"`
	SubscriptionPrice    float64       `yaml:"subscription_price"`
	MaxCustomerAddresses int           `yaml:"max_customer_addresses"`
	MaxRequestPhotos     int           `yaml:"max_request_photos"`
	MaxUploadSize        int64         `yaml:"max_upload_size"`
}

func loadMarketplaceConfig() *MarketplaceConfig {
	return &MarketplaceConfig{
		FreeMonthlyPickups:   getEnvAsInt("FREE_MONTHLY_PICKUPS", 50),
		SubscriptionPeriod:   getEnvAsDuration("SUBSCRIPTION_PERIOD", 30*24*time.Hour),
		SubscriptionPrice:    getEnvAsFloat64("SUBSCRIPTION_PRICE", 30),
		MaxCustomerAddresses: getEnvAsInt("MAX_CUSTOMER_ADDRESSES", 3),
		MaxRequestPhotos:     getEnvAsInt("MAX_REQUEST_PHOTOS", 5),
		MaxUploadSize:        int64(getEnvAsInt("MAX_UPLOAD_SIZE", 5*1024*1024)),
	}
}
