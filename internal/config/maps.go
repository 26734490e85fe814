package config

type MapsConfig struct {
	Provider   string            `yaml:"provider"`
	GoogleMaps *GoogleMapsConfig `yaml:"google_maps"`
	Region     string            `yaml:"region"`
}

type GoogleMapsConfig struct {
	APIKey string `yaml:"api_key"`
}

// Geocoding is skipped when the provider is "none" or no API key is set.
func loadMapsConfig() *MapsConfig {
	return &MapsConfig{
		Provider: getEnv("MAPS_PROVIDER", "none"),
		GoogleMaps: &GoogleMapsConfig{
			APIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		},
		Region: getEnv("MAPS_REGION", "in"),
	}
}
