package config

import "fmt"

// PushConfig selects where device notifications for new bids, accepted bids and
// completed pickups go. Android tokens use FCM, iOS tokens use APNs.
type PushConfig struct {
	Provider string      `yaml:"provider"` // fcm, apns, both, none
	FCM      *FCMConfig  `yaml:"fcm"`
	APNS     *APNSConfig `yaml:"apns"`
}

type FCMConfig struct {
	Credentials string `yaml:"credentials_file"`
}

type APNSConfig struct {
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	BundleID   string `yaml:"bundle_id"`
	KeyFile    string `yaml:"key_file"`
	Production bool   `yaml:"production"`
}

func (c *PushConfig) UsesFCM() bool {
	return c.Provider == "fcm" || c.Provider == "both"
}

func (c *PushConfig) UsesAPNS() bool {
	return c.Provider == "apns" || c.Provider == "both"
}

// Validate reports a provider that is selected but missing its credentials.
func (c *PushConfig) Validate() error {
	switch c.Provider {
	case "fcm", "apns", "both", "none", "":
	default:
		return fmt.Errorf("unknown push provider %q", c.Provider)
	}
	if c.UsesFCM() && c.FCM.Credentials == "" {
		return fmt.Errorf("FCM_CREDENTIALS_FILE is required for push provider %q", c.Provider)
	}
	if c.UsesAPNS() && (c.APNS.KeyFile == "" || c.APNS.KeyID == "" || c.APNS.TeamID == "" || c.APNS.BundleID == "") {
		return fmt.Errorf("APNS_KEY_FILE, APNS_KEY_ID, APNS_TEAM_ID and APNS_BUNDLE_ID are required for push provider %q", c.Provider)
	}
	return nil
}

func loadPushConfig() *PushConfig {
	return &PushConfig{
		Provider: getEnv("PUSH_PROVIDER", "none"),
		FCM: &FCMConfig{
			Credentials: getEnv("FCM_CREDENTIALS_FILE", ""),
		},
		APNS: &APNSConfig{
			KeyID:      getEnv("APNS_KEY_ID", ""),
			TeamID:     getEnv("APNS_TEAM_ID", ""),
			BundleID:   getEnv("APNS_BUNDLE_ID", ""),
			KeyFile:    getEnv("APNS_KEY_FILE", ""),
			Production: getEnvAsBool("APNS_PRODUCTION", false),
		},
	}
}
