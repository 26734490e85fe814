package main

import (
	"context"
	"fmt"

	"raddiwala/internal/config"
	"raddiwala/pkg/logger"
	"raddiwala/pkg/mail"
	"raddiwala/pkg/maps"
	"raddiwala/pkg/payment"
	"raddiwala/pkg/push"
	"raddiwala/pkg/sms"
	"raddiwala/pkg/storage"
)

// providers holds the outbound integrations. Any of the interface fields
// except storage and mailer may be nil when the provider is not configured.
type providers struct {
	storage  storage.StorageProvider
	mailer   mail.Mailer
	sms      sms.SMSProvider
	push     push.PushProvider
	payments payment.PaymentProvider
	geocoder maps.Geocoder

	closers []func() error
}

func (p *providers) Close() {
	for _, closeFn := range p.closers {
		_ = closeFn()
	}
}

func newProviders(ctx context.Context, cfg *config.Config, log *logger.Logger) (*providers, error) {
	p := &providers{}

	if err := p.initStorage(ctx, cfg.Storage); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := p.initSMS(ctx, cfg.SMS); err != nil {
		return nil, fmt.Errorf("sms: %w", err)
	}
	if err := p.initPush(ctx, cfg.Push); err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}
	if err := p.initMaps(cfg.Maps); err != nil {
		return nil, fmt.Errorf("maps: %w", err)
	}
	p.initPayments(cfg.Payment)

	if cfg.SMTP.Enabled {
		p.mailer = mail.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.FromEmail, cfg.SMTP.FromName)
	} else {
		log.Warn("SMTP disabled, emails will be written to the log")
		p.mailer = mail.NewLogMailer(log)
	}

	log.WithFields(map[string]interface{}{
		"storage": cfg.Storage.Provider,
		"sms":     cfg.SMS.Provider,
		"push":    cfg.Push.Provider,
		"payment": cfg.Payment.Provider,
		"maps":    cfg.Maps.Provider,
	}).Info("Providers initialized")

	return p, nil
}

func (p *providers) initStorage(ctx context.Context, cfg *config.StorageConfig) error {
	switch cfg.Provider {
	case "s3":
		s3, err := storage.NewAWSS3Storage(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.CDNDomain)
		if err != nil {
			return err
		}
		p.storage = s3
	case "gcs":
		gcs, err := storage.NewGCPStorage(ctx, cfg.GCS.Bucket, cfg.GCS.CredentialsFile, cfg.GCS.CDNDomain)
		if err != nil {
			return err
		}
		p.storage = gcs
		p.closers = append(p.closers, gcs.Close)
	case "local", "":
		local, err := storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
		if err != nil {
			return err
		}
		p.storage = local
	default:
		return fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return nil
}

func (p *providers) initSMS(ctx context.Context, cfg *config.SMSConfig) error {
	switch cfg.Provider {
	case "twilio":
		p.sms = sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber)
	case "sns":
		sns, err := sms.NewAWSSNSProvider(ctx, cfg.AWS.Region)
		if err != nil {
			return err
		}
		p.sms = sns
	case "none", "":
	default:
		return fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return nil
}

func (p *providers) initPush(ctx context.Context, cfg *config.PushConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	router := &push.Router{}
	if cfg.UsesFCM() {
		fcm, err := push.NewFCMProvider(ctx, cfg.FCM.Credentials)
		if err != nil {
			return err
		}
		router.FCM = fcm
	}
	if cfg.UsesAPNS() {
		apns, err := push.NewAPNSProvider(cfg.APNS.KeyFile, cfg.APNS.KeyID, cfg.APNS.TeamID, cfg.APNS.BundleID, cfg.APNS.Production)
		if err != nil {
			return err
		}
		router.APNS = apns
	}
	if router.FCM != nil || router.APNS != nil {
		p.push = router
	}
	return nil
}

func (p *providers) initMaps(cfg *config.MapsConfig) error {
	if cfg.Provider != "google" {
		return nil
	}
	google, err := maps.NewGoogleMapsProvider(cfg.GoogleMaps.APIKey)
	if err != nil {
		return err
	}
	p.geocoder = google
	return nil
}

func (p *providers) initPayments(cfg *config.PaymentConfig) {
	switch cfg.Provider {
	case "razorpay":
		p.payments = payment.NewRazorpayProvider(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	case "stripe":
		p.payments = payment.NewStripeProvider(cfg.Stripe.SecretKey)
	}
}
