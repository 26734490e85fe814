package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"raddiwala/internal/models"
	"raddiwala/internal/utils"
	"raddiwala/pkg/logger"
	"raddiwala/pkg/mail"
	"raddiwala/pkg/push"
	"raddiwala/pkg/sms"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService tells parties about marketplace events. Delivery is best
// effort: failures are logged and never returned to the caller.
type NotificationService interface {
	SendOTP(ctx context.Context, email, code string, purpose models.OTPPurpose)
	NotifyNewBid(ctx context.Context, customer *models.Recipient, bid *models.Bid)
	NotifyBidAccepted(ctx context.Context, collector *models.Recipient, request *models.PickupRequest)
	NotifyPickupCompleted(ctx context.Context, customer *models.Recipient, txn *models.CompletedTransaction)
	NotifySubscriptionActivated(ctx context.Context, collector *models.Recipient, sub *models.Subscription)
}

// LivePublisher pushes events to parties with an open socket. Satisfied by websocket.Hub.
type LivePublisher interface {
	Publish(partyID primitive.ObjectID, event string, data map[string]string) int
}

type notificationService struct {
	mailer      mail.Mailer
	sms         sms.SMSProvider
	push        push.PushProvider
	live        LivePublisher
	countryCode string
	logger      *logger.Logger
}

// NewNotificationService wires the channels. smsProvider, pushProvider and live may be nil.
func NewNotificationService(
	mailer mail.Mailer,
	smsProvider sms.SMSProvider,
	pushProvider push.PushProvider,
	live LivePublisher,
	countryCode string,
	logger *logger.Logger,
) NotificationService {
	return &notificationService{
		mailer:      mailer,
		sms:         smsProvider,
		push:        pushProvider,
		live:        live,
		countryCode: countryCode,
		logger:      logger,
	}
}

var notificationTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px;">
    <h1 style="text-align: center; color: #2c5530;">RaddiWala</h1>
    <h2>{{.Heading}}</h2>
    <p>{{.Body}}</p>
    {{if .Code}}<p style="font-size: 32px; font-weight: bold; letter-spacing: 5px; text-align: center;">{{.Code}}</p>
    <p>This code will expire in 5 minutes. Please do not share this code with anyone.</p>{{end}}
    <p style="text-align: center; color: #666; font-size: 12px;">Connecting you with scrap collectors for a greener tomorrow.</p>
  </div>
</body>
</html>`))

type notification struct {
	Heading string
	Body    string
	Code    string
	Data    map[string]string
}

func otpSubject(purpose models.OTPPurpose) string {
	switch purpose {
	case models.OTPPurposeSignup:
		return "RaddiWala - Complete Your Registration"
	case models.OTPPurposeLogin:
		return "RaddiWala - Login Verification"
	case models.OTPPurposeEmailChange:
		return "RaddiWala - Email Change Verification"
	default:
		return "RaddiWala - Verification Code"
	}
}

func (s *notificationService) SendOTP(ctx context.Context, email, code string, purpose models.OTPPurpose) {
	// Codes go by email only.
	s.sendMail(ctx, email, otpSubject(purpose), &notification{
		Heading: "Verification Code",
		Body:    fmt.Sprintf("Your verification code for %s is:", purpose),
		Code:    code,
	})
}

func (s *notificationService) NotifyNewBid(ctx context.Context, customer *models.Recipient, bid *models.Bid) {
	s.deliver(ctx, customer, "New Bid Received - RaddiWala", &notification{
		Heading: "New Bid Received",
		Body:    "You have received a new bid for your pickup request. Please check your dashboard to review and accept bids.",
		Data: map[string]string{
			"type":              "new_bid",
			"bid_id":            bid.ID.Hex(),
			"pickup_request_id": bid.PickupRequestID.Hex(),
		},
	})
}

func (s *notificationService) NotifyBidAccepted(ctx context.Context, collector *models.Recipient, request *models.PickupRequest) {
	s.deliver(ctx, collector, "Bid Accepted - RaddiWala", &notification{
		Heading: "Bid Accepted",
		Body:    "Congratulations! Your bid for pickup request has been accepted. Please contact the customer for pickup details.",
		Data: map[string]string{
			"type":              "bid_accepted",
			"pickup_request_id": request.ID.Hex(),
		},
	})
}

func (s *notificationService) NotifyPickupCompleted(ctx context.Context, customer *models.Recipient, txn *models.CompletedTransaction) {
	s.deliver(ctx, customer, "Pickup Completed - RaddiWala", &notification{
		Heading: "Pickup Completed",
		Body:    "Your pickup has been completed successfully. Please rate your experience with the raddiwala.",
		Data: map[string]string{
			"type":           "pickup_completed",
			"transaction_id": txn.ID.Hex(),
		},
	})
}

func (s *notificationService) NotifySubscriptionActivated(ctx context.Context, collector *models.Recipient, sub *models.Subscription) {
	s.deliver(ctx, collector, "Premium Subscription Activated - RaddiWala", &notification{
		Heading: "Premium Subscription Activated",
		Body: fmt.Sprintf(
			"Your premium subscription has been activated successfully. You can now place unlimited bids. Subscription expires on %s.",
			sub.ExpiryDate.Format("Mon Jan 02 2006"),
		),
		Data: map[string]string{
			"type":            "subscription_activated",
			"subscription_id": sub.ID.Hex(),
		},
	})
}

func (s *notificationService) deliver(ctx context.Context, recipient *models.Recipient, subject string, n *notification) {
	if recipient == nil {
		return
	}

	s.sendMail(ctx, recipient.Email, subject, n)
	s.sendSMS(ctx, recipient.Phone, fmt.Sprintf("%s: %s", subject, n.Body))
	s.sendPush(ctx, recipient.DeviceTokens, n)
	s.sendLive(recipient.PartyID, n)
}

func (s *notificationService) sendMail(ctx context.Context, to, subject string, n *notification) {
	if s.mailer == nil || to == "" {
		return
	}

	var html bytes.Buffer
	if err := notificationTemplate.Execute(&html, n); err != nil {
		s.logger.WithError(err).Warn("Failed to render notification email")
		return
	}

	text := n.Body
	if n.Code != "" {
		text = fmt.Sprintf("%s %s\nThis code will expire in 5 minutes.", n.Body, n.Code)
	}

	err := s.mailer.Send(ctx, &mail.Message{
		To:      to,
		Subject: subject,
		Text:    text,
		HTML:    html.String(),
	})
	if err != nil {
		s.logger.WithError(err).WithField("to", utils.MaskEmail(to)).Warn("Failed to send notification email")
	}
}

func (s *notificationService) sendSMS(ctx context.Context, phone, message string) {
	if s.sms == nil || phone == "" {
		return
	}

	_, err := s.sms.SendSMS(ctx, &sms.SMSRequest{
		To:      utils.FormatE164(phone, s.countryCode),
		Message: message,
		Type:    sms.MessageTransactional,
	})
	if err != nil {
		s.logger.WithError(err).WithField("to", utils.MaskPhone(phone)).Warn("Failed to send notification SMS")
	}
}

func (s *notificationService) sendPush(ctx context.Context, tokens []models.DeviceToken, n *notification) {
	if s.push == nil {
		return
	}

	for _, token := range tokens {
		_, err := s.push.SendNotification(ctx, &push.NotificationRequest{
			Token:    token.Token,
			Platform: string(token.Platform),
			Title:    n.Heading,
			Body:     n.Body,
			Data:     n.Data,
		})
		if err != nil {
			s.logger.WithError(err).WithField("platform", token.Platform).Warn("Failed to send push notification")
		}
	}
}

func (s *notificationService) sendLive(partyID primitive.ObjectID, n *notification) {
	if s.live == nil || partyID.IsZero() {
		return
	}
	s.live.Publish(partyID, n.Data["type"], n.Data)
}
