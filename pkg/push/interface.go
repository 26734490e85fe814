package push

import (
	"context"
	"fmt"
)

type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
}

type NotificationRequest struct {
	Token    string            `json:"token"`
	Platform string            `json:"platform"` // android, ios, web
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`
}

// Router sends iOS tokens through APNs and everything else through FCM.
// Either side may be nil when that provider is not configured.
type Router struct {
	FCM  PushProvider
	APNS PushProvider
}

func (r *Router) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	provider := r.FCM
	if request.Platform == "ios" && r.APNS != nil {
		provider = r.APNS
	}
	if provider == nil {
		return nil, fmt.Errorf("no push provider configured for platform %q", request.Platform)
	}
	return provider.SendNotification(ctx, request)
}
