package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"raddiwala/internal/config"
	"raddiwala/internal/models"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"
)

const testJWTSecret = "test-secret-0123456789abcdef"

func newTestAuth(m *marketplace, devMode bool) *authService {
	security := &config.SecurityConfig{
		JWTSecret:   testJWTSecret,
		JWTTokenTTL: time.Hour,
		OTPExpiry:   10 * time.Minute,
	}
	return NewAuthService(m.customers, m.collectors, m.addresses, newTestVerification(&fakeOTPs{}, nil), m.notifier, security, devMode, logger.NewNop()).(*authService)
}

func shopAddress() *validators.AddressRequest {
	return &validators.AddressRequest{Line: "4 Market Street", Area: "Dadar", City: "Mumbai", Pincode: "400014"}
}

func TestSignupAndLogin(t *testing.T) {
	m := newMarketplace()
	auth := newTestAuth(m, true)
	ctx := context.Background()

	sent, err := auth.SendOTP(ctx, &validators.SendOTPRequest{Email: "Ravi@Example.com", Purpose: "signup", Role: "raddiwala"})
	if err != nil {
		t.Fatalf("SendOTP() error = %v", err)
	}
	if sent.DevelopmentOTP == "" || m.notifier.otps["ravi@example.com"] != sent.DevelopmentOTP {
		t.Fatalf("development otp = %q, mailed %q", sent.DevelopmentOTP, m.notifier.otps["ravi@example.com"])
	}

	resp, err := auth.Signup(ctx, &validators.SignupRequest{
		Email:   "ravi@example.com",
		OTP:     sent.DevelopmentOTP,
		Role:    "raddiwala",
		Name:    "Ravi Kumar",
		Phone:   "9876543210",
		Address: shopAddress(),
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if resp.Account.Role != models.RoleCollector || resp.Account.Phone != "9876543210" {
		t.Errorf("account = %+v", resp.Account)
	}

	claims, err := utils.ValidateToken(resp.Token, testJWTSecret)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != resp.Account.ID.Hex() || claims.Role != "raddiwala" {
		t.Errorf("claims = %+v", claims)
	}

	collector := m.collectors.snapshot(resp.Account.ID)
	shop, err := m.addresses.GetByID(ctx, collector.ShopAddressID)
	if err != nil || shop.City != "Mumbai" {
		t.Errorf("shop address = %+v, err = %v", shop, err)
	}

	sent, err = auth.SendOTP(ctx, &validators.SendOTPRequest{Email: "ravi@example.com", Purpose: "login", Role: "raddiwala"})
	if err != nil {
		t.Fatalf("SendOTP(login) error = %v", err)
	}
	login, err := auth.Login(ctx, &validators.LoginRequest{Email: "ravi@example.com", OTP: sent.DevelopmentOTP, Role: "raddiwala"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.Account.ID != resp.Account.ID {
		t.Errorf("logged in as %s, want %s", login.Account.ID.Hex(), resp.Account.ID.Hex())
	}
}

func TestSendOTPRules(t *testing.T) {
	m := newMarketplace()
	auth := newTestAuth(m, false)
	ctx := context.Background()
	customer, _ := m.addCustomer("Mumbai")

	tests := []struct {
		name    string
		req     *validators.SendOTPRequest
		wantErr error
	}{
		{name: "signup with taken email", req: &validators.SendOTPRequest{Email: customer.Email, Purpose: "signup", Role: "raddiwala"}, wantErr: ErrConflict},
		{name: "login in the wrong role", req: &validators.SendOTPRequest{Email: customer.Email, Purpose: "login", Role: "raddiwala"}, wantErr: ErrValidation},
		{name: "login without account", req: &validators.SendOTPRequest{Email: "nobody@example.com", Purpose: "login", Role: "customer"}, wantErr: ErrValidation},
		{name: "unknown role", req: &validators.SendOTPRequest{Email: customer.Email, Purpose: "login", Role: "admin"}, wantErr: ErrValidation},
		{name: "login", req: &validators.SendOTPRequest{Email: customer.Email, Purpose: "login", Role: "customer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := auth.SendOTP(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SendOTP() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SendOTP() error = %v", err)
			}
			if resp.DevelopmentOTP != "" {
				t.Error("otp must not be echoed outside development mode")
			}
		})
	}
}

func TestSignupRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("collector without shop address", func(t *testing.T) {
		m := newMarketplace()
		auth := newTestAuth(m, true)
		_, err := auth.Signup(ctx, &validators.SignupRequest{
			Email: "ravi@example.com", OTP: "1234", Role: "raddiwala", Name: "Ravi", Phone: "9876543210",
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("Signup() error = %v, want ErrValidation", err)
		}
	})

	t.Run("phone already registered", func(t *testing.T) {
		m := newMarketplace()
		auth := newTestAuth(m, true)
		existing, _ := m.addCustomer("Mumbai")

		sent, err := auth.SendOTP(ctx, &validators.SendOTPRequest{Email: "new@example.com", Purpose: "signup", Role: "customer"})
		if err != nil {
			t.Fatalf("SendOTP() error = %v", err)
		}
		_, err = auth.Signup(ctx, &validators.SignupRequest{
			Email: "new@example.com", OTP: sent.DevelopmentOTP, Role: "customer", Name: "Meera", Phone: existing.Phone,
			Address: shopAddress(),
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("Signup() error = %v, want ErrConflict", err)
		}
		if n := len(m.addresses.byID); n != 1 {
			t.Errorf("addresses = %d, want the orphaned one removed", n)
		}
	})

	t.Run("wrong otp", func(t *testing.T) {
		m := newMarketplace()
		auth := newTestAuth(m, true)
		sent, _ := auth.SendOTP(ctx, &validators.SendOTPRequest{Email: "new@example.com", Purpose: "signup", Role: "customer"})
		wrong := "1000"
		if sent.DevelopmentOTP == wrong {
			wrong = "1001"
		}
		_, err := auth.Signup(ctx, &validators.SignupRequest{
			Email: "new@example.com", OTP: wrong, Role: "customer", Name: "Meera", Phone: "9876543210",
		})
		if !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("Signup() error = %v, want ErrInvalidCode", err)
		}
	})
}

func TestLoginDeactivatedAccount(t *testing.T) {
	m := newMarketplace()
	auth := newTestAuth(m, true)
	ctx := context.Background()
	customer, _ := m.addCustomer("Mumbai")

	sent, err := auth.SendOTP(ctx, &validators.SendOTPRequest{Email: customer.Email, Purpose: "login", Role: "customer"})
	if err != nil {
		t.Fatalf("SendOTP() error = %v", err)
	}
	if err := m.customers.Deactivate(ctx, customer.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	_, err = auth.Login(ctx, &validators.LoginRequest{Email: customer.Email, OTP: sent.DevelopmentOTP, Role: "customer"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
}

func TestActiveSessionEndsWithAccount(t *testing.T) {
	m := newMarketplace()
	auth := newTestAuth(m, false)
	ctx := context.Background()
	customer, _ := m.addCustomer("Mumbai")
	collector := m.addCollector("Mumbai")

	if active, err := auth.Active(ctx, customer.ID, models.RoleCustomer); err != nil || !active {
		t.Fatalf("Active(customer) = %v, %v", active, err)
	}
	if active, _ := auth.Active(ctx, customer.ID, models.RoleCollector); active {
		t.Error("a customer id should not pass as a collector session")
	}

	if err := m.partySvc.Deactivate(ctx, customer.ID, models.RoleCustomer); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if active, err := auth.Active(ctx, customer.ID, models.RoleCustomer); err != nil || active {
		t.Errorf("Active(deleted customer) = %v, %v, want false", active, err)
	}
	if active, err := auth.Active(ctx, collector.ID, models.RoleCollector); err != nil || !active {
		t.Errorf("Active(collector) = %v, %v", active, err)
	}
}
