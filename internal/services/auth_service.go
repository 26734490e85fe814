package services

import (
	"context"
	"errors"
	"fmt"

	"raddiwala/internal/config"
	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"
	"raddiwala/internal/utils"
	"raddiwala/internal/validators"
	"raddiwala/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthService signs parties up and in with emailed one-time codes.
type AuthService interface {
	SendOTP(ctx context.Context, req *validators.SendOTPRequest) (*OTPResponse, error)
	Signup(ctx context.Context, req *validators.SignupRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *validators.LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, partyID primitive.ObjectID, role models.Role) (*Account, error)
	Active(ctx context.Context, partyID primitive.ObjectID, role models.Role) (bool, error)
}

type OTPResponse struct {
	Message string `json:"message"`
	// DevelopmentOTP echoes the code when development mode is on.
	DevelopmentOTP string `json:"development_otp,omitempty"`
}

type Account struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	Role           models.Role        `json:"role"`
	ProfilePicture string             `json:"profile_picture,omitempty"`
}

type AuthResponse struct {
	Account   *Account `json:"user"`
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expires_at"`
}

type authService struct {
	customerRepo  interfaces.CustomerRepository
	collectorRepo interfaces.CollectorRepository
	addressRepo   interfaces.AddressRepository
	verification  VerificationService
	notifier      NotificationService
	security      *config.SecurityConfig
	devMode       bool
	logger        *logger.Logger
}

func NewAuthService(
	customerRepo interfaces.CustomerRepository,
	collectorRepo interfaces.CollectorRepository,
	addressRepo interfaces.AddressRepository,
	verification VerificationService,
	notifier NotificationService,
	security *config.SecurityConfig,
	devMode bool,
	logger *logger.Logger,
) AuthService {
	return &authService{
		customerRepo:  customerRepo,
		collectorRepo: collectorRepo,
		addressRepo:   addressRepo,
		verification:  verification,
		notifier:      notifier,
		security:      security,
		devMode:       devMode,
		logger:        logger,
	}
}

// SendOTP refuses signup codes for a registered email in either role, and login
// codes unless the email belongs to the requested role only.
func (s *authService) SendOTP(ctx context.Context, req *validators.SendOTPRequest) (*OTPResponse, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	email := utils.NormalizeEmail(req.Email)
	purpose := models.OTPPurpose(req.Purpose)
	role := models.Role(req.Role)

	hasCustomer, hasCollector, err := s.emailOwners(ctx, email)
	if err != nil {
		return nil, err
	}

	switch purpose {
	case models.OTPPurposeSignup:
		if hasCustomer || hasCollector {
			return nil, newError(ErrConflict, "Email already registered")
		}
	case models.OTPPurposeLogin:
		if role == models.RoleCustomer && hasCollector {
			return nil, newError(ErrValidation, "Email registered as Raddiwala. Please use correct role.")
		}
		if role == models.RoleCollector && hasCustomer {
			return nil, newError(ErrValidation, "Email registered as Customer. Please use correct role.")
		}
		if role == models.RoleCustomer && !hasCustomer {
			return nil, newError(ErrValidation, "No customer account found with this email")
		}
		if role == models.RoleCollector && !hasCollector {
			return nil, newError(ErrValidation, "No raddiwala account found with this email")
		}
	}

	code, err := s.verification.Issue(ctx, email, purpose, role)
	if err != nil {
		return nil, err
	}
	s.notifier.SendOTP(ctx, email, code, purpose)

	resp := &OTPResponse{Message: "OTP sent successfully"}
	if s.devMode {
		resp.DevelopmentOTP = code
	}
	return resp, nil
}

func (s *authService) Signup(ctx context.Context, req *validators.SignupRequest) (*AuthResponse, error) {
	if errs := validators.ValidateSignup(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	email := utils.NormalizeEmail(req.Email)
	role := models.Role(req.Role)
	if err := s.verification.Check(ctx, email, models.OTPPurposeSignup, role, req.OTP); err != nil {
		return nil, err
	}

	hasCustomer, hasCollector, err := s.emailOwners(ctx, email)
	if err != nil {
		return nil, err
	}
	if hasCustomer || hasCollector {
		return nil, newError(ErrConflict, "Email already registered")
	}

	profile := models.Profile{
		Name:  validators.SanitizeInput(req.Name),
		Email: email,
		Phone: utils.NormalizePhone(req.Phone),
	}

	var address *models.Address
	if req.Address != nil {
		address = &models.Address{
			Line:     validators.SanitizeInput(req.Address.Line),
			Area:     validators.SanitizeInput(req.Address.Area),
			City:     validators.SanitizeInput(req.Address.City),
			Pincode:  req.Address.Pincode,
			Landmark: validators.SanitizeInput(req.Address.Landmark),
		}
		if err := s.addressRepo.Create(ctx, address); err != nil {
			return nil, fmt.Errorf("failed to create address: %w", err)
		}
	}

	var account *Account
	if role == models.RoleCollector {
		collector := &models.Collector{Profile: profile, ShopAddressID: address.ID}
		err = s.collectorRepo.Create(ctx, collector)
		account = accountOf(collector.ID, role, &collector.Profile)
	} else {
		customer := &models.Customer{Profile: profile}
		if address != nil {
			customer.AddressIDs = []primitive.ObjectID{address.ID}
		}
		err = s.customerRepo.Create(ctx, customer)
		account = accountOf(customer.ID, role, &customer.Profile)
	}
	if err != nil {
		if address != nil {
			if delErr := s.addressRepo.Delete(ctx, address.ID); delErr != nil {
				s.logger.WithError(delErr).WithField("address_id", address.ID.Hex()).Warn("Failed to remove orphaned address")
			}
		}
		if errors.Is(err, interfaces.ErrDuplicateKey) {
			return nil, newError(ErrConflict, "Email or phone number already registered")
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.WithPartyID(account.ID).WithField("role", role).Info("Account created")
	return s.issueSession(account)
}

func (s *authService) Login(ctx context.Context, req *validators.LoginRequest) (*AuthResponse, error) {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	email := utils.NormalizeEmail(req.Email)
	role := models.Role(req.Role)
	if err := s.verification.Check(ctx, email, models.OTPPurposeLogin, role, req.OTP); err != nil {
		s.logger.LogSecurityEvent("login_otp_rejected", "low", map[string]interface{}{
			"email": utils.MaskEmail(email),
			"role":  role,
		})
		return nil, err
	}

	var account *Account
	if role == models.RoleCollector {
		collector, err := s.collectorRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, s.loginLookupError(err)
		}
		account = accountOf(collector.ID, role, &collector.Profile)
	} else {
		customer, err := s.customerRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, s.loginLookupError(err)
		}
		account = accountOf(customer.ID, role, &customer.Profile)
	}

	s.logger.WithPartyID(account.ID).WithField("role", role).Info("Party logged in")
	return s.issueSession(account)
}

// Active is the session check behind every authenticated request. Party reads
// go through the cache, and deleted accounts are never returned by them.
func (s *authService) Active(ctx context.Context, partyID primitive.ObjectID, role models.Role) (bool, error) {
	var err error
	if role == models.RoleCollector {
		_, err = s.collectorRepo.GetByID(ctx, partyID)
	} else {
		_, err = s.customerRepo.GetByID(ctx, partyID)
	}
	if errors.Is(err, interfaces.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *authService) Me(ctx context.Context, partyID primitive.ObjectID, role models.Role) (*Account, error) {
	if role == models.RoleCollector {
		collector, err := s.collectorRepo.GetByID(ctx, partyID)
		if err != nil {
			return nil, notFound(err, "Raddiwala")
		}
		return accountOf(collector.ID, role, &collector.Profile), nil
	}

	customer, err := s.customerRepo.GetByID(ctx, partyID)
	if err != nil {
		return nil, notFound(err, "Customer")
	}
	return accountOf(customer.ID, role, &customer.Profile), nil
}

func (s *authService) issueSession(account *Account) (*AuthResponse, error) {
	token, expiresAt, err := utils.GenerateToken(account.ID, string(account.Role), s.security.JWTSecret, s.security.JWTTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{Account: account, Token: token, ExpiresAt: expiresAt.Unix()}, nil
}

// emailOwners reports which roles hold an active account for email.
func (s *authService) emailOwners(ctx context.Context, email string) (bool, bool, error) {
	_, err := s.customerRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return false, false, err
	}
	hasCustomer := err == nil

	_, err = s.collectorRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return false, false, err
	}
	return hasCustomer, err == nil, nil
}

func (s *authService) loginLookupError(err error) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return newError(ErrUnauthorized, "User not found or inactive")
	}
	return err
}

func accountOf(id primitive.ObjectID, role models.Role, profile *models.Profile) *Account {
	return &Account{
		ID:             id,
		Name:           profile.Name,
		Email:          profile.Email,
		Phone:          profile.Phone,
		Role:           role,
		ProfilePicture: profile.ProfilePicture,
	}
}
