package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raddiwala/internal/config"
	"raddiwala/internal/models"
	"raddiwala/internal/repositories/interfaces"
	"raddiwala/internal/utils"
	"raddiwala/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

// VerificationService issues and checks short lived one-time codes bound to
// an (email, purpose, role) key. Only the latest issued code for a key is live.
type VerificationService interface {
	Issue(ctx context.Context, email string, purpose models.OTPPurpose, role models.Role) (string, error)
	Check(ctx context.Context, email string, purpose models.OTPPurpose, role models.Role, code string) error
}

// RateLimiter counts events per key inside a window. Satisfied by CacheService.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

type verificationService struct {
	otpRepo  interfaces.OTPRepository
	limiter  RateLimiter
	security *config.SecurityConfig
	logger   *logger.Logger
	hashCost int
	now      func() time.Time
}

// NewVerificationService builds the service. limiter may be nil, which disables rate limiting.
func NewVerificationService(
	otpRepo interfaces.OTPRepository,
	limiter RateLimiter,
	security *config.SecurityConfig,
	logger *logger.Logger,
) VerificationService {
	return &verificationService{
		otpRepo:  otpRepo,
		limiter:  limiter,
		security: security,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

func (s *verificationService) Issue(ctx context.Context, email string, purpose models.OTPPurpose, role models.Role) (string, error) {
	if err := s.checkRate(ctx, email); err != nil {
		return "", err
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash otp: %w", err)
	}

	if err := s.otpRepo.DeleteOutstanding(ctx, email, purpose, role); err != nil {
		return "", err
	}

	now := s.now()
	otp := &models.OneTimeCode{
		Email:     email,
		CodeHash:  string(hash),
		Purpose:   purpose,
		Role:      role,
		ExpiresAt: now.Add(s.security.OTPExpiry),
		CreatedAt: now,
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		return "", err
	}

	return code, nil
}

func (s *verificationService) Check(ctx context.Context, email string, purpose models.OTPPurpose, role models.Role, code string) error {
	otp, err := s.otpRepo.FindLatest(ctx, email, purpose, role)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return newError(ErrInvalidCode, "Invalid or expired OTP")
		}
		return err
	}

	if otp.IsUsed {
		return newError(ErrAlreadyUsed, "OTP already used")
	}
	if s.now().After(otp.ExpiresAt) {
		return newError(ErrExpired, "OTP has expired")
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		s.logger.LogSecurityEvent("otp_mismatch", "low", map[string]interface{}{
			"email":   utils.MaskEmail(email),
			"purpose": purpose,
		})
		return newError(ErrInvalidCode, "Invalid OTP")
	}

	if err := s.otpRepo.MarkUsed(ctx, otp.ID); err != nil {
		if errors.Is(err, interfaces.ErrStaleState) {
			return newError(ErrAlreadyUsed, "OTP already used")
		}
		return err
	}
	return nil
}

func (s *verificationService) checkRate(ctx context.Context, email string) error {
	if s.limiter == nil || s.security.OTPRateLimit <= 0 {
		return nil
	}

	result, err := s.limiter.CheckRateLimit(ctx, "otp:"+email, int64(s.security.OTPRateLimit), s.security.OTPRateWindow)
	if err != nil {
		s.logger.WithError(err).Warn("OTP rate limiter unavailable")
		return nil
	}
	if !result.Allowed {
		return newError(ErrRateLimited, "Too many OTP requests, try again later")
	}
	return nil
}
