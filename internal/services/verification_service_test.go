package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"raddiwala/internal/config"
	"raddiwala/internal/models"
	"raddiwala/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

func newTestLimiter(redis *memoryRedis) RateLimiter {
	return NewCacheService(redis, logger.NewNop(), "raddiwala", time.Minute)
}

func newTestVerification(otps *fakeOTPs, limiter RateLimiter) *verificationService {
	security := &config.SecurityConfig{
		OTPExpiry:     10 * time.Minute,
		OTPRateLimit:  3,
		OTPRateWindow: 15 * time.Minute,
	}
	svc := NewVerificationService(otps, limiter, security, logger.NewNop()).(*verificationService)
	svc.hashCost = bcrypt.MinCost
	svc.now = fixedClock
	return svc
}

func TestVerificationIssueAndCheck(t *testing.T) {
	ctx := context.Background()
	otps := &fakeOTPs{}
	svc := newTestVerification(otps, nil)

	code, err := svc.Issue(ctx, "asha@example.com", models.OTPPurposeSignup, models.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if len(code) != 4 || code[0] == '0' {
		t.Errorf("code = %q, want four digits without a leading zero", code)
	}
	if otps.codes[0].CodeHash == code {
		t.Error("code must not be stored in plain text")
	}

	if err := svc.Check(ctx, "asha@example.com", models.OTPPurposeSignup, models.RoleCustomer, code); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if err := svc.Check(ctx, "asha@example.com", models.OTPPurposeSignup, models.RoleCustomer, code); !errors.Is(err, ErrAlreadyUsed) {
		t.Errorf("second Check() error = %v, want ErrAlreadyUsed", err)
	}
}

func TestVerificationCheckFailures(t *testing.T) {
	ctx := context.Background()
	email := "ravi@example.com"

	t.Run("no code issued", func(t *testing.T) {
		svc := newTestVerification(&fakeOTPs{}, nil)
		err := svc.Check(ctx, email, models.OTPPurposeLogin, models.RoleCollector, "1234")
		if !errors.Is(err, ErrInvalidCode) {
			t.Errorf("Check() error = %v, want ErrInvalidCode", err)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		otps := &fakeOTPs{}
		svc := newTestVerification(otps, nil)
		code, _ := svc.Issue(ctx, email, models.OTPPurposeLogin, models.RoleCollector)
		wrong := "1000"
		if code == wrong {
			wrong = "1001"
		}
		if err := svc.Check(ctx, email, models.OTPPurposeLogin, models.RoleCollector, wrong); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("Check() error = %v, want ErrInvalidCode", err)
		}
		if otps.codes[0].IsUsed {
			t.Error("a wrong code must not consume the otp")
		}
	})

	t.Run("expired", func(t *testing.T) {
		svc := newTestVerification(&fakeOTPs{}, nil)
		code, _ := svc.Issue(ctx, email, models.OTPPurposeLogin, models.RoleCollector)
		svc.now = func() time.Time { return testNow.Add(11 * time.Minute) }
		if err := svc.Check(ctx, email, models.OTPPurposeLogin, models.RoleCollector, code); !errors.Is(err, ErrExpired) {
			t.Errorf("Check() error = %v, want ErrExpired", err)
		}
	})

	t.Run("other role", func(t *testing.T) {
		svc := newTestVerification(&fakeOTPs{}, nil)
		code, _ := svc.Issue(ctx, email, models.OTPPurposeLogin, models.RoleCollector)
		if err := svc.Check(ctx, email, models.OTPPurposeLogin, models.RoleCustomer, code); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("Check() error = %v, want ErrInvalidCode", err)
		}
	})

	t.Run("superseded", func(t *testing.T) {
		svc := newTestVerification(&fakeOTPs{}, nil)
		first, _ := svc.Issue(ctx, email, models.OTPPurposeLogin, models.RoleCollector)
		second, _ := svc.Issue(ctx, email, models.OTPPurposeLogin, models.RoleCollector)
		if first == second {
			t.Skip("both codes collided")
		}
		if err := svc.Check(ctx, email, models.OTPPurposeLogin, models.RoleCollector, first); !errors.Is(err, ErrInvalidCode) {
			t.Errorf("Check(first) error = %v, want ErrInvalidCode", err)
		}
		if err := svc.Check(ctx, email, models.OTPPurposeLogin, models.RoleCollector, second); err != nil {
			t.Errorf("Check(second) error = %v", err)
		}
	})
}

func TestVerificationRateLimit(t *testing.T) {
	ctx := context.Background()
	svc := newTestVerification(&fakeOTPs{}, newTestLimiter(&memoryRedis{}))

	for i := 0; i < 3; i++ {
		if _, err := svc.Issue(ctx, "asha@example.com", models.OTPPurposeLogin, models.RoleCustomer); err != nil {
			t.Fatalf("Issue() #%d error = %v", i+1, err)
		}
	}
	if _, err := svc.Issue(ctx, "asha@example.com", models.OTPPurposeLogin, models.RoleCustomer); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Issue() #4 error = %v, want ErrRateLimited", err)
	}
	if _, err := svc.Issue(ctx, "ravi@example.com", models.OTPPurposeLogin, models.RoleCustomer); err != nil {
		t.Errorf("Issue() for another email error = %v", err)
	}
}

func TestVerificationLimiterOutage(t *testing.T) {
	svc := newTestVerification(&fakeOTPs{}, newTestLimiter(&memoryRedis{err: errors.New("redis down")}))
	if _, err := svc.Issue(context.Background(), "asha@example.com", models.OTPPurposeLogin, models.RoleCustomer); err != nil {
		t.Fatalf("Issue() error = %v, want the request to go through", err)
	}
}
