package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shikshaleap/internal/credentials"
	"shikshaleap/internal/database"
	"shikshaleap/internal/logger"
	"shikshaleap/internal/models"
	"shikshaleap/internal/repository"
	"shikshaleap/internal/security"
)

// errContactTaken signals that another verification created the account
// between our lookup and insert.
var errContactTaken = errors.New("contact already registered")

// AuthOptions tunes OTP issuance
type AuthOptions struct {
	OTPTTL      time.Duration
	SendLimit   int           // codes per contact per SendWindow, 0 disables
	SendWindow  time.Duration
	LockTimeout time.Duration
}

// AuthService handles OTP login
type AuthService struct {
	db       *database.DB
	userRepo *repository.UserRepository
	otpRepo  *repository.OTPRepository
	delivery OTPDelivery
	locker   security.Locker
	opts     AuthOptions
	log      *logger.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(db *database.DB, delivery OTPDelivery, locker security.Locker, opts AuthOptions, log *logger.Logger) *AuthService {
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 10 * time.Second
	}
	return &AuthService{
		db:       db,
		userRepo: repository.NewUserRepository(db),
		otpRepo:  repository.NewOTPRepository(db),
		delivery: delivery,
		locker:   locker,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// IssueOTP generates, stores and delivers a new code for contact. When
// delivery fails the stored record is kept and ErrDeliveryFailed is returned.
func (s *AuthService) IssueOTP(ctx context.Context, contact models.Contact) (*models.OtpRecord, error) {
	now := s.now().UTC()

	if s.opts.SendLimit > 0 {
		recent, err := s.otpRepo.CountForContactSince(ctx, contact.Value, now.Add(-s.opts.SendWindow))
		if err != nil {
			return nil, err
		}
		if recent >= s.opts.SendLimit {
			return nil, ErrRateLimited
		}
	}

	code, err := credentials.GenerateOTPCode()
	if err != nil {
		return nil, err
	}
	hash, err := credentials.HashOTPCode(code)
	if err != nil {
		return nil, err
	}

	otp := &models.OtpRecord{
		Contact:   contact.Value,
		Code:      code,
		CodeHash:  hash,
		ExpiresAt: now.Add(s.opts.OTPTTL),
		CreatedAt: now,
	}
	if err := s.otpRepo.CreateOTP(ctx, otp); err != nil {
		return nil, err
	}

	if err := s.delivery.Deliver(ctx, contact, code, s.opts.OTPTTL); err != nil {
		s.log.Error("OTP delivery failed", "contact", contact.Value, "error", err)
		return otp, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return otp, nil
}

// VerifyOTP consumes a matching code and resolves the account for contact,
// creating a pending student account on first login. A code verifies at most once.
func (s *AuthService) VerifyOTP(ctx context.Context, contact models.Contact, code string) (*models.VerificationResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidOrExpiredCode
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, contact.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to lock contact: %w", err)
	}
	defer unlock()

	result, err := s.verify(ctx, contact, code)
	if errors.Is(err, errContactTaken) {
		// Another instance created the account. Our transaction rolled back,
		// so the code is still unused and the retry finds the account.
		result, err = s.verify(ctx, contact, code)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("OTP verified", "contact", contact.Value, "user_id", result.UserID, "existing", result.Existing)
	return result, nil
}

func (s *AuthService) verify(ctx context.Context, contact models.Contact, code string) (*models.VerificationResult, error) {
	var result *models.VerificationResult
	now := s.now().UTC()

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		otps := s.otpRepo.WithTx(tx)
		users := s.userRepo.WithTx(tx)

		otp, err := otps.GetActiveOTP(ctx, contact.Value, code, now)
		if err != nil {
			return err
		}
		if otp == nil {
			return ErrInvalidOrExpiredCode
		}

		flipped, err := otps.MarkVerified(ctx, otp.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return ErrInvalidOrExpiredCode
		}

		user, err := users.GetUserByContact(ctx, contact.Value)
		if err != nil {
			return err
		}
		if user != nil {
			if !user.IsActive {
				return ErrAccountDisabled
			}
			result = &models.VerificationResult{
				UserID:            user.ID,
				Role:              user.Role,
				Existing:          true,
				NeedsRegistration: user.Role.NeedsRegistration(),
			}
			return nil
		}

		user, err = users.CreateUser(ctx, contact, models.RolePendingStudent, now)
		if err != nil {
			if tx.GetDialect().IsUniqueViolation(err) {
				return errContactTaken
			}
			return err
		}
		result = &models.VerificationResult{
			UserID:            user.ID,
			Role:              user.Role,
			Existing:          false,
			NeedsRegistration: true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PruneOTPs deletes codes that expired more than retention ago
func (s *AuthService) PruneOTPs(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	deleted, err := s.otpRepo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("pruned expired OTPs", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}

// CurrentUser loads the account behind a session. Disabled accounts yield ErrAccountDisabled.
func (s *AuthService) CurrentUser(ctx context.Context, p models.Principal) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// SetAccountActive enables or disables the account registered under contact.
// Disabled accounts cannot log in and their sessions are rejected.
func (s *AuthService) SetAccountActive(ctx context.Context, contact models.Contact, active bool) error {
	user, err := s.userRepo.GetUserByContact(ctx, contact.Value)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if _, err := s.userRepo.SetActive(ctx, user.ID, active, s.now().UTC()); err != nil {
		return err
	}
	s.log.Info("account status changed", "contact", contact.Value, "user_id", user.ID, "active", active)
	return nil
}
