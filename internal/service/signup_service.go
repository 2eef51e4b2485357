package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/planewx/waitlist-api/internal/models"
	"github.com/planewx/waitlist-api/internal/repository"
	appErrors "github.com/planewx/waitlist-api/pkg/errors"
)

type waitlistCreator interface {
	Create(ctx context.Context, entry *models.WaitlistEntry) error
}

type signupNotifier interface {
	SendSignupNotification(ctx context.Context, signupEmail string) error
}

// JoinRequest is the public signup payload.
type JoinRequest struct {
	Email            string `json:"email"`
	HomeAirport      string `json:"home_airport"`
	XCFlightsPerWeek string `json:"xc_flights_per_week"`
	ReferralCode     string `json:"referral_code"`
}

// SignupService validates and stores public waitlist signups.
type SignupService struct {
	repo      waitlistCreator
	notifier  signupNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSignupService creates an instance of SignupService.
func NewSignupService(repo waitlistCreator, notifier signupNotifier, validate *validator.Validate, logger *zap.Logger) *SignupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SignupService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// Home airports are a loose ICAO shape check, not a registry lookup.
var airportPattern = regexp.MustCompile(`^[A-Z]{3,4}$`)

// Join normalizes and persists a signup. Bad input yields a validation
// error; an existing normalized email yields the distinct duplicate error.
func (s *SignupService) Join(ctx context.Context, req JoinRequest) (*models.WaitlistEntry, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email is required")
	}
	if err := s.validator.Var(email, "email"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid email format")
	}

	entry := &models.WaitlistEntry{
		Email:  email,
		Status: models.StatusPending,
	}

	if req.XCFlightsPerWeek != "" {
		freq := models.XCFrequency(req.XCFlightsPerWeek)
		if !models.ValidXCFrequency(freq) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid XC flights option")
		}
		entry.XCFlightsPerWeek = &freq
	}

	if airport := strings.ToUpper(strings.TrimSpace(req.HomeAirport)); airport != "" {
		if !airportPattern.MatchString(airport) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "home airport must be a valid ICAO code (3-4 letters)")
		}
		entry.HomeAirport = &airport
	}

	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		entry.ReferralCode = &code
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, appErrors.ErrDuplicateEmail
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to join waitlist")
	}

	s.notifyAdmin(entry.Email)

	return entry, nil
}

// notifyAdmin fires the signup notification without blocking or failing the
// signup. The send runs on its own context: the HTTP request that triggered
// it has usually completed by the time the provider answers.
func (s *SignupService) notifyAdmin(email string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.notifier.SendSignupNotification(ctx, email); err != nil {
			s.logger.Warn("signup notification failed", zap.String("email", email), zap.Error(err))
		}
	}()
}
