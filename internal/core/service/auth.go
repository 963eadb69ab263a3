package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"tasklist/internal/core/domain"
	"tasklist/internal/core/port"
	tel "tasklist/internal/core/telemetry"
	"tasklist/internal/core/validation"
)

const TokenTypeBearer = "bearer"

// AuthService is the user directory: it registers accounts and checks
// credentials.
type AuthService struct {
	users     port.UserRepository
	hasher    port.PasswordHasher
	tokens    port.TokenService
	tokenTTL  time.Duration
	telemetry port.Telemetry
	logger    *otelzap.Logger
}

func NewAuthService(users port.UserRepository, hasher port.PasswordHasher, tokens port.TokenService, tokenTTL time.Duration, telemetry port.Telemetry, logger *otelzap.Logger) *AuthService {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}

	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		tokenTTL:  tokenTTL,
		telemetry: telemetry,
		logger:    logger,
	}
}

func (s *AuthService) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "auth", "Register", 0, nil)
	defer span.End()

	if err := validation.Validate(reg); err != nil {
		return domain.User{}, err
	}

	if err := s.ensureAvailable(ctx, s.users.GetByUsername, reg.Username, domain.FieldUsername); err != nil {
		return domain.User{}, err
	}

	if err := s.ensureAvailable(ctx, s.users.GetByPhoneNumber, reg.PhoneNumber, domain.FieldPhoneNumber); err != nil {
		return domain.User{}, err
	}

	encrypted, err := s.hasher.Hash(reg.Password)

	if err != nil {
		return domain.User{}, err
	}

	phone := reg.PhoneNumber

	user, err := s.users.Create(ctx, domain.User{
		Username:     reg.Username,
		PhoneNumber:  &phone,
		PasswordHash: encrypted,
	})

	if err != nil {
		span.RecordError(err)
		return domain.User{}, err
	}

	s.telemetry.RecordBusinessEvent(ctx, "registered", "user", strconv.FormatInt(user.ID, 10), user.ID, nil)

	user.PasswordHash = ""

	return user, nil
}

func (s *AuthService) ensureAvailable(ctx context.Context, lookup func(context.Context, string) (domain.User, error), value, field string) error {
	_, err := lookup(ctx, value)

	switch {
	case err == nil:
		return domain.NewConflict(field)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

// Authenticate returns domain.ErrUnauthorized for both an unknown username
// and a wrong password.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	ctx, span := s.telemetry.StartServiceSpan(ctx, "auth", "Authenticate", 0, nil)
	defer span.End()

	user, err := s.users.GetByUsername(ctx, username)

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			s.telemetry.RecordBusinessEvent(ctx, "authentication_failed", "user", "", 0, nil)
			return domain.User{}, domain.ErrUnauthorized
		}

		span.RecordError(err)
		return domain.User{}, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.telemetry.RecordBusinessEvent(ctx, "authentication_failed", "user", "", 0, nil)
		return domain.User{}, domain.ErrUnauthorized
	}

	user.PasswordHash = ""

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (port.AccessToken, error) {
	user, err := s.Authenticate(ctx, username, password)

	if err != nil {
		return port.AccessToken{}, err
	}

	token, err := s.tokens.Issue(user.Username, s.tokenTTL)

	if err != nil {
		s.logger.Ctx(ctx).Error("Failed to sign access token", zap.Int64("user_id", user.ID), zap.Error(err))
		return port.AccessToken{}, err
	}

	s.telemetry.RecordBusinessEvent(ctx, "logged_in", "user", strconv.FormatInt(user.ID, 10), user.ID, nil)

	return port.AccessToken{Token: token, TokenType: TokenTypeBearer}, nil
}
