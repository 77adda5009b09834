package service

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// Messages returned by the auth flows.
const (
	MsgUserExists         = "User already exists!"
	MsgInvalidCredentials = "Invalid username or password."
)

// dummyPassword is hashed once at startup and compared against when the
// username is unknown, so both signin failure paths cost one bcrypt compare.
const dummyPassword = "account-service-timing-equalizer"

// AuthService coordinates signup and signin flows.
type AuthService struct {
	users      repository.UserRepository
	accounts   repository.AccountRepository
	tokenMgr   *auth.TokenManager
	events     events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	dummyHash  string
	balance    func() float64
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	AccountRepo repository.AccountRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	// BalanceSource overrides the initial balance draw; nil uses a uniform draw.
	BalanceSource func() float64
}

// SignupResult is returned by a successful signup.
type SignupResult struct {
	User    *domain.User
	Account *domain.Account
	Token   string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	dummyHash, err := auth.HashPassword(dummyPassword, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	balance := deps.BalanceSource
	if balance == nil {
		balance = randomInitialBalance
	}
	return &AuthService{
		users:      deps.UserRepo,
		accounts:   deps.AccountRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret),
		events:     deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		dummyHash:  dummyHash,
		balance:    balance,
	}, nil
}

// Signup creates a user and its account and returns a token for the user.
// Validation and conflict failures happen before any write.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	if err := in.Validate(); err != nil {
		return nil, invalidInput(MsgInvalidSignup, err)
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperrors.NewConflict(MsgUserExists, nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewDependencyError(err)
	}

	hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError(MsgInvalidSignup, map[string]any{"password": "is too long"})
		}
		return nil, apperrors.NewDependencyError(err)
	}

	user := &domain.User{
		Username:     in.Username,
		FirstName:    *in.FirstName,
		LastName:     *in.LastName,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, apperrors.NewConflict(MsgUserExists, nil)
		}
		return nil, apperrors.NewDependencyError(err)
	}

	account := &domain.Account{UserID: user.ID, Balance: s.balance()}
	if err := s.accounts.Create(ctx, account); err != nil {
		s.logger.Error("user created without account",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, apperrors.NewAccountProvisioningError(user.ID, err)
	}

	token, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return nil, apperrors.NewDependencyError(err)
	}

	s.publish(ctx, events.Event{Type: events.EventUserRegistered, UserID: user.ID})
	return &SignupResult{User: user, Account: account, Token: token}, nil
}

// Signin checks credentials and returns a token. Unknown usernames and wrong
// passwords produce the same error.
func (s *AuthService) Signin(ctx context.Context, in SigninInput) (string, error) {
	if err := in.Validate(); err != nil {
		return "", invalidInput(MsgInvalidSignin, err)
	}

	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = auth.ComparePassword(s.dummyHash, *in.Password)
			return "", apperrors.NewUnauthenticated(MsgInvalidCredentials)
		}
		return "", apperrors.NewDependencyError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, *in.Password); err != nil {
		return "", apperrors.NewUnauthenticated(MsgInvalidCredentials)
	}

	token, err := s.tokenMgr.GenerateToken(user.ID)
	if err != nil {
		return "", apperrors.NewDependencyError(err)
	}
	return token, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.events, s.logger, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func randomInitialBalance() float64 {
	b := domain.InitialBalanceMin + rand.Float64()*(domain.InitialBalanceMax-domain.InitialBalanceMin)
	if b >= domain.InitialBalanceMax {
		b = math.Nextafter(domain.InitialBalanceMax, domain.InitialBalanceMin)
	}
	return b
}
