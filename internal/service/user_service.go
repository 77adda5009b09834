package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// MsgUserUpdated confirms a self-update.
const MsgUserUpdated = "User updated successfully."

// SearchCache caches search projections by filter. Get reports the cache
// generation it read; Set must write under that same generation so a result
// computed before an invalidation is never served after it.
type SearchCache interface {
	Get(ctx context.Context, filter string) ([]domain.UserProjection, int64, bool, error)
	Set(ctx context.Context, gen int64, filter string, users []domain.UserProjection) error
}

// UserService serves operations on an existing user.
type UserService struct {
	users      repository.UserRepository
	accounts   repository.AccountRepository
	cache      SearchCache
	events     events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// UserDependencies encapsulates requirements for the user service.
type UserDependencies struct {
	UserRepo    repository.UserRepository
	AccountRepo repository.AccountRepository
	// SearchCache is optional.
	SearchCache SearchCache
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:      deps.UserRepo,
		accounts:   deps.AccountRepo,
		cache:      deps.SearchCache,
		events:     deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Update applies a partial update to the subject's own record.
func (s *UserService) Update(ctx context.Context, subjectID string, in UpdateInput) error {
	if err := in.Validate(); err != nil {
		return invalidInput(MsgInvalidUpdate, err)
	}

	patch := domain.UserPatch{FirstName: in.FirstName, LastName: in.LastName}
	fields := make([]string, 0, 3)
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return apperrors.NewValidationError(MsgInvalidUpdate, map[string]any{"password": "is too long"})
			}
			return apperrors.NewDependencyError(err)
		}
		patch.PasswordHash = &hash
		fields = append(fields, "password")
	}
	if in.FirstName != nil {
		fields = append(fields, "firstName")
	}
	if in.LastName != nil {
		fields = append(fields, "lastName")
	}

	if err := s.users.Update(ctx, subjectID, patch); err != nil {
		return apperrors.NewDependencyError(err)
	}

	if !patch.Empty() {
		publishEvent(ctx, s.events, s.logger, events.Event{
			Type:    events.EventUserUpdated,
			UserID:  subjectID,
			Payload: events.UserUpdatedPayload{Fields: fields},
		})
	}
	return nil
}

// Search returns users whose first or last name contains filter, ignoring
// case. It is unauthenticated and never returns password hashes.
func (s *UserService) Search(ctx context.Context, filter string) ([]domain.UserProjection, error) {
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		cached, g, ok, err := s.cache.Get(ctx, filter)
		switch {
		case err != nil:
			s.logger.Warn("search cache read failed", zap.Error(err))
		case ok:
			return cached, nil
		default:
			gen, cacheable = g, true
		}
	}

	users, err := s.users.Search(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDependencyError(err)
	}

	out := make([]domain.UserProjection, 0, len(users))
	for i := range users {
		out = append(out, users[i].Project())
	}

	if cacheable {
		if err := s.cache.Set(ctx, gen, filter, out); err != nil {
			s.logger.Warn("search cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

// Balance returns the account bound to the subject.
func (s *UserService) Balance(ctx context.Context, subjectID string) (*domain.Account, error) {
	account, err := s.accounts.GetByUserID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("account")
		}
		return nil, apperrors.NewDependencyError(err)
	}
	return account, nil
}
