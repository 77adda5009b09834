package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/account-service/internal/domain"
)

type memoryUserRepository struct {
	mu         sync.RWMutex
	order      []string
	byID       map[string]*domain.User
	byUsername map[string]string
}

// NewMemoryUserRepository returns a process-local implementation used when no
// Postgres DSN is configured.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return ErrDuplicateUsername
	}

	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[stored.ID] = &stored
	r.byUsername[stored.Username] = stored.ID
	r.order = append(r.order, stored.ID)
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

func (r *memoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r.byID[id]
	return &out, nil
}

func (r *memoryUserRepository) Update(_ context.Context, id string, patch domain.UserPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok || patch.Empty() {
		return nil
	}
	patch.Apply(user)
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryUserRepository) Search(_ context.Context, filter string) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(filter)
	users := make([]domain.User, 0)
	for _, id := range r.order {
		user := r.byID[id]
		if strings.Contains(strings.ToLower(user.FirstName), needle) ||
			strings.Contains(strings.ToLower(user.LastName), needle) {
			users = append(users, *user)
		}
	}
	return users, nil
}

type memoryAccountRepository struct {
	mu       sync.RWMutex
	byUserID map[string]*domain.Account
}

// NewMemoryAccountRepository returns a process-local account store.
func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccountRepository{byUserID: make(map[string]*domain.Account)}
}

func (r *memoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUserID[account.UserID]; exists {
		return ErrDuplicateAccount
	}
	account.ID = uuid.NewString()
	account.CreatedAt = time.Now().UTC()
	stored := *account
	r.byUserID[stored.UserID] = &stored
	return nil
}

func (r *memoryAccountRepository) GetByUserID(_ context.Context, userID string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byUserID[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *account
	return &out, nil
}
