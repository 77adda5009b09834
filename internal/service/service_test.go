package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
)

// --- helpers ---

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", BcryptCost: bcrypt.MinCost}}
}

type fixture struct {
	users      repository.UserRepository
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
	auth       *AuthService
	svc        *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, repository.NewMemoryUserRepository(), repository.NewMemoryAccountRepository(), nil)
}

func newFixtureWith(t *testing.T, users repository.UserRepository, accounts repository.AccountRepository, cache SearchCache) *fixture {
	t.Helper()
	cfg := testConfig()
	dispatcher := events.NewInMemoryDispatcher()

	authSvc, err := NewAuthService(cfg, AuthDependencies{
		UserRepo:    users,
		AccountRepo: accounts,
		Dispatcher:  dispatcher,
	})
	require.NoError(t, err)

	userSvc := NewUserService(cfg, UserDependencies{
		UserRepo:    users,
		AccountRepo: accounts,
		SearchCache: cache,
		Dispatcher:  dispatcher,
	})
	return &fixture{users: users, accounts: accounts, dispatcher: dispatcher, auth: authSvc, svc: userSvc}
}

func validSignup() SignupInput {
	return SignupInput{Username: "a@example.com", FirstName: strPtr("A"), LastName: strPtr("B"), Password: strPtr("pw1")}
}

func strPtr(s string) *string { return &s }

// failingAccounts fails every account insert.
type failingAccounts struct {
	repository.AccountRepository
	err error
}

func (f failingAccounts) Create(context.Context, *domain.Account) error { return f.err }

// brokenUsers fails every call; writes counts write attempts.
type brokenUsers struct {
	err    error
	writes int
}

func (b *brokenUsers) Create(context.Context, *domain.User) error {
	b.writes++
	return b.err
}
func (b *brokenUsers) GetByID(context.Context, string) (*domain.User, error) { return nil, b.err }
func (b *brokenUsers) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, b.err
}
func (b *brokenUsers) Update(context.Context, string, domain.UserPatch) error {
	b.writes++
	return b.err
}
func (b *brokenUsers) Search(context.Context, string) ([]domain.User, error) { return nil, b.err }

// countingUsers wraps a repository and counts calls that reach the store.
type countingUsers struct {
	repository.UserRepository
	calls int
}

func (c *countingUsers) Create(ctx context.Context, u *domain.User) error {
	c.calls++
	return c.UserRepository.Create(ctx, u)
}

func (c *countingUsers) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	c.calls++
	return c.UserRepository.GetByUsername(ctx, username)
}

var errStore = errors.New("store unavailable")
