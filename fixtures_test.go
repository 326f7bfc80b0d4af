package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/goliatone/go-storefront-auth/migrations"
	"github.com/goliatone/go-storefront-auth/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const testSigningKey = "test-signing-key-0123456789"

type testStore struct {
	db       *bun.DB
	repo     auth.RepositoryManager
	hasher   *auth.BcryptHasher
	products []*auth.Product
}

// newTestStore opens a migrated in-memory database seeded with products
func newTestStore(t *testing.T) *testStore {
	t.Helper()
	ctx := context.Background()

	db, err := persistence.Open(ctx, persistence.MemoryDSN, persistence.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = persistence.Close(db) })

	_, err = migrations.Run(ctx, db)
	require.NoError(t, err)

	price := 499.0
	products := []*auth.Product{
		{ModelName: "Trail Runner 2", Price: &price, ImagePath: "/img/trail-runner-2.png"},
		{ModelName: "City Walker"},
		{ModelName: "Court Classic"},
	}
	_, err = db.NewInsert().Model(&products).Exec(ctx)
	require.NoError(t, err)

	return &testStore{
		db:       db,
		repo:     auth.NewRepositoryManager(db),
		hasher:   auth.NewBcryptHasher(bcrypt.MinCost),
		products: products,
	}
}

// createUser stores a user with the given role and password, an empty
// password leaves the account without a credential
func (s *testStore) createUser(t *testing.T, name, email, role, password string) *auth.User {
	t.Helper()
	ctx := context.Background()

	roleID, err := s.repo.Users().RoleIDByName(ctx, role)
	require.NoError(t, err)

	user := &auth.User{FullName: name, Email: email, RoleID: roleID}
	if password != "" {
		hash, err := s.hasher.Hash(password)
		require.NoError(t, err)
		user.PasswordHash = hash
	}

	created, err := s.repo.Users().InsertUser(ctx, user)
	require.NoError(t, err)
	return created
}

func principalFor(user *auth.User, role string) auth.Principal {
	return auth.Principal{
		UserID:      user.ID,
		Role:        role,
		Email:       user.Email,
		DisplayName: user.FullName,
	}
}

func newTestTokens(t *testing.T, opts ...auth.TokenOption) *auth.TokenServiceImpl {
	t.Helper()
	tokens, err := auth.NewTokenService([]byte(testSigningKey), opts...)
	require.NoError(t, err)
	return tokens
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) ofType(eventType auth.ActivityEventType) []auth.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []auth.ActivityEvent{}
	for _, e := range r.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func ptr[T any](v T) *T { return &v }

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
