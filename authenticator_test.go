package auth_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type accountsFixture struct {
	*testStore
	tokens *auth.TokenServiceImpl
	sink   *recordingSink
	auther *auth.Auther
}

func newAccountsFixture(t *testing.T, opts ...auth.AutherOption) *accountsFixture {
	t.Helper()

	store := newTestStore(t)
	tokens := newTestTokens(t)
	sink := &recordingSink{}

	opts = append([]auth.AutherOption{
		auth.WithPasswordHasher(store.hasher),
		auth.WithAutherActivitySink(sink),
		auth.WithAutherLogger(nopLogger{}),
	}, opts...)

	return &accountsFixture{
		testStore: store,
		tokens:    tokens,
		sink:      sink,
		auther:    auth.NewAuthenticator(store.repo, tokens, opts...),
	}
}

func TestRegister(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()

	res, err := f.auther.Register(ctx, auth.RegisterUserMessage{
		FullName: "  Ajdin Zahirović ",
		Email:    " Ajdin@Example.COM ",
		Password: "secret1",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.UserID)
	assert.Equal(t, "Ajdin Zahirović", res.FullName)
	assert.Equal(t, "ajdin@example.com", res.Email)
	assert.Equal(t, auth.RoleUser, res.Role)
	require.NotEmpty(t, res.Token)

	claims, err := f.tokens.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.UserID.String(), claims.UserID())
	assert.Equal(t, auth.RoleUser, claims.Role())
	assert.Equal(t, "ajdin@example.com", claims.Email())
	assert.Equal(t, "Ajdin Zahirović", claims.DisplayName())

	stored, err := f.repo.Users().FindUserByEmail(ctx, "ajdin@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2a$"))
	require.NotNil(t, stored.RoleID)

	assert.Len(t, f.sink.ofType(auth.ActivityEventUserRegistered), 1)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()

	_, err := f.auther.Register(ctx, auth.RegisterUserMessage{FullName: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.auther.Register(ctx, auth.RegisterUserMessage{FullName: "Ada Two", Email: "ADA@example.com ", Password: "secret2"})
	require.Error(t, err)
	assert.True(t, auth.IsConflict(err))
	assert.True(t, auth.HasTextCode(err, auth.ErrEmailTaken))
}

func TestRegisterValidation(t *testing.T) {
	f := newAccountsFixture(t)

	tests := []struct {
		name string
		msg  auth.RegisterUserMessage
	}{
		{"missing name", auth.RegisterUserMessage{FullName: "  ", Email: "a@example.com", Password: "secret1"}},
		{"missing email", auth.RegisterUserMessage{FullName: "Ada", Password: "secret1"}},
		{"bad email", auth.RegisterUserMessage{FullName: "Ada", Email: "not-an-email", Password: "secret1"}},
		{"short password", auth.RegisterUserMessage{FullName: "Ada", Email: "a@example.com", Password: "12345"}},
		{"password over bcrypt limit", auth.RegisterUserMessage{FullName: "Ada", Email: "a@example.com", Password: strings.Repeat("x", 80)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auther.Register(context.Background(), tt.msg)
			require.Error(t, err)
			assert.True(t, auth.IsValidation(err))
			assert.Equal(t, http.StatusBadRequest, auth.StatusForError(err))
		})
	}
}

func TestRegisterWithHashedIDs(t *testing.T) {
	f := newAccountsFixture(t, auth.WithHashedUserIDs(true))
	other := newAccountsFixture(t, auth.WithHashedUserIDs(true))

	first, err := f.auther.Register(context.Background(), auth.RegisterUserMessage{
		FullName: "Ada", Email: "ada@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	second, err := other.auther.Register(context.Background(), auth.RegisterUserMessage{
		FullName: "Ada", Email: "Ada@Example.com", Password: "secret1",
	})
	require.NoError(t, err)

	assert.Equal(t, first.UserID, second.UserID)
}

func TestRegisterWithHashedIDsAfterEmailChange(t *testing.T) {
	f := newAccountsFixture(t, auth.WithHashedUserIDs(true))
	ctx := context.Background()

	first, err := f.auther.Register(ctx, auth.RegisterUserMessage{
		FullName: "Ada", Email: "ada@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	ada, err := f.repo.Users().FindUserByID(ctx, first.UserID)
	require.NoError(t, err)
	_, err = f.auther.UpdateProfile(ctx, principalFor(ada, auth.RoleUser), ada.ID, auth.UpdateProfileMessage{
		Email: ptr("ada.l@example.com"),
	})
	require.NoError(t, err)

	second, err := f.auther.Register(ctx, auth.RegisterUserMessage{
		FullName: "Another Ada", Email: "ada@example.com", Password: "secret2",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.UserID, second.UserID)
	assert.Equal(t, "ada@example.com", second.Email)

	moved, err := f.repo.Users().FindUserByID(ctx, first.UserID)
	require.NoError(t, err)
	assert.Equal(t, "ada.l@example.com", moved.Email)
}

func TestLogin(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	user := f.createUser(t, "Ada Lovelace", "ada@example.com", auth.RoleAdmin, "secret1")

	t.Run("success", func(t *testing.T) {
		res, err := f.auther.Login(ctx, auth.LoginMessage{Email: " ADA@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, res.UserID)
		assert.Equal(t, auth.RoleAdmin, res.Role)

		claims, err := f.tokens.Validate(res.Token)
		require.NoError(t, err)
		assert.True(t, claims.HasRole(auth.RoleAdmin))
		assert.Len(t, f.sink.ofType(auth.ActivityEventLoginSuccess), 1)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auther.Login(ctx, auth.LoginMessage{Email: "ada@example.com", Password: "secret2"})
		require.Error(t, err)
		assert.True(t, auth.HasTextCode(err, auth.ErrInvalidCredentials))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.auther.Login(ctx, auth.LoginMessage{Email: "nobody@example.com", Password: "secret1"})
		require.Error(t, err)
		assert.True(t, auth.HasTextCode(err, auth.ErrInvalidCredentials))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.auther.Login(ctx, auth.LoginMessage{Email: "ada@example.com"})
		require.Error(t, err)
		assert.True(t, auth.IsValidation(err))
	})

	failures := f.sink.ofType(auth.ActivityEventLoginFailure)
	require.Len(t, failures, 2)
	assert.Equal(t, "password mismatch", failures[0].Metadata["reason"])
	assert.Equal(t, "unknown email", failures[1].Metadata["reason"])
}

func TestLoginWithoutCredential(t *testing.T) {
	f := newAccountsFixture(t)
	f.createUser(t, "Legacy User", "legacy@example.com", auth.RoleUser, "")

	_, err := f.auther.Login(context.Background(), auth.LoginMessage{Email: "legacy@example.com", Password: "whatever"})
	require.Error(t, err)
	assert.True(t, auth.HasTextCode(err, auth.ErrNoCredentialSet))
	assert.False(t, auth.HasTextCode(err, auth.ErrInvalidCredentials))
}

func TestLoginRehashesWeakHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := store.createUser(t, "Ada", "ada@example.com", auth.RoleUser, "secret1")

	sink := &recordingSink{}
	stronger := auth.NewBcryptHasher(bcrypt.MinCost + 1)
	auther := auth.NewAuthenticator(store.repo, newTestTokens(t),
		auth.WithPasswordHasher(stronger),
		auth.WithAutherActivitySink(sink),
		auth.WithAutherLogger(nopLogger{}),
	)

	_, err := auther.Login(ctx, auth.LoginMessage{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	stored, err := store.repo.Users().FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
	assert.Len(t, sink.ofType(auth.ActivityEventPasswordRehashed), 1)

	_, err = auther.Login(ctx, auth.LoginMessage{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Len(t, sink.ofType(auth.ActivityEventPasswordRehashed), 1)
}

func TestMe(t *testing.T) {
	f := newAccountsFixture(t)
	user := f.createUser(t, "Ada", "ada@example.com", auth.RoleUser, "secret1")

	profile, err := f.auther.Me(context.Background(), principalFor(user, auth.RoleUser))
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.UserID)
	assert.Equal(t, auth.RoleUser, profile.RoleName)

	_, err = f.auther.Me(context.Background(), auth.Anonymous)
	assert.True(t, auth.IsUnauthenticated(err))

	ghost := auth.Principal{UserID: uuid.New(), Role: auth.RoleUser}
	_, err = f.auther.Me(context.Background(), ghost)
	assert.True(t, auth.IsNotFound(err))
}

func TestUpdateProfile(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	ada := f.createUser(t, "Ada", "ada@example.com", auth.RoleUser, "secret1")
	grace := f.createUser(t, "Grace", "grace@example.com", auth.RoleUser, "secret1")
	admin := f.createUser(t, "Root", "root@example.com", auth.RoleAdmin, "secret1")

	t.Run("owner updates", func(t *testing.T) {
		profile, err := f.auther.UpdateProfile(ctx, principalFor(ada, auth.RoleUser), ada.ID, auth.UpdateProfileMessage{
			FullName: ptr("Ada Lovelace"),
			Email:    ptr(" ADA.L@example.com "),
		})
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", profile.FullName)
		assert.Equal(t, "ada.l@example.com", profile.Email)
	})

	t.Run("blank values are ignored", func(t *testing.T) {
		profile, err := f.auther.UpdateProfile(ctx, principalFor(ada, auth.RoleUser), ada.ID, auth.UpdateProfileMessage{
			FullName: ptr("  "),
			Email:    ptr(""),
		})
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", profile.FullName)
		assert.Equal(t, "ada.l@example.com", profile.Email)
	})

	t.Run("email taken", func(t *testing.T) {
		_, err := f.auther.UpdateProfile(ctx, principalFor(ada, auth.RoleUser), ada.ID, auth.UpdateProfileMessage{
			Email: ptr("grace@example.com"),
		})
		assert.True(t, auth.HasTextCode(err, auth.ErrEmailTaken))
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := f.auther.UpdateProfile(ctx, principalFor(ada, auth.RoleUser), ada.ID, auth.UpdateProfileMessage{
			Email: ptr("nope"),
		})
		assert.True(t, auth.IsValidation(err))
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		_, err := f.auther.UpdateProfile(ctx, principalFor(grace, auth.RoleUser), ada.ID, auth.UpdateProfileMessage{
			FullName: ptr("Hacked"),
		})
		assert.True(t, auth.IsForbidden(err))
		assert.NotEmpty(t, f.sink.ofType(auth.ActivityEventMutationDenied))
	})

	t.Run("admin may update anyone", func(t *testing.T) {
		profile, err := f.auther.UpdateProfile(ctx, principalFor(admin, auth.RoleAdmin), grace.ID, auth.UpdateProfileMessage{
			FullName: ptr("Grace Hopper"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Grace Hopper", profile.FullName)
	})
}

func TestChangePassword(t *testing.T) {
	f := newAccountsFixture(t)
	ctx := context.Background()
	ada := f.createUser(t, "Ada", "ada@example.com", auth.RoleUser, "secret1")
	p := principalFor(ada, auth.RoleUser)

	err := f.auther.ChangePassword(ctx, p, ada.ID, auth.ChangePasswordMessage{CurrentPassword: "wrong", NewPassword: "secret2"})
	assert.True(t, auth.HasTextCode(err, auth.ErrCurrentPasswordMismatch))

	err = f.auther.ChangePassword(ctx, p, ada.ID, auth.ChangePasswordMessage{CurrentPassword: "secret1", NewPassword: "123"})
	assert.True(t, auth.IsValidation(err))

	err = f.auther.ChangePassword(ctx, p, ada.ID, auth.ChangePasswordMessage{CurrentPassword: "secret1", NewPassword: strings.Repeat("x", 80)})
	assert.True(t, auth.IsValidation(err))
	assert.Equal(t, http.StatusBadRequest, auth.StatusForError(err))

	err = f.auther.ChangePassword(ctx, auth.Anonymous, ada.ID, auth.ChangePasswordMessage{CurrentPassword: "secret1", NewPassword: "secret2"})
	assert.True(t, auth.IsUnauthenticated(err))

	require.NoError(t, f.auther.ChangePassword(ctx, p, ada.ID, auth.ChangePasswordMessage{
		CurrentPassword: "secret1",
		NewPassword:     "secret2",
	}))
	assert.Len(t, f.sink.ofType(auth.ActivityEventPasswordChanged), 1)

	_, err = f.auther.Login(ctx, auth.LoginMessage{Email: "ada@example.com", Password: "secret1"})
	assert.True(t, auth.HasTextCode(err, auth.ErrInvalidCredentials))

	_, err = f.auther.Login(ctx, auth.LoginMessage{Email: "ada@example.com", Password: "secret2"})
	assert.NoError(t, err)
}

func TestChangePasswordWithoutCredential(t *testing.T) {
	f := newAccountsFixture(t)
	legacy := f.createUser(t, "Legacy", "legacy@example.com", auth.RoleUser, "")

	err := f.auther.ChangePassword(context.Background(), principalFor(legacy, auth.RoleUser), legacy.ID, auth.ChangePasswordMessage{
		CurrentPassword: "anything",
		NewPassword:     "secret2",
	})
	assert.True(t, auth.HasTextCode(err, auth.ErrNoCredentialSet))
}
