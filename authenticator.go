package auth

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AuthResponse is returned by register and login
type AuthResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Token    string    `json:"token"`
}

// Profile is the public view of a user
type Profile struct {
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	RoleName string    `json:"role_name"`
}

type LoginMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m LoginMessage) Validate() error {
	if verr := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&m,
			validation.Field(&m.Email, validation.Required),
			validation.Field(&m.Password, validation.Required),
		)
	}, "invalid login"); verr != nil {
		return verr.WithTextCode(TextCodeValidation).WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// UpdateProfileMessage carries optional profile changes, blank values are ignored
type UpdateProfileMessage struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
}

type ChangePasswordMessage struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (m ChangePasswordMessage) Validate() error {
	if verr := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&m,
			validation.Field(&m.CurrentPassword, validation.Required),
			validation.Field(&m.NewPassword, validation.Required, validation.RuneLength(MinPasswordLength, 0), validation.Length(0, MaxPasswordBytes)),
		)
	}, "invalid password change"); verr != nil {
		return verr.WithTextCode(TextCodeValidation).WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// Auther owns the account flows: registration, login, profile and password
type Auther struct {
	store     CredentialStore
	hasher    PasswordHasher
	tokens    TokenService
	register  *RegisterUserHandler
	activity  ActivitySink
	logger    Logger
	hashedIDs bool
}

type AutherOption func(*Auther)

func WithPasswordHasher(h PasswordHasher) AutherOption {
	return func(a *Auther) {
		if h != nil {
			a.hasher = h
		}
	}
}

func WithAutherActivitySink(sink ActivitySink) AutherOption {
	return func(a *Auther) {
		a.activity = normalizeActivitySink(sink)
	}
}

// WithHashedUserIDs makes registration derive user ids from the email.
// A reused email whose derived id is still held gets a random id.
func WithHashedUserIDs(enabled bool) AutherOption {
	return func(a *Auther) {
		a.hashedIDs = enabled
	}
}

func WithAutherLogger(logger Logger) AutherOption {
	return func(a *Auther) {
		a.logger = normalizeLogger(logger)
	}
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, tokens TokenService, opts ...AutherOption) *Auther {
	a := &Auther{
		store:    repo.Users(),
		hasher:   NewBcryptHasher(0),
		tokens:   tokens,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	a.register = NewRegisterUserHandler(repo, a.hasher).
		WithActivitySink(a.activity).
		WithLogger(a.logger).
		WithHashedIDs(a.hashedIDs)

	return a
}

func (s *Auther) Register(ctx context.Context, msg RegisterUserMessage) (*AuthResponse, error) {
	user, err := s.register.Register(ctx, msg)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords return the same error.
func (s *Auther) Login(ctx context.Context, msg LoginMessage) (*AuthResponse, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	email := NormalizeEmail(msg.Email)

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			s.loginFailed(ctx, email, "unknown email")
			return nil, ErrInvalidCredentials.Clone()
		}
		s.logger.Error("login lookup failed: %v", err)
		return nil, err
	}

	if !user.HasCredential() {
		s.loginFailed(ctx, email, "no credential set")
		return nil, ErrNoCredentialSet.Clone()
	}

	result := s.hasher.Verify(user.PasswordHash, msg.Password)
	if !result.Ok() {
		s.loginFailed(ctx, email, "password mismatch")
		return nil, ErrInvalidCredentials.Clone()
	}

	if result == PasswordVerificationSuccessRehashNeeded {
		s.rehash(ctx, user, msg.Password)
	}

	res, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		ObjectType: "user",
		ObjectID:   user.ID.String(),
	})

	return res, nil
}

// Me returns the profile of the authenticated caller
func (s *Auther) Me(ctx context.Context, p Principal) (*Profile, error) {
	if err := p.Require(); err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

// UpdateProfile changes name and email of userID. Only the owner or an
// admin may do so.
func (s *Auther) UpdateProfile(ctx context.Context, p Principal, userID uuid.UUID, msg UpdateProfileMessage) (*Profile, error) {
	if err := p.Require(); err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := authorizeMutation(ctx, s.activity, s.logger, p, OwnedBy(user.ID), "user", user.ID.String()); err != nil {
		return nil, err
	}

	if msg.FullName != nil {
		if name := strings.TrimSpace(*msg.FullName); name != "" {
			user.FullName = name
		}
	}

	if msg.Email != nil {
		if email := NormalizeEmail(*msg.Email); email != "" && email != user.Email {
			if verr := validation.Validate(email, is.EmailFormat); verr != nil {
				return nil, NewValidationError("invalid profile", map[string]string{"email": verr.Error()})
			}

			taken, err := s.store.EmailExists(ctx, email, &user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailTaken.Clone().WithMetadata(map[string]any{"email": email})
			}
			user.Email = email
		}
	}

	user, err = s.store.UpdateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:  ActivityEventProfileUpdated,
		Actor:      ActorFromPrincipal(p),
		ObjectType: "user",
		ObjectID:   user.ID.String(),
	})

	return s.profile(ctx, user)
}

// ChangePassword replaces the password of userID after checking the
// current one
func (s *Auther) ChangePassword(ctx context.Context, p Principal, userID uuid.UUID, msg ChangePasswordMessage) error {
	if err := p.Require(); err != nil {
		return err
	}

	if err := msg.Validate(); err != nil {
		return err
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := authorizeMutation(ctx, s.activity, s.logger, p, OwnedBy(user.ID), "user", user.ID.String()); err != nil {
		return err
	}

	if !user.HasCredential() {
		return ErrNoCredentialSet.Clone()
	}

	if !s.hasher.Verify(user.PasswordHash, msg.CurrentPassword).Ok() {
		return ErrCurrentPasswordMismatch.Clone()
	}

	hash, err := s.hasher.Hash(msg.NewPassword)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user.PasswordHash = hash
	if _, err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:  ActivityEventPasswordChanged,
		Actor:      ActorFromPrincipal(p),
		ObjectType: "user",
		ObjectID:   user.ID.String(),
	})

	return nil
}

func (s *Auther) issue(ctx context.Context, user *User) (*AuthResponse, error) {
	role, err := s.store.ResolveRoleName(ctx, user.RoleID)
	if err != nil {
		s.logger.Warn("role resolution failed for %s: %v", user.ID, err)
		role = RoleUser
	}

	token, err := s.tokens.Generate(NewIdentityFromUser(user, role))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue token")
	}

	return &AuthResponse{
		UserID:   user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     role,
		Token:    token,
	}, nil
}

func (s *Auther) profile(ctx context.Context, user *User) (*Profile, error) {
	role, err := s.store.ResolveRoleName(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		UserID:   user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		RoleName: role,
	}, nil
}

// rehash upgrades a hash stored with a lower cost, failures only log
func (s *Auther) rehash(ctx context.Context, user *User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("rehash failed for %s: %v", user.ID, err)
		return
	}

	user.PasswordHash = hash
	if _, err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("rehash store failed for %s: %v", user.ID, err)
		return
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:  ActivityEventPasswordRehashed,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		ObjectType: "user",
		ObjectID:   user.ID.String(),
	})
}

func (s *Auther) loginFailed(ctx context.Context, email, reason string) {
	s.logger.Debug("login failed for %s: %s", email, reason)
	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType:  ActivityEventLoginFailure,
		Actor:      ActorRef{Type: "unknown"},
		ObjectType: "user",
		Metadata: map[string]any{
			"identifier": email,
			"reason":     reason,
		},
	})
}
