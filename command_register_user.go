package auth

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	// MinPasswordLength applies to registration and password change
	MinPasswordLength = 6
	// MaxPasswordBytes is the bcrypt input limit
	MaxPasswordBytes = 72
)

type RegisterUserMessage struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (e RegisterUserMessage) normalized() RegisterUserMessage {
	e.FullName = strings.TrimSpace(e.FullName)
	e.Email = NormalizeEmail(e.Email)
	return e
}

// Validate checks required fields after trimming
func (e RegisterUserMessage) Validate() error {
	msg := e.normalized()
	if verr := goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&msg,
			validation.Field(&msg.FullName, validation.Required),
			validation.Field(&msg.Email, validation.Required, is.EmailFormat),
			validation.Field(&msg.Password, validation.Required, validation.RuneLength(MinPasswordLength, 0), validation.Length(0, MaxPasswordBytes)),
		)
	}, "invalid registration"); verr != nil {
		return verr.WithTextCode(TextCodeValidation).WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

type RegisterUserHandler struct {
	repo      RepositoryManager
	hasher    PasswordHasher
	activity  ActivitySink
	logger    Logger
	hashedIDs bool
}

func NewRegisterUserHandler(repo RepositoryManager, hasher PasswordHasher) *RegisterUserHandler {
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	return &RegisterUserHandler{
		repo:     repo,
		hasher:   hasher,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *RegisterUserHandler) WithActivitySink(sink ActivitySink) *RegisterUserHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithHashedIDs derives every new user id from the normalized email.
// When the derived id already belongs to a user, because the email was
// freed by a profile change and then registered again, a random id is used.
func (h *RegisterUserHandler) WithHashedIDs(enabled bool) *RegisterUserHandler {
	h.hashedIDs = enabled
	return h
}

// Register creates the user and returns the stored record
func (h *RegisterUserHandler) Register(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	event = event.normalized()

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	users := h.repo.Users()

	taken, err := users.EmailExists(ctx, event.Email, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken.Clone().WithMetadata(map[string]any{"email": event.Email})
	}

	roleID, err := users.RoleIDByName(ctx, RoleUser)
	if err != nil {
		return nil, err
	}

	hash, err := h.hasher.Hash(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		FullName:     event.FullName,
		Email:        event.Email,
		PasswordHash: hash,
		RoleID:       roleID,
	}

	if event.UseHashid || h.hashedIDs {
		id, err := h.hashedID(ctx, users, event.Email)
		if err != nil {
			return nil, err
		}
		user.ID = id
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := users.InsertUserTx(ctx, tx, user)
		if err != nil {
			return err
		}
		user = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.logger.Info("registered user %s", user.ID)
	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType:  ActivityEventUserRegistered,
		Actor:      ActorRef{ID: user.ID.String(), Type: "user"},
		ObjectType: "user",
		ObjectID:   user.ID.String(),
		Metadata:   map[string]any{"email": user.Email},
	})

	return user, nil
}

func (h *RegisterUserHandler) hashedID(ctx context.Context, users CredentialStore, email string) (uuid.UUID, error) {
	id, err := hashid.NewUUID(email)
	if err != nil {
		return uuid.New(), nil
	}

	_, err = users.FindUserByID(ctx, id)
	switch {
	case err == nil:
		h.logger.Debug("hashed id for %s already taken, using random id", email)
		return uuid.New(), nil
	case IsNotFound(err):
		return id, nil
	default:
		return uuid.Nil, err
	}
}
