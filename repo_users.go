package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/uptrace/bun"
)

// DefaultRoleCacheSize bounds the role name cache
const DefaultRoleCacheSize = 64

type Users interface {
	repository.Repository[*User]
	CredentialStore

	InsertUserTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	UpdateUserTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type users struct {
	repository.Repository[*User]
	db    *bun.DB
	roles *lru.Cache[int64, string]
}

var (
	_ Users           = (*users)(nil)
	_ CredentialStore = (*users)(nil)
)

type UsersOption func(*users)

// WithRoleCacheSize sizes the role name cache, non positive sizes disable it
func WithRoleCacheSize(size int) UsersOption {
	return func(u *users) {
		if size <= 0 {
			u.roles = nil
			return
		}
		if cache, err := lru.New[int64, string](size); err == nil {
			u.roles = cache
		}
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
	}
	WithRoleCacheSize(DefaultRoleCacheSize)(repoUsers)

	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) FindUserByEmail(ctx context.Context, normalizedEmail string) (*User, error) {
	email := NormalizeEmail(normalizedEmail)
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, translateStoreError(err, "user", map[string]any{"email": email})
	}
	return record, nil
}

func (a *users) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		return nil, translateStoreError(err, "user", map[string]any{"id": id.String()})
	}
	return record, nil
}

func (a *users) EmailExists(ctx context.Context, normalizedEmail string, excludingID *uuid.UUID) (bool, error) {
	q := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", NormalizeEmail(normalizedEmail))
	if excludingID != nil {
		q = q.Where("?TableAlias.id <> ?", *excludingID)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
	}
	return exists, nil
}

func (a *users) InsertUser(ctx context.Context, user *User) (*User, error) {
	return a.InsertUserTx(ctx, a.db, user)
}

func (a *users) InsertUserTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	created, err := a.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		if IsUniqueViolation(err) {
			conflict := ErrEmailTaken.Clone().WithMetadata(map[string]any{"email": user.Email})
			conflict.Source = err
			return nil, conflict
		}
		return nil, translateStoreError(err, "user", nil)
	}
	return created, nil
}

func (a *users) UpdateUser(ctx context.Context, user *User) (*User, error) {
	return a.UpdateUserTx(ctx, a.db, user)
}

// UpdateUserTx writes the mutable profile columns
func (a *users) UpdateUserTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user == nil || user.ID == uuid.Nil {
		return nil, goerrors.New("user id is required", goerrors.CategoryBadInput)
	}

	user.Email = NormalizeEmail(user.Email)
	now := time.Now().UTC()
	user.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(user).
		Column("full_name", "email", "password_hash", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			conflict := ErrEmailTaken.Clone().WithMetadata(map[string]any{"email": user.Email})
			conflict.Source = err
			return nil, conflict
		}
		return nil, translateStoreError(err, "user", map[string]any{"id": user.ID.String()})
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return nil, NotFound("user", user.ID.String())
	}

	return user, nil
}

func (a *users) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	_, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", hash).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return translateStoreError(err, "user", map[string]any{"id": id.String()})
}

// ResolveRoleName returns the role name for roleID, RoleUser when the id is
// nil or the row is missing
func (a *users) ResolveRoleName(ctx context.Context, roleID *int64) (string, error) {
	if roleID == nil {
		return RoleUser, nil
	}

	if a.roles != nil {
		if name, ok := a.roles.Get(*roleID); ok {
			return name, nil
		}
	}

	role := &Role{}
	err := a.db.NewSelect().Model(role).Where("?TableAlias.id = ?", *roleID).Limit(1).Scan(ctx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return RoleUser, nil
		}
		return RoleUser, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve role")
	}

	name := ResolveRoleName(role.Name)
	if a.roles != nil {
		a.roles.Add(*roleID, name)
	}
	return name, nil
}

// RoleIDByName returns nil when the role row does not exist
func (a *users) RoleIDByName(ctx context.Context, name string) (*int64, error) {
	role := &Role{}
	err := a.db.NewSelect().
		Model(role).
		Where("LOWER(?TableAlias.name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up role")
	}
	id := role.ID
	return &id, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)
	record.FullName = strings.TrimSpace(record.FullName)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
