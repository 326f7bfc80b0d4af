package auth

import (
	"context"
	"database/sql"
	"log"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Reviews() Reviews
	Wishlist() Wishlist
	Tickets() Tickets
	DB() *bun.DB
}

type mngr struct {
	db       *bun.DB
	users    Users
	reviews  Reviews
	wishlist Wishlist
	tickets  Tickets
}

func NewRepositoryManager(db *bun.DB, opts ...UsersOption) RepositoryManager {
	return &mngr{
		db:       db,
		users:    NewUsersRepository(db, opts...),
		reviews:  NewReviewsRepository(db),
		wishlist: NewWishlistRepository(db),
		tickets:  NewTicketsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return goerrors.New("database should be initialized", goerrors.CategoryInternal)
	}

	if m.users == nil {
		return goerrors.New("repository users should be initialized", goerrors.CategoryInternal)
	}

	if m.reviews == nil {
		return goerrors.New("repository reviews should be initialized", goerrors.CategoryInternal)
	}

	if m.wishlist == nil {
		return goerrors.New("repository wishlist should be initialized", goerrors.CategoryInternal)
	}

	if m.tickets == nil {
		return goerrors.New("repository tickets should be initialized", goerrors.CategoryInternal)
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Reviews() Reviews {
	return m.reviews
}

func (m mngr) Wishlist() Wishlist {
	return m.wishlist
}

func (m mngr) Tickets() Tickets {
	return m.tickets
}

func (m mngr) DB() *bun.DB {
	return m.db
}
