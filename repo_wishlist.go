package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Wishlist stores (user, product) pairs. Writes are idempotent: adding an
// existing pair and removing a missing one both succeed without error.
type Wishlist interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*WishlistItem, error)
	AddIfAbsent(ctx context.Context, userID uuid.UUID, productID int64) (bool, error)
	DeleteIfPresent(ctx context.Context, userID uuid.UUID, wishlistID int64) (bool, error)
	DeleteByProduct(ctx context.Context, userID uuid.UUID, productID int64) (bool, error)
	Clear(ctx context.Context, userID uuid.UUID) (int64, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
}

type wishlist struct {
	db bun.IDB
}

func NewWishlistRepository(db bun.IDB) Wishlist {
	return &wishlist{db: db}
}

func (w *wishlist) ListByUser(ctx context.Context, userID uuid.UUID) ([]*WishlistItem, error) {
	items := []*WishlistItem{}
	err := w.db.NewSelect().
		Model(&items).
		Relation("Product").
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.date_added DESC, ?TableAlias.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list wishlist")
	}
	return items, nil
}

// AddIfAbsent inserts the pair unless it exists. The returned bool reports
// whether a row was created. A unique violation raised by a concurrent
// insert of the same pair counts as success.
func (w *wishlist) AddIfAbsent(ctx context.Context, userID uuid.UUID, productID int64) (bool, error) {
	item := &WishlistItem{
		UserID:    userID,
		ProductID: productID,
		DateAdded: time.Now().UTC(),
	}

	res, err := w.db.NewInsert().
		Model(item).
		On("CONFLICT (user_id, product_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add wishlist item")
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteIfPresent removes the row only when it belongs to userID. Missing
// rows and rows owned by someone else are left untouched and are not an
// error.
func (w *wishlist) DeleteIfPresent(ctx context.Context, userID uuid.UUID, wishlistID int64) (bool, error) {
	res, err := w.db.NewDelete().
		Model((*WishlistItem)(nil)).
		Where("id = ?", wishlistID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove wishlist item")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (w *wishlist) DeleteByProduct(ctx context.Context, userID uuid.UUID, productID int64) (bool, error) {
	res, err := w.db.NewDelete().
		Model((*WishlistItem)(nil)).
		Where("product_id = ?", productID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove wishlist product")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (w *wishlist) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := w.db.NewDelete().
		Model((*WishlistItem)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear wishlist")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (w *wishlist) ProductExists(ctx context.Context, productID int64) (bool, error) {
	exists, err := w.db.NewSelect().
		Model((*Product)(nil)).
		Where("?TableAlias.id = ?", productID).
		Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up product")
	}
	return exists, nil
}
