package migrations

import (
	"context"
	"fmt"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260101000002, down_20260101000002)
}

// up_20260101000002 creates products, reviews and wishlist_items
func up_20260101000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating catalog tables...")

	_, err := db.NewCreateTable().
		Model((*auth.Product)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}

	_, err = db.NewCreateTable().
		Model((*auth.Review)(nil)).
		IfNotExists().
		ForeignKey("(owner_id) REFERENCES users (id) ON DELETE SET NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create reviews table: %w", err)
	}

	_, err = db.NewCreateTable().
		Model((*auth.WishlistItem)(nil)).
		IfNotExists().
		ForeignKey("(user_id) REFERENCES users (id) ON DELETE CASCADE").
		ForeignKey("(product_id) REFERENCES products (id) ON DELETE CASCADE").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create wishlist_items table: %w", err)
	}

	_, err = db.NewCreateIndex().
		Model((*auth.WishlistItem)(nil)).
		Index("idx_wishlist_items_user_date").
		Column("user_id", "date_added").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create wishlist index: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20260101000002 drops the catalog tables
func down_20260101000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping catalog tables...")

	models := []any{
		(*auth.WishlistItem)(nil),
		(*auth.Review)(nil),
		(*auth.Product)(nil),
	}
	for _, model := range models {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}

	fmt.Println(" OK")
	return nil
}
