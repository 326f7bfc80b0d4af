package migrations

import (
	"context"
	"fmt"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260101000001, down_20260101000001)
}

// up_20260101000001 creates the roles and users tables
func up_20260101000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating roles and users tables...")

	_, err := db.NewCreateTable().
		Model((*auth.Role)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create roles table: %w", err)
	}

	_, err = db.NewCreateTable().
		Model((*auth.User)(nil)).
		IfNotExists().
		ForeignKey("(role_id) REFERENCES roles (id) ON DELETE SET NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20260101000001 drops the users and roles tables
func down_20260101000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping users and roles tables...")

	if _, err := db.NewDropTable().Model((*auth.User)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop users table: %w", err)
	}
	if _, err := db.NewDropTable().Model((*auth.Role)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop roles table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
