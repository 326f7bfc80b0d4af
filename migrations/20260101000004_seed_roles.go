package migrations

import (
	"context"
	"fmt"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260101000004, down_20260101000004)
}

// up_20260101000004 seeds the Admin and User roles
func up_20260101000004(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] seeding default roles...")

	for _, role := range auth.DefaultRoles() {
		_, err := db.NewInsert().
			Model(role).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
	}

	fmt.Println(" OK")
	return nil
}

// down_20260101000004 removes the seeded roles
func down_20260101000004(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] removing default roles...")

	ids := []int64{}
	for _, role := range auth.DefaultRoles() {
		ids = append(ids, role.ID)
	}

	_, err := db.NewDelete().
		Model((*auth.Role)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove roles: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
