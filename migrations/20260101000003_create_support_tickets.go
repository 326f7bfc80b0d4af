package migrations

import (
	"context"
	"fmt"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20260101000003, down_20260101000003)
}

// up_20260101000003 creates the support_tickets table
func up_20260101000003(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating support_tickets table...")

	_, err := db.NewCreateTable().
		Model((*auth.SupportTicket)(nil)).
		IfNotExists().
		ForeignKey("(user_id) REFERENCES users (id) ON DELETE SET NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create support_tickets table: %w", err)
	}

	_, err = db.NewCreateIndex().
		Model((*auth.SupportTicket)(nil)).
		Index("idx_support_tickets_user_status").
		Column("user_id", "status").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create support_tickets index: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20260101000003 drops the support_tickets table
func down_20260101000003(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping support_tickets table...")

	_, err := db.NewDropTable().
		Model((*auth.SupportTicket)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop support_tickets table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
