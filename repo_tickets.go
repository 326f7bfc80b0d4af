package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultTicketTake is the page size of the ticket listing
const DefaultTicketTake = 50

// Tickets stores support tickets
type Tickets interface {
	TicketStatusStore

	Insert(ctx context.Context, ticket *SupportTicket) (*SupportTicket, error)
	Get(ctx context.Context, id int64) (*SupportTicket, error)
	List(ctx context.Context, take int) ([]*SupportTicket, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status *TicketStatus) ([]*SupportTicket, error)
}

type tickets struct {
	db bun.IDB
}

func NewTicketsRepository(db bun.IDB) Tickets {
	return &tickets{db: db}
}

func (t *tickets) Insert(ctx context.Context, ticket *SupportTicket) (*SupportTicket, error) {
	if ticket.Status == "" {
		ticket.Status = TicketPending
	}
	if _, err := t.db.NewInsert().Model(ticket).Returning("*").Exec(ctx); err != nil {
		return nil, translateStoreError(err, "ticket", nil)
	}
	return ticket, nil
}

func (t *tickets) Get(ctx context.Context, id int64) (*SupportTicket, error) {
	record := &SupportTicket{}
	err := t.db.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, translateStoreError(err, "ticket", map[string]any{"id": id})
	}
	return record, nil
}

// List returns the newest tickets first, take <= 0 uses DefaultTicketTake
func (t *tickets) List(ctx context.Context, take int) ([]*SupportTicket, error) {
	if take <= 0 {
		take = DefaultTicketTake
	}
	records := []*SupportTicket{}
	err := t.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.id DESC").
		Limit(take).
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list tickets")
	}
	return records, nil
}

func (t *tickets) ListByUser(ctx context.Context, userID uuid.UUID, status *TicketStatus) ([]*SupportTicket, error) {
	records := []*SupportTicket{}
	q := t.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID)
	if status != nil {
		q = q.Where("?TableAlias.status = ?", *status)
	}
	if err := q.OrderExpr("?TableAlias.id DESC").Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list user tickets")
	}
	return records, nil
}

func (t *tickets) UpdateStatus(ctx context.Context, id int64, status TicketStatus) (*SupportTicket, error) {
	res, err := t.db.NewUpdate().
		Model((*SupportTicket)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return nil, translateStoreError(err, "ticket", map[string]any{"id": id})
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, NotFound("ticket", id)
	}
	return t.Get(ctx, id)
}
