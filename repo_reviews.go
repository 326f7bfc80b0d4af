package auth

import (
	"context"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Reviews stores product reviews
type Reviews interface {
	List(ctx context.Context) ([]*Review, error)
	Get(ctx context.Context, id int64) (*Review, error)
	Insert(ctx context.Context, review *Review) (*Review, error)
	UpdateContent(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id int64) error
}

type reviews struct {
	db bun.IDB
}

func NewReviewsRepository(db bun.IDB) Reviews {
	return &reviews{db: db}
}

func (r *reviews) List(ctx context.Context) ([]*Review, error) {
	records := []*Review{}
	if err := r.db.NewSelect().Model(&records).OrderExpr("?TableAlias.id ASC").Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list reviews")
	}
	return records, nil
}

func (r *reviews) Get(ctx context.Context, id int64) (*Review, error) {
	record := &Review{}
	err := r.db.NewSelect().Model(record).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, translateStoreError(err, "review", map[string]any{"id": id})
	}
	return record, nil
}

func (r *reviews) Insert(ctx context.Context, review *Review) (*Review, error) {
	if _, err := r.db.NewInsert().Model(review).Returning("*").Exec(ctx); err != nil {
		return nil, translateStoreError(err, "review", nil)
	}
	return review, nil
}

// UpdateContent writes rating and comment only. The owner and author
// columns are fixed at creation.
func (r *reviews) UpdateContent(ctx context.Context, review *Review) error {
	res, err := r.db.NewUpdate().
		Model(review).
		Column("rating", "comment").
		WherePK().
		Exec(ctx)
	if err != nil {
		return translateStoreError(err, "review", map[string]any{"id": review.ID})
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NotFound("review", strconv.FormatInt(review.ID, 10))
	}
	return nil
}

func (r *reviews) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().Model((*Review)(nil)).Where("id = ?", id).Exec(ctx)
	return translateStoreError(err, "review", map[string]any{"id": id})
}
