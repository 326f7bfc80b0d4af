package auth

import (
	"context"
	"time"
)

// WishlistEntry is the wishlist row joined with its product
type WishlistEntry struct {
	WishlistID int64     `json:"wishlist_id"`
	ProductID  int64     `json:"product_id"`
	ModelName  string    `json:"model_name"`
	Price      *float64  `json:"price,omitempty"`
	ImagePath  string    `json:"image_path,omitempty"`
	DateAdded  time.Time `json:"date_added"`
}

// WishlistService scopes every wishlist operation to the caller
type WishlistService struct {
	repo   Wishlist
	logger Logger
}

func NewWishlistService(repo Wishlist) *WishlistService {
	return &WishlistService{repo: repo, logger: defLogger{}}
}

func (s *WishlistService) WithLogger(logger Logger) *WishlistService {
	s.logger = normalizeLogger(logger)
	return s
}

func (s *WishlistService) List(ctx context.Context, p Principal) ([]WishlistEntry, error) {
	if err := p.Require(); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]WishlistEntry, 0, len(items))
	for _, item := range items {
		entry := WishlistEntry{
			WishlistID: item.ID,
			ProductID:  item.ProductID,
			DateAdded:  item.DateAdded,
		}
		if item.Product != nil {
			entry.ModelName = item.Product.ModelName
			entry.Price = item.Product.Price
			entry.ImagePath = item.Product.ImagePath
		}
		out = append(out, entry)
	}
	return out, nil
}

// Add puts productID on the caller's wishlist. Adding a product already
// present succeeds without creating a second row.
func (s *WishlistService) Add(ctx context.Context, p Principal, productID int64) error {
	if err := p.Require(); err != nil {
		return err
	}

	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return NotFound("product", productID)
	}

	created, err := s.repo.AddIfAbsent(ctx, p.UserID, productID)
	if err != nil {
		return err
	}
	if !created {
		s.logger.Debug("wishlist add for %s product %d was already present", p.UserID, productID)
	}
	return nil
}

// Remove deletes the entry when it exists and belongs to the caller
func (s *WishlistService) Remove(ctx context.Context, p Principal, wishlistID int64) error {
	if err := p.Require(); err != nil {
		return err
	}
	_, err := s.repo.DeleteIfPresent(ctx, p.UserID, wishlistID)
	return err
}

func (s *WishlistService) RemoveByProduct(ctx context.Context, p Principal, productID int64) error {
	if err := p.Require(); err != nil {
		return err
	}
	_, err := s.repo.DeleteByProduct(ctx, p.UserID, productID)
	return err
}

func (s *WishlistService) Clear(ctx context.Context, p Principal) error {
	if err := p.Require(); err != nil {
		return err
	}
	n, err := s.repo.Clear(ctx, p.UserID)
	if err != nil {
		return err
	}
	s.logger.Debug("cleared %d wishlist items for %s", n, p.UserID)
	return nil
}
