package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	auth "github.com/goliatone/go-storefront-auth"
	"github.com/google/uuid"
)

// Register creates an account and keeps the returned token
func (c *Client) Register(ctx context.Context, msg auth.RegisterUserMessage) (*auth.AuthResponse, error) {
	out := &auth.AuthResponse{}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, msg, out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return out, nil
}

// Login authenticates and keeps the returned token
func (c *Client) Login(ctx context.Context, email, password string) (*auth.AuthResponse, error) {
	out := &auth.AuthResponse{}
	msg := auth.LoginMessage{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, msg, out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return out, nil
}

func (c *Client) Me(ctx context.Context) (*auth.Profile, error) {
	out := &auth.Profile{}
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, msg auth.UpdateProfileMessage) (*auth.Profile, error) {
	out := &auth.Profile{}
	if err := c.do(ctx, http.MethodPut, "/api/users/me", nil, msg, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	msg := auth.ChangePasswordMessage{CurrentPassword: current, NewPassword: next}
	return c.do(ctx, http.MethodPut, "/api/users/change-password", nil, msg, nil)
}

func (c *Client) ListReviews(ctx context.Context) ([]*auth.Review, error) {
	out := []*auth.Review{}
	if err := c.do(ctx, http.MethodGet, "/api/reviews", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateReview(ctx context.Context, msg auth.CreateReviewMessage) (*auth.Review, error) {
	out := &auth.Review{}
	if err := c.do(ctx, http.MethodPost, "/api/reviews", nil, msg, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateReview(ctx context.Context, id int64, msg auth.UpdateReviewMessage) (*auth.Review, error) {
	out := &auth.Review{}
	if err := c.do(ctx, http.MethodPut, "/api/reviews/"+idString(id), nil, msg, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteReview succeeds when the review is already gone
func (c *Client) DeleteReview(ctx context.Context, id int64) error {
	return c.deleteIdempotent(ctx, "/api/reviews/"+idString(id))
}

func (c *Client) Wishlist(ctx context.Context) ([]auth.WishlistEntry, error) {
	out := []auth.WishlistEntry{}
	if err := c.do(ctx, http.MethodGet, "/api/wishlist", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddToWishlist adds productID. A second call for the same product while
// the first is running does not send a request.
func (c *Client) AddToWishlist(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return fmt.Errorf("client: invalid product id %d", productID)
	}
	_, err := c.inflight.Do(WishlistAddKey(productID), func() error {
		return c.do(ctx, http.MethodPost, "/api/wishlist/"+idString(productID), nil, nil, nil)
	})
	return err
}

// RemoveFromWishlist deletes a wishlist row, guarded like AddToWishlist
func (c *Client) RemoveFromWishlist(ctx context.Context, wishlistID int64) error {
	_, err := c.inflight.Do(WishlistRemoveKey(wishlistID), func() error {
		return c.deleteIdempotent(ctx, "/api/wishlist/"+idString(wishlistID))
	})
	return err
}

func (c *Client) RemoveProductFromWishlist(ctx context.Context, productID int64) error {
	return c.deleteIdempotent(ctx, "/api/wishlist/product/"+idString(productID))
}

func (c *Client) ClearWishlist(ctx context.Context) error {
	return c.deleteIdempotent(ctx, "/api/wishlist")
}

func (c *Client) CreateTicket(ctx context.Context, msg auth.CreateTicketMessage) (*auth.SupportTicket, error) {
	out := &auth.SupportTicket{}
	if err := c.do(ctx, http.MethodPost, "/api/supporttickets", nil, msg, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTickets returns the newest tickets, take <= 0 uses the server default
func (c *Client) ListTickets(ctx context.Context, take int) ([]*auth.SupportTicket, error) {
	query := url.Values{}
	if take > 0 {
		query.Set("take", strconv.Itoa(take))
	}
	out := []*auth.SupportTicket{}
	if err := c.do(ctx, http.MethodGet, "/api/supporttickets", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyTickets(ctx context.Context, status auth.TicketStatus) ([]*auth.SupportTicket, error) {
	out := []*auth.SupportTicket{}
	if err := c.do(ctx, http.MethodGet, "/api/supporttickets/mine", statusQuery(status), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TicketsByUser(ctx context.Context, userID uuid.UUID, status auth.TicketStatus) ([]*auth.SupportTicket, error) {
	out := []*auth.SupportTicket{}
	path := "/api/supporttickets/by-user/" + userID.String()
	if err := c.do(ctx, http.MethodGet, path, statusQuery(status), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTicket(ctx context.Context, id int64) (*auth.SupportTicket, error) {
	out := &auth.SupportTicket{}
	if err := c.do(ctx, http.MethodGet, "/api/supporttickets/"+idString(id), nil, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateTicketStatus(ctx context.Context, id int64, status auth.TicketStatus) (*auth.SupportTicket, error) {
	out := &auth.SupportTicket{}
	query := url.Values{"value": {string(status)}}
	path := "/api/supporttickets/" + idString(id) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, query, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// WishlistAddKey is the InFlight key used by AddToWishlist
func WishlistAddKey(productID int64) string {
	return "wishlist:add:" + idString(productID)
}

// WishlistRemoveKey is the InFlight key used by RemoveFromWishlist
func WishlistRemoveKey(wishlistID int64) string {
	return "wishlist:remove:" + idString(wishlistID)
}

func statusQuery(status auth.TicketStatus) url.Values {
	if status == "" {
		return nil
	}
	return url.Values{"status": {string(status)}}
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
