package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-router"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes accounts, reviews, wishlist and tickets as JSON
type HTTPController struct {
	Auth     *RouteAuthenticator
	Accounts *Auther
	Reviews  *ReviewService
	Wishlist *WishlistService
	Tickets  *TicketService
	Logger   Logger
}

type HTTPControllerOption func(*HTTPController)

func WithRouteAuthenticator(a *RouteAuthenticator) HTTPControllerOption {
	return func(c *HTTPController) { c.Auth = a }
}

func WithAccounts(a *Auther) HTTPControllerOption {
	return func(c *HTTPController) { c.Accounts = a }
}

func WithReviews(s *ReviewService) HTTPControllerOption {
	return func(c *HTTPController) { c.Reviews = s }
}

func WithWishlist(s *WishlistService) HTTPControllerOption {
	return func(c *HTTPController) { c.Wishlist = s }
}

func WithTickets(s *TicketService) HTTPControllerOption {
	return func(c *HTTPController) { c.Tickets = s }
}

func WithControllerLogger(l Logger) HTTPControllerOption {
	return func(c *HTTPController) { c.Logger = normalizeLogger(l) }
}

func NewHTTPController(opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{Logger: defLogger{}}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.Auth == nil {
		panic("Missing RouteAuthenticator in http controller...")
	}

	if c.Accounts == nil || c.Reviews == nil || c.Wishlist == nil || c.Tickets == nil {
		panic("Missing service in http controller...")
	}

	return c
}

// RegisterRoutes registers the API routes. Every route runs behind the
// optional bearer middleware.
func (c *HTTPController) RegisterRoutes(r RouteRegistrar) {
	bearer := c.Auth.BearerMiddleware()

	r.Post("/api/auth/register", c.Register, bearer).SetName("auth.register")
	r.Post("/api/auth/login", c.Login, bearer).SetName("auth.login")

	r.Get("/api/users/me", c.Me, bearer).SetName("users.me")
	r.Put("/api/users/me", c.UpdateMe, bearer).SetName("users.me.update")
	r.Put("/api/users/change-password", c.ChangePassword, bearer).SetName("users.change-password")

	r.Get("/api/reviews", c.ListReviews, bearer).SetName("reviews.list")
	r.Post("/api/reviews", c.CreateReview, bearer).SetName("reviews.create")
	r.Put("/api/reviews/:id", c.UpdateReview, bearer).SetName("reviews.update")
	r.Delete("/api/reviews/:id", c.DeleteReview, bearer).SetName("reviews.delete")

	r.Get("/api/wishlist", c.ListWishlist, bearer).SetName("wishlist.list")
	r.Post("/api/wishlist/:productId", c.AddWishlist, bearer).SetName("wishlist.add")
	r.Delete("/api/wishlist/product/:productId", c.RemoveWishlistProduct, bearer).SetName("wishlist.remove-product")
	r.Delete("/api/wishlist/:wishlistId", c.RemoveWishlist, bearer).SetName("wishlist.remove")
	r.Delete("/api/wishlist", c.ClearWishlist, bearer).SetName("wishlist.clear")

	r.Post("/api/supporttickets", c.CreateTicket, bearer).SetName("tickets.create")
	r.Get("/api/supporttickets", c.ListTickets, bearer).SetName("tickets.list")
	r.Get("/api/supporttickets/mine", c.MyTickets, bearer).SetName("tickets.mine")
	r.Get("/api/supporttickets/by-user/:userId", c.TicketsByUser, bearer).SetName("tickets.by-user")
	r.Get("/api/supporttickets/:id", c.GetTicket, bearer).SetName("tickets.get")
	r.Patch("/api/supporttickets/:id/status", c.UpdateTicketStatus, bearer).SetName("tickets.status")
}

func (c *HTTPController) Register(ctx router.Context) error {
	payload := RegisterUserMessage{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	res, err := c.Accounts.Register(ctx.Context(), payload)
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (c *HTTPController) Login(ctx router.Context) error {
	payload := LoginMessage{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	res, err := c.Accounts.Login(ctx.Context(), payload)
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (c *HTTPController) Me(ctx router.Context) error {
	profile, err := c.Accounts.Me(ctx.Context(), c.Auth.Principal(ctx))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (c *HTTPController) UpdateMe(ctx router.Context) error {
	p := c.Auth.Principal(ctx)
	if err := p.Require(); err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	payload := UpdateProfileMessage{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	profile, err := c.Accounts.UpdateProfile(ctx.Context(), p, p.UserID, payload)
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (c *HTTPController) ChangePassword(ctx router.Context) error {
	p := c.Auth.Principal(ctx)
	if err := p.Require(); err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	payload := ChangePasswordMessage{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	if err := c.Accounts.ChangePassword(ctx.Context(), p, p.UserID, payload); err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *HTTPController) ListReviews(ctx router.Context) error {
	reviews, err := c.Reviews.List(ctx.Context())
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, reviews)
}

func (c *HTTPController) CreateReview(ctx router.Context) error {
	payload := CreateReviewMessage{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	review, err := c.Reviews.Create(ctx.Context(), c.Auth.Principal(ctx), payload)
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, review)
}

func (c *HTTPController) UpdateReview(ctx router.Context) error {
	id, err := ParseNumericID("id", ctx.Param("id"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	payload := UpdateReviewMessage{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	review, err := c.Reviews.Update(ctx.Context(), c.Auth.Principal(ctx), id, payload)
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, review)
}

func (c *HTTPController) DeleteReview(ctx router.Context) error {
	id, err := ParseNumericID("id", ctx.Param("id"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	if err := c.Reviews.Delete(ctx.Context(), c.Auth.Principal(ctx), id); err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *HTTPController) ListWishlist(ctx router.Context) error {
	items, err := c.Wishlist.List(ctx.Context(), c.Auth.Principal(ctx))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, items)
}

func (c *HTTPController) AddWishlist(ctx router.Context) error {
	productID, err := ParseNumericID("productId", ctx.Param("productId"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	if err := c.Wishlist.Add(ctx.Context(), c.Auth.Principal(ctx), productID); err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *HTTPController) RemoveWishlist(ctx router.Context) error {
	wishlistID, err := ParseNumericID("wishlistId", ctx.Param("wishlistId"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	if err := c.Wishlist.Remove(ctx.Context(), c.Auth.Principal(ctx), wishlistID); err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *HTTPController) RemoveWishlistProduct(ctx router.Context) error {
	productID, err := ParseNumericID("productId", ctx.Param("productId"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	if err := c.Wishlist.RemoveByProduct(ctx.Context(), c.Auth.Principal(ctx), productID); err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *HTTPController) ClearWishlist(ctx router.Context) error {
	if err := c.Wishlist.Clear(ctx.Context(), c.Auth.Principal(ctx)); err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (c *HTTPController) CreateTicket(ctx router.Context) error {
	payload := CreateTicketMessage{}
	if err := c.bind(ctx, &payload); err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	ticket, err := c.Tickets.Create(ctx.Context(), c.Auth.Principal(ctx), payload)
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, ticket)
}

func (c *HTTPController) ListTickets(ctx router.Context) error {
	take := DefaultTicketTake
	if raw := strings.TrimSpace(ctx.Query("take")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Auth.HandleError(ctx, NewValidationError("invalid query", map[string]string{
				"take": "must be a positive integer",
			}))
		}
		take = n
	}

	tickets, err := c.Tickets.List(ctx.Context(), take)
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, tickets)
}

func (c *HTTPController) MyTickets(ctx router.Context) error {
	tickets, err := c.Tickets.Mine(ctx.Context(), c.Auth.Principal(ctx), ctx.Query("status"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, tickets)
}

func (c *HTTPController) TicketsByUser(ctx router.Context) error {
	userID, err := ParseUserID(ctx.Param("userId"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	tickets, err := c.Tickets.ListByUser(ctx.Context(), userID, ctx.Query("status"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, tickets)
}

func (c *HTTPController) GetTicket(ctx router.Context) error {
	id, err := ParseNumericID("id", ctx.Param("id"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	ticket, err := c.Tickets.Get(ctx.Context(), id)
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, ticket)
}

func (c *HTTPController) UpdateTicketStatus(ctx router.Context) error {
	id, err := ParseNumericID("id", ctx.Param("id"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}

	ticket, err := c.Tickets.UpdateStatus(ctx.Context(), c.Auth.Principal(ctx), id, ctx.Query("value"))
	if err != nil {
		return c.Auth.HandleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, ticket)
}

func (c *HTTPController) bind(ctx router.Context, payload any) error {
	if err := ctx.Bind(payload); err != nil {
		c.Logger.Debug("bind payload failed: %v", err)
		return NewValidationError("invalid request body", map[string]string{
			"body": err.Error(),
		})
	}
	return nil
}
