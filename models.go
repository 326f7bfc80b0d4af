package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is a named role row, users reference it by id
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rl"`
	ID            int64  `bun:"id,pk" json:"id"`
	Name          string `bun:"name,notnull,unique" json:"name"`
}

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FullName      string     `bun:"full_name,notnull" json:"full_name"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	RoleID        *int64     `bun:"role_id" json:"role_id,omitempty"`
	Role          *Role      `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasCredential reports whether a password hash is stored
func (u *User) HasCredential() bool {
	return u != nil && strings.TrimSpace(u.PasswordHash) != ""
}

// Product is the minimal catalog row the wishlist joins against
type Product struct {
	bun.BaseModel `bun:"table:products,alias:prd"`
	ID            int64    `bun:"id,pk,autoincrement" json:"id"`
	ModelName     string   `bun:"model_name,notnull" json:"model_name"`
	Price         *float64 `bun:"price" json:"price,omitempty"`
	ImagePath     string   `bun:"image_path" json:"image_path,omitempty"`
}

// Review is a product review. OwnerID is nil for reviews posted anonymously
// or before ownership was recorded, AuthorName is free text.
type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:rvw"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	ProductName   string     `bun:"product_name,notnull" json:"product_name"`
	AuthorName    string     `bun:"author_name,notnull" json:"author_name"`
	Rating        int        `bun:"rating,notnull" json:"rating"`
	Comment       string     `bun:"comment" json:"comment"`
	OwnerID       *uuid.UUID `bun:"owner_id,type:uuid" json:"owner_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// ResourceOwnerID implements OwnedResource
func (r *Review) ResourceOwnerID() *uuid.UUID { return r.OwnerID }

// ResourceAuthorName implements OwnedResource
func (r *Review) ResourceAuthorName() string { return r.AuthorName }

// WishlistItem links a user to a product, the pair is unique
type WishlistItem struct {
	bun.BaseModel `bun:"table:wishlist_items,alias:wli"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid,unique:wishlist_user_product" json:"user_id"`
	ProductID     int64     `bun:"product_id,notnull,unique:wishlist_user_product" json:"product_id"`
	Product       *Product  `bun:"rel:belongs-to,join:product_id=id" json:"product,omitempty"`
	DateAdded     time.Time `bun:"date_added,notnull,default:current_timestamp" json:"date_added"`
}

// ResourceOwnerID implements OwnedResource
func (w *WishlistItem) ResourceOwnerID() *uuid.UUID {
	id := w.UserID
	return &id
}

// ResourceAuthorName implements OwnedResource
func (w *WishlistItem) ResourceAuthorName() string { return "" }

// SupportTicket is a customer support request
type SupportTicket struct {
	bun.BaseModel `bun:"table:support_tickets,alias:stk"`
	ID            int64        `bun:"id,pk,autoincrement" json:"id"`
	UserID        *uuid.UUID   `bun:"user_id,type:uuid" json:"user_id,omitempty"`
	Subject       string       `bun:"subject,notnull" json:"subject"`
	Description   string       `bun:"description,notnull" json:"description"`
	Status        TicketStatus `bun:"status,notnull,default:'Pending'" json:"status"`
	CreatedAt     *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeEmail trims and lowercases an email for storage and lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
