package domain

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Book is a catalog entry shown in the gallery.
type Book struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Author      string          `db:"author"`
	Price       decimal.Decimal `db:"price"`
	Description string          `db:"description"`
	Photo       string          `db:"photo"`
	Quantity    int             `db:"quantity"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Info is the snapshot stored on orders, "<name> - <author>".
func (b Book) Info() string {
	return b.Name + " - " + b.Author
}

// Validate checks the catalog invariants.
func (b Book) Validate() error {
	const op = "book.validate"
	switch {
	case strings.TrimSpace(b.Name) == "":
		return Validation(op, "name must not be empty")
	case strings.TrimSpace(b.Author) == "":
		return Validation(op, "author must not be empty")
	case !b.Price.IsPositive():
		return Validation(op, "price must be greater than zero")
	case strings.TrimSpace(b.Description) == "":
		return Validation(op, "description must not be empty")
	case strings.TrimSpace(b.Photo) == "":
		return Validation(op, "photo is required")
	case b.Quantity < 0:
		return Validation(op, "quantity must not be negative")
	}
	return nil
}

// Canonical order status names.
const (
	StatusNew              = "new"
	StatusProcessing       = "processing"
	StatusSupplierNotified = "supplier_notified"
	StatusBookTaken        = "book_taken"
	StatusInTransit        = "in_transit"
	StatusDelivered        = "delivered"
	StatusCancelled        = "cancelled"
)

// OrderStatus is one stage of the order pipeline.
type OrderStatus struct {
	ID            int64  `db:"id"`
	Name          string `db:"name"`
	Description   string `db:"description"`
	ClientMessage string `db:"client_message"`
	Emoji         string `db:"emoji"`
	Position      int    `db:"position"`
}

// Label is the admin-facing button text.
func (s OrderStatus) Label() string {
	return strings.TrimSpace(s.Emoji + " " + s.Description)
}

// Notice is the message delivered to the customer on transition.
func (s OrderStatus) Notice() string {
	return strings.TrimSpace(s.Emoji + " " + s.ClientMessage)
}

// DefaultStatuses is the catalog seeded on startup, in pipeline order.
func DefaultStatuses() []OrderStatus {
	return []OrderStatus{
		{Name: StatusNew, Emoji: "🆕", Position: 1, Description: "New order",
			ClientMessage: "Your order has been received and is waiting for processing."},
		{Name: StatusProcessing, Emoji: "⚙️", Position: 2, Description: "Processing",
			ClientMessage: "Your order is being processed."},
		{Name: StatusSupplierNotified, Emoji: "📨", Position: 3, Description: "Supplier notified",
			ClientMessage: "We have requested your book from the supplier."},
		{Name: StatusBookTaken, Emoji: "📚", Position: 4, Description: "Book picked up",
			ClientMessage: "Your book has been picked up and is being prepared for shipping."},
		{Name: StatusInTransit, Emoji: "🚚", Position: 5, Description: "In transit",
			ClientMessage: "Your order is on its way."},
		{Name: StatusDelivered, Emoji: "✅", Position: 6, Description: "Delivered",
			ClientMessage: "Your order has been delivered. Enjoy your reading!"},
		{Name: StatusCancelled, Emoji: "❌", Position: 7, Description: "Cancelled",
			ClientMessage: "Your order has been cancelled. Contact us if you have any questions."},
	}
}

// Order is a customer purchase. BookID becomes NULL when the book is deleted;
// BookInfo keeps the title as it was when the order was placed.
type Order struct {
	ID          int64         `db:"id"`
	CustomerID  int64         `db:"customer_id"`
	FullName    string        `db:"full_name"`
	Address     string        `db:"address"`
	Phone       string        `db:"phone"`
	BookID      sql.NullInt64 `db:"book_id"`
	BookInfo    string        `db:"book_info"`
	StatusID    int64         `db:"status_id"`
	StatusName  string        `db:"status_name"`
	StatusLabel string        `db:"status_label"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

// OrderDraft carries the values collected by the order flow.
type OrderDraft struct {
	CustomerID int64
	BookID     int64
	FullName   string
	Address    string
	Phone      string
}

// Admin roles.
const (
	RoleAdmin       = "admin"
	RoleTechSupport = "tech_support"
)

// Admin is a user allowed to manage the store.
type Admin struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	UserName    string    `db:"user_name"`
	Phone       string    `db:"phone"`
	Role        string    `db:"role"`
	DisplayName string    `db:"display_name"`
	CreatedAt   time.Time `db:"created_at"`
}

// Title is how the admin is presented to customers.
func (a Admin) Title() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	if a.UserName != "" {
		return a.UserName
	}
	return "Administrator"
}

// TextKind names an editable singleton text.
type TextKind string

const (
	TextGreeting     TextKind = "greeting"
	TextGallery      TextKind = "gallery"
	TextOrderPretext TextKind = "order_pretext"
)

// TextKinds lists every editable text.
func TextKinds() []TextKind {
	return []TextKind{TextGreeting, TextGallery, TextOrderPretext}
}

// Valid reports whether k is a known text kind.
func (k TextKind) Valid() bool {
	for _, known := range TextKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Text is an editable message shown to customers.
type Text struct {
	Kind      TextKind  `db:"kind"`
	Body      string    `db:"body"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Dialog is a support ticket between a customer and an admin. IsClosed never goes back to false.
type Dialog struct {
	ID         int64     `db:"id"`
	CustomerID int64     `db:"customer_id"`
	AdminID    int64     `db:"admin_id"`
	Question   string    `db:"question"`
	Answer     string    `db:"answer"`
	IsClosed   bool      `db:"is_closed"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Dialog message authors.
const (
	AuthorCustomer = "customer"
	AuthorAdmin    = "admin"
)

// DialogMessage is one entry of a dialog's append-only history.
type DialogMessage struct {
	ID        int64     `db:"id"`
	DialogID  int64     `db:"dialog_id"`
	AuthorID  int64     `db:"author_id"`
	Role      string    `db:"role"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}
