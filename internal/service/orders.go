package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/internal/domain"
)

// BookReader looks up books for order snapshots.
type BookReader interface {
	Get(ctx context.Context, id int64) (domain.Book, error)
}

// AdminLister lists the admins told about new orders.
type AdminLister interface {
	List(ctx context.Context) ([]domain.Admin, error)
}

// Orders runs the order status pipeline. Any status may follow any other;
// the catalog position only orders the menu.
type Orders struct {
	orders   OrderStore
	statuses StatusStore
	books    BookReader
	admins   AdminLister
	notifier Notifier
}

func NewOrders(orders OrderStore, statuses StatusStore, books BookReader, admins AdminLister, notifier Notifier) *Orders {
	return &Orders{orders: orders, statuses: statuses, books: books, admins: admins, notifier: notifier}
}

// Transition is the result of a status change. DeliveryErr is set when the
// customer could not be told; the stored status stands regardless.
type Transition struct {
	Order       domain.Order
	Status      domain.OrderStatus
	DeliveryErr error
}

// Statuses returns the catalog ordered by position, then id.
func (s *Orders) Statuses(ctx context.Context) ([]domain.OrderStatus, error) {
	return s.statuses.List(ctx)
}

// Place creates an order in status new with a snapshot of the book title.
// Admins are told about it on a best-effort basis.
func (s *Orders) Place(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	const op = "orders.place"
	switch {
	case strings.TrimSpace(draft.FullName) == "":
		return domain.Order{}, domain.Validation(op, "full name must not be empty")
	case strings.TrimSpace(draft.Address) == "":
		return domain.Order{}, domain.Validation(op, "address must not be empty")
	case strings.TrimSpace(draft.Phone) == "":
		return domain.Order{}, domain.Validation(op, "phone must not be empty")
	}
	book, err := s.books.Get(ctx, draft.BookID)
	if err != nil {
		return domain.Order{}, err
	}
	initial, err := s.statuses.GetByName(ctx, domain.StatusNew)
	if err != nil {
		return domain.Order{}, err
	}
	id, err := s.orders.Create(ctx, draft, book.Info(), initial.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	logger.LogEvent(ctx, logger.SVCOrders, slog.LevelInfo, "order.placed",
		slog.Int64("order_id", order.ID),
		slog.Int64("book_id", draft.BookID),
		slog.Int64("customer_id", draft.CustomerID),
	)
	s.announce(ctx, order)
	return order, nil
}

func (s *Orders) announce(ctx context.Context, o domain.Order) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		logWarn(ctx, logger.SVCOrders, "order.announce_fail", err, slog.Int64("order_id", o.ID))
		return
	}
	n := Notice{
		Kind: NoticeOrderPlaced,
		Ref:  o.ID,
		Text: fmt.Sprintf("🛒 New order #%d\n%s\n%s, %s, %s", o.ID, o.BookInfo, o.FullName, o.Address, o.Phone),
	}
	for _, a := range admins {
		if err := notify(ctx, s.notifier, "orders.announce", a.UserID, n); err != nil {
			logWarn(ctx, logger.SVCOrders, "order.announce_fail", err,
				slog.Int64("order_id", o.ID), slog.Int64("admin_id", a.UserID))
		}
	}
}

// SetStatus stores statusID on the order, then tells the customer.
// The write is never rolled back when the notice fails.
func (s *Orders) SetStatus(ctx context.Context, orderID, statusID int64) (Transition, error) {
	const op = "orders.set_status"
	status, err := s.statuses.Get(ctx, statusID)
	if err != nil {
		return Transition{}, err
	}
	if err := s.orders.SetStatus(ctx, orderID, statusID); err != nil {
		return Transition{}, err
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return Transition{}, err
	}
	t := Transition{Order: order, Status: status}
	t.DeliveryErr = notify(ctx, s.notifier, op, order.CustomerID, Notice{
		Kind: NoticeOrderStatus,
		Ref:  order.ID,
		Text: fmt.Sprintf("Order #%d (%s)\n%s", order.ID, order.BookInfo, status.Notice()),
	})

	attrs := []slog.Attr{
		slog.Int64("order_id", orderID),
		slog.String("status", status.Name),
		slog.Bool("delivered", t.DeliveryErr == nil),
	}
	level := slog.LevelInfo
	if t.DeliveryErr != nil {
		level = slog.LevelWarn
		attrs = append(attrs, logger.Err(t.DeliveryErr))
	}
	logger.LogEvent(ctx, logger.SVCOrders, level, "order.status_set", attrs...)
	return t, nil
}

func (s *Orders) Delete(ctx context.Context, orderID int64) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCOrders, slog.LevelInfo, "order.deleted", slog.Int64("order_id", orderID))
	return nil
}

func (s *Orders) List(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

func (s *Orders) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// ForCustomer returns the orders of one customer, newest first.
func (s *Orders) ForCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID)
}
