package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/bookbot/core/telegram"
	"github.com/m3rciful/bookbot/core/telegram/keyboard"
	"github.com/m3rciful/bookbot/core/telegram/state"
	"github.com/m3rciful/bookbot/core/telegram/teletest"
	"github.com/m3rciful/bookbot/internal/config"
	"github.com/m3rciful/bookbot/internal/domain"
	"github.com/m3rciful/bookbot/internal/flow"
	"github.com/m3rciful/bookbot/internal/service"
	"github.com/m3rciful/bookbot/internal/storage/storagetest"

	tele "gopkg.in/telebot.v4"
)

const (
	ownerID    int64 = 100
	customerID int64 = 500
)

type notice struct {
	to     int64
	notice service.Notice
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []notice
	failFor map[int64]bool
}

func (n *fakeNotifier) Notify(_ context.Context, recipient int64, nt service.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[recipient] {
		return errors.New("telegram: Forbidden: bot was blocked by the user (403)")
	}
	n.sent = append(n.sent, notice{to: recipient, notice: nt})
	return nil
}

func (n *fakeNotifier) to(recipient int64) []service.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []service.Notice
	for _, s := range n.sent {
		if s.to == recipient {
			out = append(out, s.notice)
		}
	}
	return out
}

type harness struct {
	t      *testing.T
	app    *App
	nt     *fakeNotifier
	routes []tg.Route
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := storagetest.NewStore(t)
	nt := &fakeNotifier{failFor: map[int64]bool{}}
	app, err := New(&config.Config{}, store, state.NewMemoryManager(0), nt)
	require.NoError(t, err)
	require.NoError(t, app.admins.EnsureBootstrap(context.Background(), ownerID))
	return &harness{t: t, app: app, nt: nt, routes: app.Routes(nil)}
}

func (h *harness) dispatch(endpoint string, c *teletest.Context) *teletest.Context {
	h.t.Helper()
	for _, r := range h.routes {
		if r.Endpoint == endpoint {
			require.NoError(h.t, r.Handler(c))
			return c
		}
	}
	h.t.Fatalf("no route for %q", endpoint)
	return nil
}

func (h *harness) text(userID int64, text string) string {
	h.t.Helper()
	return h.dispatch(tele.OnText, teletest.Text(h.t, userID, text)).LastText()
}

func (h *harness) press(userID int64, unique, data string) string {
	h.t.Helper()
	return h.dispatch(tele.OnCallback, teletest.Callback(h.t, userID, unique, data)).LastText()
}

func (h *harness) photo(userID int64, fileID string) string {
	h.t.Helper()
	return h.dispatch(tele.OnPhoto, teletest.Photo(h.t, userID, fileID)).LastText()
}

func (h *harness) contact(userID int64, ct tele.Contact) string {
	h.t.Helper()
	return h.dispatch(tele.OnContact, teletest.Contact(h.t, userID, ct)).LastText()
}

func mustPrice(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (h *harness) addBook(name string) domain.Book {
	h.t.Helper()
	b, err := h.app.books.Create(context.Background(), domain.Book{
		Name: name, Author: "Frank Herbert", Price: mustPrice("9.99"),
		Description: "A desert planet saga.", Photo: "photo-" + name, Quantity: 3,
	})
	require.NoError(h.t, err)
	return b
}

func TestStartGreetsWithDefaultText(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.text(customerID, "/start"), "Welcome to our bookstore")
}

func TestAdminCommandsAreGuarded(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, msgAdminOnly, h.text(customerID, "/books"))
	assert.Equal(t, msgAdminOnly, h.text(customerID, LabelOrders))
	assert.Equal(t, msgAdminOnly, h.press(customerID, cbBookAdd, ""))
	assert.Equal(t, "⚙️ Admin panel", h.text(ownerID, LabelAdmin))
}

func TestAdminCreatesBookThroughForm(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "Enter the book name:", h.press(ownerID, cbBookAdd, ""))
	assert.Equal(t, "Enter the author:", h.text(ownerID, "Dune"))
	assert.Equal(t, "Enter the price, for example 499.90:", h.text(ownerID, "Frank Herbert"))

	reply := h.text(ownerID, "free")
	assert.Contains(t, reply, "⚠️")
	assert.Contains(t, reply, "Enter the price")

	assert.Equal(t, "Enter the description:", h.text(ownerID, "12,50"))
	assert.Equal(t, "Send the cover photo:", h.text(ownerID, "A desert planet saga."))
	assert.Equal(t, "Enter the number of copies in stock:", h.photo(ownerID, "file-1"))
	assert.Equal(t, `✅ Book "Dune" added to the gallery.`, h.text(ownerID, "4"))

	books, err := h.app.books.List(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "12.50", books[0].Price.StringFixed(2))
	assert.Equal(t, "file-1", books[0].Photo)
	assert.Equal(t, 4, books[0].Quantity)

	c := h.dispatch(tele.OnText, teletest.Text(t, customerID, LabelGallery))
	texts := c.Texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Here is what we have")
	assert.Contains(t, texts[1], "*Dune*")
	assert.Contains(t, texts[1], "12.50")
}

func TestEmptyGalleryAndOrderMenu(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "The gallery is empty for now.", h.text(customerID, "/gallery"))
	assert.Equal(t, "There are no books to order yet.", h.text(customerID, LabelOrder))
}

func TestOrderLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	book := h.addBook("Dune")

	assert.Equal(t, "Enter your full name:", h.press(customerID, cbOrderBook, formatInt(book.ID)))
	assert.Equal(t, "Enter the delivery address:", h.text(customerID, "Ivan Petrov"))
	assert.Equal(t, "Enter your phone number:", h.text(customerID, "Main street 1"))
	assert.Contains(t, h.text(customerID, "abc"), "⚠️")
	reply := h.text(customerID, "+1 555 123 4567")
	assert.Contains(t, reply, "Order #1")
	assert.Contains(t, reply, "Dune - Frank Herbert")

	placed := h.nt.to(ownerID)
	require.Len(t, placed, 1)
	assert.Equal(t, service.NoticeOrderPlaced, placed[0].Kind)
	assert.Equal(t, int64(1), placed[0].Ref)

	assert.Contains(t, h.text(customerID, LabelMyOrders), "New order")

	statuses, err := h.app.orders.Statuses(ctx)
	require.NoError(t, err)
	var processing domain.OrderStatus
	for _, s := range statuses {
		if s.Name == domain.StatusProcessing {
			processing = s
		}
	}
	require.NotZero(t, processing.ID)

	reply = h.press(ownerID, cbOrderStatusSet, fmt.Sprintf("%d|1", processing.ID))
	assert.Equal(t, "✅ Order #1 is now ⚙️ Processing.", reply)
	updates := h.nt.to(customerID)
	require.Len(t, updates, 1)
	assert.Equal(t, service.NoticeOrderStatus, updates[0].Kind)
	assert.Contains(t, updates[0].Text, "being processed")

	h.nt.failFor[customerID] = true
	reply = h.press(ownerID, cbOrderStatusSet, fmt.Sprintf("%d|1", statuses[len(statuses)-1].ID))
	assert.Contains(t, reply, "could not be notified")
	o, err := h.app.orders.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, statuses[len(statuses)-1].ID, o.StatusID)
}

func TestOrderCardShowsLastUpdate(t *testing.T) {
	card := orderCard(domain.Order{
		ID:          3,
		BookInfo:    "Dune - Frank Herbert",
		FullName:    "Ivan Petrov",
		Address:     "Main street 1",
		Phone:       "+1 555 123 4567",
		StatusLabel: "⚙️ Processing",
		CreatedAt:   time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 5, 2, 18, 5, 0, 0, time.UTC),
	})
	assert.Contains(t, card, "🕒 01.05.2024 09:30")
	assert.Contains(t, card, "🔄 Updated 02.05.2024 18:05")
}

func TestDeletedBookKeepsOrderSnapshot(t *testing.T) {
	h := newHarness(t)
	book := h.addBook("Dune")
	_, err := h.app.orders.Place(context.Background(), domain.OrderDraft{
		CustomerID: customerID, BookID: book.ID, FullName: "Ivan", Address: "Main street 1", Phone: "5551234",
	})
	require.NoError(t, err)

	assert.Contains(t, h.press(ownerID, cbBookDelete, formatInt(book.ID)), "Delete \"Dune\"")
	assert.Equal(t, "🗑 Book deleted.", h.press(ownerID, cbBookDeleteYes, formatInt(book.ID)))
	assert.Contains(t, h.text(customerID, "/myorders"), "Dune - Frank Herbert")
}

func TestCancelDuringForm(t *testing.T) {
	h := newHarness(t)
	book := h.addBook("Dune")

	h.press(customerID, cbOrderBook, formatInt(book.ID))
	assert.Equal(t, flow.MsgCancelled, h.text(customerID, LabelCancel))
	assert.Equal(t, flow.MsgNothingToCancel, h.press(customerID, keyboard.CancelUnique, ""))
	assert.Equal(t, msgUnknownText, h.text(customerID, "Ivan Petrov"))
}

func TestStaleOptionButton(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, msgFormInactive, h.press(customerID, cbFlowOption, "name"))
	assert.Equal(t, msgUnknownCallback, h.press(customerID, "no_such_button", ""))
}

func TestQuestionNeedsAskableAdmin(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "❌ No administrator is available right now.", h.text(customerID, LabelAsk))
	assert.False(t, h.app.InProgress(context.Background(), customerID))
}

func TestDialogRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.app.admins.UpdateField(ctx, ownerID, "display_name", "Anna"))

	assert.Equal(t, "Whom do you want to ask?", h.text(customerID, "/ask"))
	assert.Equal(t, "Type your question:", h.press(customerID, cbFlowOption, formatInt(ownerID)))
	assert.Contains(t, h.text(customerID, "Do you have Dune in hardcover?"), "Your question has been sent")

	asked := h.nt.to(ownerID)
	require.Len(t, asked, 1)
	assert.Equal(t, service.NoticeQuestion, asked[0].Kind)
	dialogID := asked[0].Ref

	assert.Equal(t, fmt.Sprintf("✉️ Sent to the administrator in question #%d.", dialogID),
		h.text(customerID, "Any paperback too?"))
	require.Len(t, h.nt.to(ownerID), 2)

	assert.Equal(t, "Type your answer:", h.press(ownerID, cbDialogReply, formatInt(dialogID)))
	assert.Equal(t, "✅ Answer sent.", h.text(ownerID, "Yes, both."))
	answers := h.nt.to(customerID)
	require.Len(t, answers, 1)
	assert.Equal(t, service.NoticeAnswer, answers[0].Kind)

	history := h.press(ownerID, cbDialogHistory, formatInt(dialogID))
	assert.Contains(t, history, "Do you have Dune in hardcover?")
	assert.Contains(t, history, "Any paperback too?")
	assert.Contains(t, history, "Yes, both.")

	assert.Equal(t, fmt.Sprintf("✅ Question #%d closed.", dialogID), h.press(ownerID, cbDialogClose, formatInt(dialogID)))
	assert.Equal(t, fmt.Sprintf("Question #%d is already closed.", dialogID), h.press(ownerID, cbDialogReply, formatInt(dialogID)))
	assert.Equal(t, msgUnknownText, h.text(customerID, "Hello?"))
	assert.Equal(t, "No open questions.", h.text(ownerID, LabelDialogs))
}

func TestSupportStartsQuestionForSupportRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	assert.Contains(t, h.text(customerID, LabelSupport), "Support is not available")

	_, err := h.app.admins.RegisterContact(ctx, domain.Admin{UserID: 200, UserName: "Helpdesk", Phone: "5550000"})
	require.NoError(t, err)
	require.NoError(t, h.app.admins.UpdateField(ctx, 200, "role", domain.RoleTechSupport))

	assert.Equal(t, "Type your question:", h.text(customerID, "/support"))
	assert.Contains(t, h.text(customerID, "My order is late"), "Your question has been sent")
	require.Len(t, h.nt.to(200), 1)
}

func TestEditTexts(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "Send the new greeting text:", h.press(ownerID, cbTextEdit, string(domain.TextGreeting)))
	assert.Contains(t, h.text(ownerID, "Hi!"), "⚠️")
	assert.Equal(t, "✅ Text updated.", h.text(ownerID, "Hello, reader!"))
	assert.Equal(t, "Hello, reader!", h.text(customerID, "/start"))

	assert.Equal(t, msgUnknownCallback, h.press(ownerID, cbTextEdit, "footer"))
}

func TestAddAdministratorByContact(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.press(ownerID, cbAdminAdd, ""), "Share the contact")
	assert.Contains(t, h.text(ownerID, "Bob"), "⚠️")
	reply := h.contact(ownerID, tele.Contact{UserID: 77, FirstName: "Bob", LastName: "Stone", PhoneNumber: "+15550001"})
	assert.Equal(t, "✅ Bob Stone is now an administrator.", reply)

	assert.Equal(t, "⚙️ Admin panel", h.text(77, "/admin"))
	assert.Equal(t, "❌ you cannot remove yourself", h.press(77, cbAdminDeleteYes, "77"))
	assert.Equal(t, "🗑 Administrator removed.", h.press(ownerID, cbAdminDeleteYes, "77"))
	assert.Equal(t, msgAdminOnly, h.text(77, "/admin"))
}

func TestEditAdministratorField(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "What do you want to change?", h.press(ownerID, cbAdminEdit, formatInt(ownerID)))
	assert.Contains(t, h.press(ownerID, cbFlowOption, "display_name"), "customers will see")
	assert.Equal(t, "✅ Administrator updated.", h.text(ownerID, "Anna"))

	a, err := h.app.admins.Get(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", a.DisplayName)
}

func TestMalformedPayload(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, msgUnknownCallback, h.press(ownerID, cbBookEdit, "x"))
	assert.Equal(t, msgUnknownCallback, h.press(ownerID, cbOrderStatusSet, "1"))
	assert.Equal(t, "❌ book not found", h.press(ownerID, cbBookEdit, "42"))
}
