package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/bookbot/core/telegram/callbacks"
	"github.com/m3rciful/bookbot/core/telegram/commands"
	"github.com/m3rciful/bookbot/core/telegram/format"
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"
	"github.com/m3rciful/bookbot/core/telegram/middleware"
	"github.com/m3rciful/bookbot/internal/domain"
	"github.com/m3rciful/bookbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

var textTitles = map[domain.TextKind]string{
	domain.TextGreeting:     "👋 Greeting",
	domain.TextGallery:      "📚 Gallery intro",
	domain.TextOrderPretext: "🛒 Order intro",
}

func (a *App) registerAdmin() {
	admin := func(name, desc string, h tele.HandlerFunc, alias string) {
		a.registry.RegisterCommand(name, commands.Command{Handler: h, Description: desc, AdminOnly: true, Aliases: []string{alias}})
	}
	admin("/admin", "Open the admin panel", a.adminPanel, LabelAdmin)
	admin("/books", "Manage books", a.listBooks, LabelBooks)
	admin("/orders", "Manage orders", a.listOrders, LabelOrders)
	admin("/texts", "Edit bot texts", a.listTexts, LabelTexts)
	admin("/admins", "Manage administrators", a.listAdmins, LabelAdmins)
	admin("/dialogs", "Open customer questions", a.listDialogs, LabelDialogs)
}

func (a *App) registerAdminCallbacks() error {
	guard := middleware.AdminOnlyMiddleware(a.adminOptions())
	handlers := map[string]tele.HandlerFunc{
		cbBookAdd:        a.bookAdd,
		cbBookEdit:       a.bookEdit,
		cbBookDelete:     a.bookDelete,
		cbBookDeleteYes:  a.bookDeleteConfirmed,
		cbOrderStatus:    a.orderStatus,
		cbOrderStatusSet: a.orderStatusSet,
		cbOrderDelete:    a.orderDelete,
		cbOrderDeleteYes: a.orderDeleteConfirmed,
		cbTextEdit:       a.textEdit,
		cbAdminAdd:       a.adminAdd,
		cbAdminEdit:      a.adminEdit,
		cbAdminDelete:    a.adminDelete,
		cbAdminDeleteYes: a.adminDeleteConfirmed,
		cbDialogReply:    a.dialogReply,
		cbDialogClose:    a.dialogClose,
		cbDialogHistory:  a.dialogHistory,
		cbConfirmNo:      a.confirmNo,
	}
	for key, h := range handlers {
		if err := a.registry.RegisterCallback(key, guard(h)); err != nil {
			return err
		}
	}
	return nil
}

// payloadID reads a single id from the pressed button; a malformed payload
// is answered as an outdated button.
func payloadID(c tele.Context) (int64, bool) {
	id, err := callbacks.PayloadInt64(c)
	if err != nil || id == 0 {
		_ = tghelpers.SendText(c, msgUnknownCallback)
		return 0, false
	}
	return id, true
}

func (a *App) adminPanel(c tele.Context) error {
	return tghelpers.SendText(c, "⚙️ Admin panel", adminMenu())
}

func (a *App) confirmNo(c tele.Context) error {
	return tghelpers.SendText(c, "Okay, nothing was deleted.")
}

// Books

func (a *App) listBooks(c tele.Context) error {
	books, err := a.books.List(tghelpers.BuildContext(c))
	if err != nil {
		return a.fail(c, err)
	}
	header := fmt.Sprintf("📚 Books in the gallery: %d", len(books))
	if err := tghelpers.SendText(c, header, singleButton("➕ Add a book", cbBookAdd)); err != nil {
		return err
	}
	for _, b := range books {
		if err := tghelpers.SendPhoto(c, b.Photo, bookCaption(b), bookAdminMarkup(b.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) bookAdd(c tele.Context) error {
	return a.startFlow(c, flow.BookCreate, nil)
}

func (a *App) bookEdit(c tele.Context) error {
	id, ok := payloadID(c)
	if !ok {
		return nil
	}
	b, err := a.books.Get(tghelpers.BuildContext(c), id)
	if err != nil {
		return a.fail(c, err)
	}
	if err := tghelpers.SendText(c, fmt.Sprintf("✏️ Editing \"%s\".", b.Name)); err != nil {
		return err
	}
	return a.startFlow(c, flow.BookEdit, flow.Values{flow.KeyBookID: formatInt(b.ID)})
}

func (a *App) bookDelete(c tele.Context) error {
	id, ok := payloadID(c)
	if !ok {
		return nil
	}
	b, err := a.books.Get(tghelpers.BuildContext(c), id)
	if err != nil {
		return a.fail(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("Delete \"%s\" from the gallery? Existing orders keep its title.", b.Name),
		confirmMarkup(cbBookDeleteYes, b.ID))
}

func (a *App) bookDeleteConfirmed(c tele.Context) error {
	id, ok := payloadID(c)
	if !ok {
		return nil
	}
	if err := a.books.Delete(tghelpers.BuildContext(c), id); err != nil {
		return a.fail(c, err)
	}
	return tghelpers.SendText(c, "🗑 Book deleted.")
}

// Orders

func orderCard(o domain.Order) string {
	return fmt.Sprintf("📦 Order #%d\n📚 %s\n👤 %s\n🏠 %s\n📞 %s\n%s\n🕒 %s\n🔄 Updated %s",
		o.ID, o.BookInfo, o.FullName, o.Address, o.Phone, o.StatusLabel,
		o.CreatedAt.Format("02.01.2006 15:04"), o.UpdatedAt.Format("02.01.2006 15:04"))
}

func (a *App) listOrders(c tele.Context) error {
	orders, err := a.orders.List(tghelpers.BuildContext(c))
	if err != nil {
		return a.fail(c, err)
	}
	if len(orders) == 0 {
		return tghelpers.SendText(c, "No orders yet.")
	}
	for _, o := range orders {
		if err := tghelpers.SendText(c, orderCard(o), orderAdminMarkup(o.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) orderStatus(c tele.Context) error {
	id, ok := payloadID(c)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	o, err := a.orders.Get(ctx, id)
	if err != nil {
		return a.fail(c, err)
	}
	statuses, err := a.orders.Statuses(ctx)
	if err != nil {
		return a.fail(c, err)
	}
	return tghelpers.EditOrSendMD(c, fmt.Sprintf("*Order #%d* is %s.\nChoose the new status:", o.ID, format.MD(o.StatusLabel)),
		statusMarkup(o.ID, statuses))
}

// orderStatusSet applies "<statusID>|<orderID>" and reports whether the customer was told.
func (a *App) orderStatusSet(c tele.Context) error {
	ids, err := callbacks.PayloadInt64s(c, 2)
	if err != nil {
		return tghelpers.SendText(c, msgUnknownCallback)
	}
	tr, err := a.orders.SetStatus(tghelpers.BuildContext(c), ids[1], ids[0])
	if err != nil {
		return a.fail(c, err)
	}
	text := fmt.Sprintf("✅ Order #%d is now %s.", tr.Order.ID, tr.Status.Label())
	if tr.DeliveryErr != nil {
		text += "\n⚠️ The customer could not be notified."
	}
	return tghelpers.SendText(c, text)
}

func (a *App) orderDelete(c tele.Context) error {
	id, ok := payloadID(c)
	if !ok {
		return nil
	}
	o, err := a.orders.Get(tghelpers.BuildContext(c), id)
	if err != nil {
		return a.fail(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("Delete order #%d (%s)?", o.ID, o.BookInfo), confirmMarkup(cbOrderDeleteYes, o.ID))
}

func (a *App) orderDeleteConfirmed(c tele.Context) error {
	id, ok := payloadID(c)
	if !ok {
		return nil
	}
	if err := a.orders.Delete(tghelpers.BuildContext(c), id); err != nil {
		return a.fail(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("🗑 Order #%d deleted.", id))
}

// Texts

func (a *App) listTexts(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	for _, kind := range domain.TextKinds() {
		body, err := a.texts.Get(ctx, kind)
		if err != nil {
			return a.fail(c, err)
		}
		if err := tghelpers.SendText(c, textTitles[kind]+":\n\n"+body, textEditMarkup(kind)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) textEdit(c tele.Context) error {
	kind := domain.TextKind(callbacks.CallbackPayload(c))
	if !kind.Valid() {
		return tghelpers.SendText(c, msgUnknownCallback)
	}
	return a.startFlow(c, flow.TextEdit, flow.Values{flow.KeyKind: string(kind)})
}

// Admins

func adminCard(ad domain.Admin) string {
	display := ad.DisplayName
	if display == "" {
		display = "hidden from customers"
	}
	return fmt.Sprintf("👤 %s\n🆔 %d\n📞 %s\n🎭 %s\n🏷 %s", ad.UserName, ad.UserID, ad.Phone, ad.Role, display)
}

func (a *App) listAdmins(c tele.Context) error {
	admins, err := a.admins.List(tghelpers.BuildContext(c))
	if err != nil {
		return a.fail(c, err)
	}
	header := fmt.Sprintf("👥 Administrators: %d", len(admins))
	if err := tghelpers.SendText(c, header, singleButton("➕ Add an administrator", cbAdminAdd)); err != nil {
		return err
	}
	for _, ad := range admins {
		if err := tghelpers.SendText(c, adminCard(ad), adminAdminMarkup(ad.UserID)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) adminAdd(c tele.Context) error {
	return a.startFlow(c, flow.AdminAdd, nil)
}

func (a *App) adminEdit(c tele.Context) error {
	userID, ok := payloadID(c)
	if !ok {
		return nil
	}
	ad, err := a.admins.Get(tghelpers.BuildContext(c), userID)
	if err != nil {
		return a.fail(c, err)
	}
	return a.startFlow(c, flow.AdminEdit, flow.Values{flow.KeyUserID: formatInt(ad.UserID)})
}

func (a *App) adminDelete(c tele.Context) error {
	userID, ok := payloadID(c)
	if !ok {
		return nil
	}
	ad, err := a.admins.Get(tghelpers.BuildContext(c), userID)
	if err != nil {
		return a.fail(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("Remove %s from administrators?", ad.Title()), confirmMarkup(cbAdminDeleteYes, ad.UserID))
}

func (a *App) adminDeleteConfirmed(c tele.Context) error {
	userID, ok := payloadID(c)
	if !ok {
		return nil
	}
	if err := a.admins.Delete(tghelpers.BuildContext(c), userID, tghelpers.SenderID(c)); err != nil {
		return a.fail(c, err)
	}
	return tghelpers.SendText(c, "🗑 Administrator removed.")
}

// Dialogs

func dialogCard(d domain.Dialog) string {
	text := fmt.Sprintf("💬 Question #%d from %d\n%s", d.ID, d.CustomerID, d.Question)
	if d.Answer != "" {
		text += "\n\nLast answer:\n" + d.Answer
	}
	return text
}

func (a *App) listDialogs(c tele.Context) error {
	dialogs, err := a.dialogs.OpenDialogs(tghelpers.BuildContext(c), tghelpers.SenderID(c))
	if err != nil {
		return a.fail(c, err)
	}
	if len(dialogs) == 0 {
		return tghelpers.SendText(c, "No open questions.")
	}
	for _, d := range dialogs {
		if err := tghelpers.SendText(c, dialogCard(d), dialogMarkup(d.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) dialogReply(c tele.Context) error {
	id, ok := payloadID(c)
	if !ok {
		return nil
	}
	d, err := a.dialogs.Get(tghelpers.BuildContext(c), id)
	if err != nil {
		return a.fail(c, err)
	}
	if d.IsClosed {
		return tghelpers.SendText(c, fmt.Sprintf("Question #%d is already closed.", d.ID))
	}
	return a.startFlow(c, flow.Reply, flow.Values{flow.KeyDialogID: formatInt(d.ID)})
}

func (a *App) dialogClose(c tele.Context) error {
	id, ok := payloadID(c)
	if !ok {
		return nil
	}
	d, err := a.dialogs.Close(tghelpers.BuildContext(c), id)
	if err != nil {
		return a.fail(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("✅ Question #%d closed.", d.ID))
}

func (a *App) dialogHistory(c tele.Context) error {
	id, ok := payloadID(c)
	if !ok {
		return nil
	}
	msgs, err := a.dialogs.History(tghelpers.BuildContext(c), id)
	if err != nil {
		return a.fail(c, err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📜 *Question #%d*", id)
	for _, m := range msgs {
		who := "👤 Customer"
		if m.Role == domain.AuthorAdmin {
			who = "🛠 Admin"
		}
		fmt.Fprintf(&b, "\n\n_%s, %s:_\n%s", who, m.CreatedAt.Format("02.01 15:04"), format.MD(m.Body))
	}
	return tghelpers.SendMD(c, b.String())
}
