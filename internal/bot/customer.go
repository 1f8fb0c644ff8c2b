package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/telegram/callbacks"
	"github.com/m3rciful/bookbot/core/telegram/commands"
	"github.com/m3rciful/bookbot/core/telegram/format"
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"
	"github.com/m3rciful/bookbot/internal/domain"
	"github.com/m3rciful/bookbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

func (a *App) registerCustomer() {
	a.registry.RegisterCommand("/start", commands.Command{Handler: a.start, Description: "Start the bot"})
	a.registry.RegisterCommand("/help", commands.Command{Handler: a.help, Description: "List commands"})
	a.registry.RegisterCommand("/menu", commands.Command{Handler: a.menu, Description: "Show the main menu", Aliases: []string{LabelBack}})
	a.registry.RegisterCommand("/gallery", commands.Command{Handler: a.gallery, Description: "Browse the books", Aliases: []string{LabelGallery}})
	a.registry.RegisterCommand("/order", commands.Command{Handler: a.orderMenu, Description: "Order a book", Aliases: []string{LabelOrder}})
	a.registry.RegisterCommand("/ask", commands.Command{Handler: a.ask, Description: "Ask an administrator", Aliases: []string{LabelAsk}})
	a.registry.RegisterCommand("/support", commands.Command{Handler: a.support, Description: "Contact technical support", Aliases: []string{LabelSupport}})
	a.registry.RegisterCommand("/myorders", commands.Command{Handler: a.myOrders, Description: "Track your orders", Aliases: []string{LabelMyOrders}})
	a.registry.RegisterCommand("/cancel", commands.Command{Handler: a.cancel, Description: "Cancel the current form", Aliases: []string{LabelCancel}})
}

func (a *App) registerCallbacks() error {
	if err := a.registerFlowCallbacks(); err != nil {
		return err
	}
	if err := a.registry.RegisterCallback(cbOrderBook, a.orderBook); err != nil {
		return err
	}
	return a.registerAdminCallbacks()
}

// start resets any unfinished form and greets the user.
func (a *App) start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := tghelpers.SenderID(c)
	if _, err := a.engine.Cancel(ctx, userID); err != nil {
		logger.Warn(ctx, "bot", "start.reset", logger.Err(err))
	}
	greeting, err := a.texts.Get(ctx, domain.TextGreeting)
	if err != nil {
		return a.fail(c, err)
	}
	return tghelpers.SendText(c, greeting, a.mainMenu(ctx, userID))
}

func (a *App) help(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := tghelpers.SenderID(c)
	isAdmin := a.admins.IsAdmin(ctx, userID)

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, cmd := range a.registry.ListCommands(!isAdmin) {
		fmt.Fprintf(&b, "/%s - %s\n", cmd.Text, cmd.Description)
	}
	return tghelpers.SendText(c, strings.TrimRight(b.String(), "\n"), a.mainMenu(ctx, userID))
}

func (a *App) menu(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return tghelpers.SendText(c, "🏠 Main menu", a.mainMenu(ctx, tghelpers.SenderID(c)))
}

func bookCaption(b domain.Book) string {
	return fmt.Sprintf("*%s*\n✍️ %s\n\n%s\n\n💰 %s\n📦 In stock: %d",
		format.MD(b.Name), format.MD(b.Author), format.MD(b.Description),
		b.Price.StringFixed(2), b.Quantity)
}

func (a *App) gallery(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	books, err := a.books.List(ctx)
	if err != nil {
		return a.fail(c, err)
	}
	if len(books) == 0 {
		return tghelpers.SendText(c, "The gallery is empty for now.")
	}
	intro, err := a.texts.Get(ctx, domain.TextGallery)
	if err != nil {
		return a.fail(c, err)
	}
	if err := tghelpers.SendText(c, intro); err != nil {
		return err
	}
	for _, b := range books {
		if err := tghelpers.SendPhoto(c, b.Photo, bookCaption(b), bookCardMarkup(b.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) orderMenu(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	books, err := a.books.List(ctx)
	if err != nil {
		return a.fail(c, err)
	}
	if len(books) == 0 {
		return tghelpers.SendText(c, "There are no books to order yet.")
	}
	pretext, err := a.texts.Get(ctx, domain.TextOrderPretext)
	if err != nil {
		return a.fail(c, err)
	}
	return tghelpers.SendText(c, pretext, orderBookMarkup(books))
}

// orderBook starts the order form for the pressed book.
func (a *App) orderBook(c tele.Context) error {
	id, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.SendText(c, msgUnknownCallback)
	}
	book, err := a.books.Get(tghelpers.BuildContext(c), id)
	if err != nil {
		return a.fail(c, err)
	}
	if err := tghelpers.SendText(c, fmt.Sprintf("🛒 Ordering \"%s\".", book.Info())); err != nil {
		return err
	}
	return a.startFlow(c, flow.Order, flow.Values{
		flow.KeyBookID:   formatInt(book.ID),
		flow.KeyBookInfo: book.Info(),
	})
}

func (a *App) ask(c tele.Context) error {
	return a.startFlow(c, flow.Question, nil)
}

// support addresses the question straight to the support contact.
func (a *App) support(c tele.Context) error {
	admin, err := a.dialogs.SupportContact(tghelpers.BuildContext(c))
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return tghelpers.SendText(c, "Support is not available right now, please try again later.")
		}
		return a.fail(c, err)
	}
	if err := tghelpers.SendText(c, "🆘 You are writing to "+admin.Title()+"."); err != nil {
		return err
	}
	return a.startFlow(c, flow.Question, flow.Values{flow.KeyTarget: formatInt(admin.UserID)})
}

func (a *App) myOrders(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	orders, err := a.orders.ForCustomer(ctx, tghelpers.SenderID(c))
	if err != nil {
		return a.fail(c, err)
	}
	if len(orders) == 0 {
		return tghelpers.SendText(c, "You have no orders yet.")
	}
	var b strings.Builder
	b.WriteString("📦 Your orders:")
	for _, o := range orders {
		fmt.Fprintf(&b, "\n\n#%d %s\n%s\nPlaced %s", o.ID, o.BookInfo, o.StatusLabel, o.CreatedAt.Format("02.01.2006"))
	}
	return tghelpers.SendText(c, b.String())
}

// forwardText relays free text to the customer's open dialog, if any.
func (a *App) forwardText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	d, ok, err := a.dialogs.Forward(ctx, tghelpers.SenderID(c), c.Text())
	if !ok {
		if err != nil {
			return a.fail(c, err)
		}
		return tghelpers.SendText(c, msgUnknownText, a.mainMenu(ctx, tghelpers.SenderID(c)))
	}
	if err != nil {
		if domain.IsKind(err, domain.KindDelivery) {
			return tghelpers.SendText(c, fmt.Sprintf("⚠️ Your message was saved to question #%d but the administrator could not be reached.", d.ID))
		}
		return a.fail(c, err)
	}
	return tghelpers.SendText(c, fmt.Sprintf("✉️ Sent to the administrator in question #%d.", d.ID))
}
