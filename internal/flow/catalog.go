package flow

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/bookbot/internal/domain"
)

// Scratch keys shared with the bot layer, which seeds some of them.
const (
	KeyBookID   = "book_id"
	KeyBookInfo = "book_info"
	KeyUserID   = "user_id"
	KeyField    = "field"
	KeyValue    = "value"
	KeyKind     = "kind"
	KeyText     = "text"
	KeyTarget   = "target"
	KeyQuestion = "question"
	KeyDialogID = "dialog_id"
	KeyAnswer   = "answer"
	KeyContact  = "contact"
	KeyName     = "name"
	KeyPhone    = "phone"
	KeyAuthor   = "author"
	KeyPrice    = "price"
	KeyDesc     = "description"
	KeyPhoto    = "photo"
	KeyQuantity = "quantity"
	KeyFullName = "full_name"
	KeyAddress  = "address"
)

const commitOp = "flow.commit"

// BookService is what the book flows need from the catalog.
type BookService interface {
	Create(ctx context.Context, b domain.Book) (domain.Book, error)
	UpdateField(ctx context.Context, id int64, field, value string) error
}

// OrderService places orders.
type OrderService interface {
	Place(ctx context.Context, draft domain.OrderDraft) (domain.Order, error)
}

// AdminService manages administrators.
type AdminService interface {
	RegisterContact(ctx context.Context, a domain.Admin) (domain.Admin, error)
	UpdateField(ctx context.Context, userID int64, field, value string) error
	Askable(ctx context.Context) ([]domain.Admin, error)
}

// TextService stores editable texts.
type TextService interface {
	Set(ctx context.Context, kind domain.TextKind, body string) error
}

// DialogService runs support dialogs.
type DialogService interface {
	Ask(ctx context.Context, customerID, adminID int64, question string) (domain.Dialog, error)
	Answer(ctx context.Context, dialogID, adminID int64, text string) (domain.Dialog, error)
}

// Services are the commit targets of the flow catalog.
type Services struct {
	Books   BookService
	Orders  OrderService
	Admins  AdminService
	Texts   TextService
	Dialogs DialogService
}

// BookFields are the editable book columns in menu order.
var BookFields = []Option{
	{Label: "Name", Value: KeyName},
	{Label: "Author", Value: KeyAuthor},
	{Label: "Price", Value: KeyPrice},
	{Label: "Description", Value: KeyDesc},
	{Label: "Photo", Value: KeyPhoto},
	{Label: "Quantity", Value: KeyQuantity},
}

// AdminFields are the editable admin columns in menu order.
var AdminFields = []Option{
	{Label: "Name", Value: "user_name"},
	{Label: "Phone", Value: KeyPhone},
	{Label: "Role", Value: "role"},
	{Label: "Display name", Value: "display_name"},
}

type fieldSpec struct {
	prompt   string
	validate Validator
}

var bookFieldSpecs = map[string]fieldSpec{
	KeyName:     {"Enter the book name:", MinLen(2, "Name")},
	KeyAuthor:   {"Enter the author:", MinLen(2, "Author")},
	KeyPrice:    {"Enter the price, for example 499.90:", Price},
	KeyDesc:     {"Enter the description:", MinLen(10, "Description")},
	KeyPhoto:    {"Send the cover photo:", Photo},
	KeyQuantity: {"Enter the number of copies in stock:", Quantity},
}

var adminFieldSpecs = map[string]fieldSpec{
	"user_name":    {"Enter the new name:", MinLen(2, "Name")},
	KeyPhone:       {"Enter the new phone number:", Phone},
	"role":         {"Enter the role (admin or tech_support):", role},
	"display_name": {"Enter the name customers will see, or - to hide the admin from the question list:", displayName},
}

var textTitles = map[domain.TextKind]string{
	domain.TextGreeting:     "greeting",
	domain.TextGallery:      "gallery",
	domain.TextOrderPretext: "order",
}

// Catalog returns every flow of the bot wired to svc.
func Catalog(svc Services) []Flow {
	return []Flow{
		bookCreateFlow(svc.Books),
		bookEditFlow(svc.Books),
		adminEditFlow(svc.Admins),
		adminAddFlow(svc.Admins),
		orderFlow(svc.Orders),
		textEditFlow(svc.Texts),
		questionFlow(svc.Admins, svc.Dialogs),
		replyFlow(svc.Dialogs),
	}
}

func specField(name string, specs map[string]fieldSpec) Field {
	s := specs[name]
	return Field{Name: name, Prompt: Ask(s.prompt), Validate: s.validate}
}

func bookCreateFlow(books BookService) Flow {
	fields := make([]Field, 0, len(BookFields))
	for _, o := range BookFields {
		fields = append(fields, specField(o.Value, bookFieldSpecs))
	}
	return Flow{
		Kind:   BookCreate,
		Fields: fields,
		Commit: func(ctx context.Context, _ int64, v Values) (string, error) {
			price, err := decimal.NewFromString(v[KeyPrice])
			if err != nil {
				return "", domain.Validation(commitOp, "invalid price")
			}
			qty, err := strconv.Atoi(v[KeyQuantity])
			if err != nil {
				return "", domain.Validation(commitOp, "invalid quantity")
			}
			b, err := books.Create(ctx, domain.Book{
				Name:        v[KeyName],
				Author:      v[KeyAuthor],
				Price:       price,
				Description: v[KeyDesc],
				Photo:       v[KeyPhoto],
				Quantity:    qty,
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ Book \"%s\" added to the gallery.", b.Name), nil
		},
	}
}

// chosenValue validates the value field against the spec of the chosen column.
func chosenValue(specs map[string]fieldSpec) Field {
	return Field{
		Name: KeyValue,
		Prompt: func(_ context.Context, v Values) (Prompt, error) {
			s, ok := specs[v[KeyField]]
			if !ok {
				return Prompt{}, domain.Validation(commitOp, MsgStale)
			}
			return Prompt{Text: s.prompt}, nil
		},
		Validate: func(ctx context.Context, in Input, v Values) (string, error) {
			s, ok := specs[v[KeyField]]
			if !ok {
				return "", domain.Validation(commitOp, MsgStale)
			}
			return s.validate(ctx, in, v)
		},
	}
}

func bookEditFlow(books BookService) Flow {
	return Flow{
		Kind: BookEdit,
		Fields: []Field{
			{Name: KeyField, Prompt: Choose("What do you want to change?", BookFields...), Validate: OneOf(BookFields...)},
			chosenValue(bookFieldSpecs),
		},
		Commit: func(ctx context.Context, _ int64, v Values) (string, error) {
			id, err := seededID(v, KeyBookID)
			if err != nil {
				return "", err
			}
			if err := books.UpdateField(ctx, id, v[KeyField], v[KeyValue]); err != nil {
				return "", err
			}
			return "✅ Book updated.", nil
		},
	}
}

func adminEditFlow(admins AdminService) Flow {
	return Flow{
		Kind: AdminEdit,
		Fields: []Field{
			{Name: KeyField, Prompt: Choose("What do you want to change?", AdminFields...), Validate: OneOf(AdminFields...)},
			chosenValue(adminFieldSpecs),
		},
		Commit: func(ctx context.Context, _ int64, v Values) (string, error) {
			userID, err := seededID(v, KeyUserID)
			if err != nil {
				return "", err
			}
			if err := admins.UpdateField(ctx, userID, v[KeyField], v[KeyValue]); err != nil {
				return "", err
			}
			return "✅ Administrator updated.", nil
		},
	}
}

func adminAddFlow(admins AdminService) Flow {
	return Flow{
		Kind: AdminAdd,
		Fields: []Field{{
			Name:     KeyContact,
			Prompt:   Ask("Share the contact of the new administrator (📎 → Contact):"),
			Validate: SharedContact,
			Extra: func(in Input) Values {
				return Values{KeyName: in.Contact.Name(), KeyPhone: in.Contact.Phone}
			},
		}},
		Commit: func(ctx context.Context, _ int64, v Values) (string, error) {
			userID, err := seededID(v, KeyContact)
			if err != nil {
				return "", err
			}
			a, err := admins.RegisterContact(ctx, domain.Admin{UserID: userID, UserName: v[KeyName], Phone: v[KeyPhone]})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ %s is now an administrator.", a.Title()), nil
		},
	}
}

func orderFlow(orders OrderService) Flow {
	return Flow{
		Kind: Order,
		Fields: []Field{
			{Name: KeyFullName, Prompt: Ask("Enter your full name:"), Validate: MinLen(2, "Full name")},
			{Name: KeyAddress, Prompt: Ask("Enter the delivery address:"), Validate: MinLen(5, "Address")},
			{Name: KeyPhone, Prompt: Ask("Enter your phone number:"), Validate: Phone},
		},
		Commit: func(ctx context.Context, actor int64, v Values) (string, error) {
			bookID, err := seededID(v, KeyBookID)
			if err != nil {
				return "", err
			}
			o, err := orders.Place(ctx, domain.OrderDraft{
				CustomerID: actor,
				BookID:     bookID,
				FullName:   v[KeyFullName],
				Address:    v[KeyAddress],
				Phone:      v[KeyPhone],
			})
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("✅ Order #%d for \"%s\" is accepted. We will message you when its status changes.", o.ID, o.BookInfo), nil
		},
	}
}

func textEditFlow(texts TextService) Flow {
	return Flow{
		Kind: TextEdit,
		Fields: []Field{{
			Name: KeyText,
			Prompt: func(_ context.Context, v Values) (Prompt, error) {
				title, ok := textTitles[domain.TextKind(v[KeyKind])]
				if !ok {
					return Prompt{}, domain.Validation(commitOp, MsgStale)
				}
				return Prompt{Text: fmt.Sprintf("Send the new %s text:", title)}, nil
			},
			Validate: MinLen(5, "Text"),
		}},
		Commit: func(ctx context.Context, _ int64, v Values) (string, error) {
			if err := texts.Set(ctx, domain.TextKind(v[KeyKind]), v[KeyText]); err != nil {
				return "", err
			}
			return "✅ Text updated.", nil
		},
	}
}

func askableOptions(ctx context.Context, admins AdminService) ([]Option, error) {
	list, err := admins.Askable(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, &domain.Error{Kind: domain.KindNotFound, Op: "flow.question", Msg: "No administrator is available right now."}
	}
	out := make([]Option, 0, len(list))
	for _, a := range list {
		out = append(out, Option{Label: a.Title(), Value: strconv.FormatInt(a.UserID, 10)})
	}
	return out, nil
}

func questionFlow(admins AdminService, dialogs DialogService) Flow {
	return Flow{
		Kind: Question,
		Fields: []Field{
			{
				Name: KeyTarget,
				Prompt: func(ctx context.Context, _ Values) (Prompt, error) {
					opts, err := askableOptions(ctx, admins)
					if err != nil {
						return Prompt{}, err
					}
					return Prompt{Text: "Whom do you want to ask?", Options: opts}, nil
				},
				Validate: func(ctx context.Context, in Input, _ Values) (string, error) {
					opts, err := askableOptions(ctx, admins)
					if err != nil {
						return "", err
					}
					return matchOption(opts, in.Text)
				},
			},
			{Name: KeyQuestion, Prompt: Ask("Type your question:"), Validate: NonEmpty("Question")},
		},
		Commit: func(ctx context.Context, actor int64, v Values) (string, error) {
			target, err := seededID(v, KeyTarget)
			if err != nil {
				return "", err
			}
			if _, err := dialogs.Ask(ctx, actor, target, v[KeyQuestion]); err != nil {
				if domain.IsKind(err, domain.KindDelivery) {
					return "", &domain.Error{Kind: domain.KindDelivery, Op: commitOp,
						Msg: "The administrator could not be reached, please try again later.", Err: err}
				}
				return "", err
			}
			return "✅ Your question has been sent. The answer will arrive in this chat.", nil
		},
	}
}

func replyFlow(dialogs DialogService) Flow {
	return Flow{
		Kind:   Reply,
		Fields: []Field{{Name: KeyAnswer, Prompt: Ask("Type your answer:"), Validate: NonEmpty("Answer")}},
		Commit: func(ctx context.Context, actor int64, v Values) (string, error) {
			dialogID, err := seededID(v, KeyDialogID)
			if err != nil {
				return "", err
			}
			if _, err := dialogs.Answer(ctx, dialogID, actor, v[KeyAnswer]); err != nil {
				if domain.IsKind(err, domain.KindDelivery) {
					return "✅ Answer saved.", &domain.Error{Kind: domain.KindDelivery, Op: commitOp,
						Msg: "The customer could not be notified.", Err: err}
				}
				return "", err
			}
			return "✅ Answer sent.", nil
		},
	}
}

func role(_ context.Context, in Input, _ Values) (string, error) {
	r := strings.ToLower(strings.TrimSpace(in.Text))
	if r == "" || strings.ContainsAny(r, " \t") {
		return "", domain.Validation(validateOp, "Role must be a single word, for example admin or tech_support.")
	}
	return r, nil
}

func displayName(ctx context.Context, in Input, v Values) (string, error) {
	if strings.TrimSpace(in.Text) == "-" {
		return "", nil
	}
	return MinLen(2, "Display name")(ctx, in, v)
}

func seededID(v Values, key string) (int64, error) {
	id, err := strconv.ParseInt(v[key], 10, 64)
	if err != nil || id == 0 {
		return 0, domain.Validation(commitOp, MsgStale)
	}
	return id, nil
}
