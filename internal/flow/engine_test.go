package flow

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/bookbot/core/telegram/state"
	"github.com/m3rciful/bookbot/internal/domain"
)

const actor int64 = 42

type fakeBooks struct {
	created []domain.Book
	updates [][3]string
	err     error
}

func (f *fakeBooks) Create(_ context.Context, b domain.Book) (domain.Book, error) {
	if f.err != nil {
		return domain.Book{}, f.err
	}
	b.ID = int64(len(f.created) + 1)
	f.created = append(f.created, b)
	return b, nil
}

func (f *fakeBooks) UpdateField(_ context.Context, id int64, field, value string) error {
	f.updates = append(f.updates, [3]string{formatID(id), field, value})
	return f.err
}

type fakeOrders struct{ drafts []domain.OrderDraft }

func (f *fakeOrders) Place(_ context.Context, d domain.OrderDraft) (domain.Order, error) {
	f.drafts = append(f.drafts, d)
	return domain.Order{ID: 7, CustomerID: d.CustomerID, BookInfo: "Dune - Herbert"}, nil
}

type fakeAdmins struct {
	askable []domain.Admin
	added   []domain.Admin
}

func (f *fakeAdmins) RegisterContact(_ context.Context, a domain.Admin) (domain.Admin, error) {
	f.added = append(f.added, a)
	return a, nil
}

func (f *fakeAdmins) UpdateField(context.Context, int64, string, string) error { return nil }

func (f *fakeAdmins) Askable(context.Context) ([]domain.Admin, error) { return f.askable, nil }

type fakeTexts struct{ bodies map[domain.TextKind]string }

func (f *fakeTexts) Set(_ context.Context, kind domain.TextKind, body string) error {
	f.bodies[kind] = body
	return nil
}

type fakeDialogs struct {
	asked    []string
	answered []string
	err      error
}

func (f *fakeDialogs) Ask(_ context.Context, _, _ int64, q string) (domain.Dialog, error) {
	f.asked = append(f.asked, q)
	return domain.Dialog{ID: 1}, f.err
}

func (f *fakeDialogs) Answer(_ context.Context, _, _ int64, text string) (domain.Dialog, error) {
	f.answered = append(f.answered, text)
	return domain.Dialog{ID: 1}, f.err
}

type fixture struct {
	engine   *Engine
	sessions state.Manager
	books    *fakeBooks
	orders   *fakeOrders
	admins   *fakeAdmins
	texts    *fakeTexts
	dialogs  *fakeDialogs
}

func newFixture() *fixture {
	f := &fixture{
		sessions: state.NewMemoryManager(0),
		books:    &fakeBooks{},
		orders:   &fakeOrders{},
		admins:   &fakeAdmins{},
		texts:    &fakeTexts{bodies: map[domain.TextKind]string{}},
		dialogs:  &fakeDialogs{},
	}
	f.engine = NewEngine(f.sessions, Catalog(Services{
		Books:   f.books,
		Orders:  f.orders,
		Admins:  f.admins,
		Texts:   f.texts,
		Dialogs: f.dialogs,
	})...)
	return f
}

func submitText(t *testing.T, e *Engine, text string) Result {
	t.Helper()
	res, err := e.Submit(context.Background(), actor, Input{Text: text})
	require.NoError(t, err)
	return res
}

func TestBookCreateCollectsEveryField(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.engine.Start(ctx, actor, BookCreate, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomePrompt, res.Outcome)
	assert.Equal(t, KeyName, res.Field)

	assert.Equal(t, KeyAuthor, submitText(t, f.engine, "Test").Field)
	res = submitText(t, f.engine, "A")
	assert.Equal(t, OutcomeInvalid, res.Outcome, "author min length is 2")
	assert.Equal(t, KeyAuthor, res.Field)
	res = submitText(t, f.engine, "Ab")
	assert.Equal(t, KeyPrice, res.Field)
	assert.Equal(t, KeyDesc, submitText(t, f.engine, "9,99").Field)
	assert.Equal(t, KeyPhoto, submitText(t, f.engine, "0123456789").Field)

	res, err = f.engine.Submit(ctx, actor, Input{PhotoID: "fid1"})
	require.NoError(t, err)
	assert.Equal(t, KeyQuantity, res.Field)

	res = submitText(t, f.engine, "3")
	assert.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Contains(t, res.Message, "Test")
	assert.False(t, f.engine.InProgress(ctx, actor))

	require.Len(t, f.books.created, 1)
	b := f.books.created[0]
	assert.Equal(t, "Test", b.Name)
	assert.Equal(t, "Ab", b.Author)
	assert.Equal(t, "9.99", b.Price.StringFixed(2))
	assert.Equal(t, "0123456789", b.Description)
	assert.Equal(t, "fid1", b.Photo)
	assert.Equal(t, 3, b.Quantity)
}

func TestInvalidInputKeepsStateAndNeverPersists(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.engine.Start(ctx, actor, BookCreate, Values{KeyName: "Test", KeyAuthor: "Author"})
	require.NoError(t, err)

	for _, bad := range []string{"abc", "-1", "0", "", "1.234"} {
		res := submitText(t, f.engine, bad)
		assert.Equal(t, OutcomeInvalid, res.Outcome, bad)
		assert.Equal(t, KeyPrice, res.Field)
		assert.NotEmpty(t, res.Message)
		assert.NotEmpty(t, res.Prompt.Text, "invalid input re-asks the field")
	}
	assert.Empty(t, f.books.created)

	sess, err := f.sessions.Get(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "book_create:price", sess.State)
	assert.Equal(t, "Test", sess.TempData[KeyName])
	_, stored := sess.TempData[KeyPrice]
	assert.False(t, stored)
}

func TestStartSkipsSeededFields(t *testing.T) {
	f := newFixture()
	res, err := f.engine.Start(context.Background(), actor, BookEdit, Values{KeyBookID: "5"})
	require.NoError(t, err)
	assert.Equal(t, KeyField, res.Field)
	assert.Len(t, res.Prompt.Options, len(BookFields))

	res = submitText(t, f.engine, "Price")
	assert.Equal(t, KeyValue, res.Field)
	assert.Contains(t, res.Prompt.Text, "price")

	res = submitText(t, f.engine, "12,5")
	require.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, [][3]string{{"5", "price", "12.50"}}, f.books.updates)
}

func TestBookEditValidatesAgainstChosenField(t *testing.T) {
	f := newFixture()
	_, err := f.engine.Start(context.Background(), actor, BookEdit, Values{KeyBookID: "5", KeyField: KeyQuantity})
	require.NoError(t, err)

	assert.Equal(t, OutcomeInvalid, submitText(t, f.engine, "many").Outcome)
	assert.Equal(t, OutcomeCommitted, submitText(t, f.engine, "0").Outcome)
	assert.Equal(t, [][3]string{{"5", "quantity", "0"}}, f.books.updates)
}

func TestOrderFlowUsesActorAndSeed(t *testing.T) {
	f := newFixture()
	_, err := f.engine.Start(context.Background(), actor, Order, Values{KeyBookID: "2", KeyBookInfo: "Dune - Herbert"})
	require.NoError(t, err)

	submitText(t, f.engine, "fio")
	submitText(t, f.engine, "address 1")
	res := submitText(t, f.engine, "+7 999 000-00-00")
	require.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Contains(t, res.Message, "#7")

	require.Len(t, f.orders.drafts, 1)
	assert.Equal(t, domain.OrderDraft{
		CustomerID: actor, BookID: 2, FullName: "fio", Address: "address 1", Phone: "+7 999 000-00-00",
	}, f.orders.drafts[0])
}

// slowSessions widens the window between loading and clearing a session.
type slowSessions struct {
	state.Manager
	delay time.Duration
}

func (s slowSessions) Get(ctx context.Context, userID int64) (*state.Session, error) {
	time.Sleep(s.delay)
	return s.Manager.Get(ctx, userID)
}

func TestConcurrentSubmitsCommitOnce(t *testing.T) {
	f := newFixture()
	f.engine = NewEngine(slowSessions{Manager: f.sessions, delay: 20 * time.Millisecond}, Catalog(Services{
		Books:   f.books,
		Orders:  f.orders,
		Admins:  f.admins,
		Texts:   f.texts,
		Dialogs: f.dialogs,
	})...)
	_, err := f.engine.Start(context.Background(), actor, Order, Values{
		KeyBookID: "2", KeyBookInfo: "Dune - Herbert", KeyFullName: "fio", KeyAddress: "address 1",
	})
	require.NoError(t, err)

	outcomes := make([]Outcome, 2)
	var wg sync.WaitGroup
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.engine.Submit(context.Background(), actor, Input{Text: "79990000000"})
			assert.NoError(t, err)
			outcomes[i] = res.Outcome
		}(i)
	}
	wg.Wait()

	assert.Len(t, f.orders.drafts, 1)
	assert.ElementsMatch(t, []Outcome{OutcomeCommitted, OutcomeIdle}, outcomes)
}

func TestCommitFailureAbortsAndClears(t *testing.T) {
	f := newFixture()
	f.books.err = domain.NotFound("books.update_field", "book")
	_, err := f.engine.Start(context.Background(), actor, BookEdit, Values{KeyBookID: "9", KeyField: KeyName})
	require.NoError(t, err)

	res := submitText(t, f.engine, "New name")
	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.Equal(t, "book not found", res.Message)
	assert.True(t, domain.IsKind(res.Err, domain.KindNotFound))
	assert.False(t, f.engine.InProgress(context.Background(), actor))
}

func TestDeliveryFailureStillCommits(t *testing.T) {
	f := newFixture()
	f.dialogs.err = domain.Delivery("dialogs.answer", 100, errors.New("blocked"))
	_, err := f.engine.Start(context.Background(), actor, Reply, Values{KeyDialogID: "3"})
	require.NoError(t, err)

	res := submitText(t, f.engine, "hello")
	assert.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, "✅ Answer saved.", res.Message)
	assert.True(t, domain.IsKind(res.Err, domain.KindDelivery))
	assert.Equal(t, []string{"hello"}, f.dialogs.answered)
}

func TestQuestionWithoutAdminsAborts(t *testing.T) {
	f := newFixture()
	res, err := f.engine.Start(context.Background(), actor, Question, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.Equal(t, "No administrator is available right now.", res.Message)
	assert.False(t, f.engine.InProgress(context.Background(), actor))
}

func TestQuestionPicksAskableAdmin(t *testing.T) {
	f := newFixture()
	f.admins.askable = []domain.Admin{{UserID: 100, DisplayName: "Anna"}}
	res, err := f.engine.Start(context.Background(), actor, Question, nil)
	require.NoError(t, err)
	require.Len(t, res.Prompt.Options, 1)
	assert.Equal(t, Option{Label: "Anna", Value: "100"}, res.Prompt.Options[0])

	assert.Equal(t, OutcomeInvalid, submitText(t, f.engine, "999").Outcome)
	assert.Equal(t, KeyQuestion, submitText(t, f.engine, "100").Field)
	assert.Equal(t, OutcomeCommitted, submitText(t, f.engine, "Is it in stock?").Outcome)
	assert.Equal(t, []string{"Is it in stock?"}, f.dialogs.asked)
}

func TestAdminAddTakesContactDetails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.engine.Start(ctx, actor, AdminAdd, nil)
	require.NoError(t, err)

	res, err := f.engine.Submit(ctx, actor, Input{Text: "not a contact"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, res.Outcome)

	res, err = f.engine.Submit(ctx, actor, Input{Contact: &Contact{UserID: 555, FirstName: "Ivan", LastName: "P", Phone: "+100"}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, []domain.Admin{{UserID: 555, UserName: "Ivan P", Phone: "+100"}}, f.admins.added)
}

func TestTextEditRequiresFiveCharacters(t *testing.T) {
	f := newFixture()
	_, err := f.engine.Start(context.Background(), actor, TextEdit, Values{KeyKind: string(domain.TextGreeting)})
	require.NoError(t, err)

	assert.Equal(t, OutcomeInvalid, submitText(t, f.engine, "Hi").Outcome)
	assert.Equal(t, OutcomeCommitted, submitText(t, f.engine, "Welcome!").Outcome)
	assert.Equal(t, "Welcome!", f.texts.bodies[domain.TextGreeting])
}

func TestStartReplacesActiveFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.engine.Start(ctx, actor, BookCreate, nil)
	require.NoError(t, err)
	_, err = f.engine.Start(ctx, actor, TextEdit, Values{KeyKind: string(domain.TextGallery)})
	require.NoError(t, err)

	kind, ok, err := f.engine.Active(ctx, actor)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, TextEdit, kind)
}

func TestCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cancelled, err := f.engine.Cancel(ctx, actor)
	require.NoError(t, err)
	assert.False(t, cancelled, "nothing to cancel")

	_, err = f.engine.Start(ctx, actor, BookCreate, nil)
	require.NoError(t, err)
	cancelled, err = f.engine.Cancel(ctx, actor)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.False(t, f.engine.InProgress(ctx, actor))
	assert.Empty(t, f.books.created)
}

func TestSubmitWithoutFlowIsIdle(t *testing.T) {
	f := newFixture()
	assert.Equal(t, OutcomeIdle, submitText(t, f.engine, "hello").Outcome)
}

func TestStaleSessionAborts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, actor, &state.Session{State: "retired_flow:field"}))

	res := submitText(t, f.engine, "x")
	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.Equal(t, MsgStale, res.Message)
	assert.False(t, f.engine.InProgress(ctx, actor))
}

func TestStartUnknownKind(t *testing.T) {
	f := newFixture()
	_, err := f.engine.Start(context.Background(), actor, Kind("nope"), nil)
	assert.Error(t, err)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
