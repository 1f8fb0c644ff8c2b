// Package teletest builds telebot contexts for handler tests without network access.
package teletest

import (
	"sync"
	"testing"

	tele "gopkg.in/telebot.v4"
)

// Context records outbound calls and delegates everything else to a native
// context created by an offline bot.
type Context struct {
	tele.Context

	mu        sync.Mutex
	sent      []any
	responses int
}

// New returns a Context for upd.
func New(t testing.TB, upd tele.Update) *Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true, Synchronous: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	return &Context{Context: b.NewContext(upd)}
}

// Text returns a Context carrying a private text message from userID.
func Text(t testing.TB, userID int64, text string) *Context {
	return New(t, tele.Update{ID: 1, Message: message(userID, func(m *tele.Message) { m.Text = text })})
}

// Photo returns a Context carrying a photo message with the given file id.
func Photo(t testing.TB, userID int64, fileID string) *Context {
	return New(t, tele.Update{ID: 1, Message: message(userID, func(m *tele.Message) {
		m.Photo = &tele.Photo{File: tele.File{FileID: fileID}}
	})})
}

// Contact returns a Context carrying a shared contact.
func Contact(t testing.TB, userID int64, contact tele.Contact) *Context {
	return New(t, tele.Update{ID: 1, Message: message(userID, func(m *tele.Message) { m.Contact = &contact })})
}

// Callback returns a Context carrying an inline button press.
func Callback(t testing.TB, userID int64, unique, data string) *Context {
	return New(t, tele.Update{ID: 1, Callback: &tele.Callback{
		ID:      "cb",
		Sender:  &tele.User{ID: userID},
		Unique:  unique,
		Data:    data,
		Message: message(userID, nil),
	}})
}

func message(userID int64, fill func(*tele.Message)) *tele.Message {
	m := &tele.Message{
		ID:     1,
		Sender: &tele.User{ID: userID, Username: "user"},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
	}
	if fill != nil {
		fill(m)
	}
	return m
}

func (c *Context) record(what any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, what)
	return nil
}

func (c *Context) Send(what any, _ ...any) error        { return c.record(what) }
func (c *Context) Reply(what any, _ ...any) error       { return c.record(what) }
func (c *Context) Edit(what any, _ ...any) error        { return c.record(what) }
func (c *Context) EditOrSend(what any, _ ...any) error  { return c.record(what) }
func (c *Context) EditOrReply(what any, _ ...any) error { return c.record(what) }

func (c *Context) Respond(_ ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses++
	return nil
}

// Sent returns the outbound payloads in order.
func (c *Context) Sent() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.sent...)
}

// Texts returns the outbound payloads that were strings or photo captions.
func (c *Context) Texts() []string {
	var out []string
	for _, s := range c.Sent() {
		switch v := s.(type) {
		case string:
			out = append(out, v)
		case *tele.Photo:
			out = append(out, v.Caption)
		}
	}
	return out
}

// LastText returns the most recent text reply or "".
func (c *Context) LastText() string {
	texts := c.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

// Responses reports how many callback answers were sent.
func (c *Context) Responses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responses
}
