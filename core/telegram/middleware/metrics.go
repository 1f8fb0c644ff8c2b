package middleware

import tele "gopkg.in/telebot.v4"

const (
	messagesKey = "messages"
	keyboardKey = "kb"
)

// countingContext wraps tele.Context to count replies and keyboard usage
// for the handler summary line.
type countingContext struct{ tele.Context }

func (m countingContext) count(err error, opts []any) error {
	if err != nil {
		return err
	}
	n, _ := m.Get(messagesKey).(int)
	m.Set(messagesKey, n+1)
	if hasKeyboard(opts) {
		m.Set(keyboardKey, true)
	}
	return nil
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m countingContext) Send(what any, opts ...any) error {
	return m.count(m.Context.Send(what, opts...), opts)
}

func (m countingContext) Reply(what any, opts ...any) error {
	return m.count(m.Context.Reply(what, opts...), opts)
}

func (m countingContext) Edit(what any, opts ...any) error {
	return m.count(m.Context.Edit(what, opts...), opts)
}

func (m countingContext) EditOrSend(what any, opts ...any) error {
	return m.count(m.Context.EditOrSend(what, opts...), opts)
}

func (m countingContext) EditOrReply(what any, opts ...any) error {
	return m.count(m.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware instruments the context to track replies and keyboard usage.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(messagesKey, 0)
		c.Set(keyboardKey, false)
		return next(countingContext{Context: c})
	}
}

// GetCounters reads the reply count and keyboard flag recorded for this update.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return msgs, kb
}
