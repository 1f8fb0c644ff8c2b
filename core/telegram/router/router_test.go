package router

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/bookbot/core/telegram"
	"github.com/m3rciful/bookbot/core/telegram/commands"
	"github.com/m3rciful/bookbot/core/telegram/middleware"
	"github.com/m3rciful/bookbot/core/telegram/teletest"
	"github.com/m3rciful/bookbot/core/telegram/ui"

	tele "gopkg.in/telebot.v4"
)

type fakeFSM struct {
	active  map[int64]bool
	handled []string
}

func (f *fakeFSM) InProgress(_ context.Context, id int64) bool { return f.active[id] }

func (f *fakeFSM) Handle(c tele.Context) error {
	f.handled = append(f.handled, c.Text())
	return nil
}

func route(t *testing.T, routes []tg.Route, endpoint string) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route for %q", endpoint)
	return nil
}

func TestMessageRoutesPrecedence(t *testing.T) {
	var ran []string
	reg := tg.NewRegistry()
	reg.RegisterCommand("/cancel", commands.Command{
		Description: "Cancel",
		Handler:     func(tele.Context) error { ran = append(ran, "cancel"); return nil },
		Aliases:     []string{"❌ Cancel"},
	})
	reg.SetTextFallback(func(c tele.Context) error { ran = append(ran, "fallback:"+c.Text()); return nil })

	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	text := route(t, MessageRoutes(fsm, reg, TextOptions{}), tele.OnText)

	require.NoError(t, text(teletest.Text(t, 1, "❌ Cancel")))
	require.NoError(t, text(teletest.Text(t, 1, "Ivan Petrov")))
	require.NoError(t, text(teletest.Text(t, 2, "hello")))

	assert.Equal(t, []string{"cancel", "fallback:hello"}, ran)
	assert.Equal(t, []string{"Ivan Petrov"}, fsm.handled)
}

func TestMessageRoutesGuardAdminAliases(t *testing.T) {
	ran := 0
	reg := tg.NewRegistry()
	reg.RegisterCommand("/orders", commands.Command{
		Description: "Orders",
		AdminOnly:   true,
		Handler:     func(tele.Context) error { ran++; return nil },
		Aliases:     []string{"📦 Orders"},
	})
	opts := TextOptions{Admin: middleware.AdminOptions{
		IsAdmin: func(_ context.Context, id int64) bool { return id == 10 },
	}}
	text := route(t, MessageRoutes(nil, reg, opts), tele.OnText)

	require.NoError(t, text(teletest.Text(t, 11, "📦 Orders")))
	require.NoError(t, text(teletest.Text(t, 10, "📦 Orders")))
	assert.Equal(t, 1, ran)
}

func TestMessageRoutesAttachments(t *testing.T) {
	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	fallback := ui.Replies{Document: "Unexpected file."}
	routes := MessageRoutes(fsm, nil, TextOptions{Fallback: fallback})

	require.NoError(t, route(t, routes, tele.OnPhoto)(teletest.Photo(t, 1, "fid")))
	assert.Len(t, fsm.handled, 1)

	c := teletest.Photo(t, 2, "fid")
	require.NoError(t, route(t, routes, tele.OnPhoto)(c))
	assert.Equal(t, "Unexpected file.", c.LastText())
}

func TestCallbackRoute(t *testing.T) {
	reg := tg.NewRegistry()
	got := ""
	require.NoError(t, reg.RegisterCallback("order_show", func(c tele.Context) error {
		got = c.Callback().Data
		return nil
	}))
	h := CallbackRoute(reg, ui.Replies{Callback: "This button has expired."}).Handler

	c := teletest.Callback(t, 1, "order_show", "9")
	require.NoError(t, h(c))
	assert.Equal(t, "9", got)
	assert.Equal(t, 1, c.Responses())

	unknown := teletest.Callback(t, 1, "gone", "")
	require.NoError(t, h(unknown))
	assert.Equal(t, "This button has expired.", unknown.LastText())
}

type codedErr struct{}

func (codedErr) Error() string { return "x" }
func (codedErr) Code() string  { return "not found" }

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", deriveErrorCode(fmt.Errorf("wrap: %w", codedErr{})))
	assert.Equal(t, "", deriveErrorCode(nil))
	assert.Equal(t, "callback.order_show", "callback."+normalizeHandlerName("Order_Show"))
}
