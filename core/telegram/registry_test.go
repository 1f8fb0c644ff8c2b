package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/bookbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryLookupCommand(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	reg.RegisterCommand("/gallery", commands.Command{Handler: noop, Description: "Books", Aliases: []string{"📚 Gallery"}})

	key, _, ok := reg.LookupCommand("/start@bookbot payload")
	require.True(t, ok)
	assert.Equal(t, "/start", key)

	key, _, ok = reg.LookupCommand("📚 Gallery")
	require.True(t, ok)
	assert.Equal(t, "/gallery", key)

	_, _, ok = reg.LookupCommand("start")
	assert.False(t, ok)
	_, _, ok = reg.LookupCommand("📚 Gallery please")
	assert.False(t, ok)
}

func TestRegistryRejectsInvalidCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "x"})
	reg.RegisterCommand("/nodesc", commands.Command{Handler: noop})
	reg.RegisterCommand("/ok", commands.Command{Handler: noop, Description: "ok"})
	reg.RegisterCommand("/ok", commands.Command{Handler: noop, Description: "dup"})

	cmds := reg.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "ok", cmds["/ok"].Description)
}

func TestRegistryListCommandsHidesAdmin(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	reg.RegisterCommand("/admin", commands.Command{Handler: noop, Description: "Admin", AdminOnly: true})
	reg.RegisterCommand("/cancel", commands.Command{Handler: noop, Description: "Cancel"})

	assert.Equal(t, []tele.Command{
		{Text: "cancel", Description: "Cancel"},
		{Text: "start", Description: "Start"},
	}, reg.ListCommands(true))
	assert.Len(t, reg.ListCommands(false), 3)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("book_show", noop))
	assert.Error(t, reg.RegisterCallback("book_show", noop))
	assert.Error(t, reg.RegisterCallback("", noop))

	_, ok := reg.GetCallback("book_show")
	assert.True(t, ok)
	assert.Equal(t, []string{"book_show"}, reg.ListCallbacks())
}
