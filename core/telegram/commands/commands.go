package commands

import tele "gopkg.in/telebot.v4"

// Command describes a slash command and the menu labels that trigger it.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are hidden from the public menu and gated by the admin check.
	AdminOnly bool
	Hidden    bool
	// Aliases are reply-keyboard labels matched verbatim against message text.
	Aliases []string
}
