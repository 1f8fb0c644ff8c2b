package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands, menu aliases and callback handlers.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]commands.Command
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

func skip(event string, attrs ...slog.Attr) {
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, event, attrs...)
}

// RegisterCommand adds a slash command. Invalid and duplicate registrations are logged and ignored.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		skip("register.command.skip", slog.String("name", name), slog.String("reason", "invalid"))
		return
	}
	if name[0] != '/' {
		skip("register.command.skip", slog.String("name", name), slog.String("reason", "no_slash_prefix"))
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		skip("register.command.duplicate", slog.String("name", name))
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns the command menu, optionally without hidden and admin-only commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []tele.Command
	for name, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves message text to a command. Slash text matches by
// name (arguments and @botname are ignored); other text must equal an alias exactly.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", commands.Command{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if strings.HasPrefix(text, "/") {
		name, _, _ := strings.Cut(text, " ")
		name, _, _ = strings.Cut(name, "@")
		if cmd, ok := r.commands[name]; ok {
			return name, cmd, true
		}
	}
	for name, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == text {
				return name, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// Commands returns a snapshot of all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterCallback maps a button unique key to its handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if r == nil || key == "" || handler == nil {
		skip("register.callback.skip", slog.String("key", key), slog.Bool("handler_nil", handler == nil))
		return fmt.Errorf("invalid callback registration: %q", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		skip("register.callback.duplicate", slog.String("key", key))
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns sorted keys for diagnostics.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that matched no command and no flow.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// InitBotCommands publishes the public command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelError, "register.commands.set_failed",
			slog.String("status", "fail"),
			logger.Err(err),
		)
		return
	}
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "register.commands.set",
		slog.String("status", "ok"),
		slog.Int("commands", len(list)),
	)
}
