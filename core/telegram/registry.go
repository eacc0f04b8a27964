package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/gatekeeper/core/logger"
	"github.com/m3rciful/gatekeeper/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrInvalidCommand is returned for a command without name, handler or description.
	ErrInvalidCommand = errors.New("telegram: invalid command registration")
	// ErrInvalidCallback is returned for a callback without key or handler.
	ErrInvalidCallback = errors.New("telegram: invalid callback registration")
)

// Registry holds bot commands and callbacks. Commands are registered during
// wiring only; callbacks may be looked up concurrently.
type Registry struct {
	commands map[string]commands.Command
	// aliases maps every alias to its canonical command name.
	aliases map[string]string

	callbacksMu sync.RWMutex
	callbacks   map[string]tele.HandlerFunc

	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry. Unknown callbacks get an empty
// answer until SetCallbackNotFound replaces it.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		aliases:   make(map[string]string),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond()
		},
	}
}

func slashed(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "/") {
		return name
	}
	return "/" + name
}

func warnSkip(event, name, reason string) {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, event,
		slog.String("name", name),
		slog.String("reason", reason),
	)
}

// RegisterCommand adds cmd under name, which must start with "/". Aliases are
// indexed for LookupCommand; an alias taken by another command is skipped.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		warnSkip("register.command.skip", name, "invalid")
		return ErrInvalidCommand
	}
	if !strings.HasPrefix(name, "/") {
		warnSkip("register.command.skip", name, "no_slash_prefix")
		return fmt.Errorf("%w: %q has no leading slash", ErrInvalidCommand, name)
	}
	if _, exists := r.commands[name]; exists {
		warnSkip("register.command.duplicate", name, "exists")
		return fmt.Errorf("command already registered: %s", name)
	}
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		alias = slashed(alias)
		if alias == "" || alias == name {
			continue
		}
		if owner, taken := r.aliases[alias]; taken || r.commands[alias].Handler != nil {
			warnSkip("register.alias.skip", alias, "taken:"+owner)
			continue
		}
		r.aliases[alias] = name
	}
	return nil
}

// ListCommands returns the registered commands sorted by name, optionally
// only those visible in the menu. Names carry no leading slash, as
// setMyCommands expects.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for name, meta := range r.commands {
		if visibleOnly && !meta.Visible() {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves a name or alias, with or without the slash, to the
// canonical name and its command.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = slashed(name)
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	if canonical, ok := r.aliases[name]; ok {
		return canonical, r.commands[canonical], true
	}
	return "", commands.Command{}, false
}

// Commands returns all registered commands keyed by canonical name.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterCallback adds a callback handler mapped to its key.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if r == nil || key == "" || handler == nil {
		warnSkip("register.callback.skip", key, "invalid")
		return ErrInvalidCallback
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		warnSkip("register.callback.duplicate", key, "exists")
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler registered for key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the sorted callback keys.
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetCallbackNotFound replaces the handler for unknown callback keys.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that names no command.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// CommandSetter publishes the command menu. *tele.Bot implements it.
type CommandSetter interface {
	SetCommands(opts ...interface{}) error
}

// InitBotCommands publishes the visible commands as the bot menu.
// A failure is logged, not fatal.
func InitBotCommands(bot CommandSetter, reg *Registry) {
	if bot == nil || reg == nil {
		return
	}
	menu := reg.ListCommands(true)
	if len(menu) == 0 {
		return
	}
	ctx := context.Background()
	if err := bot.SetCommands(menu); err != nil {
		logger.TWire.LogAttrs(ctx, slog.LevelError, "register.commands.set_failed",
			slog.String("status", "fail"),
			slog.String("err", logger.RedactToken(err.Error())),
		)
		return
	}
	logger.TWire.LogAttrs(ctx, slog.LevelInfo, "register.commands.set",
		slog.String("status", "ok"),
		slog.Int("count", len(menu)),
	)
}
