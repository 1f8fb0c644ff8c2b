// Package bot wires the bookstore services into the Telegram runtime:
// commands, menu aliases, inline callbacks and form flows.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/bookbot/core/bootstrap"
	"github.com/m3rciful/bookbot/core/cmd"
	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/metrics"
	tg "github.com/m3rciful/bookbot/core/telegram"
	tghelpers "github.com/m3rciful/bookbot/core/telegram/helpers"
	"github.com/m3rciful/bookbot/core/telegram/middleware"
	"github.com/m3rciful/bookbot/core/telegram/router"
	"github.com/m3rciful/bookbot/core/telegram/state"
	"github.com/m3rciful/bookbot/internal/config"
	"github.com/m3rciful/bookbot/internal/domain"
	"github.com/m3rciful/bookbot/internal/flow"
	"github.com/m3rciful/bookbot/internal/service"
	"github.com/m3rciful/bookbot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

// App is the assembled bot.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	redis    redis.UniversalClient
	health   map[string]metrics.HealthFunc
	notifier service.Notifier

	books   *service.Books
	orders  *service.Orders
	dialogs *service.Dialogs
	admins  *service.Admins
	texts   *service.Texts

	engine   *flow.Engine
	registry *tg.Registry
}

// New builds the services over store and registers every handler.
// sessions holds flow state; notifier reaches users outside the current chat.
func New(cfg *config.Config, store *storage.Store, sessions state.Manager, notifier service.Notifier) (*App, error) {
	if cfg == nil || store == nil || sessions == nil || notifier == nil {
		return nil, errors.New("bot: config, store, sessions and notifier are required")
	}
	a := &App{
		cfg:      cfg,
		health:   map[string]metrics.HealthFunc{"database": store.Ping},
		notifier: notifier,
		books:    service.NewBooks(store.Books),
		admins:   service.NewAdmins(store.Admins),
		texts:    service.NewTexts(store.Texts),
		registry: tg.NewRegistry(),
	}
	a.orders = service.NewOrders(store.Orders, store.Statuses, store.Books, store.Admins, notifier)
	a.dialogs = service.NewDialogs(store.Dialogs, store.Admins, notifier, cfg.Support.Role)
	a.engine = flow.NewEngine(sessions, flow.Catalog(flow.Services{
		Books:   a.books,
		Orders:  a.orders,
		Admins:  a.admins,
		Texts:   a.texts,
		Dialogs: a.dialogs,
	})...)

	a.registerCustomer()
	a.registerAdmin()
	if err := a.registerCallbacks(); err != nil {
		return nil, err
	}
	a.registry.SetTextFallback(a.forwardText)
	return a, nil
}

// Bootstrap connects the infrastructure and returns the runnable app.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Seeders: []bootstrap.Seeder{
			bootstrap.SeederFunc("order_statuses", func(ctx context.Context, db *sqlx.DB) error {
				_, err := storage.New(db, nil).Statuses.Seed(ctx, domain.DefaultStatuses())
				return err
			}),
			bootstrap.SeederFunc("bootstrap_admin", func(ctx context.Context, db *sqlx.DB) error {
				return service.NewAdmins(storage.New(db, nil).Admins).EnsureBootstrap(ctx, cfg.Telegram.AdminID)
			}),
		},
	})
	if err != nil {
		return nil, err
	}

	store := storage.New(res.DB, nil)
	sessions, client, err := openSessions(ctx, cfg.Session)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}

	a, err := New(cfg, store, sessions, NewNotifier())
	if err != nil {
		_ = res.DB.Close()
		if client != nil {
			_ = client.Close()
		}
		return nil, err
	}
	a.db = res.DB
	if client != nil {
		a.redis = client
		a.health["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return a, nil
}

func openSessions(ctx context.Context, cfg config.SessionConfig) (state.Manager, redis.UniversalClient, error) {
	if cfg.Backend != config.SessionBackendRedis {
		logger.LogEvent(ctx, logger.FSM, slog.LevelInfo, "session.store",
			slog.String("backend", config.SessionBackendMemory),
			slog.Duration("ttl", cfg.TTLDuration()),
		)
		return state.NewMemoryManager(cfg.TTLDuration()), nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	mgr := state.NewRedisManager(client, cfg.Redis.Prefix, cfg.TTLDuration())
	if err := mgr.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("bot: redis session store: %w", err)
	}
	logger.LogEvent(ctx, logger.FSM, slog.LevelInfo, "session.store",
		slog.String("backend", config.SessionBackendRedis),
		slog.String("addr", cfg.Redis.Addr),
		slog.Duration("ttl", cfg.TTLDuration()),
	)
	return mgr, client, nil
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, onLimited),
		Routes:      a.Routes,
		OnStart: func(ctx context.Context, _ tg.Runtime) error {
			go func() {
				if err := metrics.Serve(ctx, a.cfg.Metrics.Listen, a.health); err != nil {
					logger.Error(ctx, "metrics", "serve", logger.Err(err))
				}
			}()
			return nil
		},
	}, nil
}

// Routes binds the notifier to bot and returns the handler table.
func (a *App) Routes(bot *tele.Bot) []tg.Route {
	if b, ok := a.notifier.(interface{ Bind(*tele.Bot) }); ok {
		b.Bind(bot)
	}
	admin := a.adminOptions()
	fallback := a.replies()
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{Admin: admin})
	routes = append(routes, router.MessageRoutes(a, a.registry, router.TextOptions{Fallback: fallback, Admin: admin})...)
	return append(routes, router.CallbackRoute(a.registry, fallback))
}

// Close releases the database pool and the Redis client.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) adminOptions() middleware.AdminOptions {
	return middleware.AdminOptions{
		IsAdmin: a.admins.IsAdmin,
		OnReject: func(c tele.Context) error {
			return tghelpers.SendText(c, msgAdminOnly)
		},
	}
}

func onLimited(c tele.Context) error {
	return tghelpers.SendText(c, msgSlowDown)
}

// InProgress implements router.FSM.
func (a *App) InProgress(ctx context.Context, userID int64) bool {
	return a.engine.InProgress(ctx, userID)
}

// Handle implements router.FSM by feeding the message to the active flow.
func (a *App) Handle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	res, err := a.engine.Submit(ctx, tghelpers.SenderID(c), inputOf(c))
	if err != nil {
		return a.fail(c, err)
	}
	return a.render(c, res)
}

func inputOf(c tele.Context) flow.Input {
	in := flow.Input{Text: c.Text()}
	msg := c.Message()
	if msg == nil {
		return in
	}
	if msg.Photo != nil {
		in.PhotoID = msg.Photo.FileID
	}
	if ct := msg.Contact; ct != nil {
		in.Contact = &flow.Contact{
			UserID:    ct.UserID,
			FirstName: ct.FirstName,
			LastName:  ct.LastName,
			Phone:     ct.PhoneNumber,
		}
	}
	return in
}

// fail tells the user what went wrong. Expected failures are handled here;
// storage and transport failures are returned for the router to log.
func (a *App) fail(c tele.Context, err error) error {
	_ = tghelpers.SendText(c, "❌ "+domain.Message(err))
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindNotFound:
		return nil
	}
	return err
}
