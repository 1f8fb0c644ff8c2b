package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/metrics"
	"github.com/m3rciful/bookbot/core/telegram/state"
	"github.com/m3rciful/bookbot/internal/domain"
)

// User-facing texts of the engine itself.
const (
	MsgCancelled       = "Cancelled."
	MsgNothingToCancel = "Nothing to cancel."
	MsgStale           = "This form is no longer available, please start again."
)

// Engine drives flows over a session store. Each actor has at most one active
// flow, and the steps of one actor run one at a time.
type Engine struct {
	sessions state.Manager
	flows    map[Kind]Flow
	locks    sync.Map // actor id -> *sync.Mutex
}

// NewEngine registers flows. A later flow with the same kind replaces an earlier one.
func NewEngine(sessions state.Manager, flows ...Flow) *Engine {
	e := &Engine{sessions: sessions, flows: make(map[Kind]Flow, len(flows))}
	for _, f := range flows {
		e.flows[f.Kind] = f
	}
	return e
}

// Start begins kind for actor, replacing any flow in progress. Seed values
// are stored as already answered fields.
func (e *Engine) Start(ctx context.Context, actor int64, kind Kind, seed Values) (Result, error) {
	f, ok := e.flows[kind]
	if !ok {
		return Result{}, fmt.Errorf("flow: unknown kind %q", kind)
	}
	defer e.lock(actor)()
	values := Values{}
	for k, v := range seed {
		values[k] = v
	}
	logger.LogEvent(ctx, logger.FSM, slog.LevelDebug, "flow.start",
		slog.String("flow", string(kind)),
		slog.Int64("user_id", actor),
	)
	return e.advance(ctx, actor, f, 0, values)
}

// Submit feeds one input to the active flow of actor.
func (e *Engine) Submit(ctx context.Context, actor int64, in Input) (Result, error) {
	defer e.lock(actor)()
	sess, err := e.sessions.Get(ctx, actor)
	if err != nil {
		return Result{}, fmt.Errorf("flow: load session: %w", err)
	}
	if !sess.Active() {
		return Result{Outcome: OutcomeIdle}, nil
	}

	kind, fieldName, ok := parseToken(sess.State)
	f, known := e.flows[kind]
	idx, hasField := f.field(fieldName)
	if !ok || !known || !hasField {
		return e.abort(ctx, actor, kind, domain.Validation("flow.submit", MsgStale))
	}
	field := f.Fields[idx]
	values := Values(sess.Clone().TempData)

	value, err := field.Validate(ctx, in, values)
	if err != nil {
		if !domain.IsKind(err, domain.KindValidation) {
			return e.abort(ctx, actor, kind, err)
		}
		// The session is saved unchanged to refresh its inactivity timer.
		if err := e.sessions.Save(ctx, actor, sess); err != nil {
			return Result{}, fmt.Errorf("flow: save session: %w", err)
		}
		res := Result{Outcome: OutcomeInvalid, Flow: kind, Field: field.Name, Message: domain.Message(err), Err: err}
		if res.Prompt, err = field.Prompt(ctx, values); err != nil {
			return e.abort(ctx, actor, kind, err)
		}
		e.observe(ctx, actor, res)
		return res, nil
	}

	values[field.Name] = value
	if field.Extra != nil {
		for k, v := range field.Extra(in) {
			values[k] = v
		}
	}
	return e.advance(ctx, actor, f, idx+1, values)
}

// Cancel drops the active flow of actor and reports whether there was one.
func (e *Engine) Cancel(ctx context.Context, actor int64) (bool, error) {
	defer e.lock(actor)()
	sess, err := e.sessions.Get(ctx, actor)
	if err != nil {
		return false, fmt.Errorf("flow: load session: %w", err)
	}
	if !sess.Active() {
		return false, nil
	}
	if err := e.sessions.Clear(ctx, actor); err != nil {
		return false, fmt.Errorf("flow: clear session: %w", err)
	}
	kind, _, _ := parseToken(sess.State)
	metrics.ObserveFlow(string(kind), "cancelled")
	logger.LogEvent(ctx, logger.FSM, slog.LevelDebug, "flow.cancel",
		slog.String("flow", string(kind)),
		slog.Int64("user_id", actor),
	)
	return true, nil
}

// Active returns the flow in progress for actor, if any.
func (e *Engine) Active(ctx context.Context, actor int64) (Kind, bool, error) {
	sess, err := e.sessions.Get(ctx, actor)
	if err != nil {
		return "", false, fmt.Errorf("flow: load session: %w", err)
	}
	if !sess.Active() {
		return "", false, nil
	}
	kind, _, _ := parseToken(sess.State)
	return kind, true, nil
}

// InProgress reports whether actor has an active flow. Store errors count as idle.
func (e *Engine) InProgress(ctx context.Context, actor int64) bool {
	_, ok, err := e.Active(ctx, actor)
	if err != nil {
		logger.LogEvent(ctx, logger.FSM, slog.LevelWarn, "flow.session_error", logger.Err(err))
		return false
	}
	return ok
}

// lock holds the actor's mutex across load, validate and save or commit.
func (e *Engine) lock(actor int64) func() {
	v, _ := e.locks.LoadOrStore(actor, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// advance asks the next missing field from index from, or commits when none is left.
func (e *Engine) advance(ctx context.Context, actor int64, f Flow, from int, values Values) (Result, error) {
	field, ok := f.next(from, values)
	if !ok {
		return e.commit(ctx, actor, f, values)
	}
	prompt, err := field.Prompt(ctx, values)
	if err != nil {
		return e.abort(ctx, actor, f.Kind, err)
	}
	sess := &state.Session{State: token(f.Kind, field.Name), TempData: values}
	if err := e.sessions.Save(ctx, actor, sess); err != nil {
		return Result{}, fmt.Errorf("flow: save session: %w", err)
	}
	res := Result{Outcome: OutcomePrompt, Flow: f.Kind, Field: field.Name, Prompt: prompt}
	e.observe(ctx, actor, res)
	return res, nil
}

// commit clears the session before storing so a repeated submit cannot commit twice.
// Delivery failures happen after the record is stored and keep the committed outcome.
func (e *Engine) commit(ctx context.Context, actor int64, f Flow, values Values) (Result, error) {
	if err := e.sessions.Clear(ctx, actor); err != nil {
		return Result{}, fmt.Errorf("flow: clear session: %w", err)
	}
	msg, err := f.Commit(ctx, actor, values)
	if err != nil && !domain.IsKind(err, domain.KindDelivery) {
		res := Result{Outcome: OutcomeAborted, Flow: f.Kind, Message: domain.Message(err), Err: err}
		e.observe(ctx, actor, res)
		return res, nil
	}
	res := Result{Outcome: OutcomeCommitted, Flow: f.Kind, Message: msg, Err: err}
	e.observe(ctx, actor, res)
	return res, nil
}

func (e *Engine) abort(ctx context.Context, actor int64, kind Kind, cause error) (Result, error) {
	if err := e.sessions.Clear(ctx, actor); err != nil {
		return Result{}, fmt.Errorf("flow: clear session: %w", err)
	}
	res := Result{Outcome: OutcomeAborted, Flow: kind, Message: domain.Message(cause), Err: cause}
	e.observe(ctx, actor, res)
	return res, nil
}

func (e *Engine) observe(ctx context.Context, actor int64, res Result) {
	metrics.ObserveFlow(string(res.Flow), string(res.Outcome))
	attrs := []slog.Attr{
		slog.String("flow", string(res.Flow)),
		slog.String("outcome", string(res.Outcome)),
		slog.Int64("user_id", actor),
	}
	if res.Field != "" {
		attrs = append(attrs, slog.String("field", res.Field))
	}
	level := slog.LevelDebug
	if res.Err != nil {
		attrs = append(attrs, logger.Err(res.Err))
		if res.Outcome != OutcomeInvalid {
			level = slog.LevelWarn
		}
	}
	logger.LogEvent(ctx, logger.FSM, level, "flow.step", attrs...)
}
