// Package dispatcher runs one inbound chat event through the conversation gate.
//
// For every event it loads the session, evaluates the gate rules, executes
// the resulting notifier and catalog calls one after another, and saves the
// session. Collaborator failures are logged and swallowed; only store
// failures are returned.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cataloguebot/whatsapp-gate/internal/catalog"
	"github.com/cataloguebot/whatsapp-gate/internal/gate"
	"github.com/cataloguebot/whatsapp-gate/internal/logger"
	"github.com/cataloguebot/whatsapp-gate/internal/storage"
)

// Notifier delivers a prompt to a customer.
type Notifier interface {
	Send(ctx context.Context, kind gate.Kind, identity string, vars map[string]string) error
}

// Searcher answers catalog queries.
type Searcher interface {
	Search(ctx context.Context, q catalog.Query) (catalog.Result, error)
}

// Outcome summarises what one event did.
type Outcome struct {
	Rule     gate.RuleName
	State    gate.State
	Sent     []gate.Kind
	Searched bool
	Failures int
}

// Dispatcher is safe for concurrent use when its collaborators are.
type Dispatcher struct {
	store    storage.SessionStore
	notifier Notifier
	searcher Searcher
	policy   gate.Policy
	pageSize int
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPolicy sets the search TTL and greeting.
func WithPolicy(p gate.Policy) Option {
	return func(d *Dispatcher) { d.policy = p }
}

// WithPageSize sets how many catalog items are requested per search.
func WithPageSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.pageSize = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithLogger sets the logger; nil keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// New creates a dispatcher.
func New(store storage.SessionStore, notifier Notifier, searcher Searcher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:    store,
		notifier: notifier,
		searcher: searcher,
		pageSize: catalog.DefaultPageSize,
		now:      time.Now,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(logger.Component("dispatcher"))
	return d
}

// Dispatch handles one event. The returned error is always a store failure.
func (d *Dispatcher) Dispatch(ctx context.Context, ev gate.Event) (Outcome, error) {
	start := time.Now()
	now := d.now()
	log := d.log.With(
		logger.EventID(eventIDFrom(ctx)),
		logger.Identity(ev.Identity),
		logger.Action(string(ev.Action)),
	)

	s, err := d.store.GetOrCreate(ctx, ev.Identity)
	if err != nil {
		log.Error("failed to load session", logger.Error(err))
		return Outcome{}, fmt.Errorf("load session: %w", err)
	}

	dec := gate.Evaluate(s, now, ev, d.policy)
	log = log.With(logger.Rule(string(dec.Rule)))

	out := Outcome{Rule: dec.Rule, State: dec.Session.State(now)}
	for _, eff := range dec.Effects {
		switch eff.Type {
		case gate.EffectNotify:
			d.notify(ctx, log, &out, ev.Identity, eff.Kind, eff.Vars)
		case gate.EffectSearch:
			d.search(ctx, log, &out, ev.Identity, eff.Query)
		}
	}

	if err := d.store.Save(ctx, dec.Session); err != nil {
		log.Error("failed to save session", logger.Error(err))
		return out, fmt.Errorf("save session: %w", err)
	}

	log.Debug("event dispatched",
		logger.State(string(out.State)),
		slog.Int("sent", len(out.Sent)),
		slog.Int("failures", out.Failures),
		logger.Elapsed(start),
	)
	return out, nil
}

func (d *Dispatcher) notify(ctx context.Context, log *slog.Logger, out *Outcome, identity string, kind gate.Kind, vars map[string]string) {
	err := guard(func() error {
		return d.notifier.Send(ctx, kind, identity, vars)
	})
	if err != nil {
		out.Failures++
		log.Warn("notifier failed", logger.Kind(string(kind)), logger.Error(err))
		return
	}
	out.Sent = append(out.Sent, kind)
}

func (d *Dispatcher) search(ctx context.Context, log *slog.Logger, out *Outcome, identity, query string) {
	out.Searched = true

	var res catalog.Result
	err := guard(func() error {
		var err error
		res, err = d.searcher.Search(ctx, catalog.Query{Text: query, ActiveOnly: true, PageSize: d.pageSize})
		return err
	})
	if err != nil {
		out.Failures++
		log.Warn("catalog search failed", slog.String("query", query), logger.Error(err))
		return
	}

	if res.Empty() {
		d.notify(ctx, log, out, identity, gate.KindNoResults, renderNoResults(query))
		return
	}
	d.notify(ctx, log, out, identity, gate.KindResults, renderResults(query, res))
}

// guard turns a collaborator panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
