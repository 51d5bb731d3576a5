package gate

import "time"

// DefaultSearchTTL is how long search mode stays on without being re-enabled.
const DefaultSearchTTL = 1440 * time.Minute

// Policy carries the configurable parts of the gate.
type Policy struct {
	SearchTTL time.Duration
	Greeting  string
}

// TTL is the search TTL, falling back to DefaultSearchTTL.
func (p Policy) TTL() time.Duration {
	if p.SearchTTL <= 0 {
		return DefaultSearchTTL
	}
	return p.SearchTTL
}

func (p Policy) greeting() string {
	if p.Greeting == "" {
		return DefaultGreeting
	}
	return p.Greeting
}

// EffectType tags an Effect.
type EffectType int

const (
	EffectNotify EffectType = iota + 1
	EffectSearch
)

// Effect is a side effect requested by the gate and executed by the caller.
type Effect struct {
	Type  EffectType
	Kind  Kind              // EffectNotify
	Vars  map[string]string // EffectNotify
	Query string            // EffectSearch
}

// Notify builds a notifier effect.
func Notify(kind Kind, vars map[string]string) Effect {
	if vars == nil {
		vars = map[string]string{}
	}
	return Effect{Type: EffectNotify, Kind: kind, Vars: vars}
}

// Search builds a catalog search effect.
func Search(query string) Effect {
	return Effect{Type: EffectSearch, Query: query}
}

func text(body string) Effect {
	return Notify(KindPlainText, map[string]string{VarBody: body})
}

// RuleName identifies the routing rule that handled an event.
type RuleName string

const (
	RulePausedGate  RuleName = "paused_gate"
	RuleInteractive RuleName = "interactive_action"
	RuleWelcome     RuleName = "welcome_once"
	RuleSearch      RuleName = "search"
	RuleNone        RuleName = "none"
)

// Decision is the outcome of evaluating one event.
type Decision struct {
	Session Session
	Rule    RuleName
	Effects []Effect
}

type turn struct {
	session Session
	now     time.Time
	event   Event
	policy  Policy
}

type rule struct {
	name    RuleName
	matches func(t turn) bool
	apply   func(t turn) (Session, []Effect)
}

// rules is evaluated top to bottom; the first match handles the event.
var rules = []rule{
	{name: RulePausedGate, matches: pausedMatches, apply: applyPaused},
	{name: RuleInteractive, matches: interactiveMatches, apply: applyInteractive},
	{name: RuleWelcome, matches: welcomeMatches, apply: applyWelcome},
	{name: RuleSearch, matches: searchMatches, apply: applySearch},
}

// Evaluate decides what the bot does for one event. It is pure: the returned
// session must be persisted and the effects executed by the caller.
func Evaluate(s Session, now time.Time, ev Event, p Policy) Decision {
	t := turn{session: s.ReadRepair(now, p.TTL()), now: now, event: ev, policy: p}
	for _, r := range rules {
		if !r.matches(t) {
			continue
		}
		next, effects := r.apply(t)
		return Decision{Session: next, Rule: r.name, Effects: effects}
	}
	return Decision{Session: t.session, Rule: RuleNone}
}

func welcome(t turn, s Session) (Session, []Effect) {
	eff := Notify(KindWelcome, map[string]string{VarGreeting: t.policy.greeting()})
	return s.MarkWelcomeShown(), []Effect{eff}
}

func pausedMatches(t turn) bool {
	return t.session.IsPaused(t.now)
}

func applyPaused(t turn) (Session, []Effect) {
	if t.event.IsResume() {
		return welcome(t, t.session.Unmute())
	}
	if t.session.ResumeSentOnce {
		return t.session, nil
	}
	eff := Notify(KindResume, map[string]string{VarBody: textPausedReminder})
	return t.session.MarkResumeSent(t.now), []Effect{eff}
}

type actionHandler func(t turn) (Session, []Effect)

var actions = map[Action]actionHandler{
	ActionResume: func(t turn) (Session, []Effect) {
		return welcome(t, t.session.Unmute())
	},
	ActionPause: func(t turn) (Session, []Effect) {
		return t.session, []Effect{Notify(KindPauseOptions, map[string]string{VarBody: textPauseOptions})}
	},
	ActionPauseOneHour: func(t turn) (Session, []Effect) {
		return t.session.MuteFor(t.now, 60, "1h"), []Effect{text(textPausedOneHour)}
	},
	ActionPauseForever: func(t turn) (Session, []Effect) {
		return t.session.MuteForever(t.now), []Effect{text(textPausedForever)}
	},
	ActionPauseIndefinitely: func(t turn) (Session, []Effect) {
		eff := Notify(KindResume, map[string]string{VarBody: textPausedPending})
		return t.session.PausePending(t.now), []Effect{eff}
	},
	ActionStartSearch:  queryPrompt,
	ActionTryAgain:     queryPrompt,
	ActionQueryAgain:   queryPrompt,
	ActionShowExamples: enableWithText(textExampleQueries),
	ActionHelp:         enableWithText(textHelp),
}

func queryPrompt(t turn) (Session, []Effect) {
	eff := Notify(KindQueryPrompt, map[string]string{VarPrompt: textQueryPrompt})
	return t.session.EnableSearch(t.now), []Effect{eff}
}

func enableWithText(body string) actionHandler {
	return func(t turn) (Session, []Effect) {
		return t.session.EnableSearch(t.now), []Effect{text(body)}
	}
}

// IsKnownAction reports whether a has an entry in the action table.
func IsKnownAction(a Action) bool {
	_, ok := actions[a]
	return ok
}

func interactiveMatches(t turn) bool {
	return t.event.Interactive && IsKnownAction(t.event.Action)
}

func applyInteractive(t turn) (Session, []Effect) {
	return actions[t.event.Action](t)
}

func welcomeMatches(t turn) bool {
	return !t.session.WelcomeShown
}

// applyWelcome stops here even when the first message carries a query.
func applyWelcome(t turn) (Session, []Effect) {
	return welcome(t, t.session)
}

func searchMatches(t turn) bool {
	return t.session.SearchEnabled && t.event.Text != ""
}

func applySearch(t turn) (Session, []Effect) {
	return t.session, []Effect{Search(t.event.Text)}
}
