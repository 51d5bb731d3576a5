package gate

import "time"

// State is the conceptual conversation state derived from the session flags.
type State string

const (
	StateActive        State = "ACTIVE"
	StateSearchEnabled State = "SEARCH_ENABLED"
	StatePausedPending State = "PAUSED_PENDING"
	StatePausedTimed   State = "PAUSED_TIMED"
	StatePausedForever State = "PAUSED_FOREVER"
)

// State derives the current state. Pauses take precedence over search mode.
func (s Session) State(now time.Time) State {
	switch {
	case s.PauseForever:
		return StatePausedForever
	case s.MutedUntil != nil && now.Before(*s.MutedUntil):
		return StatePausedTimed
	case s.MutedUntil == nil && s.HardPaused:
		return StatePausedPending
	case s.SearchEnabled:
		return StateSearchEnabled
	default:
		return StateActive
	}
}

// IsPausedState reports whether st is one of the paused states.
func (st State) IsPausedState() bool {
	return st == StatePausedPending || st == StatePausedTimed || st == StatePausedForever
}
