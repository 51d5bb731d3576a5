package gate

import "time"

// Session is the per-identity conversation record. It is created lazily on
// first contact with every flag false and every timestamp nil.
type Session struct {
	Identity string `json:"identity"`

	SearchEnabled   bool       `json:"search_enabled"`
	SearchEnabledAt *time.Time `json:"search_enabled_at,omitempty"`

	MutedUntil   *time.Time `json:"muted_until,omitempty"`
	HardPaused   bool       `json:"hard_paused"`
	PauseForever bool       `json:"pause_forever"`
	PausedMode   string     `json:"paused_mode,omitempty"` // diagnostics only: "1h", "pending", "forever"
	PausedAt     *time.Time `json:"paused_at,omitempty"`

	WelcomeShown   bool       `json:"welcome_shown"`
	ResumeSentOnce bool       `json:"resume_sent_once"`
	ResumeSentAt   *time.Time `json:"resume_sent_at,omitempty"`
}

// NewSession returns the default record for an identity seen for the first time.
func NewSession(identity string) Session {
	return Session{Identity: identity}
}

// Pause modes recorded in PausedMode.
const (
	ModePending = "pending"
	ModeForever = "forever"
)

// IsPaused reports whether the bot must stay silent for this session.
//
// A forever pause always wins. When MutedUntil is set the pause is timed and
// its window alone decides; HardPaused marks the episode but does not extend
// it. Otherwise HardPaused means a pending pause that waits for resume.
func (s Session) IsPaused(now time.Time) bool {
	if s.PauseForever {
		return true
	}
	if s.MutedUntil != nil {
		return now.Before(*s.MutedUntil)
	}
	return s.HardPaused
}

// TimedPauseElapsed reports whether a timed pause has run out and still needs
// to be cleared.
func (s Session) TimedPauseElapsed(now time.Time) bool {
	return !s.PauseForever && s.MutedUntil != nil && !now.Before(*s.MutedUntil)
}

// EnableSearch routes subsequent free text to catalog search.
func (s Session) EnableSearch(now time.Time) Session {
	s.SearchEnabled = true
	s.SearchEnabledAt = timePtr(now)
	return s
}

// PausePending silences the bot until an explicit resume.
func (s Session) PausePending(now time.Time) Session {
	s.HardPaused = true
	s.MutedUntil = nil
	s.PausedMode = ModePending
	s.PausedAt = timePtr(now)
	return s.resetResumeGuard()
}

// MuteFor silences the bot for the given number of minutes. A forever pause is
// sticky and is returned unchanged; only Unmute clears it.
func (s Session) MuteFor(now time.Time, minutes int, mode string) Session {
	if s.PauseForever {
		return s
	}
	s.MutedUntil = timePtr(now.Add(time.Duration(minutes) * time.Minute))
	s.HardPaused = true
	s.PausedMode = mode
	s.PausedAt = timePtr(now)
	return s.resetResumeGuard()
}

// MuteForever silences the bot until an explicit resume. It clears MutedUntil
// so the two pause kinds never overlap.
func (s Session) MuteForever(now time.Time) Session {
	s.PauseForever = true
	s.HardPaused = true
	s.MutedUntil = nil
	s.PausedMode = ModeForever
	s.PausedAt = timePtr(now)
	return s.resetResumeGuard()
}

// Unmute clears every pause flag and restarts the welcome flow in one step.
func (s Session) Unmute() Session {
	s.MutedUntil = nil
	s.HardPaused = false
	s.PauseForever = false
	s.PausedMode = ""
	s.PausedAt = nil
	s.WelcomeShown = false
	return s.resetResumeGuard()
}

// MarkWelcomeShown records that the greeting went out for this epoch.
func (s Session) MarkWelcomeShown() Session {
	s.WelcomeShown = true
	return s
}

// MarkResumeSent records that the paused reminder went out for this episode.
func (s Session) MarkResumeSent(now time.Time) Session {
	s.ResumeSentOnce = true
	s.ResumeSentAt = timePtr(now)
	return s
}

// CheckExpiration turns search mode off once it is older than ttl.
func (s Session) CheckExpiration(now time.Time, ttl time.Duration) Session {
	if !s.SearchEnabled {
		return s
	}
	if s.SearchEnabledAt == nil || now.Sub(*s.SearchEnabledAt) > ttl {
		s.SearchEnabled = false
	}
	return s
}

// ReadRepair applies lazy expiry: an old search mode is switched off and an
// elapsed timed pause is cleared as if the customer had resumed.
func (s Session) ReadRepair(now time.Time, ttl time.Duration) Session {
	s = s.CheckExpiration(now, ttl)
	if s.TimedPauseElapsed(now) {
		s = s.Unmute()
	}
	return s
}

func (s Session) resetResumeGuard() Session {
	s.ResumeSentOnce = false
	s.ResumeSentAt = nil
	return s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
