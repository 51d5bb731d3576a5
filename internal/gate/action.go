package gate

import "strings"

// Action is a normalised button payload.
type Action string

const (
	ActionResume            Action = "resume"
	ActionPause             Action = "pause"
	ActionPauseOneHour      Action = "pause 1 hour"
	ActionPauseForever      Action = "pause forever"
	ActionPauseIndefinitely Action = "pause indefinitely"
	ActionStartSearch       Action = "start search"
	ActionTryAgain          Action = "try again"
	ActionQueryAgain        Action = "query again"
	ActionShowExamples      Action = "show examples"
	ActionHelp              Action = "help"
)

// NormalizeAction folds a raw payload into the form used by the action table:
// trimmed, lower case, underscores and dashes as spaces, single spaces.
func NormalizeAction(raw string) Action {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return Action(strings.Join(strings.Fields(s), " "))
}

// Event is one normalised inbound chat event.
type Event struct {
	Identity    string
	Text        string
	Interactive bool
	Action      Action
}

// IsResume reports whether the event is the resume button.
func (e Event) IsResume() bool {
	return e.Interactive && e.Action == ActionResume
}
