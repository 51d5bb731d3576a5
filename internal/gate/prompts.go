package gate

// Kind is the type of outbound prompt handed to the notifier.
type Kind string

const (
	KindWelcome      Kind = "welcome"
	KindResume       Kind = "resume"
	KindResults      Kind = "results"
	KindNoResults    Kind = "no_results"
	KindQueryPrompt  Kind = "query_prompt"
	KindPauseOptions Kind = "pause_options"
	KindPlainText    Kind = "plain_text"
)

// Kinds lists every prompt kind.
var Kinds = []Kind{
	KindWelcome,
	KindResume,
	KindResults,
	KindNoResults,
	KindQueryPrompt,
	KindPauseOptions,
	KindPlainText,
}

// Variable names shared with the notifier templates.
const (
	VarGreeting    = "greeting"
	VarBody        = "body"
	VarPrompt      = "prompt"
	VarHeader      = "header"
	VarLines       = "lines"
	VarFooter      = "footer"
	VarQuery       = "query"
	VarTotal       = "total"
	VarSuggestions = "suggestions"
)

// DefaultGreeting is used when no greeting override is configured.
const DefaultGreeting = "Hi! I can check product availability for you. Tap *Start search* and tell me what you need."

const (
	textPausedReminder = "I'm paused for now. Tap *Resume* whenever you want me back."
	textPausedPending  = "Paused. I won't reply until you tap *Resume*."
	textPausedOneHour  = "Got it, I'll stay quiet for 1 hour."
	textPausedForever  = "Understood, I won't send you any more messages. Tap *Resume* if you change your mind."
	textQueryPrompt    = "Tell me the product you're looking for: name, brand, model or SKU."
	textPauseOptions   = "How long should I stay quiet?"
	textExampleQueries = "Try queries like:\n• brake pads corolla\n• 10W-40 oil\n• SKU AB-1234\n• bosch wiper blade"
	textHelp           = "Send a product name, brand, model or SKU and I'll tell you price and stock. Tap *Pause* to stop messages."
)
