package model

// ChatModelConfig configures the response chat model.
type ChatModelConfig struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.4"`
}

// ConversationConfig bounds conversation state per orchestration call.
type ConversationConfig struct {
	TTL     string `envconfig:"CONVERSATION_TTL" default:"15m"`
	History struct {
		// MaxTurns caps how many trailing history messages enter the
		// model context; older ones are dropped, never summarized.
		MaxTurns int `envconfig:"CONVERSATION_HISTORY_MAX_TURNS" default:"20"`
	}
	Tools struct {
		// MaxRounds caps model/tool round-trips per user message and
		// fails closed when exceeded.
		MaxRounds int `envconfig:"CONVERSATION_TOOL_MAX_ROUNDS" default:"10"`
	}
}
