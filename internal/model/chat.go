package model

// ChatExchange is one persisted chatbot interaction. Created exactly once
// per successful chatbot invocation and never mutated afterwards.
type ChatExchange struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	UserInput string `json:"user_input"`
	Response  string `json:"response"`
	Timestamp int64  `json:"timestamp"`
}

// HistoryPair is one (question, answer) pair used as short-term context
// when generating the next response.
type HistoryPair struct {
	Input    string
	Response string
}
