package rag

// AskRequest represents one user query within a session.
type AskRequest struct {
	// SessionID is the caller's opaque session identifier. A new one is minted when empty.
	SessionID string `json:"session_id,omitempty"`
	// Query is the user's question.
	Query string `json:"query"`
}

// Source attributes part of the answer to a course and optionally a lesson.
type Source struct {
	// Course is the exact course title.
	Course string `json:"course"`
	// Lesson is the lesson number, absent for course-level sources.
	Lesson *int `json:"lesson,omitempty"`
	// Text is the display label, e.g. "Intro - Lesson 2".
	Text string `json:"text"`
	// Link points to the lesson, or the course when the lesson has none.
	Link string `json:"link,omitempty"`
}

// AskResponse represents the final answer for a query.
type AskResponse struct {
	// Answer is the model's final answer.
	Answer string `json:"answer"`
	// Sources lists the citations gathered by the tool round, in first-seen order.
	Sources []Source `json:"sources"`
	// SessionID echoes (or mints) the session the turn was stored under.
	SessionID string `json:"session_id"`
	// ToolCalls is how many tool calls were executed for this query.
	ToolCalls int `json:"-"`
}
