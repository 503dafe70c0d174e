// Package session holds the per-user conversation state machine: the
// sequence of states a chat session moves through from model selection to
// rating capture, and the binding of user actions to the LLM adapter and
// the rating store.
package session

import (
	"ratebot/internal/llm"
)

// State enumerates the conversation states. Transitions are exhaustive:
// any action arriving in a state that does not expect it is rejected with
// a generic re-prompt and no state change.
type State int

const (
	StateIdle State = iota
	StateModelSelect
	StateSourceChoice
	// StateQuestionWait is the only state in which inbound free text is
	// interpreted as a question. Everywhere else it is dropped.
	StateQuestionWait
	StateBenchmarkChoice
	StateBenchmarkPick
	StateRatingWait
	StatePostRating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateModelSelect:
		return "model_select"
	case StateSourceChoice:
		return "source_choice"
	case StateQuestionWait:
		return "question_wait"
	case StateBenchmarkChoice:
		return "benchmark_choice"
	case StateBenchmarkPick:
		return "benchmark_pick"
	case StateRatingWait:
		return "rating_wait"
	case StatePostRating:
		return "post_rating"
	}
	return "unknown"
}

// Session is one user's transient conversation state. Held in process
// memory only; a restart drops it and the user begins again with /start.
type Session struct {
	UserID          int64
	State           State
	Model           llm.Key
	PendingQuestion string
	PendingAnswer   string
}

func (s *Session) reset() {
	s.State = StateModelSelect
	s.Model = ""
	s.PendingQuestion = ""
	s.PendingAnswer = ""
}

// Button is one (label, action) pair on an inline keyboard.
type Button struct {
	Label  string
	Action string
}

// Keyboard is a rectangular grid of buttons.
type Keyboard [][]Button

// Reply is one outbound message the transport should render. Exactly one
// of Text, Photo, or Document is set.
type Reply struct {
	Text     string
	Keyboard Keyboard
	// Edit asks the transport to edit the message that carried the
	// triggering callback instead of sending a new one.
	Edit bool

	Photo    []byte
	Document []byte
	Filename string
}

func textReply(text string) Reply { return Reply{Text: text} }
