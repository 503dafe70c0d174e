package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"ratebot/internal/charts"
	"ratebot/internal/llm"
	"ratebot/internal/stats"
	"ratebot/internal/store"
)

// Callback action prefixes. The transport passes raw action strings back;
// the engine owns their meaning.
const (
	actionModel     = "model:"
	actionSource    = "src:"
	actionBenchmark = "bench:"
	actionRate      = "rate:"
	actionNext      = "next:"
)

const (
	msgGreeting      = "Hello! I can answer your questions using various language models."
	msgChooseModel   = "Please choose a language model:"
	msgAskQuestion   = "Please send me your question."
	msgChooseSource  = "How would you like to pick a question?"
	msgChooseBench   = "Benchmark questions: pick one at random or choose yourself."
	msgPickBench     = "Please choose a benchmark question:"
	msgInvalidOption = "Please choose a valid option."
	msgNextStep      = "What would you like to do next?"
	msgNoChartData   = "No data available for graphs."
	msgStatsError    = "Sorry, statistics are unavailable right now."
	msgSaveError     = "Sorry, your rating could not be saved. Please try again."
)

// Engine drives every user conversation. One Engine serves all users;
// per-user sessions are created lazily and serialized with a per-session
// lock so concurrent transport events for the same user cannot interleave.
type Engine struct {
	log       *slog.Logger
	registry  *llm.Registry
	store     store.Store
	stats     *stats.Builder
	questions []string
	ratingMin int
	ratingMax int

	// randIndex picks a benchmark question; swapped out in tests.
	randIndex func(n int) int

	mu       sync.Mutex
	sessions map[int64]*userSession
}

type userSession struct {
	mu sync.Mutex
	Session
}

func NewEngine(log *slog.Logger, registry *llm.Registry, st store.Store, builder *stats.Builder, questions []string, ratingMin, ratingMax int) *Engine {
	if len(questions) == 0 {
		questions = DefaultBenchmarkQuestions
	}
	return &Engine{
		log:       log,
		registry:  registry,
		store:     st,
		stats:     builder,
		questions: questions,
		ratingMin: ratingMin,
		ratingMax: ratingMax,
		randIndex: rand.IntN,
		sessions:  make(map[int64]*userSession),
	}
}

// session returns the user's session, creating it lazily in StateIdle.
func (e *Engine) session(userID int64) *userSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[userID]
	if !ok {
		s = &userSession{Session: Session{UserID: userID, State: StateIdle}}
		e.sessions[userID] = s
	}
	return s
}

// HandleCommand processes a chat command ("start", "stats").
func (e *Engine) HandleCommand(ctx context.Context, userID int64, name string) []Reply {
	s := e.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case "start":
		// Idempotent re-entry point: reset from any state.
		s.reset()
		return []Reply{textReply(msgGreeting), e.modelPrompt()}
	case "stats":
		// Works from any state and never changes it.
		return e.statsReplies(ctx, userID)
	default:
		e.log.Debug("ignoring unknown command", "user", userID, "command", name)
		return nil
	}
}

// HandleText processes an inbound plain-text message. Text is a question
// only while the session waits for one; anything else is dropped without
// a reply, matching the original bot's behavior.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) []Reply {
	s := e.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State != StateQuestionWait {
		e.log.Debug("dropping text outside question state", "user", userID, "state", s.State.String())
		return nil
	}
	return e.answer(ctx, s, text)
}

// HandleCallback processes a keyboard action.
func (e *Engine) HandleCallback(ctx context.Context, userID int64, data string) []Reply {
	s := e.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.HasPrefix(data, actionModel):
		return e.selectModel(s, strings.TrimPrefix(data, actionModel))
	case strings.HasPrefix(data, actionSource):
		return e.chooseSource(s, strings.TrimPrefix(data, actionSource))
	case strings.HasPrefix(data, actionBenchmark):
		return e.chooseBenchmark(ctx, s, strings.TrimPrefix(data, actionBenchmark))
	case strings.HasPrefix(data, actionRate):
		return e.submitRating(ctx, s, strings.TrimPrefix(data, actionRate))
	case strings.HasPrefix(data, actionNext):
		return e.postRating(ctx, s, strings.TrimPrefix(data, actionNext))
	}
	e.log.Debug("unknown callback action", "user", userID, "data", data)
	return []Reply{textReply(msgInvalidOption)}
}

func (e *Engine) selectModel(s *userSession, raw string) []Reply {
	if s.State != StateModelSelect {
		return []Reply{textReply(msgInvalidOption)}
	}
	key, ok := llm.ParseKey(raw)
	if !ok || !e.registry.Has(key) {
		e.log.Debug("rejecting unknown model", "user", s.UserID, "model", raw)
		return []Reply{textReply(msgInvalidOption), e.modelPrompt()}
	}
	s.Model = key
	s.State = StateSourceChoice
	return []Reply{
		{Text: fmt.Sprintf("Selected model: %s", e.registry.Name(key)), Edit: true},
		{Text: msgChooseSource, Keyboard: Keyboard{
			{{Label: "Type my own question", Action: actionSource + "manual"}},
			{{Label: "Use a benchmark question", Action: actionSource + "benchmark"}},
		}},
	}
}

func (e *Engine) chooseSource(s *userSession, choice string) []Reply {
	if s.State != StateSourceChoice {
		return []Reply{textReply(msgInvalidOption)}
	}
	switch choice {
	case "manual":
		s.State = StateQuestionWait
		return []Reply{{Text: msgAskQuestion, Edit: true}}
	case "benchmark":
		s.State = StateBenchmarkChoice
		return []Reply{
			{Text: msgChooseBench, Edit: true},
			{Text: msgPickBench, Keyboard: Keyboard{
				{{Label: "Random question", Action: actionBenchmark + "random"}},
				{{Label: "Choose from the list", Action: actionBenchmark + "list"}},
			}},
		}
	}
	return []Reply{textReply(msgInvalidOption)}
}

func (e *Engine) chooseBenchmark(ctx context.Context, s *userSession, choice string) []Reply {
	switch choice {
	case "random":
		if s.State != StateBenchmarkChoice {
			return []Reply{textReply(msgInvalidOption)}
		}
		// Uniform and independent per call; repeats are possible.
		question := e.questions[e.randIndex(len(e.questions))]
		replies := []Reply{textReply(fmt.Sprintf("Question: %s", question))}
		return append(replies, e.answer(ctx, s, question)...)
	case "list":
		if s.State != StateBenchmarkChoice {
			return []Reply{textReply(msgInvalidOption)}
		}
		s.State = StateBenchmarkPick
		keyboard := make(Keyboard, len(e.questions))
		for i, q := range e.questions {
			keyboard[i] = []Button{{
				Label:  fmt.Sprintf("%d. %s", i+1, buttonLabel(q, 40)),
				Action: actionBenchmark + strconv.Itoa(i),
			}}
		}
		return []Reply{{Text: msgPickBench, Keyboard: keyboard, Edit: true}}
	}

	if s.State != StateBenchmarkPick {
		return []Reply{textReply(msgInvalidOption)}
	}
	index, err := strconv.Atoi(choice)
	if err != nil || index < 0 || index >= len(e.questions) {
		e.log.Debug("rejecting benchmark index", "user", s.UserID, "index", choice)
		return []Reply{textReply(msgInvalidOption)}
	}
	question := e.questions[index]
	replies := []Reply{{Text: fmt.Sprintf("Question: %s", question), Edit: true}}
	return append(replies, e.answer(ctx, s, question)...)
}

// answer is the shared answer-generation step: calls the selected
// provider, records the pending pair, and prompts for a rating. Provider
// failures arrive here already degraded to an error-text answer and flow
// through rating capture like any normal answer.
func (e *Engine) answer(ctx context.Context, s *userSession, question string) []Reply {
	text := e.registry.Answer(ctx, s.Model, question)
	s.PendingQuestion = question
	s.PendingAnswer = text
	s.State = StateRatingWait
	return []Reply{
		textReply(text),
		{
			Text: fmt.Sprintf("Please rate the answer on a scale from %d to %d:",
				e.ratingMin, e.ratingMax),
			Keyboard: e.ratingKeyboard(),
		},
	}
}

// ratingKeyboard renders one button per valid rating value, at most five
// per row.
func (e *Engine) ratingKeyboard() Keyboard {
	var keyboard Keyboard
	var row []Button
	for v := e.ratingMin; v <= e.ratingMax; v++ {
		row = append(row, Button{
			Label:  strconv.Itoa(v),
			Action: actionRate + strconv.Itoa(v),
		})
		if len(row) == 5 {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}
	return keyboard
}

func (e *Engine) submitRating(ctx context.Context, s *userSession, raw string) []Reply {
	if s.State != StateRatingWait {
		return []Reply{textReply(msgInvalidOption)}
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < e.ratingMin || value > e.ratingMax {
		e.log.Debug("rejecting out-of-range rating", "user", s.UserID, "rating", raw)
		return []Reply{textReply(msgInvalidOption)}
	}

	record, err := e.store.Append(ctx, store.Rating{
		UserID:   s.UserID,
		Question: s.PendingQuestion,
		Answer:   s.PendingAnswer,
		Rating:   value,
		Model:    string(s.Model),
	})
	if err != nil {
		// Stay in RatingWait so the user can retry the same answer.
		e.log.Error("failed to store rating", "user", s.UserID, "err", err)
		return []Reply{textReply(msgSaveError)}
	}
	e.stats.RatingRecorded(ctx, record)

	s.State = StatePostRating
	return []Reply{
		{Text: fmt.Sprintf("Thank you! You rated: %d", value), Edit: true},
		e.nextStepPrompt(),
	}
}

func (e *Engine) postRating(ctx context.Context, s *userSession, choice string) []Reply {
	if s.State != StatePostRating {
		return []Reply{textReply(msgInvalidOption)}
	}
	switch choice {
	case "stats":
		replies := e.statsReplies(ctx, s.UserID)
		return append(replies, e.nextStepPrompt())
	case "ask":
		s.PendingQuestion = ""
		s.PendingAnswer = ""
		s.Model = ""
		s.State = StateModelSelect
		return []Reply{e.modelPrompt()}
	}
	return []Reply{textReply(msgInvalidOption)}
}

func (e *Engine) modelPrompt() Reply {
	keys := e.registry.Keys()
	keyboard := make(Keyboard, len(keys))
	for i, key := range keys {
		keyboard[i] = []Button{{
			Label:  e.registry.Name(key),
			Action: actionModel + string(key),
		}}
	}
	return Reply{Text: msgChooseModel, Keyboard: keyboard}
}

func (e *Engine) nextStepPrompt() Reply {
	return Reply{Text: msgNextStep, Keyboard: Keyboard{
		{{Label: "View Statistics", Action: actionNext + "stats"}},
		{{Label: "Ask Another Question", Action: actionNext + "ask"}},
	}}
}

func (e *Engine) statsReplies(ctx context.Context, userID int64) []Reply {
	report, err := e.stats.Report(ctx, userID)
	if err != nil {
		e.log.Error("failed to build stats report", "user", userID, "err", err)
		return []Reply{textReply(msgStatsError)}
	}

	replies := []Reply{textReply(report.Text())}
	if !report.HasData() {
		return append(replies, textReply(msgNoChartData))
	}
	for _, artifact := range report.Artifacts {
		switch artifact.Kind {
		case charts.KindPhoto:
			replies = append(replies, Reply{Photo: artifact.PNG})
		default:
			replies = append(replies, Reply{Document: artifact.PNG, Filename: artifact.Name})
		}
	}
	return replies
}
