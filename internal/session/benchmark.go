package session

// DefaultBenchmarkQuestions is the curated, ordered question set offered
// as an alternative to free-text input. Overridable via configuration.
var DefaultBenchmarkQuestions = []string{
	"What is the capital of France?",
	"What is 2+2?",
	"Explain photosynthesis in one sentence.",
	"Who wrote 'War and Peace'?",
	"Name three prime numbers.",
	"What causes the tides on Earth?",
	"Translate 'good morning' into Spanish.",
	"What is the speed of light in a vacuum?",
	"Summarize the plot of Romeo and Juliet in two sentences.",
	"What is the chemical formula of table salt?",
}

// buttonLabel shortens a question so it fits on an inline keyboard button.
func buttonLabel(question string, max int) string {
	if len(question) <= max {
		return question
	}
	return question[:max-3] + "..."
}
