package types

// Intent is the classified purpose of a user utterance. It selects the
// handler that processes the message and is persisted on every assistant
// turn.
type Intent string

const (
	INTENT_RETRIEVE_INSIGHTS   Intent = "retrieve_insights"
	INTENT_RETRIEVE_METRICS    Intent = "retrieve_metrics"
	INTENT_RETRIEVE_JOBS       Intent = "retrieve_jobs"
	INTENT_GENERATE_QUESTIONS  Intent = "generate_questions"
	INTENT_CREATE_SOLUTIONS    Intent = "create_solutions"
	INTENT_GENERAL_EXPLORATION Intent = "general_exploration"
)

func (i Intent) Valid() bool {
	switch i {
	case INTENT_RETRIEVE_INSIGHTS, INTENT_RETRIEVE_METRICS, INTENT_RETRIEVE_JOBS,
		INTENT_GENERATE_QUESTIONS, INTENT_CREATE_SOLUTIONS, INTENT_GENERAL_EXPLORATION:
		return true
	}
	return false
}

// Generative reports whether the intent goes through the generation
// provider rather than pure retrieval.
func (i Intent) Generative() bool {
	return i == INTENT_GENERATE_QUESTIONS || i == INTENT_CREATE_SOLUTIONS
}
