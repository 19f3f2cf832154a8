package domain

const (
	// Fixed post-call evaluation settings applied to every bot created or updated through the admin API.
	DefaultSuccessEvaluationPrompt = "Rate the success of this call on a scale of 1-10 based on customer satisfaction."
	DefaultSuccessRubricType       = "NUMERIC_SCALE"

	BotListPageSize = 10
)

// BotRequest is the admin payload for creating or updating a bot
type BotRequest struct {
	Name          string `json:"name"`
	Prompt        string `json:"prompt"`
	FirstMessage  string `json:"first_message"`
	SummaryPrompt string `json:"summary_prompt"`
}

// PostCallSettings controls how the platform summarizes and scores a finished call
type PostCallSettings struct {
	SummaryPrompt               string `json:"summary_prompt"`
	SuccessEvaluationPrompt     string `json:"success_evaluation_prompt"`
	SuccessEvaluationRubricType string `json:"success_evaluation_rubric_type"`
}

// UpstreamBot is the bot body sent to the OpenMic API
type UpstreamBot struct {
	Name             string           `json:"name"`
	Prompt           string           `json:"prompt"`
	FirstMessage     string           `json:"first_message"`
	PostCallSettings PostCallSettings `json:"post_call_settings"`
}
