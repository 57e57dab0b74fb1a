package response_models

type OptionView struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Type  string `json:"type,omitempty"`
	Image string `json:"image,omitempty"`
}

// QuestionView never carries the canonical answer.
type QuestionView struct {
	ID       string       `json:"id"`
	Question string       `json:"question"`
	Image    string       `json:"image,omitempty"`
	Options  []OptionView `json:"options"`
}

type ScoreResponse struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Answered   int `json:"answered"`
	Unanswered int `json:"unanswered"`
	Percentage int `json:"percentage"`
}

type TestSessionResponse struct {
	SessionID        string            `json:"session_id"`
	Subtopic         string            `json:"subtopic"`
	Status           string            `json:"status"`
	RemainingSeconds int               `json:"remaining_seconds"`
	RemainingDisplay string            `json:"remaining_display"`
	CurrentIndex     int               `json:"current_index"`
	TotalQuestions   int               `json:"total_questions"`
	AnsweredCount    int               `json:"answered_count"`
	Questions        []QuestionView    `json:"questions,omitempty"`
	Answers          map[string]string `json:"answers"`
	Score            *ScoreResponse    `json:"score,omitempty"`
	FinishReason     string            `json:"finish_reason,omitempty"`
	FinishedAt       string            `json:"finished_at,omitempty"`
	LoadError        string            `json:"load_error,omitempty"`
}

type ReviewRowResponse struct {
	QuestionID     string `json:"question_id"`
	Question       string `json:"question"`
	SelectedOption string `json:"selected_option,omitempty"`
	SelectedText   string `json:"selected_text,omitempty"`
	CorrectAnswer  string `json:"correct_answer"`
	Answered       bool   `json:"answered"`
	Correct        bool   `json:"correct"`
}

type TestReviewResponse struct {
	SessionID string              `json:"session_id"`
	Score     ScoreResponse       `json:"score"`
	Questions []ReviewRowResponse `json:"questions"`
}

type AttemptResponse struct {
	ID           string        `json:"id"`
	SessionID    string        `json:"session_id"`
	UserID       string        `json:"user_id,omitempty"`
	Subtopic     string        `json:"subtopic"`
	Score        ScoreResponse `json:"score"`
	FinishReason string        `json:"finish_reason"`
	AnsweredIDs  []string      `json:"answered_question_ids"`
	FinishedAt   string        `json:"finished_at"`
}

type AttemptListResponse struct {
	Attempts []AttemptResponse `json:"attempts"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}
