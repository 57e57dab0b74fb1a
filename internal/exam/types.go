package exam

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DefaultBudget is the time allowed for one test.
const DefaultBudget = 1800 * time.Second

// ID is a platform identifier. The content API sends ids either as strings
// or as numbers; both decode to the same decimal string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

type Question struct {
	ID     ID     `json:"id" validate:"required"`
	Body   string `json:"question"`
	Answer string `json:"answer"`
	Image  string `json:"image,omitempty"`
}

type OptionType string

const (
	OptionText  OptionType = "text"
	OptionImage OptionType = "image"
)

type Option struct {
	ID    ID         `json:"id" validate:"required"`
	Text  string     `json:"text"`
	Type  OptionType `json:"type,omitempty"`
	Image string     `json:"image,omitempty"`
}

// ResolvedText is the text compared against a question's canonical answer.
// Image-only options resolve to their image path.
func (o Option) ResolvedText() string {
	if o.Text == "" {
		return o.Image
	}
	return o.Text
}

// QuestionItem pairs a question with its options in display order.
type QuestionItem struct {
	Question Question `json:"question"`
	Options  []Option `json:"options" validate:"dive"`
}

func (it QuestionItem) option(id ID) (Option, bool) {
	for _, o := range it.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// AnswerMap maps a question id to the option id last selected for it.
type AnswerMap map[ID]ID

func (m AnswerMap) clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Status string

const (
	StatusLoading    Status = "loading"
	StatusError      Status = "error"
	StatusEmpty      Status = "empty"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

type FinishReason string

const (
	FinishSubmitted   FinishReason = "submitted"
	FinishTimeExpired FinishReason = "time_expired"
)

type Score struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Answered   int `json:"answered"`
	Percentage int `json:"percentage"`
}

// Unanswered is reported separately from wrong answers.
func (s Score) Unanswered() int {
	return s.Total - s.Answered
}

// Snapshot is a consistent copy of a session's state at one point in time.
type Snapshot struct {
	ID               string
	Subtopic         string
	Status           Status
	Items            []QuestionItem
	Answers          AnswerMap
	RemainingSeconds int
	CurrentIndex     int
	Score            *Score
	FinishReason     FinishReason
	LoadError        string
	FinishedAt       time.Time
}

// Current returns the item at the display index, if any.
func (s Snapshot) Current() (QuestionItem, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Items) {
		return QuestionItem{}, false
	}
	return s.Items[s.CurrentIndex], true
}

type ReviewItem struct {
	QuestionID     ID     `json:"question_id"`
	Question       string `json:"question"`
	SelectedOption ID     `json:"selected_option,omitempty"`
	SelectedText   string `json:"selected_text,omitempty"`
	CorrectAnswer  string `json:"correct_answer"`
	Answered       bool   `json:"answered"`
	Correct        bool   `json:"correct"`
}

// Result is what a finished session hands to its ResultSink.
type Result struct {
	SessionID    string
	Subtopic     string
	Credentials  string
	UserID       string
	Score        Score
	Answers      AnswerMap
	FinishReason FinishReason
	FinishedAt   time.Time
}
