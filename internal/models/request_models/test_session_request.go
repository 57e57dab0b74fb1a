package request_models

type StartTestRequest struct {
	Subtopic string `json:"subtopic" binding:"required,max=255"`
}

type SelectAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	OptionID   string `json:"option_id" binding:"required"`
}

type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=next prev"`
}

type JumpRequest struct {
	Index *int `json:"index" binding:"required"`
}
