package exam

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Percentage rounds correct/total to a whole percent. Zero questions score 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// ComputeScore walks every item once. Unanswered questions count neither as
// correct nor as wrong.
func ComputeScore(items []QuestionItem, answers AnswerMap) Score {
	s := Score{Total: len(items)}
	for _, it := range items {
		optID, ok := answers[it.Question.ID]
		if !ok {
			continue
		}
		s.Answered++
		if opt, found := it.option(optID); found && MatchAnswer(opt.ResolvedText(), it.Question.Answer) {
			s.Correct++
		}
	}
	s.Percentage = Percentage(s.Correct, s.Total)
	return s
}

// MatchAnswer compares an option's text with the canonical answer: exact
// equality first, then equality after normalizing both sides. An empty
// canonical answer never matches.
func MatchAnswer(selected, canonical string) bool {
	if canonical == "" {
		return false
	}
	if selected == canonical {
		return true
	}
	return normalizeAnswer(selected) == normalizeAnswer(canonical)
}

// normalizeAnswer applies NFC, trims surrounding space and case-folds.
func normalizeAnswer(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimSpace(s)
	return cases.Fold().String(s)
}

func review(items []QuestionItem, answers AnswerMap) []ReviewItem {
	out := make([]ReviewItem, 0, len(items))
	for _, it := range items {
		row := ReviewItem{
			QuestionID:    it.Question.ID,
			Question:      it.Question.Body,
			CorrectAnswer: it.Question.Answer,
		}
		if optID, ok := answers[it.Question.ID]; ok {
			row.Answered = true
			row.SelectedOption = optID
			if opt, found := it.option(optID); found {
				row.SelectedText = opt.ResolvedText()
				row.Correct = MatchAnswer(row.SelectedText, it.Question.Answer)
			}
		}
		out = append(out, row)
	}
	return out
}
