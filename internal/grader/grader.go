// Package grader scores a frozen set of selections against an exam's answer key.
package grader

import (
	"sort"
	"time"

	"github.com/pavelanni/aptitude/internal/model"
)

// Grade scores every question and returns the results in display order: math by
// number, then reading by number. Questions missing from selections, or selected
// with an empty value, are unanswered and never counted as correct.
func Grade(questions []model.Question, selections map[string]string, explanations map[string]string) model.Report {
	ordered := make([]model.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SortKey() < ordered[j].SortKey()
	})

	report := model.Report{
		Results:  make([]model.QuestionResult, 0, len(ordered)),
		GradedAt: time.Now(),
	}
	for _, q := range ordered {
		selected := selections[q.ID]
		outcome := Evaluate(q, selected)

		tally := model.Tally{Total: 1}
		if outcome == model.OutcomeCorrect {
			tally.Correct = 1
		}
		switch q.Section {
		case model.SectionMath:
			report.Scores.Math = report.Scores.Math.Add(tally)
		case model.SectionReading:
			report.Scores.Reading = report.Scores.Reading.Add(tally)
		}

		report.Results = append(report.Results, model.QuestionResult{
			ID:          q.ID,
			Section:     q.Section,
			Number:      q.Number,
			Prompt:      q.Prompt,
			Selected:    selected,
			Answer:      q.Answer,
			Outcome:     outcome,
			Explanation: explanations[q.ID],
		})
	}
	report.Scores.Overall = report.Scores.Math.Add(report.Scores.Reading)
	return report
}

// Evaluate classifies one selection.
func Evaluate(q model.Question, selected string) model.Outcome {
	switch {
	case selected == "":
		return model.OutcomeUnanswered
	case selected == q.Answer:
		return model.OutcomeCorrect
	default:
		return model.OutcomeIncorrect
	}
}

// Percent returns round(100*correct/total), or 0 when total is 0.
func Percent(correct, total int) int {
	return model.Tally{Correct: correct, Total: total}.Percent()
}
