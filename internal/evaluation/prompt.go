package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pathwise/progression/internal/domain"
)

const scoringSystemPrompt = `You are an educational assessment assistant. ` +
	`You evaluate learner work against a rubric and respond with a single JSON object, no prose. ` +
	`The object has: "score" (number 0-100), "domainScores" (object of numeric sub-scores), ` +
	`"strengths", "improvements", "nextSteps" (arrays of short strings), and "analysis" (object with free-form notes).`

const translationSystemPrompt = `You are a translation assistant for educational feedback. ` +
	`Translate every string value of the given JSON document into the target language, keeping keys, ` +
	`structure, numbers and identifiers unchanged. Respond with the translated JSON object only.`

func buildScoringPrompt(task *domain.Task, rubric string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task type: %s\nLearning mode: %s\n", task.Type, task.Mode)
	if title := scalarTitle(task); title != "" {
		fmt.Fprintf(&b, "Task: %s\n", title)
	}
	if rubric != "" {
		fmt.Fprintf(&b, "\nRubric:\n%s\n", rubric)
	}
	b.WriteString("\nLearner submission:\n")
	if len(task.Response) > 0 {
		b.Write(task.Response)
		b.WriteString("\n")
	} else {
		b.WriteString("(no submission recorded)\n")
	}
	b.WriteString("\nEvaluate the submission and reply with the JSON object.")
	return b.String()
}

func buildTranslationPrompt(e *domain.Evaluation, sourceLang, targetLang string) (string, error) {
	doc := translationPayload{
		Strengths:    e.FeedbackData.Strengths,
		Improvements: e.FeedbackData.Improvements,
		NextSteps:    e.FeedbackData.NextSteps,
		Analysis:     e.AIAnalysis,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode feedback for translation: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Source language: %s\nTarget language: %s\n\nDocument:\n%s\n", sourceLang, targetLang, data)
	return b.String(), nil
}

func scalarTitle(task *domain.Task) string {
	if task.Title.IsEmpty() {
		return ""
	}
	if task.Title.Kind() == domain.LocalizedScalar {
		return task.Title.Scalar()
	}
	if vals, ok := task.Title.ForLang(domain.DefaultLanguage); ok {
		return vals[0]
	}
	return ""
}
