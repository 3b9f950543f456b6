package evaluation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Oracle replies are asked for as bare JSON but routinely arrive wrapped in
// markdown fences or prose. Parsing tries the raw reply, then each fenced
// block, then the outermost brace span.
var codeBlockRegex = regexp.MustCompile("(?s)```(\\w+)?\\s*\\n(.+?)```")

// scoringPayload is the JSON document the scoring prompt requests.
type scoringPayload struct {
	Score        *float64           `json:"score"`
	DomainScores map[string]float64 `json:"domainScores"`
	Strengths    []string           `json:"strengths"`
	Improvements []string           `json:"improvements"`
	NextSteps    []string           `json:"nextSteps"`
	Analysis     map[string]any     `json:"analysis"`
}

// translationPayload is the JSON document the translation prompt requests.
type translationPayload struct {
	Strengths    []string       `json:"strengths"`
	Improvements []string       `json:"improvements"`
	NextSteps    []string       `json:"nextSteps"`
	Analysis     map[string]any `json:"analysis"`
}

// parseScoring extracts the scoring document from an oracle reply. A reply
// without a score is treated as unparsable so the caller falls back to the
// neutral default.
func parseScoring(content string) (*scoringPayload, error) {
	var payload scoringPayload
	if err := parseJSONReply(content, &payload); err != nil {
		return nil, err
	}
	if payload.Score == nil {
		return nil, fmt.Errorf("oracle reply has no score")
	}
	return &payload, nil
}

// parseTranslation extracts the translated document. Unlike scoring there is
// no fallback: the caller surfaces a translation failure instead.
func parseTranslation(content string) (*translationPayload, error) {
	var payload translationPayload
	if err := parseJSONReply(content, &payload); err != nil {
		return nil, err
	}
	if payload.Strengths == nil && payload.Improvements == nil && payload.NextSteps == nil {
		return nil, fmt.Errorf("oracle reply has no translated feedback")
	}
	return &payload, nil
}

func parseJSONReply(content string, dest any) error {
	var lastErr error
	for _, candidate := range jsonCandidates(content) {
		if err := json.Unmarshal([]byte(candidate), dest); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON document found")
	}
	return fmt.Errorf("parse oracle reply: %w", lastErr)
}

func jsonCandidates(content string) []string {
	var candidates []string

	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") {
		candidates = append(candidates, trimmed)
	}

	for _, match := range codeBlockRegex.FindAllStringSubmatch(content, -1) {
		block := strings.TrimSpace(match[2])
		if strings.HasPrefix(block, "{") {
			candidates = append(candidates, block)
		}
	}

	// Outermost brace span catches replies like "Here is the result: {...}".
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			candidates = append(candidates, content[start:end+1])
		}
	}

	return candidates
}
