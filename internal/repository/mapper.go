package repository

import (
	"encoding/json"
	"fmt"

	"github.com/pathwise/progression/internal/domain"
)

// -----------------------------------------------------------------------------
// JSONB mapping
// Multilingual columns keep their historical shapes (flat value, language map,
// array of language maps); domain.LocalizedValue decodes them once here, at
// the store boundary.
// -----------------------------------------------------------------------------

// taskTemplateRecord is the persisted form of one task blueprint inside the
// scenarios.task_templates column.
type taskTemplateRecord struct {
	ID           string                `json:"id"`
	Type         string                `json:"type"`
	Title        domain.LocalizedValue `json:"title,omitempty"`
	Description  domain.LocalizedValue `json:"description,omitempty"`
	Instructions domain.LocalizedValue `json:"instructions,omitempty"`
}

// scenarioTemplateRecord is the persisted form of the nested authoring
// template a scenario was imported from.
type scenarioTemplateRecord struct {
	Title              domain.LocalizedValue `json:"title,omitempty"`
	Description        domain.LocalizedValue `json:"description,omitempty"`
	LearningObjectives domain.LocalizedValue `json:"learning_objectives,omitempty"`
}

func decodeLocalized(data []byte) (domain.LocalizedValue, error) {
	if len(data) == 0 {
		return domain.LocalizedValue{}, nil
	}
	var v domain.LocalizedValue
	if err := json.Unmarshal(data, &v); err != nil {
		return domain.LocalizedValue{}, fmt.Errorf("decode localized column: %w", err)
	}
	return v, nil
}

func encodeLocalized(v domain.LocalizedValue) ([]byte, error) {
	if v.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(v)
}

func decodeTaskTemplates(data []byte) ([]domain.TaskTemplate, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []taskTemplateRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode task templates: %w", err)
	}
	templates := make([]domain.TaskTemplate, 0, len(records))
	for _, rec := range records {
		templates = append(templates, domain.TaskTemplate{
			ID:           rec.ID,
			Type:         domain.TaskType(rec.Type),
			Title:        rec.Title,
			Description:  rec.Description,
			Instructions: rec.Instructions,
		})
	}
	return templates, nil
}

func encodeTaskTemplates(templates []domain.TaskTemplate) ([]byte, error) {
	records := make([]taskTemplateRecord, 0, len(templates))
	for _, tpl := range templates {
		records = append(records, taskTemplateRecord{
			ID:           tpl.ID,
			Type:         string(tpl.Type),
			Title:        tpl.Title,
			Description:  tpl.Description,
			Instructions: tpl.Instructions,
		})
	}
	return json.Marshal(records)
}

func decodeScenarioTemplate(data []byte) (*domain.ScenarioTemplate, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rec scenarioTemplateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode scenario template: %w", err)
	}
	return &domain.ScenarioTemplate{
		Title:              rec.Title,
		Description:        rec.Description,
		LearningObjectives: rec.LearningObjectives,
	}, nil
}

func encodeScenarioTemplate(tpl *domain.ScenarioTemplate) ([]byte, error) {
	if tpl == nil {
		return nil, nil
	}
	return json.Marshal(scenarioTemplateRecord{
		Title:              tpl.Title,
		Description:        tpl.Description,
		LearningObjectives: tpl.LearningObjectives,
	})
}

func decodeJSONMap[T any](data []byte) (map[string]T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode json column: %w", err)
	}
	return m, nil
}

func encodeJSONMap[T any](m map[string]T) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func decodeFeedback(data []byte) (domain.FeedbackData, error) {
	if len(data) == 0 {
		return domain.FeedbackData{}, nil
	}
	var fb domain.FeedbackData
	if err := json.Unmarshal(data, &fb); err != nil {
		return domain.FeedbackData{}, fmt.Errorf("decode feedback column: %w", err)
	}
	return fb, nil
}

func encodeFeedback(fb domain.FeedbackData) ([]byte, error) {
	return json.Marshal(fb)
}
