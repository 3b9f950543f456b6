package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pathwise/progression/internal/domain"
)

// ScenarioFile represents the YAML structure for an authoring seed file.
// Localized fields accept a plain string, a language map, or an array of
// either, mirroring the shapes the store accepts.
type ScenarioFile struct {
	ID               string        `yaml:"id"`
	Mode             string        `yaml:"mode"`
	Status           string        `yaml:"status"`
	Title            localizedYAML `yaml:"title"`
	Description      localizedYAML `yaml:"description"`
	Objectives       localizedYAML `yaml:"objectives"`
	Difficulty       string        `yaml:"difficulty"`
	EstimatedMinutes int           `yaml:"estimated_minutes"`
	Template         *struct {
		Title              localizedYAML `yaml:"title"`
		Description        localizedYAML `yaml:"description"`
		LearningObjectives localizedYAML `yaml:"learning_objectives"`
	} `yaml:"template"`
	Tasks []struct {
		ID           string        `yaml:"id"`
		Type         string        `yaml:"type"`
		Title        localizedYAML `yaml:"title"`
		Description  localizedYAML `yaml:"description"`
		Instructions localizedYAML `yaml:"instructions"`
	} `yaml:"tasks"`
}

// localizedYAML adapts YAML nodes to domain.LocalizedValue by funneling the
// decoded node through the same shape probing the store boundary uses.
type localizedYAML struct {
	value domain.LocalizedValue
}

func (l *localizedYAML) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("localized field: %w", err)
	}
	return json.Unmarshal(data, &l.value)
}

// Loader handles loading scenarios from YAML seed files
type Loader struct {
	basePath string
}

// NewLoader creates a new scenario loader
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// LoadScenario loads a single scenario from a YAML file
func (l *Loader) LoadScenario(path string) (*domain.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var file ScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scenario file %s: %w", filepath.Base(path), err)
	}

	return scenarioFromFile(&file, filepath.Base(path))
}

// LoadAll loads every scenario seed file from the base directory.
func (l *Loader) LoadAll() ([]*domain.Scenario, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("read scenarios directory: %w", err)
	}

	var scenarios []*domain.Scenario
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}

		scenario, err := l.LoadScenario(filepath.Join(l.basePath, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load scenario %s: %w", entry.Name(), err)
		}
		scenarios = append(scenarios, scenario)
	}

	return scenarios, nil
}

func scenarioFromFile(file *ScenarioFile, name string) (*domain.Scenario, error) {
	id, err := uuid.Parse(file.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid scenario id %q: %w", name, file.ID, err)
	}

	mode, err := domain.NewMode(file.Mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	status := domain.ScenarioStatus(file.Status)
	if status == "" {
		status = domain.ScenarioStatusActive
	}
	switch status {
	case domain.ScenarioStatusDraft, domain.ScenarioStatusActive, domain.ScenarioStatusArchived:
	default:
		return nil, fmt.Errorf("%s: unknown status %q", name, file.Status)
	}

	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("%s: scenario has no tasks", name)
	}

	now := time.Now().UTC()
	scenario := &domain.Scenario{
		ID:               id,
		Mode:             mode,
		Status:           status,
		Title:            file.Title.value,
		Description:      file.Description.value,
		Objectives:       file.Objectives.value,
		Difficulty:       domain.Difficulty(file.Difficulty),
		EstimatedMinutes: file.EstimatedMinutes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if file.Template != nil {
		scenario.Template = &domain.ScenarioTemplate{
			Title:              file.Template.Title.value,
			Description:        file.Template.Description.value,
			LearningObjectives: file.Template.LearningObjectives.value,
		}
	}

	scenario.TaskTemplates = make([]domain.TaskTemplate, 0, len(file.Tasks))
	for i, t := range file.Tasks {
		taskType := domain.TaskType(t.Type)
		switch taskType {
		case domain.TaskTypeQuestion, domain.TaskTypeChat, domain.TaskTypeCreation, domain.TaskTypeAnalysis:
		default:
			return nil, fmt.Errorf("%s: task %d: unknown type %q", name, i, t.Type)
		}
		templateID := t.ID
		if templateID == "" {
			templateID = fmt.Sprintf("task-%d", i)
		}
		scenario.TaskTemplates = append(scenario.TaskTemplates, domain.TaskTemplate{
			ID:           templateID,
			Type:         taskType,
			Title:        t.Title.value,
			Description:  t.Description.value,
			Instructions: t.Instructions.value,
		})
	}

	return scenario, nil
}

func isYAMLFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
