package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pathwise/progression/internal/domain"
)

const scenarioYAML = `
id: 6f1cc2a5-8f31-4f5e-9a3d-0d6f59f3b8aa
mode: pbl
status: active
title:
  en: Chips Everywhere
  zhTW: 無所不在的晶片
description: Discover where chips hide in daily life.
objectives:
  en:
    - Recognize devices that contain chips
    - Explain why chips matter
  zhTW:
    - 辨識含有晶片的裝置
    - 說明晶片的重要性
difficulty: beginner
estimated_minutes: 45
template:
  learning_objectives:
    - en: Recognize devices that contain chips
      zhTW: 辨識含有晶片的裝置
tasks:
  - id: warmup
    type: question
    title:
      en: Find the chips
  - id: interview
    type: chat
    title: Chat with the designer
`

func writeSeed(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}
	return dir
}

func TestLoaderLoadScenario(t *testing.T) {
	dir := writeSeed(t, "chips.yaml", scenarioYAML)

	loader := NewLoader(dir)
	s, err := loader.LoadScenario(filepath.Join(dir, "chips.yaml"))
	if err != nil {
		t.Fatalf("LoadScenario() error = %v", err)
	}

	if s.Mode != domain.ModePBL {
		t.Errorf("Mode = %v, want pbl", s.Mode)
	}
	if s.Status != domain.ScenarioStatusActive {
		t.Errorf("Status = %v, want active", s.Status)
	}
	if s.Title.Kind() != domain.LocalizedMap {
		t.Errorf("Title kind = %v, want map", s.Title.Kind())
	}
	if s.Description.Kind() != domain.LocalizedScalar {
		t.Errorf("Description kind = %v, want scalar", s.Description.Kind())
	}
	if got, ok := s.Objectives.ForLang("zhTW"); !ok || len(got) != 2 {
		t.Errorf("Objectives zhTW = %v, want two items", got)
	}
	if s.Template == nil || s.Template.LearningObjectives.Kind() != domain.LocalizedArray {
		t.Error("Template learning objectives not loaded as tagged array")
	}
	if len(s.TaskTemplates) != 2 {
		t.Fatalf("TaskTemplates = %d, want 2", len(s.TaskTemplates))
	}
	if s.TaskTemplates[0].Type != domain.TaskTypeQuestion {
		t.Errorf("task 0 type = %v, want question", s.TaskTemplates[0].Type)
	}
	if s.TaskTemplates[1].Title.Scalar() != "Chat with the designer" {
		t.Errorf("task 1 title = %q", s.TaskTemplates[1].Title.Scalar())
	}
	if s.EstimatedMinutes != 45 {
		t.Errorf("EstimatedMinutes = %d, want 45", s.EstimatedMinutes)
	}
}

func TestLoaderLoadAll(t *testing.T) {
	dir := writeSeed(t, "chips.yaml", scenarioYAML)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	loader := NewLoader(dir)
	scenarios, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(scenarios) != 1 {
		t.Fatalf("LoadAll() = %d scenarios, want 1", len(scenarios))
	}
}

func TestLoaderRejectsInvalidSeeds(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "bad mode",
			yaml: "id: 6f1cc2a5-8f31-4f5e-9a3d-0d6f59f3b8aa\nmode: sprint\ntasks:\n  - type: question\n",
		},
		{
			name: "bad id",
			yaml: "id: not-a-uuid\nmode: pbl\ntasks:\n  - type: question\n",
		},
		{
			name: "no tasks",
			yaml: "id: 6f1cc2a5-8f31-4f5e-9a3d-0d6f59f3b8aa\nmode: pbl\n",
		},
		{
			name: "bad task type",
			yaml: "id: 6f1cc2a5-8f31-4f5e-9a3d-0d6f59f3b8aa\nmode: pbl\ntasks:\n  - type: quiz\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeSeed(t, "bad.yaml", tt.yaml)
			loader := NewLoader(dir)
			if _, err := loader.LoadScenario(filepath.Join(dir, "bad.yaml")); err == nil {
				t.Error("LoadScenario() succeeded, want error")
			}
		})
	}
}
