package prompts

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// embeds all .yaml files in the templates folder into the binary at compile time
//
//go:embed templates/*.yaml
var templateFS embed.FS

// Template names
const (
	Question = "question"
	Score    = "score"
	Summary  = "summary"
)

type PromptManager struct {
	prompts map[string]string // template name -> prompt text
}

// on-disk template shape
type promptTemplate struct {
	Prompt string `yaml:"prompt"`
}

// NewPromptManager loads all embedded templates.
func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{prompts: make(map[string]string)}
	if err := pm.loadPrompts(); err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}
	return pm, nil
}

// Build renders the named template with simple string replacement of
// {{.Key}} placeholders.
func (pm *PromptManager) Build(name string, vars map[string]string) (string, error) {
	tpl, exists := pm.prompts[name]
	if !exists {
		return "", fmt.Errorf("template not found: %s", name)
	}
	result := tpl
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{."+key+"}}", value)
	}
	return result, nil
}

func (pm *PromptManager) loadPrompts() error {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("failed to read templates directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := templateFS.ReadFile("templates/" + entry.Name())
		if err != nil {
			return fmt.Errorf("failed to read template file %s: %w", entry.Name(), err)
		}

		var tpl promptTemplate
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return fmt.Errorf("failed to parse template file %s: %w", entry.Name(), err)
		}
		if strings.TrimSpace(tpl.Prompt) == "" {
			return fmt.Errorf("template file %s has an empty prompt", entry.Name())
		}

		pm.prompts[strings.TrimSuffix(entry.Name(), ".yaml")] = strings.TrimSpace(tpl.Prompt)
	}
	return nil
}
