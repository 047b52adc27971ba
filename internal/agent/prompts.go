package agent

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/spendlens/spendlens/internal/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

type stagePrompt struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

var (
	promptsOnce sync.Once
	promptSet   map[Stage]stagePrompt
	promptsErr  error
)

func loadPrompts() (map[Stage]stagePrompt, error) {
	promptsOnce.Do(func() {
		var raw map[string]stagePrompt
		if err := yaml.Unmarshal(promptsYAML, &raw); err != nil {
			promptsErr = fmt.Errorf("parse prompts.yaml: %w", err)
			return
		}
		promptSet = make(map[Stage]stagePrompt, len(raw))
		for name, p := range raw {
			promptSet[Stage(name)] = p
		}
	})
	return promptSet, promptsErr
}

// renderPrompts produces the system and user prompt for a stage request.
// The system prompt carries the static dataset context and the output schema
// as format instructions; the user prompt carries the stage inputs and the
// bounded history window.
func renderPrompts(req Request) (system, user string, err error) {
	prompts, err := loadPrompts()
	if err != nil {
		return "", "", err
	}
	p, ok := prompts[req.Stage]
	if !ok {
		return "", "", fmt.Errorf("no prompt registered for stage %s", req.Stage)
	}

	data := map[string]any{
		"dataOverview": catalog.Overview(),
		"fieldCatalog": catalog.FieldCatalog(),
		"history":      renderHistory(req.History),
	}
	for k, v := range req.Inputs {
		data[k] = v
	}

	system, err = renderTemplate(string(req.Stage)+"_system", p.System, data)
	if err != nil {
		return "", "", err
	}
	user, err = renderTemplate(string(req.Stage)+"_user", p.User, data)
	if err != nil {
		return "", "", err
	}

	schema := outputSchemas[req.Stage]
	system = strings.TrimSpace(system) +
		"\n\nRespond with a single JSON object matching this schema, with no surrounding prose:\n" +
		schema
	return system, strings.TrimSpace(user), nil
}

func renderTemplate(name, text string, data map[string]any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return b.String(), nil
}

func renderHistory(turns []historyTurn) string {
	if len(turns) == 0 {
		return "(none)"
	}
	b, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return "(none)"
	}
	return string(b)
}
