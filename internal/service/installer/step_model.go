package installer

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Suggested default per provider, used when the input is left empty.
var defaultModels = map[string]string{
	"OpenRouter": "openrouter/mistralai/mistral-nemo",
	"OpenAI":     "gpt-4o-mini",
	"xAI":        "grok-3-mini",
}

// ModelStep collects the default model name
type ModelStep struct {
	input textinput.Model
}

func NewModelStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 50

	return &ModelStep{
		input: ti,
	}
}

func (s *ModelStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.input.Placeholder == "" {
		s.input.Placeholder = defaultModels[state.Provider]
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			model := strings.TrimSpace(s.input.Value())
			if model == "" {
				model = defaultModels[state.Provider]
			}
			state.Model = model
			return nil, nil
		}
	}
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	return "Default model (empty keeps the suggestion):\n\n" +
		s.input.View() + "\n\n" +
		"(press enter to confirm)\n"
}
