package installer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// APIKeyStep collects the API key for the provider chosen one step earlier
type APIKeyStep struct {
	input textinput.Model
}

func NewAPIKeyStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 40
	ti.Placeholder = "sk-..."
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'

	return &APIKeyStep{
		input: ti,
	}
}

func (s *APIKeyStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *APIKeyStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			switch state.Provider {
			case "OpenAI":
				state.OpenAIKey = s.input.Value()
			case "xAI":
				state.XAIKey = s.input.Value()
			default:
				state.OpenRouterKey = s.input.Value()
			}
			return nil, nil
		}
	}
	return s, cmd
}

func (s *APIKeyStep) View(state *InstallState) string {
	return fmt.Sprintf("Enter your %s API Key:\n\n", state.Provider) +
		s.input.View() + "\n\n" +
		"(press enter to confirm)\n"
}
