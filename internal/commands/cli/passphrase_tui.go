package cli

import (
	"errors"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrPassphraseCancelled is returned when the prompt is aborted.
var ErrPassphraseCancelled = errors.New("passphrase entry cancelled")

type passphraseModel struct {
	value     []rune
	done      bool
	cancelled bool
}

func (m passphraseModel) Init() tea.Cmd {
	return nil
}

func (m passphraseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyRunes:
		m.value = append(m.value, key.Runes...)

		return m, nil
	case tea.KeySpace:
		m.value = append(m.value, ' ')

		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.cancelled = true

		return m, tea.Quit
	case "enter":
		m.done = true

		return m, tea.Quit
	case "backspace":
		if len(m.value) > 0 {
			m.value = m.value[:len(m.value)-1]
		}
	}

	return m, nil
}

// View never shows the passphrase, only one mask character per rune.
func (m passphraseModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	return "Private key passphrase: " + strings.Repeat("*", len(m.value)) + "\n" +
		"  Enter: Confirm  Esc or Ctrl+C: Cancel\n"
}

// runPassphraseTUI prompts for the private key passphrase.
func runPassphraseTUI(in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(passphraseModel{}, tea.WithInput(in), tea.WithOutput(out))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	m := finalModel.(passphraseModel)
	if m.cancelled {
		return "", ErrPassphraseCancelled
	}

	return string(m.value), nil
}
