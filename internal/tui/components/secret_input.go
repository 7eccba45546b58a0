package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SecretInputState tracks the validation state of a secret input.
type SecretInputState int

const (
	SecretInputEditing   SecretInputState = iota
	SecretInputValidated                  // validation succeeded
	SecretInputFailed                     // validation failed
)

// SecretInput is a masked text entry with validation feedback. Unlike
// TextInput it never trims its value.
type SecretInput struct {
	Label       string
	SuccessText string
	input       textinput.Model
	done        bool
	state       SecretInputState
	err         string
	allowSkip   bool

	// Styles
	LabelStyle   lipgloss.Style
	BorderStyle  lipgloss.Style
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	HintStyle    lipgloss.Style
	AccentColor  lipgloss.Color
	SuccessColor lipgloss.Color
	ErrorColor   lipgloss.Color
	BorderColor  lipgloss.Color
	kbd          KbdHint
}

// NewSecretInput creates a new focused masked input.
func NewSecretInput(label, placeholder string, allowSkip bool, accentColor, successColor, errorColor, borderColor lipgloss.Color, labelStyle, borderStyle, successStyle, errorStyle, hintStyle lipgloss.Style, kbdKeyStyle, kbdDescStyle lipgloss.Style) SecretInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Focus()
	ti.CharLimit = 256
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(accentColor)

	hints := InputHints()
	if allowSkip {
		hints = append(hints, KeyBinding{Key: "⏎", Desc: "(empty) skip"})
	}

	kbd := NewKbdHint(kbdKeyStyle, kbdDescStyle)
	kbd.Bindings = hints

	return SecretInput{
		Label:        label,
		SuccessText:  "✓ OK",
		input:        ti,
		allowSkip:    allowSkip,
		state:        SecretInputEditing,
		LabelStyle:   labelStyle,
		BorderStyle:  borderStyle,
		SuccessStyle: successStyle,
		ErrorStyle:   errorStyle,
		HintStyle:    hintStyle,
		AccentColor:  accentColor,
		SuccessColor: successColor,
		ErrorColor:   errorColor,
		BorderColor:  borderColor,
		kbd:          kbd,
	}
}

// Init starts the cursor blink.
func (s SecretInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (s SecretInput) Update(msg tea.Msg) (SecretInput, tea.Cmd) {
	if s.done || !s.input.Focused() {
		return s, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		if s.input.Value() == "" && !s.allowSkip {
			s.state = SecretInputFailed
			s.err = "a value is required"
			return s, nil
		}
		s.done = true
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// View renders the secret input.
func (s SecretInput) View(width int) string {
	var out string

	out += "\n  " + s.LabelStyle.Render(s.Label) + "\n"

	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.input.Width = inputWidth

	borderStyle := s.BorderStyle
	switch s.state {
	case SecretInputValidated:
		borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(s.SuccessColor).
			Padding(0, 1)
	case SecretInputFailed:
		borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(s.ErrorColor).
			Padding(0, 1)
	}

	inputBox := borderStyle.Width(inputWidth).Render(s.input.View())
	out += "  " + inputBox + "\n"

	switch {
	case s.state == SecretInputValidated:
		out += "  " + s.SuccessStyle.Render(s.SuccessText) + "\n"
	case s.err != "":
		out += "  " + s.ErrorStyle.Render("✗ "+s.err) + "\n"
	}

	if s.input.Focused() && !s.done {
		out += "\n" + s.kbd.View() + "\n"
	}
	return out
}

// Done returns true when input is submitted.
func (s SecretInput) Done() bool {
	return s.done
}

// Value returns the current input value.
func (s SecretInput) Value() string {
	return s.input.Value()
}

// SetValue replaces the input value.
func (s *SecretInput) SetValue(v string) {
	s.input.SetValue(v)
}

// SetState updates the validation state and optional error.
func (s *SecretInput) SetState(state SecretInputState, errMsg string) {
	s.state = state
	s.err = errMsg
}

// State returns the validation state.
func (s SecretInput) State() SecretInputState {
	return s.state
}

// SetBindings replaces the key hints.
func (s *SecretInput) SetBindings(bindings []KeyBinding) {
	s.kbd.Bindings = bindings
}

// Reset reopens a submitted input, keeping its value.
func (s *SecretInput) Reset() {
	s.done = false
}

// Focus gives the input the keyboard.
func (s *SecretInput) Focus() tea.Cmd {
	s.done = false
	return s.input.Focus()
}

// Blur releases the keyboard.
func (s *SecretInput) Blur() {
	s.input.Blur()
}
