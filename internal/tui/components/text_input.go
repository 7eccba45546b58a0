package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TextInput is a styled text entry component wrapping bubbles/textinput.
// Enter runs validateFn and marks the input done; Reset reopens it.
type TextInput struct {
	Label      string
	input      textinput.Model
	done       bool
	err        string
	hint       string
	validateFn func(string) error

	// Styles
	LabelStyle  lipgloss.Style
	BorderStyle lipgloss.Style
	ErrorStyle  lipgloss.Style
	HintStyle   lipgloss.Style
	AccentColor lipgloss.Color
	kbd         KbdHint
}

// NewTextInput creates a new focused text input.
func NewTextInput(label, placeholder string, validateFn func(string) error, accentColor lipgloss.Color, labelStyle, borderStyle, errorStyle, hintStyle lipgloss.Style, kbdKeyStyle, kbdDescStyle lipgloss.Style) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = 256
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(accentColor)

	kbd := NewKbdHint(kbdKeyStyle, kbdDescStyle)
	kbd.Bindings = InputHints()

	return TextInput{
		Label:       label,
		input:       ti,
		validateFn:  validateFn,
		LabelStyle:  labelStyle,
		BorderStyle: borderStyle,
		ErrorStyle:  errorStyle,
		HintStyle:   hintStyle,
		AccentColor: accentColor,
		kbd:         kbd,
	}
}

// Init starts the cursor blink.
func (t TextInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.done || !t.input.Focused() {
		return t, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		val := strings.TrimSpace(t.input.Value())
		if t.validateFn != nil {
			if err := t.validateFn(val); err != nil {
				t.err = err.Error()
				return t, nil
			}
		}
		t.done = true
		t.err = ""
		return t, nil
	}

	before := t.input.Value()
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	if t.input.Value() != before {
		t.err = ""
	}
	return t, cmd
}

// View renders the text input. Key hints are shown only while focused.
func (t TextInput) View(width int) string {
	var out string

	out += "\n  " + t.LabelStyle.Render(t.Label) + "\n"

	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	t.input.Width = inputWidth

	inputBox := t.BorderStyle.Width(inputWidth).Render(t.input.View())
	out += "  " + inputBox + "\n"

	if t.err != "" {
		out += "  " + t.ErrorStyle.Render("✗ "+t.err) + "\n"
	}
	if t.hint != "" {
		out += "  " + t.HintStyle.Render(t.hint) + "\n"
	}

	if t.input.Focused() && !t.done {
		out += "\n" + t.kbd.View() + "\n"
	}
	return out
}

// Done returns true when input is submitted.
func (t TextInput) Done() bool {
	return t.done
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.input.Value())
}

// SetValue sets the input value.
func (t *TextInput) SetValue(v string) {
	t.input.SetValue(v)
}

// Reset reopens a submitted input, keeping its value.
func (t *TextInput) Reset() {
	t.done = false
}

// SetError shows msg under the input; "" clears it.
func (t *TextInput) SetError(msg string) {
	t.err = msg
}

// SetHint shows a status line under the input; "" clears it.
func (t *TextInput) SetHint(hint string) {
	t.hint = hint
}

// SetBindings replaces the key hints.
func (t *TextInput) SetBindings(bindings []KeyBinding) {
	t.kbd.Bindings = bindings
}

// Focus gives the input the keyboard.
func (t *TextInput) Focus() tea.Cmd {
	t.done = false
	return t.input.Focus()
}

// Blur releases the keyboard.
func (t *TextInput) Blur() {
	t.input.Blur()
}

// Focused reports whether the input has the keyboard.
func (t TextInput) Focused() bool {
	return t.input.Focused()
}
