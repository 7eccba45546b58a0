package components

import (
	"bytes"
	"encoding/json"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// JSONEditor is a multi-line editor for a JSON object, wrapping
// bubbles/textarea. It re-parses the text after every edit.
type JSONEditor struct {
	Label  string
	area   textarea.Model
	object map[string]any
	err    string
	issues []string

	// Styles
	LabelStyle  lipgloss.Style
	BorderStyle lipgloss.Style
	ErrorStyle  lipgloss.Style
	HintStyle   lipgloss.Style
	kbd         KbdHint
}

// NewJSONEditor creates a focused editor holding obj, indented.
func NewJSONEditor(label string, obj map[string]any, labelStyle, borderStyle, errorStyle, hintStyle lipgloss.Style, kbdKeyStyle, kbdDescStyle lipgloss.Style) JSONEditor {
	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.SetHeight(12)
	ta.Focus()

	kbd := NewKbdHint(kbdKeyStyle, kbdDescStyle)
	kbd.Bindings = EditorHints()

	e := JSONEditor{
		Label:       label,
		area:        ta,
		LabelStyle:  labelStyle,
		BorderStyle: borderStyle,
		ErrorStyle:  errorStyle,
		HintStyle:   hintStyle,
		kbd:         kbd,
	}
	e.SetObject(obj)
	return e
}

// Init starts the cursor blink.
func (e JSONEditor) Init() tea.Cmd {
	return textarea.Blink
}

// Update forwards input to the textarea and re-parses on change.
func (e JSONEditor) Update(msg tea.Msg) (JSONEditor, tea.Cmd) {
	before := e.area.Value()
	var cmd tea.Cmd
	e.area, cmd = e.area.Update(msg)
	if e.area.Value() != before {
		e.parse()
	}
	return e, cmd
}

func (e *JSONEditor) parse() {
	text := bytes.TrimSpace([]byte(e.area.Value()))
	if len(text) == 0 {
		e.object = map[string]any{}
		e.err = ""
		return
	}
	var obj map[string]any
	if err := json.Unmarshal(text, &obj); err != nil {
		e.err = err.Error()
		return
	}
	if obj == nil {
		obj = map[string]any{}
	}
	e.object = obj
	e.err = ""
}

// SetObject replaces the text with obj, indented.
func (e *JSONEditor) SetObject(obj map[string]any) {
	if obj == nil {
		obj = map[string]any{}
	}
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		e.err = err.Error()
		return
	}
	e.area.SetValue(string(data))
	e.object = obj
	e.err = ""
}

// Object returns the last text that parsed as a JSON object.
func (e JSONEditor) Object() map[string]any {
	return e.object
}

// Valid reports whether the current text is a JSON object.
func (e JSONEditor) Valid() bool {
	return e.err == ""
}

// SetIssues lists problems found in the parsed object.
func (e *JSONEditor) SetIssues(issues []string) {
	e.issues = issues
}

// View renders the editor with its parse error or issues.
func (e JSONEditor) View(width int) string {
	var out string

	out += "\n  " + e.LabelStyle.Render(e.Label) + "\n"

	areaWidth := width - 8
	if areaWidth < 30 {
		areaWidth = 30
	}
	e.area.SetWidth(areaWidth)
	out += "  " + e.BorderStyle.Width(areaWidth+2).Render(e.area.View()) + "\n"

	if e.err != "" {
		out += "  " + e.ErrorStyle.Render("✗ "+e.err) + "\n"
	}
	for _, issue := range e.issues {
		out += "  " + e.HintStyle.Render("• "+issue) + "\n"
	}

	out += "\n" + e.kbd.View() + "\n"
	return out
}
