package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Field is one line of a FieldSummary. Err holds the translated inline
// error of the field.
type Field struct {
	Label string
	Value string
	Err   string
}

// FieldSummary renders form values in a bordered box, each with its inline
// error. A field with neither value nor error is left out.
type FieldSummary struct {
	Fields []Field

	LabelStyle  lipgloss.Style
	ValueStyle  lipgloss.Style
	ErrorStyle  lipgloss.Style
	BorderStyle lipgloss.Style
}

// NewFieldSummary creates a summary of fields.
func NewFieldSummary(fields []Field, labelStyle, valueStyle, errorStyle, borderStyle lipgloss.Style) FieldSummary {
	return FieldSummary{
		Fields:      fields,
		LabelStyle:  labelStyle,
		ValueStyle:  valueStyle,
		ErrorStyle:  errorStyle,
		BorderStyle: borderStyle,
	}
}

// Invalid reports whether any field carries an error.
func (s FieldSummary) Invalid() bool {
	for _, f := range s.Fields {
		if f.Err != "" {
			return true
		}
	}
	return false
}

// View renders the summary.
func (s FieldSummary) View(width int) string {
	boxWidth := width - 8
	if boxWidth < 30 {
		boxWidth = 30
	}

	var lines []string
	for _, f := range s.Fields {
		if f.Value == "" && f.Err == "" {
			continue
		}
		line := s.LabelStyle.Width(16).Render(f.Label) + "  " + s.ValueStyle.Render(f.Value)
		if f.Err != "" {
			line += "  " + s.ErrorStyle.Render("✗ "+f.Err)
		}
		lines = append(lines, line)
	}

	border := s.BorderStyle
	if s.Invalid() {
		border = border.BorderForeground(s.ErrorStyle.GetForeground())
	}
	return "  " + border.Width(boxWidth).Render(strings.Join(lines, "\n"))
}
