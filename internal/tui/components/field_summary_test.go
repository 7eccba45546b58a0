package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestFieldSummary(t *testing.T) {
	plain := lipgloss.NewStyle()
	s := NewFieldSummary([]Field{
		{Label: "Name", Value: "hook"},
		{Label: "Display name"},
		{Label: "Type", Err: "The type is mandatory"},
	}, plain, plain, plain, plain)

	if !s.Invalid() {
		t.Error("Invalid() = false, want true")
	}
	view := s.View(60)
	if strings.Contains(view, "Display name") {
		t.Errorf("empty field rendered:\n%s", view)
	}
	if !strings.Contains(view, "✗ The type is mandatory") {
		t.Errorf("field error missing:\n%s", view)
	}

	s.Fields = s.Fields[:1]
	if s.Invalid() {
		t.Error("Invalid() = true without errors")
	}
}
