package steps

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/components"
	"github.com/initializ/glewlwyd-console/plugin"
)

// PluginFieldsStep edits the name, display name and the enabled and
// readonly flags.
type PluginFieldsStep struct {
	styles      *tui.StyleSet
	pe          PluginEditor
	name        components.TextInput
	displayName components.TextInput
	onName      bool
	complete    bool
}

// NewPluginFieldsStep creates the fields step.
func NewPluginFieldsStep(styles *tui.StyleSet, pe PluginEditor) *PluginFieldsStep {
	tr := pe.Tr
	s := &PluginFieldsStep{
		styles:      styles,
		pe:          pe,
		name:        newTextInput(styles, tr.Translate("admin.mod-name", nil), tr.Translate("admin.mod-name-ph", nil), nil),
		displayName: newTextInput(styles, tr.Translate("admin.mod-display-name", nil), tr.Translate("admin.mod-display-name-ph", nil), nil),
	}
	hints := []components.KeyBinding{
		{Key: "tab", Desc: "next field"},
		{Key: "⏎", Desc: "continue"},
		{Key: "ctrl+e", Desc: "enabled"},
	}
	if pe.Editor.Role() != plugin.RoleScheme {
		hints = append(hints, components.KeyBinding{Key: "ctrl+r", Desc: tr.Translate("admin.mod-readonly", nil)})
	}
	hints = append(hints, components.KeyBinding{Key: "ctrl+b", Desc: "back"}, components.KeyBinding{Key: "esc", Desc: "quit"})
	s.name.SetBindings(hints)
	s.displayName.SetBindings(hints)
	return s
}

// Prepare loads the entity into the inputs.
func (s *PluginFieldsStep) Prepare(_ *tui.WizardContext) {
	en := s.pe.Editor.Entity()
	s.name.SetValue(en.Name)
	s.displayName.SetValue(en.DisplayName)
}

func (s *PluginFieldsStep) Title() string { return s.pe.Tr.Translate("admin.mod-name", nil) }
func (s *PluginFieldsStep) Icon() string  { return "🏷" }

func (s *PluginFieldsStep) Init() tea.Cmd {
	s.complete = false
	s.Prepare(nil)
	if fe := s.pe.Editor.NameError(); fe != nil {
		s.name.SetError(s.pe.Tr.Translate(fe.Key, nil))
	} else {
		s.name.SetError("")
	}
	if s.pe.Editor.Mode() == plugin.ModeAdd {
		return s.focusName(true)
	}
	return s.focusName(false)
}

func (s *PluginFieldsStep) focusName(name bool) tea.Cmd {
	s.onName = name
	if name {
		s.displayName.Blur()
		return s.name.Focus()
	}
	s.name.Blur()
	return s.displayName.Focus()
}

func (s *PluginFieldsStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if s.complete {
		return s, nil
	}
	ed := s.pe.Editor

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "shift+tab":
			if ed.Mode() == plugin.ModeAdd {
				return s, s.focusName(!s.onName)
			}
			return s, nil
		case "ctrl+e":
			ed.SetEnabled(!ed.Entity().Enabled)
			return s, nil
		case "ctrl+r":
			ed.ToggleReadonly()
			return s, nil
		case "ctrl+b":
			return s, back
		}
	}

	var cmd tea.Cmd
	if s.onName {
		s.name, cmd = s.name.Update(msg)
		if v := s.name.Value(); v != ed.Entity().Name {
			ed.SetName(v)
		}
		if s.name.Done() {
			s.name.Reset()
			return s, s.focusName(false)
		}
		return s, cmd
	}

	s.displayName, cmd = s.displayName.Update(msg)
	if v := s.displayName.Value(); v != ed.Entity().DisplayName {
		ed.SetDisplayName(v)
	}
	if s.displayName.Done() {
		s.displayName.Reset()
		s.complete = true
		return s, complete
	}
	return s, cmd
}

func (s *PluginFieldsStep) View(width int) string {
	en := s.pe.Editor.Entity()
	var out string

	if s.pe.Editor.Mode() == plugin.ModeAdd {
		out += s.name.View(width)
	} else {
		out += "  " + s.styles.SummaryKey.Render(s.name.Label) + s.styles.SummaryValue.Render(en.Name) + "\n"
	}
	out += s.displayName.View(width)

	out += "\n  " + s.flag("enabled", en.Enabled)
	if s.pe.Editor.Role() != plugin.RoleScheme {
		out += "   " + s.flag(s.pe.Tr.Translate("admin.mod-readonly", nil), en.Readonly)
	}
	return out + "\n"
}

func (s *PluginFieldsStep) flag(label string, on bool) string {
	if on {
		return s.styles.SuccessTxt.Render("[x] " + label)
	}
	return s.styles.DimTxt.Render("[ ] " + label)
}

func (s *PluginFieldsStep) Complete() bool {
	return s.complete
}

func (s *PluginFieldsStep) Summary() string {
	en := s.pe.Editor.Entity()
	if en.DisplayName != "" {
		return en.Name + " · " + en.DisplayName
	}
	return en.Name
}

func (s *PluginFieldsStep) Apply(ctx *tui.WizardContext) {
	en := s.pe.Editor.Entity()
	ctx.PluginName = en.Name
	ctx.DisplayName = en.DisplayName
}
