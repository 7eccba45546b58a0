package steps

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/initializ/glewlwyd-console/forms"
	"github.com/initializ/glewlwyd-console/internal/tui"
	"github.com/initializ/glewlwyd-console/internal/tui/components"
	"github.com/initializ/glewlwyd-console/plugin"
)

const opCommit = "commit"

// PluginReviewStep submits the entity, shows what blocked it, saves it and
// exports it.
type PluginReviewStep struct {
	styles   *tui.StyleSet
	pe       PluginEditor
	summary  components.FieldSummary
	kbd      components.KbdHint
	busy     bool
	saved    bool
	exported string
	problems []string
	complete bool
}

// NewPluginReviewStep creates the review step.
func NewPluginReviewStep(styles *tui.StyleSet, pe PluginEditor) *PluginReviewStep {
	return &PluginReviewStep{
		styles: styles,
		pe:     pe,
		kbd:    components.NewKbdHint(styles.KbdKey, styles.KbdDesc),
	}
}

// Prepare builds the summary from the edited entity.
func (s *PluginReviewStep) Prepare(_ *tui.WizardContext) {
	s.complete = false
	s.problems = nil
	s.rebuild()
}

// rebuild lays out the entity with the editor's inline field errors.
func (s *PluginReviewStep) rebuild() {
	tr := s.pe.Tr
	ed := s.pe.Editor
	en := ed.Entity()
	fields := []components.Field{
		{Label: tr.Translate("admin.mod-type", nil), Value: en.Module, Err: s.fieldError(ed.TypeError())},
		{Label: tr.Translate("admin.mod-name", nil), Value: en.Name, Err: s.fieldError(ed.NameError())},
		{Label: tr.Translate("admin.mod-display-name", nil), Value: en.DisplayName},
		{Label: "enabled", Value: strconv.FormatBool(en.Enabled)},
		{Label: "parameters", Value: strconv.Itoa(len(en.Parameters))},
		{Label: "mode", Value: ed.Mode().String()},
	}
	if ed.Role() != plugin.RoleScheme {
		fields = append(fields, components.Field{Label: tr.Translate("admin.mod-readonly", nil), Value: strconv.FormatBool(en.Readonly)})
	}
	s.summary = components.NewFieldSummary(fields, s.styles.SummaryKey, s.styles.SummaryValue, s.styles.ErrorTxt, s.styles.BorderedBox)
}

func (s *PluginReviewStep) fieldError(fe *forms.FieldError) string {
	if fe == nil {
		return ""
	}
	return s.pe.Tr.Translate(fe.Key, nil)
}

func (s *PluginReviewStep) Title() string { return "Review & Save" }
func (s *PluginReviewStep) Icon() string  { return "💾" }

func (s *PluginReviewStep) Init() tea.Cmd {
	return nil
}

func (s *PluginReviewStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if s.complete {
		return s, nil
	}
	ed := s.pe.Editor

	switch msg := msg.(type) {
	case tui.ValidationResultMsg:
		s.rebuild()
		if msg.Err != nil {
			s.busy = false
			s.problems = s.describe(msg.Err)
			return s, nil
		}
		return s, runOp(opCommit, func() error { return ed.Commit(s.pe.Ctx) })

	case tui.OpResultMsg:
		if msg.Op != opCommit {
			return s, nil
		}
		s.busy = false
		if msg.Err != nil {
			s.problems = s.describe(msg.Err)
			return s, nil
		}
		s.saved = true
		s.Prepare(nil)
		return s, nil

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "enter":
			if s.saved {
				s.complete = true
				return s, complete
			}
			s.busy = true
			s.problems = nil
			return s, func() tea.Msg {
				return tui.ValidationResultMsg{Err: ed.Submit(s.pe.Ctx)}
			}
		case "x":
			s.export()
		case "backspace", "ctrl+b":
			s.saved = false
			return s, back
		}
	}
	return s, nil
}

func (s *PluginReviewStep) export() {
	name, data, err := s.pe.Editor.Export()
	if err != nil {
		s.problems = []string{err.Error()}
		return
	}
	path := filepath.Join(s.pe.ExportDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.problems = []string{fmt.Sprintf("writing %s: %v", path, err)}
		return
	}
	s.exported = path
}

// describe turns a submission failure into the lines shown to the user.
// Connectivity failures are already on the toast.
func (s *PluginReviewStep) describe(err error) []string {
	tr := s.pe.Tr
	var fe *forms.FieldError
	switch {
	case errors.As(err, &fe):
		return []string{tr.Translate(fe.Key, nil) + " (backspace to fix)"}
	case errors.Is(err, plugin.ErrInvalidParameters):
		lines := []string{tr.Translate("admin.error-input", nil)}
		return append(lines, s.pe.Editor.ValidationErrors()...)
	case errors.Is(err, plugin.ErrNotValidated):
		return []string{err.Error()}
	}
	return nil
}

func (s *PluginReviewStep) View(width int) string {
	out := s.summary.View(width) + "\n\n"

	for i, p := range s.problems {
		if i == 0 {
			out += "  " + s.styles.ErrorTxt.Render("✗ "+p) + "\n"
			continue
		}
		out += "    " + s.styles.WarningTxt.Render("• "+p) + "\n"
	}
	if s.saved {
		out += "  " + s.styles.SuccessTxt.Render("✓ "+s.pe.Tr.Translate("admin.mod-saved", map[string]any{"name": s.pe.Editor.Entity().Name})) + "\n"
	}
	if s.exported != "" {
		out += "  " + s.styles.SecondaryTxt.Render(s.pe.Tr.Translate("admin.export", nil)+" → "+s.exported) + "\n"
	}
	if s.busy {
		out += "  " + s.styles.AccentTxt.Render(working) + "\n"
	}

	hints := []components.KeyBinding{{Key: "⏎", Desc: s.pe.Tr.Translate("save", nil)}}
	if s.saved {
		hints[0].Desc = "exit"
	}
	if s.pe.Editor.Mode() == plugin.ModeEdit {
		hints = append(hints, components.KeyBinding{Key: "x", Desc: s.pe.Tr.Translate("admin.export", nil)})
	}
	hints = append(hints, components.KeyBinding{Key: "backspace", Desc: "back"}, components.KeyBinding{Key: "esc", Desc: "quit"})
	out += "\n" + s.kbd.With(hints...).View()
	return out
}

func (s *PluginReviewStep) Complete() bool {
	return s.complete
}

func (s *PluginReviewStep) Summary() string {
	if s.saved {
		return "saved"
	}
	return ""
}

func (s *PluginReviewStep) Apply(ctx *tui.WizardContext) {
	ctx.Saved = s.saved
	ctx.ExportPath = s.exported
}
